package stress

import (
	"time"

	"github.com/samber/lo"
	"go.uber.org/multierr"
)

type TaskReport struct {
	Task     uint64
	Tree     int
	Ops      int
	Inserts  int
	Erases   int
	Checks   int
	FinalLen int64
	Elapsed  time.Duration
	Err      error
}

type Report struct {
	Tasks   []TaskReport
	Elapsed time.Duration
}

// Err combines the errors of all failed tasks.
func (r Report) Err() error {
	return multierr.Combine(lo.FilterMap(r.Tasks, func(task TaskReport, _ int) (error, bool) {
		return task.Err, task.Err != nil
	})...)
}

func (r Report) Failed() []TaskReport {
	return lo.Filter(r.Tasks, func(task TaskReport, _ int) bool {
		return task.Err != nil
	})
}

func (r Report) TotalOps() int {
	return lo.SumBy(r.Tasks, func(task TaskReport) int { return task.Ops })
}

func (r Report) TotalChecks() int {
	return lo.SumBy(r.Tasks, func(task TaskReport) int { return task.Checks })
}
