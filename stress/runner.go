package stress

import (
	"context"
	"errors"
	"fmt"
	randv2 "math/rand/v2"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/benz9527/xtree/lib/id"
	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/xlog"
)

type contextKey string

const taskContextKey contextKey = "stress.task"

// WithTaskContextField logs the id of the running stress task as "task".
func WithTaskContextField() xlog.XLoggerOption {
	return xlog.WithXLoggerContextKeyExtract(taskContextKey, "task")
}

// TaskFromContext returns the id of the stress task running with ctx.
func TaskFromContext(ctx context.Context) (uint64, bool) {
	task, ok := ctx.Value(taskContextKey).(uint64)
	return task, ok
}

var (
	ErrReferenceMismatch = errors.New("[stress] tree diverged from the reference")
	ErrTaskPanic         = errors.New("[stress] task panic")
)

type Runner struct {
	cfg    Config
	logger xlog.XLogger
	ids    id.Generator
}

func NewRunner(cfg Config, logger xlog.XLogger) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		return nil, infra.NewErrorStack("[stress] nil logger")
	}
	ids, err := id.MonotonicNonZeroID()
	if err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, logger: logger, ids: ids}, nil
}

// Run drives every tree in the worker pool and waits for the submitted
// tasks. A done ctx stops both the submitting and the running tasks.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	pool, err := antsv2.NewPool(r.cfg.Workers,
		antsv2.WithLogger(xlog.NewAntsXLogger(r.logger)),
	)
	if err != nil {
		return Report{}, infra.WrapErrorStackWithMessage(err, "[stress] unable to create worker pool")
	}
	defer pool.Release()

	var (
		wg      sync.WaitGroup
		lock    sync.Mutex
		reports = make([]TaskReport, 0, r.cfg.Trees)
		merr    error
	)
	for i := 0; i < r.cfg.Trees; i++ {
		if err := ctx.Err(); err != nil {
			merr = multierr.Append(merr, err)
			break
		}
		wg.Add(1)
		idx := i
		if err := pool.Submit(func() {
			defer wg.Done()
			report := r.runTaskSafe(ctx, idx)
			lock.Lock()
			defer lock.Unlock()
			reports = append(reports, report)
		}); err != nil {
			wg.Done()
			merr = multierr.Append(merr, err)
			break
		}
	}
	wg.Wait()

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Tree < reports[j].Tree
	})
	report := Report{Tasks: reports, Elapsed: time.Since(start)}
	merr = multierr.Append(merr, report.Err())
	if merr != nil {
		r.logger.Error(merr, "stress run failed",
			zap.Int("failed", len(report.Failed())),
			zap.Int("tasks", len(report.Tasks)),
		)
	} else {
		r.logger.Info("stress run passed",
			zap.Int("tasks", len(report.Tasks)),
			zap.Int("ops", report.TotalOps()),
			zap.Int("checks", report.TotalChecks()),
			zap.Duration("elapsed", report.Elapsed),
		)
	}
	return report, merr
}

func (r *Runner) runTaskSafe(ctx context.Context, idx int) (report TaskReport) {
	report = TaskReport{Task: r.ids.Number(), Tree: idx}
	defer func() {
		if p := recover(); p != nil {
			report.Err = infra.WrapErrorStackWithMessage(
				fmt.Errorf("%w: %v", ErrTaskPanic, p),
				"[stress] tree "+strconv.Itoa(idx),
			)
		}
	}()
	r.runTask(context.WithValue(ctx, taskContextKey, report.Task), &report)
	return report
}

func (r *Runner) newTree(idx int) tree.RBTree[uint64, uint64] {
	opts := []tree.RBTreeOpt[uint64, uint64]{
		tree.WithRBTreeAllocator(newAllocator(r.cfg.Allocator)),
	}
	if r.cfg.Stats {
		opts = append(opts, tree.WithRBTreeStats[uint64, uint64]("stress-"+strconv.Itoa(idx)))
	}
	return tree.NewOrderedRBTree[uint64, uint64](opts...)
}

func (r *Runner) runTask(ctx context.Context, report *TaskReport) {
	start := time.Now()
	defer func() {
		report.Elapsed = time.Since(start)
	}()

	rng := randv2.New(randv2.NewPCG(r.cfg.Seed, uint64(report.Tree)))
	t := r.newTree(report.Tree)
	defer t.Clear()
	reference := make(map[uint64]uint64, r.cfg.KeySpace)

	fail := func(err error) {
		report.Err = infra.WrapErrorStackWithMessage(err, "[stress] tree "+strconv.Itoa(report.Tree))
		r.logger.ErrorStackContext(ctx, report.Err, "tree verification failed",
			zap.Int("ops", report.Ops),
		)
	}

	for op := 0; op < r.cfg.Ops; op++ {
		if err := ctx.Err(); err != nil {
			report.Err = err
			return
		}
		key := rng.Uint64N(r.cfg.KeySpace)
		if rng.Float64() < r.cfg.EraseRatio {
			_, exists := reference[key]
			if erased := t.Erase(key); erased != exists {
				fail(fmt.Errorf("%w: erase %d returned %v", ErrReferenceMismatch, key, erased))
				return
			}
			delete(reference, key)
			report.Erases++
		} else {
			val := uint64(op)
			node, inserted, err := t.Insert(key, val)
			if err != nil {
				fail(err)
				return
			}
			if old, exists := reference[key]; exists == inserted || (exists && node.Val() != old) {
				fail(fmt.Errorf("%w: insert %d returned %v", ErrReferenceMismatch, key, inserted))
				return
			} else if !exists {
				reference[key] = val
			}
			report.Inserts++
		}
		report.Ops++

		if r.cfg.CheckEvery > 0 && report.Ops%r.cfg.CheckEvery == 0 {
			report.Checks++
			if err := checkTree(t, reference); err != nil {
				fail(err)
				return
			}
		}
	}

	report.Checks++
	if err := checkTree(t, reference); err != nil {
		fail(err)
		return
	}
	report.FinalLen = t.Len()
	r.logger.DebugContext(ctx, "tree verified",
		zap.Int("tree", report.Tree),
		zap.Int("ops", report.Ops),
		zap.Int64("len", report.FinalLen),
	)
}

// checkTree validates the red-black rules, then compares the in-order
// entries against the reference.
func checkTree(t tree.RBTree[uint64, uint64], reference map[uint64]uint64) error {
	if err := tree.Validate(t); err != nil {
		return err
	}
	if t.Len() != int64(len(reference)) {
		return fmt.Errorf("%w: len %d, reference %d", ErrReferenceMismatch, t.Len(), len(reference))
	}
	keys := lo.Keys(reference)
	slices.Sort(keys)
	i := 0
	for c := t.Begin(); !c.IsEnd(); c.Next() {
		if c.Key() != keys[i] || c.Val() != reference[keys[i]] {
			return fmt.Errorf("%w: position %d holds %d=%d, reference %d=%d",
				ErrReferenceMismatch, i, c.Key(), c.Val(), keys[i], reference[keys[i]])
		}
		i++
	}
	return nil
}
