package stress

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/benz9527/xtree/lib/tree"
	"github.com/benz9527/xtree/xlog"
)

func newTestLogger() xlog.XLogger {
	return xlog.NewXLogger(
		xlog.WithXLoggerLevel(xlog.LogLevelError),
		WithTaskContextField(),
	)
}

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Workers = 3
	cfg.Trees = 6
	cfg.Ops = 3000
	cfg.KeySpace = 256
	cfg.CheckEvery = 100
	return cfg
}

func TestRunner_Run(t *testing.T) {
	for _, kind := range []AllocatorKind{HeapAllocator, PoolAllocator, ArenaAllocator} {
		t.Run(string(kind), func(tt *testing.T) {
			cfg := smallConfig()
			cfg.Allocator = kind
			runner, err := NewRunner(cfg, newTestLogger())
			require.NoError(tt, err)

			report, err := runner.Run(context.Background())
			require.NoError(tt, err)
			require.NoError(tt, report.Err())
			require.Empty(tt, report.Failed())
			require.Len(tt, report.Tasks, cfg.Trees)
			require.Equal(tt, cfg.Trees*cfg.Ops, report.TotalOps())
			// one check per 100 ops plus the final one
			require.Equal(tt, cfg.Trees*(cfg.Ops/cfg.CheckEvery+1), report.TotalChecks())
			for i, task := range report.Tasks {
				require.Equal(tt, i, task.Tree)
				require.NotZero(tt, task.Task)
				require.Equal(tt, cfg.Ops, task.Inserts+task.Erases)
				require.Greater(tt, task.FinalLen, int64(0))
			}
		})
	}
}

func TestRunner_Deterministic(t *testing.T) {
	cfg := smallConfig()
	cfg.Stats = true
	lens := make([][]int64, 0, 2)
	for i := 0; i < 2; i++ {
		runner, err := NewRunner(cfg, newTestLogger())
		require.NoError(t, err)
		report, err := runner.Run(context.Background())
		require.NoError(t, err)
		run := make([]int64, 0, len(report.Tasks))
		for _, task := range report.Tasks {
			run = append(run, task.FinalLen)
		}
		lens = append(lens, run)
	}
	require.Equal(t, lens[0], lens[1])
}

func TestRunner_Cancelled(t *testing.T) {
	runner, err := NewRunner(smallConfig(), newTestLogger())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	report, err := runner.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, report.Tasks)
}

func TestNewRunner_Invalid(t *testing.T) {
	cfg := smallConfig()
	cfg.Workers = 0
	_, err := NewRunner(cfg, newTestLogger())
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewRunner(smallConfig(), nil)
	require.Error(t, err)
}

func TestCheckTree(t *testing.T) {
	rbtree := tree.NewOrderedRBTree[uint64, uint64]()
	reference := map[uint64]uint64{}
	for k := uint64(0); k < 10; k++ {
		_, err := rbtree.Add(k, k*2)
		require.NoError(t, err)
		reference[k] = k * 2
	}
	require.NoError(t, checkTree(rbtree, reference))

	reference[3] = 7
	require.ErrorIs(t, checkTree(rbtree, reference), ErrReferenceMismatch)
	delete(reference, 3)
	require.ErrorIs(t, checkTree(rbtree, reference), ErrReferenceMismatch)
}

func TestReport(t *testing.T) {
	errA, errB := errors.New("a"), errors.New("b")
	report := Report{Tasks: []TaskReport{
		{Tree: 0, Ops: 10, Checks: 1},
		{Tree: 1, Ops: 5, Checks: 2, Err: errA},
		{Tree: 2, Ops: 1, Err: errB},
	}}
	require.ErrorIs(t, report.Err(), errA)
	require.ErrorIs(t, report.Err(), errB)
	require.Len(t, report.Failed(), 2)
	require.Equal(t, 16, report.TotalOps())
	require.Equal(t, 3, report.TotalChecks())
	require.NoError(t, Report{}.Err())
}

func TestTaskFromContext(t *testing.T) {
	_, ok := TaskFromContext(context.Background())
	require.False(t, ok)

	// A plain string key of the same text is another key.
	ctx := context.WithValue(context.Background(), "stress.task", uint64(3))
	_, ok = TaskFromContext(ctx)
	require.False(t, ok)

	ctx = context.WithValue(ctx, taskContextKey, uint64(9))
	task, ok := TaskFromContext(ctx)
	require.True(t, ok)
	require.Equal(t, uint64(9), task)
}
