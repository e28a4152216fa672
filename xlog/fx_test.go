package xlog

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
)

func TestFxXLogger_App(t *testing.T) {
	logger, w := newTestXLogger(t, WithXLoggerLevel(LogLevelDebug))
	invoked := false
	app := fx.New(
		fx.WithLogger(func() fxevent.Logger {
			return NewFxXLogger(logger)
		}),
		fx.Supply(42),
		fx.Invoke(func(n int, lc fx.Lifecycle) {
			invoked = n == 42
			lc.Append(fx.StartStopHook(func() {}, func() {}))
		}),
	)
	require.NoError(t, app.Err())
	require.NoError(t, app.Start(context.Background()))
	require.NoError(t, app.Stop(context.Background()))
	require.True(t, invoked)

	lines := w.lines(t)
	require.NotEmpty(t, lines)
	msgs := make([]any, 0, len(lines))
	for _, line := range lines {
		require.Equal(t, "Fx", line["component"])
		msgs = append(msgs, line["msg"])
	}
	require.Contains(t, msgs, "SUPPLY")
	require.Contains(t, msgs, "INVOKE")
	require.Contains(t, msgs, "RUNNING")
	require.Contains(t, msgs, "HOOK OnStart done")
}

func TestFxXLogger_Failures(t *testing.T) {
	var nilLogger *FxXLogger
	nilLogger.LogEvent(&fxevent.Started{})

	logger, w := newTestXLogger(t, WithXLoggerLevel(LogLevelDebug))
	fxLogger := NewFxXLogger(logger)
	errFx := errors.New("fx failure")
	events := []fxevent.Event{
		&fxevent.OnStartExecuted{FunctionName: "start", Err: errFx},
		&fxevent.OnStopExecuted{FunctionName: "stop", Err: errFx},
		&fxevent.Supplied{TypeName: "int", Err: errFx},
		&fxevent.Provided{OutputTypeNames: []string{"int"}, ModuleName: "tree", Err: errFx},
		&fxevent.Replaced{OutputTypeNames: []string{"int"}, Err: errFx},
		&fxevent.Decorated{OutputTypeNames: []string{"int"}, Err: errFx},
		&fxevent.Invoked{FunctionName: "verify", Err: errFx},
		&fxevent.Stopped{Err: errFx},
		&fxevent.RolledBack{Err: errFx},
		&fxevent.Started{Err: errFx},
		&fxevent.LoggerInitialized{Err: errFx},
	}
	for _, e := range events {
		fxLogger.LogEvent(e)
	}
	fxLogger.LogEvent(&fxevent.Stopping{Signal: os.Interrupt})
	fxLogger.LogEvent(&fxevent.RollingBack{StartErr: errFx})

	failures := 0
	for _, line := range w.lines(t) {
		if line["error"] == "fx failure" {
			failures++
		}
	}
	// RollingBack logs its start error too.
	require.Equal(t, len(events)+1, failures)
	require.Contains(t, w.String(), `"signal":"INTERRUPT"`)
}
