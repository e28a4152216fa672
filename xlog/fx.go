package xlog

import (
	"strings"

	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var _ fxevent.Logger = (*FxXLogger)(nil)

// FxXLogger reports the fx application lifecycle. Hook and provider
// events are debug logs, failures are error logs.
type FxXLogger struct {
	logger XLogger
}

func (l *FxXLogger) hookDone(hook string, fn, caller string, err error, in int64) {
	fields := []zap.Field{
		zap.String("function", fn),
		zap.String("caller", caller),
		zap.Int64("in", in),
	}
	if err != nil {
		l.logger.Error(err, "HOOK "+hook+" failed", fields...)
		return
	}
	l.logger.Debug("HOOK "+hook+" done", fields...)
}

func (l *FxXLogger) types(action, from string, rtypes []string, fields ...zap.Field) {
	for _, rtype := range rtypes {
		l.logger.Debug(action,
			append([]zap.Field{zap.String("rtype", rtype), zap.String("from", from)}, fields...)...,
		)
	}
}

func moduleOr(module, fallback string) string {
	if len(strings.TrimSpace(module)) > 0 {
		return module
	}
	return fallback
}

func (l *FxXLogger) LogEvent(event fxevent.Event) {
	if l == nil || l.logger == nil {
		return
	}

	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		l.logger.Debug("HOOK OnStart",
			zap.String("function", e.FunctionName),
			zap.String("caller", e.CallerName),
		)
	case *fxevent.OnStartExecuted:
		l.hookDone("OnStart", e.FunctionName, e.CallerName, e.Err, int64(e.Runtime))
	case *fxevent.OnStopExecuting:
		l.logger.Debug("HOOK OnStop",
			zap.String("function", e.FunctionName),
			zap.String("caller", e.CallerName),
		)
	case *fxevent.OnStopExecuted:
		l.hookDone("OnStop", e.FunctionName, e.CallerName, e.Err, int64(e.Runtime))
	case *fxevent.Supplied:
		if e.Err != nil {
			l.logger.Error(e.Err, "SUPPLY failed",
				zap.String("type", e.TypeName),
				zap.Strings("stacktrace", e.StackTrace),
			)
			return
		}
		l.logger.Debug("SUPPLY",
			zap.String("type", e.TypeName),
			zap.String("from", moduleOr(e.ModuleName, "root")),
		)
	case *fxevent.Provided:
		l.types("PROVIDE", moduleOr(e.ModuleName, e.ConstructorName), e.OutputTypeNames,
			zap.Bool("private", e.Private),
		)
		if e.Err != nil {
			l.logger.Error(e.Err, "PROVIDE failed", zap.Strings("stacktrace", e.StackTrace))
		}
	case *fxevent.Replaced:
		l.types("REPLACE", moduleOr(e.ModuleName, "root"), e.OutputTypeNames)
		if e.Err != nil {
			l.logger.Error(e.Err, "REPLACE failed", zap.Strings("stacktrace", e.StackTrace))
		}
	case *fxevent.Decorated:
		l.types("DECORATE", moduleOr(e.ModuleName, e.DecoratorName), e.OutputTypeNames)
		if e.Err != nil {
			l.logger.Error(e.Err, "DECORATE failed", zap.Strings("stacktrace", e.StackTrace))
		}
	case *fxevent.Invoking:
		l.logger.Debug("INVOKE",
			zap.String("function", e.FunctionName),
			zap.String("from", moduleOr(e.ModuleName, "root")),
		)
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error(e.Err, "INVOKE failed",
				zap.String("function", e.FunctionName),
				zap.String("trace", e.Trace),
			)
		}
	case *fxevent.Stopping:
		l.logger.Info("STOPPING", zap.String("signal", strings.ToUpper(e.Signal.String())))
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error(e.Err, "STOP failed")
		}
	case *fxevent.RollingBack:
		l.logger.Warn("START failed, rolling back", zap.Error(e.StartErr))
	case *fxevent.RolledBack:
		if e.Err != nil {
			l.logger.Error(e.Err, "ROLLBACK failed")
		}
	case *fxevent.Started:
		if e.Err != nil {
			l.logger.Error(e.Err, "START failed")
			return
		}
		l.logger.Debug("RUNNING")
	case *fxevent.LoggerInitialized:
		if e.Err != nil {
			l.logger.Error(e.Err, "LOGGER initialize failed")
			return
		}
		l.logger.Debug("LOGGER initialized", zap.String("constructor", e.ConstructorName))
	}
}

func NewFxXLogger(logger XLogger) *FxXLogger {
	return &FxXLogger{logger: newComponentLogger(logger, "Fx")}
}
