package xlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// newComponentLogger derives a named logger whose cores drop the caller
// and function keys. It shares the parent's level enabler.
func newComponentLogger(logger XLogger, name string) *xLogger {
	l := &xLogger{dynamicLevelEnabler: zap.NewAtomicLevel()}
	if parent, ok := logger.(*xLogger); ok {
		l.dynamicLevelEnabler = parent.dynamicLevelEnabler
		l.ctxFields = parent.ctxFields
		l.writer, l.encoder = parent.writer, parent.encoder
	}
	l.logger.Store(logger.
		zap().
		Named(name).
		WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			if core == nil {
				panic("[XLogger] core is nil")
			}
			cc, ok := core.(xLogCore)
			if !ok {
				panic("[XLogger] core is not XLogCore")
			}
			var err error
			if mc, ok := cc.(xLogMultiCore); ok {
				cc, err = WrapCores(mc, componentCoreEncoderCfg)
			} else {
				cc, err = WrapCore(cc, componentCoreEncoderCfg)
			}
			if err != nil {
				panic(err)
			}
			return cc
		})),
	)
	return l
}

type AntsXLogger struct {
	logger XLogger
}

// Printf receives the ants pool messages, mostly recovered task panics.
func (l *AntsXLogger) Printf(format string, args ...any) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Logf(zapcore.ErrorLevel, format, args...)
}

func NewAntsXLogger(logger XLogger) *AntsXLogger {
	return &AntsXLogger{
		logger: newComponentLogger(logger, "Ants"),
	}
}
