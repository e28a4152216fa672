package xlog

import (
	"context"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ xLogCore = (xLogMultiCore)(nil)

// xLogMultiCore fans entries out to every core. The encoder accessors
// return nil, the cores are wrapped one by one instead.
type xLogMultiCore []xLogCore

func (mc xLogMultiCore) context() context.Context                                    { return nil }
func (mc xLogMultiCore) levelEncoder() zapcore.LevelEncoder                          { return nil }
func (mc xLogMultiCore) outEncoder() func(cfg zapcore.EncoderConfig) zapcore.Encoder { return nil }
func (mc xLogMultiCore) timeEncoder() zapcore.TimeEncoder                            { return nil }
func (mc xLogMultiCore) writeSyncer() zapcore.WriteSyncer                            { return nil }

func (mc xLogMultiCore) With(fields []zap.Field) zapcore.Core {
	clone := make(xLogMultiCore, 0, len(mc))
	for i := range mc {
		if c, ok := mc[i].With(fields).(xLogCore); ok {
			clone = append(clone, c)
		}
	}
	return clone
}

func (mc xLogMultiCore) Enabled(lvl zapcore.Level) bool {
	for i := range mc {
		if mc[i].Enabled(lvl) {
			return true
		}
	}
	return false
}

func (mc xLogMultiCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	for i := range mc {
		ce = mc[i].Check(ent, ce)
	}
	return ce
}

func (mc xLogMultiCore) Write(ent zapcore.Entry, fields []zap.Field) error {
	var err error
	for i := range mc {
		err = multierr.Append(err, mc[i].Write(ent, fields))
	}
	return err
}

func (mc xLogMultiCore) Sync() error {
	var err error
	for i := range mc {
		err = multierr.Append(err, mc[i].Sync())
	}
	return err
}

// XLogTeeCore drops nil cores, the constructors return nil for writers
// they can't serve.
func XLogTeeCore(cores ...xLogCore) xLogCore {
	mc := make(xLogMultiCore, 0, len(cores))
	for _, c := range cores {
		if c != nil {
			mc = append(mc, c)
		}
	}
	return mc
}

func WrapCores(cores []xLogCore, cfg zapcore.EncoderConfig) (xLogCore, error) {
	newCores := make(xLogMultiCore, 0, len(cores))
	for i := range cores {
		newCore, err := WrapCore(cores[i], cfg)
		if err != nil {
			return nil, err
		}
		newCores = append(newCores, newCore)
	}
	return newCores, nil
}
