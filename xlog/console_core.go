package xlog

import (
	"context"

	"go.uber.org/zap/zapcore"
)

var consoleCoreEncoderCfg = zapcore.EncoderConfig{
	MessageKey:    "msg",
	LevelKey:      "lvl",
	TimeKey:       "ts",
	CallerKey:     "callAt",
	EncodeCaller:  zapcore.ShortCallerEncoder,
	FunctionKey:   "fn",
	NameKey:       "component",
	EncodeName:    zapcore.FullNameEncoder,
	StacktraceKey: coreKeyIgnored,
}

// newConsoleCore writes to a process stream, other writer types are
// refused with a nil core.
func newConsoleCore(
	ctx context.Context,
	lvlEnabler zapcore.LevelEnabler,
	encoder logEncoderType,
	writer logOutWriterType,
	lvlEnc zapcore.LevelEncoder,
	tsEnc zapcore.TimeEncoder,
) xLogCore {
	if writer >= _writerMax {
		return nil
	}
	return newCommonCore(ctx, lvlEnabler, getEncoderByType(encoder), getOutWriterByType(writer),
		lvlEnc, tsEnc, consoleCoreEncoderCfg)
}
