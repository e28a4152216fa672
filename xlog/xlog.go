package xlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/benz9527/xtree/lib/infra"
	"github.com/benz9527/xtree/lib/kv"
)

var (
	printBanner = sync.Once{}
	errNilCore  = errors.New("[XLogger] logger core is nil")
)

// XLogger is wrapper logger of Uber zap logger.
type xLogger struct {
	cancelFn            context.CancelFunc
	logger              atomic.Pointer[zap.Logger]
	ctxFields           kv.ThreadSafeStorer[string, ctxField]
	dynamicLevelEnabler zap.AtomicLevel
	writer              logOutWriterType
	encoder             logEncoderType
}

func (l *xLogger) zap() *zap.Logger {
	return l.logger.Load()
}

// IncreaseLogLevel we can increase or decrease the log level concurrently.
func (l *xLogger) IncreaseLogLevel(level zapcore.Level) {
	l.dynamicLevelEnabler.SetLevel(level)
}

func (l *xLogger) Sync() error {
	return l.zap().Sync()
}

func (l *xLogger) Level() string {
	return l.dynamicLevelEnabler.Level().String()
}

func (l *xLogger) Close() {
	if l.cancelFn != nil {
		l.cancelFn()
	}
}

var bannerEncoderCfg = zapcore.EncoderConfig{
	MessageKey:    "banner", // The console encoder drops the key.
	LevelKey:      coreKeyIgnored,
	TimeKey:       coreKeyIgnored,
	CallerKey:     coreKeyIgnored,
	StacktraceKey: coreKeyIgnored,
}

// Banner prints once per process, at info level whatever the logger level.
func (l *xLogger) Banner(banner Banner) {
	printBanner.Do(func() {
		text := banner.JSON()
		if l.encoder == PlainText {
			text = banner.PlainText()
		}
		core := zapcore.NewCore(
			getEncoderByType(l.encoder)(bannerEncoderCfg),
			getOutWriterByType(l.writer),
			zapcore.InfoLevel,
		)
		l.zap().WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core {
			return core
		})).Info(text)
	})
}

// fields assembles a record: the context fields, then the error, then
// the fields of the call site.
func (l *xLogger) fields(ctx context.Context, err error, stack bool, fields []zap.Field) []zap.Field {
	if ctx == nil && err == nil {
		return fields
	}
	res := extractFieldsFromContext(ctx, l.ctxFields)
	switch {
	case err == nil:
	case stack:
		res = append(res, errorStackFields(err)...)
	default:
		res = append(res, zap.String("error", err.Error()))
	}
	return append(res, fields...)
}

func (l *xLogger) Debug(msg string, fields ...zap.Field) {
	l.zap().Debug(msg, fields...)
}

func (l *xLogger) Info(msg string, fields ...zap.Field) {
	l.zap().Info(msg, fields...)
}

func (l *xLogger) Warn(msg string, fields ...zap.Field) {
	l.zap().Warn(msg, fields...)
}

func (l *xLogger) Error(err error, msg string, fields ...zap.Field) {
	l.zap().Error(msg, l.fields(nil, err, false, fields)...)
}

func (l *xLogger) ErrorStack(err error, msg string, fields ...zap.Field) {
	l.zap().Error(msg, l.fields(nil, err, true, fields)...)
}

func (l *xLogger) DebugContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.zap().Debug(msg, l.fields(ctx, nil, false, fields)...)
}

func (l *xLogger) InfoContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.zap().Info(msg, l.fields(ctx, nil, false, fields)...)
}

func (l *xLogger) WarnContext(ctx context.Context, msg string, fields ...zap.Field) {
	l.zap().Warn(msg, l.fields(ctx, nil, false, fields)...)
}

func (l *xLogger) ErrorContext(ctx context.Context, err error, msg string, fields ...zap.Field) {
	l.zap().Error(msg, l.fields(ctx, err, false, fields)...)
}

func (l *xLogger) ErrorStackContext(ctx context.Context, err error, msg string, fields ...zap.Field) {
	l.zap().Error(msg, l.fields(ctx, err, true, fields)...)
}

func (l *xLogger) Logf(lvl zapcore.Level, format string, args ...any) {
	l.zap().Log(lvl, fmt.Sprintf(format, args...))
}

func (l *xLogger) ErrorStackf(err error, format string, args ...any) {
	l.zap().Error(fmt.Sprintf(format, args...), l.fields(nil, err, true, nil)...)
}

// errorStackFields inlines the stack of an infra.ErrorStack anywhere in
// the chain, other errors are logged by their message.
func errorStackFields(err error) []zap.Field {
	var es infra.ErrorStack
	if errors.As(err, &es) && es != nil {
		return []zap.Field{zap.Inline(es)}
	}
	return []zap.Field{zap.String("error", err.Error())}
}

type loggerCfg struct {
	ctx              context.Context
	ctxFields        kv.ThreadSafeStorer[string, ctxField]
	encoderType      *logEncoderType
	writerType       *logOutWriterType
	lvlEncoder       zapcore.LevelEncoder
	tsEncoder        zapcore.TimeEncoder
	level            *zapcore.Level
	coreConstructors []XLogCoreConstructor
	cores            []xLogCore
}

func (cfg *loggerCfg) apply(l *xLogger) {
	l.encoder = lo.FromPtrOr(cfg.encoderType, JSON)
	l.writer = lo.FromPtrOr(cfg.writerType, StdOut)
	l.dynamicLevelEnabler = zap.NewAtomicLevelAt(
		lo.FromPtrOr(cfg.level, getLogLevelOrDefault(os.Getenv("XLOG_LVL"))),
	)
	l.ctxFields = cfg.ctxFields

	if cfg.lvlEncoder == nil {
		cfg.lvlEncoder = zapcore.CapitalLevelEncoder
	}
	if cfg.tsEncoder == nil {
		cfg.tsEncoder = zapcore.ISO8601TimeEncoder
	}
	if len(cfg.coreConstructors) == 0 {
		cfg.coreConstructors = []XLogCoreConstructor{newConsoleCore}
	}
	if cfg.ctx == nil {
		cfg.ctx = context.Background()
	}
	cfg.ctx, l.cancelFn = context.WithCancel(cfg.ctx)

	cfg.cores = lo.Map(cfg.coreConstructors, func(cc XLogCoreConstructor, _ int) xLogCore {
		return cc(cfg.ctx, l.dynamicLevelEnabler, l.encoder, l.writer, cfg.lvlEncoder, cfg.tsEncoder)
	})
}

type XLoggerOption func(*loggerCfg) error

func NewXLogger(opts ...XLoggerOption) XLogger {
	cfg := &loggerCfg{}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o(cfg); err != nil {
			panic(err)
		}
	}
	xl := &xLogger{}
	cfg.apply(xl)

	// Disable zap logger error stack.
	l := zap.New(
		XLogTeeCore(cfg.cores...),
		zap.AddCallerSkip(1), // Use caller filename as service
		zap.AddCaller(),
	)
	xl.logger.Store(l)
	return xl
}

func WithXLoggerContext(ctx context.Context) XLoggerOption {
	return func(cfg *loggerCfg) error {
		cfg.ctx = ctx
		return nil
	}
}

func WithXLoggerStdOutWriter() XLoggerOption {
	return withXLoggerWriter(StdOut)
}

func WithXLoggerStdErrWriter() XLoggerOption {
	return withXLoggerWriter(StdErr)
}

func withXLoggerWriter(typ logOutWriterType) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if typ >= _writerMax {
			return infra.NewErrorStack("unknown xlogger writer")
		}
		cfg.writerType = &typ
		return nil
	}
}

func WithXLoggerEncoder(logEnc logEncoderType) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if logEnc >= _encMax {
			return infra.NewErrorStack("unknown xlogger encoder")
		}
		cfg.encoderType = lo.ToPtr(logEnc)
		return nil
	}
}

func WithXLoggerLevel(lvl logLevel) XLoggerOption {
	return func(cfg *loggerCfg) error {
		cfg.level = lo.ToPtr(lvl.zapLevel())
		return nil
	}
}

// WithXLoggerLevelEncoder colors the level when lvlEnc is nil.
func WithXLoggerLevelEncoder(lvlEnc zapcore.LevelEncoder) XLoggerOption {
	return func(cfg *loggerCfg) error {
		cfg.lvlEncoder = lo.Ternary(lvlEnc != nil, lvlEnc, zapcore.CapitalColorLevelEncoder)
		return nil
	}
}

func WithXLoggerTimeEncoder(tsEnc zapcore.TimeEncoder) XLoggerOption {
	return func(cfg *loggerCfg) error {
		cfg.tsEncoder = lo.Ternary(tsEnc != nil, tsEnc, zapcore.ISO8601TimeEncoder)
		return nil
	}
}

// WithXLoggerContextFieldExtract logs the context value of field under the
// mapTo key. ContextKeyMapToOmitempty registers the field but never logs it.
func WithXLoggerContextFieldExtract(field string, mapTo ...string) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if len(field) == 0 {
			return nil
		}
		target := field
		if len(mapTo) > 0 && mapTo[0] != ContextKeyMapToItself {
			target = mapTo[0]
		}
		return cfg.addCtxField(field, ctxField{key: field, mapTo: target})
	}
}

// WithXLoggerContextKeyExtract logs the context value of a typed key under
// mapTo. It is ordered by mapTo among the other context fields.
func WithXLoggerContextKeyExtract(key any, mapTo string) XLoggerOption {
	return func(cfg *loggerCfg) error {
		if key == nil || len(mapTo) == 0 {
			return infra.NewErrorStack("[XLogger] context key and mapTo are required")
		}
		return cfg.addCtxField(mapTo, ctxField{key: key, mapTo: mapTo})
	}
}

// ctxField is a context value logged under mapTo.
type ctxField struct {
	key   any
	mapTo string
}

func (cfg *loggerCfg) addCtxField(name string, field ctxField) error {
	if cfg.ctxFields == nil {
		cfg.ctxFields = kv.NewThreadSafeMap[string, ctxField]()
	}
	return cfg.ctxFields.AddOrUpdate(name, field)
}

// getLogLevelOrDefault is debug for empty or unknown names.
func getLogLevelOrDefault(level string) zapcore.Level {
	return logLevel(strings.ToUpper(strings.TrimSpace(level))).zapLevel()
}

// The fields come out in the name order of the targets, a missing value
// is logged as "nil".
func extractFieldsFromContext(
	ctx context.Context,
	targets kv.ThreadSafeStorer[string, ctxField],
) []zap.Field {
	if ctx == nil || targets == nil {
		return nil
	}
	return lo.FilterMap(targets.ListValues(), func(f ctxField, _ int) (zap.Field, bool) {
		if f.mapTo == ContextKeyMapToOmitempty {
			return zap.Skip(), false
		}
		if v := ctx.Value(f.key); v != nil {
			return zap.Any(f.mapTo, v), true
		}
		return zap.String(f.mapTo, "nil"), true
	})
}
