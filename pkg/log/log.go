package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a named logger. Loggers are cheap handles; output and debug
// switches are package wide.
type Logger struct {
	name string
}

var (
	globalDebug  atomic.Bool
	serviceDebug sync.Map // name -> *atomic.Bool
	loggers      sync.Map // name -> *Logger

	root atomic.Pointer[zap.Logger]
)

func init() {
	root.Store(newRoot(os.Stderr))
}

// debugFilter drops debug entries of services without debug enabled.
type debugFilter struct {
	zapcore.Core
}

func (f debugFilter) With(fields []zapcore.Field) zapcore.Core {
	return debugFilter{f.Core.With(fields)}
}

func (f debugFilter) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if e.Level == zapcore.DebugLevel && !DebugEnabledFor(e.LoggerName) {
		return ce
	}
	return f.Core.Check(e, ce)
}

// newRoot builds the console logger every named logger derives from. The
// logger name is rendered as the grep-friendly `[name>]` marker.
func newRoot(w io.Writer) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05.000000")
	enc.CallerKey = zapcore.OmitKey
	enc.EncodeName = func(name string, pae zapcore.PrimitiveArrayEncoder) {
		pae.AppendString("[" + name + ">]")
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), zapcore.DebugLevel)
	return zap.New(debugFilter{core})
}

// ForService returns (and memoizes) a named logger for the given service.
// The name should be stable, e.g. the package or component name.
func ForService(name string) *Logger {
	if name == "" {
		name = "unknown"
	}
	l, _ := loggers.LoadOrStore(name, &Logger{name: name})
	return l.(*Logger)
}

func SetGlobalDebug(enabled bool) {
	globalDebug.Store(enabled)
}

func GlobalDebug() bool {
	return globalDebug.Load()
}

// EnableDebugFor enables debug logging for a specific service.
func EnableDebugFor(name string) {
	if name == "" {
		return
	}
	val, _ := serviceDebug.LoadOrStore(name, &atomic.Bool{})
	val.(*atomic.Bool).Store(true)
}

// DisableDebugFor disables debug logging for a specific service.
func DisableDebugFor(name string) {
	if val, ok := serviceDebug.Load(name); ok {
		val.(*atomic.Bool).Store(false)
	}
}

// DebugEnabledFor reports whether debug is enabled for the service, either
// globally or for the service itself.
func DebugEnabledFor(name string) bool {
	if globalDebug.Load() {
		return true
	}
	if val, ok := serviceDebug.Load(name); ok {
		return val.(*atomic.Bool).Load()
	}
	return false
}

// SetOutput redirects all loggers, existing ones included, to w.
func SetOutput(w io.Writer) {
	if w == nil {
		return
	}
	root.Store(newRoot(w))
}

func (l *Logger) sugar() *zap.SugaredLogger {
	return root.Load().Named(l.name).Sugar()
}

// Infof logs an informational message with fmt.Sprintf semantics.
func (l *Logger) Infof(format string, args ...any) {
	l.sugar().Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...any) {
	l.sugar().Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...any) {
	l.sugar().Error(fmt.Sprintf(format, args...))
}

// Debugf logs when debug is enabled globally or for this logger's service.
func (l *Logger) Debugf(format string, args ...any) {
	if !DebugEnabledFor(l.name) {
		return
	}
	l.sugar().Debug(fmt.Sprintf(format, args...))
}

// Flush syncs the output.
func Flush() {
	_ = root.Load().Sync()
}
