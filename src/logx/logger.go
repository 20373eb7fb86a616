// Package logx is the process-wide leveled logger. Messages go to stderr through a zap
// console core; the level can be changed at any time with SetLogLevel.
package logx

import (
	"io"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents severity.
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = map[string]LogLevel{
	"debug":   LevelDebug,
	"info":    LevelInfo,
	"warn":    LevelWarn,
	"warning": LevelWarn,
	"error":   LevelError,
}

var zapLevels = map[LogLevel]zapcore.Level{
	LevelDebug: zapcore.DebugLevel,
	LevelInfo:  zapcore.InfoLevel,
	LevelWarn:  zapcore.WarnLevel,
	LevelError: zapcore.ErrorLevel,
}

var (
	currentLevel int32 = int32(LevelInfo)
	atomicLevel        = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	sugar        atomic.Pointer[zap.SugaredLogger]
)

func init() {
	useCore(consoleCore(zapcore.Lock(os.Stderr)))
}

func consoleCore(w zapcore.WriteSyncer) zapcore.Core {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006/01/02 15:04:05.000000")
	cfg.CallerKey = ""
	return zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), w, atomicLevel)
}

// useCore installs core and returns a func restoring the previous logger.
func useCore(core zapcore.Core) func() {
	prev := sugar.Swap(zap.New(core).Sugar())
	return func() {
		if prev != nil {
			sugar.Store(prev)
		}
	}
}

// SetOutput redirects log output, e.g. to a file or a test buffer.
func SetOutput(w io.Writer) {
	useCore(consoleCore(zapcore.AddSync(w)))
}

// SetLogLevel parses and sets global log level. Unknown names are ignored.
func SetLogLevel(s string) {
	l, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return
	}
	atomic.StoreInt32(&currentLevel, int32(l))
	atomicLevel.SetLevel(zapLevels[l])
}

// ValidLevel reports whether s names a log level.
func ValidLevel(s string) bool {
	_, ok := levelNames[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// GetLogLevel returns current global log level.
func GetLogLevel() LogLevel { return LogLevel(atomic.LoadInt32(&currentLevel)) }

func logf(l LogLevel, format string, args ...interface{}) {
	s := sugar.Load()
	// a message without args is printed as is so literal % signs survive
	if len(args) == 0 {
		switch l {
		case LevelDebug:
			s.Debug(format)
		case LevelWarn:
			s.Warn(format)
		case LevelError:
			s.Error(format)
		default:
			s.Info(format)
		}
		return
	}
	switch l {
	case LevelDebug:
		s.Debugf(format, args...)
	case LevelWarn:
		s.Warnf(format, args...)
	case LevelError:
		s.Errorf(format, args...)
	default:
		s.Infof(format, args...)
	}
}

func Debugf(format string, a ...interface{}) { logf(LevelDebug, format, a...) }
func Infof(format string, a ...interface{})  { logf(LevelInfo, format, a...) }
func Warnf(format string, a ...interface{})  { logf(LevelWarn, format, a...) }
func Errorf(format string, a ...interface{}) { logf(LevelError, format, a...) }

// Sync flushes buffered output.
func Sync() { _ = sugar.Load().Sync() }

// Timing helper for phases.
func TimeTrack(start time.Time, label string) {
	Debugf("%s took %s", label, time.Since(start))
}
