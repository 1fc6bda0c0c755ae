// Package log provides the module-scoped structured logger used
// throughout the toolkit. The shape mirrors the teacher's
// log.NewModuleLogger(moduleID) convention: every component gets its
// own named logger, and every call site passes alternating key/value
// pairs rather than formatted strings.
package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Module identifies the subsystem a Logger is bound to. Kept as a
// plain string (not an enum) since application packages outside this
// module mint their own module ids.
type Module = string

const (
	ModuleSupervisor     Module = "supervisor"
	ModuleBroadcaster    Module = "broadcaster"
	ModuleNode           Module = "node"
	ModuleSigner         Module = "signer"
	ModuleErrorHandler   Module = "error-handler"
	ModuleBalanceReport  Module = "balance-reporter"
	ModuleProtocolWatch  Module = "protocol-watcher"
	ModuleService        Module = "service"
	ModuleFeeder         Module = "market-data-feeder"
	ModuleDispatcher     Module = "alarms-dispatcher"
)

var base *zap.Logger = zap.NewNop()

// Setup installs the process-wide base logger. debug enables debug
// level (DEBUG_LOGGING env var); jsonOutput selects the JSON encoder
// (OUTPUT_JSON env var); logsDir, when non-empty, additionally writes
// to <logsDir>/chain-ops.log.
func Setup(debug, jsonOutput bool, logsDir string) error {
	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}

	var encoder zapcore.Encoder
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if jsonOutput {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	sinks := []zapcore.WriteSyncer{zapcore.AddSync(os.Stderr)}
	if logsDir != "" {
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return err
		}
		f, err := os.OpenFile(logsDir+"/chain-ops.log", os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		sinks = append(sinks, zapcore.AddSync(f))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(sinks...), level)
	base = zap.New(core, zap.AddCaller())
	return nil
}

// Logger is a thin, key-value oriented wrapper around *zap.Logger,
// bound to one module name.
type Logger struct {
	module string
}

// New returns a Logger for the given module. Every call reads from
// whatever base logger Setup last installed (or the no-op default if
// Setup was never called — tests rely on this), so package-level
// loggers created before Setup still log once it has run.
func New(module Module) *Logger {
	return &Logger{module: module}
}

func (l *Logger) z() *zap.SugaredLogger { return base.Sugar().With("module", l.module) }

func (l *Logger) Debug(msg string, kv ...interface{}) { l.z().Debugw(msg, kv...) }
func (l *Logger) Info(msg string, kv ...interface{})  { l.z().Infow(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...interface{})  { l.z().Warnw(msg, kv...) }
func (l *Logger) Error(msg string, kv ...interface{}) { l.z().Errorw(msg, kv...) }

// Fatalf prints to stderr and terminates the process with a non-zero
// exit code, matching the teacher's cmd/utils.Fatalf convention used
// for bootstrap failures (spec.md §6: non-zero exit on bootstrap
// failure).
func Fatalf(format string, args ...interface{}) {
	if base.Core().Enabled(zapcore.FatalLevel) {
		base.Sugar().Fatalf(format, args...)
	}
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
