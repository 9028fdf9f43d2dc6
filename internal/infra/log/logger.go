package log

// Two-core zap logger: everything goes to logs/app.log, SUCCESS/ERROR lines
// are also echoed to the console with colour.

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const defaultLogsDir = "logs"

var (
	Logger        *zap.Logger
	consoleLogger *zap.Logger // SUCCESS and ERROR only
	mu            sync.RWMutex
)

func init() {
	if err := Init(defaultLogsDir); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize loggers: %v\n", err)
		setLoggers(zap.NewNop(), zap.NewNop())
	}
}

// Init (re)builds the loggers so the file core writes into dir/app.log.
func Init(dir string) error {
	if dir == "" {
		dir = defaultLogsDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	fileConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05"),
		EncodeDuration: zapcore.SecondsDurationEncoder,
	}

	fileCore := zapcore.NewCore(
		&fieldsJSONEncoder{Encoder: zapcore.NewConsoleEncoder(fileConfig)},
		getLogFileWriter(filepath.Join(dir, "app.log")),
		zapcore.DebugLevel,
	)

	consoleConfig := zap.NewDevelopmentConfig()
	consoleConfig.EncoderConfig.EncodeLevel = customLevelEncoder
	consoleConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleConfig.EncoderConfig.EncodeCaller = nil
	consoleConfig.Development = false
	consoleConfig.DisableStacktrace = true
	consoleConfig.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)

	console, err := consoleConfig.Build()
	if err != nil {
		return fmt.Errorf("failed to build console logger: %w", err)
	}

	setLoggers(zap.New(fileCore), console)
	return nil
}

// UseLogger replaces both cores with l. Tests pass zap.NewNop() or an observer.
func UseLogger(l *zap.Logger) {
	setLoggers(l, l)
}

func setLoggers(file, console *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	Logger = file
	consoleLogger = console
}

func loggers() (*zap.Logger, *zap.Logger) {
	mu.RLock()
	defer mu.RUnlock()
	return Logger, consoleLogger
}

// GenerateRequestID returns a short random hex id for correlating log lines.
func GenerateRequestID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// LogRequest records an incoming HTTP request (file only).
func LogRequest(requestID, method, endpoint string, fields ...zap.Field) {
	file, _ := loggers()
	allFields := append([]zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("endpoint", endpoint),
	}, fields...)
	file.Info("HTTP request", allFields...)
}

// LogResponse records the outcome of an HTTP request. Non-2xx responses are
// echoed to the console as well.
func LogResponse(requestID string, statusCode int, durationMs int64, fields ...zap.Field) {
	file, console := loggers()
	allFields := append([]zap.Field{
		zap.String("request_id", requestID),
		zap.Int("status_code", statusCode),
		zap.Int64("duration_ms", durationMs),
	}, fields...)

	if statusCode >= 200 && statusCode < 400 {
		file.Info("HTTP response", allFields...)
		return
	}

	file.Error("HTTP response", allFields...)
	if endpoint := endpointField(fields); endpoint != "" {
		console.Error(fmt.Sprintf("✗ HTTP request failed [%d] %s", statusCode, endpoint))
	} else {
		console.Error(fmt.Sprintf("✗ HTTP request failed [%d]", statusCode))
	}
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

func customLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	switch level {
	case zapcore.DebugLevel:
		enc.AppendString(colorCyan + "DEBUG" + colorReset)
	case zapcore.InfoLevel:
		enc.AppendString(colorGreen + "SUCCESS" + colorReset) // console INFO is only used for SUCCESS
	case zapcore.WarnLevel:
		enc.AppendString(colorYellow + "WARN" + colorReset)
	case zapcore.ErrorLevel:
		enc.AppendString(colorRed + "ERROR" + colorReset)
	case zapcore.FatalLevel:
		enc.AppendString(colorRed + "FATAL" + colorReset)
	case zapcore.PanicLevel:
		enc.AppendString(colorRed + "PANIC" + colorReset)
	default:
		enc.AppendString(colorWhite + level.String() + colorReset)
	}
}

func LogInfo(message string, fields ...zap.Field) {
	file, _ := loggers()
	file.Info(message, fields...)
}

// LogSuccess writes to the file and prints a ✓ line on the console.
func LogSuccess(message string, fields ...zap.Field) {
	file, console := loggers()
	file.Info(message, fields...)

	if durationMs := extractDuration(fields); durationMs > 0 {
		console.Info(fmt.Sprintf("✓ %s (%dms)", message, durationMs))
	} else {
		console.Info("✓ " + message)
	}
}

// LogError writes to the file and prints a ✗ line on the console.
func LogError(message string, fields ...zap.Field) {
	file, console := loggers()
	file.Error(message, fields...)

	if durationMs := extractDuration(fields); durationMs > 0 {
		console.Error(fmt.Sprintf("✗ %s (%dms)", message, durationMs))
	} else {
		console.Error("✗ " + message)
	}
}

func LogWarn(message string, fields ...zap.Field) {
	file, _ := loggers()
	file.Warn(message, fields...)
}

func LogDebug(message string, fields ...zap.Field) {
	file, _ := loggers()
	file.Debug(message, fields...)
}

func extractDuration(fields []zap.Field) int64 {
	for _, field := range fields {
		if field.Key == "duration_ms" && field.Type == zapcore.Int64Type {
			return field.Integer
		}
	}
	return 0
}

func endpointField(fields []zap.Field) string {
	for _, field := range fields {
		if field.Key == "endpoint" {
			return field.String
		}
	}
	return ""
}

// MaxLogFileSize caps app.log; the file is truncated once it grows past it.
const MaxLogFileSize = 50 * 1024 * 1024

type rotatingLogWriter struct {
	file *os.File
	path string
	mu   sync.Mutex
}

func (w *rotatingLogWriter) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := w.file.Stat()
	if err == nil && info.Size() > MaxLogFileSize {
		w.file.Close()

		w.file, err = os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return 0, fmt.Errorf("failed to truncate log file: %w", err)
		}
	}

	return w.file.Write(p)
}

func (w *rotatingLogWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

func getLogFileWriter(path string) zapcore.WriteSyncer {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v, falling back to stderr\n", path, err)
		return zapcore.AddSync(os.Stderr)
	}

	info, err := file.Stat()
	if err == nil && info.Size() > MaxLogFileSize {
		file.Close()
		file, err = os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to truncate log file %s: %v, falling back to stderr\n", path, err)
			return zapcore.AddSync(os.Stderr)
		}
	}

	return zapcore.AddSync(&rotatingLogWriter{file: file, path: path})
}

// fieldsJSONEncoder writes "time     LEVEL message\t{json fields}" lines.
type fieldsJSONEncoder struct {
	zapcore.Encoder
}

func (e *fieldsJSONEncoder) Clone() zapcore.Encoder {
	return &fieldsJSONEncoder{Encoder: e.Encoder.Clone()}
}

func (e *fieldsJSONEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf := buffer.NewPool().Get()

	buf.AppendString(entry.Time.Format("2006-01-02 15:04:05"))
	buf.AppendString("     ")
	buf.AppendString(entry.Level.CapitalString())
	buf.AppendString(" ")
	buf.AppendString(entry.Message)

	if len(fields) > 0 {
		buf.AppendString("\t")
		if jsonData, err := json.Marshal(fieldsToMap(fields)); err == nil {
			buf.AppendString(string(jsonData))
		}
	}

	buf.AppendString("\n")
	return buf, nil
}

func fieldsToMap(fields []zapcore.Field) map[string]interface{} {
	enc := zapcore.NewMapObjectEncoder()
	for _, field := range fields {
		field.AddTo(enc)
	}
	return enc.Fields
}
