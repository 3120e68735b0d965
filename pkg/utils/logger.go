package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync" // For thread-safe initialization

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFile is where the rotating workspace log is written, relative to the working directory.
const LogFile = ".stackpilot/assistant.log"

// Logger writes diagnostics to a rotating log file. Process steps can additionally
// be echoed to a console writer so the user can follow a long-running request.
type Logger struct {
	logger        *log.Logger
	steps         io.Writer
	quiet         bool
	jsonMode      bool
	correlationID string
}

var (
	globalLogger *Logger
	once         sync.Once
)

// GetLogger returns the singleton instance of Logger.
// It initializes the logger with a file handler that rotates logs.
// The quiet parameter suppresses console echo of process steps and can be
// overridden on subsequent calls.
func GetLogger(quiet bool) *Logger {
	once.Do(func() {
		logFile := &lumberjack.Logger{
			Filename:   LogFile,
			MaxSize:    15, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		globalLogger = &Logger{
			logger: log.New(logFile, "", log.LstdFlags),
			steps:  os.Stderr,
		}
	})
	globalLogger.quiet = quiet
	if os.Getenv("STACKPILOT_JSON_LOGS") == "1" {
		globalLogger.jsonMode = true
	}
	if cid := os.Getenv("STACKPILOT_CORRELATION_ID"); cid != "" {
		globalLogger.correlationID = cid
	}
	return globalLogger
}

// NewLogger builds a standalone logger writing to w, or nowhere when w is nil.
// Process steps are not echoed.
func NewLogger(w io.Writer) *Logger {
	if w == nil {
		w = io.Discard
	}
	return &Logger{
		logger: log.New(w, "", 0),
		steps:  io.Discard,
		quiet:  true,
	}
}

// WithCorrelationID returns a copy of the logger that tags every entry with id.
func (w *Logger) WithCorrelationID(id string) *Logger {
	clone := *w
	clone.correlationID = id
	return &clone
}

// Close closes the logger resources.
func (w *Logger) Close() error {
	if logFile, ok := w.logger.Writer().(*lumberjack.Logger); ok {
		return logFile.Close()
	}
	return nil
}

// LogProcessStep logs the current step in a process and echoes it to the console unless quiet.
func (w *Logger) LogProcessStep(step string) {
	w.Logf("Process Step: %s", step)
	if !w.quiet {
		fmt.Fprintln(w.steps, step)
	}
}

// Log logs a general message only to the log file.
func (w *Logger) Log(message string) {
	if w.jsonMode {
		_ = json.NewEncoder(w.logger.Writer()).Encode(map[string]any{"level": "info", "msg": message, "cid": w.correlationID})
		return
	}
	if w.correlationID != "" {
		w.logger.Printf("[%s] %s", w.correlationID, message)
		return
	}
	w.logger.Print(message)
}

// Logf logs a formatted general message only to the log file.
func (w *Logger) Logf(format string, v ...interface{}) {
	w.Log(fmt.Sprintf(format, v...))
}

func (w *Logger) LogError(err error) {
	if w.jsonMode {
		_ = json.NewEncoder(w.logger.Writer()).Encode(map[string]any{"level": "error", "error": err.Error(), "cid": w.correlationID})
		return
	}
	w.Log(fmt.Sprintf("Error: %s", err))
}
