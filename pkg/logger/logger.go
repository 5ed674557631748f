// Package logger is the process-wide log sink for suitekit. It stays
// silent until Init or InitWriter installs a destination, so embedding
// binaries pay nothing unless they turn logging on.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	mu   sync.Mutex
	out  *log.Logger
	dst  io.Writer
	file *os.File // non-nil when Init opened the destination
)

// Init routes log output to the file at path, creating it or appending
// to an existing one. A previously opened log file is closed first.
func Init(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
	}
	file = f
	dst = f
	out = log.New(f, "", log.Ltime|log.Lmicroseconds)
	return nil
}

// InitWriter routes log output to w, e.g. stderr for verbose runs.
func InitWriter(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
	}
	dst = w
	out = log.New(w, "", log.Ltime|log.Lmicroseconds)
}

// Close detaches the sink and closes the log file when one is open.
// Subsequent log calls are no-ops until the next Init.
func Close() {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
		file = nil
	}
	dst = nil
	out = nil
}

func emit(level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()
	if out == nil {
		return
	}
	out.Printf(level+" "+format, v...)
}

// Info logs an informational message.
func Info(format string, v ...interface{}) { emit("[INFO]", format, v...) }

// Debug logs a debug message.
func Debug(format string, v ...interface{}) { emit("[DEBUG]", format, v...) }

// Warn logs a warning.
func Warn(format string, v ...interface{}) { emit("[WARN]", format, v...) }

// Error logs an error message.
func Error(format string, v ...interface{}) { emit("[ERROR]", format, v...) }

// GetWriter returns the active log destination, io.Discard when logging
// is off.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()
	if dst != nil {
		return dst
	}
	return io.Discard
}
