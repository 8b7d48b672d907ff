package logger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var defaultLogger *logrus.Logger

// Initialize sets up the global logger with the specified level and format
func Initialize(level, format string) {
	l := logrus.New()
	l.SetOutput(os.Stdout)

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	if strings.ToLower(format) == "json" {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	defaultLogger = l
}

// Get returns the default logger
func Get() *logrus.Logger {
	if defaultLogger == nil {
		Initialize("info", "text")
	}
	return defaultLogger
}

// fields turns alternating key/value pairs into logrus fields.
// A trailing key without a value is kept under "!BADKEY".
func fields(args []any) logrus.Fields {
	f := make(logrus.Fields, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			f["!BADKEY"] = args[i]
			break
		}
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		f[key] = args[i+1]
	}
	return f
}

func entry(args []any) *logrus.Entry {
	return Get().WithFields(fields(args))
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	entry(args).Debug(msg)
}

// Info logs an info message
func Info(msg string, args ...any) {
	entry(args).Info(msg)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	entry(args).Warn(msg)
}

// Error logs an error message
func Error(msg string, args ...any) {
	entry(args).Error(msg)
}

// InfoContext logs an info message with context
func InfoContext(ctx context.Context, msg string, args ...any) {
	entry(args).WithContext(ctx).Info(msg)
}

// ErrorContext logs an error message with context
func ErrorContext(ctx context.Context, msg string, args ...any) {
	entry(args).WithContext(ctx).Error(msg)
}

// WithService returns a logger with service name attached
func WithService(serviceName string) *logrus.Entry {
	return Get().WithField("service", serviceName)
}

// EnterMethod logs method entry (process tracking)
func EnterMethod(methodName string, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "enter"}, args...)
	entry(allArgs).Debug("→ Method entered")
}

// ExitMethod logs method exit (process tracking)
func ExitMethod(methodName string, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "exit"}, args...)
	entry(allArgs).Debug("← Method exited")
}

// ExitMethodWithError logs method exit with error (process tracking)
func ExitMethodWithError(methodName string, err error, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "exit", "error", err}, args...)
	entry(allArgs).Error("← Method exited with error")
}

// DatabaseCall logs database operation (debug log for external resources)
func DatabaseCall(operation, query string, args ...any) {
	allArgs := append([]any{"operation", operation, "query", query}, args...)
	entry(allArgs).Debug("→ Database call")
}

// DatabaseResult logs database operation result (debug log for external resources)
func DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	allArgs := append([]any{"operation", operation, "rows_affected", rowsAffected}, args...)
	if err != nil {
		allArgs = append(allArgs, "error", err)
		entry(allArgs).Error("← Database call failed")
		return
	}
	entry(allArgs).Debug("← Database call succeeded")
}

// ExternalServiceCall logs external service call (debug log for external resources)
func ExternalServiceCall(service, operation string, args ...any) {
	allArgs := append([]any{"service", service, "operation", operation}, args...)
	entry(allArgs).Debug("→ External service call")
}

// ExternalServiceResult logs external service result (debug log for external resources)
func ExternalServiceResult(service, operation string, err error, args ...any) {
	allArgs := append([]any{"service", service, "operation", operation}, args...)
	if err != nil {
		allArgs = append(allArgs, "error", err)
		entry(allArgs).Error("← External service call failed")
		return
	}
	entry(allArgs).Debug("← External service call succeeded")
}
