package logging

import (
	"fmt"
	"os"
)

// EarlyLog writes to stderr before the structured logger is configured.
type EarlyLog struct {
	service string
}

func NewEarlyLog(service string) *EarlyLog {
	return &EarlyLog{service: service}
}

func (l *EarlyLog) Error(msg string, args ...interface{}) {
	l.write(os.Stderr, "ERROR", msg, args...)
}

func (l *EarlyLog) Fatal(msg string, args ...interface{}) {
	l.write(os.Stderr, "FATAL", msg, args...)
	os.Exit(1)
}

func (l *EarlyLog) Warn(msg string, args ...interface{}) {
	l.write(os.Stderr, "WARN", msg, args...)
}

func (l *EarlyLog) Info(msg string, args ...interface{}) {
	l.write(os.Stdout, "INFO", msg, args...)
}

func (l *EarlyLog) write(f *os.File, level, msg string, args ...interface{}) {
	if l.service != "" {
		fmt.Fprintf(f, "%s [%s]: %s\n", level, l.service, fmt.Sprintf(msg, args...))
		return
	}
	fmt.Fprintf(f, "%s: %s\n", level, fmt.Sprintf(msg, args...))
}
