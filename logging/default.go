package logging

import (
	"context"
	"fmt"
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/mattn/go-isatty"
)

// DefaultLogger writes one line per entry through the standard log package:
//
//	2025/01/02 15:04:05 [WARN] message: cause component=catalog file=a.mp3
//
// Debug and Info go to out, everything else to errOut. Fields are printed
// sorted by key so lines diff cleanly between runs.
type DefaultLogger struct {
	out       *log.Logger
	errOut    *log.Logger
	level     Level
	fields    Fields
	useColors bool
}

// NewDefaultLogger logs to stdout/stderr, colored when stdout is a terminal.
func NewDefaultLogger() *DefaultLogger {
	l := NewDefaultLoggerTo(os.Stdout, os.Stderr)
	l.useColors = isTerminal(os.Stdout)
	return l
}

// NewDefaultLoggerTo builds an uncolored logger over arbitrary writers.
func NewDefaultLoggerTo(out, errOut io.Writer) *DefaultLogger {
	return &DefaultLogger{
		out:    log.New(out, "", log.LstdFlags),
		errOut: log.New(errOut, "", log.LstdFlags),
		level:  InfoLevel,
		fields: Fields{},
	}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (d *DefaultLogger) line(level Level, err error, msg string, extra []Fields) string {
	merged := make(Fields, len(d.fields))
	maps.Copy(merged, d.fields)
	for _, f := range extra {
		maps.Copy(merged, f)
	}

	var b strings.Builder
	b.WriteString("[")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(msg)
	if err != nil {
		b.WriteString(": ")
		b.WriteString(err.Error())
	}
	for _, k := range slices.Sorted(maps.Keys(merged)) {
		fmt.Fprintf(&b, " %s=%v", k, merged[k])
	}

	if !d.useColors {
		return b.String()
	}
	switch level {
	case WarnLevel:
		return ColorYellow + b.String() + ColorReset
	case ErrorLevel:
		return ColorRed + b.String() + ColorReset
	case FatalLevel:
		return ColorBold + ColorRed + b.String() + ColorReset
	}
	return b.String()
}

func (d *DefaultLogger) emit(level Level, err error, msg string, extra []Fields) {
	if level < d.level {
		return
	}
	dst := d.errOut
	if level < WarnLevel {
		dst = d.out
	}
	dst.Println(d.line(level, err, msg, extra))
	if level == FatalLevel {
		os.Exit(1)
	}
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) { d.emit(DebugLevel, nil, msg, fields) }
func (d *DefaultLogger) Info(msg string, fields ...Fields)  { d.emit(InfoLevel, nil, msg, fields) }
func (d *DefaultLogger) Warn(msg string, fields ...Fields)  { d.emit(WarnLevel, nil, msg, fields) }

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.emit(ErrorLevel, err, msg, fields)
}

func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.emit(FatalLevel, err, msg, fields)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	child := *d
	child.fields = make(Fields, len(d.fields)+len(fields))
	maps.Copy(child.fields, d.fields)
	maps.Copy(child.fields, fields)
	return &child
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := FieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

func (d *DefaultLogger) SetLevel(level Level) {
	d.level = level
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
