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
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBold   = "\033[1m"
)

// TextLogger writes one line per entry:
//
//	2024/01/02 15:04:05 [LEVEL] message: error key=value ...
//
// Fields are sorted by key so lines are stable across runs. Warn and above
// are colored when the destination is a terminal.
type TextLogger struct {
	out    *log.Logger
	level  Level
	fields Fields
	color  bool
}

// NewDefaultLogger creates an Info-level logger on stderr. Standard output
// is left alone because feature records may be streamed there.
func NewDefaultLogger() *TextLogger {
	return &TextLogger{
		out:    log.New(os.Stderr, "", log.LstdFlags),
		level:  InfoLevel,
		fields: Fields{},
		color:  isTerminal(os.Stderr),
	}
}

// NewWriterLogger creates a logger that sends every level to w. Output is
// colored only when w is a terminal.
func NewWriterLogger(w io.Writer, level Level) *TextLogger {
	color := false
	if f, ok := w.(*os.File); ok {
		color = isTerminal(f)
	}
	return &TextLogger{
		out:    log.New(w, "", log.LstdFlags),
		level:  level,
		fields: Fields{},
		color:  color,
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func (t *TextLogger) format(level Level, err error, msg string, extra []Fields) string {
	all := make(Fields, len(t.fields))
	maps.Copy(all, t.fields)
	for _, f := range extra {
		maps.Copy(all, f)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", level, msg)
	if err != nil {
		fmt.Fprintf(&b, ": %v", err)
	}
	for _, k := range slices.Sorted(maps.Keys(all)) {
		fmt.Fprintf(&b, " %s=%v", k, all[k])
	}

	line := b.String()
	if !t.color {
		return line
	}
	switch level {
	case WarnLevel:
		return colorYellow + line + colorReset
	case ErrorLevel:
		return colorRed + line + colorReset
	case FatalLevel:
		return colorBold + colorRed + line + colorReset
	}
	return line
}

func (t *TextLogger) log(level Level, err error, msg string, fields []Fields) {
	if level < t.level {
		return
	}
	t.out.Println(t.format(level, err, msg, fields))
	if level == FatalLevel {
		os.Exit(1)
	}
}

func (t *TextLogger) Debug(msg string, fields ...Fields) {
	t.log(DebugLevel, nil, msg, fields)
}

func (t *TextLogger) Info(msg string, fields ...Fields) {
	t.log(InfoLevel, nil, msg, fields)
}

func (t *TextLogger) Warn(msg string, fields ...Fields) {
	t.log(WarnLevel, nil, msg, fields)
}

func (t *TextLogger) Error(err error, msg string, fields ...Fields) {
	t.log(ErrorLevel, err, msg, fields)
}

// Fatal logs at FatalLevel and exits the process with status 1
func (t *TextLogger) Fatal(err error, msg string, fields ...Fields) {
	t.log(FatalLevel, err, msg, fields)
}

func (t *TextLogger) WithFields(fields Fields) Logger {
	merged := make(Fields, len(t.fields)+len(fields))
	maps.Copy(merged, t.fields)
	maps.Copy(merged, fields)
	return &TextLogger{
		out:    t.out,
		level:  t.level,
		fields: merged,
		color:  t.color,
	}
}

func (t *TextLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return t.WithFields(fields)
	}
	return t
}

func (t *TextLogger) SetLevel(level Level) {
	t.level = level
}

// NoOpLogger discards everything
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
