package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

// StdLogger is a lightweight implementation backed by Go's log package.
// Nothing is written unless verbose is set (--debug or SHAI_DEBUG=1).
type StdLogger struct {
	verbose bool
	out     *log.Logger
}

// NewStd creates a StdLogger writing to stderr.
func NewStd(verbose bool) *StdLogger {
	return New(os.Stderr, verbose)
}

// New creates a StdLogger writing to w.
func New(w io.Writer, verbose bool) *StdLogger {
	return &StdLogger{verbose: verbose, out: log.New(w, "", log.LstdFlags)}
}

// Verbose reports whether output is enabled.
func (l *StdLogger) Verbose() bool {
	return l.verbose
}

func (l *StdLogger) Debug(msg string, fields map[string]interface{}) {
	l.print("DEBUG", msg, nil, fields)
}

func (l *StdLogger) Info(msg string, fields map[string]interface{}) {
	l.print("INFO", msg, nil, fields)
}

func (l *StdLogger) Warn(msg string, fields map[string]interface{}) {
	l.print("WARN", msg, nil, fields)
}

func (l *StdLogger) Error(msg string, err error, fields map[string]interface{}) {
	l.print("ERROR", msg, err, fields)
}

func (l *StdLogger) print(level, msg string, err error, fields map[string]interface{}) {
	if !l.verbose {
		return
	}
	var b strings.Builder
	b.WriteString("[" + level + "] " + msg)
	if err != nil {
		b.WriteString(" error=" + quote(err.Error()))
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b.WriteString(" " + key + "=" + quote(fmt.Sprint(fields[key])))
	}
	l.out.Println(b.String())
}

func quote(value string) string {
	if value == "" || strings.ContainsAny(value, " \t\n\"=") {
		return fmt.Sprintf("%q", value)
	}
	return value
}
