package observability

import (
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"
)

// Logger records a named event with optional structured fields.
type Logger interface {
	Record(event string, fields map[string]any)
}

// StdLogger writes events as "event key=value ..." lines through the standard log package.
type StdLogger struct {
	out *log.Logger
}

func NewStdLogger(prefix string) *StdLogger {
	return NewWriterLogger(os.Stderr, prefix)
}

func NewWriterLogger(w io.Writer, prefix string) *StdLogger {
	if prefix != "" && !strings.HasSuffix(prefix, " ") {
		prefix += " "
	}
	return &StdLogger{out: log.New(w, prefix, log.LstdFlags|log.LUTC)}
}

func (l *StdLogger) Record(event string, fields map[string]any) {
	l.out.Print(formatEvent(event, fields))
}

func formatEvent(event string, fields map[string]any) string {
	if len(fields) == 0 {
		return event
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(event)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
		b.WriteByte('=')
		v := fmt.Sprint(fields[k])
		if strings.ContainsAny(v, " \t\n\"") {
			v = fmt.Sprintf("%q", v)
		}
		b.WriteString(v)
	}
	return b.String()
}

type nopLogger struct{}

func (nopLogger) Record(string, map[string]any) {}

// NopLogger discards every event.
var NopLogger Logger = nopLogger{}
