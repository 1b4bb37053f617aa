package telemetry

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	clog "github.com/charmbracelet/log"
)

// JSONLogger writes one JSON object per line. The TUI owns the terminal, so
// logs only ever go to a file or nowhere.
type JSONLogger struct {
	log *clog.Logger
	w   io.WriteCloser
}

type Options struct {
	Path      string
	SessionID string
	Debug     bool
}

func NewJSONLogger(opts Options) (*JSONLogger, error) {
	var w io.WriteCloser = nopCloser{Writer: io.Discard}
	if opts.Path != "" {
		if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
			return nil, err
		}
		f, err := os.OpenFile(opts.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, err
		}
		w = f
	}
	level := clog.InfoLevel
	if opts.Debug {
		level = clog.DebugLevel
	}
	l := clog.NewWithOptions(w, clog.Options{
		Prefix:          "leetcli",
		Level:           level,
		Formatter:       clog.JSONFormatter,
		ReportTimestamp: true,
	})
	if opts.SessionID != "" {
		l = l.With("session", opts.SessionID)
	}
	return &JSONLogger{log: l, w: w}, nil
}

func (l *JSONLogger) Debug(msg string, fields map[string]any) {
	if l == nil || l.log == nil {
		return
	}
	l.log.Debug(msg, keyvals(fields)...)
}

func (l *JSONLogger) Info(msg string, fields map[string]any) {
	if l == nil || l.log == nil {
		return
	}
	l.log.Info(msg, keyvals(fields)...)
}

func (l *JSONLogger) Error(msg string, fields map[string]any) {
	if l == nil || l.log == nil {
		return
	}
	l.log.Error(msg, keyvals(fields)...)
}

// Component returns the underlying logger tagged with a component name, for
// packages that log key/value pairs directly.
func (l *JSONLogger) Component(name string) *clog.Logger {
	if l == nil || l.log == nil {
		return nil
	}
	return l.log.With("component", name)
}

func (l *JSONLogger) Close() error {
	if l == nil || l.w == nil {
		return nil
	}
	return l.w.Close()
}

// keyvals flattens fields in key order so lines are stable.
func keyvals(fields map[string]any) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
