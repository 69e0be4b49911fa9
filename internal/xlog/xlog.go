// Package xlog is a small structured-logging facade threaded explicitly
// through every decode/encode call, in the shape of the teacher's own
// (unretrieved) github.com/saferwall/pe/log package: a Logger interface,
// level filtering, and a Helper with per-level convenience methods. There
// is no process-global logger; callers construct one and pass it in.
package xlog

import (
	"fmt"
	"io"
	"os"
	"time"
)

// Level is a log severity, ordered from least to most severe.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the minimal sink a Helper writes through.
type Logger interface {
	Log(level Level, msg string) error
}

// stdLogger writes "<time> <level> <msg>" lines to an io.Writer.
type stdLogger struct {
	w io.Writer
}

// NewStdLogger returns a Logger that writes plain lines to w.
func NewStdLogger(w io.Writer) Logger {
	return &stdLogger{w: w}
}

func (l *stdLogger) Log(level Level, msg string) error {
	_, err := fmt.Fprintf(l.w, "%s %s %s\n", time.Now().UTC().Format(time.RFC3339), level, msg)
	return err
}

// filter wraps a Logger and drops records below a minimum level.
type filter struct {
	next Logger
	min  Level
}

// FilterOption configures a filter built by NewFilter.
type FilterOption func(*filter)

// FilterLevel sets the minimum level a record must meet to pass the filter.
func FilterLevel(min Level) FilterOption {
	return func(f *filter) { f.min = min }
}

// NewFilter wraps next with level filtering.
func NewFilter(next Logger, opts ...FilterOption) Logger {
	f := &filter{next: next, min: LevelWarn}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *filter) Log(level Level, msg string) error {
	if level < f.min {
		return nil
	}
	return f.next.Log(level, msg)
}

// Helper adds per-level convenience methods over a Logger.
type Helper struct {
	logger Logger
}

// NewHelper wraps logger.
func NewHelper(logger Logger) *Helper {
	return &Helper{logger: logger}
}

// Discard is a Helper that drops every record; used where no logger is
// supplied and silence is preferred over a nil-pointer panic.
func Discard() *Helper {
	return NewHelper(NewFilter(NewStdLogger(io.Discard)))
}

func (h *Helper) log(level Level, msg string) {
	if h == nil || h.logger == nil {
		return
	}
	_ = h.logger.Log(level, msg)
}

func (h *Helper) Debug(msg string)                 { h.log(LevelDebug, msg) }
func (h *Helper) Debugf(f string, a ...interface{}) { h.log(LevelDebug, fmt.Sprintf(f, a...)) }
func (h *Helper) Info(msg string)                  { h.log(LevelInfo, msg) }
func (h *Helper) Infof(f string, a ...interface{})  { h.log(LevelInfo, fmt.Sprintf(f, a...)) }
func (h *Helper) Warn(msg string)                  { h.log(LevelWarn, msg) }
func (h *Helper) Warnf(f string, a ...interface{})  { h.log(LevelWarn, fmt.Sprintf(f, a...)) }
func (h *Helper) Error(msg string)                 { h.log(LevelError, msg) }
func (h *Helper) Errorf(f string, a ...interface{}) { h.log(LevelError, fmt.Sprintf(f, a...)) }

// NewDefault returns the helper used when a caller supplies no logger: a
// stdout logger filtered to warnings and above, matching the teacher's
// file.go default (log.FilterLevel(log.LevelError), loosened here to Warn
// since spec.md section 7 treats warnings as the ambient signal of record).
func NewDefault() *Helper {
	return NewHelper(NewFilter(NewStdLogger(os.Stdout), FilterLevel(LevelWarn)))
}
