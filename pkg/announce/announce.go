// Package announce reports what a migration run is doing. SQL events carry
// each statement as it is sent (or, in preview, would be sent) to the target;
// Say events carry progress messages.
package announce

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
)

type (
	// Announcer receives run events.
	Announcer interface {
		SQL(sql string)
		Say(msg string, args ...any)
	}

	// Logger announces onto a slog.Logger with a kind attribute of "sql" or
	// "say".
	Logger struct {
		logger *slog.Logger
	}

	// Script writes statements to w as a runnable SQL script, with Say
	// messages rendered as comments. It is the output of preview runs.
	Script struct {
		mu sync.Mutex
		w  io.Writer
	}

	multi []Announcer
)

// NewLogger creates a Logger. A nil logger uses slog.Default().
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (l *Logger) SQL(sql string) {
	l.logger.Debug("Executing statement", "kind", "sql", "sql", sql)
}

func (l *Logger) Say(msg string, args ...any) {
	l.logger.Info(msg, append([]any{"kind", "say"}, args...)...)
}

func NewScript(w io.Writer) *Script {
	return &Script{w: w}
}

func (s *Script) SQL(sql string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sql = strings.TrimSpace(sql)
	if !strings.HasSuffix(sql, ";") {
		sql += ";"
	}
	_, _ = fmt.Fprintln(s.w, sql)
}

// Say writes msg and its key/value args as a single comment line.
func (s *Script) Say(msg string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	b.WriteString("-- ")
	b.WriteString(msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	_, _ = fmt.Fprintln(s.w, b.String())
}

// Multi fans events out to every announcer.
func Multi(as ...Announcer) Announcer {
	return multi(as)
}

func (m multi) SQL(sql string) {
	for _, a := range m {
		a.SQL(sql)
	}
}

func (m multi) Say(msg string, args ...any) {
	for _, a := range m {
		a.Say(msg, args...)
	}
}

// Discard drops every event.
var Discard Announcer = multi(nil)
