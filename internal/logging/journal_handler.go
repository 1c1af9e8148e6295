package logging

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/coreos/go-systemd/v22/journal"
)

// SyslogIdentifier tags every journal entry.
const SyslogIdentifier = "liftlights"

// journalHandler writes records to the systemd journal. Attributes become
// upper-case journal fields, with group names joined by underscores, so
// `journalctl MODULE=cycle` works.
type journalHandler struct {
	level slog.Leveler
	scope scope
}

func (h *journalHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *journalHandler) Handle(_ context.Context, r slog.Record) error {
	fields := map[string]string{"SYSLOG_IDENTIFIER": SyslogIdentifier}
	h.scope.each(r, func(path []string, v slog.Value) {
		value := v.String()
		if v.Kind() == slog.KindTime {
			value = v.Time().Format(time.RFC3339Nano)
		}
		fields[journalField(path)] = value
	})
	return journal.Send(r.Message, journalPriority(r.Level), fields)
}

func (h *journalHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &journalHandler{level: h.level, scope: h.scope.withAttrs(attrs)}
}

func (h *journalHandler) WithGroup(name string) slog.Handler {
	return &journalHandler{level: h.level, scope: h.scope.withGroup(name)}
}

// journalField builds a valid journal field name: upper-case letters,
// digits and underscores, not starting with an underscore.
func journalField(path []string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, strings.Join(path, "_"))

	name = strings.TrimLeft(name, "_")
	if name == "" {
		return "ATTR"
	}
	return name
}

func journalPriority(level slog.Level) journal.Priority {
	switch {
	case level >= slog.LevelError:
		return journal.PriErr
	case level >= slog.LevelWarn:
		return journal.PriWarning
	case level >= slog.LevelInfo:
		return journal.PriInfo
	default:
		return journal.PriDebug
	}
}
