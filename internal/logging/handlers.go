package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"
)

// qualifiedAttr is an attribute bound through WithAttrs, together with the
// groups that were open at the time.
type qualifiedAttr struct {
	groups []string
	attr   slog.Attr
}

// scope is the WithAttrs/WithGroup state shared by the flattening handlers.
type scope struct {
	attrs  []qualifiedAttr
	groups []string
}

func (s scope) withAttrs(attrs []slog.Attr) scope {
	out := scope{attrs: slices.Clip(s.attrs), groups: s.groups}
	for _, a := range attrs {
		out.attrs = append(out.attrs, qualifiedAttr{groups: s.groups, attr: a})
	}
	return out
}

func (s scope) withGroup(name string) scope {
	if name == "" {
		return s
	}
	return scope{attrs: s.attrs, groups: append(slices.Clip(s.groups), name)}
}

// each calls fn for every leaf attribute of the scope and then of r, with
// the group path leading to it.
func (s scope) each(r slog.Record, fn func(path []string, v slog.Value)) {
	for _, qa := range s.attrs {
		flatten(qa.groups, qa.attr, fn)
	}
	r.Attrs(func(a slog.Attr) bool {
		flatten(s.groups, a, fn)
		return true
	})
}

func flatten(groups []string, a slog.Attr, fn func(path []string, v slog.Value)) {
	if a.Equal(slog.Attr{}) {
		return
	}
	v := a.Value.Resolve()
	if v.Kind() != slog.KindGroup {
		fn(append(slices.Clip(groups), a.Key), v)
		return
	}
	path := groups
	if a.Key != "" {
		path = append(slices.Clip(groups), a.Key)
	}
	for _, ga := range v.Group() {
		flatten(path, ga, fn)
	}
}

// fanout passes each record to every destination that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	return slices.ContainsFunc(f, func(h slog.Handler) bool {
		return h.Enabled(ctx, level)
	})
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.derive(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) derive(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}

// entryHandler turns records into LogEntry values. A top-level "module"
// attribute becomes the entry's Module; nested keys are joined with dots.
type entryHandler struct {
	sink  func(LogEntry)
	level slog.Leveler
	scope scope
}

func (h *entryHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *entryHandler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		Timestamp: r.Time,
		Level:     levelName(r.Level),
		Module:    "app",
		Message:   r.Message,
	}
	h.scope.each(r, func(path []string, v slog.Value) {
		if len(path) == 1 && path[0] == "module" {
			entry.Module = v.String()
			return
		}
		if entry.Attributes == nil {
			entry.Attributes = make(map[string]any)
		}
		entry.Attributes[strings.Join(path, ".")] = entryValue(v)
	})
	h.sink(entry)
	return nil
}

func (h *entryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &entryHandler{sink: h.sink, level: h.level, scope: h.scope.withAttrs(attrs)}
}

func (h *entryHandler) WithGroup(name string) slog.Handler {
	return &entryHandler{sink: h.sink, level: h.level, scope: h.scope.withGroup(name)}
}

// entryValue keeps attribute values JSON friendly.
func entryValue(v slog.Value) any {
	switch v.Kind() {
	case slog.KindTime:
		return v.Time().Format(time.RFC3339Nano)
	case slog.KindDuration:
		return v.Duration().String()
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return x.Error()
		case fmt.Stringer:
			return x.String()
		}
	}
	return v.Any()
}
