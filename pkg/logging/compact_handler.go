package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// CompactHandler formats logs in a compact, readable format for console output
// Format: [LEVEL] HH:MM:SS message | key=value key=value
type CompactHandler struct {
	opts  slog.HandlerOptions
	mu    *sync.Mutex
	out   io.Writer
	attrs []slog.Attr // accumulated attributes from WithAttrs
	group string      // current group name from WithGroup
}

// NewCompactHandler creates a new compact console handler
func NewCompactHandler(w io.Writer, opts *slog.HandlerOptions) *CompactHandler {
	if opts == nil {
		opts = &slog.HandlerOptions{}
	}
	return &CompactHandler{
		opts: *opts,
		mu:   &sync.Mutex{},
		out:  w,
	}
}

func (h *CompactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	minLevel := slog.LevelInfo
	if h.opts.Level != nil {
		minLevel = h.opts.Level.Level()
	}
	return level >= minLevel
}

func (h *CompactHandler) Handle(ctx context.Context, r slog.Record) error {
	buf := make([]byte, 0, 1024)

	// Level with fixed width
	switch r.Level {
	case LevelTrace:
		buf = append(buf, "[TRACE] "...)
	case slog.LevelDebug:
		buf = append(buf, "[DEBUG] "...)
	case slog.LevelInfo:
		buf = append(buf, "[INFO]  "...)
	case slog.LevelWarn:
		buf = append(buf, "[WARN]  "...)
	case slog.LevelError:
		buf = append(buf, "[ERROR] "...)
	default:
		buf = append(buf, fmt.Sprintf("[%-5s] ", r.Level.String())...)
	}

	// Time (just HH:MM:SS for readability)
	if !r.Time.IsZero() {
		buf = append(buf, r.Time.Format("15:04:05")...)
		buf = append(buf, ' ')
	}

	buf = append(buf, r.Message...)

	hasAttrs := false
	emit := func(a slog.Attr) {
		if a.Equal(slog.Attr{}) {
			return
		}
		if !hasAttrs {
			buf = append(buf, " |"...)
			hasAttrs = true
		}
		buf = append(buf, ' ')
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		buf = h.appendAttr(buf, a)
	}

	for _, a := range h.attrs {
		emit(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		emit(a)
		return true
	})

	buf = append(buf, '\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf)
	return err
}

func (h *CompactHandler) appendAttr(buf []byte, a slog.Attr) []byte {
	switch a.Key {
	case "requestID", "runID":
		// Shorten IDs to first 8 chars
		if s, ok := a.Value.Any().(string); ok && len(s) > 8 {
			if a.Key == "requestID" {
				buf = append(buf, "req="...)
			} else {
				buf = append(buf, "run="...)
			}
			return append(buf, s[:8]...)
		}
	case "durationMs":
		buf = append(buf, "duration="...)
		buf = append(buf, a.Value.String()...)
		return append(buf, "ms"...)
	case "error":
		buf = append(buf, "error="...)
		return append(buf, fmt.Sprintf("%q", a.Value.Any())...)
	}

	buf = append(buf, a.Key...)
	buf = append(buf, '=')

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if needsQuoting(s) {
			buf = append(buf, fmt.Sprintf("%q", s)...)
		} else {
			buf = append(buf, s...)
		}
	case slog.KindInt64:
		buf = append(buf, fmt.Sprintf("%d", v.Int64())...)
	case slog.KindUint64:
		buf = append(buf, fmt.Sprintf("%d", v.Uint64())...)
	case slog.KindFloat64:
		buf = append(buf, fmt.Sprintf("%g", v.Float64())...)
	case slog.KindBool:
		buf = append(buf, fmt.Sprintf("%t", v.Bool())...)
	case slog.KindDuration:
		buf = append(buf, v.Duration().String()...)
	case slog.KindTime:
		buf = append(buf, v.Time().Format(time.RFC3339)...)
	default:
		buf = append(buf, fmt.Sprintf("%v", v.Any())...)
	}

	return buf
}

func needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '"' || r == '=' {
			return true
		}
	}
	return false
}

func (h *CompactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &CompactHandler{
		opts:  h.opts,
		mu:    h.mu,
		out:   h.out,
		attrs: merged,
		group: h.group,
	}
}

func (h *CompactHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	group := name
	if h.group != "" {
		group = h.group + "." + name
	}
	return &CompactHandler{
		opts:  h.opts,
		mu:    h.mu,
		out:   h.out,
		attrs: h.attrs,
		group: group,
	}
}
