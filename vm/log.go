package vm

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
)

// logHandler is a minimal slog.Handler that writes one line per record:
// timestamp, level, message, then any attrs space-joined. MemOverseer uses
// it (via NewLogger) for its warning/error output, whichever stream the
// caller points it at. MemoryDump does not log; it writes its dump directly
// to its own writer.
type logHandler struct {
	out io.Writer
	h   slog.Handler
	mu  *sync.Mutex
}

func (h *logHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}

func (h *logHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &logHandler{out: h.out, h: h.h.WithAttrs(attrs), mu: h.mu}
}

func (h *logHandler) WithGroup(name string) slog.Handler {
	return &logHandler{out: h.out, h: h.h.WithGroup(name), mu: h.mu}
}

func (h *logHandler) Handle(ctx context.Context, r slog.Record) error {
	parts := []string{r.Time.Format("2006/01/02 15:04:05"), r.Level.String() + ":", r.Message}
	r.Attrs(func(a slog.Attr) bool {
		parts = append(parts, a.String())
		return true
	})

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, strings.Join(parts, " ")+"\n")
	return err
}

// NewLogger builds a *slog.Logger that writes through logHandler to w.
func NewLogger(w io.Writer) *slog.Logger {
	return slog.New(&logHandler{
		out: w,
		h:   slog.NewTextHandler(w, &slog.HandlerOptions{}),
		mu:  &sync.Mutex{},
	})
}
