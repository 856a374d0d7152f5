package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

const (
	ansiReset  = "\x1b[0m"
	ansiDim    = "\x1b[2m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
	ansiCyan   = "\x1b[36m"
)

// consoleHandler renders human-readable log lines:
//
//	15:04:05 INFO  Channel · Item #12 (Summary) stage completed key=value ...
type consoleHandler struct {
	mu       *sync.Mutex
	writer   io.Writer
	level    slog.Leveler
	colored  bool
	preAttrs []slog.Attr
}

func newConsoleHandler(writer io.Writer, level slog.Leveler) *consoleHandler {
	colored := false
	if f, ok := writer.(*os.File); ok {
		colored = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &consoleHandler{
		mu:      &sync.Mutex{},
		writer:  writer,
		level:   level,
		colored: colored,
	}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	attrs := make([]slog.Attr, 0, record.NumAttrs()+len(h.preAttrs))
	attrs = append(attrs, h.preAttrs...)
	record.Attrs(func(a slog.Attr) bool {
		attrs = append(attrs, a)
		return true
	})

	var b strings.Builder
	b.WriteString(h.dim(record.Time.Format("15:04:05")))
	b.WriteByte(' ')
	b.WriteString(h.levelLabel(record.Level))
	b.WriteByte(' ')
	if subject := formatSubject(attrs); subject != "" {
		b.WriteString(subject)
		b.WriteByte(' ')
	}
	b.WriteString(record.Message)

	sort.SliceStable(attrs, func(i, j int) bool {
		return attrKeyRank(attrs[i].Key) < attrKeyRank(attrs[j].Key)
	})
	for _, attr := range attrs {
		if isSubjectKey(attr.Key) {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(h.dim(attr.Key + "=" + attr.Value.String()))
	}
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.preAttrs = append(append([]slog.Attr{}, h.preAttrs...), attrs...)
	return &clone
}

func (h *consoleHandler) WithGroup(string) slog.Handler { return h }

func (h *consoleHandler) levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return h.color(ansiRed, "ERROR")
	case level >= slog.LevelWarn:
		return h.color(ansiYellow, "WARN ")
	case level >= slog.LevelInfo:
		return h.color(ansiCyan, "INFO ")
	default:
		return h.dim("DEBUG")
	}
}

func (h *consoleHandler) color(code, s string) string {
	if !h.colored {
		return s
	}
	return code + s + ansiReset
}

func (h *consoleHandler) dim(s string) string {
	return h.color(ansiDim, s)
}

// formatSubject builds the channel/item/stage subject string used in console output.
func formatSubject(attrs []slog.Attr) string {
	var channel, itemID, stage string
	for _, attr := range attrs {
		switch attr.Key {
		case FieldChannel:
			channel = strings.TrimSpace(attr.Value.String())
		case FieldItemID:
			itemID = strings.TrimSpace(attr.Value.String())
		case FieldStage:
			stage = strings.TrimSpace(attr.Value.String())
		}
	}
	parts := make([]string, 0, 2)
	if channel != "" {
		parts = append(parts, channel)
	}
	switch {
	case itemID != "" && stage != "":
		parts = append(parts, fmt.Sprintf("Item #%s (%s)", itemID, stage))
	case itemID != "":
		parts = append(parts, "Item #"+itemID)
	case stage != "":
		parts = append(parts, stage)
	}
	return strings.Join(parts, " · ")
}

func isSubjectKey(key string) bool {
	switch key {
	case FieldChannel, FieldItemID, FieldStage:
		return true
	default:
		return false
	}
}

func attrKeyRank(key string) int {
	switch key {
	case FieldEventType:
		return 0
	case "error":
		return 1
	case FieldErrorHint:
		return 2
	default:
		return 3
	}
}
