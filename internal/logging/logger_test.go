package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"videoforge/internal/logging"
)

func TestNewConsoleIncludesSubject(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "info", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	ctx := logging.WithStage(logging.WithItem(context.Background(), 7, "history-br"), "Summary")
	logging.WithContext(ctx, logger).Info("stage completed")

	out := buf.String()
	if !strings.Contains(out, "history-br · Item #7 (Summary)") {
		t.Fatalf("expected subject in output, got %q", out)
	}
	if !strings.Contains(out, "stage completed") {
		t.Fatalf("expected message in output, got %q", out)
	}
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Debug("index loaded", logging.Int("assets", 42))
	if !strings.Contains(buf.String(), `"assets":42`) {
		t.Fatalf("expected json attrs, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.New(logging.Options{Level: "warn", Format: "console", Writer: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("hidden")
	logger.Warn("visible")
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info line should be filtered, got %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn line missing, got %q", out)
	}
}
