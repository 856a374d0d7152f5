package main

import (
	"context"
	"strings"
	"testing"

	"videoforge/internal/testsupport"
)

func TestVideoAddRegistersItem(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	testsupport.MustAddChannel(t, env.store, "history")

	out, _, err := runCLI(t, env.configPath, "video", "add", "history", "https://youtu.be/dQw4w9WgXcQ", "--no-audio")
	if err != nil {
		t.Fatalf("video add: %v", err)
	}
	requireContains(t, out, `registered under "history"`)

	items, err := env.store.ListItems(ctx, "history")
	if err != nil {
		t.Fatalf("ListItems: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Config.GenerateAudio {
		t.Fatal("expected --no-audio to disable audio generation")
	}
}

func TestVideoAddRejectsMalformedLink(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.MustAddChannel(t, env.store, "history")

	_, _, err := runCLI(t, env.configPath, "video", "add", "history", "https://example.com/nothing-here")
	if err == nil {
		t.Fatal("expected error for malformed link")
	}
}

func TestVideoAddUnknownChannel(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env.configPath, "video", "add", "absent", "https://youtu.be/dQw4w9WgXcQ")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected channel not found error, got %v", err)
	}
}
