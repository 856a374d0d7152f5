package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"videoforge/internal/stage"
	"videoforge/internal/testsupport"
)

func TestStatusListsItems(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	channel := testsupport.MustAddChannel(t, env.store, "history")
	item := testsupport.MustAddItem(t, env.store, channel, "https://youtu.be/dQw4w9WgXcQ")
	if err := env.store.MarkStageDone(ctx, item.ID, stage.Transcript, time.Now().UTC()); err != nil {
		t.Fatalf("MarkStageDone: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "history")
	requireContains(t, out, "1/6")
	requireContains(t, out, "Summary")
}

func TestStatusEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "no items registered")
}

func TestStatusFiltersByChannel(t *testing.T) {
	env := setupCLITestEnv(t)

	history := testsupport.MustAddChannel(t, env.store, "history")
	mysteries := testsupport.MustAddChannel(t, env.store, "mysteries")
	testsupport.MustAddItem(t, env.store, history, "https://youtu.be/aaaaaaaaaaa")
	testsupport.MustAddItem(t, env.store, mysteries, "https://youtu.be/bbbbbbbbbbb")

	out, _, err := runCLI(t, env.configPath, "status", "--channel", "mysteries")
	if err != nil {
		t.Fatalf("status --channel: %v", err)
	}
	requireContains(t, out, "mysteries")
	if strings.Contains(out, "history") {
		t.Fatalf("expected only mysteries items, got %q", out)
	}
}
