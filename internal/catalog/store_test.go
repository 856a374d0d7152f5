package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"videoforge/internal/catalog"
	"videoforge/internal/services"
	"videoforge/internal/stage"
	"videoforge/internal/testsupport"
)

func TestAddAndGetChannel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	channel := testsupport.MustAddChannel(t, store, "history-br")
	if channel.ID == "" {
		t.Fatal("expected generated channel id")
	}

	fetched, err := store.GetChannelByName(ctx, "history-br")
	if err != nil {
		t.Fatalf("GetChannelByName: %v", err)
	}
	if fetched == nil || fetched.ID != channel.ID {
		t.Fatalf("unexpected channel: %#v", fetched)
	}
	if fetched.Prompts.Topics == "" {
		t.Fatal("expected prompts to round-trip")
	}
}

func TestAddItemDefaultsAndUniqueness(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	channel := testsupport.MustAddChannel(t, store, "history-br")
	item := testsupport.MustAddItem(t, store, channel, "https://youtu.be/abc123def45")

	if !item.Config.GenerateAudio {
		t.Fatal("expected generate_audio default true")
	}
	if item.ChannelName != "history-br" {
		t.Fatalf("expected resolved channel name, got %q", item.ChannelName)
	}
	if _, pending := item.FirstPending(); !pending {
		t.Fatal("new item should have pending stages")
	}

	if _, err := store.AddItem(ctx, channel.ID, "https://youtu.be/abc123def45", catalog.DefaultItemConfig()); err == nil {
		t.Fatal("expected duplicate link to fail")
	}
}

func TestMarkStageDoneAndListPending(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	channel := testsupport.MustAddChannel(t, store, "history-br")
	item := testsupport.MustAddItem(t, store, channel, "https://youtu.be/abc123def45")

	now := time.Now().UTC()
	for _, s := range stage.All() {
		if err := store.MarkStageDone(ctx, item.ID, s, now); err != nil {
			t.Fatalf("MarkStageDone(%v): %v", s, err)
		}
	}

	updated, err := store.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !updated.Completed() {
		t.Fatalf("expected completed item, got %#v", updated.DoneAt)
	}

	pending, err := store.ListPending(ctx, "")
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending items, got %d", len(pending))
	}
}

func TestListPendingIncludesGappedCheckpoints(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	channel := testsupport.MustAddChannel(t, store, "history-br")
	item := testsupport.MustAddItem(t, store, channel, "https://youtu.be/abc123def45")

	// Only the terminal checkpoint set; earlier stages never ran. The item
	// must stay scheduled so the runner can reject the gap.
	if err := store.MarkStageDone(ctx, item.ID, stage.Audio, time.Now().UTC()); err != nil {
		t.Fatalf("MarkStageDone: %v", err)
	}

	pending, err := store.ListPending(ctx, "")
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != item.ID {
		t.Fatalf("gapped item missing from pending list: %#v", pending)
	}
	if err := pending[0].VerifyMonotonic(); !errors.Is(err, services.ErrConsistency) {
		t.Fatalf("expected consistency fault on listed item, got %v", err)
	}
}

func TestListPendingSkipsInactiveChannels(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	channel := testsupport.MustAddChannel(t, store, "dormant")
	testsupport.MustAddItem(t, store, channel, "https://youtu.be/abc123def45")

	channel.Active = false
	if err := store.UpdateChannel(ctx, channel); err != nil {
		t.Fatalf("UpdateChannel: %v", err)
	}

	pending, err := store.ListPending(ctx, "")
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("inactive channel items should not be scheduled, got %d", len(pending))
	}
}

func TestClearStagesFrom(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	channel := testsupport.MustAddChannel(t, store, "history-br")
	item := testsupport.MustAddItem(t, store, channel, "https://youtu.be/abc123def45")

	now := time.Now().UTC()
	for _, s := range []stage.Stage{stage.Transcript, stage.Summary, stage.Topics} {
		if err := store.MarkStageDone(ctx, item.ID, s, now); err != nil {
			t.Fatalf("MarkStageDone: %v", err)
		}
	}
	if err := store.ClearStagesFrom(ctx, item.ID, stage.Summary); err != nil {
		t.Fatalf("ClearStagesFrom: %v", err)
	}

	updated, err := store.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if !updated.StageDone(stage.Transcript) {
		t.Fatal("transcript checkpoint should survive reset")
	}
	if updated.StageDone(stage.Summary) || updated.StageDone(stage.Topics) {
		t.Fatal("summary and topics checkpoints should be cleared")
	}
	if first, _ := updated.FirstPending(); first != stage.Summary {
		t.Fatalf("expected summary pending, got %v", first)
	}
}

func TestVerifyMonotonicDetectsGap(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	channel := testsupport.MustAddChannel(t, store, "history-br")
	item := testsupport.MustAddItem(t, store, channel, "https://youtu.be/abc123def45")

	// A topics checkpoint without transcript/summary simulates tampering.
	if err := store.MarkStageDone(ctx, item.ID, stage.Topics, time.Now().UTC()); err != nil {
		t.Fatalf("MarkStageDone: %v", err)
	}
	updated, err := store.GetItem(ctx, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}

	verifyErr := updated.VerifyMonotonic()
	if verifyErr == nil {
		t.Fatal("expected consistency fault")
	}
	if !errors.Is(verifyErr, services.ErrConsistency) {
		t.Fatalf("expected consistency marker, got %v", verifyErr)
	}
	if services.IsItemScoped(verifyErr) {
		t.Fatal("consistency faults must stop the batch")
	}
}

func TestImportChannelPolicy(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	policyPath := filepath.Join(t.TempDir(), "policy.yaml")
	testsupport.WriteFile(t, policyPath, []byte(`
name: mysteries-es
language: es
watermark: "@mysteries"
prompts:
  summary: "Resume la transcripcion."
  topics: "Extrae 5 temas."
  introduction: "Escribe una introduccion."
  script: "Escribe la narracion."
reuse_cap_override: 2
`))

	policy, err := catalog.LoadChannelPolicy(policyPath)
	if err != nil {
		t.Fatalf("LoadChannelPolicy: %v", err)
	}
	channel, created, err := store.ImportChannelPolicy(ctx, policy)
	if err != nil {
		t.Fatalf("ImportChannelPolicy: %v", err)
	}
	if !created {
		t.Fatal("expected channel to be created")
	}
	if channel.Language != "es" || channel.ReuseCapOverride != 2 {
		t.Fatalf("unexpected channel policy: %#v", channel)
	}

	// Re-import updates in place.
	policy.Watermark = "@updated"
	_, created, err = store.ImportChannelPolicy(ctx, policy)
	if err != nil {
		t.Fatalf("re-import: %v", err)
	}
	if created {
		t.Fatal("expected update, not create")
	}
	fetched, err := store.GetChannelByName(ctx, "mysteries-es")
	if err != nil {
		t.Fatalf("GetChannelByName: %v", err)
	}
	if fetched.Watermark != "@updated" {
		t.Fatalf("expected updated watermark, got %q", fetched.Watermark)
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", "auto", true},
		{"auto", "auto", true},
		{"pt-br", "pt-BR", true},
		{"EN", "en", true},
		{"not-a-lang-tag!!", "", false},
	}
	for _, tc := range cases {
		got, err := catalog.NormalizeLanguage(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Errorf("NormalizeLanguage(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Errorf("NormalizeLanguage(%q): expected error", tc.in)
		}
	}
}
