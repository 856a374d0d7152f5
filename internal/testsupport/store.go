package testsupport

import (
	"context"
	"testing"

	"videoforge/internal/catalog"
	"videoforge/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustAddChannel inserts a minimal active channel and returns it.
func MustAddChannel(t testing.TB, store *catalog.Store, name string) *catalog.Channel {
	t.Helper()

	channel := &catalog.Channel{
		Name:     name,
		Language: "en",
		Active:   true,
		Prompts: catalog.ChannelPrompts{
			Summary:      "Summarize the transcript.",
			Topics:       "Extract 3 topics.",
			Introduction: "Write an introduction.",
			Script:       "Write the narration for this topic.",
		},
	}
	if err := store.AddChannel(context.Background(), channel); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}
	return channel
}

// MustAddItem registers a link under the channel with default config.
func MustAddItem(t testing.TB, store *catalog.Store, channel *catalog.Channel, link string) *catalog.Item {
	t.Helper()

	item, err := store.AddItem(context.Background(), channel.ID, link, catalog.DefaultItemConfig())
	if err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	return item
}
