package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestChannelAddAndList(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()

	out, _, err := runCLI(t, env.configPath, "channel", "add", "history-br", "--language", "pt-br", "--watermark", "@historia")
	if err != nil {
		t.Fatalf("channel add: %v", err)
	}
	requireContains(t, out, `channel "history-br" registered`)

	channel, err := env.store.GetChannelByName(ctx, "history-br")
	if err != nil {
		t.Fatalf("GetChannelByName: %v", err)
	}
	if channel == nil {
		t.Fatal("channel not persisted")
	}
	if channel.Language != "pt-BR" {
		t.Fatalf("language not normalized: %q", channel.Language)
	}

	out, _, err = runCLI(t, env.configPath, "channel", "list")
	if err != nil {
		t.Fatalf("channel list: %v", err)
	}
	requireContains(t, out, "history-br")
	requireContains(t, out, "pt-BR")
}

func TestChannelListEmpty(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env.configPath, "channel", "list")
	if err != nil {
		t.Fatalf("channel list: %v", err)
	}
	requireContains(t, out, "no channels registered")
}

func TestChannelImportCreatesAndUpdates(t *testing.T) {
	env := setupCLITestEnv(t)

	policyPath := filepath.Join(t.TempDir(), "policy.yaml")
	policy := `
name: mysteries-es
language: es
watermark: "@mysteries"
prompts:
  summary: "Resume la transcripcion."
  topics: "Extrae 5 temas."
  introduction: "Escribe una introduccion."
  script: "Escribe la narracion."
`
	if err := os.WriteFile(policyPath, []byte(policy), 0o644); err != nil {
		t.Fatalf("write policy: %v", err)
	}

	out, _, err := runCLI(t, env.configPath, "channel", "import", policyPath)
	if err != nil {
		t.Fatalf("channel import: %v", err)
	}
	requireContains(t, out, `channel "mysteries-es" created`)

	out, _, err = runCLI(t, env.configPath, "channel", "import", policyPath)
	if err != nil {
		t.Fatalf("channel re-import: %v", err)
	}
	requireContains(t, out, `channel "mysteries-es" updated`)
}

func TestChannelAddRejectsBadLanguage(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, env.configPath, "channel", "add", "broken", "--language", "not-a-lang-tag!!")
	if err == nil {
		t.Fatal("expected error for invalid language tag")
	}
}
