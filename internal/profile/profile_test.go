package profile

import (
	"os"
	"testing"
)

func clearLLMEnvVars() {
	for _, key := range []string{
		"THOMAS_LLM_API_KEY",
		"THOMAS_LLM_BASE_URL",
		"THOMAS_CHAT_MODEL",
		"THOMAS_VECTOR_STORE_ID",
		"THOMAS_MAX_SNIPPETS",
		"THOMAS_INPUT_TOKEN_RATE",
		"THOMAS_OUTPUT_TOKEN_RATE",
	} {
		os.Unsetenv(key)
	}
}

func TestProfileDefaults(t *testing.T) {
	clearLLMEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	if profile.IsLLMEnabled() {
		t.Error("LLM should be disabled without an API key")
	}
	if profile.LLMBaseURL != "https://api.openai.com/v1" {
		t.Errorf("unexpected base URL: %q", profile.LLMBaseURL)
	}
	if profile.ChatModel != "gpt-4o-mini" {
		t.Errorf("unexpected chat model: %q", profile.ChatModel)
	}
	if profile.MaxSnippets != 5 {
		t.Errorf("expected 5 max snippets, got %d", profile.MaxSnippets)
	}
	if profile.InputTokenRate != 0.15 || profile.OutputTokenRate != 0.60 {
		t.Errorf("unexpected token rates: %v / %v", profile.InputTokenRate, profile.OutputTokenRate)
	}
}

func TestProfileFromEnv(t *testing.T) {
	clearLLMEnvVars()

	t.Setenv("THOMAS_LLM_API_KEY", "sk-test")
	t.Setenv("THOMAS_VECTOR_STORE_ID", "vs_123")
	t.Setenv("THOMAS_INPUT_TOKEN_RATE", "1.25")

	profile := &Profile{}
	profile.FromEnv()

	if !profile.IsLLMEnabled() {
		t.Error("LLM should be enabled with an API key")
	}
	if profile.VectorStoreID != "vs_123" {
		t.Errorf("unexpected vector store id: %q", profile.VectorStoreID)
	}
	if profile.InputTokenRate != 1.25 {
		t.Errorf("unexpected input token rate: %v", profile.InputTokenRate)
	}
}

func TestValidateDriver(t *testing.T) {
	dir := t.TempDir()

	p := &Profile{Mode: "dev", Data: dir, Driver: "mysql"}
	if err := p.Validate(); err == nil {
		t.Error("expected error for unsupported driver")
	}

	p = &Profile{Mode: "dev", Data: dir, Driver: "sqlite"}
	if err := p.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.DSN == "" {
		t.Error("expected default sqlite DSN to be derived from data dir")
	}

	p = &Profile{Mode: "dev", Data: dir, Driver: "postgres"}
	if err := p.Validate(); err == nil {
		t.Error("expected error for postgres without DSN")
	}
}
