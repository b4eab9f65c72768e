package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"loan-assistant/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
azure_openai:
  endpoint: https://myresource.openai.azure.com
  api_key: secret
  deployment: gpt-4o
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.AzureOpenAI.APIVersion != "2024-06-01" {
		t.Errorf("APIVersion: got %q, want 2024-06-01", cfg.AzureOpenAI.APIVersion)
	}
	if cfg.AzureSpeech.Voice != "th-TH-PremwadaNeural" {
		t.Errorf("Voice: got %q, want th-TH-PremwadaNeural", cfg.AzureSpeech.Voice)
	}
	if cfg.AzureSpeech.Language != "th-TH" {
		t.Errorf("Language: got %q, want th-TH", cfg.AzureSpeech.Language)
	}
	if cfg.Audio.SampleRate != 44100 || cfg.Audio.ChunkSize != 1024 || cfg.Audio.RecordSeconds != 5 {
		t.Errorf("audio defaults: got %+v", cfg.Audio)
	}
	if cfg.Chat.SystemPrompt == "" {
		t.Error("SystemPrompt default missing")
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log defaults: got %+v", cfg.Log)
	}
}

func TestLoad_ExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_OAI_KEY", "expanded-key")
	path := writeConfig(t, `
azure_openai:
  endpoint: https://myresource.openai.azure.com
  api_key: ${TEST_OAI_KEY}
  deployment: gpt-4o
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AzureOpenAI.APIKey != "expanded-key" {
		t.Errorf("APIKey: got %q, want expanded-key", cfg.AzureOpenAI.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidate_NamesMissingFields(t *testing.T) {
	cfg := &config.Config{}
	cfg.AzureOpenAI.Endpoint = "https://myresource.openai.azure.com"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"azure_openai.api_key", "azure_openai.deployment"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q missing %q", err, want)
		}
	}
	if strings.Contains(err.Error(), "azure_openai.endpoint") {
		t.Errorf("error %q names a present field", err)
	}
}

func TestSearchEnabled_AllOrNothing(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		key      string
		index    string
		want     bool
	}{
		{"all present", "https://s.search.windows.net", "k", "loans", true},
		{"missing index", "https://s.search.windows.net", "k", "", false},
		{"missing key", "https://s.search.windows.net", "", "loans", false},
		{"only endpoint", "https://s.search.windows.net", "", "", false},
		{"none", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.Config{}
			cfg.AzureSearch.Endpoint = tt.endpoint
			cfg.AzureSearch.APIKey = tt.key
			cfg.AzureSearch.Index = tt.index
			if got := cfg.SearchEnabled(); got != tt.want {
				t.Errorf("SearchEnabled: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSpeechEnabled_RequiresAllThree(t *testing.T) {
	cfg := &config.Config{}
	cfg.AzureSpeech.APIKey = "k"
	cfg.AzureSpeech.Region = "southeastasia"
	if cfg.SpeechEnabled() {
		t.Error("SpeechEnabled without voice")
	}
	if !cfg.RecognitionEnabled() {
		t.Error("RecognitionEnabled should only need key and region")
	}

	cfg.AzureSpeech.Voice = "th-TH-PremwadaNeural"
	if !cfg.SpeechEnabled() {
		t.Error("SpeechEnabled with all three fields")
	}
}
