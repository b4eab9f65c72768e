package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AzureOpenAI AzureOpenAIConfig `yaml:"azure_openai"`
	AzureSearch AzureSearchConfig `yaml:"azure_search"`
	AzureSpeech AzureSpeechConfig `yaml:"azure_speech"`
	Audio       AudioConfig       `yaml:"audio"`
	Chat        ChatConfig        `yaml:"chat"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

type AzureOpenAIConfig struct {
	Endpoint   string `yaml:"endpoint"`
	APIKey     string `yaml:"api_key"`
	Deployment string `yaml:"deployment"`
	APIVersion string `yaml:"api_version"`
}

type AzureSearchConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"api_key"`
	Index    string `yaml:"index"`
}

type AzureSpeechConfig struct {
	APIKey   string `yaml:"api_key"`
	Region   string `yaml:"region"`
	Voice    string `yaml:"voice"`
	Language string `yaml:"language"`
}

type AudioConfig struct {
	SampleRate    int    `yaml:"sample_rate"`
	ChunkSize     int    `yaml:"chunk_size"`
	RecordSeconds int    `yaml:"record_seconds"`
	WatchDir      string `yaml:"watch_dir"`
}

type ChatConfig struct {
	SystemPrompt string `yaml:"system_prompt"`
	Speak        bool   `yaml:"speak"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML config at path. Values may reference ${ENV_VARS}; a
// local .env file is loaded first when present so those references resolve.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.AzureOpenAI.APIVersion == "" {
		c.AzureOpenAI.APIVersion = "2024-06-01"
	}
	if c.AzureSpeech.Voice == "" {
		c.AzureSpeech.Voice = "th-TH-PremwadaNeural"
	}
	if c.AzureSpeech.Language == "" {
		c.AzureSpeech.Language = "th-TH"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 44100
	}
	if c.Audio.ChunkSize == 0 {
		c.Audio.ChunkSize = 1024
	}
	if c.Audio.RecordSeconds == 0 {
		c.Audio.RecordSeconds = 5
	}
	if c.Chat.SystemPrompt == "" {
		c.Chat.SystemPrompt = "You are a helpful Loan agent that responds in Thai language"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks the fields every completion request depends on. Optional
// groups (search, speech) never fail validation; partial presence only
// disables the feature.
func (c *Config) Validate() error {
	var missing []string
	if c.AzureOpenAI.Endpoint == "" {
		missing = append(missing, "azure_openai.endpoint")
	}
	if c.AzureOpenAI.APIKey == "" {
		missing = append(missing, "azure_openai.api_key")
	}
	if c.AzureOpenAI.Deployment == "" {
		missing = append(missing, "azure_openai.deployment")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

// SearchEnabled reports whether retrieval grounding is configured. The three
// search fields are all-or-nothing.
func (c *Config) SearchEnabled() bool {
	return c.AzureSearch.Endpoint != "" && c.AzureSearch.APIKey != "" && c.AzureSearch.Index != ""
}

// SpeechEnabled reports whether replies can be synthesized aloud.
func (c *Config) SpeechEnabled() bool {
	return c.AzureSpeech.APIKey != "" && c.AzureSpeech.Region != "" && c.AzureSpeech.Voice != ""
}

// RecognitionEnabled reports whether voice input can be transcribed. The
// recognition endpoint needs the speech key and region but not a voice.
func (c *Config) RecognitionEnabled() bool {
	return c.AzureSpeech.APIKey != "" && c.AzureSpeech.Region != ""
}
