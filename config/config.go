package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendOpenAI = "openai"
	BackendAzure  = "azure"
	BackendProxy  = "proxy"

	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Audio      AudioConfig      `yaml:"audio"`
	Backend    string           `yaml:"backend"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Azure      AzureConfig      `yaml:"azure"`
	Proxy      ProxyConfig      `yaml:"proxy"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Completion CompletionConfig `yaml:"completion"`
	Cart       CartConfig       `yaml:"cart"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Notify     NotifyConfig     `yaml:"notify"`
	Pushover   PushoverConfig   `yaml:"pushover"`
	HomeAssist HomeAssistConfig `yaml:"homeassistant"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Addr        string        `yaml:"addr"`
	RateLimit   int           `yaml:"rate_limit"`
	RateWindow  time.Duration `yaml:"rate_window"`
	MaxUploadMB int64         `yaml:"max_upload_mb"`
}

type AudioConfig struct {
	// Source is "none", "file" or "microphone".
	Source           string  `yaml:"source"`
	FileDir          string  `yaml:"file_dir"`
	SampleRate       int     `yaml:"sample_rate"`
	SilenceThreshold int     `yaml:"silence_threshold"`
	Transcode        bool    `yaml:"transcode"`
	TrimSilence      bool    `yaml:"trim_silence"`
	TrimThreshold    float64 `yaml:"trim_threshold"`
}

type OpenAIConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
}

type AzureConfig struct {
	SpeechKey      string `yaml:"speech_key"`
	SpeechRegion   string `yaml:"speech_region"`
	Language       string `yaml:"language"`
	OpenAIKey      string `yaml:"openai_key"`
	OpenAIEndpoint string `yaml:"openai_endpoint"`
	Deployment     string `yaml:"deployment"`
	APIVersion     string `yaml:"api_version"`
}

type ProxyConfig struct {
	BaseURL string `yaml:"base_url"`
}

type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

type CompletionConfig struct {
	// Provider overrides the backend for function selection only.
	Provider string `yaml:"provider"`
}

type CartConfig struct {
	EnforceLimits bool `yaml:"enforce_limits"`
}

type CatalogConfig struct {
	File           string        `yaml:"file"`
	ReloadInterval time.Duration `yaml:"reload_interval"`
}

type NotifyConfig struct {
	Desktop bool `yaml:"desktop"`
}

type PushoverConfig struct {
	Token   string `yaml:"token"`
	UserKey string `yaml:"user_key"`
	Enabled bool   `yaml:"enabled"`
}

type HomeAssistConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
	Service string `yaml:"service"`
	Enabled bool   `yaml:"enabled"`
}

type LogConfig struct {
	Level   string `yaml:"level"`
	Format  string `yaml:"format"`
	Service string `yaml:"service"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := Config{
		Audio: AudioConfig{Transcode: true, TrimSilence: true},
	}
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RateLimit == 0 {
		c.Server.RateLimit = 30
	}
	if c.Server.RateWindow == 0 {
		c.Server.RateWindow = time.Minute
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 10
	}
	if c.Audio.Source == "" {
		c.Audio.Source = "none"
	}
	if c.Audio.FileDir == "" {
		c.Audio.FileDir = "./audio"
	}
	if c.Audio.SampleRate == 0 {
		c.Audio.SampleRate = 16000
	}
	if c.Audio.SilenceThreshold == 0 {
		c.Audio.SilenceThreshold = 500
	}
	if c.Audio.TrimThreshold == 0 {
		c.Audio.TrimThreshold = 0.025
	}
	if c.Backend == "" {
		c.Backend = BackendOpenAI
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-3.5-turbo-0613"
	}
	if c.Azure.Language == "" {
		c.Azure.Language = "en-US"
	}
	if c.Azure.APIVersion == "" {
		c.Azure.APIVersion = "2024-02-01"
	}
	if c.Completion.Provider == "" {
		c.Completion.Provider = c.Backend
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.Service == "" {
		c.Log.Service = "voice-cart"
	}
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendOpenAI, BackendAzure, BackendProxy:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}

	switch c.Completion.Provider {
	case BackendOpenAI, BackendAzure, BackendProxy, ProviderAnthropic, ProviderGemini:
	default:
		return fmt.Errorf("unknown completion provider %q", c.Completion.Provider)
	}

	if (c.Backend == BackendProxy || c.Completion.Provider == BackendProxy) && c.Proxy.BaseURL == "" {
		return fmt.Errorf("proxy.base_url is required for the proxy backend")
	}

	switch c.Audio.Source {
	case "none", "file", "microphone":
	default:
		return fmt.Errorf("unknown audio source %q", c.Audio.Source)
	}

	if c.HomeAssist.Enabled && c.HomeAssist.BaseURL == "" {
		return fmt.Errorf("homeassistant.base_url is required when enabled")
	}

	if c.Audio.TrimThreshold < 0 || c.Audio.TrimThreshold >= 1 {
		return fmt.Errorf("audio.trim_threshold must be in [0, 1), got %v", c.Audio.TrimThreshold)
	}

	return nil
}
