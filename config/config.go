// Package config loads sketch2web settings from a JSON file with environment
// overrides for credentials and addresses.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"sketch2web/generator"
	"sketch2web/imaging"
)

// Config holds all settings.
type Config struct {
	ServerAddr      string                    `json:"server_addr,omitempty"`
	DefaultProvider string                    `json:"default_provider,omitempty"`
	Providers       map[string]ProviderConfig `json:"providers,omitempty"`
	Image           ImageConfig               `json:"image,omitempty"`
	Session         SessionConfig             `json:"session,omitempty"`
	PreviewDir      string                    `json:"preview_dir,omitempty"`
	LogLevel        string                    `json:"log_level,omitempty"`
	GenerateTimeout Duration                  `json:"generate_timeout,omitempty"`
}

// ProviderConfig 是单个模型 provider 的配置。api_key 为空时读取 api_key_env 指定的环境变量。
type ProviderConfig struct {
	Model     string `json:"model,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	APIKeyEnv string `json:"api_key_env,omitempty"`
	BaseURL   string `json:"base_url,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
}

// ImageConfig controls sketch pre-processing.
type ImageConfig struct {
	MaxWidth  int   `json:"max_width,omitempty"`
	MaxHeight int   `json:"max_height,omitempty"`
	Quality   int   `json:"quality,omitempty"`
	MaxPixels int64 `json:"max_pixels,omitempty"`
}

// SessionConfig selects where session state lives.
type SessionConfig struct {
	Backend       string   `json:"backend,omitempty"` // "memory" or "redis"
	RedisAddr     string   `json:"redis_addr,omitempty"`
	RedisPassword string   `json:"redis_password,omitempty"`
	RedisDB       int      `json:"redis_db,omitempty"`
	TTL           Duration `json:"ttl,omitempty"`
}

// Duration is a time.Duration written as "90s" in JSON.
type Duration time.Duration

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("duration must be a string like \"30s\": %w", err)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// defaultKeyEnv 是各 provider 默认读取的 API key 环境变量。
var defaultKeyEnv = map[string]string{
	"openai":      "OPENAI_API_KEY",
	"huggingface": "HF_API_KEY",
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		ServerAddr:      ":8080",
		DefaultProvider: "openai",
		Providers: map[string]ProviderConfig{
			"openai":      {},
			"huggingface": {},
			"mock":        {},
		},
		Session: SessionConfig{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
			TTL:       Duration(24 * time.Hour),
		},
		LogLevel:        "info",
		GenerateTimeout: Duration(90 * time.Second),
	}
}

// Load reads JSON config from path. A missing file yields Default(); fields
// present in the file replace the defaults and provider entries are merged
// by name. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, err
		default:
			if err := json.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SKETCH2WEB_ADDR"); v != "" {
		c.ServerAddr = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Session.RedisAddr = v
	}
	for name, p := range c.Providers {
		if p.APIKey != "" {
			continue
		}
		env := p.APIKeyEnv
		if env == "" {
			env = defaultKeyEnv[name]
		}
		if env != "" {
			p.APIKey = os.Getenv(env)
			c.Providers[name] = p
		}
	}
}

// Validate checks values that would otherwise fail later and less clearly.
func (c Config) Validate() error {
	if c.DefaultProvider == "" {
		return errors.New("default_provider is required")
	}
	if _, ok := c.Providers[c.DefaultProvider]; !ok {
		return fmt.Errorf("default_provider %q is not listed in providers", c.DefaultProvider)
	}
	switch c.Session.Backend {
	case "", "memory":
	case "redis":
		if c.Session.RedisAddr == "" {
			return errors.New("session.redis_addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("session.backend %q not supported", c.Session.Backend)
	}
	if q := c.Image.Quality; q < 0 || q > 100 {
		return fmt.Errorf("image.quality %d out of range 1-100", q)
	}
	return nil
}

// LLMSettings converts provider entries for generator.NewRegistry.
func (c Config) LLMSettings() map[string]generator.LLMSettings {
	out := make(map[string]generator.LLMSettings, len(c.Providers))
	for name, p := range c.Providers {
		out[name] = generator.LLMSettings{
			Provider:  name,
			Model:     p.Model,
			APIKey:    p.APIKey,
			BaseURL:   p.BaseURL,
			MaxTokens: p.MaxTokens,
		}
	}
	return out
}

// ImageOptions converts the image section; zero fields fall back to imaging defaults.
func (c Config) ImageOptions() imaging.Options {
	return imaging.Options{
		MaxWidth:  c.Image.MaxWidth,
		MaxHeight: c.Image.MaxHeight,
		Quality:   c.Image.Quality,
		MaxPixels: c.Image.MaxPixels,
	}
}
