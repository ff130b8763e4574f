package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// EnvConfigPath overrides the location of the JSON config file.
const EnvConfigPath = "DOCUCHAT_CONFIG"

const defaultPath = "config.json"

// Source identifies where a resolved configuration value came from.
type Source string

const (
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
	SourceDefault Source = "default"
	SourceUnset   Source = "unset"
)

// Config represents runtime configuration for the service. Values come
// from an optional JSON file first, then per-field environment fallbacks,
// then defaults; the winning source is recorded for diagnostics.
type Config struct {
	Server    ServerConfig              `json:"server"`
	Provider  string                    `json:"provider"`
	Providers map[string]ProviderConfig `json:"providers"`
	Document  DocumentConfig            `json:"document"`
	Store     StoreConfig               `json:"store"`
	Logging   LoggingConfig             `json:"logging"`

	sources map[string]Source
}

type ServerConfig struct {
	Address   string `json:"address"`
	StaticDir string `json:"static_dir"`
}

type ProviderConfig struct {
	BaseURL string `json:"base_url"`
	Model   string `json:"model"`
	APIKey  string `json:"api_key"`
}

type DocumentConfig struct {
	MaxChunkSize        int `json:"max_chunk_size"`
	ContextChunks       int `json:"context_chunks"`
	OneShotChunks       int `json:"one_shot_chunks"`
	SummaryChunks       int `json:"summary_chunks"`
	TTLMinutes          int `json:"ttl_minutes"`
	MaxUploadMB         int `json:"max_upload_mb"`
	UploadLimit         int `json:"upload_limit"`
	UploadWindowSeconds int `json:"upload_window_seconds"`
}

type StoreConfig struct {
	Backend       string `json:"backend"` // memory, redis, sql
	RedisAddr     string `json:"redis_addr"`
	RedisPassword string `json:"redis_password"`
	Driver        string `json:"driver"` // sqlite3, mysql
	DSN           string `json:"dsn"`
}

type LoggingConfig struct {
	Endpoint string `json:"endpoint"` // empty disables the conversation log
}

// conventionalKeyEnv maps a provider to the environment variable its SDK
// ecosystem conventionally uses for credentials.
var conventionalKeyEnv = map[string]string{
	"openai": "OPENAI_API_KEY",
	"claude": "ANTHROPIC_API_KEY",
	"gemini": "GEMINI_API_KEY",
}

var defaultModels = map[string]string{
	"openai": "gpt-4o-mini",
	"claude": "claude-sonnet-4-20250514",
	"gemini": "gemini-2.5-flash",
}

// Load reads configuration from the provided path (DOCUCHAT_CONFIG or
// config.json when empty). A missing default file is not an error; the
// environment and defaults take over.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if path == "" {
		path = os.Getenv(EnvConfigPath)
		explicit = path != ""
	}
	if path == "" {
		path = defaultPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	var cfg Config
	file, err := os.Open(absPath)
	switch {
	case err == nil:
		defer file.Close()
		if err := json.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// no file, run on environment and defaults
	default:
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}

	cfg.resolve()
	return &cfg, nil
}

// resolve applies the file > environment > default precedence per field
// and records each winning source.
func (c *Config) resolve() {
	c.sources = make(map[string]Source)
	if c.Providers == nil {
		c.Providers = make(map[string]ProviderConfig)
	}

	c.Provider = c.pick("provider", c.Provider, []string{"DOCUCHAT_PROVIDER"}, "openai")
	c.Server.Address = c.pick("server_address", c.Server.Address, []string{"DOCUCHAT_ADDR"}, ":8080")
	c.Server.StaticDir = c.pick("static_dir", c.Server.StaticDir, nil, "web/static")
	c.Store.Backend = c.pick("store_backend", c.Store.Backend, []string{"DOCUCHAT_STORE"}, "memory")
	c.Store.RedisAddr = c.pick("redis_addr", c.Store.RedisAddr, []string{"DOCUCHAT_REDIS_ADDR"}, "localhost:6379")
	c.Store.RedisPassword = c.pick("redis_password", c.Store.RedisPassword, []string{"DOCUCHAT_REDIS_PASSWORD"}, "")
	c.Store.Driver = c.pick("db_driver", c.Store.Driver, []string{"DOCUCHAT_DB_DRIVER"}, "sqlite3")
	c.Store.DSN = c.pick("db_dsn", c.Store.DSN, []string{"DOCUCHAT_DB_DSN"}, "docuchat.db")
	c.Logging.Endpoint = c.pick("log_endpoint", c.Logging.Endpoint, []string{"DOCUCHAT_LOG_ENDPOINT"}, "")

	prov := c.Providers[c.Provider]
	keyEnvs := []string{"DOCUCHAT_API_KEY"}
	if name, ok := conventionalKeyEnv[c.Provider]; ok {
		keyEnvs = append(keyEnvs, name)
	}
	prov.APIKey = c.pick("api_key", prov.APIKey, keyEnvs, "")
	prov.Model = c.pick("model", prov.Model, []string{"DOCUCHAT_MODEL"}, defaultModels[c.Provider])
	prov.BaseURL = c.pick("base_url", prov.BaseURL, []string{"DOCUCHAT_BASE_URL"}, "")
	c.Providers[c.Provider] = prov

	applyIntDefault(&c.Document.MaxChunkSize, 4000)
	applyIntDefault(&c.Document.ContextChunks, 3)
	applyIntDefault(&c.Document.OneShotChunks, 8)
	applyIntDefault(&c.Document.SummaryChunks, 3)
	applyIntDefault(&c.Document.TTLMinutes, 30)
	applyIntDefault(&c.Document.MaxUploadMB, 10)
	applyIntDefault(&c.Document.UploadLimit, 3)
	applyIntDefault(&c.Document.UploadWindowSeconds, 60)
}

func (c *Config) pick(key, fileVal string, envNames []string, def string) string {
	if fileVal != "" {
		c.sources[key] = SourceFile
		return fileVal
	}
	for _, name := range envNames {
		if v := os.Getenv(name); v != "" {
			c.sources[key] = SourceEnv
			return v
		}
	}
	if def != "" {
		c.sources[key] = SourceDefault
		return def
	}
	c.sources[key] = SourceUnset
	return ""
}

func applyIntDefault(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}

// Active returns the resolved settings for the selected provider.
func (c *Config) Active() ProviderConfig {
	return c.Providers[c.Provider]
}

// DocumentTTL is the idle lifetime of a stored document record.
func (c *Config) DocumentTTL() time.Duration {
	return time.Duration(c.Document.TTLMinutes) * time.Minute
}

// MaxUploadBytes is the per-request upload size cap.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Document.MaxUploadMB) << 20
}

// UploadWindow is the sliding window for the per-session upload limit.
func (c *Config) UploadWindow() time.Duration {
	return time.Duration(c.Document.UploadWindowSeconds) * time.Second
}

// Status describes one resolved configuration field for diagnostics.
type Status struct {
	Set    bool   `json:"set"`
	Source Source `json:"source"`
}

// Diagnostics reports which fields are configured and where each value
// came from. Secret values themselves are never included.
func (c *Config) Diagnostics() map[string]Status {
	out := make(map[string]Status, len(c.sources))
	for key, src := range c.sources {
		out[key] = Status{Set: src != SourceUnset, Source: src}
	}
	return out
}

// SourceOf exposes the recorded origin of a single field.
func (c *Config) SourceOf(key string) Source {
	if src, ok := c.sources[key]; ok {
		return src
	}
	return SourceUnset
}
