package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"

	"github.com/xxxsen/payagent/internal/filestore"
)

type Config struct {
	Port          int              `json:"port"`
	JWTSecret     string           `json:"jwt_secret"`
	JWTTTLHours   int              `json:"jwt_ttl_hours"`
	RateLimitMS   int              `json:"rate_limit_ms"`
	CORSAllowlist []string         `json:"cors_allowlist"`
	LogConfig     logger.LogConfig `json:"log_config"`
	KB            KBConfig         `json:"kb"`
	Database      DatabaseConfig   `json:"database"`
	AI            AIConfig         `json:"ai"`
	Session       SessionConfig    `json:"session"`
}

type KBConfig struct {
	// Backend selects where indexed documentation lives: "file" reads
	// JSON snapshots from the store, "postgres" reads kb_chunks rows.
	Backend      string           `json:"backend"`
	Providers    []string         `json:"providers"`
	Store        filestore.Config `json:"store"`
	TemplatesKey string           `json:"templates_key"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type AIEndpoint struct {
	Provider string      `json:"provider"`
	Data     interface{} `json:"data"`
	Model    string      `json:"model"`
}

type AIConfig struct {
	// Provider powers answer rephrasing; empty disables the LLM and
	// the agent composes answers locally. Fallbacks are tried in order
	// when the primary fails.
	Provider  string       `json:"provider"`
	Data      interface{}  `json:"data"`
	Model     string       `json:"model"`
	Fallbacks []AIEndpoint `json:"fallbacks"`

	// EmbedProvider powers retrieval; empty disables semantic search
	// and the agent answers from templates alone.
	EmbedProvider  string       `json:"embed_provider"`
	EmbedData      interface{}  `json:"embed_data"`
	EmbedModel     string       `json:"embed_model"`
	EmbedFallbacks []AIEndpoint `json:"embed_fallbacks"`

	CacheSize      int `json:"cache_size"`
	CacheTTLMinute int `json:"cache_ttl_minute"`
}

type SessionConfig struct {
	MaxIdleMinutes int    `json:"max_idle_minutes"`
	SweepCron      string `json:"sweep_cron"`
	CacheMaxDays   int    `json:"cache_max_days"`
	CleanupCron    string `json:"cleanup_cron"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.KB.Backend == "" {
		cfg.KB.Backend = "file"
	}
	if cfg.KB.Store.Type == "" {
		return nil, fmt.Errorf("kb.store is required")
	}
	switch cfg.KB.Backend {
	case "file":
	case "postgres":
		if cfg.Database.DSN == "" && cfg.Database.Host == "" {
			return nil, fmt.Errorf("database is required for postgres backend")
		}
	default:
		return nil, fmt.Errorf("kb.backend must be file or postgres")
	}
	if len(cfg.KB.Providers) == 0 {
		cfg.KB.Providers = []string{"stripe", "paypal"}
	}
	if cfg.KB.TemplatesKey == "" {
		cfg.KB.TemplatesKey = "templates.json"
	}
	if cfg.AI.Provider != "" && cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required when ai.provider is set")
	}
	if cfg.AI.EmbedProvider != "" && cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required when ai.embed_provider is set")
	}
	for _, fb := range append(append([]AIEndpoint{}, cfg.AI.Fallbacks...), cfg.AI.EmbedFallbacks...) {
		if fb.Provider == "" || fb.Model == "" {
			return nil, fmt.Errorf("ai fallback entries need provider and model")
		}
	}
	if cfg.AI.CacheSize == 0 {
		cfg.AI.CacheSize = 1024
	}
	if cfg.AI.CacheTTLMinute == 0 {
		cfg.AI.CacheTTLMinute = 60
	}
	if cfg.Session.MaxIdleMinutes == 0 {
		cfg.Session.MaxIdleMinutes = 60
	}
	if cfg.Session.SweepCron == "" {
		cfg.Session.SweepCron = "*/10 * * * *"
	}
	if cfg.Session.CacheMaxDays == 0 {
		cfg.Session.CacheMaxDays = 30
	}
	if cfg.Session.CleanupCron == "" {
		cfg.Session.CleanupCron = "0 3 * * *"
	}
	return &cfg, nil
}
