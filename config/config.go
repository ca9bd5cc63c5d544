package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendTable  = "table"
)

const (
	DefaultListenAddr = ":8080"
	DefaultSQLitePath = "taskflow.db"
	DefaultCacheTTL   = 5 * time.Minute
)

// Config holds service assembly options. Values come from an optional TOML
// file with environment variables taking precedence.
type Config struct {
	ListenAddr string `toml:"listen_addr"`
	Debug      bool   `toml:"debug"`

	Backend         string `toml:"backend"`
	SQLitePath      string `toml:"sqlite_path"`
	StorageConnStr  string `toml:"storage_connection_string"`
	TasksTable      string `toml:"tasks_table"`
	CategoriesTable string `toml:"categories_table"`
	ChangeQueue     string `toml:"change_queue"`

	RedisConnStr    string `toml:"redis_connection_string"`
	CacheTTLRaw     string `toml:"cache_ttl"`
	StoreLatencyRaw string `toml:"store_latency"`

	CacheTTL     time.Duration `toml:"-"`
	StoreLatency time.Duration `toml:"-"`
}

// Load reads the TOML file at path when it is non-empty, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Config{
		ListenAddr: DefaultListenAddr,
		Backend:    BackendMemory,
		SQLitePath: DefaultSQLitePath,
		CacheTTL:   DefaultCacheTTL,
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)

	if cfg.CacheTTLRaw != "" {
		d, err := time.ParseDuration(cfg.CacheTTLRaw)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("invalid cache_ttl: %q", cfg.CacheTTLRaw)
		}
		cfg.CacheTTL = d
	}
	if cfg.StoreLatencyRaw != "" {
		d, err := time.ParseDuration(cfg.StoreLatencyRaw)
		if err != nil || d < 0 {
			return cfg, fmt.Errorf("invalid store_latency: %q", cfg.StoreLatencyRaw)
		}
		cfg.StoreLatency = d
	}
	return cfg, cfg.validate()
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil {
		cfg.Debug = v
	}
	if v := os.Getenv("STORE_BACKEND"); v != "" {
		cfg.Backend = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.SQLitePath = v
	}
	if v := os.Getenv("STORAGE_CONNECTION_STRING"); v != "" {
		cfg.StorageConnStr = v
	}
	if v := os.Getenv("TASKS_TABLE"); v != "" {
		cfg.TasksTable = v
	}
	if v := os.Getenv("CATEGORIES_TABLE"); v != "" {
		cfg.CategoriesTable = v
	}
	if v := os.Getenv("CHANGE_QUEUE"); v != "" {
		cfg.ChangeQueue = v
	}
	if v := os.Getenv("REDIS_CONNECTION_STRING"); v != "" {
		cfg.RedisConnStr = v
	}
	if v := os.Getenv("CACHE_TTL"); v != "" {
		cfg.CacheTTLRaw = v
	}
	if v := os.Getenv("STORE_LATENCY"); v != "" {
		cfg.StoreLatencyRaw = v
	}
}

func (c Config) validate() error {
	switch c.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite backend requires sqlite_path")
		}
	case BackendTable:
		if c.StorageConnStr == "" || c.TasksTable == "" || c.CategoriesTable == "" {
			return errors.New("table backend requires storage_connection_string, tasks_table and categories_table")
		}
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.ChangeQueue != "" && c.StorageConnStr == "" {
		return errors.New("change_queue requires storage_connection_string")
	}
	return nil
}
