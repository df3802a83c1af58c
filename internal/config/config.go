package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "VTRACK_"

type Config struct {
	Env      string         `koanf:"env"`
	Telegram TelegramConfig `koanf:"telegram"`
	Storage  StorageConfig  `koanf:"storage"`
	Notifier NotifierConfig `koanf:"notifier"`
	MCP      MCPConfig      `koanf:"mcp"`
}

type TelegramConfig struct {
	Token   string `koanf:"token"`
	Debug   bool   `koanf:"debug"`
	Timeout int    `koanf:"timeout"` // long polling, секунды
}

type StorageConfig struct {
	Path string `koanf:"path"`
}

type NotifierConfig struct {
	Enabled  bool `koanf:"enabled"`
	Interval int  `koanf:"interval"` // секунды
}

func (n NotifierConfig) Every() time.Duration {
	return time.Duration(n.Interval) * time.Second
}

type MCPConfig struct {
	OwnerID int64 `koanf:"owner_id"`
}

func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"env": "prod",
		"telegram": map[string]interface{}{
			"token":   "",
			"debug":   false,
			"timeout": 60,
		},
		"storage": map[string]interface{}{
			"path": "/app/data/reminders.db",
		},
		"notifier": map[string]interface{}{
			"enabled":  true,
			"interval": 60,
		},
		"mcp": map[string]interface{}{
			"owner_id": 0,
		},
	}
}

// Load собирает конфигурацию: значения по умолчанию, затем YAML-файл (если
// есть), затем переменные окружения VTRACK_*. BOT_TOKEN и ENV=dev
// поддерживаются как раньше.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// ENV=dev меняет только значения по умолчанию; файл и VTRACK_* важнее
	if os.Getenv("ENV") == "dev" {
		k.Set("env", "dev")
		k.Set("telegram.debug", true)
		k.Set("storage.path", "reminders.db")
	}

	if configPath != "" {
		configPath = expandPath(configPath)
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	if token := os.Getenv("BOT_TOKEN"); token != "" {
		k.Set("telegram.token", token)
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Storage.Path = expandPath(cfg.Storage.Path)

	return &cfg, nil
}

// envKey: VTRACK_MCP_OWNER_ID -> mcp.owner_id. Первый "_" разделяет секцию и ключ.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "_", ".", 1)
}

func (c *Config) Validate() error {
	if c.Storage.Path == "" {
		return errors.New("storage.path is required")
	}
	if c.Notifier.Enabled && c.Notifier.Interval <= 0 {
		return fmt.Errorf("notifier.interval must be positive, got %d", c.Notifier.Interval)
	}
	if c.Telegram.Timeout <= 0 {
		return fmt.Errorf("telegram.timeout must be positive, got %d", c.Telegram.Timeout)
	}
	return nil
}

// ValidateBot дополнительно требует токен бота.
func (c *Config) ValidateBot() error {
	if c.Telegram.Token == "" {
		return errors.New("telegram token is required (set BOT_TOKEN or VTRACK_TELEGRAM_TOKEN)")
	}
	return c.Validate()
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

func expandPath(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
