package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultAddr         = ":8080"
	DefaultDBPath       = "dayflow.db"
	DefaultReminderCron = "0 8 * * *" // daily at 08:00
	DefaultDigestLimit  = 5
)

type Config struct {
	Addr           string `toml:"addr"`
	DBPath         string `toml:"db_path"`
	ReminderCron   string `toml:"reminder_cron"`
	DigestLimit    int    `toml:"digest_limit"`
	FirstDayOfWeek string `toml:"first_day_of_week"`
}

// LoadOrCreate reads the config file, writing one with defaults when it
// does not exist yet.
func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.DBPath == "" {
		cfg.DBPath = DefaultDBPath
	}
	if cfg.ReminderCron == "" {
		cfg.ReminderCron = DefaultReminderCron
	}
	if cfg.DigestLimit < 1 {
		cfg.DigestLimit = DefaultDigestLimit
	}
	return cfg, nil
}

// FirstDay resolves the configured week start. The product default is
// Monday.
func (c Config) FirstDay() (time.Weekday, error) {
	switch strings.ToLower(c.FirstDayOfWeek) {
	case "", "monday":
		return time.Monday, nil
	case "sunday":
		return time.Sunday, nil
	case "saturday":
		return time.Saturday, nil
	default:
		return time.Monday, fmt.Errorf("unsupported first_day_of_week %q", c.FirstDayOfWeek)
	}
}

func write(path string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig() Config {
	return Config{
		Addr:           DefaultAddr,
		DBPath:         DefaultDBPath,
		ReminderCron:   DefaultReminderCron,
		DigestLimit:    DefaultDigestLimit,
		FirstDayOfWeek: "monday",
	}
}
