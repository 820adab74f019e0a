package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const DefaultFilename = ".yagsync.toml"

// Config carries everything the two providers and the syncer need. All
// values come from a TOML file; nothing is read from the environment.
type Config struct {
	Yandex YandexConfig `toml:"yandex"`
	Google GoogleConfig `toml:"google"`
	Sync   SyncConfig   `toml:"sync"`
}

type YandexConfig struct {
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Calendar  string `toml:"calendar"`
	ServerURL string `toml:"server_url"`
}

type GoogleConfig struct {
	CredentialsFile string   `toml:"credentials_file"`
	TokenDB         string   `toml:"token_db"`
	Scopes          []string `toml:"scopes"`
	CalendarID      string   `toml:"calendar_id"`
}

type SyncConfig struct {
	PastDays   int `toml:"past_days"`
	FutureDays int `toml:"future_days"`
}

// Load reads the config from filename, falling back to
// $HOME/.config/yagsync/ when the file is not found next to the process.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		fallback := filepath.Join(os.Getenv("HOME"), ".config", "yagsync", filepath.Base(filename))
		data, err = os.ReadFile(fallback)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	cfg.applyDefaults(md)
	return &cfg, nil
}

// applyDefaults fills unset options. The day counts consult the decode
// metadata so an explicit zero survives (past_days = 0 means today onward).
func (c *Config) applyDefaults(md toml.MetaData) {
	if c.Yandex.ServerURL == "" {
		c.Yandex.ServerURL = "https://caldav.yandex.ru"
	}
	if c.Google.CredentialsFile == "" {
		c.Google.CredentialsFile = "credentials.json"
	}
	if c.Google.TokenDB == "" {
		c.Google.TokenDB = ".yagsync.db"
	}
	if len(c.Google.Scopes) == 0 {
		c.Google.Scopes = []string{"https://www.googleapis.com/auth/calendar"}
	}
	if c.Google.CalendarID == "" {
		c.Google.CalendarID = "primary"
	}
	if !md.IsDefined("sync", "past_days") {
		c.Sync.PastDays = 7
	}
	if !md.IsDefined("sync", "future_days") {
		c.Sync.FutureDays = 30
	}
}

// Validate fails fast on missing required settings, before any network call.
func (c *Config) Validate() error {
	var missing []string
	if c.Yandex.Username == "" {
		missing = append(missing, "yandex.username")
	}
	if c.Yandex.Password == "" {
		missing = append(missing, "yandex.password")
	}
	if c.Yandex.Calendar == "" {
		missing = append(missing, "yandex.calendar")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %v", missing)
	}
	if c.Sync.PastDays < 0 || c.Sync.FutureDays < 0 {
		return errors.New("sync.past_days and sync.future_days must not be negative")
	}
	if _, err := os.Stat(c.Google.CredentialsFile); err != nil {
		return fmt.Errorf("google.credentials_file: %w", err)
	}
	return nil
}
