package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
	"pypoker-client/internal/util"
)

// Config provides configuration for the poker client
type Config struct {
	loaded bool

	Server struct {
		// URL is the websocket endpoint of the game server
		URL string `yaml:"url" envconfig:"url"`
		// RankingURL is the base URL of the ranking API, defaults to URL's host
		RankingURL string `yaml:"rankingUrl" envconfig:"ranking_url"`
		// Cookie is sent on the websocket handshake and ranking requests
		Cookie string `yaml:"cookie" envconfig:"cookie"`
		Origin string `yaml:"origin" envconfig:"origin"`
	} `yaml:"server"`

	Table struct {
		Seats               int           `yaml:"seats" envconfig:"seats"`
		TurnTimeout         time.Duration `yaml:"turnTimeout" envconfig:"turn_timeout"`
		ExpiryLead          time.Duration `yaml:"expiryLead" envconfig:"expiry_lead"`
		InteractionCooldown time.Duration `yaml:"interactionCooldown" envconfig:"interaction_cooldown"`
	} `yaml:"table"`

	Reconnect struct {
		Delay time.Duration `yaml:"delay" envconfig:"delay"`
		// MaxAttempts of zero retries forever
		MaxAttempts int `yaml:"maxAttempts" envconfig:"max_attempts"`
	} `yaml:"reconnect"`

	Log struct {
		Level  string `yaml:"level" envconfig:"level"`
		Format string `yaml:"format" envconfig:"format"`
	} `yaml:"log"`
}

var config Config

// DefaultConfig returns the configuration used when no file or environment overrides exist
func DefaultConfig() Config {
	var cfg Config
	cfg.Server.URL = "ws://localhost:5000/poker/texas-holdem"
	cfg.Table.Seats = 10
	cfg.Table.TurnTimeout = 15 * time.Second
	cfg.Table.ExpiryLead = time.Second
	cfg.Table.InteractionCooldown = 5 * time.Second
	cfg.Reconnect.Delay = 3 * time.Second
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"

	return cfg
}

// Instance returns a singleton instance
// If the config hasn't been loaded, it will be loaded
func Instance() Config {
	if !config.loaded {
		if err := Load(); err != nil {
			panic(err)
		}
	}

	return config
}

// Load will load the configuration
// A missing configuration file is not an error, the defaults are used instead
func Load() error {
	cfg := DefaultConfig()

	configFile := util.Getenv("PYPOKER_CONFIG_FILE", "config.yaml")
	file, err := os.Open(configFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if file != nil {
		defer file.Close()

		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return fmt.Errorf("could not decode %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process("pypoker", &cfg); err != nil {
		return err
	}

	if cfg.Table.Seats <= 0 {
		return fmt.Errorf("table.seats must be positive, got %d", cfg.Table.Seats)
	}

	config = cfg
	config.loaded = true
	return nil
}
