// Package config loads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	BackendFirestore = "firestore"
	BackendSQLite    = "sqlite"
)

type Config struct {
	DiscordToken   string `env:"DISCORD_TOKEN,required,notEmpty"`
	AppID          string `env:"DISCORD_APP_ID"`
	DefaultPrefix  string `env:"DEFAULT_PREFIX" envDefault:">"`
	GlobalCommands bool   `env:"GLOBAL_COMMANDS" envDefault:"true"`
	CommandsDir    string `env:"COMMANDS_DIR" envDefault:"commands"`

	StoreBackend string `env:"STORE_BACKEND" envDefault:"firestore"`
	GCPProjectID string `env:"GCP_PROJECT_ID"`
	SQLitePath   string `env:"SQLITE_PATH" envDefault:"data/syncbot.db"`

	ErrorChannelID    string        `env:"ERROR_CHANNEL_ID"`
	BackupChannelID   string        `env:"BACKUP_CHANNEL_ID"`
	BackupDir         string        `env:"BACKUP_DIR" envDefault:"backups"`
	BackupInterval    time.Duration `env:"BACKUP_INTERVAL" envDefault:"24h"`
	BackupCollections []string      `env:"BACKUP_COLLECTIONS" envDefault:"guilds,usage,users" envSeparator:","`
	SourceDir         string        `env:"SOURCE_DIR" envDefault:"."`
	StatsChannelID    string        `env:"STATS_CHANNEL_ID"`
	StatsInterval     time.Duration `env:"STATS_INTERVAL" envDefault:"1h"`

	PaginationTimeout time.Duration `env:"PAGINATION_TIMEOUT" envDefault:"60s"`
	MutationRate      float64       `env:"COMMAND_MUTATIONS_PER_SECOND" envDefault:"5"`
	GeminiAPIKey      string        `env:"GEMINI_API_KEY"`
	GeminiModel       string        `env:"GEMINI_MODEL"`
	LogLevel          string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Registrar is the part of Config the registration CLI reads. It does not
// require store settings.
type Registrar struct {
	DiscordToken   string  `env:"DISCORD_TOKEN,required,notEmpty"`
	AppID          string  `env:"DISCORD_APP_ID"`
	GlobalCommands bool    `env:"GLOBAL_COMMANDS" envDefault:"true"`
	CommandsDir    string  `env:"COMMANDS_DIR" envDefault:"commands"`
	MutationRate   float64 `env:"COMMAND_MUTATIONS_PER_SECOND" envDefault:"5"`
	LogLevel       string  `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	return Parse()
}

// LoadRegistrar is Load for the registration CLI.
func LoadRegistrar() (*Registrar, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	cfg, err := env.ParseAs[Registrar]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return &cfg, nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read .env: %w", err)
	}
	return nil
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.StoreBackend {
	case BackendFirestore:
		if c.GCPProjectID == "" {
			errs = append(errs, errors.New("GCP_PROJECT_ID is required for the firestore backend"))
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}
	if c.DefaultPrefix == "" {
		errs = append(errs, errors.New("DEFAULT_PREFIX must not be empty"))
	}
	if c.PaginationTimeout <= 0 {
		errs = append(errs, errors.New("PAGINATION_TIMEOUT must be positive"))
	}
	if c.BackupInterval <= 0 || c.StatsInterval <= 0 {
		errs = append(errs, errors.New("job intervals must be positive"))
	}
	return errors.Join(errs...)
}
