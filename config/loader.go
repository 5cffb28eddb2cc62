package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix - prefix for environment overrides, e.g. BOTTO_COOLDOWN=10s
const EnvPrefix = "BOTTO_"

// Load - build a Config from defaults, an optional YAML file and the environment.
// Precedence (low -> high): defaults, file named by BOTTO_CONFIG, BOTTO_* variables.
// A .env file in the working directory is loaded into the environment first if present.
func Load() (*Config, error) {
	// Missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	k := koanf.New(".")

	if path := os.Getenv(EnvPrefix + "CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := *New()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// The token name used by most Discord bot setups
	if cfg.DiscordToken == "" {
		cfg.DiscordToken = os.Getenv("DISCORD_TOKEN")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate - check that the settings can run the bot
func (c *Config) Validate() error {
	switch {
	case c.DiscordToken == "":
		return fmt.Errorf("%w: discord token is not set", ErrInvalidConfig)
	case c.Cooldown <= 0:
		return fmt.Errorf("%w: cooldown must be positive", ErrInvalidConfig)
	case c.ReplyTTL <= 0:
		return fmt.Errorf("%w: reply_ttl must be positive", ErrInvalidConfig)
	case c.RosterCSV == "" && (c.SpreadsheetID == "" || c.CredentialsFile == "" || c.RosterRange == ""):
		return fmt.Errorf("%w: roster needs roster_csv or spreadsheet_id, roster_range and credentials_file", ErrInvalidConfig)
	case c.RosterTimeout <= 0:
		return fmt.Errorf("%w: roster_timeout must be positive", ErrInvalidConfig)
	case c.SweepInterval <= 0:
		return fmt.Errorf("%w: sweep_interval must be positive", ErrInvalidConfig)
	case c.VerifyChannel == "":
		return fmt.Errorf("%w: verify_channel must not be empty", ErrInvalidConfig)
	}
	if c.CooldownRetention < c.Cooldown {
		c.CooldownRetention = c.Cooldown
	}
	return nil
}
