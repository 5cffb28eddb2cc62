// Package config holds the bot settings and their defaults.
package config

import (
	"errors"
	"time"
)

// ErrInvalidConfig - returned (wrapped) when loaded settings cannot run the bot
var ErrInvalidConfig = errors.New("invalid config")

// DefaultSpreadsheetID - roster spreadsheet used when none is configured
const DefaultSpreadsheetID string = "1fVXutF_IkloKyzT9AO_7F-68r6i55W6z7yEonYsQjlw"

// Config - bot settings
type Config struct {
	DiscordToken string `koanf:"discord_token"`

	// Roster source. RosterCSV replaces the spreadsheet when set.
	CredentialsFile string        `koanf:"credentials_file"`
	SpreadsheetID   string        `koanf:"spreadsheet_id"`
	RosterRange     string        `koanf:"roster_range"`
	RosterCSV       string        `koanf:"roster_csv"`
	RosterTimeout   time.Duration `koanf:"roster_timeout"`

	// Names resolved against the guild on every event
	VerifyChannel  string `koanf:"verify_channel"`
	VerifiedRole   string `koanf:"verified_role"`
	UnverifiedRole string `koanf:"unverified_role"`

	Cooldown          time.Duration `koanf:"cooldown"`
	ReplyTTL          time.Duration `koanf:"reply_ttl"`
	CooldownRetention time.Duration `koanf:"cooldown_retention"`
	SweepInterval     time.Duration `koanf:"sweep_interval"`

	CommandPrefix string `koanf:"command_prefix"`
	LogLevel      string `koanf:"log_level"`
	MetricsAddr   string `koanf:"metrics_addr"`
}

// New - config with defaults applied
func New() *Config {
	return &Config{
		CredentialsFile:   "service-account.json",
		SpreadsheetID:     DefaultSpreadsheetID,
		RosterRange:       "Student_Data!A2:D",
		RosterTimeout:     10 * time.Second,
		VerifyChannel:     "verify",
		VerifiedRole:      "ka-CpE",
		UnverifiedRole:    "Unverified",
		Cooldown:          5 * time.Second,
		ReplyTTL:          5 * time.Second,
		CooldownRetention: time.Minute,
		SweepInterval:     time.Minute,
		CommandPrefix:     "!",
		LogLevel:          "info",
	}
}
