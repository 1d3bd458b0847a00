package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Env  string
	Port string

	// Win tickets
	TicketSecret   string
	TicketIssuer   string
	TicketAudience string
	TicketTTL      time.Duration

	// Round protocol
	CommitmentTTL  time.Duration
	MaxEscalations int

	// Ledger collaborator
	GameWalletAddress string
	AssetID           string
	LedgerEndpoint    string
	LedgerAPIKey      string

	// Redis is optional; when unset the in-memory stores are used.
	RedisURL  string
	RedisPass string
	RedisDB   int
}

func Load() (*Config, error) {
	cfg := &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("PORT", "8080"),

		TicketSecret:   os.Getenv("TICKET_SECRET"),
		TicketIssuer:   getEnv("TICKET_ISSUER", "tonspin"),
		TicketAudience: getEnv("TICKET_AUDIENCE", "tonspin-player"),
		TicketTTL:      getDuration("TICKET_TTL", 5*time.Minute),

		CommitmentTTL:  getDuration("COMMITMENT_TTL", 5*time.Minute),
		MaxEscalations: getInt("MAX_ESCALATIONS", 5),

		GameWalletAddress: os.Getenv("GAME_WALLET_ADDRESS"),
		AssetID:           getEnv("ASSET_ID", "TON"),
		LedgerEndpoint:    os.Getenv("LEDGER_ENDPOINT"),
		LedgerAPIKey:      os.Getenv("LEDGER_API_KEY"),

		RedisURL:  os.Getenv("REDIS_URL"),
		RedisPass: os.Getenv("REDIS_PASSWORD"),
		RedisDB:   getInt("REDIS_DB", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate fails fast on anything the round protocol cannot run without.
func (c *Config) Validate() error {
	if c.TicketSecret == "" {
		return fmt.Errorf("TICKET_SECRET is required")
	}
	if len(c.TicketSecret) < 32 {
		return fmt.Errorf("TICKET_SECRET must be at least 32 bytes, got %d", len(c.TicketSecret))
	}
	if c.GameWalletAddress == "" {
		return fmt.Errorf("GAME_WALLET_ADDRESS is required")
	}
	if c.TicketTTL <= 0 {
		return fmt.Errorf("TICKET_TTL must be positive")
	}
	if c.CommitmentTTL <= 0 {
		return fmt.Errorf("COMMITMENT_TTL must be positive")
	}
	if c.MaxEscalations < 0 {
		return fmt.Errorf("MAX_ESCALATIONS must not be negative")
	}
	if c.Env == "production" && c.LedgerEndpoint == "" {
		return fmt.Errorf("LEDGER_ENDPOINT is required in production")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
