package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL   string
	IsProduction  bool
	OwnerIdentity string        // the one fixed identity holding the Owner role
	LockWait      time.Duration // bounded wait for account locks before reporting Busy
	BusyRetries   int           // automatic retries on transient contention
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("BANK_OWNER_IDENTITY", "")
	viper.SetDefault("LOCK_WAIT", "2s")
	viper.SetDefault("BUSY_RETRIES", 2)

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.OwnerIdentity = viper.GetString("BANK_OWNER_IDENTITY")
	if cfg.OwnerIdentity == "" {
		log.Println("Warning: BANK_OWNER_IDENTITY not set. No caller will hold the Owner role.")
	}

	lockWaitStr := viper.GetString("LOCK_WAIT")
	lockWait, err := time.ParseDuration(lockWaitStr)
	if err != nil {
		lockWait = 2 * time.Second
		if lockWaitStr != "" {
			log.Printf("Warning: Invalid value for LOCK_WAIT ('%s'). Defaulting to %s.\n", lockWaitStr, lockWait)
		}
	}
	cfg.LockWait = lockWait

	cfg.BusyRetries = viper.GetInt("BUSY_RETRIES")
	if cfg.BusyRetries < 0 {
		cfg.BusyRetries = 0
	}

	return cfg, nil
}
