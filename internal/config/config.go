package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Password hashing policies.
const (
	HashingPlaintext = "plaintext"
	HashingBcrypt    = "bcrypt"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port              string
	DBURL             string
	DBAutoMigrate     bool
	OMDBURL           string
	OMDBAPIKey        string
	OMDBTimeoutSecs   int
	ReadTimeoutSecs   int
	WriteTimeoutSecs  int
	IdleTimeoutSecs   int
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int
	LogPath           string
	Debug             bool
	PasswordHashing   string
}

// Load reads configuration from environment variables, applying defaults and validation.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("DB_AUTO_MIGRATE", true)
	v.SetDefault("OMDB_URL", "https://www.omdbapi.com")
	v.SetDefault("OMDB_TIMEOUT_SECS", 10)
	v.SetDefault("SERVER_READ_TIMEOUT", 15)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 0)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_MAX_CONN_IDLE_SECS", 300)
	v.SetDefault("DB_MAX_CONN_LIFETIME_SECS", 3600)
	v.SetDefault("DB_CONN_TIMEOUT_SECS", 10)
	v.SetDefault("DB_STATEMENT_CACHE_CAPACITY", 256)
	v.SetDefault("DEBUG", false)
	v.SetDefault("PASSWORD_HASHING", HashingPlaintext)

	cfg := Config{
		Port:              v.GetString("PORT"),
		DBURL:             v.GetString("DB_URL"),
		DBAutoMigrate:     v.GetBool("DB_AUTO_MIGRATE"),
		OMDBURL:           v.GetString("OMDB_URL"),
		OMDBAPIKey:        v.GetString("OMDB_API_KEY"),
		OMDBTimeoutSecs:   v.GetInt("OMDB_TIMEOUT_SECS"),
		ReadTimeoutSecs:   v.GetInt("SERVER_READ_TIMEOUT"),
		WriteTimeoutSecs:  v.GetInt("SERVER_WRITE_TIMEOUT"),
		IdleTimeoutSecs:   v.GetInt("SERVER_IDLE_TIMEOUT"),
		DBMaxConns:        v.GetInt("DB_MAX_CONNS"),
		DBMinConns:        v.GetInt("DB_MIN_CONNS"),
		DBMaxIdleSecs:     v.GetInt("DB_MAX_CONN_IDLE_SECS"),
		DBMaxLifeSecs:     v.GetInt("DB_MAX_CONN_LIFETIME_SECS"),
		DBConnTimeoutSecs: v.GetInt("DB_CONN_TIMEOUT_SECS"),
		DBStatementCache:  v.GetInt("DB_STATEMENT_CACHE_CAPACITY"),
		LogPath:           v.GetString("LOG_PATH"),
		Debug:             v.GetBool("DEBUG"),
		PasswordHashing:   strings.ToLower(strings.TrimSpace(v.GetString("PASSWORD_HASHING"))),
	}

	if cfg.DBURL == "" {
		return Config{}, fmt.Errorf("DB_URL is required")
	}
	if cfg.OMDBURL == "" {
		return Config{}, fmt.Errorf("OMDB_URL is required")
	}
	if cfg.OMDBAPIKey == "" {
		return Config{}, fmt.Errorf("OMDB_API_KEY is required")
	}
	if cfg.OMDBTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("OMDB_TIMEOUT_SECS must be positive")
	}
	if cfg.WriteTimeoutSecs < 0 {
		return Config{}, fmt.Errorf("SERVER_WRITE_TIMEOUT must be non-negative")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMaxConns > 0 && cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	switch cfg.PasswordHashing {
	case HashingPlaintext, HashingBcrypt:
	default:
		return Config{}, fmt.Errorf("PASSWORD_HASHING must be %q or %q", HashingPlaintext, HashingBcrypt)
	}

	return cfg, nil
}
