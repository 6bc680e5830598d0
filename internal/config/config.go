package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port       string
	DBDriver   string
	DBDSN      string
	DBMaxOpen  int
	LogFile    string
	LogLevel   string
	JWTSecret  string
	TokenTTL   time.Duration
	NATSURL    string
	NATSPrefix string
	SeedDemo   bool
}

const devJWTSecret = "dev-only-auction-secret-change-me"

func Load() Config {
	cfg := Config{
		Port:       getEnv("PORT", "8080"),
		DBDriver:   strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		DBDSN:      getEnv("DB_DSN", "auctions.db"),
		DBMaxOpen:  getEnvInt("DB_MAX_OPEN_CONNS", 10),
		LogFile:    getEnv("LOG_FILE", ""),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		JWTSecret:  getEnv("JWT_SECRET", ""),
		TokenTTL:   time.Duration(getEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,
		NATSURL:    getEnv("NATS_URL", ""),
		NATSPrefix: getEnv("NATS_SUBJECT_PREFIX", "auctions.events"),
		SeedDemo:   getEnvBool("SEED_DEMO", false),
	}
	if cfg.JWTSecret == "" {
		log.Printf("[config] JWT_SECRET not set, using an insecure development secret")
		cfg.JWTSecret = devJWTSecret
	}
	log.Printf("[config] PORT=%s DB_DRIVER=%s DB_DSN=%s LOG_FILE=%s LOG_LEVEL=%s NATS_URL=%s SEED_DEMO=%t",
		cfg.Port, cfg.DBDriver, maskDSN(cfg.DBDSN), cfg.LogFile, cfg.LogLevel, cfg.NATSURL, cfg.SeedDemo)
	return cfg
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		log.Printf("[config] invalid %s=%q, using default %d", key, raw, def)
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("[config] invalid %s=%q, using default %t", key, raw, def)
		return def
	}
	return v
}

// maskDSN hides the password part of a postgres URL.
func maskDSN(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if colon := strings.Index(creds, ":"); colon >= 0 {
		return dsn[:scheme+3] + creds[:colon] + ":***" + dsn[at:]
	}
	return dsn
}
