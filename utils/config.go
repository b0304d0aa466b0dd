// utils/config.go
package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// R2Config holds the Cloudflare R2 credentials used for attachments.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	CDNBaseURL      string
}

// Config is everything the indexer reads from the environment.
type Config struct {
	NodeURL         string
	NotificationURL string
	ChainID         string
	ApplicationID   string

	StoreDriver string
	DatabaseURL string
	R2          R2Config

	PollInterval time.Duration
	SettleDelay  time.Duration
	QueryTimeout time.Duration

	OpsAddr      string
	ServiceToken string
}

// LoadConfig reads .env (if present) and then the process environment.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}
	return ConfigFromEnv()
}

// ConfigFromEnv builds a Config from the environment only.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		NodeURL:         strings.TrimRight(os.Getenv("NODE_URL"), "/"),
		NotificationURL: os.Getenv("NOTIFICATION_URL"),
		ChainID:         os.Getenv("CHAIN_ID"),
		ApplicationID:   os.Getenv("APPLICATION_ID"),
		StoreDriver:     strings.ToLower(envOr("STORE_DRIVER", StoreDriverPostgres)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		R2: R2Config{
			AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
			AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
			AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
			Bucket:          os.Getenv("R2_BUCKET_NAME"),
			CDNBaseURL:      os.Getenv("CDN_BASE_URL"),
		},
		OpsAddr:      envOr("OPS_ADDR", ":5300"),
		ServiceToken: os.Getenv("SERVICE_TOKEN"),
	}

	var err error
	if cfg.PollInterval, err = envDuration("POLL_INTERVAL_SEC", 10, time.Second); err != nil {
		return cfg, err
	}
	if cfg.SettleDelay, err = envDuration("SETTLE_DELAY_MS", 500, time.Millisecond); err != nil {
		return cfg, err
	}
	if cfg.QueryTimeout, err = envDuration("QUERY_TIMEOUT_SEC", 15, time.Second); err != nil {
		return cfg, err
	}

	required := map[string]string{
		"NODE_URL":         cfg.NodeURL,
		"NOTIFICATION_URL": cfg.NotificationURL,
		"CHAIN_ID":         cfg.ChainID,
		"APPLICATION_ID":   cfg.ApplicationID,
	}
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		required["DATABASE_URL"] = cfg.DatabaseURL
	case StoreDriverMemory:
	default:
		return cfg, fmt.Errorf("unknown STORE_DRIVER %q (want %s or %s)", cfg.StoreDriver, StoreDriverPostgres, StoreDriverMemory)
	}

	var missing []string
	for _, name := range []string{"NODE_URL", "NOTIFICATION_URL", "CHAIN_ID", "APPLICATION_ID", "DATABASE_URL"} {
		if v, ok := required[name]; ok && v == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return cfg, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}
	return cfg, nil
}

// R2Enabled reports whether enough R2 settings are present to upload attachments.
func (c Config) R2Enabled() bool {
	return c.R2.AccountID != "" && c.R2.AccessKeyID != "" && c.R2.AccessKeySecret != "" && c.R2.Bucket != ""
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func envDuration(name string, fallback int, unit time.Duration) (time.Duration, error) {
	s := os.Getenv(name)
	if s == "" {
		return time.Duration(fallback) * unit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", name, s)
	}
	return time.Duration(n) * unit, nil
}
