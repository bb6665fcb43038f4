package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds process settings taken from the environment
type AppConfig struct {
	RiskConfigPath string
	AuditDBPath    string
	LogLevel       string
	MetricsAddr    string

	// Stale order books are rejected before the liquidity check
	OrderBookMaxAge time.Duration

	Exchange struct {
		APIKey   string
		Secret   string
		Testnet  bool
		Category string
	}
}

// LoadEnvFile loads variables from an env file. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// LoadAppConfig reads the process settings from the environment
func LoadAppConfig() *AppConfig {
	cfg := &AppConfig{
		RiskConfigPath:  getEnv("RISK_CONFIG_PATH", DefaultConfigPath),
		AuditDBPath:     getEnv("RISK_AUDIT_DB", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		MetricsAddr:     getEnv("METRICS_ADDR", ":9090"),
		OrderBookMaxAge: getEnvDuration("ORDERBOOK_MAX_AGE", 5*time.Second),
	}
	cfg.Exchange.APIKey = getEnv("BYBIT_API_KEY", "")
	cfg.Exchange.Secret = getEnv("BYBIT_API_SECRET", "")
	cfg.Exchange.Testnet = getEnvBool("BYBIT_TESTNET", false)
	cfg.Exchange.Category = getEnv("BYBIT_CATEGORY", "linear")
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
