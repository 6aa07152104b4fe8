// Package config loads server settings from flags, environment variables
// and an optional .env file.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"token-safety-oracle/internal/payment"
	"token-safety-oracle/internal/provider"
)

// ErrInvalidConfig is returned for unusable settings.
var ErrInvalidConfig = errors.New("invalid config")

// Defaults.
const (
	DefaultPort            = 8000
	DefaultSolanaRPCURL    = "https://api.mainnet-beta.solana.com"
	DefaultUpstreamTimeout = 5 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
)

// Config holds all server settings.
type Config struct {
	Port            int
	FreeMode        bool
	Price           decimal.Decimal
	PaymentToken    string
	DexScreenerURL  string
	GoPlusURL       string
	SolanaRPCURL    string
	UpstreamTimeout time.Duration
	ShutdownTimeout time.Duration
	LiveData        bool
	Metrics         bool
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// LoadEnvFile loads a .env file without overriding variables already set.
// A missing file is not an error.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load parses args with environment variables as flag defaults.
func Load(name string, args []string) (Config, error) {
	var (
		cfg      Config
		priceStr string
		errs     []error
	)

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.IntVar(&cfg.Port, "port", envInt("PORT", DefaultPort, &errs), "HTTP listen port")
	fs.BoolVar(&cfg.FreeMode, "free-mode", envBool("FREE_MODE", true, &errs), "Serve checks without payment proof")
	fs.StringVar(&priceStr, "price", envString("X402_PRICE_PER_CHECK", payment.DefaultPrice.String()), "x402 price per check")
	fs.StringVar(&cfg.PaymentToken, "payment-token", envString("X402_PAYMENT_TOKEN", payment.DefaultToken), "x402 payment token")
	fs.StringVar(&cfg.DexScreenerURL, "dexscreener-url", envString("DEXSCREENER_URL", provider.DefaultDexScreenerURL), "DexScreener API base URL")
	fs.StringVar(&cfg.GoPlusURL, "goplus-url", envString("GOPLUS_URL", provider.DefaultGoPlusURL), "GoPlus API base URL")
	fs.StringVar(&cfg.SolanaRPCURL, "solana-rpc-url", envString("SOLANA_RPC_URL", DefaultSolanaRPCURL), "Solana RPC HTTP endpoint")
	fs.DurationVar(&cfg.UpstreamTimeout, "upstream-timeout", envDuration("UPSTREAM_TIMEOUT", DefaultUpstreamTimeout, &errs), "Per-call upstream timeout")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", envDuration("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout, &errs), "Graceful shutdown timeout")
	fs.BoolVar(&cfg.LiveData, "live-data", envBool("LIVE_DATA", true, &errs), "Query live market, security and chain data")
	fs.BoolVar(&cfg.Metrics, "metrics", envBool("METRICS", true, &errs), "Expose Prometheus metrics on /metrics")

	if err := fs.Parse(args); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(errs) > 0 {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return Config{}, fmt.Errorf("%w: price %q: %v", ErrInvalidConfig, priceStr, err)
	}
	cfg.Price = price

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.Price.IsNegative() {
		return fmt.Errorf("%w: negative price %s", ErrInvalidConfig, c.Price)
	}
	if c.PaymentToken == "" {
		return fmt.Errorf("%w: payment token is required", ErrInvalidConfig)
	}
	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("%w: upstream timeout must be positive", ErrInvalidConfig)
	}
	return nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int, errs *[]error) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return n
}

func envBool(key string, def bool, errs *[]error) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return b
}

func envDuration(key string, def time.Duration, errs *[]error) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s: %w", key, err))
		return def
	}
	return d
}
