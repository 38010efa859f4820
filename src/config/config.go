package config

import (
	"fmt"
	"log"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr  string
	Env         string
	DatabaseURL string
	LiFi        LiFiConfig
	Swap        SwapConfig
	Networks    []NetworkConfig
}

type LiFiConfig struct {
	BaseURL      string
	APIKey       string
	RouteTimeout time.Duration
}

type SwapConfig struct {
	MaxAttempts      int
	AutoFallback     bool
	Confirmations    uint64
	ConfirmTimeout   time.Duration
	RefreshAttempts  int
	RefreshBaseDelay time.Duration
	DeliveryWait     time.Duration
}

type NetworkConfig struct {
	Name          string
	ChainID       *big.Int
	RPCURL        string
	ReadRPCURL    string // read-only provider; falls back to RPCURL when unset
	PrivateKey    string
	RouterAddress string
}

// LoadFromEnv reads configuration from environment variables with fallback defaults.
// It also loads `.env` if present (for local development).
func LoadFromEnv() *Config {
	// Load .env if exists, ignore error if no file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded, relying on environment variables")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("[FATAL] DATABASE_URL is required")
	}

	cfg := &Config{
		ListenAddr:  getEnv("LISTEN_ADDR", ":8080"),
		Env:         getEnv("ENV", "dev"),
		DatabaseURL: databaseURL,
		LiFi: LiFiConfig{
			BaseURL:      getEnv("LIFI_BASE_URL", "https://li.quest"),
			APIKey:       getEnv("LIFI_API_KEY", ""),
			RouteTimeout: getDuration("LIFI_ROUTE_TIMEOUT", 8*time.Second),
		},
		Swap: SwapConfig{
			MaxAttempts:      getInt("SWAP_MAX_ATTEMPTS", 3),
			AutoFallback:     getBool("SWAP_AUTO_FALLBACK", true),
			Confirmations:    uint64(getInt("SWAP_CONFIRMATIONS", 1)),
			ConfirmTimeout:   getDuration("SWAP_CONFIRM_TIMEOUT", 90*time.Second),
			RefreshAttempts:  getInt("BALANCE_REFRESH_ATTEMPTS", 3),
			RefreshBaseDelay: getDuration("BALANCE_REFRESH_BASE_DELAY", 2*time.Second),
			DeliveryWait:     getDuration("BRIDGE_DELIVERY_WAIT", 5*time.Minute),
		},
	}

	for _, name := range strings.Split(getEnv("NETWORKS", "base,polygon"), ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		cfg.Networks = append(cfg.Networks, loadNetwork(name))
	}
	if len(cfg.Networks) == 0 {
		log.Fatal("[FATAL] at least one entry in NETWORKS is required")
	}

	return cfg
}

// loadNetwork reads the per-network variables, e.g. BASE_RPC_URL for network "base".
func loadNetwork(name string) NetworkConfig {
	prefix := strings.ToUpper(name)
	rpcURL := os.Getenv(prefix + "_RPC_URL")
	if rpcURL == "" {
		log.Fatalf("[FATAL] %s_RPC_URL is required", prefix)
	}
	chainID, err := strconv.ParseInt(os.Getenv(prefix+"_CHAIN_ID"), 10, 64)
	if err != nil {
		log.Fatalf("[FATAL] invalid %s_CHAIN_ID: %v", prefix, err)
	}
	return NetworkConfig{
		Name:          name,
		ChainID:       big.NewInt(chainID),
		RPCURL:        rpcURL,
		ReadRPCURL:    getEnv(prefix+"_READ_RPC_URL", rpcURL),
		PrivateKey:    os.Getenv(prefix + "_PRIVATE_KEY"),
		RouterAddress: os.Getenv(prefix + "_ROUTER_ADDRESS"),
	}
}

// Network returns the configuration for the named network.
func (c *Config) Network(name string) (NetworkConfig, error) {
	for _, n := range c.Networks {
		if n.Name == name {
			return n, nil
		}
	}
	return NetworkConfig{}, fmt.Errorf("network %q not configured", name)
}

// helper to get env with default fallback
func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		n, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("[FATAL] invalid %s: %v", key, err)
		}
		return n
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(val)
		if err != nil {
			log.Fatalf("[FATAL] invalid %s: %v", key, err)
		}
		return b
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		d, err := time.ParseDuration(val)
		if err != nil {
			log.Fatalf("[FATAL] invalid %s duration: %v", key, err)
		}
		return d
	}
	return fallback
}
