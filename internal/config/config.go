package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
)

// Config holds all application configuration
type Config struct {
	// Ledger settings
	RPCURL             string `env:"SPAZA_RPC_URL"`
	MultiTokenAddress  string `env:"SPAZA_MULTI_TOKEN_ADDRESS"`
	SingleTokenAddress string `env:"SPAZA_SINGLE_TOKEN_ADDRESS"`

	// Image settings
	IPFSGateway string `env:"SPAZA_IPFS_GATEWAY"`
	Placeholder string `env:"SPAZA_PLACEHOLDER"`

	// Transport settings
	HTTPTimeout time.Duration `env:"SPAZA_HTTP_TIMEOUT"`

	// Indexer settings, a service without a key is skipped
	MoralisKey     string `env:"MORALIS_KEY"`
	MoralisChain   string `env:"MORALIS_CHAIN"`
	AlchemyKey     string `env:"ALCHEMY_KEY"`
	AlchemyNetwork string `env:"ALCHEMY_NETWORK"`
	ZoraKey        string `env:"ZORA_KEY"`
	ZoraChain      string `env:"ZORA_CHAIN"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	return &Config{
		RPCURL:             "https://sepolia.base.org",
		MultiTokenAddress:  "0x661925E1EF8405771a6dDcDfC6e19Ce81820e86E",
		SingleTokenAddress: "0xa023dCF1486ef3150Ad6688c466F72b49C231Fc7",
		IPFSGateway:        "https://dweb.link/ipfs/",
		Placeholder:        "/assets/placeholder.png",
		HTTPTimeout:        30 * time.Second,
		MoralisChain:       "base-sepolia",
		AlchemyNetwork:     "base-sepolia",
		ZoraChain:          "baseSepolia",
	}
}

// LoadFromEnvironment overlays environment variables on top of the current values.
// Unset variables keep whatever the config already holds.
func (c *Config) LoadFromEnvironment() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC URL cannot be empty")
	}

	if !common.IsHexAddress(c.MultiTokenAddress) {
		return fmt.Errorf("multi-token address is not a valid address: %q", c.MultiTokenAddress)
	}

	if !common.IsHexAddress(c.SingleTokenAddress) {
		return fmt.Errorf("single-token address is not a valid address: %q", c.SingleTokenAddress)
	}

	gateway, err := url.Parse(c.IPFSGateway)
	if err != nil || gateway.Host == "" || (gateway.Scheme != "http" && gateway.Scheme != "https") {
		return fmt.Errorf("IPFS gateway must be an absolute http(s) URL, got: %q", c.IPFSGateway)
	}

	if !strings.HasSuffix(c.IPFSGateway, "/") {
		return fmt.Errorf("IPFS gateway must end with '/', got: %q", c.IPFSGateway)
	}

	if c.Placeholder == "" {
		return fmt.Errorf("placeholder reference cannot be empty")
	}

	if c.HTTPTimeout < 0 {
		return fmt.Errorf("HTTP timeout must be non-negative, got: %s", c.HTTPTimeout)
	}

	return nil
}
