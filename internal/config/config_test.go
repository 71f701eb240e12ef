package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigIsValid(t *testing.T) {
	cfg := NewConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://dweb.link/ipfs/", cfg.IPFSGateway)
	assert.Empty(t, cfg.MoralisKey)
	assert.Empty(t, cfg.AlchemyKey)
	assert.Empty(t, cfg.ZoraKey)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MORALIS_KEY", "moralis-secret")
	t.Setenv("ALCHEMY_NETWORK", "base-mainnet")
	t.Setenv("SPAZA_HTTP_TIMEOUT", "5s")

	cfg := NewConfig()
	require.NoError(t, cfg.LoadFromEnvironment())

	assert.Equal(t, "moralis-secret", cfg.MoralisKey)
	assert.Equal(t, "base-mainnet", cfg.AlchemyNetwork)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	// untouched values keep their defaults
	assert.Equal(t, "base-sepolia", cfg.MoralisChain)
	assert.Equal(t, "/assets/placeholder.png", cfg.Placeholder)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{
			name:   "empty rpc",
			mutate: func(c *Config) { c.RPCURL = "" },
			errMsg: "RPC URL",
		},
		{
			name:   "bad multi-token address",
			mutate: func(c *Config) { c.MultiTokenAddress = "0x123" },
			errMsg: "multi-token",
		},
		{
			name:   "bad single-token address",
			mutate: func(c *Config) { c.SingleTokenAddress = "nope" },
			errMsg: "single-token",
		},
		{
			name:   "relative gateway",
			mutate: func(c *Config) { c.IPFSGateway = "/ipfs/" },
			errMsg: "absolute",
		},
		{
			name:   "gateway without trailing slash",
			mutate: func(c *Config) { c.IPFSGateway = "https://dweb.link/ipfs" },
			errMsg: "end with",
		},
		{
			name:   "empty placeholder",
			mutate: func(c *Config) { c.Placeholder = "" },
			errMsg: "placeholder",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
