package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func validConfig() *DistributorConfig {
	return &DistributorConfig{
		Port:            8080,
		Authority:       "0x1111111111111111111111111111111111111111",
		StoreType:       StoreTypeMemory,
		LedgerMode:      LedgerModeMemory,
		LedgerPool:      "1000000",
		ClaimsPerSecond: 10,
		ClaimBurst:      20,
	}
}

func TestDistributorConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DistributorConfig)
		wantErr string
	}{
		{
			name:   "valid memory config",
			mutate: func(c *DistributorConfig) {},
		},
		{
			name: "valid badger config",
			mutate: func(c *DistributorConfig) {
				c.StoreType = StoreTypeBadger
				c.BadgerDir = "/tmp/claims"
			},
		},
		{
			name: "valid redis config",
			mutate: func(c *DistributorConfig) {
				c.StoreType = StoreTypeRedis
				c.Redis = &RedisConfig{Addr: "localhost:6379", DB: 0}
			},
		},
		{
			name: "valid erc20 config",
			mutate: func(c *DistributorConfig) {
				c.LedgerMode = LedgerModeERC20
				c.ERC20 = &ERC20Config{
					RpcUrl:       "http://localhost:8545",
					ChainID:      ChainId_EthereumAnvil,
					TokenAddress: "0x2222222222222222222222222222222222222222",
					PrivateKey:   "0x" + "11" + "22222222222222222222222222222222222222222222222222222222222222",
				}
			},
		},
		{
			name:    "port out of range",
			mutate:  func(c *DistributorConfig) { c.Port = 0 },
			wantErr: "port must be between",
		},
		{
			name:    "malformed authority",
			mutate:  func(c *DistributorConfig) { c.Authority = "not-an-address" },
			wantErr: "invalid authority address",
		},
		{
			name:    "truncated merkle root",
			mutate:  func(c *DistributorConfig) { c.MerkleRoot = "0x1234" },
			wantErr: "merkle root must be 32 bytes",
		},
		{
			name:    "unknown store type",
			mutate:  func(c *DistributorConfig) { c.StoreType = "dynamo" },
			wantErr: "unsupported store type",
		},
		{
			name:    "badger without directory",
			mutate:  func(c *DistributorConfig) { c.StoreType = StoreTypeBadger },
			wantErr: "badger store requires",
		},
		{
			name: "redis without address",
			mutate: func(c *DistributorConfig) {
				c.StoreType = StoreTypeRedis
				c.Redis = &RedisConfig{DB: 0}
			},
			wantErr: "redis",
		},
		{
			name: "redis DB out of range",
			mutate: func(c *DistributorConfig) {
				c.StoreType = StoreTypeRedis
				c.Redis = &RedisConfig{Addr: "localhost:6379", DB: 16}
			},
			wantErr: "redis",
		},
		{
			name:    "unknown ledger mode",
			mutate:  func(c *DistributorConfig) { c.LedgerMode = "paper" },
			wantErr: "unsupported ledger mode",
		},
		{
			name:    "memory ledger without pool",
			mutate:  func(c *DistributorConfig) { c.LedgerPool = "" },
			wantErr: "pool amount",
		},
		{
			name: "erc20 without settings",
			mutate: func(c *DistributorConfig) {
				c.LedgerMode = LedgerModeERC20
			},
			wantErr: "erc20 ledger requires",
		},
		{
			name: "erc20 with short private key",
			mutate: func(c *DistributorConfig) {
				c.LedgerMode = LedgerModeERC20
				c.ERC20 = &ERC20Config{
					RpcUrl:       "http://localhost:8545",
					ChainID:      ChainId_EthereumAnvil,
					TokenAddress: "0x2222222222222222222222222222222222222222",
					PrivateKey:   "0x1234",
				}
			},
			wantErr: "privateKey",
		},
		{
			name:    "zero claim rate",
			mutate:  func(c *DistributorConfig) { c.ClaimsPerSecond = 0 },
			wantErr: "claims per second",
		},
		{
			name:    "zero claim burst",
			mutate:  func(c *DistributorConfig) { c.ClaimBurst = 0 },
			wantErr: "claim burst",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				require.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
