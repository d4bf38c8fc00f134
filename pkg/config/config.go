package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for claim server configuration
const (
	EnvClaimsPort          = "CLAIMS_PORT"
	EnvClaimsAuthority     = "CLAIMS_AUTHORITY_ADDRESS"
	EnvClaimsMerkleRoot    = "CLAIMS_MERKLE_ROOT"
	EnvClaimsStoreType     = "CLAIMS_STORE_TYPE"
	EnvClaimsBadgerDir     = "CLAIMS_BADGER_DIR"
	EnvClaimsRedisAddr     = "CLAIMS_REDIS_ADDR"
	EnvClaimsRedisPassword = "CLAIMS_REDIS_PASSWORD"
	EnvClaimsRedisDB       = "CLAIMS_REDIS_DB"
	EnvClaimsLedgerMode    = "CLAIMS_LEDGER_MODE"
	EnvClaimsLedgerPool    = "CLAIMS_LEDGER_POOL"
	EnvClaimsRPCURL        = "CLAIMS_RPC_URL"
	EnvClaimsChainID       = "CLAIMS_CHAIN_ID"
	EnvClaimsTokenAddress  = "CLAIMS_TOKEN_ADDRESS"
	EnvClaimsPrivateKey    = "CLAIMS_PRIVATE_KEY"
	EnvClaimsRatePerSecond = "CLAIMS_RATE_PER_SECOND"
	EnvClaimsRateBurst     = "CLAIMS_RATE_BURST"
	EnvClaimsVerbose       = "CLAIMS_VERBOSE"
)

// StoreType selects the persistence backend for redemption records.
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeBadger StoreType = "badger"
	StoreTypeRedis  StoreType = "redis"
)

// LedgerMode selects how claimed tokens are paid out.
type LedgerMode string

const (
	// LedgerModeMemory pays out of an in-process pool. Development only.
	LedgerModeMemory LedgerMode = "memory"
	// LedgerModeERC20 issues on-chain ERC20 transfers.
	LedgerModeERC20 LedgerMode = "erc20"
)

type ChainId uint

const (
	ChainId_EthereumMainnet ChainId = 1
	ChainId_EthereumSepolia ChainId = 11155111
	ChainId_EthereumAnvil   ChainId = 31337
)

// GetSupportedChainIDsString returns supported chain IDs as strings for CLI help
func GetSupportedChainIDsString() string {
	return fmt.Sprintf("%d (mainnet), %d (sepolia), %d (anvil)",
		ChainId_EthereumMainnet, ChainId_EthereumSepolia, ChainId_EthereumAnvil)
}

// RedisConfig holds the connection settings for the redis store backend.
type RedisConfig struct {
	Addr      string `json:"addr"`
	Password  string `json:"password"`
	DB        int    `json:"db"`
	KeyPrefix string `json:"key_prefix"`
}

func (rc *RedisConfig) Validate() error {
	var allErrors field.ErrorList
	if rc.Addr == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("addr"), "redis address is required"))
	}
	if rc.DB < 0 || rc.DB > 15 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("db"), rc.DB, "redis DB must be between 0 and 15"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// ERC20Config holds the on-chain settings for the erc20 ledger mode.
type ERC20Config struct {
	RpcUrl       string  `json:"rpc_url"`
	ChainID      ChainId `json:"chain_id"`
	TokenAddress string  `json:"token_address"`
	PrivateKey   string  `json:"-"`
}

func (ec *ERC20Config) Validate() error {
	var allErrors field.ErrorList
	if ec.RpcUrl == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("rpcUrl"), "RPC URL is required"))
	}
	if !common.IsHexAddress(ec.TokenAddress) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("tokenAddress"), ec.TokenAddress, "token address must be a hex address"))
	}
	key := strings.TrimPrefix(ec.PrivateKey, "0x")
	if len(key) != 64 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("privateKey"), "<redacted>", "private key must be 32 bytes (64 hex chars)"))
	}
	if ec.ChainID == 0 {
		allErrors = append(allErrors, field.Required(field.NewPath("chainId"), "chain ID is required"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}

// DistributorConfig represents the complete configuration for a claim server
type DistributorConfig struct {
	Port int `json:"port"`

	// Bootstrap authority; ignored once an authority is persisted
	Authority string `json:"authority"`

	// Initial merkle root as 0x-prefixed hex. Optional: a root already
	// persisted in the store wins on restart.
	MerkleRoot string `json:"merkle_root"`

	// Persistence
	StoreType StoreType    `json:"store_type"`
	BadgerDir string       `json:"badger_dir"`
	Redis     *RedisConfig `json:"redis,omitempty"`

	// Payout
	LedgerMode LedgerMode   `json:"ledger_mode"`
	LedgerPool string       `json:"ledger_pool"`
	ERC20      *ERC20Config `json:"erc20,omitempty"`

	// Rate limiting for POST /claim
	ClaimsPerSecond float64 `json:"claims_per_second"`
	ClaimBurst      int     `json:"claim_burst"`

	// Operational settings
	Debug   bool `json:"debug"`
	Verbose bool `json:"verbose"`
}

// Validate validates the distributor configuration
func (c *DistributorConfig) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1-65535, got %d", c.Port)
	}

	if c.Authority != "" && !common.IsHexAddress(c.Authority) {
		return fmt.Errorf("invalid authority address format: %s", c.Authority)
	}

	if c.MerkleRoot != "" {
		root := strings.TrimPrefix(c.MerkleRoot, "0x")
		if len(root) != 64 {
			return fmt.Errorf("merkle root must be 32 bytes (64 hex chars), got %d chars", len(root))
		}
	}

	switch c.StoreType {
	case StoreTypeMemory:
	case StoreTypeBadger:
		if c.BadgerDir == "" {
			return fmt.Errorf("badger store requires a data directory via %s", EnvClaimsBadgerDir)
		}
	case StoreTypeRedis:
		if c.Redis == nil {
			return fmt.Errorf("redis store requires connection settings")
		}
		if err := c.Redis.Validate(); err != nil {
			return fmt.Errorf("invalid redis config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported store type %q, must be one of: memory, badger, redis", c.StoreType)
	}

	switch c.LedgerMode {
	case LedgerModeMemory:
		if c.LedgerPool == "" {
			return fmt.Errorf("memory ledger requires a pool amount via %s", EnvClaimsLedgerPool)
		}
	case LedgerModeERC20:
		if c.ERC20 == nil {
			return fmt.Errorf("erc20 ledger requires on-chain settings")
		}
		if err := c.ERC20.Validate(); err != nil {
			return fmt.Errorf("invalid erc20 config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported ledger mode %q, must be one of: memory, erc20", c.LedgerMode)
	}

	if c.ClaimsPerSecond <= 0 {
		return fmt.Errorf("claims per second must be positive, got %f", c.ClaimsPerSecond)
	}
	if c.ClaimBurst < 1 {
		return fmt.Errorf("claim burst must be at least 1, got %d", c.ClaimBurst)
	}

	return nil
}
