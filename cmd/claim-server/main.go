package main

import (
	"fmt"
	"log"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/Layr-Labs/eigenx-claims-go/pkg/access"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/claims"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/config"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/distributor"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/ledger"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/ledger/erc20"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/ledger/memoryLedger"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/logger"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/persistence"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/persistence/badger"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-claims-go/pkg/persistence/redis"
)

func main() {
	app := &cli.App{
		Name:  "claim-server",
		Usage: "Merkle-proof token distribution server",
		Description: `A token distribution server that pays out entitlements against a merkle root.

This server implements:
- Merkle proof verification for (recipient, amount) entitlements
- At-most-once redemption with durable records
- Root rotation for successive distribution waves
- Two-phase administrative authority handoff`,
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Value:   8080,
				Usage:   "HTTP server port",
				EnvVars: []string{config.EnvClaimsPort},
			},
			&cli.StringFlag{
				Name:     "authority",
				Aliases:  []string{"auth"},
				Usage:    "Bootstrap administrative authority address (ignored once persisted)",
				EnvVars:  []string{config.EnvClaimsAuthority},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "merkle-root",
				Aliases: []string{"root"},
				Usage:   "Initial merkle root as 0x-prefixed hex (a persisted root wins)",
				EnvVars: []string{config.EnvClaimsMerkleRoot},
			},
			&cli.StringFlag{
				Name:    "store-type",
				Aliases: []string{"store"},
				Value:   string(config.StoreTypeBadger),
				Usage:   "Persistence backend: memory, badger, redis",
				EnvVars: []string{config.EnvClaimsStoreType},
			},
			&cli.StringFlag{
				Name:    "badger-dir",
				Value:   "./claims-data",
				Usage:   "BadgerDB data directory (badger store only)",
				EnvVars: []string{config.EnvClaimsBadgerDir},
			},
			&cli.StringFlag{
				Name:    "redis-addr",
				Usage:   "Redis server address host:port (redis store only)",
				EnvVars: []string{config.EnvClaimsRedisAddr},
			},
			&cli.StringFlag{
				Name:    "redis-password",
				Usage:   "Redis password (redis store only)",
				EnvVars: []string{config.EnvClaimsRedisPassword},
			},
			&cli.IntFlag{
				Name:    "redis-db",
				Value:   0,
				Usage:   "Redis database number 0-15 (redis store only)",
				EnvVars: []string{config.EnvClaimsRedisDB},
			},
			&cli.StringFlag{
				Name:    "ledger-mode",
				Value:   string(config.LedgerModeMemory),
				Usage:   "Payout mode: memory, erc20",
				EnvVars: []string{config.EnvClaimsLedgerMode},
			},
			&cli.StringFlag{
				Name:    "ledger-pool",
				Value:   "0",
				Usage:   "In-memory payout pool as a decimal amount (memory ledger only)",
				EnvVars: []string{config.EnvClaimsLedgerPool},
			},
			&cli.StringFlag{
				Name:    "rpc-url",
				Aliases: []string{"rpc"},
				Value:   "http://localhost:8545",
				Usage:   "Ethereum RPC endpoint URL (erc20 ledger only)",
				EnvVars: []string{config.EnvClaimsRPCURL},
			},
			&cli.Uint64Flag{
				Name:    "chain-id",
				Aliases: []string{"chain"},
				Usage:   fmt.Sprintf("Ethereum chain ID: %s (erc20 ledger only)", config.GetSupportedChainIDsString()),
				EnvVars: []string{config.EnvClaimsChainID},
			},
			&cli.StringFlag{
				Name:    "token-address",
				Aliases: []string{"token"},
				Usage:   "ERC20 token contract address (erc20 ledger only)",
				EnvVars: []string{config.EnvClaimsTokenAddress},
			},
			&cli.StringFlag{
				Name:    "private-key",
				Aliases: []string{"key"},
				Usage:   "Hex private key holding the distributable balance (erc20 ledger only)",
				EnvVars: []string{config.EnvClaimsPrivateKey},
			},
			&cli.Float64Flag{
				Name:    "rate-per-second",
				Value:   50,
				Usage:   "Global rate limit for POST /claim",
				EnvVars: []string{config.EnvClaimsRatePerSecond},
			},
			&cli.IntFlag{
				Name:    "rate-burst",
				Value:   100,
				Usage:   "Burst size for the claim rate limit",
				EnvVars: []string{config.EnvClaimsRateBurst},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Usage:   "Enable verbose logging",
				EnvVars: []string{config.EnvClaimsVerbose},
			},
		},
		Action: runClaimServer,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func runClaimServer(c *cli.Context) error {
	loggerConfig := &logger.LoggerConfig{
		Debug: c.Bool("verbose"),
	}
	l, err := logger.NewLogger(loggerConfig)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = l.Sync() }()

	cfg, err := parseDistributorConfig(c)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := buildStore(cfg, l)
	if err != nil {
		return fmt.Errorf("failed to open claim store: %w", err)
	}
	defer func() { _ = store.Close() }()

	tokenLedger, sweeper, err := buildLedger(cfg, l)
	if err != nil {
		return fmt.Errorf("failed to build token ledger: %w", err)
	}

	accessController, err := access.NewController(store, common.HexToAddress(cfg.Authority), l)
	if err != nil {
		return fmt.Errorf("failed to create access controller: %w", err)
	}

	if err := seedRoot(cfg, store, l); err != nil {
		return err
	}

	claimLedger := claims.NewClaimLedger(store, tokenLedger, accessController, l)
	d := distributor.NewDistributor(claimLedger, accessController, store, sweeper, l)
	server := distributor.NewServer(d, cfg.Port, cfg.ClaimsPerSecond, cfg.ClaimBurst)

	if err := server.Start(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	l.Sugar().Infow("Claim server running",
		"port", cfg.Port,
		"store", cfg.StoreType,
		"ledger", cfg.LedgerMode,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	l.Sugar().Infow("Shutting down", "signal", sig.String())
	return server.Stop()
}

func parseDistributorConfig(c *cli.Context) (*config.DistributorConfig, error) {
	cfg := &config.DistributorConfig{
		Port:            c.Int("port"),
		Authority:       c.String("authority"),
		MerkleRoot:      c.String("merkle-root"),
		StoreType:       config.StoreType(c.String("store-type")),
		BadgerDir:       c.String("badger-dir"),
		LedgerMode:      config.LedgerMode(c.String("ledger-mode")),
		LedgerPool:      c.String("ledger-pool"),
		ClaimsPerSecond: c.Float64("rate-per-second"),
		ClaimBurst:      c.Int("rate-burst"),
		Verbose:         c.Bool("verbose"),
		Debug:           c.Bool("verbose"),
	}

	if cfg.StoreType == config.StoreTypeRedis {
		cfg.Redis = &config.RedisConfig{
			Addr:     c.String("redis-addr"),
			Password: c.String("redis-password"),
			DB:       c.Int("redis-db"),
		}
	}

	if cfg.LedgerMode == config.LedgerModeERC20 {
		cfg.ERC20 = &config.ERC20Config{
			RpcUrl:       c.String("rpc-url"),
			ChainID:      config.ChainId(c.Uint64("chain-id")),
			TokenAddress: c.String("token-address"),
			PrivateKey:   c.String("private-key"),
		}
	}

	return cfg, nil
}

func buildStore(cfg *config.DistributorConfig, l *zap.Logger) (persistence.IClaimStore, error) {
	switch cfg.StoreType {
	case config.StoreTypeMemory:
		return memory.NewMemoryClaimStore(), nil
	case config.StoreTypeBadger:
		return badger.NewBadgerClaimStore(cfg.BadgerDir, l)
	case config.StoreTypeRedis:
		return redis.NewRedisClaimStore(&redis.RedisConfig{
			Address:  cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, l)
	default:
		return nil, fmt.Errorf("unsupported store type: %s", cfg.StoreType)
	}
}

func buildLedger(cfg *config.DistributorConfig, l *zap.Logger) (ledger.ITokenLedger, ledger.IForeignAssetSweeper, error) {
	switch cfg.LedgerMode {
	case config.LedgerModeMemory:
		pool, ok := new(big.Int).SetString(cfg.LedgerPool, 10)
		if !ok {
			return nil, nil, fmt.Errorf("ledger pool must be a decimal integer, got %q", cfg.LedgerPool)
		}
		l.Sugar().Warnw("Using in-memory token ledger; payouts are not durable")
		return memoryLedger.NewMemoryLedger(pool), nil, nil

	case config.LedgerModeERC20:
		client, err := ethclient.Dial(cfg.ERC20.RpcUrl)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to RPC at %s: %w", cfg.ERC20.RpcUrl, err)
		}
		chainID := new(big.Int).SetUint64(uint64(cfg.ERC20.ChainID))
		erc20Ledger, err := erc20.NewERC20Ledger(
			client,
			common.HexToAddress(cfg.ERC20.TokenAddress),
			cfg.ERC20.PrivateKey,
			chainID,
			l,
		)
		if err != nil {
			return nil, nil, err
		}
		return erc20Ledger, erc20Ledger, nil

	default:
		return nil, nil, fmt.Errorf("unsupported ledger mode: %s", cfg.LedgerMode)
	}
}

// seedRoot installs the configured initial root only when the store has none
// yet, so a restart never silently rewinds a rotated root.
func seedRoot(cfg *config.DistributorConfig, store persistence.IClaimStore, l *zap.Logger) error {
	if cfg.MerkleRoot == "" {
		return nil
	}

	current, err := store.GetRoot()
	if err != nil {
		return fmt.Errorf("failed to read persisted root: %w", err)
	}
	if current != ([32]byte{}) {
		l.Sugar().Infow("Store already holds a merkle root; ignoring configured root",
			"persisted", "0x"+common.Bytes2Hex(current[:]),
		)
		return nil
	}

	decoded := common.FromHex(cfg.MerkleRoot)
	if len(decoded) != 32 {
		return fmt.Errorf("merkle root must decode to 32 bytes, got %q", cfg.MerkleRoot)
	}

	var root [32]byte
	copy(root[:], decoded)
	if err := store.SetRoot(root); err != nil {
		return fmt.Errorf("failed to seed merkle root: %w", err)
	}

	l.Sugar().Infow("Seeded initial merkle root", "root", strings.ToLower(cfg.MerkleRoot))
	return nil
}
