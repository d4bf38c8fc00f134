package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Key names for namespacing in Redis
const (
	keyPrefixClaim       = "claims:claimed:"
	keyCurrentRoot       = "claims:root:current"
	keyPaused            = "claims:ops:paused"
	keyAuthority         = "claims:authority:current"
	keyPendingAuthority  = "claims:authority:pending"
	keySchemaVersion     = "claims:metadata:schema_version"
	currentSchemaVersion = "v1"

	// Key set of claimed recipients (Redis doesn't support prefix iteration
	// natively, and SCARD gives the count in O(1))
	keySetClaimed = "claims:claimed:index"
)

// RedisClaimStore is a production-ready claim store implementation using
// Redis. Provides durable, distributed storage suitable for cloud-native
// deployments.
type RedisClaimStore struct {
	client    *redis.Client
	logger    *zap.Logger
	keyPrefix string // Custom prefix for all keys
	mu        sync.RWMutex
	closed    bool
}

// RedisConfig holds the configuration for connecting to Redis
type RedisConfig struct {
	// Address is the Redis server address (host:port)
	Address string
	// Password is the optional Redis password
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// KeyPrefix is an optional custom prefix for all keys (for multi-tenant
	// setups). If set, this prefix is prepended to all keys, e.g., "drop1:"
	// would result in keys like "drop1:claims:root:current". If empty, keys
	// use the default "claims:" prefix alone.
	KeyPrefix string
}

// NewRedisClaimStore creates a new Redis-backed claim store.
func NewRedisClaimStore(cfg *RedisConfig, logger *zap.Logger) (*RedisClaimStore, error) {
	if cfg == nil {
		return nil, fmt.Errorf("redis config cannot be nil")
	}

	if cfg.Address == "" {
		return nil, fmt.Errorf("redis address cannot be empty")
	}

	opts := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	rs := &RedisClaimStore{
		client:    client,
		logger:    logger,
		keyPrefix: cfg.KeyPrefix,
	}

	// Initialize schema version
	if err := rs.initSchema(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if cfg.KeyPrefix != "" {
		logger.Sugar().Infow("Redis claim store initialized", "address", cfg.Address, "db", cfg.DB, "key_prefix", cfg.KeyPrefix)
	} else {
		logger.Sugar().Infow("Redis claim store initialized", "address", cfg.Address, "db", cfg.DB)
	}

	return rs, nil
}

// prefixKey adds the custom key prefix (if configured) to a key
func (r *RedisClaimStore) prefixKey(key string) string {
	if r.keyPrefix == "" {
		return key
	}
	return r.keyPrefix + key
}

// initSchema initializes or validates the schema version
func (r *RedisClaimStore) initSchema(ctx context.Context) error {
	schemaKey := r.prefixKey(keySchemaVersion)

	existingVersion, err := r.client.Get(ctx, schemaKey).Result()
	if err == redis.Nil {
		// First time setup - set schema version
		return r.client.Set(ctx, schemaKey, currentSchemaVersion, 0).Err()
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	if existingVersion != currentSchemaVersion {
		return fmt.Errorf("unsupported schema version: %s (expected: %s)", existingVersion, currentSchemaVersion)
	}

	return nil
}

// GetRoot returns the current merkle root
func (r *RedisClaimStore) GetRoot() ([32]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return [32]byte{}, fmt.Errorf("claim store is closed")
	}

	ctx := context.Background()

	data, err := r.client.Get(ctx, r.prefixKey(keyCurrentRoot)).Bytes()
	if err == redis.Nil {
		return [32]byte{}, nil // No root set yet
	}
	if err != nil {
		return [32]byte{}, fmt.Errorf("failed to get root: %w", err)
	}
	if len(data) != 32 {
		return [32]byte{}, fmt.Errorf("invalid root data length: %d", len(data))
	}

	var root [32]byte
	copy(root[:], data)
	return root, nil
}

// SetRoot atomically replaces the current merkle root
func (r *RedisClaimStore) SetRoot(root [32]byte) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("claim store is closed")
	}

	ctx := context.Background()

	if err := r.client.Set(ctx, r.prefixKey(keyCurrentRoot), root[:], 0).Err(); err != nil {
		return fmt.Errorf("failed to set root: %w", err)
	}

	return nil
}

// IsClaimed reports whether a recipient's entitlement has been redeemed
func (r *RedisClaimStore) IsClaimed(recipient common.Address) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false, fmt.Errorf("claim store is closed")
	}

	ctx := context.Background()

	claimed, err := r.client.SIsMember(ctx, r.prefixKey(keySetClaimed), recipient.Hex()).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check claim for %s: %w", recipient.Hex(), err)
	}

	return claimed, nil
}

// MarkClaimed records a recipient's entitlement as redeemed
func (r *RedisClaimStore) MarkClaimed(recipient common.Address) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("claim store is closed")
	}

	ctx := context.Background()

	// Pipeline the per-recipient flag and the index set update for atomicity
	key := r.prefixKey(keyPrefixClaim + recipient.Hex())
	indexKey := r.prefixKey(keySetClaimed)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, []byte{1}, 0)
	pipe.SAdd(ctx, indexKey, recipient.Hex())

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to mark claim for %s: %w", recipient.Hex(), err)
	}

	return nil
}

// UnmarkClaimed clears a recipient's redemption record.
// Only used to roll back after a failed transfer.
func (r *RedisClaimStore) UnmarkClaimed(recipient common.Address) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("claim store is closed")
	}

	ctx := context.Background()

	key := r.prefixKey(keyPrefixClaim + recipient.Hex())
	indexKey := r.prefixKey(keySetClaimed)
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, indexKey, recipient.Hex())

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to unmark claim for %s: %w", recipient.Hex(), err)
	}

	return nil
}

// ClaimedCount returns the number of redeemed entitlements
func (r *RedisClaimStore) ClaimedCount() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return 0, fmt.Errorf("claim store is closed")
	}

	ctx := context.Background()

	count, err := r.client.SCard(ctx, r.prefixKey(keySetClaimed)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count claims: %w", err)
	}

	return count, nil
}

// IsPaused reports whether claim processing is suspended
func (r *RedisClaimStore) IsPaused() (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return false, fmt.Errorf("claim store is closed")
	}

	ctx := context.Background()

	val, err := r.client.Get(ctx, r.prefixKey(keyPaused)).Result()
	if err == redis.Nil {
		return false, nil // Never paused
	}
	if err != nil {
		return false, fmt.Errorf("failed to get pause flag: %w", err)
	}

	return val == "1", nil
}

// SetPaused sets the pause flag
func (r *RedisClaimStore) SetPaused(paused bool) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("claim store is closed")
	}

	ctx := context.Background()

	val := "0"
	if paused {
		val = "1"
	}

	if err := r.client.Set(ctx, r.prefixKey(keyPaused), val, 0).Err(); err != nil {
		return fmt.Errorf("failed to set pause flag: %w", err)
	}

	return nil
}

// GetAuthority returns the administrative authority address
func (r *RedisClaimStore) GetAuthority() (common.Address, error) {
	return r.getAddress(keyAuthority)
}

// SetAuthority replaces the administrative authority address
func (r *RedisClaimStore) SetAuthority(authority common.Address) error {
	return r.setAddress(keyAuthority, authority)
}

// GetPendingAuthority returns the nominated-but-unconfirmed authority
func (r *RedisClaimStore) GetPendingAuthority() (common.Address, error) {
	return r.getAddress(keyPendingAuthority)
}

// SetPendingAuthority records a nominated authority
func (r *RedisClaimStore) SetPendingAuthority(nominee common.Address) error {
	return r.setAddress(keyPendingAuthority, nominee)
}

func (r *RedisClaimStore) getAddress(key string) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return common.Address{}, fmt.Errorf("claim store is closed")
	}

	ctx := context.Background()

	data, err := r.client.Get(ctx, r.prefixKey(key)).Bytes()
	if err == redis.Nil {
		return common.Address{}, nil // Not set
	}
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if len(data) != common.AddressLength {
		return common.Address{}, fmt.Errorf("invalid address data length: %d", len(data))
	}

	return common.BytesToAddress(data), nil
}

func (r *RedisClaimStore) setAddress(key string, addr common.Address) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("claim store is closed")
	}

	ctx := context.Background()

	if err := r.client.Set(ctx, r.prefixKey(key), addr.Bytes(), 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}

	return nil
}

// Close shuts down the claim store
func (r *RedisClaimStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil // Already closed, idempotent
	}
	r.closed = true

	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	r.logger.Sugar().Info("Redis claim store closed")
	return nil
}

// HealthCheck verifies the claim store is operational
func (r *RedisClaimStore) HealthCheck() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return fmt.Errorf("claim store is closed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	return nil
}
