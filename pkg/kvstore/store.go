package kvstore

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Store is a string key-value store that survives process restarts.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns ErrNotFound for missing keys.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Batch is implemented by stores that can write or remove several keys
// atomically: after a successful call all changes are visible, after a
// failed call none are.
type Batch interface {
	SetMany(ctx context.Context, values map[string]string) error
	DeleteMany(ctx context.Context, keys ...string) error
}

// Driver names accepted by Open.
const (
	DriverFile   = "file"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config selects and configures the storage backend.
type Config struct {
	Driver string `env:"BIZTRACK_STORAGE_DRIVER" envDefault:"file"`
	Path   string `env:"BIZTRACK_STORAGE_PATH" envDefault:".biztrack/session.json"`
	// EncryptionKey is a hex-encoded 32-byte key. When set, values are
	// encrypted at rest.
	EncryptionKey string `env:"BIZTRACK_STORAGE_KEY"`
	Redis         RedisConfig
}

// RedisConfig configures the redis driver.
type RedisConfig struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	KeyPrefix      string        `env:"REDIS_KEY_PREFIX" envDefault:"biztrack:"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"10s"`
}

// Open creates the store described by cfg. Close it with Close when done.
func Open(ctx context.Context, cfg Config) (Store, error) {
	var (
		store Store
		err   error
	)

	switch strings.ToLower(cfg.Driver) {
	case DriverFile, "":
		store, err = NewFileStore(cfg.Path)
	case DriverRedis:
		client, cerr := ConnectRedis(ctx, cfg.Redis)
		if cerr != nil {
			return nil, cerr
		}
		store = NewRedisStore(client, WithKeyPrefix(cfg.Redis.KeyPrefix))
	case DriverMemory:
		store = NewMemoryStore()
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if cfg.EncryptionKey == "" {
		return store, nil
	}

	key, err := hex.DecodeString(cfg.EncryptionKey)
	if err != nil {
		_ = Close(store)
		return nil, errors.Join(ErrInvalidKey, err)
	}
	enc, err := Encrypt(store, key)
	if err != nil {
		_ = Close(store)
		return nil, err
	}
	return enc, nil
}

// Close releases resources held by store, if any.
func Close(store Store) error {
	if c, ok := store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
