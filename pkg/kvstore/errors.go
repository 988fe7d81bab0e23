package kvstore

import "errors"

var (
	ErrNotFound       = errors.New("key not found")
	ErrEmptyKey       = errors.New("key must not be empty")
	ErrUnknownDriver  = errors.New("unknown storage driver")
	ErrInvalidPath    = errors.New("storage path is required")
	ErrCorruptedFile  = errors.New("storage file is corrupted")
	ErrInvalidKey     = errors.New("invalid encryption key: must be 32 bytes")
	ErrEncryption     = errors.New("encryption failed")
	ErrDecryption     = errors.New("decryption failed")
	ErrRedisNotReady  = errors.New("redis did not become ready within the given time period")
	ErrRedisURL       = errors.New("failed to parse redis connection string")
	ErrStoreOperation = errors.New("storage operation failed")
)
