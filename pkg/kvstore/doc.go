// Package kvstore provides the durable string key-value storage the BizTrack
// client persists its session in.
//
// Store is the minimal get/set/delete contract. Backends that can change
// several keys atomically also implement Batch; callers that need
// all-or-nothing writes should type-assert for it.
//
// Backends:
//
//   - FileStore: one JSON document on the device, replaced atomically via
//     temp file and rename.
//   - RedisStore: go-redis client, batches run inside MULTI/EXEC.
//   - MemoryStore: process memory, for tests.
//
// Encrypt decorates any Store with AES-256-GCM encryption of values using a
// key derived from a 32-byte master key with HKDF-SHA256.
//
// # Usage
//
//	var cfg kvstore.Config
//	config.MustLoad(&cfg)
//
//	store, err := kvstore.Open(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer kvstore.Close(store)
package kvstore
