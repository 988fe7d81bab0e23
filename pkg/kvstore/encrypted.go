package kvstore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the required length of the master key.
	KeySize = 32

	// hkdfInfo gives derived keys domain separation from other uses of the
	// same master key.
	hkdfInfo = "biztrack-kvstore-v1"
)

// Encrypt wraps store so values are sealed with AES-256-GCM before they
// reach it. Keys are stored in clear. The returned store supports Batch
// exactly when the wrapped one does.
func Encrypt(store Store, masterKey []byte) (Store, error) {
	if len(masterKey) != KeySize {
		return nil, ErrInvalidKey
	}

	key := make([]byte, KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, masterKey, nil, []byte(hkdfInfo)), key); err != nil {
		return nil, errors.Join(ErrEncryption, err)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Join(ErrEncryption, err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errors.Join(ErrEncryption, err)
	}

	enc := &encryptedStore{inner: store, aead: aead}
	if b, ok := store.(Batch); ok {
		return &encryptedBatchStore{encryptedStore: enc, batch: b}, nil
	}
	return enc, nil
}

// GenerateKey returns a random master key suitable for Encrypt.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

type encryptedStore struct {
	inner Store
	aead  cipher.AEAD
}

func (s *encryptedStore) Get(ctx context.Context, key string) (string, error) {
	sealed, err := s.inner.Get(ctx, key)
	if err != nil {
		return "", err
	}
	return s.open(key, sealed)
}

func (s *encryptedStore) Set(ctx context.Context, key, value string) error {
	sealed, err := s.seal(key, value)
	if err != nil {
		return err
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *encryptedStore) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

func (s *encryptedStore) Close() error {
	return Close(s.inner)
}

// seal binds the ciphertext to key through the additional data, so values
// cannot be swapped between keys. Output: base64(nonce || ciphertext || tag).
func (s *encryptedStore) seal(key, value string) (string, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Join(ErrEncryption, err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return base64.StdEncoding.EncodeToString(out), nil
}

func (s *encryptedStore) open(key, sealed string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(sealed)
	if err != nil {
		return "", errors.Join(ErrDecryption, err)
	}
	ns := s.aead.NonceSize()
	if len(raw) < ns {
		return "", ErrDecryption
	}
	plain, err := s.aead.Open(nil, raw[:ns], raw[ns:], []byte(key))
	if err != nil {
		return "", errors.Join(ErrDecryption, err)
	}
	return string(plain), nil
}

type encryptedBatchStore struct {
	*encryptedStore
	batch Batch
}

func (s *encryptedBatchStore) SetMany(ctx context.Context, values map[string]string) error {
	sealed := make(map[string]string, len(values))
	for k, v := range values {
		sv, err := s.seal(k, v)
		if err != nil {
			return err
		}
		sealed[k] = sv
	}
	return s.batch.SetMany(ctx, sealed)
}

func (s *encryptedBatchStore) DeleteMany(ctx context.Context, keys ...string) error {
	return s.batch.DeleteMany(ctx, keys...)
}
