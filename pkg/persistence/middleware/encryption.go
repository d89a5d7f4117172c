package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/ports"
)

// KindEncrypted marks an envelope schema written by the encryption middleware.
const KindEncrypted = "encrypted"

const envelopeID = "__encrypted__"

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.SchemaStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that encrypts page schemas at rest
// using AES-GCM. The stored value is an envelope schema with a single opaque node.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.SchemaStore) ports.SchemaStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, pageRef string, schema domain.Schema) error {
	plainText, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt schema: %w", err)
	}

	// Metadata and node ids stay hidden too; only the kind is readable.
	envelope := domain.Schema{
		Kind: KindEncrypted,
		Components: []domain.Node{{
			ID:    envelopeID,
			Props: map[string]any{"data": base64.StdEncoding.EncodeToString(ciphertext)},
		}},
	}
	return m.next.Save(ctx, pageRef, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, pageRef string) (domain.Schema, error) {
	envelope, err := m.next.Load(ctx, pageRef)
	if err != nil {
		return domain.Schema{}, err
	}

	// Plain schemas are refused rather than passed through.
	if envelope.Kind != KindEncrypted || len(envelope.Components) != 1 || envelope.Components[0].ID != envelopeID {
		return domain.Schema{}, errors.New("schema is missing encrypted data envelope")
	}
	encoded, ok := envelope.Components[0].Props["data"].(string)
	if !ok {
		return domain.Schema{}, errors.New("schema is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return domain.Schema{}, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return domain.Schema{}, fmt.Errorf("failed to decrypt schema: %w", err)
	}

	var schema domain.Schema
	if err := json.Unmarshal(plainText, &schema); err != nil {
		return domain.Schema{}, fmt.Errorf("failed to unmarshal decrypted schema: %w", err)
	}
	return schema, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, pageRef string) error {
	return m.next.Delete(ctx, pageRef)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	for _, key := range append([][]byte{activeKey}, fallbackKeys...) {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, sealed, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
