package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"

	"github.com/aretw0/tessera/pkg/adapters/memory"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/persistence/middleware"
	"github.com/aretw0/tessera/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func secretPage(text string) domain.Schema {
	s := domain.NewSchema(domain.Node{ID: "hero", Type: "Hero", Props: map[string]any{"title": text}})
	s.Metadata = &domain.Metadata{Name: "Draft"}
	return s
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	key := generateKey(t)
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
	secureStore := mw(underlyingStore)

	ctx := context.Background()
	pageRef := "tenant/draft"

	if err := secureStore.Save(ctx, pageRef, secretPage("my-secret-sauce")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stored, err := underlyingStore.Load(ctx, pageRef)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if stored.Kind != middleware.KindEncrypted {
		t.Fatalf("Expected envelope kind, got %q", stored.Kind)
	}
	if stored.Metadata != nil {
		t.Fatal("Expected metadata to be hidden")
	}
	if len(stored.Components) != 1 || stored.Components[0].ID != "__encrypted__" {
		t.Fatalf("Expected a single envelope node, got %+v", stored.Components)
	}

	loaded, err := secureStore.Load(ctx, pageRef)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loaded.Components[0].Props["title"] != "my-secret-sauce" {
		t.Errorf("Expected 'my-secret-sauce', got %v", loaded.Components[0].Props["title"])
	}
	if loaded.Metadata == nil || loaded.Metadata.Name != "Draft" {
		t.Errorf("Expected metadata to survive, got %+v", loaded.Metadata)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	pageRef := "rotation-page"

	if err := secureStoreOld.Save(ctx, pageRef, secretPage("encrypted-with-old-key")); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureStoreNew := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, pageRef)
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded.Components[0].Props["title"] != "encrypted-with-old-key" {
		t.Errorf("Decryption with fallback key failed")
	}

	if err := secureStoreNew.Save(ctx, pageRef, secretPage("encrypted-with-new-key")); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	if _, err := secureStoreOld.Load(ctx, pageRef); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RefusesPlainSchema(t *testing.T) {
	underlyingStore := NewMockStore()
	ctx := context.Background()
	if err := underlyingStore.Save(ctx, "plain", secretPage("visible")); err != nil {
		t.Fatal(err)
	}

	secureStore := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)
	if _, err := secureStore.Load(ctx, "plain"); err == nil {
		t.Error("Expected plain schema to be refused")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("Expected panic for invalid key size")
		}
	}()
	middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	mw := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	ports.RunSchemaStoreContract(t, mw(memory.NewStore()))
}
