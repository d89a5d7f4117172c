package cli

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/tessera/internal/config"
	"github.com/aretw0/tessera/internal/logging"
	"github.com/aretw0/tessera/pkg/domain"
	"github.com/aretw0/tessera/pkg/editor"
	"github.com/aretw0/tessera/pkg/persistence/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRuntime(t *testing.T, mutate func(*config.Config)) *Runtime {
	t.Helper()
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())
	rt, err := NewRuntime(cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Close(context.Background()) })
	return rt
}

// roundTrip creates a page, edits it, closes the session and reads it back.
func roundTrip(t *testing.T, rt *Runtime) {
	t.Helper()
	ctx := context.Background()
	_, err := rt.Engine.CreatePage(ctx, "acme/home", "landing")
	require.NoError(t, err)
	_, err = rt.Engine.Sessions().Do(ctx, "acme/home", func(s *editor.Session) (editor.View, error) {
		return s.PatchProps("hero", map[string]any{"title": "Stored"})
	})
	require.NoError(t, err)
	require.NoError(t, rt.Engine.Sessions().Close(ctx, "acme/home"))

	tree, err := rt.Engine.Public(ctx, "acme/home")
	require.NoError(t, err)
	hero, ok := tree.Find("hero")
	require.True(t, ok)
	assert.Equal(t, "Stored", hero.Children[0].Text)
}

func TestNewRuntime_Drivers(t *testing.T) {
	redis := miniredis.RunT(t)

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"memory", nil},
		{"file", func(c *config.Config) {
			c.Store.Driver = config.DriverFile
			c.Store.Path = t.TempDir()
		}},
		{"sqlite", func(c *config.Config) {
			c.Store.Driver = config.DriverSQLite
			c.Store.DSN = filepath.Join(t.TempDir(), "pages.db")
		}},
		{"redis with locking", func(c *config.Config) {
			c.Store.Driver = config.DriverRedis
			c.Store.Redis.Addr = redis.Addr()
			c.Store.Redis.Prefix = "test:"
			c.Locking = true
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roundTrip(t, newRuntime(t, tt.mutate))
		})
	}

	assert.True(t, redis.Exists("test:acme/home"))
}

func TestNewRuntime_Encryption(t *testing.T) {
	dir := t.TempDir()
	key := base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	rt := newRuntime(t, func(c *config.Config) {
		c.Store.Driver = config.DriverFile
		c.Store.Path = dir
		c.Store.EncryptionKey = key
	})
	roundTrip(t, rt)

	raw, err := os.ReadFile(filepath.Join(dir, "acme%2Fhome.json"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), middleware.KindEncrypted)
	assert.NotContains(t, string(raw), "Stored")
}

func TestNewRuntime_ValidationAndMetrics(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t, nil)
	require.NotNil(t, rt.Metrics)

	bad := domain.NewSchema(domain.Node{ID: "hero", Type: "Hero", Props: map[string]any{"title": 42}})
	err := rt.Engine.Store().Save(ctx, "bad", bad)
	assert.ErrorIs(t, err, middleware.ErrInvalidSchema)

	count, err := testutil.GatherAndCount(rt.Metrics, "tessera_store_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewRuntime_MetricsDisabled(t *testing.T) {
	rt := newRuntime(t, func(c *config.Config) {
		c.Metrics = false
		c.Store.Validate = false
	})
	assert.Nil(t, rt.Metrics)

	bad := domain.NewSchema(domain.Node{ID: "hero", Type: "Hero", Props: map[string]any{"title": 42}})
	assert.NoError(t, rt.Engine.Store().Save(context.Background(), "bad", bad), "validation is off")
}

func TestNewRuntime_Autosave(t *testing.T) {
	ctx := context.Background()
	rt := newRuntime(t, func(c *config.Config) { c.Autosave = "@every 1h" })
	require.NotNil(t, rt.Autosaver)
	rt.Start()

	_, err := rt.Engine.CreatePage(ctx, "p", "about")
	require.NoError(t, err)
	_, err = rt.Engine.Sessions().Do(ctx, "p", func(s *editor.Session) (editor.View, error) {
		return s.PatchProps("header", map[string]any{"title": "Later"})
	})
	require.NoError(t, err)

	rt.Autosaver.Run()
	stored, err := rt.Engine.Store().Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "Later", stored.Components[0].Props["title"])
}

func TestNewRuntime_Errors(t *testing.T) {
	_, err := NewRuntime(config.Config{Store: config.Store{Driver: "mongo"}}, logging.NewNop())
	assert.ErrorContains(t, err, "unknown store driver")

	cfg := config.Default()
	cfg.Autosave = "whenever"
	_, err = NewRuntime(cfg, logging.NewNop())
	assert.ErrorContains(t, err, "invalid autosave schedule")
}

func TestRuntime_CloseSavesOpenSessions(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store.Driver = config.DriverFile
	cfg.Store.Path = dir

	rt, err := NewRuntime(cfg, logging.NewNop())
	require.NoError(t, err)
	_, err = rt.Engine.CreatePage(ctx, "p", "about")
	require.NoError(t, err)
	_, err = rt.Engine.Sessions().Do(ctx, "p", func(s *editor.Session) (editor.View, error) {
		return s.PatchProps("header", map[string]any{"title": "Unsaved"})
	})
	require.NoError(t, err)
	require.NoError(t, rt.Close(ctx))

	reopened, err := NewRuntime(cfg, logging.NewNop())
	require.NoError(t, err)
	defer reopened.Close(ctx)
	stored, err := reopened.Engine.Store().Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, "Unsaved", stored.Components[0].Props["title"])
}
