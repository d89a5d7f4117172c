package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	loamAdapter "github.com/aretw0/tessera/pkg/adapters/loam"
	"github.com/stretchr/testify/require"
)

// SetupTemplateRepo writes files into a temporary directory and opens it as a
// Loam repository of templates. It returns the absolute path and the typed repository.
// It fails the test immediately on error.
func SetupTemplateRepo(t *testing.T, files map[string]string, opts ...loam.Option) (string, *loam.TypedRepository[loamAdapter.TemplateMetadata]) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	for name, content := range files {
		path := filepath.Join(absPath, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	if len(opts) == 0 {
		opts = []loam.Option{loam.WithStrict(true), loam.WithVersioning(false)}
	}
	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, loam.NewTypedRepository[loamAdapter.TemplateMetadata](repo)
}
