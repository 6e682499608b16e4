package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalProviderUpload(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	p, err := NewLocalProvider(base)
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "topcv_jobs_2026-08-31_combined.csv")
	require.NoError(t, os.WriteFile(src, []byte("crawl_date,title\n"), 0o600))

	uri, err := p.Upload(context.Background(), src, "crawler/2026-08-31")
	require.NoError(t, err)

	target := filepath.Join(base, "crawler", "2026-08-31", "topcv_jobs_2026-08-31_combined.csv")
	assert.Equal(t, "file://"+target, uri)

	copied, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "crawl_date,title\n", string(copied))
}

func TestLocalProviderRejectsEscapingDestination(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	p, err := NewLocalProvider(base)
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "a.csv")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))

	_, err = p.Upload(context.Background(), src, "../outside")
	require.Error(t, err)
}

func TestLocalProviderMissingSource(t *testing.T) {
	t.Parallel()

	p, err := NewLocalProvider(t.TempDir())
	require.NoError(t, err)

	_, err = p.Upload(context.Background(), filepath.Join(t.TempDir(), "missing.csv"), "dest")
	require.Error(t, err)
}

func TestNewLocalProviderRequiresDir(t *testing.T) {
	t.Parallel()

	_, err := NewLocalProvider("   ")
	require.Error(t, err)
}

func TestNoOpProvider(t *testing.T) {
	t.Parallel()

	uri, err := NoOpProvider{}.Upload(context.Background(), "/tmp/a.csv", "dest")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.csv", uri, "no-op upload reports the local path")
}
