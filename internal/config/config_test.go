package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/creyno/genomemeta/internal/config"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: 4\nrequest_timeout: 10s\nrate_limit_rps: 1.5\noutput: pantoea\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, cfg.Workers)
	require.Equal(t, 10*time.Second, cfg.RequestTimeout)
	require.Equal(t, 1.5, cfg.RateLimitRPS)
	require.Equal(t, "pantoea", cfg.Output)
	require.True(t, cfg.XLSX, "untouched fields keep defaults")
}

func TestLoadRejectsBadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [not an int"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
}

func TestLoadClampsInvalidValues(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: -2\nmax_retries: -1\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Greater(t, cfg.Workers, 0)
	require.Equal(t, 0, cfg.MaxRetries)
}
