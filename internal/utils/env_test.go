package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("CATALOG_PAGE_SIZE", "250")
	t.Setenv("SYNC_TX_TIMEOUT_MINUTES", "not-a-number")
	t.Setenv("OTEL_ENABLED", "yes")

	assert.Equal(t, 250, GetEnvAsInt("CATALOG_PAGE_SIZE", 100, nil))
	assert.Equal(t, 20*time.Minute, GetEnvAsDuration("SYNC_TX_TIMEOUT_MINUTES", 20, time.Minute, nil))
	assert.Equal(t, "fallback", GetEnv("UNSET_CATALOG_VAR_FOR_TEST", "fallback", nil))
	assert.True(t, GetEnvAsBool("OTEL_ENABLED", false, nil))
	assert.False(t, GetEnvAsBool("UNSET_CATALOG_VAR_FOR_TEST", false, nil))
}

func TestLoadDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("DOTENV_ONLY_KEY=from-file\nDOTENV_SHARED_KEY=from-file\n"), 0o600))
	t.Setenv("DOTENV_SHARED_KEY", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("DOTENV_ONLY_KEY") })

	LoadDotEnv(nil, path, filepath.Join(dir, "missing.env"))

	assert.Equal(t, "from-file", os.Getenv("DOTENV_ONLY_KEY"))
	assert.Equal(t, "from-env", os.Getenv("DOTENV_SHARED_KEY"))
}
