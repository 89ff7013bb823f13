package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarchlab/stripesched/internal/config"
)

// clearEnv unsets the config package's environment variables for the
// duration of a test, since godotenv.Load writes into the process
// environment and tests otherwise leak state into one another.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"STRIPESCHED_MEM_LOC",
		"STRIPESCHED_XFER_LOC",
		"STRIPESCHED_MEM_KIB",
		"STRIPESCHED_ALIGNMENT",
	} {
		old, had := os.LookupEnv(key)
		require.NoError(t, os.Unsetenv(key))
		t.Cleanup(func() {
			if had {
				os.Setenv(key, old)
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	opts, err := config.Load(filepath.Join(t.TempDir(), "missing.env"), config.Flags{})
	require.NoError(t, err)

	assert.Equal(t, uint64(4), opts.Alignment())
	assert.Equal(t, uint64(0), opts.MemKiB())
}

func TestLoadDotenvOverridesDefaults(t *testing.T) {
	clearEnv(t)
	envPath := filepath.Join(t.TempDir(), "custom.env")
	contents := "STRIPESCHED_MEM_LOC=LOCAL\nSTRIPESCHED_XFER_LOC=XFER\nSTRIPESCHED_MEM_KIB=16\nSTRIPESCHED_ALIGNMENT=8\n"
	require.NoError(t, os.WriteFile(envPath, []byte(contents), 0o600))

	opts, err := config.Load(envPath, config.Flags{})
	require.NoError(t, err)

	assert.Equal(t, "LOCAL", opts.MemLoc().Name)
	assert.Equal(t, "XFER", opts.XferLoc().Name)
	assert.Equal(t, uint64(16), opts.MemKiB())
	assert.Equal(t, uint64(8), opts.Alignment())
}

func TestLoadFlagsOverrideDotenv(t *testing.T) {
	clearEnv(t)
	envPath := filepath.Join(t.TempDir(), "custom.env")
	contents := "STRIPESCHED_MEM_LOC=LOCAL\nSTRIPESCHED_MEM_KIB=16\n"
	require.NoError(t, os.WriteFile(envPath, []byte(contents), 0o600))

	opts, err := config.Load(envPath, config.Flags{
		MemLoc: "REMOTE",
		MemKiB: 32,
	})
	require.NoError(t, err)

	assert.Equal(t, "REMOTE", opts.MemLoc().Name)
	assert.Equal(t, uint64(32), opts.MemKiB())
}

func TestLoadRejectsMalformedMemKiB(t *testing.T) {
	clearEnv(t)
	envPath := filepath.Join(t.TempDir(), "bad.env")
	require.NoError(t, os.WriteFile(envPath, []byte("STRIPESCHED_MEM_KIB=not-a-number\n"), 0o600))

	_, err := config.Load(envPath, config.Flags{})
	assert.Error(t, err)
}

func TestLoadMissingDotenvIsNotAnError(t *testing.T) {
	clearEnv(t)
	_, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.env"), config.Flags{})
	assert.NoError(t, err)
}
