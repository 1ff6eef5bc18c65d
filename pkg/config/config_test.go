package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"FFMPEG_PATH", "ENCODER", "NATIVE_TAGS", "NAMING", "MAX_CONCURRENT_FILES",
		"CONVERT_T2S", "SKIP_PROCESSED", "DATA_DIR", "DB_FILE_NAME",
		"STABILITY_CHECK_INTERVAL", "STABILITY_QUIET_DURATION", "STABILITY_MAX_WAIT",
	} {
		t.Setenv(k, "")
	}
	// .env 只在当前目录查找
	t.Chdir(t.TempDir())
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "ffmpeg", cfg.FFmpegPath)
	assert.Equal(t, "ffmpeg", cfg.Encoder)
	assert.True(t, cfg.NativeTags)
	assert.Equal(t, "numbered", cfg.Naming)
	assert.Equal(t, 1, cfg.MaxConcurrentFiles)
	assert.False(t, cfg.ConvertT2S)
	assert.False(t, cfg.SkipProcessed)
	assert.Equal(t, filepath.Join("./data", "cuesplit.db"), cfg.DBPath)
	assert.Equal(t, 5*time.Second, cfg.StabilityCheckInterval)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENCODER", "Native")
	t.Setenv("NATIVE_TAGS", "false")
	t.Setenv("NAMING", "plain")
	t.Setenv("MAX_CONCURRENT_FILES", "4")
	t.Setenv("SKIP_PROCESSED", "1")
	t.Setenv("DATA_DIR", "/var/lib/cuesplit")
	t.Setenv("STABILITY_QUIET_DURATION", "2m")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "native", cfg.Encoder)
	assert.False(t, cfg.NativeTags)
	assert.Equal(t, "plain", cfg.Naming)
	assert.Equal(t, 4, cfg.MaxConcurrentFiles)
	assert.True(t, cfg.SkipProcessed)
	assert.Equal(t, "/var/lib/cuesplit/cuesplit.db", cfg.DBPath)
	assert.Equal(t, 2*time.Minute, cfg.StabilityQuietDuration)
	assert.True(t, cfg.NeedsStore(false))
}

func TestLoadConfig_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_CONCURRENT_FILES", "0")
	t.Setenv("NATIVE_TAGS", "maybe")
	t.Setenv("STABILITY_MAX_WAIT", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.MaxConcurrentFiles)
	assert.True(t, cfg.NativeTags)
	assert.Equal(t, 6*time.Hour, cfg.StabilityMaxWait)
	assert.False(t, cfg.NeedsStore(false))
	assert.True(t, cfg.NeedsStore(true))
}

func TestEnsureDataDir(t *testing.T) {
	cfg := &Config{DataDir: filepath.Join(t.TempDir(), "a", "b")}
	require.NoError(t, cfg.EnsureDataDir())
	assert.DirExists(t, cfg.DataDir)
}
