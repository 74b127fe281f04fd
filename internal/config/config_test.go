package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadOrCreateWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dayflow.toml")

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultAddr, cfg.Addr)
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Equal(t, DefaultReminderCron, cfg.ReminderCron)
	assert.Equal(t, DefaultDigestLimit, cfg.DigestLimit)

	_, err = os.Stat(path)
	assert.NoError(t, err, "first load writes the file")

	again, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadOrCreateReadsOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dayflow.toml")
	require.NoError(t, os.WriteFile(path, []byte("addr = \":9000\"\nreminder_cron = \"30 7 * * *\"\n"), 0o644))

	cfg, err := LoadOrCreate(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, "30 7 * * *", cfg.ReminderCron)
	assert.Equal(t, DefaultDBPath, cfg.DBPath, "missing keys fall back to defaults")
}

func TestFirstDay(t *testing.T) {
	day, err := Config{FirstDayOfWeek: ""}.FirstDay()
	require.NoError(t, err)
	assert.Equal(t, time.Monday, day)

	day, err = Config{FirstDayOfWeek: "Sunday"}.FirstDay()
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, day)

	_, err = Config{FirstDayOfWeek: "wednesday"}.FirstDay()
	assert.Error(t, err)
}
