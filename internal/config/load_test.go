package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, LocalEnv, cfg.AppEnv)
	assert.Equal(t, logrus.InfoLevel, cfg.LogLevel)
	assert.Equal(t, 1, cfg.Queue.NotifyThreshold)
	assert.Equal(t, 0, cfg.Queue.MaxActive)
	assert.False(t, cfg.Queue.SendConfirmation)
	assert.Equal(t, 30*time.Minute, cfg.Queue.IdleEviction)
	assert.Equal(t, 3, cfg.Notification.Attempts)
	assert.Equal(t, 500*time.Millisecond, cfg.Notification.BackoffInitial)
	assert.Equal(t, 10*time.Second, cfg.Notification.BackoffMax)
	assert.Equal(t, 1024, cfg.Notification.QueueCapacity)
	assert.Equal(t, 4, cfg.WorkerCount)
}

func TestLoad_EnvFileAndOverrides(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	env := "QUEUE_NOTIFY_THRESHOLD=3\nNOTIFY_RETRIES=5\nLOG_LEVEL=debug\nQUEUE_MAX_ACTIVE=50\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o600))

	// the environment wins over the file
	t.Setenv("NOTIFY_RETRIES", "7")
	t.Setenv("QUEUE_NO_SHOW_GRACE", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Queue.NotifyThreshold)
	assert.Equal(t, 7, cfg.Notification.Attempts)
	assert.Equal(t, 50, cfg.Queue.MaxActive)
	assert.Equal(t, 90*time.Second, cfg.Queue.NoShowGrace)
	assert.Equal(t, logrus.DebugLevel, cfg.LogLevel)

	// godotenv exported the file into the process, undo it for other tests
	for _, key := range []string{"QUEUE_NOTIFY_THRESHOLD", "LOG_LEVEL", "QUEUE_MAX_ACTIVE"} {
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad int", "WORKER_COUNT", "many"},
		{"bad duration", "QUEUE_IDLE_EVICTION", "soon"},
		{"bad level", "LOG_LEVEL", "loud"},
		{"zero attempts", "NOTIFY_RETRIES", "0"},
		{"negative threshold", "QUEUE_NOTIFY_THRESHOLD", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(tt.key, tt.val)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains: it changes
// the working directory and restores the previous one when the test ends.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
