package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nissyi-gh/taskmgr/internal/config"
	"github.com/nissyi-gh/taskmgr/internal/notify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenReleasesLogWhenStorageFails(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	tests := map[string]func(cfg *config.Config){
		"unknown backend": func(cfg *config.Config) {
			cfg.Storage.Backend = "bogus"
		},
		"unusable path": func(cfg *config.Config) {
			cfg.Storage.Path = filepath.Join(blocker, "tasks.db")
		},
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Log.File = filepath.Join(t.TempDir(), "taskmgr.log")
			mutate(cfg)
			a := &app{cfg: cfg, stderr: os.Stderr}

			err := a.open(notify.Discard{})
			require.Error(t, err)
			assert.Nil(t, a.logCloser, "log file left open")
			assert.Nil(t, a.adapter)

			data, err := os.ReadFile(cfg.Log.File)
			require.NoError(t, err)
			assert.Contains(t, string(data), "open storage")

			a.close()
		})
	}
}

func TestCloseTwice(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = config.BackendMemory
	cfg.Log.File = filepath.Join(t.TempDir(), "taskmgr.log")
	a := &app{cfg: cfg, stderr: os.Stderr}

	require.NoError(t, a.open(notify.Discard{}))
	require.NotNil(t, a.logCloser)

	a.close()
	assert.Nil(t, a.logCloser)
	assert.Nil(t, a.adapter)
	a.close()
}
