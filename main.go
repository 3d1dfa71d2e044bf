// Package main implements the taskmgr CLI and TUI.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/nissyi-gh/taskmgr/internal/config"
	"github.com/nissyi-gh/taskmgr/internal/logging"
	"github.com/nissyi-gh/taskmgr/internal/model"
	"github.com/nissyi-gh/taskmgr/internal/notify"
	"github.com/nissyi-gh/taskmgr/internal/storage"
	"github.com/nissyi-gh/taskmgr/internal/taskstore"
	"github.com/nissyi-gh/taskmgr/internal/view"
)

func main() {
	os.Exit(run())
}

func run() int {
	cmd := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// app carries the global flags and the resources opened for one command.
type app struct {
	configPath string
	backend    string
	dataPath   string

	stdin  *os.File
	stdout *os.File
	stderr io.Writer

	cfg       *config.Config
	log       *log.Logger
	logCloser io.Closer
	adapter   *storage.Adapter
	store     *taskstore.Store
}

// loadConfig resolves the effective configuration, flags last.
func (a *app) loadConfig() error {
	cfg, err := config.Load(config.Options{ConfigPath: a.configPath})
	if err != nil {
		return err
	}
	if a.backend != "" {
		cfg.Storage.Backend = a.backend
	}
	if a.dataPath != "" {
		cfg.Storage.Path = a.dataPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

// open loads the configuration and the task store. Store notifications go
// to emitter.
func (a *app) open(emitter notify.Emitter) error {
	if a.cfg == nil {
		if err := a.loadConfig(); err != nil {
			return err
		}
	}

	logPath, err := a.cfg.LogPath(os.Getenv)
	if err != nil {
		return err
	}
	a.log, a.logCloser, err = logging.Open(logPath, a.cfg.Log.Level)
	if err != nil {
		return err
	}

	path, err := a.cfg.StoragePath(os.Getenv)
	if err != nil {
		a.close()
		return err
	}
	a.log.Info("open storage", "backend", a.cfg.Storage.Backend, "path", path)

	kv, err := storage.OpenKV(a.cfg.Storage.Backend, path)
	if err != nil {
		a.log.Error("open storage", "err", err)
		a.close()
		return fmt.Errorf("open storage: %w", err)
	}
	a.adapter = storage.NewAdapter(kv, a.cfg.Storage.Key, a.log)
	a.store = taskstore.Open(a.adapter,
		taskstore.WithNotifier(emitter),
		taskstore.WithLogger(a.log),
	)
	a.log.Debug("loaded tasks", "count", a.store.Len())
	return nil
}

// close releases whatever open managed to acquire. It is safe to call
// more than once.
func (a *app) close() {
	if a.adapter != nil {
		if err := a.adapter.Close(); err != nil {
			a.log.Error("close storage", "err", err)
		}
		a.adapter = nil
	}
	if a.logCloser != nil {
		a.logCloser.Close()
		a.logCloser = nil
	}
}

// printer returns the emitter CLI commands report mutations through.
func (a *app) printer() notify.Emitter {
	return notify.Printer{W: a.stderr}
}

func (a *app) defaultPriority() model.Priority {
	p, err := model.ParsePriority(a.cfg.Defaults.Priority)
	if err != nil {
		return model.PriorityMedium
	}
	return p
}

func (a *app) defaultFilter() view.Filter {
	f, err := view.ParseFilter(a.cfg.Defaults.Filter)
	if err != nil {
		return view.FilterAll
	}
	return f
}
