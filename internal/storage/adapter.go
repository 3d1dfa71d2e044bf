package storage

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/nissyi-gh/taskmgr/internal/logging"
	"github.com/nissyi-gh/taskmgr/internal/model"
)

// Adapter mirrors the task collection into one KV slot.
// It holds no copy of the collection; every Save replaces the whole value.
type Adapter struct {
	kv  KV
	key string
	log *log.Logger
}

// NewAdapter stores the collection under key in kv. A nil logger discards.
func NewAdapter(kv KV, key string, logger *log.Logger) *Adapter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Adapter{kv: kv, key: key, log: logger.With("slot", key)}
}

// Load returns the persisted collection. A missing, unreadable or malformed
// slot yields an empty collection; the cause is logged, not returned.
// Records repeating an earlier id are dropped.
func (a *Adapter) Load() []model.Task {
	raw, ok, err := a.kv.Get(a.key)
	if err != nil {
		a.log.Warn("read failed, starting empty", "err", err)
		return []model.Task{}
	}
	if !ok {
		return []model.Task{}
	}

	var tasks []model.Task
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		a.log.Warn("malformed stored tasks, starting empty", "err", err)
		return []model.Task{}
	}

	seen := make(map[string]bool, len(tasks))
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			a.log.Warn("dropping duplicate task id", "id", t.ID)
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}

	a.log.Debug("loaded tasks", "count", len(out))
	return out
}

// Save serializes and stores the full collection, overwriting the slot.
func (a *Adapter) Save(tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("encode tasks: %w", err)
	}
	if err := a.kv.Set(a.key, string(data)); err != nil {
		a.log.Error("save failed", "err", err)
		return fmt.Errorf("save tasks: %w", err)
	}
	return nil
}

// Close releases the underlying KV.
func (a *Adapter) Close() error {
	return a.kv.Close()
}
