package extraction

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Checkpoint is the durable per-target progress record. Written after
// every completed work unit so an interrupted run resumes without
// re-fetching anything already swept. Never deleted automatically.
type Checkpoint struct {
	TargetId string `json:"target_id"`
	// search endpoint path, persisted once discovery succeeds
	Endpoint       string    `json:"endpoint,omitempty"`
	CompletedUnits []string  `json:"completed_units"`
	TotalRecords   int       `json:"total_records"`
	Completed      bool      `json:"completed"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (c Checkpoint) UnitDone(name string) bool {
	for _, u := range c.CompletedUnits {
		if u == name {
			return true
		}
	}
	return false
}

func (c *Checkpoint) MarkUnit(name string) {
	if !c.UnitDone(name) {
		c.CompletedUnits = append(c.CompletedUnits, name)
	}
}

// CheckpointStore keeps one checkpoint JSON file per target under a
// directory. Files are written atomically (temp + rename) so a crash
// mid-write never corrupts resume state.
type CheckpointStore struct {
	dir string
}

func NewCheckpointStore(dir string) (CheckpointStore, error) {
	err := os.MkdirAll(dir, 0755)
	if err != nil {
		return CheckpointStore{}, fmt.Errorf("create checkpoint dir: %w", err)
	}
	return CheckpointStore{dir: dir}, nil
}

func (s CheckpointStore) path(targetId string) string {
	return filepath.Join(s.dir, targetId+".checkpoint.json")
}

// Load returns the target's checkpoint, or a fresh one when the target
// has never been swept.
func (s CheckpointStore) Load(targetId string) (Checkpoint, error) {
	contents, err := os.ReadFile(s.path(targetId))
	if os.IsNotExist(err) {
		return Checkpoint{TargetId: targetId}, nil
	}
	if err != nil {
		return Checkpoint{}, err
	}

	var cp Checkpoint
	err = json.Unmarshal(contents, &cp)
	if err != nil {
		return Checkpoint{}, fmt.Errorf("parse checkpoint for %q: %w", targetId, err)
	}
	return cp, nil
}

func (s CheckpointStore) Save(cp Checkpoint) error {
	cp.UpdatedAt = time.Now()

	contents, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path(cp.TargetId) + ".tmp"
	err = os.WriteFile(tmp, contents, 0644)
	if err != nil {
		return err
	}
	return os.Rename(tmp, s.path(cp.TargetId))
}
