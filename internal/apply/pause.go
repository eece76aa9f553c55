package apply

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/anthropics/jin/internal/jinerr"
	"github.com/anthropics/jin/internal/objstore"
)

const pauseFileName = ".paused_apply.yaml"

// PauseRecord is persisted when apply stops on one or more conflicts
// (spec §4.5). Its presence is what RecoveryManager reads to refuse
// further non-interactive mutating commands until the user resolves or
// aborts.
type PauseRecord struct {
	ApplyID        string            `yaml:"apply_id"`
	ConflictPaths  []string          `yaml:"conflict_paths"`
	AttachedLayers map[string]string `yaml:"attached_layers"`
}

func pausePath(stateDir string) string {
	return filepath.Join(stateDir, pauseFileName)
}

// LoadPauseRecord reads the persisted PauseRecord, returning (nil, nil)
// if the workspace isn't paused.
func LoadPauseRecord(stateDir string) (*PauseRecord, error) {
	data, err := os.ReadFile(pausePath(stateDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, jinerr.IO("read pause record", pausePath(stateDir), err)
	}
	var p PauseRecord
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Save atomically persists the PauseRecord.
func (p *PauseRecord) Save(stateDir string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return err
	}
	if err := objstore.AtomicWriteFile(pausePath(stateDir), data, 0644); err != nil {
		return jinerr.IO("write pause record", pausePath(stateDir), err)
	}
	return nil
}

// DeletePauseRecord removes the persisted PauseRecord. Not existing is not an
// error.
func DeletePauseRecord(stateDir string) error {
	err := os.Remove(pausePath(stateDir))
	if err != nil && !os.IsNotExist(err) {
		return jinerr.IO("remove pause record", pausePath(stateDir), err)
	}
	return nil
}

// removeConflict drops path from the record's conflict list, reporting
// whether the record is now empty.
func (p *PauseRecord) removeConflict(path string) (empty bool) {
	out := p.ConflictPaths[:0]
	for _, c := range p.ConflictPaths {
		if c != path {
			out = append(out, c)
		}
	}
	p.ConflictPaths = out
	return len(p.ConflictPaths) == 0
}
