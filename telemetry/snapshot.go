package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pthm-cable/odorsampling/odor"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot records what a run was: its seed, model constants and every
// receptor an experiment sampled, so results can be regenerated.
type Snapshot struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id"`
	RNGSeed uint64 `json:"rng_seed"`

	StartedAt time.Time `json:"started_at"`

	Model       ModelState      `json:"model"`
	Experiments []string        `json:"experiments"`
	Receptors   []ReceptorState `json:"receptors,omitempty"`
}

// ModelState is the JSON form of odor.Model. The competition rule is not
// serialized; loaders restore the default rule.
type ModelState struct {
	PeakAffinity    float64 `json:"peak_affinity"`
	MinAffinity     float64 `json:"min_affinity"`
	HillCoefficient float64 `json:"hill_coefficient"`
	FixedEfficacy   bool    `json:"fixed_efficacy"`
}

// ReceptorState holds one receptor's parameters.
type ReceptorState struct {
	Experiment string    `json:"experiment"`
	ID         int       `json:"id"`
	Mean       []float64 `json:"mean"`
	SDA        []float64 `json:"sd_a"`
	SDE        []float64 `json:"sd_e"`
}

// NewModelState captures m.
func NewModelState(m odor.Model) ModelState {
	return ModelState{
		PeakAffinity:    m.PeakAffinity,
		MinAffinity:     m.MinAffinity,
		HillCoefficient: m.HillCoefficient,
		FixedEfficacy:   m.FixedEfficacy,
	}
}

// Model restores the odor.Model with the default competition rule.
func (ms ModelState) Model() odor.Model {
	return odor.Model{
		PeakAffinity:    ms.PeakAffinity,
		MinAffinity:     ms.MinAffinity,
		HillCoefficient: ms.HillCoefficient,
		FixedEfficacy:   ms.FixedEfficacy,
		Competition:     odor.SumOfRatios,
	}
}

// AddReceptors appends receptors sampled by an experiment.
func (s *Snapshot) AddReceptors(experiment string, receptors []*odor.Receptor) {
	for _, r := range receptors {
		s.Receptors = append(s.Receptors, ReceptorState{
			Experiment: experiment,
			ID:         r.ID,
			Mean:       r.Mean(),
			SDA:        r.SDA(),
			SDE:        r.SDE(),
		})
	}
}

// Restore rebuilds the receptors of one experiment.
func (s *Snapshot) Restore(experiment string) ([]*odor.Receptor, error) {
	var out []*odor.Receptor
	for _, rs := range s.Receptors {
		if rs.Experiment != experiment {
			continue
		}
		r, err := odor.NewReceptor(rs.ID, rs.Mean, rs.SDA, rs.SDE)
		if err != nil {
			return nil, fmt.Errorf("restore receptor %d: %w", rs.ID, err)
		}
		out = append(out, r)
	}
	return out, nil
}

// SaveSnapshot writes a snapshot to dir as snapshot_<run>.json.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%s.json", snapshot.RunID))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}

	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("unsupported snapshot version %d (expected %d)", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
