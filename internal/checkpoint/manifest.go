package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/san-kum/heatmarch/internal/march"
)

// Run outcomes stored in Manifest.Status.
const (
	StatusFinished = "finished"
	StatusAborted  = "aborted"
	StatusCanceled = "canceled"
)

// Manifest describes one run and the checkpoints it produced.
type Manifest struct {
	ID              string             `json:"id"`
	CreatedAt       time.Time          `json:"created_at"`
	Preset          string             `json:"preset,omitempty"`
	Status          string             `json:"status"`
	Store           string             `json:"store"`
	FinalTime       float64            `json:"final_time"`
	Tau             float64            `json:"tau"`
	OutputFrequency int                `json:"output_frequency"`
	Steps           int                `json:"steps"`
	StepsDone       int                `json:"steps_done"`
	Nodes           int                `json:"nodes"`
	NDOF            int                `json:"ndof"`
	Encoding        string             `json:"encoding"`
	Compressed      bool               `json:"compressed"`
	Checkpoints     []march.Record     `json:"checkpoints"`
	Metrics         map[string]float64 `json:"metrics,omitempty"`
	Errors          []string           `json:"errors,omitempty"`
	Config          json.RawMessage    `json:"config,omitempty"`
}

// Files lists every checkpoint file named in the manifest.
func (m *Manifest) Files() []string {
	out := make([]string, 0, 2*len(m.Checkpoints))
	for _, r := range m.Checkpoints {
		out = append(out, r.Linear, r.Complete)
	}
	return out
}

func SaveManifest(ctx context.Context, s Store, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return s.Put(ctx, ManifestName, data)
}

func LoadManifest(ctx context.Context, s Store) (*Manifest, error) {
	data, err := s.Get(ctx, ManifestName)
	if err != nil {
		return nil, err
	}
	m := &Manifest{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	return m, nil
}
