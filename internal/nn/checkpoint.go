package nn

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"
)

// ParamState is the serialized form of one Parameter.
type ParamState struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float64 `json:"data"`
}

// Checkpoint is a snapshot of a trained model: its parameters plus enough
// metadata to identify the run it came from.
//
// Checkpoints are written as JSON so runs can be inspected and diffed
// with standard tools.
type Checkpoint struct {
	ExpName     string                `json:"exp_name"`
	NetworkType string                `json:"network_type"`
	Seed        int64                 `json:"seed"`
	Epoch       int                   `json:"epoch"`
	Loss        float64               `json:"loss"`
	CreatedAt   time.Time             `json:"created_at"`
	Params      map[string]ParamState `json:"params"`
}

// Snapshot captures the current values of the parameters, keyed by name.
func Snapshot(params []*Parameter) map[string]ParamState {
	out := make(map[string]ParamState, len(params))
	for _, p := range params {
		r, c := p.Data().Dims()
		data := make([]float64, 0, r*c)
		for i := 0; i < r; i++ {
			data = append(data, p.Data().RawRowView(i)[:c]...)
		}
		out[p.Name()] = ParamState{Rows: r, Cols: c, Data: data}
	}
	return out
}

// Save writes the checkpoint to path, creating parent directories.
func (c *Checkpoint) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint: %w", err)
	}
	return nil
}

// LoadCheckpoint reads a checkpoint written by Save.
func LoadCheckpoint(path string) (*Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checkpoint: %w", err)
	}
	var c Checkpoint
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode checkpoint %s: %w", path, err)
	}
	return &c, nil
}

// Restore copies the checkpointed values into matching parameters.
// Every parameter must be present in the checkpoint with the same shape.
func (c *Checkpoint) Restore(params []*Parameter) error {
	for _, p := range params {
		st, ok := c.Params[p.Name()]
		if !ok {
			return fmt.Errorf("checkpoint missing parameter %q", p.Name())
		}
		r, cols := p.Data().Dims()
		if st.Rows != r || st.Cols != cols {
			return fmt.Errorf("parameter %q: checkpoint shape %dx%d, model shape %dx%d",
				p.Name(), st.Rows, st.Cols, r, cols)
		}
		p.Data().Copy(mat.NewDense(st.Rows, st.Cols, st.Data))
	}
	return nil
}
