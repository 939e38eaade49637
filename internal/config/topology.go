package config

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LayerSpec is one entry of a topology: either a linear layer width or an
// activation name, never both.
type LayerSpec struct {
	Width      int    // > 0 for a linear layer entry
	Activation string // non-empty for an activation entry
}

// IsWidth reports whether the entry is a linear layer width.
func (l LayerSpec) IsWidth() bool { return l.Activation == "" }

// Topology is the ordered hidden-layer description of a network.
//
// In JSON it is a mixed array alternating integer widths and activation
// names, e.g. [100, "relu", 50, "relu"]. The output layer is appended by
// the model builder and is not part of the topology.
type Topology []LayerSpec

// UnmarshalJSON decodes the mixed integer/string array form.
func (t *Topology) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()

	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("topology: %w", err)
	}

	out := make(Topology, 0, len(raw))
	for i, v := range raw {
		switch v := v.(type) {
		case json.Number:
			n, err := strconv.Atoi(v.String())
			if err != nil {
				return fmt.Errorf("topology[%d]: layer width must be an integer, got %s", i, v)
			}
			out = append(out, LayerSpec{Width: n})
		case string:
			out = append(out, LayerSpec{Activation: strings.ToLower(v)})
		default:
			return fmt.Errorf("topology[%d]: entries must be integers or activation names, got %T", i, v)
		}
	}
	*t = out
	return nil
}

// MarshalJSON encodes back to the mixed array form.
func (t Topology) MarshalJSON() ([]byte, error) {
	raw := make([]any, len(t))
	for i, l := range t {
		if l.IsWidth() {
			raw[i] = l.Width
		} else {
			raw[i] = l.Activation
		}
	}
	return json.Marshal(raw)
}

// Widths returns the linear layer widths in order.
func (t Topology) Widths() []int {
	var ws []int
	for _, l := range t {
		if l.IsWidth() {
			ws = append(ws, l.Width)
		}
	}
	return ws
}

func (t Topology) String() string {
	parts := make([]string, len(t))
	for i, l := range t {
		if l.IsWidth() {
			parts[i] = strconv.Itoa(l.Width)
		} else {
			parts[i] = l.Activation
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}
