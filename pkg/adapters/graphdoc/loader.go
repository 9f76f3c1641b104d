// Package graphdoc loads authoring graphs and rigs from YAML documents.
// A document either describes a full rig (top-level "layers") or a single
// graph (top-level "states"), which is wrapped into a one-layer rig.
// Decoding is strict: unknown keys are errors, so typos surface at load
// time instead of silently compiling a wrong machine.
package graphdoc

import (
	"fmt"
	"io"
	"os"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/espalier/pkg/domain"
)

// Parse decodes a YAML document into a rig.
func Parse(data []byte) (*domain.Rig, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing graph document: %w", err)
	}
	if raw == nil {
		return nil, fmt.Errorf("graph document is empty")
	}

	if _, ok := raw["layers"]; ok {
		var rig domain.Rig
		if err := decode(raw, &rig); err != nil {
			return nil, fmt.Errorf("decoding rig: %w", err)
		}
		return &rig, validate(&rig)
	}

	var g domain.Graph
	if err := decode(raw, &g); err != nil {
		return nil, fmt.Errorf("decoding graph: %w", err)
	}
	rig := domain.SingleLayer(&g)
	return rig, validate(rig)
}

// Load reads and parses a document from r.
func Load(r io.Reader) (*domain.Rig, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading graph document: %w", err)
	}
	return Parse(data)
}

// LoadFile reads and parses a document from disk.
func LoadFile(path string) (*domain.Rig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	rig, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rig, nil
}

// Encode renders a rig back to YAML, for tooling that rewrites documents.
func Encode(w io.Writer, rig *domain.Rig) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rig); err != nil {
		return fmt.Errorf("encoding rig: %w", err)
	}
	return enc.Close()
}

// decode maps the generic YAML tree onto the domain structs. The yaml
// tag name is reused so the wire format has one source of truth.
func decode(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:     "yaml",
		Result:      out,
		ErrorUnused: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// validate applies the structural checks that do not need compilation:
// layer presence, names, and per-layer graph shape. Target and parameter
// resolution stays with the compiler.
func validate(rig *domain.Rig) error {
	if len(rig.Layers) == 0 {
		return fmt.Errorf("rig %q has no layers", rig.Name)
	}
	if len(rig.Layers) > domain.MaxLayers {
		return fmt.Errorf("%w: %d > %d", domain.ErrTooManyLayers, len(rig.Layers), domain.MaxLayers)
	}
	for i, l := range rig.Layers {
		if l.Graph == nil {
			return fmt.Errorf("layer %d (%s): no graph", i, l.Name)
		}
		if err := validateGraph(l.Graph, l.Graph.Name); err != nil {
			return err
		}
	}
	return nil
}

func validateGraph(g *domain.Graph, path string) error {
	if len(g.States) == 0 {
		return fmt.Errorf("machine %s has no states", path)
	}
	if g.Entry != "" && g.FindState(g.Entry) == nil {
		return fmt.Errorf("machine %s: entry %q names no state", path, g.Entry)
	}
	seen := make(map[string]bool, len(g.States))
	for _, s := range g.States {
		sp := path + "/" + s.Name
		if seen[s.Name] {
			return fmt.Errorf("state %s: duplicate name", sp)
		}
		seen[s.Name] = true
		switch s.Type {
		case domain.StateTypeClip:
			if s.Clip == "" {
				return fmt.Errorf("state %s: %w", sp, domain.ErrMissingClip)
			}
		case domain.StateTypeBlend1D:
			if s.Blend1D == nil || len(s.Blend1D.Clips) == 0 {
				return fmt.Errorf("state %s: %w", sp, domain.ErrMissingClip)
			}
		case domain.StateTypeBlend2D:
			if s.Blend2D == nil || len(s.Blend2D.Clips) == 0 {
				return fmt.Errorf("state %s: %w", sp, domain.ErrMissingClip)
			}
		case domain.StateTypeMachine:
			if s.Machine == nil {
				return fmt.Errorf("state %s: machine state without embedded graph", sp)
			}
			if err := validateGraph(s.Machine, sp); err != nil {
				return err
			}
		default:
			return fmt.Errorf("state %s: unknown type %q", sp, s.Type)
		}
	}
	return nil
}
