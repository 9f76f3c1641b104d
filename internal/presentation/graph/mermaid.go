// Package graph renders compiled machines as Mermaid diagrams for docs
// and the inspect tooling.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/espalier/pkg/machine"
)

// Overlay highlights live instance state on the diagram.
type Overlay struct {
	// ActiveWeights maps flattened state indices to their current blend
	// weight; only indices above zero weight are styled.
	ActiveWeights map[int32]float32
	// Current is the flattened index of the current state, NoIndex for
	// none.
	Current int32
}

// GenerateMermaid produces a Mermaid flowchart from a compiled machine.
// Shapes encode the state kind:
//   - clip: [Rectangle]
//   - blend1d: [/Parallelogram/]
//   - blend2d: [[Subroutine]]
//
// Any-state transitions radiate from a circle node; exit-group
// transitions use dotted arrows from each member.
func GenerateMermaid(def *machine.Definition, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i := range def.States {
		sd := &def.States[i]
		opener, closer := "[", "]"
		switch sd.Kind {
		case machine.KindBlend1D:
			opener, closer = "[/", "/]"
		case machine.KindBlend2D:
			opener, closer = "[[", "]]"
		}

		label := sd.Path
		if sd.Loop {
			label += " (loop)"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", nodeID(int32(i)), opener, label, closer)

		for _, t := range def.StateTransitions(int32(i)) {
			writeEdge(&sb, def, nodeID(int32(i)), t, false)
		}
	}

	if len(def.AnyState) > 0 {
		sb.WriteString("    any((\"any\"))\n")
		for _, t := range def.AnyState {
			writeEdge(&sb, def, "any", t, false)
		}
	}

	for gi := range def.ExitGroups {
		g := &def.ExitGroups[gi]
		for _, member := range g.States {
			for _, t := range g.Transitions {
				writeEdge(&sb, def, nodeID(member), t, true)
			}
		}
	}

	if overlay != nil {
		writeOverlay(&sb, overlay)
	}
	return sb.String()
}

func writeEdge(sb *strings.Builder, def *machine.Definition, from string, t machine.TransitionDef, dotted bool) {
	arrow := "-->"
	if dotted {
		arrow = "-.->"
	}
	if label := edgeLabel(def, &t); label != "" {
		if dotted {
			arrow = fmt.Sprintf("-. \"%s\" .->", label)
		} else {
			arrow = fmt.Sprintf("-- \"%s\" -->", label)
		}
	}
	fmt.Fprintf(sb, "    %s %s %s\n", from, arrow, nodeID(t.Target))
}

// edgeLabel summarizes the gates: conditions first, then the exit-time
// window.
func edgeLabel(def *machine.Definition, t *machine.TransitionDef) string {
	var parts []string
	for _, c := range def.TransitionConds(t) {
		parts = append(parts, fmt.Sprintf("%s %s %d", def.Params[c.Param].Name, opName(c.Op), c.Value))
	}
	if t.ExitTime != machine.NoExitTime {
		parts = append(parts, fmt.Sprintf("@%.2f", t.ExitTime))
	}
	return strings.Join(parts, " && ")
}

func opName(op uint8) string {
	switch op {
	case machine.CondNeq:
		return "!="
	case machine.CondGt:
		return ">"
	case machine.CondLt:
		return "<"
	default:
		return "=="
	}
}

func writeOverlay(sb *strings.Builder, overlay *Overlay) {
	sb.WriteString("\n    %% Overlay Styles\n")
	// Force black text for contrast regardless of theme.
	sb.WriteString("    classDef active fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

	// Deterministic output for diffs and tests.
	indices := make([]int32, 0, len(overlay.ActiveWeights))
	for idx := range overlay.ActiveWeights {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

	for _, idx := range indices {
		if overlay.ActiveWeights[idx] <= 0 || idx == overlay.Current {
			continue
		}
		fmt.Fprintf(sb, "    class %s active;\n", nodeID(idx))
	}
	if overlay.Current != machine.NoIndex {
		fmt.Fprintf(sb, "    class %s current;\n", nodeID(overlay.Current))
	}
}

// nodeID keeps Mermaid identifiers free of path separators.
func nodeID(idx int32) string {
	return fmt.Sprintf("s%d", idx)
}
