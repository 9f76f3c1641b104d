// Package compiler turns an authoring-time animation graph into the flat,
// immutable machine.Definition consumed by runtime instances. Flattening
// is a depth-first walk that expands nested sub-machines in place,
// assigns dense leaf indices and running clip offsets, resolves entry
// states and transition targets through arbitrarily deep nesting, and
// groups exit transitions. All failures abort compilation; a partially
// valid Definition is never produced.
package compiler

import (
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/machine"
)

// FlattenedState is one leaf of the authoring graph in depth-first
// traversal order, annotated with everything the definition builder needs
// to emit its compiled descriptor.
type FlattenedState struct {
	Index int32
	State *domain.State

	// Machine indexes the immediate parent machine in Result.Machines.
	Machine int32

	// Path is the slash-joined diagnostic path from the root.
	Path string

	// ClipOffset is the sum of clip counts of all leaves emitted before
	// this one, including those inside already-visited sub-machines.
	ClipOffset int32

	// ExitGroup is assigned in the second flattening pass, NoIndex when
	// the leaf is not a designated exit state.
	ExitGroup int32
}

// ExitGroupDraft is an exit-transition group before target resolution:
// the owning composite state still carries authoring transitions.
type ExitGroupDraft struct {
	Machine int32
	Owner   *domain.State
	Graph   *domain.Graph
	States  []int32
}

// Result is the output of Flatten.
type Result struct {
	Root      *domain.Graph
	States    []FlattenedState
	Groups    []ExitGroupDraft
	Machines  []machine.MachineInfo
	PathIndex map[string]int32

	// Entry is the flattened index of the root machine's resolved entry
	// leaf.
	Entry int32

	// index maps authoring states to flattened indices by identity, used
	// by transition-target resolution once the whole graph is emitted.
	index map[*domain.State]int32

	// machineOf maps each graph to its Machines entry; groupOf maps a
	// machine index to its exit group, if it formed one.
	machineOf map[*domain.Graph]int32
	groupOf   map[int32]int32

	// scopes records the ancestry chain (root first) of every machine,
	// for target and parameter resolution.
	scopes map[*domain.Graph][]*domain.Graph

	// graphs is aligned with Machines: the authoring graph behind each
	// machine index.
	graphs []*domain.Graph

	// Params are the global slots, root scope first, nested machines in
	// depth-first order. paramSlots maps each scope's declared names onto
	// them.
	Params     []machine.ParamDef
	paramSlots map[*domain.Graph]map[string]int32
}

// Flatten performs the depth-first expansion of the authoring graph.
func Flatten(root *domain.Graph) (*Result, error) {
	r := &Result{
		Root:      root,
		PathIndex: map[string]int32{},
		index:     map[*domain.State]int32{},
		machineOf: map[*domain.Graph]int32{},
		groupOf:   map[int32]int32{},
		scopes:    map[*domain.Graph][]*domain.Graph{},
	}

	clipOffset := int32(0)
	if _, err := r.walk(root, nil, machine.NoIndex, root.Name, nil, &clipOffset); err != nil {
		return nil, err
	}
	if err := r.assignExitMembers(); err != nil {
		return nil, err
	}
	r.pruneEmptyGroups()
	if err := r.resolveEntries(); err != nil {
		return nil, err
	}
	return r, nil
}

// pruneEmptyGroups drops groups that collected no member states. A
// nested machine's own group claims the exit leaves below it, which can
// leave an outer machine's group without members; its transitions could
// never fire.
func (r *Result) pruneEmptyGroups() {
	remap := make([]int32, len(r.Groups))
	kept := r.Groups[:0]
	for i := range r.Groups {
		if len(r.Groups[i].States) == 0 {
			remap[i] = machine.NoIndex
			continue
		}
		remap[i] = int32(len(kept))
		kept = append(kept, r.Groups[i])
	}
	if len(kept) == len(r.Groups) {
		return
	}
	r.Groups = kept
	for i := range r.States {
		if g := r.States[i].ExitGroup; g != machine.NoIndex {
			r.States[i].ExitGroup = remap[g]
		}
	}
}

// resolveEntries checks that every machine's declared entry resolves to
// an emitted leaf, and records the root's entry index. An unresolvable
// entry anywhere aborts the build.
func (r *Result) resolveEntries() error {
	for mi, g := range r.graphs {
		leaf, err := ResolveEntryState(g)
		if err != nil {
			return &domain.BuildError{Path: r.machinePath(int32(mi)), Err: err}
		}
		idx, ok := r.index[leaf]
		if !ok {
			return &domain.BuildError{
				Path: r.machinePath(int32(mi)),
				Err:  fmt.Errorf("%w: machine %q entry %q is not an emitted leaf", domain.ErrUnresolvedEntry, g.Name, g.Entry),
			}
		}
		if mi == 0 {
			r.Entry = idx
		}
	}
	return nil
}

// machinePath joins the machine name chain from the root, for
// diagnostics.
func (r *Result) machinePath(mi int32) string {
	var parts []string
	for mi != machine.NoIndex {
		parts = append([]string{r.Machines[mi].Name}, parts...)
		mi = r.Machines[mi].Parent
	}
	return strings.Join(parts, "/")
}

// walk emits g's leaves in authoring order, recursing into composite
// states. It returns whether the subtree contains a designated exit state.
func (r *Result) walk(g *domain.Graph, owner *domain.State, parent int32, path string, chain []*domain.Graph, clipOffset *int32) (bool, error) {
	mi := int32(len(r.Machines))
	r.Machines = append(r.Machines, machine.MachineInfo{Name: g.Name, Parent: parent})
	r.machineOf[g] = mi
	r.graphs = append(r.graphs, g)

	chain = append(chain, g)
	r.scopes[g] = append([]*domain.Graph(nil), chain...)

	if err := r.registerParams(g); err != nil {
		return false, err
	}

	hasExit := false
	for _, s := range g.States {
		statePath := path + "/" + s.Name

		if !s.IsLeaf() {
			if s.Machine == nil {
				return false, &domain.BuildError{Path: statePath, Err: fmt.Errorf("machine state without embedded graph")}
			}
			nestedExit, err := r.walk(s.Machine, s, mi, statePath, chain, clipOffset)
			if err != nil {
				return false, err
			}
			// A sub-machine forms an exit group only when it both declares
			// interior exit states and owns outgoing transitions.
			if nestedExit && len(s.Transitions) > 0 {
				gi := int32(len(r.Groups))
				r.Groups = append(r.Groups, ExitGroupDraft{
					Machine: r.machineOf[s.Machine],
					Owner:   s,
					Graph:   s.Machine,
				})
				r.groupOf[r.machineOf[s.Machine]] = gi
			}
			if nestedExit {
				hasExit = true
			}
			continue
		}

		if s.ClipCount() == 0 {
			return false, &domain.BuildError{Path: statePath, Err: domain.ErrMissingClip}
		}

		idx := int32(len(r.States))
		r.States = append(r.States, FlattenedState{
			Index:      idx,
			State:      s,
			Machine:    mi,
			Path:       statePath,
			ClipOffset: *clipOffset,
			ExitGroup:  machine.NoIndex,
		})
		r.index[s] = idx
		if _, dup := r.PathIndex[statePath]; dup {
			return false, &domain.BuildError{Path: statePath, Err: fmt.Errorf("duplicate state path")}
		}
		r.PathIndex[statePath] = idx
		*clipOffset += int32(s.ClipCount())

		if s.Exit {
			hasExit = true
		}
	}
	return hasExit, nil
}

// assignExitMembers is the second flattening pass: once every index is
// known, each exit leaf joins the group of its nearest enclosing machine
// that formed one. Exit leaves can sit more than one level below the
// machine whose transitions they trigger.
func (r *Result) assignExitMembers() error {
	for i := range r.States {
		fs := &r.States[i]
		if !fs.State.Exit {
			continue
		}
		gi, ok := r.nearestGroup(fs.Machine)
		if !ok {
			// An exit flag with no enclosing group is inert, not an error:
			// the owning machine simply has no outgoing transitions.
			continue
		}
		fs.ExitGroup = gi
		g := &r.Groups[gi]
		g.States = append(g.States, fs.Index)
	}
	return nil
}

func (r *Result) nearestGroup(mi int32) (int32, bool) {
	for mi != machine.NoIndex {
		if gi, ok := r.groupOf[mi]; ok {
			return gi, true
		}
		mi = r.Machines[mi].Parent
	}
	return machine.NoIndex, false
}

// ResolveEntryState returns the effective entry leaf of a machine,
// recursing while the declared entry is itself a composite.
func ResolveEntryState(g *domain.Graph) (*domain.State, error) {
	return resolveEntry(g, map[*domain.Graph]bool{})
}

func resolveEntry(g *domain.Graph, seen map[*domain.Graph]bool) (*domain.State, error) {
	if seen[g] {
		return nil, fmt.Errorf("%w: entry recursion in machine %q", domain.ErrUnresolvedEntry, g.Name)
	}
	seen[g] = true

	var s *domain.State
	if g.Entry == "" {
		// An undeclared entry defaults to the first authored state.
		if len(g.States) == 0 {
			return nil, fmt.Errorf("%w: machine %q has no states", domain.ErrUnresolvedEntry, g.Name)
		}
		s = g.States[0]
	} else if s = g.FindState(g.Entry); s == nil {
		return nil, fmt.Errorf("%w: machine %q entry %q", domain.ErrUnresolvedEntry, g.Name, g.Entry)
	}
	if s.IsLeaf() {
		return s, nil
	}
	if s.Machine == nil {
		return nil, fmt.Errorf("%w: machine %q entry %q has no embedded graph", domain.ErrUnresolvedEntry, g.Name, g.Entry)
	}
	return resolveEntry(s.Machine, seen)
}

// ResolveTransitionTarget resolves a target name declared in scope to a
// flattened leaf index. Names are looked up in the declaring scope first,
// then outward through ancestor scopes, so nested states can target
// root-level states directly. A composite target redirects to its
// effective entry leaf.
func (r *Result) ResolveTransitionTarget(scope *domain.Graph, name string) (int32, error) {
	chain := r.scopes[scope]
	for i := len(chain) - 1; i >= 0; i-- {
		s := chain[i].FindState(name)
		if s == nil {
			continue
		}
		leaf := s
		if !s.IsLeaf() {
			entry, err := ResolveEntryState(s.Machine)
			if err != nil {
				return machine.NoIndex, err
			}
			leaf = entry
		}
		idx, ok := r.index[leaf]
		if !ok {
			return machine.NoIndex, fmt.Errorf("%w: %q resolves to an unregistered leaf", domain.ErrUnknownTarget, name)
		}
		return idx, nil
	}
	return machine.NoIndex, fmt.Errorf("%w: %q", domain.ErrUnknownTarget, name)
}

// CollectAllClips performs the same depth-first walk as Flatten, purely to
// produce the unified clip list consumed when constructing sampler
// resources. Duplicates are preserved: each leaf owns a contiguous run of
// sampler slots starting at its clip offset.
func CollectAllClips(g *domain.Graph) []string {
	var clips []string
	var visit func(*domain.Graph)
	visit = func(g *domain.Graph) {
		for _, s := range g.States {
			if !s.IsLeaf() {
				if s.Machine != nil {
					visit(s.Machine)
				}
				continue
			}
			switch s.Type {
			case domain.StateTypeClip:
				clips = append(clips, s.Clip)
			case domain.StateTypeBlend1D:
				for _, c := range s.Blend1D.Clips {
					clips = append(clips, c.Clip)
				}
			case domain.StateTypeBlend2D:
				for _, c := range s.Blend2D.Clips {
					clips = append(clips, c.Clip)
				}
			}
		}
	}
	visit(g)
	return clips
}
