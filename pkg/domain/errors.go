package domain

import (
	"errors"
	"fmt"
)

// ErrUnresolvedEntry is returned when a machine's entry state cannot be
// resolved to a leaf.
var ErrUnresolvedEntry = errors.New("unresolved entry state")

// ErrUnknownTarget is returned when a transition target cannot be resolved
// to any flattened leaf.
var ErrUnknownTarget = errors.New("unknown transition target")

// ErrUnboundParameter is returned when a parameter reference matches
// neither the link table nor any ancestor slot by name and type.
var ErrUnboundParameter = errors.New("unbound parameter")

// ErrMissingClip is returned when a leaf state references no clip.
var ErrMissingClip = errors.New("missing clip")

// ErrLayerRange is returned when a caller addresses a layer index outside
// the rig's bounds.
var ErrLayerRange = errors.New("layer index out of range")

// ErrTooManyLayers is returned when a rig declares more than MaxLayers.
var ErrTooManyLayers = errors.New("too many layers")

// ErrSnapshotNotFound is returned by snapshot stores when no snapshot
// exists under the requested id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// BuildError reports a compilation failure at a specific node. Path is the
// slash-joined state path from the root machine.
type BuildError struct {
	Path string
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build failed at %q: %v", e.Path, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
