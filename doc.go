// Package espalier is a runtime engine for skeletal-animation state
// machines. It compiles an author-time hierarchical graph (nested
// sub-machines, parametric blend trees, conditional transitions) into a
// flat, immutable runtime description, and evaluates smooth time-based
// crossfades between states every simulation tick, including multi-layer
// override/additive composition.
//
// The package name comes from the horticultural practice of training a
// tree flat against a trellis: the compiler takes a deeply nested
// authoring graph and flattens it into a dense array of leaf states with
// integer cross-references, cheap to share read-only across any number of
// concurrently ticking instances.
//
// Typical use:
//
//	engine, err := espalier.New(rig,
//		espalier.WithClipSource(clips),
//		espalier.WithLogger(logger))
//	if err != nil { ... }
//
//	inst := engine.NewInstance()
//	engine.SetFloat(inst, "speed", 3.2)
//	inst.Tick(dt)
//	for _, s := range inst.ComposedSamples() {
//		sampler.Sample(s.Clip, s.Time, s.Weight)
//	}
//
// Pose sampling, clip storage and the entity/component substrate are
// external collaborators behind the interfaces in pkg/ports; this module
// only computes which clips to sample, at what time, at what weight.
package espalier
