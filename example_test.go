package espalier_test

import (
	"fmt"
	"log"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/dsl"
	"github.com/aretw0/espalier/pkg/ports"
)

// ExampleNew demonstrates compiling a small locomotion graph with the
// fluent builder and ticking one instance through a parameter-driven
// crossfade.
func ExampleNew() {
	// 1. Author the graph. Idle and walk are looping clips connected by
	// a bool-gated crossfade in each direction.
	b := dsl.New("root").Entry("idle")
	b.Bool("moving", false)
	b.Clip("idle", "idle_loop").Loop().
		To("walk").Duration(0.2).When("moving", "eq", 1)
	b.Clip("walk", "walk_loop").Loop().
		To("idle").Duration(0.2).When("moving", "eq", 0)

	// 2. Compile. The clip source supplies durations so looping states
	// wrap and exit-time gates work.
	engine, err := espalier.NewFromGraph(b.MustBuild(),
		espalier.WithClipSource(ports.StaticClips{"idle_loop": 2, "walk_loop": 1}))
	if err != nil {
		log.Fatal(err)
	}

	// 3. Mint an instance and drive it. Setting the parameter fires the
	// authored transition on the next tick.
	inst := engine.NewInstance()
	engine.SetBool(inst, "moving", true)

	// One tick selects and starts the fade; finishing the 0.2s window
	// commits it.
	inst.Tick(0.1)
	inst.Tick(0.1)
	inst.Tick(0.1)

	for _, s := range inst.ComposedSamples() {
		fmt.Printf("%s w=%.1f\n", s.Clip, s.Weight)
	}
	// Output:
	// walk_loop w=1.0
}
