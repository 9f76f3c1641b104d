// Package domain holds the authoring-time model of an animation state
// machine: leaf states, nested sub-machines, transitions, parameters and
// layers. These types are what editors, importers and the dsl package
// produce; the compiler consumes them and emits the immutable
// machine.Definition shared by all runtime instances.
package domain
