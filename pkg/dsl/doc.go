// Package dsl provides a fluent builder for authoring animation graphs
// in Go code, primarily for tests, examples and procedurally generated
// controllers. The output is a plain domain.Graph, identical to what the
// YAML loader produces.
package dsl
