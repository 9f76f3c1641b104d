// Package machine holds the compiled, immutable form of an animation
// state machine: a flat array of leaf states with integer indices, packed
// payload and transition tables, and the quantized blend-curve pool.
//
// A Definition is built once by the compiler and thereafter shared
// read-only by any number of concurrently ticking instances; nothing in
// this package mutates it after construction. The pure transition timing
// and curve evaluation helpers live here too, next to the data they
// operate on.
package machine
