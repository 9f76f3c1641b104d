/*
Package session persists and restores instance animation state.

A Snapshot captures what a player would notice across a save/load cycle:
each layer's current state, its playback time, and the parameter table.
The Manager serializes concurrent access per snapshot id with
reference-counted locks, so multiple goroutines saving and loading the
same character never interleave store operations.
*/
package session
