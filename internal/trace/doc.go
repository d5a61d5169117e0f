// Package trace drives the wire-verification prompt cycle. It exposes a
// persistence-backed engine that collects one directed wire edge per pass
// through a fixed phase sequence, commits edges to the record store,
// tracks partially-explored terminals on a discovery stack, and snapshots
// state before every commit so the operator can undo.
package trace
