// Package domain defines the core domain models for snapmesh.
//
// Domain models are pure values without any IO dependencies:
//
//   - Task: identity of the test currently executing
//   - Content: insertion-ordered baseline entries of one group
//   - Errors: coded domain errors and the SnapshotError assertion failure
package domain
