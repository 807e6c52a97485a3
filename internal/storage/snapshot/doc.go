// Package snapshot holds baseline groups in memory and moves them to and
// from a storage backend.
//
// One Group exists per distinct group name seen during a run. Its content
// is loaded lazily, at most once, and cached for the rest of the process.
// Each group also carries the call counter that turns a test title into
// an ordinal-qualified snapshot key:
//
//	"renders default" → "renders default 1", "renders default 2", ...
//
// Baselines live at <dir>/<group>_snapshots.<extension> and are encoded
// with either the JSON codec (default) or the exports codec:
//
//	exports[`renders default 1`] = `<button/>`
//
// Persisting content identical to what is already stored performs no
// write, so modification times only move when a baseline really changes.
package snapshot
