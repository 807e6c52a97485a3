// Package snaptest is the public entry point of snapmesh.
//
// An Engine records the identity of the running test and matches values
// against baselines stored in <dir>/<group>_snapshots.<ext>:
//
//	var engine = snaptest.MustNew(snaptest.DefaultConfig(), snaptest.Hooks{})
//
//	func TestButton(t *testing.T) {
//		engine.Run(t, "Button", "renders default", func(t *testing.T) {
//			engine.Assert(t, render(Button{}))
//		})
//	}
//
// Run with SNAPMESH_UPDATE=true (or snapshot.mode=record) to write
// baselines instead of comparing. The engine is not safe for parallel
// tests; do not call t.Parallel inside Run.
package snaptest
