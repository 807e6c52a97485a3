// Package service holds the snapshot matching engine.
//
// This package contains:
//
//   - Tracker: identity of the test currently executing
//   - Mode: resolution of the run mode and its capabilities
//   - Sanitize: removal of nondeterministic render markers
//   - Matcher: the compare/record state machine behind every assertion
//
// The Matcher is single threaded by contract. Collaborators that are
// functions (serializer, hooks) arrive through Hooks; the store, tracker
// and configuration are injected at construction.
package service
