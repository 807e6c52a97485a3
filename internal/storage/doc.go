// Package storage provides the byte-level backends that hold baseline files.
//
// Two backends are available:
//
//   - FileBackend: plain files on disk (the default); writes go through a
//     temporary file and a rename so a crashed run never leaves a torn file
//   - BadgerBackend: an embedded Badger database keyed by baseline path,
//     for suites that keep baselines off the working tree
//
// Backends know nothing about codecs or groups; the snapshot package sits
// on top of them.
package storage
