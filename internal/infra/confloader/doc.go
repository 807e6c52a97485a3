// Package confloader loads layered configuration with koanf.
//
// Sources, lowest priority first:
//
//  1. Default values (already present in the target struct)
//  2. A YAML configuration file
//  3. Environment variables (SNAPMESH_SECTION_KEY)
//  4. Explicit maps, used by CLI flags and tests
//
// The Watcher reports changes to a watched file or directory through
// fsnotify; snapmesh-cli uses it to follow a snapshot directory.
package confloader
