// Package output formats snapmesh-cli results.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned tables; long or multi-line cells are shortened
//     unless wide output is requested
//   - json.go: indented JSON without HTML escaping
//   - yaml.go: YAML through gopkg.in/yaml.v3
package output
