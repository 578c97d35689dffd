// Package commands defines the seamscope CLI.
//
// Commands
//
//   - scan    Classify every seam in the configured areas and report results
//   - seams   List the seams discovered in each configured area
//   - export  Enumerate a seam's exact float grid and write points to CSV
//
// # Implementation
//
// The root command builds the shared logger before any subcommand runs.
// Subcommands construct a catalog from the --config area file and classify
// against the built-in analytic edge oracle.
package commands
