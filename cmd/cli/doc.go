// Package cli constructs the gitmcp command-line interface, wiring the Cobra
// command hierarchy, configuration loader, and structured logging primitives.
// Running the root command starts the protocol server on standard input and
// output.
package cli
