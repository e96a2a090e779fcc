// Package cmd implements the command-line interface of poolfs. It provides a
// hierarchical command structure for running the file server, talking to it as
// a client and benchmarking it.
//
// The package is organized into several subpackages:
//
//   - serve: Starts the file server with a thread or process worker pool
//   - worker: The hidden command every process pool worker runs
//   - file: Client commands (list, get, upload, send) and the perf stress test
//   - bench: Runs the benchmark matrix against freshly started servers
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See poolfs -help for a list of all commands.
package cmd
