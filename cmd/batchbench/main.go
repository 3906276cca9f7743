// Command batchbench compares concurrency strategies (sequential, goroutine
// pool, cooperative tasks, and a process pool) over I/O-bound and CPU-bound
// batch workloads.
package main

import (
	"os"

	"github.com/brhoades44/batchbench/internal/cli"
)

// version is stamped by the release build via -ldflags.
var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
