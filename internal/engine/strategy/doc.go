// Package strategy provides the in-process execution strategies for the
// batch engine:
//
//   - Sequential: one item at a time on the calling goroutine. The ordering
//     baseline for correctness and the timing baseline for CPU-bound work.
//   - Pool: a bounded pool of worker goroutines, each owning its own session
//     for the lifetime of the run. The general-purpose choice for I/O-bound
//     batches.
//   - Cooperative: one lightweight task per item, all launched before any is
//     joined, sharing a single session. The Go rendition of an async event
//     loop. Scheduling CPU-bound work this way is a documented anti-pattern:
//     with no I/O yield points it cannot beat Sequential.
//
// The multi-process strategy lives in internal/procpool because it needs the
// worker-subprocess transport.
package strategy
