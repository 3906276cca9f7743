// Package procpool implements the multi-process execution strategy: worker
// subprocesses of the current binary, each listening on a loopback TCP port
// and answering newline-delimited JSON calls. Workers share no memory with
// the host; only serialized workload requests and responses cross the
// boundary.
package procpool

import (
	"fmt"

	"github.com/Masterminds/semver/v3"

	"github.com/brhoades44/batchbench/internal/workload"
)

// ProtocolVersion is announced by a worker in its hello message. The host
// accepts any worker within the same major version.
const ProtocolVersion = "1.0.0"

// protocolConstraintExpr is the host-side compatibility window.
const protocolConstraintExpr = "^1"

// Hello is the first message on a worker connection, worker to host.
type Hello struct {
	Protocol string `json:"protocol"`
	PID      int    `json:"pid"`
}

// Call is one dispatched work item, host to worker.
type Call struct {
	ID      int              `json:"id"`
	Request workload.Request `json:"request"`
}

// Reply answers a Call. Error is the flattened per-item failure message;
// errors do not round-trip as typed values across the process boundary.
type Reply struct {
	ID       int               `json:"id"`
	Response workload.Response `json:"response"`
	Error    string            `json:"error,omitempty"`
}

// CheckProtocol validates a worker-announced protocol version against the
// host's compatibility window.
func CheckProtocol(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("worker announced invalid protocol version %q: %w", version, err)
	}
	c, err := semver.NewConstraint(protocolConstraintExpr)
	if err != nil {
		return fmt.Errorf("parsing protocol constraint: %w", err)
	}
	if !c.Check(v) {
		return fmt.Errorf("worker protocol %s is outside the supported range %s", version, protocolConstraintExpr)
	}
	return nil
}
