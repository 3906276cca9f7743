package procpool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"

	"github.com/brhoades44/batchbench/internal/logging"
	"github.com/brhoades44/batchbench/internal/workload"
)

// Serve is the worker-process entry point. It binds 127.0.0.1:port, accepts
// the single host connection, announces the protocol version, and answers
// calls until the host disconnects or ctx is cancelled.
//
// The worker owns exactly one workload session, created lazily on the first
// item that needs it and released when the loop exits.
func Serve(ctx context.Context, port int) error {
	log := logging.ComponentLogger(*logging.FromContext(ctx), "worker")

	lc := &net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return fmt.Errorf("binding worker port %d: %w", port, err)
	}
	defer ln.Close()

	// Closing the listener unblocks Accept when the run is cancelled.
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	log.Debug().Int("port", port).Int("pid", os.Getpid()).Msg("worker listening")

	conn, err := ln.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("accepting host connection: %w", err)
	}
	defer conn.Close()

	// Unblock pending reads on cancellation as well.
	stopConn := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stopConn()

	enc := json.NewEncoder(conn)
	dec := json.NewDecoder(conn)

	if err := enc.Encode(Hello{Protocol: ProtocolVersion, PID: os.Getpid()}); err != nil {
		return fmt.Errorf("sending hello: %w", err)
	}

	sess := workload.NewSession()
	defer sess.Close()

	for {
		var call Call
		if err := dec.Decode(&call); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				log.Debug().Msg("host disconnected, worker exiting")
				return nil
			}
			return fmt.Errorf("reading call: %w", err)
		}

		reply := Reply{ID: call.ID}
		resp, err := sess.Do(ctx, call.Request)
		if err != nil {
			reply.Error = err.Error()
		} else {
			reply.Response = resp
		}

		if err := enc.Encode(reply); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("writing reply %d: %w", call.ID, err)
		}
	}
}
