// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package rpcplugin serves a provider as a plugin process: it generates
// the per-process TLS identity, serves the provider protocol over gRPC
// together with the health and shutdown-controller services, emits the
// handshake line on stdout, and waits for termination.
//
// The host launches the plugin as a child process and reads exactly one
// line from its stdout:
//
//	1|6|tcp|127.0.0.1:<port>|grpc|<base64-DER-cert>
//
// Everything the plugin wants to log goes to stderr instead.
package rpcplugin

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	proto "github.com/apparentlymart/opentofu-providers/tofuprovider/grpc/tfplugin6"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/semaphore"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/opentofu/providersdk/internal/grpccontroller"
)

const (
	// coreProtocolVersion is the version of the plugin handshake protocol
	// itself, not of the provider protocol it carries.
	coreProtocolVersion = 1

	// protocolVersion is the provider plugin protocol major version.
	protocolVersion = 6

	// shutdownGrace is how long in-flight RPCs get to finish after the
	// host requests shutdown through the controller service.
	shutdownGrace = 2 * time.Second

	// parentPollInterval is how often the wait loop re-checks the server
	// state and the parent process.
	parentPollInterval = 1 * time.Second
)

// ServeConfig configures Serve.
type ServeConfig struct {
	// Provider is the protocol servicer to expose, typically built with
	// provider.NewServicer.
	Provider proto.ProviderServer

	// Port is the TCP port to listen on, on 127.0.0.1. Zero means an
	// OS-assigned port.
	Port int

	// Workers bounds how many RPCs run concurrently. The default of 10
	// gives the parallel flavour; 1 serializes all handler work, for
	// providers whose handlers are not safe to run concurrently.
	Workers int

	// Logger receives the plugin's own log output, on stderr by default.
	// Stdout belongs to the handshake and must never be logged to.
	Logger hclog.Logger

	// handshakeWriter overrides where the handshake line goes; tests use
	// this to capture it. Defaults to os.Stdout.
	handshakeWriter io.Writer

	// getppid overrides parent pid lookup in tests.
	getppid func() int
}

func (c *ServeConfig) withDefaults() ServeConfig {
	out := *c
	if out.Workers == 0 {
		out.Workers = 10
	}
	if out.Logger == nil {
		out.Logger = hclog.New(&hclog.LoggerOptions{
			Name:   "providersdk",
			Output: os.Stderr,
			Level:  hclog.Info,
		})
	}
	if out.handshakeWriter == nil {
		out.handshakeWriter = os.Stdout
	}
	if out.getppid == nil {
		out.getppid = os.Getppid
	}
	return out
}

// Serve runs the plugin until the host asks it to shut down, the parent
// process dies, or ctx is cancelled. It returns an error only for
// failures that happen before serving begins (key generation, listening);
// once the handshake line is out, termination is always reported as
// success.
func Serve(ctx context.Context, cfg ServeConfig) error {
	c := cfg.withDefaults()
	logger := c.Logger

	cert, err := generateServerCert()
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", c.Port))
	if err != nil {
		return fmt.Errorf("listening: %w", err)
	}
	port := lis.Addr().(*net.TCPAddr).Port

	server := grpc.NewServer(
		grpc.Creds(credentials.NewServerTLSFromCert(&cert.tlsCert)),
		grpc.UnaryInterceptor(workerGate(int64(c.Workers))),
	)

	stopped := make(chan struct{})
	controller := &controllerServer{
		logger: logger.Named("controller"),
		stop:   func() { gracefulStop(server, shutdownGrace) },
	}
	grpccontroller.RegisterServer(server, controller)
	server.RegisterService(&proto.Provider_ServiceDesc, c.Provider)
	healthDone := registerHealth(server)

	go func() {
		defer close(stopped)
		if err := server.Serve(lis); err != nil {
			logger.Error("serve ended with error", "error", err)
		}
	}()

	// Only now is the server reachable, so only now may the handshake
	// line go out. It is the single thing this process ever writes to
	// stdout.
	fmt.Fprintf(c.handshakeWriter, "%d|%d|tcp|127.0.0.1:%d|grpc|%s\n",
		coreProtocolVersion, protocolVersion, port, cert.base64)
	if f, ok := c.handshakeWriter.(*os.File); ok {
		f.Sync()
	}
	logger.Info("server listening", "address", lis.Addr().String())

	defer close(healthDone)
	defer armParentDeathSignal(logger)()

	// The host stops plugins with SIGKILL, which kills the immediate
	// child but leaves grandchildren intact. Plugins are commonly
	// launched through wrapper scripts, so the process watches for its
	// parent being replaced and exits on its own when that happens.
	parentPID := c.getppid()
	ticker := time.NewTicker(parentPollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stopped:
			logger.Info("server stopped")
			return nil
		case <-ctx.Done():
			logger.Info("context cancelled, stopping server")
			gracefulStop(server, shutdownGrace)
			<-stopped
			return nil
		case <-ticker.C:
			if c.getppid() != parentPID {
				logger.Warn("parent process died, stopping server")
				server.Stop()
				<-stopped
				return nil
			}
		}
	}
}

// gracefulStop stops the server, forcing the issue if in-flight calls
// have not finished within the grace period. It never fails: a stop that
// exceeds the grace period is still a successful stop.
func gracefulStop(server *grpc.Server, grace time.Duration) {
	done := make(chan struct{})
	go func() {
		server.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		server.Stop()
	}
}

// workerGate bounds the number of concurrently executing RPCs. With a
// single worker the server degrades to fully serialized handler
// execution; with more it behaves as a fixed-size pool.
func workerGate(workers int64) grpc.UnaryServerInterceptor {
	sem := semaphore.NewWeighted(workers)
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if err := sem.Acquire(ctx, 1); err != nil {
			return nil, err
		}
		defer sem.Release(1)
		return handler(ctx, req)
	}
}
