// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rpcplugin

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	proto "github.com/apparentlymart/opentofu-providers/tofuprovider/grpc/tfplugin6"
	"github.com/hashicorp/go-hclog"
)

// lineWriter hands each written line to a channel, standing in for the
// stdout the host reads the handshake from.
type lineWriter struct {
	lines chan string
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.lines <- string(p)
	return len(p), nil
}

type unimplementedProvider struct {
	proto.UnimplementedProviderServer
}

func TestServeHandshake(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := &lineWriter{lines: make(chan string, 1)}
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ServeConfig{
			Provider:        &unimplementedProvider{},
			Logger:          hclog.NewNullLogger(),
			handshakeWriter: w,
		})
	}()

	var line string
	select {
	case line = <-w.lines:
	case err := <-done:
		t.Fatalf("serve returned before handshake: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for handshake line")
	}

	if !strings.HasSuffix(line, "\n") {
		t.Errorf("handshake line must end with a newline: %q", line)
	}
	fields := strings.Split(strings.TrimSuffix(line, "\n"), "|")
	if len(fields) != 6 {
		t.Fatalf("handshake must have 6 fields, got %d: %q", len(fields), line)
	}
	if fields[0] != "1" || fields[1] != "6" || fields[2] != "tcp" || fields[4] != "grpc" {
		t.Errorf("wrong handshake fields: %q", line)
	}
	if !regexp.MustCompile(`^127\.0\.0\.1:\d+$`).MatchString(fields[3]) {
		t.Errorf("wrong network address %q", fields[3])
	}
	if len(fields[5]) < 500 {
		t.Errorf("certificate field too short (%d chars)", len(fields[5]))
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve failed: %s", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for serve to stop")
	}
}

func TestServeParentDeath(t *testing.T) {
	ctx := context.Background()

	ppid := make(chan int, 4)
	ppid <- 100 // initial lookup
	w := &lineWriter{lines: make(chan string, 1)}
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ServeConfig{
			Provider:        &unimplementedProvider{},
			Logger:          hclog.NewNullLogger(),
			handshakeWriter: w,
			getppid: func() int {
				select {
				case v := <-ppid:
					return v
				default:
					return 1 // reparented to init
				}
			},
		})
	}()

	select {
	case <-w.lines:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for handshake line")
	}

	// the first poll tick observes the changed parent pid and stops
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("serve failed: %s", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop after parent death")
	}
}

func TestServeFixedPortConflict(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := &lineWriter{lines: make(chan string, 1)}
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ServeConfig{
			Provider:        &unimplementedProvider{},
			Logger:          hclog.NewNullLogger(),
			handshakeWriter: w,
		})
	}()

	var line string
	select {
	case line = <-w.lines:
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for handshake line")
	}
	addr := strings.Split(strings.TrimSuffix(line, "\n"), "|")[3]
	port := strings.TrimPrefix(addr, "127.0.0.1:")

	// a second server on the same fixed port must fail before handshake
	portNum, err := strconv.Atoi(port)
	if err != nil {
		t.Fatalf("bad port %q", port)
	}
	err = Serve(ctx, ServeConfig{
		Provider:        &unimplementedProvider{},
		Port:            portNum,
		Logger:          hclog.NewNullLogger(),
		handshakeWriter: &lineWriter{lines: make(chan string, 1)},
	})
	if err == nil {
		t.Fatal("expected bind failure on occupied port")
	}

	cancel()
	<-done
}
