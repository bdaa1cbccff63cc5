// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rpcplugin

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"google.golang.org/protobuf/types/known/emptypb"
)

func TestControllerShutdown(t *testing.T) {
	var stops atomic.Int32
	stopCalled := make(chan struct{}, 2)
	c := &controllerServer{
		logger: hclog.NewNullLogger(),
		stop: func() {
			stops.Add(1)
			stopCalled <- struct{}{}
		},
	}

	// the RPC must return promptly; the stop runs in the background
	resp, err := c.Shutdown(context.Background(), &emptypb.Empty{})
	if err != nil || resp == nil {
		t.Fatalf("unexpected result %v, %v", resp, err)
	}

	select {
	case <-stopCalled:
	case <-time.After(5 * time.Second):
		t.Fatal("stop was never invoked")
	}

	// repeated shutdown requests stop the server only once
	if _, err := c.Shutdown(context.Background(), &emptypb.Empty{}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)
	if got := stops.Load(); got != 1 {
		t.Errorf("stop ran %d times", got)
	}
}
