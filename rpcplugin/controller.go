// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rpcplugin

import (
	"context"
	"sync"

	"github.com/hashicorp/go-hclog"
	"google.golang.org/protobuf/types/known/emptypb"
)

// controllerServer answers the host's shutdown requests. The actual stop
// runs on a separate goroutine so this RPC can return before the server
// transport closes underneath it; in-flight calls then get the grace
// period to finish.
type controllerServer struct {
	logger hclog.Logger
	stop   func()

	once sync.Once
}

func (c *controllerServer) Shutdown(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error) {
	c.logger.Debug("shutdown requested by host")
	c.once.Do(func() {
		go c.stop()
	})
	return &emptypb.Empty{}, nil
}
