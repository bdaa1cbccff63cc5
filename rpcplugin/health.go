// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rpcplugin

import (
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// healthToggleInterval is how often the advertised health status flips.
const healthToggleInterval = 5 * time.Second

// healthServiceName is the service whose status gets toggled. Clients
// watching for liveness transitions see a change every interval.
const healthServiceName = "helloworld.Greeter"

// registerHealth adds the standard gRPC health service and starts a
// background toggler as a liveness witness. Closing the returned channel
// stops the toggler.
func registerHealth(server *grpc.Server) chan struct{} {
	hs := health.NewServer()
	healthpb.RegisterHealthServer(server, hs)

	done := make(chan struct{})
	go func() {
		status := healthpb.HealthCheckResponse_SERVING
		ticker := time.NewTicker(healthToggleInterval)
		defer ticker.Stop()
		for {
			hs.SetServingStatus(healthServiceName, status)
			if status == healthpb.HealthCheckResponse_SERVING {
				status = healthpb.HealthCheckResponse_NOT_SERVING
			} else {
				status = healthpb.HealthCheckResponse_SERVING
			}
			select {
			case <-done:
				return
			case <-ticker.C:
			}
		}
	}()
	return done
}
