// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package grpccontroller carries the service descriptor for the plugin
// host's GRPCController service, through which the host requests an
// orderly plugin shutdown.
//
// The service has a single method taking and returning an empty message:
//
//	service GRPCController {
//	  rpc Shutdown(Empty) returns (Empty);
//	}
//
// The descriptor is written out by hand rather than generated: both
// messages are empty, so the well-known Empty type stands in for them on
// the wire.
package grpccontroller

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
)

// ServiceName is the fully qualified name the host dials.
const ServiceName = "plugin.GRPCController"

// Server is the interface a shutdown controller implements.
type Server interface {
	Shutdown(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

// RegisterServer registers a controller implementation with a gRPC
// server.
func RegisterServer(s grpc.ServiceRegistrar, srv Server) {
	s.RegisterService(&ServiceDesc, srv)
}

func shutdownHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(Server).Shutdown(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/" + ServiceName + "/Shutdown",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(Server).Shutdown(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// ServiceDesc is the grpc.ServiceDesc for the GRPCController service.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*Server)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Shutdown",
			Handler:    shutdownHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "grpc_controller.proto",
}
