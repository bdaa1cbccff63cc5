// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"

	proto "github.com/apparentlymart/opentofu-providers/tofuprovider/grpc/tfplugin6"
	"github.com/hashicorp/go-hclog"

	"github.com/opentofu/providersdk/schema"
	"github.com/opentofu/providersdk/tfdiags"
)

// Servicer adapts a Provider implementation to the plugin protocol's gRPC
// service. One servicer serves one provider process; it owns the resource
// table, the provider state produced by ConfigureProvider, and the
// conversion of handler failures into error diagnostics.
type Servicer[PS, PC any] struct {
	proto.UnimplementedProviderServer

	impl      Provider[PS, PC]
	resources map[string]boundResource[PS]
	logger    hclog.Logger

	initOnce sync.Once

	mu         sync.RWMutex
	state      PS
	configured bool
}

// NewServicer builds the servicer, instantiating every registered
// resource. Resource type names must be unique.
func NewServicer[PS, PC any](impl Provider[PS, PC], logger hclog.Logger) (*Servicer[PS, PC], error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := &Servicer[PS, PC]{
		impl:      impl,
		resources: make(map[string]boundResource[PS]),
		logger:    logger,
	}
	for _, reg := range impl.Resources() {
		name := reg.typeName()
		if _, dup := s.resources[name]; dup {
			return nil, fmt.Errorf("duplicate resource type name %q", name)
		}
		s.resources[name] = reg.bind()
	}
	return s, nil
}

// guard runs fn, converting a returned error or a panic into a single
// error diagnostic. The gRPC call itself always succeeds; the client
// decides what to do with the diagnostics.
func (s *Servicer[PS, PC]) guard(diags *tfdiags.Diagnostics, about string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic", "while", about, "panic", r)
			diags.AddError(fmt.Sprintf("%v", r), string(debug.Stack()))
		}
	}()
	if err := fn(); err != nil {
		s.logger.Debug("handler failure", "while", about, "error", err)
		var fieldErr *schema.FieldError
		if errors.As(err, &fieldErr) {
			diags.AddAttributeError(
				tfdiags.RootPath.Attribute(fieldErr.Name),
				err.Error(),
				fmt.Sprintf("An unsuitable value was found while %s.", about),
			)
			return
		}
		diags.AddError(err.Error(), fmt.Sprintf("This failure occurred while %s.", about))
	}
}

func (s *Servicer[PS, PC]) resource(typeName string, diags *tfdiags.Diagnostics) boundResource[PS] {
	res, ok := s.resources[typeName]
	if !ok {
		diags.AddError(
			"Unsupported resource type",
			fmt.Sprintf("This provider does not support managed resource type %q.", typeName),
		)
		return nil
	}
	return res
}

func (s *Servicer[PS, PC]) providerState() PS {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Servicer[PS, PC]) GetMetadata(ctx context.Context, req *proto.GetMetadata_Request) (*proto.GetMetadata_Response, error) {
	s.logger.Debug("GetMetadata")
	var diags tfdiags.Diagnostics
	s.initOnce.Do(func() {
		s.guard(&diags, "initializing the provider", func() error {
			s.impl.Init(&diags)
			return nil
		})
	})

	resp := &proto.GetMetadata_Response{
		ServerCapabilities: serverCapabilities(),
		Diagnostics:        diags.ToProto(),
	}
	names := make([]string, 0, len(s.resources))
	for name := range s.resources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		resp.Resources = append(resp.Resources, &proto.GetMetadata_ResourceMetadata{
			TypeName: name,
		})
	}
	return resp, nil
}

func (s *Servicer[PS, PC]) GetProviderSchema(ctx context.Context, req *proto.GetProviderSchema_Request) (*proto.GetProviderSchema_Response, error) {
	s.logger.Debug("GetProviderSchema")
	var diags tfdiags.Diagnostics
	var resp *proto.GetProviderSchema_Response
	s.guard(&diags, "building the provider schema", func() error {
		ps := schema.ProviderSchema{
			Provider:        s.impl.Definition().Schema(),
			ResourceSchemas: make(map[string]schema.Schema, len(s.resources)),
		}
		for name, res := range s.resources {
			ps.ResourceSchemas[name] = res.Schema()
		}
		var err error
		resp, err = ps.ToProto()
		return err
	})
	if resp == nil {
		resp = &proto.GetProviderSchema_Response{}
	}
	resp.ServerCapabilities = serverCapabilities()
	resp.Diagnostics = append(resp.Diagnostics, diags.ToProto()...)
	return resp, nil
}

func (s *Servicer[PS, PC]) ValidateProviderConfig(ctx context.Context, req *proto.ValidateProviderConfig_Request) (*proto.ValidateProviderConfig_Response, error) {
	s.logger.Debug("ValidateProviderConfig")
	var diags tfdiags.Diagnostics
	s.guard(&diags, "validating the provider configuration", func() error {
		cfg, err := s.decodeProviderConfig(req.Config)
		if err != nil {
			return err
		}
		s.impl.ValidateConfig(ctx, cfg, &diags)
		return nil
	})
	return &proto.ValidateProviderConfig_Response{Diagnostics: diags.ToProto()}, nil
}

func (s *Servicer[PS, PC]) ConfigureProvider(ctx context.Context, req *proto.ConfigureProvider_Request) (*proto.ConfigureProvider_Response, error) {
	s.logger.Debug("ConfigureProvider", "terraform_version", req.TerraformVersion)
	var diags tfdiags.Diagnostics
	s.guard(&diags, "configuring the provider", func() error {
		cfg, err := s.decodeProviderConfig(req.Config)
		if err != nil {
			return err
		}
		state := s.impl.Configure(ctx, cfg, &diags)
		if !diags.HasErrors() {
			s.mu.Lock()
			s.state = state
			s.configured = true
			s.mu.Unlock()
		}
		return nil
	})
	return &proto.ConfigureProvider_Response{Diagnostics: diags.ToProto()}, nil
}

func (s *Servicer[PS, PC]) ValidateResourceConfig(ctx context.Context, req *proto.ValidateResourceConfig_Request) (*proto.ValidateResourceConfig_Response, error) {
	s.logger.Debug("ValidateResourceConfig", "type_name", req.TypeName)
	var diags tfdiags.Diagnostics
	s.guard(&diags, "validating the resource configuration", func() error {
		res := s.resource(req.TypeName, &diags)
		if res == nil {
			return nil
		}
		return res.Validate(ctx, req.Config, &diags)
	})
	return &proto.ValidateResourceConfig_Response{Diagnostics: diags.ToProto()}, nil
}

func (s *Servicer[PS, PC]) PlanResourceChange(ctx context.Context, req *proto.PlanResourceChange_Request) (*proto.PlanResourceChange_Response, error) {
	s.logger.Debug("PlanResourceChange", "type_name", req.TypeName)
	resp := &proto.PlanResourceChange_Response{}
	var diags tfdiags.Diagnostics
	s.guard(&diags, "planning the resource change", func() error {
		res := s.resource(req.TypeName, &diags)
		if res == nil {
			return nil
		}
		planned, requiresReplace, err := res.Plan(ctx, s.providerState(), req.PriorState, req.Config, req.ProposedNewState, &diags)
		if err != nil {
			return err
		}
		resp.PlannedState = planned
		resp.RequiresReplace = requiresReplace
		return nil
	})
	resp.Diagnostics = diags.ToProto()
	return resp, nil
}

func (s *Servicer[PS, PC]) ApplyResourceChange(ctx context.Context, req *proto.ApplyResourceChange_Request) (*proto.ApplyResourceChange_Response, error) {
	s.logger.Debug("ApplyResourceChange", "type_name", req.TypeName)
	resp := &proto.ApplyResourceChange_Response{}
	var diags tfdiags.Diagnostics
	s.guard(&diags, "applying the resource change", func() error {
		res := s.resource(req.TypeName, &diags)
		if res == nil {
			return nil
		}
		newState, err := res.Apply(ctx, s.providerState(), req.PriorState, req.Config, req.PlannedState, &diags)
		if err != nil {
			return err
		}
		resp.NewState = newState
		return nil
	})
	resp.Diagnostics = diags.ToProto()
	return resp, nil
}

func (s *Servicer[PS, PC]) ReadResource(ctx context.Context, req *proto.ReadResource_Request) (*proto.ReadResource_Response, error) {
	s.logger.Debug("ReadResource", "type_name", req.TypeName)
	resp := &proto.ReadResource_Response{}
	var diags tfdiags.Diagnostics
	s.guard(&diags, "reading the resource", func() error {
		res := s.resource(req.TypeName, &diags)
		if res == nil {
			return nil
		}
		newState, err := res.Read(ctx, s.providerState(), req.CurrentState, &diags)
		if err != nil {
			return err
		}
		resp.NewState = newState
		return nil
	})
	resp.Diagnostics = diags.ToProto()
	return resp, nil
}

func (s *Servicer[PS, PC]) UpgradeResourceState(ctx context.Context, req *proto.UpgradeResourceState_Request) (*proto.UpgradeResourceState_Response, error) {
	s.logger.Debug("UpgradeResourceState", "type_name", req.TypeName, "version", req.Version)
	resp := &proto.UpgradeResourceState_Response{}
	var diags tfdiags.Diagnostics
	s.guard(&diags, "upgrading the resource state", func() error {
		res := s.resource(req.TypeName, &diags)
		if res == nil {
			return nil
		}
		upgraded, err := res.Upgrade(ctx, req.RawState, req.Version, &diags)
		if err != nil {
			return err
		}
		resp.UpgradedState = upgraded
		return nil
	})
	resp.Diagnostics = diags.ToProto()
	return resp, nil
}

func (s *Servicer[PS, PC]) ImportResourceState(ctx context.Context, req *proto.ImportResourceState_Request) (*proto.ImportResourceState_Response, error) {
	s.logger.Debug("ImportResourceState", "type_name", req.TypeName, "id", req.Id)
	resp := &proto.ImportResourceState_Response{}
	var diags tfdiags.Diagnostics
	s.guard(&diags, "importing the resource", func() error {
		res := s.resource(req.TypeName, &diags)
		if res == nil {
			return nil
		}
		state, err := res.Import(ctx, s.providerState(), req.Id, &diags)
		if err != nil {
			return err
		}
		if state != nil {
			resp.ImportedResources = append(resp.ImportedResources, &proto.ImportResourceState_ImportedResource{
				TypeName: req.TypeName,
				State:    state,
			})
		}
		return nil
	})
	resp.Diagnostics = diags.ToProto()
	return resp, nil
}

// StopProvider is acknowledged without doing anything; cancellation is
// driven by the client closing the gRPC channel.
func (s *Servicer[PS, PC]) StopProvider(ctx context.Context, req *proto.StopProvider_Request) (*proto.StopProvider_Response, error) {
	s.logger.Debug("StopProvider")
	return &proto.StopProvider_Response{}, nil
}

func (s *Servicer[PS, PC]) decodeProviderConfig(dv *proto.DynamicValue) (PC, error) {
	var zero PC
	if dv == nil {
		return zero, fmt.Errorf("missing provider configuration in request")
	}
	return s.impl.Definition().Record.Decode(dv.Msgpack, dv.Json)
}

func serverCapabilities() *proto.ServerCapabilities {
	return &proto.ServerCapabilities{
		PlanDestroy:               false,
		GetProviderSchemaOptional: false,
	}
}
