// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package provider

import (
	"context"
	"fmt"

	proto "github.com/apparentlymart/opentofu-providers/tofuprovider/grpc/tfplugin6"

	"github.com/opentofu/providersdk/schema"
	"github.com/opentofu/providersdk/tfdiags"
)

// ResourceRegistration is an entry in a provider's resource list. The
// resource's record type is erased here so resources with different
// config types can share one list; build registrations with NewResource.
type ResourceRegistration[PS any] interface {
	typeName() string
	bind() boundResource[PS]
}

// NewResource registers a resource implementation with its provider.
func NewResource[PS, RC any](impl Resource[PS, RC]) ResourceRegistration[PS] {
	return &resourceAdapter[PS, RC]{impl: impl}
}

// boundResource is the record-type-erased surface the servicer dispatches
// through. Every method decodes from and encodes to wire messages; codec
// failures come back as errors for the servicer's guard to convert.
type boundResource[PS any] interface {
	Schema() schema.Schema

	Validate(ctx context.Context, config *proto.DynamicValue, diags *tfdiags.Diagnostics) error
	Plan(ctx context.Context, ps PS, prior, config, proposed *proto.DynamicValue, diags *tfdiags.Diagnostics) (*proto.DynamicValue, []*proto.AttributePath, error)
	Apply(ctx context.Context, ps PS, prior, config, planned *proto.DynamicValue, diags *tfdiags.Diagnostics) (*proto.DynamicValue, error)
	Read(ctx context.Context, ps PS, current *proto.DynamicValue, diags *tfdiags.Diagnostics) (*proto.DynamicValue, error)
	Upgrade(ctx context.Context, raw *proto.RawState, version int64, diags *tfdiags.Diagnostics) (*proto.DynamicValue, error)
	Import(ctx context.Context, ps PS, id string, diags *tfdiags.Diagnostics) (*proto.DynamicValue, error)
}

type resourceAdapter[PS, RC any] struct {
	impl Resource[PS, RC]
}

func (a *resourceAdapter[PS, RC]) typeName() string { return a.impl.TypeName() }

func (a *resourceAdapter[PS, RC]) bind() boundResource[PS] { return a }

func (a *resourceAdapter[PS, RC]) record() *schema.Record[RC] {
	return a.impl.Definition().Record
}

func (a *resourceAdapter[PS, RC]) Schema() schema.Schema {
	return a.impl.Definition().Schema()
}

func (a *resourceAdapter[PS, RC]) Validate(ctx context.Context, config *proto.DynamicValue, diags *tfdiags.Diagnostics) error {
	cfg, err := a.decode(config)
	if err != nil {
		return err
	}
	a.impl.ValidateConfig(ctx, cfg, diags)
	return nil
}

func (a *resourceAdapter[PS, RC]) Plan(ctx context.Context, ps PS, prior, config, proposed *proto.DynamicValue, diags *tfdiags.Diagnostics) (*proto.DynamicValue, []*proto.AttributePath, error) {
	priorState, err := a.decodeOptional(prior)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := a.decode(config)
	if err != nil {
		return nil, nil, err
	}
	proposedState, err := a.decodeOptional(proposed)
	if err != nil {
		return nil, nil, err
	}

	planned, requiresReplace := a.impl.Plan(ctx, ps, priorState, cfg, proposedState, diags)

	plannedDV, err := a.encodeOptional(planned)
	if err != nil {
		return nil, nil, err
	}
	var paths []*proto.AttributePath
	for _, p := range requiresReplace {
		paths = append(paths, p.ToProto())
	}
	return plannedDV, paths, nil
}

func (a *resourceAdapter[PS, RC]) Apply(ctx context.Context, ps PS, prior, config, planned *proto.DynamicValue, diags *tfdiags.Diagnostics) (*proto.DynamicValue, error) {
	priorState, err := a.decodeOptional(prior)
	if err != nil {
		return nil, err
	}
	cfg, err := a.decodeOptional(config)
	if err != nil {
		return nil, err
	}
	plannedState, err := a.decodeOptional(planned)
	if err != nil {
		return nil, err
	}

	newState := a.impl.Apply(ctx, ps, priorState, cfg, plannedState, diags)
	return a.encodeOptional(newState)
}

func (a *resourceAdapter[PS, RC]) Read(ctx context.Context, ps PS, current *proto.DynamicValue, diags *tfdiags.Diagnostics) (*proto.DynamicValue, error) {
	currentState, err := a.decode(current)
	if err != nil {
		return nil, err
	}
	newState := a.impl.Read(ctx, ps, currentState, diags)
	return a.encodeOptional(newState)
}

func (a *resourceAdapter[PS, RC]) Upgrade(ctx context.Context, raw *proto.RawState, version int64, diags *tfdiags.Diagnostics) (*proto.DynamicValue, error) {
	var jsonBody []byte
	var flatmap map[string]string
	if raw != nil {
		jsonBody = raw.Json
		flatmap = raw.Flatmap
	}
	state, err := a.record().DecodeRawState(jsonBody, flatmap)
	if err != nil {
		return nil, err
	}
	upgraded := a.impl.UpgradeState(ctx, state, version, diags)
	return a.encodeOptional(upgraded)
}

func (a *resourceAdapter[PS, RC]) Import(ctx context.Context, ps PS, id string, diags *tfdiags.Diagnostics) (*proto.DynamicValue, error) {
	state := a.impl.Import(ctx, ps, id, diags)
	if state == nil {
		return nil, nil
	}
	body, err := a.record().Encode(state)
	if err != nil {
		return nil, err
	}
	return &proto.DynamicValue{Msgpack: body}, nil
}

func (a *resourceAdapter[PS, RC]) decode(dv *proto.DynamicValue) (RC, error) {
	var zero RC
	if dv == nil {
		return zero, fmt.Errorf("missing dynamic value in request")
	}
	return a.record().Decode(dv.Msgpack, dv.Json)
}

func (a *resourceAdapter[PS, RC]) decodeOptional(dv *proto.DynamicValue) (*RC, error) {
	if dv == nil || (len(dv.Msgpack) == 0 && len(dv.Json) == 0) {
		return nil, nil
	}
	return a.record().DecodeOptional(dv.Msgpack, dv.Json)
}

func (a *resourceAdapter[PS, RC]) encodeOptional(r *RC) (*proto.DynamicValue, error) {
	body, err := a.record().EncodeOptional(r)
	if err != nil {
		return nil, err
	}
	return &proto.DynamicValue{Msgpack: body}, nil
}
