// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package provider is the typed API a provider implements, plus the
// servicer that adapts an implementation to the plugin protocol's gRPC
// surface.
//
// A provider is generic over two types: PS, an arbitrary provider state
// value produced once during provider configuration and handed to every
// resource handler, and PC, the record type of the provider's own
// configuration block. Each resource is additionally generic over RC, the
// record type of its configuration and state.
package provider

import (
	"context"

	"github.com/opentofu/providersdk/schema"
	"github.com/opentofu/providersdk/tfdiags"
)

// Definition ties a record binding to the schema and block versions it is
// served under.
type Definition[C any] struct {
	Record          *schema.Record[C]
	SchemaVersion   int64
	BlockVersion    int64
	Description     string
	DescriptionKind schema.StringKind
}

// Schema materializes the wire schema for this definition.
func (d *Definition[C]) Schema() schema.Schema {
	return schema.Schema{
		Version: d.SchemaVersion,
		Block: schema.Block{
			Version:         d.BlockVersion,
			Attributes:      d.Record.Attributes(),
			Description:     d.Description,
			DescriptionKind: d.DescriptionKind,
		},
	}
}

// Provider is implemented by the user-defined provider object.
//
// Embed Base to get no-op implementations of the optional methods.
type Provider[PS, PC any] interface {
	// Definition describes the provider's own configuration block.
	Definition() *Definition[PC]

	// Resources enumerates the provider's resource types. It is consulted
	// once, when the servicer is constructed.
	Resources() []ResourceRegistration[PS]

	// Init runs once, before the first metadata response.
	Init(diags *tfdiags.Diagnostics)

	// ValidateConfig checks a proposed provider configuration.
	ValidateConfig(ctx context.Context, config PC, diags *tfdiags.Diagnostics)

	// Configure produces the provider state shared with every resource
	// handler. The servicer treats the returned value as immutable.
	Configure(ctx context.Context, config PC, diags *tfdiags.Diagnostics) PS
}

// Base provides no-op implementations of the optional Provider methods.
type Base[PS, PC any] struct{}

func (Base[PS, PC]) Init(*tfdiags.Diagnostics) {}

func (Base[PS, PC]) ValidateConfig(context.Context, PC, *tfdiags.Diagnostics) {}

func (Base[PS, PC]) Configure(context.Context, PC, *tfdiags.Diagnostics) PS {
	var zero PS
	return zero
}

// Resource is implemented by each managed resource type.
//
// The prior, planned and proposed arguments are nil when the
// corresponding object does not exist: prior is nil while creating,
// planned and config are nil while destroying, and proposed is nil in a
// destroy plan. Handlers report problems by appending to diags; an RPC
// whose diagnostics contain an error is treated as failed by the client.
//
// Embed ResourceBase for reasonable defaults of everything but TypeName,
// Definition, Apply and Read.
type Resource[PS, RC any] interface {
	// TypeName returns the resource type name, e.g. "examplecloud_thing".
	// Type names must be unique within a provider.
	TypeName() string

	// Definition describes the resource's configuration and state block.
	Definition() *Definition[RC]

	// ValidateConfig checks a proposed resource configuration.
	ValidateConfig(ctx context.Context, config RC, diags *tfdiags.Diagnostics)

	// Plan produces the planned new state, plus the paths of any
	// attributes whose change requires replacing the resource. Plan must
	// be deterministic given its inputs; returning proposed unchanged is
	// the identity plan.
	Plan(ctx context.Context, ps PS, prior *RC, config RC, proposed *RC, diags *tfdiags.Diagnostics) (*RC, []*tfdiags.AttributePath)

	// Apply performs the planned change and returns the new state, or nil
	// when the resource was destroyed.
	Apply(ctx context.Context, ps PS, prior *RC, config *RC, planned *RC, diags *tfdiags.Diagnostics) *RC

	// Read refreshes the state from the external world, returning nil
	// when the resource no longer exists.
	Read(ctx context.Context, ps PS, current RC, diags *tfdiags.Diagnostics) *RC

	// UpgradeState converts state stored under an older schema version to
	// the current one. It can run before Configure, so it gets no
	// provider state.
	UpgradeState(ctx context.Context, state *RC, version int64, diags *tfdiags.Diagnostics) *RC

	// Import produces state for an existing external object addressed by
	// an opaque import ID.
	Import(ctx context.Context, ps PS, id string, diags *tfdiags.Diagnostics) *RC
}

// ResourceBase provides defaults for the optional Resource methods: no
// extra validation, the identity plan, the identity state upgrade, and an
// Import that reports imports as unsupported.
type ResourceBase[PS, RC any] struct{}

func (ResourceBase[PS, RC]) ValidateConfig(context.Context, RC, *tfdiags.Diagnostics) {}

func (ResourceBase[PS, RC]) Plan(ctx context.Context, ps PS, prior *RC, config RC, proposed *RC, diags *tfdiags.Diagnostics) (*RC, []*tfdiags.AttributePath) {
	return proposed, nil
}

func (ResourceBase[PS, RC]) UpgradeState(ctx context.Context, state *RC, version int64, diags *tfdiags.Diagnostics) *RC {
	return state
}

func (ResourceBase[PS, RC]) Import(ctx context.Context, ps PS, id string, diags *tfdiags.Diagnostics) *RC {
	diags.AddError("Import not supported", "This resource type does not support importing existing objects.")
	return nil
}
