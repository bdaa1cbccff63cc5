// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// helloworld-provider is a minimal but complete provider built on this
// SDK. It manages an imaginary "helloworld_res" resource whose objects
// live only in the state, which makes it handy as a protocol smoke test:
//
//	tofu init && tofu apply
//
// with a provider override pointing at this binary.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-uuid"

	"github.com/opentofu/providersdk/provider"
	"github.com/opentofu/providersdk/rpcplugin"
	"github.com/opentofu/providersdk/schema"
	"github.com/opentofu/providersdk/tfdiags"
	"github.com/opentofu/providersdk/wirevalue"
)

type providerConfig struct {
	Foo string
}

type providerState struct {
	greeting string
}

type resConfig struct {
	Foo       string
	ID        wirevalue.Maybe[string]
	Tags      *wirevalue.Set[string]
	ExpiresAt *time.Time
}

var providerRecord = schema.MustRecord(
	schema.BindField("foo", schema.String,
		func(c *providerConfig) string { return c.Foo },
		func(c *providerConfig, v string) { c.Foo = v },
		schema.Required(), schema.Description("Some attribute")),
)

var resRecord = schema.MustRecord(
	schema.BindField("foo", schema.String,
		func(c *resConfig) string { return c.Foo },
		func(c *resConfig, v string) { c.Foo = v },
		schema.Required(), schema.Description("Some attribute in the resource")),
	schema.BindField("id", schema.MaybeUnknownOf(schema.String),
		func(c *resConfig) wirevalue.Maybe[string] { return c.ID },
		func(c *resConfig, v wirevalue.Maybe[string]) { c.ID = v },
		schema.Optional(), schema.Computed(),
		schema.Description("Server-assigned identifier")),
	schema.BindField("tags", schema.OptionalOf(schema.SetOf(schema.String)),
		func(c *resConfig) *wirevalue.Set[string] { return c.Tags },
		func(c *resConfig, v *wirevalue.Set[string]) { c.Tags = v },
		schema.Optional()),
	schema.Field("expires_at", wirevalue.Optional(wirevalue.TimeString()),
		func(c *resConfig) *time.Time { return c.ExpiresAt },
		func(c *resConfig, v *time.Time) { c.ExpiresAt = v },
		schema.Optional(), schema.Description("Expiry as an RFC 3339 timestamp")),
)

type helloResource struct {
	provider.ResourceBase[providerState, resConfig]
}

func (r *helloResource) TypeName() string { return "helloworld_res" }

func (r *helloResource) Definition() *provider.Definition[resConfig] {
	return &provider.Definition[resConfig]{
		Record:        resRecord,
		SchemaVersion: 1,
		BlockVersion:  1,
		Description:   "Some resource",
	}
}

func (r *helloResource) ValidateConfig(ctx context.Context, config resConfig, diags *tfdiags.Diagnostics) {
	if config.Foo == "" {
		diags.AddAttributeError(
			tfdiags.RootPath.Attribute("foo"),
			"Empty foo",
			"The foo attribute must not be empty.",
		)
	}
}

func (r *helloResource) Plan(ctx context.Context, ps providerState, prior *resConfig, config resConfig, proposed *resConfig, diags *tfdiags.Diagnostics) (*resConfig, []*tfdiags.AttributePath) {
	if proposed == nil {
		// destroy plan
		return nil, nil
	}
	planned := *proposed
	if prior == nil {
		// the id only becomes known at apply time
		planned.ID = wirevalue.NotKnown[string](wirevalue.Unrefined{})
		return &planned, nil
	}
	planned.ID = prior.ID
	if prior.Foo != config.Foo {
		// foo is immutable on the imaginary backend
		return &planned, []*tfdiags.AttributePath{tfdiags.RootPath.Attribute("foo")}
	}
	return &planned, nil
}

func (r *helloResource) Apply(ctx context.Context, ps providerState, prior, config, planned *resConfig, diags *tfdiags.Diagnostics) *resConfig {
	if planned == nil {
		// destroy
		return nil
	}
	newState := *planned
	if !newState.ID.IsKnown() {
		id, err := uuid.GenerateUUID()
		if err != nil {
			diags.AddError("ID generation failed", err.Error())
			return nil
		}
		newState.ID = wirevalue.Known(id)
	}
	return &newState
}

func (r *helloResource) Read(ctx context.Context, ps providerState, current resConfig, diags *tfdiags.Diagnostics) *resConfig {
	if current.ExpiresAt != nil && current.ExpiresAt.Before(time.Now()) {
		// expired objects vanish from the backend
		return nil
	}
	return &current
}

func (r *helloResource) Import(ctx context.Context, ps providerState, id string, diags *tfdiags.Diagnostics) *resConfig {
	return &resConfig{
		Foo: ps.greeting,
		ID:  wirevalue.Known(id),
	}
}

type helloProvider struct {
	provider.Base[providerState, providerConfig]
}

func (p *helloProvider) Definition() *provider.Definition[providerConfig] {
	return &provider.Definition[providerConfig]{
		Record:        providerRecord,
		SchemaVersion: 1,
		BlockVersion:  1,
	}
}

func (p *helloProvider) Resources() []provider.ResourceRegistration[providerState] {
	return []provider.ResourceRegistration[providerState]{
		provider.NewResource[providerState, resConfig](&helloResource{}),
	}
}

func (p *helloProvider) Configure(ctx context.Context, config providerConfig, diags *tfdiags.Diagnostics) providerState {
	return providerState{greeting: config.Foo}
}

func main() {
	logger := hclog.New(&hclog.LoggerOptions{
		Name:   "helloworld-provider",
		Output: os.Stderr,
		Level:  hclog.Debug,
	})

	servicer, err := provider.NewServicer[providerState, providerConfig](&helloProvider{}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid provider definition: %s\n", err)
		os.Exit(1)
	}

	if err := rpcplugin.Serve(context.Background(), rpcplugin.ServeConfig{
		Provider: servicer,
		Logger:   logger,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "plugin failed: %s\n", err)
		os.Exit(1)
	}
}
