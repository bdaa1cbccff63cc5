// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package schema models provider and resource schemas the way the plugin
// protocol understands them, and binds declarative record descriptions to
// both a wire schema and whole-object codecs.
package schema

import (
	"fmt"
	"sort"

	proto "github.com/apparentlymart/opentofu-providers/tofuprovider/grpc/tfplugin6"

	"github.com/opentofu/providersdk/wiretype"
)

// StringKind describes how a description string should be interpreted.
type StringKind int

const (
	StringPlain StringKind = iota
	StringMarkdown
)

func (k StringKind) toProto() proto.StringKind {
	switch k {
	case StringMarkdown:
		return proto.StringKind_MARKDOWN
	default:
		return proto.StringKind_PLAIN
	}
}

// Attribute is one named field of a block.
type Attribute struct {
	Name            string
	Type            wiretype.Type
	Description     string
	DescriptionKind StringKind

	Required   bool
	Optional   bool
	Computed   bool
	Sensitive  bool
	Deprecated bool
}

// Validate checks the attribute's policy flag invariants: exactly one of
// Required and Optional must be set, and Computed may combine with
// Optional but not with Required.
func (a *Attribute) Validate() error {
	switch {
	case a.Required == a.Optional:
		return fmt.Errorf("attribute %q must be exactly one of required or optional", a.Name)
	case a.Required && a.Computed:
		return fmt.Errorf("attribute %q cannot be both required and computed", a.Name)
	}
	return nil
}

func (a *Attribute) toProto() (*proto.Schema_Attribute, error) {
	ty, err := wiretype.Serialize(a.Type)
	if err != nil {
		return nil, fmt.Errorf("attribute %q: %w", a.Name, err)
	}
	return &proto.Schema_Attribute{
		Name:            a.Name,
		Type:            ty,
		Description:     a.Description,
		DescriptionKind: a.DescriptionKind.toProto(),
		Required:        a.Required,
		Optional:        a.Optional,
		Computed:        a.Computed,
		Sensitive:       a.Sensitive,
		Deprecated:      a.Deprecated,
	}, nil
}

// Block is an ordered list of attributes. Attribute order carries no
// meaning for the client, but it is preserved so emitted schemas are
// stable.
type Block struct {
	Version         int64
	Attributes      []Attribute
	Description     string
	DescriptionKind StringKind
	Deprecated      bool
}

func (b *Block) toProto() (*proto.Schema_Block, error) {
	out := &proto.Schema_Block{
		Version:         b.Version,
		Description:     b.Description,
		DescriptionKind: b.DescriptionKind.toProto(),
		Deprecated:      b.Deprecated,
	}
	for i := range b.Attributes {
		attr, err := b.Attributes[i].toProto()
		if err != nil {
			return nil, err
		}
		out.Attributes = append(out.Attributes, attr)
	}
	return out, nil
}

// Schema wraps a block with the schema version used for state upgrade
// dispatch.
type Schema struct {
	Version int64
	Block   Block
}

// ToProto converts the schema to its wire form.
func (s *Schema) ToProto() (*proto.Schema, error) {
	block, err := s.Block.toProto()
	if err != nil {
		return nil, err
	}
	return &proto.Schema{
		Version: s.Version,
		Block:   block,
	}, nil
}

// ProviderSchema is the full schema surface of one provider: its own
// configuration block plus one schema per resource type.
type ProviderSchema struct {
	Provider        Schema
	ResourceSchemas map[string]Schema
}

// ToProto converts the provider schema to a GetProviderSchema response.
// Resource types are emitted in name order.
func (s *ProviderSchema) ToProto() (*proto.GetProviderSchema_Response, error) {
	providerSchema, err := s.Provider.ToProto()
	if err != nil {
		return nil, fmt.Errorf("provider schema: %w", err)
	}
	resp := &proto.GetProviderSchema_Response{
		Provider:        providerSchema,
		ResourceSchemas: make(map[string]*proto.Schema, len(s.ResourceSchemas)),
	}
	for _, name := range sortedKeys(s.ResourceSchemas) {
		schema := s.ResourceSchemas[name]
		ps, err := schema.ToProto()
		if err != nil {
			return nil, fmt.Errorf("resource %q schema: %w", name, err)
		}
		resp.ResourceSchemas[name] = ps
	}
	return resp, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
