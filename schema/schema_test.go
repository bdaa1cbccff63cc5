// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opentofu/providersdk/wiretype"
)

func TestProviderSchemaToProto(t *testing.T) {
	fooAttr := Attribute{
		Name:        "foo",
		Type:        wiretype.String,
		Description: "Some attribute",
		Required:    true,
	}
	ps := &ProviderSchema{
		Provider: Schema{
			Version: 1,
			Block:   Block{Version: 1, Attributes: []Attribute{fooAttr}},
		},
		ResourceSchemas: map[string]Schema{
			"helloworld_res": {
				Version: 1,
				Block: Block{
					Version:     1,
					Description: "Some resource",
					Attributes:  []Attribute{fooAttr},
				},
			},
		},
	}

	resp, err := ps.ToProto()
	require.NoError(t, err)

	require.NotNil(t, resp.Provider)
	require.Len(t, resp.Provider.Block.Attributes, 1)
	attr := resp.Provider.Block.Attributes[0]
	assert.Equal(t, "foo", attr.Name)
	assert.Equal(t, `"string"`, string(attr.Type))
	assert.True(t, attr.Required)

	require.Len(t, resp.ResourceSchemas, 1)
	res, ok := resp.ResourceSchemas["helloworld_res"]
	require.True(t, ok)
	assert.Equal(t, int64(1), res.Version)
	assert.Equal(t, "Some resource", res.Block.Description)
	assert.Equal(t, `"string"`, string(res.Block.Attributes[0].Type))
}

func TestSchemaToProtoModifierErasure(t *testing.T) {
	s := Schema{
		Block: Block{
			Attributes: []Attribute{
				{
					Name:     "maybe",
					Type:     wiretype.MaybeUnknown{Inner: wiretype.Optional{Inner: wiretype.String}},
					Optional: true,
				},
			},
		},
	}
	pb, err := s.ToProto()
	require.NoError(t, err)
	assert.Equal(t, `"string"`, string(pb.Block.Attributes[0].Type))
}
