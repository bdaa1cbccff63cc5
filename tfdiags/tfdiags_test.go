// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package tfdiags

import (
	"testing"

	proto "github.com/apparentlymart/opentofu-providers/tofuprovider/grpc/tfplugin6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagnosticsFilters(t *testing.T) {
	var diags Diagnostics
	assert.False(t, diags.HasErrors())
	assert.Nil(t, diags.ToProto())

	diags.AddWarning("heads up", "something looks off")
	assert.False(t, diags.HasErrors())

	diags.AddError("boom", "it broke")
	diags.AddError("boom again", "it broke twice")
	assert.True(t, diags.HasErrors())

	assert.Len(t, diags.Errs(), 2)
	assert.Len(t, diags.Warnings(), 1)
	assert.Equal(t, 3, diags.Len())

	// order is preserved in the wire form
	pb := diags.ToProto()
	require.Len(t, pb, 3)
	assert.Equal(t, proto.Diagnostic_WARNING, pb[0].Severity)
	assert.Equal(t, "heads up", pb[0].Summary)
	assert.Equal(t, proto.Diagnostic_ERROR, pb[1].Severity)
	assert.Equal(t, "it broke", pb[1].Detail)
}

func TestAttributePath(t *testing.T) {
	path := RootPath.Attribute("tags").IndexString("env").Attribute("items").IndexInt(3)
	assert.Equal(t, `.tags["env"].items[3]`, path.String())

	pb := path.ToProto()
	require.Len(t, pb.Steps, 4)
	assert.Equal(t, "tags",
		pb.Steps[0].Selector.(*proto.AttributePath_Step_AttributeName).AttributeName)
	assert.Equal(t, "env",
		pb.Steps[1].Selector.(*proto.AttributePath_Step_ElementKeyString).ElementKeyString)
	assert.Equal(t, int64(3),
		pb.Steps[3].Selector.(*proto.AttributePath_Step_ElementKeyInt).ElementKeyInt)
}

func TestAttributePathImmutable(t *testing.T) {
	base := RootPath.Attribute("a")
	left := base.Attribute("b")
	right := base.Attribute("c")
	assert.Equal(t, ".a.b", left.String())
	assert.Equal(t, ".a.c", right.String())
	assert.Equal(t, ".a", base.String())
}

func TestDiagnosticWithAttribute(t *testing.T) {
	var diags Diagnostics
	diags.AddAttributeError(RootPath.Attribute("foo"), "bad value", "details here")
	pb := diags.ToProto()
	require.Len(t, pb, 1)
	require.NotNil(t, pb[0].Attribute)
	require.Len(t, pb[0].Attribute.Steps, 1)
}
