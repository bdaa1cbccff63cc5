// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package tfdiags

import (
	"fmt"
	"strings"

	proto "github.com/apparentlymart/opentofu-providers/tofuprovider/grpc/tfplugin6"
)

// AttributePath points at one value inside a nested configuration object.
// Paths are immutable; each derivation method returns a new path sharing
// the existing steps.
type AttributePath struct {
	steps []pathStep
}

type pathStep struct {
	attrName string
	strKey   string
	intKey   int64
	kind     stepKind
}

type stepKind int

const (
	stepAttrName stepKind = iota
	stepStringKey
	stepIntKey
)

// RootPath is the path of the whole configuration object.
var RootPath = &AttributePath{}

// Attribute derives a path descending into the named attribute.
func (p *AttributePath) Attribute(name string) *AttributePath {
	return p.with(pathStep{kind: stepAttrName, attrName: name})
}

// IndexString derives a path descending into the map element with the
// given key.
func (p *AttributePath) IndexString(key string) *AttributePath {
	return p.with(pathStep{kind: stepStringKey, strKey: key})
}

// IndexInt derives a path descending into the list or set element at the
// given index.
func (p *AttributePath) IndexInt(index int64) *AttributePath {
	return p.with(pathStep{kind: stepIntKey, intKey: index})
}

func (p *AttributePath) with(step pathStep) *AttributePath {
	steps := make([]pathStep, len(p.steps), len(p.steps)+1)
	copy(steps, p.steps)
	return &AttributePath{steps: append(steps, step)}
}

// ToProto converts the path to its wire form.
func (p *AttributePath) ToProto() *proto.AttributePath {
	out := &proto.AttributePath{
		Steps: make([]*proto.AttributePath_Step, 0, len(p.steps)),
	}
	for _, step := range p.steps {
		pbStep := &proto.AttributePath_Step{}
		switch step.kind {
		case stepAttrName:
			pbStep.Selector = &proto.AttributePath_Step_AttributeName{
				AttributeName: step.attrName,
			}
		case stepStringKey:
			pbStep.Selector = &proto.AttributePath_Step_ElementKeyString{
				ElementKeyString: step.strKey,
			}
		case stepIntKey:
			pbStep.Selector = &proto.AttributePath_Step_ElementKeyInt{
				ElementKeyInt: step.intKey,
			}
		}
		out.Steps = append(out.Steps, pbStep)
	}
	return out
}

// String renders the path for use in human-oriented messages, e.g.
// `.tags["env"]` or `.items[3]`.
func (p *AttributePath) String() string {
	var buf strings.Builder
	for _, step := range p.steps {
		switch step.kind {
		case stepAttrName:
			fmt.Fprintf(&buf, ".%s", step.attrName)
		case stepStringKey:
			fmt.Fprintf(&buf, "[%q]", step.strKey)
		case stepIntKey:
			fmt.Fprintf(&buf, "[%d]", step.intKey)
		}
	}
	return buf.String()
}
