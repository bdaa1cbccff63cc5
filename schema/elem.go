// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"fmt"

	"github.com/opentofu/providersdk/wirevalue"
)

// Elem describes a field's static element type, used by BindField to look
// up a built-in representation. The descriptors compose: OptionalOf,
// MaybeUnknownOf and SetOf wrap primitives (and each other, for the
// combinations listed in the table below).
type Elem interface {
	elemSigil()
	String() string
}

type primitiveElem string

func (primitiveElem) elemSigil() {}

func (e primitiveElem) String() string { return string(e) }

// The primitive element descriptors. Number fields must pick one of the
// concrete number flavours; there is deliberately no bare "number"
// descriptor.
var (
	String  Elem = primitiveElem("string")
	Bool    Elem = primitiveElem("bool")
	Int64   Elem = primitiveElem("int64")
	Float64 Elem = primitiveElem("float64")
)

type optionalElem struct{ inner Elem }

func (optionalElem) elemSigil() {}

func (e optionalElem) String() string { return fmt.Sprintf("optional(%s)", e.inner) }

// OptionalOf describes a nullable element; the bound Go type is a pointer.
func OptionalOf(inner Elem) Elem { return optionalElem{inner: inner} }

type maybeUnknownElem struct{ inner Elem }

func (maybeUnknownElem) elemSigil() {}

func (e maybeUnknownElem) String() string { return fmt.Sprintf("maybeunknown(%s)", e.inner) }

// MaybeUnknownOf describes an element that may be unknown during
// planning; the bound Go type is wirevalue.Maybe.
func MaybeUnknownOf(inner Elem) Elem { return maybeUnknownElem{inner: inner} }

type setElem struct{ inner Elem }

func (setElem) elemSigil() {}

func (e setElem) String() string { return fmt.Sprintf("set(%s)", e.inner) }

// SetOf describes a set element; the bound Go type is wirevalue.Set.
func SetOf(inner Elem) Elem { return setElem{inner: inner} }

// defaultRepresentations maps the canonical form of every supported
// element type to its built-in representation. A combination absent here
// makes BindField fail with UnboundTypeError at record-construction time.
var defaultRepresentations = map[string]any{
	"string":  wirevalue.String(),
	"bool":    wirevalue.Bool(),
	"int64":   wirevalue.Int64(),
	"float64": wirevalue.Float64(),

	"optional(string)":  wirevalue.Optional(wirevalue.String()),
	"optional(bool)":    wirevalue.Optional(wirevalue.Bool()),
	"optional(int64)":   wirevalue.Optional(wirevalue.Int64()),
	"optional(float64)": wirevalue.Optional(wirevalue.Float64()),

	"maybeunknown(string)":  wirevalue.MaybeUnknown(wirevalue.String()),
	"maybeunknown(bool)":    wirevalue.MaybeUnknown(wirevalue.Bool()),
	"maybeunknown(int64)":   wirevalue.MaybeUnknown(wirevalue.Int64()),
	"maybeunknown(float64)": wirevalue.MaybeUnknown(wirevalue.Float64()),

	"maybeunknown(optional(string))":  wirevalue.MaybeUnknown(wirevalue.Optional(wirevalue.String())),
	"maybeunknown(optional(bool))":    wirevalue.MaybeUnknown(wirevalue.Optional(wirevalue.Bool())),
	"maybeunknown(optional(int64))":   wirevalue.MaybeUnknown(wirevalue.Optional(wirevalue.Int64())),
	"maybeunknown(optional(float64))": wirevalue.MaybeUnknown(wirevalue.Optional(wirevalue.Float64())),

	"set(string)":           wirevalue.SetOf(wirevalue.String()),
	"optional(set(string))": wirevalue.Optional(wirevalue.SetOf(wirevalue.String())),
	"maybeunknown(optional(set(string)))": wirevalue.MaybeUnknown(
		wirevalue.Optional(wirevalue.SetOf(wirevalue.String()))),
	"set(maybeunknown(string))": wirevalue.SetOf(wirevalue.MaybeUnknown(wirevalue.String())),
	"optional(set(maybeunknown(string)))": wirevalue.Optional(
		wirevalue.SetOf(wirevalue.MaybeUnknown(wirevalue.String()))),
}

func lookupRepresentation(e Elem) (any, bool) {
	repr, ok := defaultRepresentations[e.String()]
	return repr, ok
}
