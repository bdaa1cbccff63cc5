// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package wiretype describes the types of attribute values as they appear
// in the provider plugin protocol, along with their JSON encoding as used
// in schema messages.
//
// The type family is closed: primitives (string, number, bool), the
// collection kinds (list, set, map), objects with named fields, and the
// two modifier kinds Optional and MaybeUnknown. The modifiers exist only
// on the provider side; nullability and unknown-ness are universal
// properties of the wire protocol, so they are invisible in the JSON
// encoding sent to the client.
package wiretype

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Type is one node in an attribute type tree.
//
// All implementations live in this package; the interface is sealed so the
// codec layers can treat the family as exhaustive.
type Type interface {
	json.Marshaler

	// GoString is implemented by every variant so test failures print a
	// readable tree.
	fmt.GoStringer

	typeSigil()
}

// Primitive is one of the three primitive wire types.
type Primitive string

const (
	String Primitive = "string"
	Number Primitive = "number"
	Bool   Primitive = "bool"
)

func (p Primitive) typeSigil() {}

func (p Primitive) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(p))
}

func (p Primitive) GoString() string {
	return fmt.Sprintf("wiretype.%s", titleName(string(p)))
}

// List is an ordered sequence of elements of a single type.
type List struct {
	Elem Type
}

func (t List) typeSigil() {}

func (t List) MarshalJSON() ([]byte, error) {
	return marshalCollection("list", t.Elem)
}

func (t List) GoString() string {
	return fmt.Sprintf("wiretype.List{Elem: %#v}", t.Elem)
}

// Set is an unordered collection of unique elements of a single type.
type Set struct {
	Elem Type
}

func (t Set) typeSigil() {}

func (t Set) MarshalJSON() ([]byte, error) {
	return marshalCollection("set", t.Elem)
}

func (t Set) GoString() string {
	return fmt.Sprintf("wiretype.Set{Elem: %#v}", t.Elem)
}

// Map is a collection of elements of a single type keyed by string.
type Map struct {
	Elem Type
}

func (t Map) typeSigil() {}

func (t Map) MarshalJSON() ([]byte, error) {
	return marshalCollection("map", t.Elem)
}

func (t Map) GoString() string {
	return fmt.Sprintf("wiretype.Map{Elem: %#v}", t.Elem)
}

// ObjectAttr is one named field of an Object type.
type ObjectAttr struct {
	Name string
	Type Type
}

// Object is a collection of named fields, each with its own type. Field
// order is preserved from declaration so the emitted JSON is stable.
type Object struct {
	Attrs []ObjectAttr
}

func (t Object) typeSigil() {}

func (t Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`["object",{`)
	for i, attr := range t.Attrs {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(attr.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		inner, err := attr.Type.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(inner)
	}
	buf.WriteString(`}]`)
	return buf.Bytes(), nil
}

func (t Object) GoString() string {
	var buf bytes.Buffer
	buf.WriteString("wiretype.Object{Attrs: []wiretype.ObjectAttr{")
	for i, attr := range t.Attrs {
		if i > 0 {
			buf.WriteString(", ")
		}
		fmt.Fprintf(&buf, "{%q, %#v}", attr.Name, attr.Type)
	}
	buf.WriteString("}}")
	return buf.String()
}

// Optional marks the inner type as accepting null. Every wire type is
// implicitly nullable, so the JSON encoding is the inner type's, unchanged.
type Optional struct {
	Inner Type
}

func (t Optional) typeSigil() {}

func (t Optional) MarshalJSON() ([]byte, error) {
	return t.Inner.MarshalJSON()
}

func (t Optional) GoString() string {
	return fmt.Sprintf("wiretype.Optional{Inner: %#v}", t.Inner)
}

// MaybeUnknown marks the inner type as accepting the unknown-value marker
// during planning. As with Optional, this is implicit in the protocol and
// invisible in the JSON encoding.
type MaybeUnknown struct {
	Inner Type
}

func (t MaybeUnknown) typeSigil() {}

func (t MaybeUnknown) MarshalJSON() ([]byte, error) {
	return t.Inner.MarshalJSON()
}

func (t MaybeUnknown) GoString() string {
	return fmt.Sprintf("wiretype.MaybeUnknown{Inner: %#v}", t.Inner)
}

// Serialize returns the UTF-8 JSON encoding of the given type, as it must
// appear in the "type" field of a schema attribute message.
func Serialize(t Type) ([]byte, error) {
	return json.Marshal(t)
}

func marshalCollection(kind string, elem Type) ([]byte, error) {
	inner, err := elem.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`["`)
	buf.WriteString(kind)
	buf.WriteString(`",`)
	buf.Write(inner)
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func titleName(s string) string {
	switch s {
	case "string":
		return "String"
	case "number":
		return "Number"
	case "bool":
		return "Bool"
	}
	return s
}
