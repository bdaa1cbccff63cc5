// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package wirevalue converts between the msgpack encoding of attribute
// values used by the plugin protocol and typed in-memory values.
//
// A Representation groups a wire type with an unmarshaler and a marshaler
// for one Go type. Representations compose: Optional lifts T to *T and
// maps wire null to nil, MaybeUnknown lifts T to Maybe[T] and handles the
// unknown-value extension markers, and the collection representations lift
// element representations to slices, sets and maps. Converted splices a
// user-defined conversion (such as time ↔ RFC 3339 string) on top of an
// existing representation.
package wirevalue

import (
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/opentofu/providersdk/wiretype"
)

// Unmarshaler decodes one value of type T from a msgpack stream.
type Unmarshaler[T any] interface {
	UnmarshalMsgpack(dec *msgpack.Decoder) (T, error)
}

// Marshaler encodes one value of type T into a msgpack stream.
type Marshaler[T any] interface {
	MarshalMsgpack(enc *msgpack.Encoder, v T) error
}

// Representation is the triple of a wire type and codecs for one Go type.
type Representation[T any] interface {
	Unmarshaler[T]
	Marshaler[T]

	// WireType reports the attribute type this representation produces
	// and consumes on the wire.
	WireType() wiretype.Type
}

// codeName describes a msgpack code for error messages.
func codeName(c byte) string {
	switch {
	case c == msgpcode.Nil:
		return "null"
	case c == msgpcode.True || c == msgpcode.False:
		return "bool"
	case msgpcode.IsFixedNum(c),
		c == msgpcode.Uint8, c == msgpcode.Uint16, c == msgpcode.Uint32, c == msgpcode.Uint64,
		c == msgpcode.Int8, c == msgpcode.Int16, c == msgpcode.Int32, c == msgpcode.Int64:
		return "integer"
	case c == msgpcode.Float, c == msgpcode.Double:
		return "float"
	case msgpcode.IsString(c):
		return "string"
	case msgpcode.IsBin(c):
		return "binary"
	case msgpcode.IsFixedArray(c), c == msgpcode.Array16, c == msgpcode.Array32:
		return "sequence"
	case msgpcode.IsFixedMap(c), c == msgpcode.Map16, c == msgpcode.Map32:
		return "mapping"
	case msgpcode.IsExt(c):
		return "unknown-value marker"
	default:
		return "unsupported value"
	}
}

func isIntCode(c byte) bool {
	return msgpcode.IsFixedNum(c) ||
		c == msgpcode.Uint8 || c == msgpcode.Uint16 || c == msgpcode.Uint32 || c == msgpcode.Uint64 ||
		c == msgpcode.Int8 || c == msgpcode.Int16 || c == msgpcode.Int32 || c == msgpcode.Int64
}

func isFloatCode(c byte) bool {
	return c == msgpcode.Float || c == msgpcode.Double
}

func isArrayCode(c byte) bool {
	return msgpcode.IsFixedArray(c) || c == msgpcode.Array16 || c == msgpcode.Array32
}

func isMapCode(c byte) bool {
	return msgpcode.IsFixedMap(c) || c == msgpcode.Map16 || c == msgpcode.Map32
}
