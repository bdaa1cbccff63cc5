// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package wirevalue

import (
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/opentofu/providersdk/wiretype"
)

// Optional wraps a representation so that a wire null maps to a nil
// pointer and back.
func Optional[T any](inner Representation[T]) Representation[*T] {
	return optionalRepr[T]{inner: inner}
}

type optionalRepr[T any] struct {
	inner Representation[T]
}

func (r optionalRepr[T]) WireType() wiretype.Type {
	return wiretype.Optional{Inner: r.inner.WireType()}
}

func (r optionalRepr[T]) UnmarshalMsgpack(dec *msgpack.Decoder) (*T, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	if c == msgpcode.Nil {
		if err := dec.DecodeNil(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	v, err := r.inner.UnmarshalMsgpack(dec)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r optionalRepr[T]) MarshalMsgpack(enc *msgpack.Encoder, v *T) error {
	if v == nil {
		return enc.EncodeNil()
	}
	return r.inner.MarshalMsgpack(enc, *v)
}

// Maybe holds either a known value of type T or an Unknown marker.
type Maybe[T any] struct {
	value   T
	unknown Unknown
}

// Known wraps a concrete value.
func Known[T any](v T) Maybe[T] {
	return Maybe[T]{value: v}
}

// NotKnown wraps an Unknown marker.
func NotKnown[T any](u Unknown) Maybe[T] {
	return Maybe[T]{unknown: u}
}

// IsKnown reports whether the value is concrete.
func (m Maybe[T]) IsKnown() bool { return m.unknown == nil }

// Value returns the concrete value, or the zero value when unknown.
func (m Maybe[T]) Value() T { return m.value }

// Unknown returns the marker, or nil when the value is known.
func (m Maybe[T]) Unknown() Unknown { return m.unknown }

// checkSetMember vets this value for use as a Set member. Refined and
// opaque unknowns carry byte-slice payloads, which Go cannot hash as map
// keys, so only known values and unrefined unknowns pass.
func (m Maybe[T]) checkSetMember() error {
	switch u := m.unknown.(type) {
	case nil, Unrefined:
		return nil
	default:
		return mismatch("known or unrefined-unknown set element", fmt.Sprintf("%v", u))
	}
}

// MaybeUnknown wraps a representation so that the unknown-value extension
// markers decode to Maybe values carrying an Unknown, and everything else
// delegates to the inner representation.
func MaybeUnknown[T any](inner Representation[T]) Representation[Maybe[T]] {
	return maybeUnknownRepr[T]{inner: inner}
}

type maybeUnknownRepr[T any] struct {
	inner Representation[T]
}

func (r maybeUnknownRepr[T]) WireType() wiretype.Type {
	return wiretype.MaybeUnknown{Inner: r.inner.WireType()}
}

func (r maybeUnknownRepr[T]) UnmarshalMsgpack(dec *msgpack.Decoder) (Maybe[T], error) {
	c, err := dec.PeekCode()
	if err != nil {
		return Maybe[T]{}, err
	}
	if msgpcode.IsExt(c) {
		id, n, err := dec.DecodeExtHeader()
		if err != nil {
			return Maybe[T]{}, err
		}
		payload := make([]byte, n)
		if n > 0 {
			if _, err := io.ReadFull(dec.Buffered(), payload); err != nil {
				return Maybe[T]{}, err
			}
		}
		switch id {
		case extUnrefinedUnknown:
			return NotKnown[T](Unrefined{}), nil
		case extRefinedUnknown:
			return NotKnown[T](Refined{Payload: payload}), nil
		default:
			return NotKnown[T](Opaque{Code: id, Payload: payload}), nil
		}
	}
	v, err := r.inner.UnmarshalMsgpack(dec)
	if err != nil {
		return Maybe[T]{}, err
	}
	return Known(v), nil
}

func (r maybeUnknownRepr[T]) MarshalMsgpack(enc *msgpack.Encoder, v Maybe[T]) error {
	switch u := v.Unknown().(type) {
	case nil:
		return r.inner.MarshalMsgpack(enc, v.Value())
	case Unrefined:
		return encodeExt(enc, extUnrefinedUnknown, nil)
	case Refined:
		return encodeExt(enc, extRefinedUnknown, u.Payload)
	default:
		return &EncodingError{Reason: "opaque unknown values cannot be re-encoded"}
	}
}

func encodeExt(enc *msgpack.Encoder, code int8, payload []byte) error {
	if err := enc.EncodeExtHeader(code, len(payload)); err != nil {
		return err
	}
	if len(payload) > 0 {
		if _, err := enc.Writer().Write(payload); err != nil {
			return err
		}
	}
	return nil
}
