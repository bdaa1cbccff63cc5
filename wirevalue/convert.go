// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package wirevalue

import (
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/opentofu/providersdk/wiretype"
)

// Converted splices a user-defined conversion on top of an existing
// representation: the wire type and wire-level codec are the inner one's,
// and the conversion runs after a successful wire-level unmarshal (and
// before marshal, respectively).
func Converted[W, T any](inner Representation[W], from func(W) (T, error), to func(T) (W, error)) Representation[T] {
	return convertedRepr[W, T]{inner: inner, from: from, to: to}
}

type convertedRepr[W, T any] struct {
	inner Representation[W]
	from  func(W) (T, error)
	to    func(T) (W, error)
}

func (r convertedRepr[W, T]) WireType() wiretype.Type {
	return r.inner.WireType()
}

func (r convertedRepr[W, T]) UnmarshalMsgpack(dec *msgpack.Decoder) (T, error) {
	var zero T
	w, err := r.inner.UnmarshalMsgpack(dec)
	if err != nil {
		return zero, err
	}
	return r.from(w)
}

func (r convertedRepr[W, T]) MarshalMsgpack(enc *msgpack.Encoder, v T) error {
	w, err := r.to(v)
	if err != nil {
		return err
	}
	return r.inner.MarshalMsgpack(enc, w)
}

// TimeString represents a time.Time as an RFC 3339 string on the wire.
func TimeString() Representation[time.Time] {
	return Converted(String(),
		func(s string) (time.Time, error) {
			t, err := time.Parse(time.RFC3339, s)
			if err != nil {
				return time.Time{}, mismatch("RFC 3339 timestamp", "string "+s)
			}
			return t, nil
		},
		func(t time.Time) (string, error) {
			return t.Format(time.RFC3339), nil
		},
	)
}
