// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package wirevalue

import (
	"bytes"
	"slices"
	"sort"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/opentofu/providersdk/wiretype"
)

// List lifts an element representation to a slice. Element order is
// preserved in both directions.
func List[T any](elem Representation[T]) Representation[[]T] {
	return listRepr[T]{elem: elem}
}

type listRepr[T any] struct {
	elem Representation[T]
}

func (r listRepr[T]) WireType() wiretype.Type {
	return wiretype.List{Elem: r.elem.WireType()}
}

func (r listRepr[T]) UnmarshalMsgpack(dec *msgpack.Decoder) ([]T, error) {
	n, err := decodeArrayLen(dec, "list")
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, err := r.elem.UnmarshalMsgpack(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r listRepr[T]) MarshalMsgpack(enc *msgpack.Encoder, v []T) error {
	if err := enc.EncodeArrayLen(len(v)); err != nil {
		return err
	}
	for _, elem := range v {
		if err := r.elem.MarshalMsgpack(enc, elem); err != nil {
			return err
		}
	}
	return nil
}

// SetOf lifts an element representation to a Set. Duplicate elements on
// the wire are deduplicated silently on unmarshal. The marshal order is
// unspecified by the protocol; to keep output deterministic the elements
// are sorted by their msgpack encoding.
func SetOf[T comparable](elem Representation[T]) Representation[Set[T]] {
	return setRepr[T]{elem: elem}
}

type setRepr[T comparable] struct {
	elem Representation[T]
}

// setMember lets an element type veto set membership before the map
// insert; a value Go cannot hash would otherwise panic the decoder.
type setMember interface {
	checkSetMember() error
}

func (r setRepr[T]) WireType() wiretype.Type {
	return wiretype.Set{Elem: r.elem.WireType()}
}

func (r setRepr[T]) UnmarshalMsgpack(dec *msgpack.Decoder) (Set[T], error) {
	n, err := decodeArrayLen(dec, "set")
	if err != nil {
		return nil, err
	}
	out := make(Set[T], n)
	for i := 0; i < n; i++ {
		v, err := r.elem.UnmarshalMsgpack(dec)
		if err != nil {
			return nil, err
		}
		if vet, ok := any(v).(setMember); ok {
			if err := vet.checkSetMember(); err != nil {
				return nil, err
			}
		}
		out.Add(v)
	}
	return out, nil
}

func (r setRepr[T]) MarshalMsgpack(enc *msgpack.Encoder, v Set[T]) error {
	encoded := make([][]byte, 0, len(v))
	for elem := range v {
		var buf bytes.Buffer
		elemEnc := msgpack.NewEncoder(&buf)
		if err := r.elem.MarshalMsgpack(elemEnc, elem); err != nil {
			return err
		}
		encoded = append(encoded, buf.Bytes())
	}
	sort.Slice(encoded, func(i, j int) bool {
		return bytes.Compare(encoded[i], encoded[j]) < 0
	})
	if err := enc.EncodeArrayLen(len(encoded)); err != nil {
		return err
	}
	for _, raw := range encoded {
		if _, err := enc.Writer().Write(raw); err != nil {
			return err
		}
	}
	return nil
}

// MapOf lifts an element representation to a string-keyed map. Keys are
// emitted in sorted order so output is deterministic.
func MapOf[T any](elem Representation[T]) Representation[map[string]T] {
	return mapRepr[T]{elem: elem}
}

type mapRepr[T any] struct {
	elem Representation[T]
}

func (r mapRepr[T]) WireType() wiretype.Type {
	return wiretype.Map{Elem: r.elem.WireType()}
}

func (r mapRepr[T]) UnmarshalMsgpack(dec *msgpack.Decoder) (map[string]T, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	if !isMapCode(c) {
		return nil, mismatch("mapping", codeName(c))
	}
	n, err := dec.DecodeMapLen()
	if err != nil {
		return nil, err
	}
	out := make(map[string]T, n)
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return nil, mismatch("string key", "non-string key")
		}
		v, err := r.elem.UnmarshalMsgpack(dec)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

func (r mapRepr[T]) MarshalMsgpack(enc *msgpack.Encoder, v map[string]T) error {
	if err := enc.EncodeMapLen(len(v)); err != nil {
		return err
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if err := enc.EncodeString(k); err != nil {
			return err
		}
		if err := r.elem.MarshalMsgpack(enc, v[k]); err != nil {
			return err
		}
	}
	return nil
}

func decodeArrayLen(dec *msgpack.Decoder, want string) (int, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return 0, err
	}
	if !isArrayCode(c) {
		return 0, mismatch(want, codeName(c))
	}
	return dec.DecodeArrayLen()
}
