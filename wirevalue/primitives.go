// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package wirevalue

import (
	"fmt"
	"math"
	"math/big"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/opentofu/providersdk/wiretype"
)

// String is the trivial representation of the string wire type.
func String() Representation[string] {
	return stringRepr{}
}

type stringRepr struct{}

func (stringRepr) WireType() wiretype.Type { return wiretype.String }

func (stringRepr) UnmarshalMsgpack(dec *msgpack.Decoder) (string, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return "", err
	}
	if !msgpcode.IsString(c) && !msgpcode.IsFixedString(c) {
		return "", mismatch("string", codeName(c))
	}
	return dec.DecodeString()
}

func (stringRepr) MarshalMsgpack(enc *msgpack.Encoder, v string) error {
	return enc.EncodeString(v)
}

// Bool is the representation of the bool wire type. Only the literal
// true/false values are accepted.
func Bool() Representation[bool] {
	return boolRepr{}
}

type boolRepr struct{}

func (boolRepr) WireType() wiretype.Type { return wiretype.Bool }

func (boolRepr) UnmarshalMsgpack(dec *msgpack.Decoder) (bool, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return false, err
	}
	if c != msgpcode.True && c != msgpcode.False {
		return false, mismatch("bool", codeName(c))
	}
	return dec.DecodeBool()
}

func (boolRepr) MarshalMsgpack(enc *msgpack.Encoder, v bool) error {
	return enc.EncodeBool(v)
}

// The number wire type covers integers, floats and decimal strings
// simultaneously; which Go type a field uses is chosen per field by picking
// one of the representations below. All three accept any of the wire forms
// on input; the output form follows the Go type.

// Int64 represents the number wire type as int64. Fractional or
// out-of-range inputs are a type mismatch.
func Int64() Representation[int64] {
	return int64Repr{}
}

type int64Repr struct{}

func (int64Repr) WireType() wiretype.Type { return wiretype.Number }

func (int64Repr) UnmarshalMsgpack(dec *msgpack.Decoder) (int64, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return 0, err
	}
	switch {
	case c == msgpcode.Uint64:
		// DecodeInt64 would silently wrap uint64 values above the int64
		// range, so those are checked here
		u, err := dec.DecodeUint64()
		if err != nil {
			return 0, err
		}
		if u > math.MaxInt64 {
			return 0, mismatch("integer in int64 range", "integer")
		}
		return int64(u), nil
	case isIntCode(c):
		n, err := dec.DecodeInt64()
		if err != nil {
			return 0, err
		}
		return n, nil
	case isFloatCode(c):
		f, err := dec.DecodeFloat64()
		if err != nil {
			return 0, err
		}
		n := int64(f)
		if float64(n) != f {
			return 0, mismatch("whole number", fmt.Sprintf("float %v", f))
		}
		return n, nil
	case msgpcode.IsString(c) || msgpcode.IsFixedString(c):
		s, err := dec.DecodeString()
		if err != nil {
			return 0, err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, mismatch("integer in int64 range", fmt.Sprintf("string %q", s))
		}
		return n, nil
	default:
		return 0, mismatch("number", codeName(c))
	}
}

func (int64Repr) MarshalMsgpack(enc *msgpack.Encoder, v int64) error {
	return enc.EncodeInt(v)
}

// Float64 represents the number wire type as float64.
func Float64() Representation[float64] {
	return float64Repr{}
}

type float64Repr struct{}

func (float64Repr) WireType() wiretype.Type { return wiretype.Number }

func (float64Repr) UnmarshalMsgpack(dec *msgpack.Decoder) (float64, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return 0, err
	}
	switch {
	case isIntCode(c):
		n, err := dec.DecodeInt64()
		if err != nil {
			return 0, mismatch("number", "integer")
		}
		return float64(n), nil
	case isFloatCode(c):
		return dec.DecodeFloat64()
	case msgpcode.IsString(c) || msgpcode.IsFixedString(c):
		s, err := dec.DecodeString()
		if err != nil {
			return 0, err
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, mismatch("number", fmt.Sprintf("string %q", s))
		}
		return f, nil
	default:
		return 0, mismatch("number", codeName(c))
	}
}

func (float64Repr) MarshalMsgpack(enc *msgpack.Encoder, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return &EncodingError{Reason: fmt.Sprintf("number %v has no wire encoding", v)}
	}
	return enc.EncodeFloat64(v)
}

// DecimalString represents the number wire type as a decimal string,
// preserving precision beyond what int64 or float64 can carry. The string
// must parse as a decimal number; it is emitted as a msgpack string, which
// the protocol accepts for high-precision numbers.
func DecimalString() Representation[string] {
	return decimalStringRepr{}
}

type decimalStringRepr struct{}

func (decimalStringRepr) WireType() wiretype.Type { return wiretype.Number }

func (decimalStringRepr) UnmarshalMsgpack(dec *msgpack.Decoder) (string, error) {
	c, err := dec.PeekCode()
	if err != nil {
		return "", err
	}
	switch {
	case c == msgpcode.Uint64:
		u, err := dec.DecodeUint64()
		if err != nil {
			return "", err
		}
		return strconv.FormatUint(u, 10), nil
	case isIntCode(c):
		n, err := dec.DecodeInt64()
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil
	case isFloatCode(c):
		f, err := dec.DecodeFloat64()
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil
	case msgpcode.IsString(c) || msgpcode.IsFixedString(c):
		s, err := dec.DecodeString()
		if err != nil {
			return "", err
		}
		if _, ok := new(big.Float).SetString(s); !ok {
			return "", mismatch("decimal number", fmt.Sprintf("string %q", s))
		}
		return s, nil
	default:
		return "", mismatch("number", codeName(c))
	}
}

func (decimalStringRepr) MarshalMsgpack(enc *msgpack.Encoder, v string) error {
	if _, ok := new(big.Float).SetString(v); !ok {
		return &EncodingError{Reason: fmt.Sprintf("string %q is not a decimal number", v)}
	}
	return enc.EncodeString(v)
}
