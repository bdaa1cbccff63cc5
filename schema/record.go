// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"bytes"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/vmihailenco/msgpack/v5"
	"github.com/vmihailenco/msgpack/v5/msgpcode"

	"github.com/opentofu/providersdk/wiretype"
	"github.com/opentofu/providersdk/wirevalue"
)

// Record binds a Go struct type R to a block of attributes: it derives
// the attribute list for schema emission and provides whole-object codecs
// between R and the wire encoding of the block.
//
// Records are built once, at provider start, from one FieldSpec per
// attribute. Representation resolution failures surface there, never
// during an RPC.
type Record[R any] struct {
	fields []boundField[R]
	byName map[string]int
}

type boundField[R any] struct {
	attr       Attribute
	decodeInto func(r *R, dec *msgpack.Decoder) error
	encodeFrom func(r *R, enc *msgpack.Encoder) error
}

// FieldSpec describes one attribute of a record: its metadata plus how to
// move its value between the wire and a field of R. Build them with
// Field, FieldWithCodec or BindField.
type FieldSpec[R any] struct {
	resolve func() (boundField[R], error)
}

// fieldMeta carries the attribute metadata set through FieldOptions.
type fieldMeta struct {
	description     string
	descriptionKind StringKind
	required        bool
	optional        bool
	computed        bool
	sensitive       bool
	deprecated      bool
}

// FieldOption customizes one attribute's metadata.
type FieldOption func(*fieldMeta)

// Required marks the attribute as required.
func Required() FieldOption { return func(m *fieldMeta) { m.required = true } }

// Optional marks the attribute as optional.
func Optional() FieldOption { return func(m *fieldMeta) { m.optional = true } }

// Computed marks the attribute as computed by the provider.
func Computed() FieldOption { return func(m *fieldMeta) { m.computed = true } }

// Sensitive marks the attribute's values as sensitive.
func Sensitive() FieldOption { return func(m *fieldMeta) { m.sensitive = true } }

// Deprecated marks the attribute as deprecated.
func Deprecated() FieldOption { return func(m *fieldMeta) { m.deprecated = true } }

// Description attaches a plain-text description.
func Description(text string) FieldOption {
	return func(m *fieldMeta) {
		m.description = text
		m.descriptionKind = StringPlain
	}
}

// MarkdownDescription attaches a markdown description.
func MarkdownDescription(text string) FieldOption {
	return func(m *fieldMeta) {
		m.description = text
		m.descriptionKind = StringMarkdown
	}
}

func buildAttr(name string, ty wiretype.Type, opts []FieldOption) Attribute {
	var meta fieldMeta
	for _, opt := range opts {
		opt(&meta)
	}
	return Attribute{
		Name:            name,
		Type:            ty,
		Description:     meta.description,
		DescriptionKind: meta.descriptionKind,
		Required:        meta.required,
		Optional:        meta.optional,
		Computed:        meta.computed,
		Sensitive:       meta.sensitive,
		Deprecated:      meta.deprecated,
	}
}

// Field declares an attribute with an explicit representation. The getter
// and setter connect the attribute to a field of R.
func Field[R, V any](name string, repr wirevalue.Representation[V], get func(*R) V, set func(*R, V), opts ...FieldOption) FieldSpec[R] {
	return FieldSpec[R]{resolve: func() (boundField[R], error) {
		return bindRepr(name, repr, get, set, opts), nil
	}}
}

// FieldWithCodec declares an attribute with an explicit wire type and
// marshal/unmarshal pair, for one-off encodings that don't warrant a
// named representation.
func FieldWithCodec[R, V any](name string, ty wiretype.Type, unmarshal func(*msgpack.Decoder) (V, error), marshal func(*msgpack.Encoder, V) error, get func(*R) V, set func(*R, V), opts ...FieldOption) FieldSpec[R] {
	return Field(name, codecRepr[V]{ty: ty, unmarshal: unmarshal, marshal: marshal}, get, set, opts...)
}

// BindField declares an attribute whose representation is looked up from
// the static element type descriptor. The descriptor's representation
// must produce the field's Go type V; a missing or mismatched binding
// fails record construction with UnboundTypeError.
func BindField[R, V any](name string, elem Elem, get func(*R) V, set func(*R, V), opts ...FieldOption) FieldSpec[R] {
	return FieldSpec[R]{resolve: func() (boundField[R], error) {
		reprAny, ok := lookupRepresentation(elem)
		if !ok {
			return boundField[R]{}, &UnboundTypeError{Field: name, Elem: elem.String()}
		}
		repr, ok := reprAny.(wirevalue.Representation[V])
		if !ok {
			return boundField[R]{}, &UnboundTypeError{
				Field: name,
				Elem:  fmt.Sprintf("%s (field type does not match the built-in representation)", elem),
			}
		}
		return bindRepr(name, repr, get, set, opts), nil
	}}
}

func bindRepr[R, V any](name string, repr wirevalue.Representation[V], get func(*R) V, set func(*R, V), opts []FieldOption) boundField[R] {
	return boundField[R]{
		attr: buildAttr(name, repr.WireType(), opts),
		decodeInto: func(r *R, dec *msgpack.Decoder) error {
			v, err := repr.UnmarshalMsgpack(dec)
			if err != nil {
				return err
			}
			set(r, v)
			return nil
		},
		encodeFrom: func(r *R, enc *msgpack.Encoder) error {
			return repr.MarshalMsgpack(enc, get(r))
		},
	}
}

type codecRepr[V any] struct {
	ty        wiretype.Type
	unmarshal func(*msgpack.Decoder) (V, error)
	marshal   func(*msgpack.Encoder, V) error
}

func (c codecRepr[V]) WireType() wiretype.Type { return c.ty }

func (c codecRepr[V]) UnmarshalMsgpack(dec *msgpack.Decoder) (V, error) {
	return c.unmarshal(dec)
}

func (c codecRepr[V]) MarshalMsgpack(enc *msgpack.Encoder, v V) error {
	return c.marshal(enc, v)
}

// NewRecord builds a record binding from its field specs. All resolution
// and attribute-invariant failures are reported together.
func NewRecord[R any](fields ...FieldSpec[R]) (*Record[R], error) {
	rec := &Record[R]{
		byName: make(map[string]int, len(fields)),
	}
	var errs *multierror.Error
	for _, spec := range fields {
		bound, err := spec.resolve()
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if err := bound.attr.Validate(); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		if _, dup := rec.byName[bound.attr.Name]; dup {
			errs = multierror.Append(errs, fmt.Errorf("duplicate attribute %q", bound.attr.Name))
			continue
		}
		rec.byName[bound.attr.Name] = len(rec.fields)
		rec.fields = append(rec.fields, bound)
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, err
	}
	return rec, nil
}

// MustRecord is like NewRecord but panics on error. Record construction
// happens once at provider start, so a failure here is a programming
// error in the provider itself.
func MustRecord[R any](fields ...FieldSpec[R]) *Record[R] {
	rec, err := NewRecord(fields...)
	if err != nil {
		panic(err)
	}
	return rec
}

// Attributes returns the attribute list in declaration order.
func (rec *Record[R]) Attributes() []Attribute {
	out := make([]Attribute, 0, len(rec.fields))
	for i := range rec.fields {
		out = append(out, rec.fields[i].attr)
	}
	return out
}

// Decode unmarshals a DynamicValue body (either encoding) into a new R.
// A null body is a type mismatch; use DecodeOptional where null is
// meaningful.
func (rec *Record[R]) Decode(msgpackBody, jsonBody []byte) (R, error) {
	var zero R
	body, err := wirevalue.Body(msgpackBody, jsonBody)
	if err != nil {
		return zero, err
	}
	dec := msgpack.NewDecoder(bytes.NewReader(body))
	return rec.decodeObject(dec)
}

// DecodeOptional is like Decode but maps a null wire value to nil.
func (rec *Record[R]) DecodeOptional(msgpackBody, jsonBody []byte) (*R, error) {
	body, err := wirevalue.Body(msgpackBody, jsonBody)
	if err != nil {
		return nil, err
	}
	dec := msgpack.NewDecoder(bytes.NewReader(body))
	c, err := dec.PeekCode()
	if err != nil {
		return nil, err
	}
	if c == msgpcode.Nil {
		return nil, nil
	}
	r, err := rec.decodeObject(dec)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (rec *Record[R]) decodeObject(dec *msgpack.Decoder) (R, error) {
	var r R
	c, err := dec.PeekCode()
	if err != nil {
		return r, err
	}
	if !msgpcode.IsFixedMap(c) && c != msgpcode.Map16 && c != msgpcode.Map32 {
		return r, &wirevalue.TypeMismatchError{Want: "object", Got: describeCode(c)}
	}
	n, err := dec.DecodeMapLen()
	if err != nil {
		return r, err
	}
	seen := make([]bool, len(rec.fields))
	for i := 0; i < n; i++ {
		key, err := dec.DecodeString()
		if err != nil {
			return r, fmt.Errorf("object key: %w", err)
		}
		idx, ok := rec.byName[key]
		if !ok {
			return r, &UnknownFieldError{Name: key}
		}
		field := &rec.fields[idx]
		if err := field.decodeInto(&r, dec); err != nil {
			return r, &FieldError{Name: key, Err: err}
		}
		seen[idx] = true
	}
	for i := range rec.fields {
		if seen[i] {
			continue
		}
		if !rec.fields[i].attr.Optional {
			return r, &FieldError{
				Name: rec.fields[i].attr.Name,
				Err:  fmt.Errorf("missing required attribute"),
			}
		}
	}
	return r, nil
}

// Encode marshals r to a msgpack DynamicValue body with every attribute
// present, in declaration order.
func (rec *Record[R]) Encode(r *R) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := enc.EncodeMapLen(len(rec.fields)); err != nil {
		return nil, err
	}
	for i := range rec.fields {
		field := &rec.fields[i]
		if err := enc.EncodeString(field.attr.Name); err != nil {
			return nil, err
		}
		if err := field.encodeFrom(r, enc); err != nil {
			return nil, &FieldError{Name: field.attr.Name, Err: err}
		}
	}
	return buf.Bytes(), nil
}

// EncodeOptional is like Encode but maps nil to a null wire value.
func (rec *Record[R]) EncodeOptional(r *R) ([]byte, error) {
	if r == nil {
		var buf bytes.Buffer
		enc := msgpack.NewEncoder(&buf)
		if err := enc.EncodeNil(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return rec.Encode(r)
}

// DecodeRawState unmarshals the client's raw state representation, used
// during state upgrades. Raw state is always JSON; the legacy flatmap form
// predates the current protocol and is not supported.
func (rec *Record[R]) DecodeRawState(jsonBody []byte, flatmap map[string]string) (*R, error) {
	if len(flatmap) > 0 {
		return nil, &wirevalue.TypeMismatchError{Want: "JSON raw state", Got: "legacy flatmap state"}
	}
	if len(jsonBody) == 0 {
		return nil, nil
	}
	return rec.DecodeOptional(nil, jsonBody)
}

func describeCode(c byte) string {
	switch {
	case c == msgpcode.Nil:
		return "null"
	case msgpcode.IsFixedArray(c), c == msgpcode.Array16, c == msgpcode.Array32:
		return "sequence"
	case msgpcode.IsString(c):
		return "string"
	default:
		return fmt.Sprintf("msgpack code 0x%02x", c)
	}
}
