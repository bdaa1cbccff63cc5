// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/opentofu/providersdk/wiretype"
	"github.com/opentofu/providersdk/wirevalue"
)

type testConfig struct {
	Foo  string
	ID   wirevalue.Maybe[string]
	Tags *wirevalue.Set[string]
}

func testRecord(t *testing.T) *Record[testConfig] {
	t.Helper()
	rec, err := NewRecord(
		BindField("foo", String,
			func(c *testConfig) string { return c.Foo },
			func(c *testConfig, v string) { c.Foo = v },
			Required()),
		BindField("id", MaybeUnknownOf(String),
			func(c *testConfig) wirevalue.Maybe[string] { return c.ID },
			func(c *testConfig, v wirevalue.Maybe[string]) { c.ID = v },
			Optional(), Computed()),
		BindField("tags", OptionalOf(SetOf(String)),
			func(c *testConfig) *wirevalue.Set[string] { return c.Tags },
			func(c *testConfig, v *wirevalue.Set[string]) { c.Tags = v },
			Optional()),
	)
	if err != nil {
		t.Fatalf("record construction failed: %s", err)
	}
	return rec
}

func TestRecordAttributes(t *testing.T) {
	rec := testRecord(t)
	attrs := rec.Attributes()
	if len(attrs) != 3 {
		t.Fatalf("wrong attribute count %d", len(attrs))
	}
	if attrs[0].Name != "foo" || !attrs[0].Required {
		t.Errorf("wrong first attribute %+v", attrs[0])
	}
	ty, err := wiretype.Serialize(attrs[0].Type)
	if err != nil {
		t.Fatal(err)
	}
	if string(ty) != `"string"` {
		t.Errorf("wrong type encoding %s", ty)
	}
	if !attrs[1].Computed || !attrs[1].Optional {
		t.Errorf("wrong second attribute %+v", attrs[1])
	}
	ty, err = wiretype.Serialize(attrs[2].Type)
	if err != nil {
		t.Fatal(err)
	}
	if string(ty) != `["set","string"]` {
		t.Errorf("wrong type encoding %s", ty)
	}
}

func TestRecordRoundTrip(t *testing.T) {
	rec := testRecord(t)
	tags := wirevalue.NewSet("x", "y")
	in := testConfig{
		Foo:  "hello",
		ID:   wirevalue.Known("id-1"),
		Tags: &tags,
	}
	body, err := rec.Encode(&in)
	if err != nil {
		t.Fatalf("encode: %s", err)
	}
	out, err := rec.Decode(body, nil)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if diff := cmp.Diff(in, out, cmp.AllowUnexported(wirevalue.Maybe[string]{})); diff != "" {
		t.Errorf("wrong result\n%s", diff)
	}
}

func TestRecordUnknownPassthrough(t *testing.T) {
	rec := testRecord(t)
	in := testConfig{
		Foo: "hello",
		ID:  wirevalue.NotKnown[string](wirevalue.Unrefined{}),
	}
	body, err := rec.Encode(&in)
	if err != nil {
		t.Fatalf("encode: %s", err)
	}
	out, err := rec.Decode(body, nil)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if out.ID.IsKnown() {
		t.Error("expected id to stay unknown")
	}
}

func TestRecordJSONBody(t *testing.T) {
	rec := testRecord(t)
	out, err := rec.Decode(nil, []byte(`{"foo":"hi","id":"known","tags":["a","a","b"]}`))
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if out.Foo != "hi" || out.ID.Value() != "known" {
		t.Errorf("wrong result %+v", out)
	}
	if out.Tags == nil || len(*out.Tags) != 2 {
		t.Errorf("wrong tags %v", out.Tags)
	}
}

func TestRecordMissingFields(t *testing.T) {
	rec := testRecord(t)

	// optional fields may be absent
	out, err := rec.Decode(nil, []byte(`{"foo":"hi"}`))
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if out.Tags != nil {
		t.Errorf("expected nil tags, got %v", out.Tags)
	}

	// required fields may not
	_, err = rec.Decode(nil, []byte(`{"id":"x"}`))
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) || fieldErr.Name != "foo" {
		t.Fatalf("wrong error %v", err)
	}
}

func TestRecordUnknownField(t *testing.T) {
	rec := testRecord(t)
	_, err := rec.Decode(nil, []byte(`{"foo":"hi","nope":1}`))
	var unknownErr *UnknownFieldError
	if !errors.As(err, &unknownErr) || unknownErr.Name != "nope" {
		t.Fatalf("wrong error %v", err)
	}
}

func TestRecordFieldErrorCarriesName(t *testing.T) {
	rec := testRecord(t)
	_, err := rec.Decode(nil, []byte(`{"foo":true}`))
	var fieldErr *FieldError
	if !errors.As(err, &fieldErr) {
		t.Fatalf("wrong error type %T: %v", err, err)
	}
	if fieldErr.Name != "foo" {
		t.Errorf("wrong field name %q", fieldErr.Name)
	}
	var mismatchErr *wirevalue.TypeMismatchError
	if !errors.As(err, &mismatchErr) {
		t.Errorf("field error does not wrap the mismatch: %v", err)
	}
}

func TestRecordOptionalNull(t *testing.T) {
	rec := testRecord(t)

	out, err := rec.DecodeOptional([]byte{0xc0}, nil)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if out != nil {
		t.Errorf("expected nil record, got %+v", out)
	}

	body, err := rec.EncodeOptional(nil)
	if err != nil {
		t.Fatalf("encode: %s", err)
	}
	if len(body) != 1 || body[0] != 0xc0 {
		t.Errorf("wrong encoding %x", body)
	}

	// a null body through the non-optional entry point is a mismatch
	if _, err := rec.Decode([]byte{0xc0}, nil); err == nil {
		t.Error("unexpected success decoding null as record")
	}
}

func TestRecordRawState(t *testing.T) {
	rec := testRecord(t)

	out, err := rec.DecodeRawState([]byte(`{"foo":"hi"}`), nil)
	if err != nil {
		t.Fatalf("decode: %s", err)
	}
	if out == nil || out.Foo != "hi" {
		t.Errorf("wrong result %+v", out)
	}

	if out, err := rec.DecodeRawState(nil, nil); err != nil || out != nil {
		t.Errorf("empty raw state should decode to nil, got %v, %v", out, err)
	}

	_, err = rec.DecodeRawState(nil, map[string]string{"foo": "hi"})
	var mismatchErr *wirevalue.TypeMismatchError
	if !errors.As(err, &mismatchErr) {
		t.Fatalf("wrong error %v", err)
	}
}

func TestUnboundType(t *testing.T) {
	_, err := NewRecord(
		BindField("weird", SetOf(Bool),
			func(c *testConfig) wirevalue.Set[bool] { return nil },
			func(c *testConfig, v wirevalue.Set[bool]) {},
			Required()),
	)
	var unboundErr *UnboundTypeError
	if !errors.As(err, &unboundErr) {
		t.Fatalf("wrong error %v", err)
	}
	if unboundErr.Field != "weird" {
		t.Errorf("wrong field %q", unboundErr.Field)
	}
}

func TestBindFieldTypeMismatch(t *testing.T) {
	// elem says string but the Go field is int64
	_, err := NewRecord(
		BindField("foo", String,
			func(c *testConfig) int64 { return 0 },
			func(c *testConfig, v int64) {},
			Required()),
	)
	var unboundErr *UnboundTypeError
	if !errors.As(err, &unboundErr) {
		t.Fatalf("wrong error %v", err)
	}
}

func TestAttributeInvariants(t *testing.T) {
	get := func(c *testConfig) string { return c.Foo }
	set := func(c *testConfig, v string) { c.Foo = v }

	tests := []struct {
		name string
		opts []FieldOption
		ok   bool
	}{
		{"required only", []FieldOption{Required()}, true},
		{"optional only", []FieldOption{Optional()}, true},
		{"optional computed", []FieldOption{Optional(), Computed()}, true},
		{"neither", nil, false},
		{"both", []FieldOption{Required(), Optional()}, false},
		{"required computed", []FieldOption{Required(), Computed()}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewRecord(BindField("foo", String, get, set, test.opts...))
			if test.ok && err != nil {
				t.Errorf("unexpected error: %s", err)
			}
			if !test.ok && err == nil {
				t.Error("unexpected success")
			}
		})
	}
}

func TestExplicitRepresentationPriority(t *testing.T) {
	// an explicit representation wins over what the field type would
	// otherwise bind to
	type cfg struct{ N string }
	rec, err := NewRecord(
		Field("n", wirevalue.DecimalString(),
			func(c *cfg) string { return c.N },
			func(c *cfg, v string) { c.N = v },
			Required()),
	)
	if err != nil {
		t.Fatal(err)
	}
	attrs := rec.Attributes()
	ty, err := wiretype.Serialize(attrs[0].Type)
	if err != nil {
		t.Fatal(err)
	}
	if string(ty) != `"number"` {
		t.Errorf("wrong wire type %s", ty)
	}
}

func TestFieldWithCodec(t *testing.T) {
	// a plain string codec pair with an explicit wire type round-trips
	type cfg struct{ S string }
	rec, err := NewRecord(
		FieldWithCodec("s", wiretype.String,
			func(dec *msgpack.Decoder) (string, error) { return dec.DecodeString() },
			func(enc *msgpack.Encoder, v string) error { return enc.EncodeString(v) },
			func(c *cfg) string { return c.S },
			func(c *cfg, v string) { c.S = v },
			Required()),
	)
	if err != nil {
		t.Fatal(err)
	}
	body, err := rec.Encode(&cfg{S: "ok"})
	if err != nil {
		t.Fatal(err)
	}
	out, err := rec.Decode(body, nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.S != "ok" {
		t.Errorf("wrong result %+v", out)
	}
}
