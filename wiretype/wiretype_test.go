// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package wiretype

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSerialize(t *testing.T) {
	tests := []struct {
		ty   Type
		want string
	}{
		{String, `"string"`},
		{Number, `"number"`},
		{Bool, `"bool"`},
		{List{Elem: String}, `["list","string"]`},
		{Set{Elem: Number}, `["set","number"]`},
		{Map{Elem: Bool}, `["map","bool"]`},
		{List{Elem: Set{Elem: String}}, `["list",["set","string"]]`},
		{
			Object{Attrs: []ObjectAttr{
				{Name: "name", Type: String},
				{Name: "count", Type: Number},
			}},
			`["object",{"name":"string","count":"number"}]`,
		},
		// the modifiers are invisible on the wire
		{Optional{Inner: String}, `"string"`},
		{MaybeUnknown{Inner: String}, `"string"`},
		{Optional{Inner: MaybeUnknown{Inner: Set{Elem: String}}}, `["set","string"]`},
	}

	for _, test := range tests {
		t.Run(test.want, func(t *testing.T) {
			got, err := Serialize(test.ty)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}
			if string(got) != test.want {
				t.Errorf("wrong result\ngot:  %s\nwant: %s", got, test.want)
			}
		})
	}
}

func TestObjectAttrOrder(t *testing.T) {
	// attribute order must follow declaration order, not sort order
	ty := Object{Attrs: []ObjectAttr{
		{Name: "zzz", Type: String},
		{Name: "aaa", Type: Bool},
	}}
	got, err := Serialize(ty)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	want := `["object",{"zzz":"string","aaa":"bool"}]`
	if string(got) != want {
		t.Errorf("wrong result\ngot:  %s\nwant: %s", got, want)
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ty   Type
		want Type // nil means same as ty
	}{
		{"string", String, nil},
		{"number", Number, nil},
		{"bool", Bool, nil},
		{"list of string", List{Elem: String}, nil},
		{"set of bool", Set{Elem: Bool}, nil},
		{"map of number", Map{Elem: Number}, nil},
		{"nested collections", Map{Elem: List{Elem: Set{Elem: String}}}, nil},
		{
			"object",
			Object{Attrs: []ObjectAttr{
				{Name: "id", Type: String},
				{Name: "tags", Type: Set{Elem: String}},
			}},
			nil,
		},
		// modifiers are erased by serialization, so they do not survive
		// the round trip
		{"optional string", Optional{Inner: String}, String},
		{"maybe-unknown list", MaybeUnknown{Inner: List{Elem: String}}, List{Elem: String}},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			src, err := Serialize(test.ty)
			if err != nil {
				t.Fatalf("serialize: %s", err)
			}
			got, err := Parse(src)
			if err != nil {
				t.Fatalf("parse: %s", err)
			}
			want := test.want
			if want == nil {
				want = test.ty
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("wrong result\n%s", diff)
			}
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ``},
		{"unknown primitive", `"dynamic"`},
		{"tuple unsupported", `["tuple",["string"]]`},
		{"unknown kind", `["frob","string"]`},
		{"missing element type", `["list"]`},
		{"trailing garbage", `"string" true`},
		{"number literal", `12`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := Parse([]byte(test.src)); err == nil {
				t.Errorf("unexpected success parsing %s", test.src)
			}
		})
	}
}
