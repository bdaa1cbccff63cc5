// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package wiretype

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Parse decodes the JSON encoding of a wire type, as produced by
// Serialize. The modifier kinds Optional and MaybeUnknown have no JSON
// representation, so parsing the serialization of a modified type yields
// the bare inner type.
func Parse(src []byte) (Type, error) {
	dec := json.NewDecoder(bytes.NewReader(src))
	dec.UseNumber()
	ty, err := parseType(dec)
	if err != nil {
		return nil, err
	}
	// trailing garbage after a valid type is malformed input
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("extraneous data after type")
	}
	return ty, nil
}

func parseType(dec *json.Decoder) (Type, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid type encoding: %w", err)
	}

	switch tok := tok.(type) {
	case string:
		switch tok {
		case "string":
			return String, nil
		case "number":
			return Number, nil
		case "bool":
			return Bool, nil
		default:
			return nil, fmt.Errorf("unsupported primitive type %q", tok)
		}
	case json.Delim:
		if tok != '[' {
			return nil, fmt.Errorf("invalid type encoding: unexpected %v", tok)
		}
	default:
		return nil, fmt.Errorf("invalid type encoding: unexpected token %v", tok)
	}

	kindTok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid type encoding: %w", err)
	}
	kind, ok := kindTok.(string)
	if !ok {
		return nil, fmt.Errorf("invalid type encoding: kind must be a string")
	}

	var ty Type
	switch kind {
	case "list", "set", "map":
		elem, err := parseType(dec)
		if err != nil {
			return nil, err
		}
		switch kind {
		case "list":
			ty = List{Elem: elem}
		case "set":
			ty = Set{Elem: elem}
		case "map":
			ty = Map{Elem: elem}
		}
	case "object":
		obj, err := parseObjectAttrs(dec)
		if err != nil {
			return nil, err
		}
		ty = obj
	case "tuple":
		return nil, fmt.Errorf("tuple types are not supported")
	default:
		return nil, fmt.Errorf("unsupported type kind %q", kind)
	}

	closeTok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("invalid type encoding: %w", err)
	}
	if d, ok := closeTok.(json.Delim); !ok || d != ']' {
		return nil, fmt.Errorf("invalid %s type: expected two-element array", kind)
	}
	return ty, nil
}

func parseObjectAttrs(dec *json.Decoder) (Object, error) {
	openTok, err := dec.Token()
	if err != nil {
		return Object{}, fmt.Errorf("invalid object type: %w", err)
	}
	if d, ok := openTok.(json.Delim); !ok || d != '{' {
		return Object{}, fmt.Errorf("invalid object type: attributes must be an object")
	}

	var attrs []ObjectAttr
	for dec.More() {
		nameTok, err := dec.Token()
		if err != nil {
			return Object{}, fmt.Errorf("invalid object type: %w", err)
		}
		name := nameTok.(string)
		attrTy, err := parseType(dec)
		if err != nil {
			return Object{}, fmt.Errorf("object attribute %q: %w", name, err)
		}
		attrs = append(attrs, ObjectAttr{Name: name, Type: attrTy})
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return Object{}, fmt.Errorf("invalid object type: %w", err)
	}
	return Object{Attrs: attrs}, nil
}
