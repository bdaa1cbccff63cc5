// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package wirevalue

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// Body returns the msgpack encoding of a DynamicValue's contents, given
// its two optional byte strings. The msgpack form is preferred when
// present; a JSON body is normalized to msgpack so the codec has a single
// input format. JSON cannot represent unknown values, so the normalization
// never needs to produce extension values.
func Body(msgpackBody, jsonBody []byte) ([]byte, error) {
	switch {
	case len(msgpackBody) > 0:
		return msgpackBody, nil
	case len(jsonBody) > 0:
		return JSONToMsgpack(jsonBody)
	default:
		return nil, fmt.Errorf("dynamic value carries neither msgpack nor JSON content")
	}
}

// JSONToMsgpack re-encodes a JSON document as msgpack. Object key order is
// preserved. Numbers become msgpack strings, which the number
// representations accept regardless of magnitude or precision.
func JSONToMsgpack(src []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(src))
	dec.UseNumber()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	if err := transcodeJSONValue(dec, enc); err != nil {
		return nil, fmt.Errorf("invalid JSON body: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("invalid JSON body: extraneous data after value")
	}
	return buf.Bytes(), nil
}

func transcodeJSONValue(dec *json.Decoder, enc *msgpack.Encoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch tok := tok.(type) {
	case nil:
		return enc.EncodeNil()
	case bool:
		return enc.EncodeBool(tok)
	case string:
		return enc.EncodeString(tok)
	case json.Number:
		return enc.EncodeString(tok.String())
	case json.Delim:
		switch tok {
		case '[':
			// JSON gives no length prefix, so collect into a raw buffer
			// per element before writing the array header.
			var raws [][]byte
			for dec.More() {
				var elemBuf bytes.Buffer
				elemEnc := msgpack.NewEncoder(&elemBuf)
				if err := transcodeJSONValue(dec, elemEnc); err != nil {
					return err
				}
				raws = append(raws, elemBuf.Bytes())
			}
			if _, err := dec.Token(); err != nil { // ']'
				return err
			}
			if err := enc.EncodeArrayLen(len(raws)); err != nil {
				return err
			}
			for _, raw := range raws {
				if _, err := enc.Writer().Write(raw); err != nil {
					return err
				}
			}
			return nil
		case '{':
			type kv struct {
				key string
				raw []byte
			}
			var pairs []kv
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return err
				}
				var valBuf bytes.Buffer
				valEnc := msgpack.NewEncoder(&valBuf)
				if err := transcodeJSONValue(dec, valEnc); err != nil {
					return err
				}
				pairs = append(pairs, kv{key: keyTok.(string), raw: valBuf.Bytes()})
			}
			if _, err := dec.Token(); err != nil { // '}'
				return err
			}
			if err := enc.EncodeMapLen(len(pairs)); err != nil {
				return err
			}
			for _, pair := range pairs {
				if err := enc.EncodeString(pair.key); err != nil {
					return err
				}
				if _, err := enc.Writer().Write(pair.raw); err != nil {
					return err
				}
			}
			return nil
		default:
			return fmt.Errorf("unexpected delimiter %v", tok)
		}
	default:
		return fmt.Errorf("unexpected token %v", tok)
	}
}
