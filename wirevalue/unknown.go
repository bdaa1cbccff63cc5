// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package wirevalue

import "fmt"

// Msgpack extension codes used by the protocol to mark values that are not
// yet known during planning.
const (
	extUnrefinedUnknown int8 = 0
	extRefinedUnknown   int8 = 12
)

// Unknown is the marker for a value that is not yet known, used by the
// client during planning. The two meaningful variants are Unrefined (a bare
// "not known yet") and Refined (carrying refinement data such as length or
// range bounds). Any other extension code found on the wire decodes as
// Opaque and cannot be re-encoded.
type Unknown interface {
	unknownSigil()
}

// Unrefined is an unknown value without refinements. On the wire it is
// msgpack extension 0 with an empty payload.
type Unrefined struct{}

func (Unrefined) unknownSigil() {}

func (Unrefined) String() string { return "unknown" }

// Refined is an unknown value carrying refinement data. The payload is the
// raw msgpack encoding of the refinement record; it is preserved verbatim
// and round-trips unchanged.
type Refined struct {
	Payload []byte
}

func (Refined) unknownSigil() {}

func (Refined) String() string { return "unknown (refined)" }

// Opaque is an unknown value with an extension code this package does not
// understand. It is accepted on decode so that protocol evolution does not
// break existing providers, but attempting to encode one is an
// EncodingError.
type Opaque struct {
	Code    int8
	Payload []byte
}

func (Opaque) unknownSigil() {}

func (o Opaque) String() string { return fmt.Sprintf("unknown (ext %d)", o.Code) }
