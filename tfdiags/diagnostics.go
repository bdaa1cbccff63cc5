// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

// Package tfdiags accumulates the structured errors and warnings a
// provider reports back to the client, optionally targeted at a specific
// attribute inside a nested configuration value.
package tfdiags

import (
	proto "github.com/apparentlymart/opentofu-providers/tofuprovider/grpc/tfplugin6"
)

// Severity classifies a diagnostic.
type Severity rune

const (
	Error   Severity = 'E'
	Warning Severity = 'W'
)

// Diagnostic is one error or warning, optionally pointing at the attribute
// it concerns.
type Diagnostic struct {
	Severity  Severity
	Summary   string
	Detail    string
	Attribute *AttributePath
}

// Diagnostics is an ordered collection of diagnostics. The zero value is
// ready to use; during one RPC it only ever grows.
type Diagnostics struct {
	diags []Diagnostic
}

// Append adds one diagnostic.
func (d *Diagnostics) Append(diag Diagnostic) {
	d.diags = append(d.diags, diag)
}

// AddError appends an error diagnostic.
func (d *Diagnostics) AddError(summary, detail string) {
	d.Append(Diagnostic{Severity: Error, Summary: summary, Detail: detail})
}

// AddAttributeError appends an error diagnostic targeting an attribute.
func (d *Diagnostics) AddAttributeError(path *AttributePath, summary, detail string) {
	d.Append(Diagnostic{Severity: Error, Summary: summary, Detail: detail, Attribute: path})
}

// AddWarning appends a warning diagnostic.
func (d *Diagnostics) AddWarning(summary, detail string) {
	d.Append(Diagnostic{Severity: Warning, Summary: summary, Detail: detail})
}

// HasErrors reports whether at least one error-severity diagnostic has
// been collected.
func (d *Diagnostics) HasErrors() bool {
	for _, diag := range d.diags {
		if diag.Severity == Error {
			return true
		}
	}
	return false
}

// Errs returns the error-severity diagnostics in order.
func (d *Diagnostics) Errs() []Diagnostic {
	return d.filter(Error)
}

// Warnings returns the warning-severity diagnostics in order.
func (d *Diagnostics) Warnings() []Diagnostic {
	return d.filter(Warning)
}

// Len returns the total number of collected diagnostics.
func (d *Diagnostics) Len() int {
	return len(d.diags)
}

func (d *Diagnostics) filter(severity Severity) []Diagnostic {
	var out []Diagnostic
	for _, diag := range d.diags {
		if diag.Severity == severity {
			out = append(out, diag)
		}
	}
	return out
}

// ToProto converts the collected diagnostics to their wire form, in
// collection order.
func (d *Diagnostics) ToProto() []*proto.Diagnostic {
	if len(d.diags) == 0 {
		return nil
	}
	out := make([]*proto.Diagnostic, 0, len(d.diags))
	for _, diag := range d.diags {
		pd := &proto.Diagnostic{
			Severity: proto.Diagnostic_ERROR,
			Summary:  diag.Summary,
			Detail:   diag.Detail,
		}
		if diag.Severity == Warning {
			pd.Severity = proto.Diagnostic_WARNING
		}
		if diag.Attribute != nil {
			pd.Attribute = diag.Attribute.ToProto()
		}
		out = append(out, pd)
	}
	return out
}
