// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rpcplugin

import (
	"crypto/x509"
	"encoding/base64"
	"slices"
	"testing"
	"time"
)

func TestGenerateServerCert(t *testing.T) {
	cert, err := generateServerCert()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	leaf := cert.tlsCert.Leaf
	if leaf == nil {
		t.Fatal("missing parsed leaf certificate")
	}

	if !leaf.IsCA {
		t.Error("certificate must assert CA:TRUE")
	}
	if !slices.Contains(leaf.DNSNames, "localhost") {
		t.Errorf("SAN must list localhost, got %v", leaf.DNSNames)
	}
	if leaf.Subject.CommonName != "localhost" {
		t.Errorf("wrong common name %q", leaf.Subject.CommonName)
	}

	wantUsage := x509.KeyUsageDigitalSignature |
		x509.KeyUsageKeyEncipherment |
		x509.KeyUsageKeyAgreement |
		x509.KeyUsageCertSign
	if leaf.KeyUsage != wantUsage {
		t.Errorf("wrong key usage %b, want %b", leaf.KeyUsage, wantUsage)
	}
	if !slices.Contains(leaf.ExtKeyUsage, x509.ExtKeyUsageServerAuth) ||
		!slices.Contains(leaf.ExtKeyUsage, x509.ExtKeyUsageClientAuth) {
		t.Errorf("wrong extended key usage %v", leaf.ExtKeyUsage)
	}

	now := time.Now()
	if !leaf.NotBefore.Before(now) {
		t.Errorf("validity must start in the past, got %s", leaf.NotBefore)
	}
	if leaf.NotBefore.Before(now.Add(-time.Minute)) {
		t.Errorf("validity starts too far in the past: %s", leaf.NotBefore)
	}
	wantExpiry := now.Add(3 * 24 * time.Hour)
	if leaf.NotAfter.Before(wantExpiry.Add(-time.Minute)) || leaf.NotAfter.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("wrong expiry %s, want about %s", leaf.NotAfter, wantExpiry)
	}

	// the handshake form must be standard padded base64 of the DER bytes
	der, err := base64.StdEncoding.DecodeString(cert.base64)
	if err != nil {
		t.Fatalf("handshake form is not standard base64: %s", err)
	}
	if _, err := x509.ParseCertificate(der); err != nil {
		t.Fatalf("handshake form does not decode to a certificate: %s", err)
	}
	if len(cert.base64) < 500 {
		t.Errorf("suspiciously short certificate encoding (%d chars)", len(cert.base64))
	}

	// every process gets its own key
	again, err := generateServerCert()
	if err != nil {
		t.Fatal(err)
	}
	if again.base64 == cert.base64 {
		t.Error("two generated certificates are identical")
	}
}
