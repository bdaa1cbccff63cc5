// Copyright (c) The OpenTofu Authors
// SPDX-License-Identifier: MPL-2.0
// Copyright (c) 2023 HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package rpcplugin

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"fmt"
	"math/big"
	"time"
)

// serverCert is the per-process TLS identity advertised through the
// handshake line.
type serverCert struct {
	tlsCert tls.Certificate

	// base64 is the standard (padded) base64 of the certificate's DER
	// encoding, as required by the handshake.
	base64 string
}

// generateServerCert creates a fresh self-signed certificate for this
// plugin process. Validity starts 30 seconds in the past to tolerate
// clock skew on the host side and lasts three days, which comfortably
// outlives any plugin process.
func generateServerCert() (*serverCert, error) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("generating RSA key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, fmt.Errorf("generating serial number: %w", err)
	}

	name := pkix.Name{
		Country:      []string{"US"},
		Province:     []string{"California"},
		Locality:     []string{"San Francisco"},
		Organization: []string{"OpenTofu"},
		CommonName:   "localhost",
	}

	now := time.Now()
	// self-signed, so the subject doubles as the issuer
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject:      name,
		NotBefore:    now.Add(-30 * time.Second),
		NotAfter:     now.Add(3 * 24 * time.Hour),
		DNSNames:     []string{"localhost"},
		KeyUsage: x509.KeyUsageDigitalSignature |
			x509.KeyUsageKeyEncipherment |
			x509.KeyUsageKeyAgreement |
			x509.KeyUsageCertSign,
		ExtKeyUsage: []x509.ExtKeyUsage{
			x509.ExtKeyUsageServerAuth,
			x509.ExtKeyUsageClientAuth,
		},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return nil, fmt.Errorf("creating certificate: %w", err)
	}

	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("parsing generated certificate: %w", err)
	}

	return &serverCert{
		tlsCert: tls.Certificate{
			Certificate: [][]byte{der},
			PrivateKey:  key,
			Leaf:        leaf,
		},
		base64: base64.StdEncoding.EncodeToString(der),
	}, nil
}
