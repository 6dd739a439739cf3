// Package securetesting generates throwaway TLS material for tests.
package securetesting

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ValentinKolb/skv/rpc/common"
)

// PKI is a CA with one server and one client certificate, all PEM encoded
type PKI struct {
	Domain     string
	CACert     []byte
	ServerCert []byte
	ServerKey  []byte
	ClientCert []byte
	ClientKey  []byte
}

// NewPKI creates a fresh CA and issues a server certificate for domain (and the
// loopback addresses) and a client certificate.
func NewPKI(tb testing.TB, domain string) *PKI {
	tb.Helper()

	caKey := newKey(tb)
	caTemplate := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "skv test CA"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		tb.Fatalf("failed to create CA: %v", err)
	}
	ca, err := x509.ParseCertificate(caDER)
	if err != nil {
		tb.Fatalf("failed to parse CA: %v", err)
	}

	pki := &PKI{Domain: domain, CACert: encodeCert(caDER)}
	pki.ServerCert, pki.ServerKey = issue(tb, ca, caKey, 2, &x509.Certificate{
		Subject:     pkix.Name{CommonName: domain},
		DNSNames:    []string{domain},
		IPAddresses: []net.IP{net.IPv4(127, 0, 0, 1), net.IPv6loopback},
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	})
	pki.ClientCert, pki.ClientKey = issue(tb, ca, caKey, 3, &x509.Certificate{
		Subject:     pkix.Name{CommonName: "skv test client"},
		ExtKeyUsage: []x509.ExtKeyUsage{x509.ExtKeyUsageClientAuth},
	})
	return pki
}

// WriteFiles writes the material into dir and returns the matching server and client
// TLS configurations (mutual TLS).
func (p *PKI) WriteFiles(tb testing.TB, dir string) (server, client common.TLSConf) {
	tb.Helper()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			tb.Fatalf("failed to write %s: %v", name, err)
		}
		return path
	}

	ca := write("ca.pem", p.CACert)
	server = common.TLSConf{
		CertFile: write("server.pem", p.ServerCert),
		KeyFile:  write("server-key.pem", p.ServerKey),
		CAFile:   ca,
	}
	client = common.TLSConf{
		CertFile: write("client.pem", p.ClientCert),
		KeyFile:  write("client-key.pem", p.ClientKey),
		CAFile:   ca,
		Domain:   p.Domain,
	}
	return server, client
}

func newKey(tb testing.TB) *ecdsa.PrivateKey {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		tb.Fatalf("failed to generate key: %v", err)
	}
	return key
}

func issue(tb testing.TB, ca *x509.Certificate, caKey *ecdsa.PrivateKey, serial int64, template *x509.Certificate) (certPEM, keyPEM []byte) {
	key := newKey(tb)
	template.SerialNumber = big.NewInt(serial)
	template.NotBefore = time.Now().Add(-time.Hour)
	template.NotAfter = time.Now().Add(24 * time.Hour)
	template.KeyUsage = x509.KeyUsageDigitalSignature

	der, err := x509.CreateCertificate(rand.Reader, template, ca, &key.PublicKey, caKey)
	if err != nil {
		tb.Fatalf("failed to issue certificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		tb.Fatalf("failed to marshal key: %v", err)
	}
	return encodeCert(der), pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
}

func encodeCert(der []byte) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
}
