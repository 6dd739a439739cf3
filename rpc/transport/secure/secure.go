package secure

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"os"
	"time"

	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/cockroachdb/errors"
)

// HandshakeTimeout bounds the TLS handshake of a single connection
var HandshakeTimeout = 10 * time.Second

// Identity is a PEM encoded certificate chain and private key
type Identity struct {
	Cert []byte
	Key  []byte
}

// --------------------------------------------------------------------------
// Client
// --------------------------------------------------------------------------

// ClientConnector upgrades outgoing connections to TLS
type ClientConnector struct {
	config *tls.Config
}

// NewClientConnector creates a client side TLS upgrade. The server certificate is
// verified against caCert (system roots if nil) and domain. identity is optional and
// enables mutual TLS.
func NewClientConnector(domain string, identity *Identity, caCert []byte) (*ClientConnector, error) {
	config := &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: domain,
	}

	if caCert != nil {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return nil, errors.New("no valid CA certificate found")
		}
		config.RootCAs = pool
	}

	if identity != nil {
		cert, err := tls.X509KeyPair(identity.Cert, identity.Key)
		if err != nil {
			return nil, errors.Wrap(err, "invalid client identity")
		}
		config.Certificates = []tls.Certificate{cert}
	}

	return &ClientConnector{config: config}, nil
}

// Upgrade performs the TLS handshake on conn. A nil connector returns conn unchanged.
func (c *ClientConnector) Upgrade(conn net.Conn) (net.Conn, error) {
	if c == nil {
		return conn, nil
	}
	tlsConn := tls.Client(conn, c.config)
	if err := handshake(tlsConn); err != nil {
		return nil, errors.Wrap(err, "TLS handshake failed")
	}
	return tlsConn, nil
}

// LoadClientConnector reads the PEM files named in the config.
// In insecure mode it returns a nil connector, which does not upgrade connections.
func LoadClientConnector(conf common.TLSConf) (*ClientConnector, error) {
	if conf.Insecure {
		return nil, nil
	}

	var caCert []byte
	if conf.CAFile != "" {
		var err error
		if caCert, err = os.ReadFile(conf.CAFile); err != nil {
			return nil, errors.Wrap(err, "cannot read CA certificate")
		}
	}

	identity, err := loadIdentity(conf.CertFile, conf.KeyFile)
	if err != nil {
		return nil, err
	}

	return NewClientConnector(conf.Domain, identity, caCert)
}

// --------------------------------------------------------------------------
// Server
// --------------------------------------------------------------------------

// ServerConnector upgrades accepted connections to TLS
type ServerConnector struct {
	config *tls.Config
}

// NewServerConnector creates a server side TLS upgrade with the given identity.
// With clientCA set, clients must present a certificate signed by it.
func NewServerConnector(cert, key []byte, clientCA []byte) (*ServerConnector, error) {
	identity, err := tls.X509KeyPair(cert, key)
	if err != nil {
		return nil, errors.Wrap(err, "invalid server identity")
	}

	config := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{identity},
	}

	if clientCA != nil {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(clientCA) {
			return nil, errors.New("no valid client CA certificate found")
		}
		config.ClientCAs = pool
		config.ClientAuth = tls.RequireAndVerifyClientCert
	}

	return &ServerConnector{config: config}, nil
}

// Upgrade performs the TLS handshake on conn. A nil connector returns conn unchanged.
func (c *ServerConnector) Upgrade(conn net.Conn) (net.Conn, error) {
	if c == nil {
		return conn, nil
	}
	tlsConn := tls.Server(conn, c.config)
	if err := handshake(tlsConn); err != nil {
		return nil, errors.Wrap(err, "TLS handshake failed")
	}
	return tlsConn, nil
}

// LoadServerConnector reads the PEM files named in the config.
// In insecure mode it returns a nil connector, which does not upgrade connections.
func LoadServerConnector(conf common.TLSConf) (*ServerConnector, error) {
	if conf.Insecure {
		return nil, nil
	}

	identity, err := loadIdentity(conf.CertFile, conf.KeyFile)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, errors.New("server certificate and key are required")
	}

	var clientCA []byte
	if conf.CAFile != "" {
		if clientCA, err = os.ReadFile(conf.CAFile); err != nil {
			return nil, errors.Wrap(err, "cannot read client CA certificate")
		}
	}

	return NewServerConnector(identity.Cert, identity.Key, clientCA)
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

func handshake(conn *tls.Conn) error {
	ctx, cancel := context.WithTimeout(context.Background(), HandshakeTimeout)
	defer cancel()
	return conn.HandshakeContext(ctx)
}

// loadIdentity reads a certificate and key pair, nil if both paths are empty
func loadIdentity(certFile, keyFile string) (*Identity, error) {
	if certFile == "" && keyFile == "" {
		return nil, nil
	}
	if certFile == "" || keyFile == "" {
		return nil, errors.New("certificate and key must be given together")
	}

	cert, err := os.ReadFile(certFile)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read certificate")
	}
	key, err := os.ReadFile(keyFile)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read key")
	}
	return &Identity{Cert: cert, Key: key}, nil
}
