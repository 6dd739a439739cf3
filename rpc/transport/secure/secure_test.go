package secure

import (
	"io"
	"net"
	"testing"

	"github.com/ValentinKolb/skv/rpc/common"
	securetesting "github.com/ValentinKolb/skv/rpc/transport/secure/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tcpPair creates two connected loopback TCP connections
func tcpPair(t *testing.T) (client, server net.Conn) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, _ := l.Accept()
		accepted <- conn
	}()

	client, err = net.Dial("tcp", l.Addr().String())
	require.NoError(t, err)
	server = <-accepted
	require.NotNil(t, server)
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return client, server
}

// upgradeBoth runs both handshakes concurrently
func upgradeBoth(t *testing.T, c *ClientConnector, s *ServerConnector) (client, server net.Conn, clientErr, serverErr error) {
	rawClient, rawServer := tcpPair(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		server, serverErr = s.Upgrade(rawServer)
		if serverErr != nil {
			_ = rawServer.Close()
		}
	}()
	client, clientErr = c.Upgrade(rawClient)
	<-done
	return client, server, clientErr, serverErr
}

func TestMutualTLS(t *testing.T) {
	pki := securetesting.NewPKI(t, "skv.test")

	s, err := NewServerConnector(pki.ServerCert, pki.ServerKey, pki.CACert)
	require.NoError(t, err)
	c, err := NewClientConnector(pki.Domain, &Identity{Cert: pki.ClientCert, Key: pki.ClientKey}, pki.CACert)
	require.NoError(t, err)

	client, server, clientErr, serverErr := upgradeBoth(t, c, s)
	require.NoError(t, clientErr)
	require.NoError(t, serverErr)

	go func() { _, _ = client.Write([]byte("ping")) }()
	buf := make([]byte, 4)
	_, err = io.ReadFull(server, buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(buf))
}

func TestServerOnlyTLS(t *testing.T) {
	pki := securetesting.NewPKI(t, "skv.test")

	s, err := NewServerConnector(pki.ServerCert, pki.ServerKey, nil)
	require.NoError(t, err)
	c, err := NewClientConnector(pki.Domain, nil, pki.CACert)
	require.NoError(t, err)

	_, _, clientErr, serverErr := upgradeBoth(t, c, s)
	assert.NoError(t, clientErr)
	assert.NoError(t, serverErr)
}

func TestWrongDomain(t *testing.T) {
	pki := securetesting.NewPKI(t, "skv.test")

	s, err := NewServerConnector(pki.ServerCert, pki.ServerKey, nil)
	require.NoError(t, err)
	c, err := NewClientConnector("other.test", nil, pki.CACert)
	require.NoError(t, err)

	_, _, clientErr, _ := upgradeBoth(t, c, s)
	assert.Error(t, clientErr)
}

func TestUnknownCA(t *testing.T) {
	pki := securetesting.NewPKI(t, "skv.test")
	other := securetesting.NewPKI(t, "skv.test")

	s, err := NewServerConnector(pki.ServerCert, pki.ServerKey, nil)
	require.NoError(t, err)
	c, err := NewClientConnector(pki.Domain, nil, other.CACert)
	require.NoError(t, err)

	_, _, clientErr, _ := upgradeBoth(t, c, s)
	assert.Error(t, clientErr)
}

func TestClientCertificateRequired(t *testing.T) {
	pki := securetesting.NewPKI(t, "skv.test")

	s, err := NewServerConnector(pki.ServerCert, pki.ServerKey, pki.CACert)
	require.NoError(t, err)
	c, err := NewClientConnector(pki.Domain, nil, pki.CACert)
	require.NoError(t, err)

	// with TLS 1.3 the client may finish its side before the server rejects it
	_, _, _, serverErr := upgradeBoth(t, c, s)
	assert.Error(t, serverErr)
}

func TestInvalidMaterial(t *testing.T) {
	pki := securetesting.NewPKI(t, "skv.test")

	_, err := NewServerConnector([]byte("garbage"), pki.ServerKey, nil)
	assert.Error(t, err)
	_, err = NewServerConnector(pki.ServerCert, pki.ServerKey, []byte("garbage"))
	assert.Error(t, err)
	_, err = NewClientConnector(pki.Domain, nil, []byte("garbage"))
	assert.Error(t, err)
	_, err = NewClientConnector(pki.Domain, &Identity{Cert: pki.ClientCert, Key: pki.ServerKey}, nil)
	assert.Error(t, err)
}

func TestLoadConnectors(t *testing.T) {
	pki := securetesting.NewPKI(t, "skv.test")
	serverConf, clientConf := pki.WriteFiles(t, t.TempDir())

	s, err := LoadServerConnector(serverConf)
	require.NoError(t, err)
	c, err := LoadClientConnector(clientConf)
	require.NoError(t, err)

	_, _, clientErr, serverErr := upgradeBoth(t, c, s)
	assert.NoError(t, clientErr)
	assert.NoError(t, serverErr)

	_, err = LoadServerConnector(common.TLSConf{})
	assert.Error(t, err)
	_, err = LoadClientConnector(common.TLSConf{CertFile: serverConf.CertFile})
	assert.Error(t, err)
}

func TestInsecureMode(t *testing.T) {
	s, err := LoadServerConnector(common.TLSConf{Insecure: true})
	require.NoError(t, err)
	assert.Nil(t, s)
	c, err := LoadClientConnector(common.TLSConf{Insecure: true})
	require.NoError(t, err)
	assert.Nil(t, c)

	// nil connectors pass connections through
	client, server := tcpPair(t)
	upgraded, err := c.Upgrade(client)
	require.NoError(t, err)
	assert.Same(t, client, upgraded)
	upgraded, err = s.Upgrade(server)
	require.NoError(t, err)
	assert.Same(t, server, upgraded)
}
