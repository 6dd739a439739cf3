package tcp

import (
	"net"

	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/transport"
	"github.com/ValentinKolb/skv/rpc/transport/base"
	"github.com/ValentinKolb/skv/rpc/transport/secure"
	"github.com/cockroachdb/errors"
)

// serverConnector implements the IServerConnector interface for TCP sockets
type serverConnector struct {
	tls *secure.ServerConnector
}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "tcp"
}

func (c *serverConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	tlsConnector, err := secure.LoadServerConnector(config.Transport.TLSConf)
	if err != nil {
		return nil, err
	}
	if tlsConnector == nil {
		base.Logger.Warningf("TLS is disabled, connections on %s are not encrypted", config.Transport.Endpoint)
	}
	c.tls = tlsConnector

	// Create TCP socket listener
	listener, err := net.Listen("tcp", config.Transport.Endpoint)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create TCP socket")
	}
	return listener, nil
}

func (c *serverConnector) UpgradeConnection(conn net.Conn, config common.ServerConfig) (net.Conn, error) {
	if err := applySocketOptions(conn, config.Transport.TCPConf, config.Transport.SocketConf); err != nil {
		return nil, err
	}
	return c.tls.Upgrade(conn)
}

// --------------------------------------------------------------------------
// Server Transport Factory Method
// --------------------------------------------------------------------------

// NewTCPServerTransport creates a new TCP server transport
func NewTCPServerTransport() transport.IRPCServerTransport {
	return base.NewBaseServerTransport(&serverConnector{})
}
