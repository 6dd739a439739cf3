package unix

import (
	"net"
	"os"

	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/transport"
	"github.com/ValentinKolb/skv/rpc/transport/base"
	"github.com/ValentinKolb/skv/rpc/transport/secure"
	"github.com/cockroachdb/errors"
)

// serverConnector implements the IServerConnector interface for Unix sockets
type serverConnector struct {
	tls *secure.ServerConnector
}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "unix"
}

func (c *serverConnector) Listen(config common.ServerConfig) (net.Listener, error) {
	tlsConnector, err := secure.LoadServerConnector(config.Transport.TLSConf)
	if err != nil {
		return nil, err
	}
	c.tls = tlsConnector

	socketPath := config.Transport.Endpoint

	// Remove existing socket file if it exists
	if err := os.RemoveAll(socketPath); err != nil {
		return nil, errors.Wrap(err, "failed to remove existing socket")
	}

	// Create Unix socket listener
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Unix socket")
	}
	return listener, nil
}

func (c *serverConnector) UpgradeConnection(conn net.Conn, config common.ServerConfig) (net.Conn, error) {
	if err := applyBufferSizes(conn, config.Transport.SocketConf); err != nil {
		return nil, err
	}
	return c.tls.Upgrade(conn)
}

// --------------------------------------------------------------------------
// Server Transport Factory Method
// --------------------------------------------------------------------------

// NewUnixServerTransport creates a new Unix server transport
func NewUnixServerTransport() transport.IRPCServerTransport {
	return base.NewBaseServerTransport(&serverConnector{})
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// applyBufferSizes sets the socket buffer sizes if configured
func applyBufferSizes(conn net.Conn, sockConf common.SocketConf) error {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return nil
	}
	if sockConf.WriteBufferSize > 0 {
		if err := unixConn.SetWriteBuffer(sockConf.WriteBufferSize); err != nil {
			return err
		}
	}
	if sockConf.ReadBufferSize > 0 {
		if err := unixConn.SetReadBuffer(sockConf.ReadBufferSize); err != nil {
			return err
		}
	}
	return nil
}
