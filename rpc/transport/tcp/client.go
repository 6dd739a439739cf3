package tcp

import (
	"net"
	"sync"

	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/transport"
	"github.com/ValentinKolb/skv/rpc/transport/base"
	"github.com/ValentinKolb/skv/rpc/transport/secure"
)

// clientConnector implements the IClientConnector interface for TCP sockets
type clientConnector struct {
	once sync.Once
	tls  *secure.ClientConnector
	err  error
}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "tcp"
}

func (c *clientConnector) Connect(endpoint string) (net.Conn, error) {
	return net.Dial("tcp", endpoint)
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) (net.Conn, error) {
	if err := applySocketOptions(conn, config.Transport.TCPConf, config.Transport.SocketConf); err != nil {
		return nil, err
	}

	// The TLS material is loaded once for all pooled connections
	c.once.Do(func() {
		if config.Transport.Insecure {
			base.Logger.Warningf("TLS is disabled, connections to %v are not encrypted", config.Transport.Endpoints)
		}
		c.tls, c.err = secure.LoadClientConnector(config.Transport.TLSConf)
	})
	if c.err != nil {
		return nil, c.err
	}
	return c.tls.Upgrade(conn)
}

// --------------------------------------------------------------------------
// Client Transport Factory Method
// --------------------------------------------------------------------------

// NewTCPClientTransport creates a new TCP client transport
func NewTCPClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(&clientConnector{})
}
