package unix

import (
	"net"
	"sync"

	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/transport"
	"github.com/ValentinKolb/skv/rpc/transport/base"
	"github.com/ValentinKolb/skv/rpc/transport/secure"
)

// clientConnector implements the IClientConnector interface for Unix sockets
type clientConnector struct {
	once sync.Once
	tls  *secure.ClientConnector
	err  error
}

// --------------------------------------------------------------------------
// Interface Methods (docu see base.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "unix"
}

func (c *clientConnector) Connect(endpoint string) (net.Conn, error) {
	return net.Dial("unix", endpoint)
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.ClientConfig) (net.Conn, error) {
	if err := applyBufferSizes(conn, config.Transport.SocketConf); err != nil {
		return nil, err
	}

	c.once.Do(func() {
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

// NewUnixClientTransport creates a new Unix client transport
func NewUnixClientTransport() transport.IRPCClientTransport {
	return base.NewBaseClientTransport(&clientConnector{})
}
