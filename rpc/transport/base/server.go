package base

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/serializer"
	"github.com/ValentinKolb/skv/rpc/transport"
	"github.com/cockroachdb/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// UpgradeConnection applies socket options and the TLS handshake to an accepted
	// connection. The returned connection replaces the original one.
	UpgradeConnection(conn net.Conn, config common.ServerConfig) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector  IServerConnector
	handler    transport.ServerHandler
	config     common.ServerConfig
	serializer serializer.IRPCSerializer
	opts       StreamOptions
	listener   net.Listener

	conns      *xsync.MapOf[uint64, *ProtocolStream] // live connections
	nextConnID atomic.Uint64
	closed     atomic.Bool
	wg         sync.WaitGroup
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport that serves every
// connection in its own goroutine
func NewBaseServerTransport(connector IServerConnector) transport.IRPCServerTransport {
	return &serverTransport{
		connector: connector,
		conns:     xsync.NewMapOf[uint64, *ProtocolStream](),
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandler) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig, s serializer.IRPCSerializer) error {
	opts, err := NewStreamOptions(config.Transport.ProtocolConf, time.Duration(config.TimeoutSecond)*time.Second)
	if err != nil {
		return err
	}

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return errors.Wrap(err, "failed to create listener")
	}

	t.config = config
	t.serializer = s
	t.opts = opts
	t.listener = listener

	Logger.Infof("Listening for %s connections on %s (serializer %s, compression %s)",
		t.connector.GetName(), listener.Addr(), s.Name(), compressionName(opts))
	return nil
}

func (t *serverTransport) Serve() error {
	if t.listener == nil {
		return errors.New("Listen must be called before Serve")
	}
	if t.handler == nil {
		return errors.New("no handler registered")
	}

	// Accept connections
	for {
		conn, err := t.listener.Accept()
		if err != nil {
			if t.closed.Load() || errors.Is(err, net.ErrClosed) {
				t.wg.Wait()
				return nil
			}
			Logger.Errorf("Accept error: %v", err)
			time.Sleep(10 * time.Millisecond)
			continue
		}

		// Handle the connection in a goroutine
		t.wg.Add(1)
		go t.handleConnection(conn)
	}
}

func (t *serverTransport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}

	var err error
	if t.listener != nil {
		err = t.listener.Close()
	}
	t.conns.Range(func(_ uint64, s *ProtocolStream) bool {
		_ = s.Close()
		return true
	})
	return err
}

func (t *serverTransport) Addr() net.Addr {
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection upgrades a connection and serves it until the peer disconnects
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer t.wg.Done()
	remote := conn.RemoteAddr()

	upgraded, err := t.connector.UpgradeConnection(conn, t.config)
	if err != nil {
		Logger.Warningf("Rejected connection from %s: %v", remote, err)
		_ = conn.Close()
		return
	}

	stream := NewProtocolStream(upgraded, t.serializer, t.opts)
	id := t.nextConnID.Add(1)
	t.conns.Store(id, stream)
	defer func() {
		t.conns.Delete(id)
		_ = stream.Close()
	}()

	// Close may have run between accept and registration
	if t.closed.Load() {
		return
	}

	Logger.Debugf("Serving connection %d from %s", id, remote)
	err = stream.Serve(t.handler)
	switch {
	case err == nil:
		Logger.Debugf("Connection %d closed by client", id)
	case t.closed.Load():
		Logger.Debugf("Connection %d closed by shutdown", id)
	default:
		Logger.Errorf("Connection %d from %s terminated: %v", id, remote, err)
	}
}

func compressionName(opts StreamOptions) string {
	if opts.Compressor == nil {
		return "none"
	}
	return opts.Compressor.Name()
}
