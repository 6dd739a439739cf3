package base

import (
	"math/rand"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/serializer"
	"github.com/ValentinKolb/skv/rpc/transport"
	"github.com/cockroachdb/errors"
)

// ErrTransportClosed is returned by Send after Close
var ErrTransportClosed = errors.New("transport is closed")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the endpoint
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies socket options and the TLS handshake to an established
	// connection. The returned connection replaces the original one.
	UpgradeConnection(conn net.Conn, config common.ClientConfig) (net.Conn, error)
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// clientStream is one pooled connection. It is held exclusively for a whole exchange.
type clientStream struct {
	endpoint string
	mu       sync.Mutex
	stream   atomic.Pointer[ProtocolStream]
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.)
type clientTransport struct {
	connector  IClientConnector
	config     common.ClientConfig
	serializer serializer.IRPCSerializer
	opts       StreamOptions

	streams   []*clientStream
	nextIndex atomic.Uint64 // Round Robin counter
	closed    atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IRPCClientTransport {
	return &clientTransport{
		connector: connector,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IRPCClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig, s serializer.IRPCSerializer) error {
	if err := config.Validate(); err != nil {
		return err
	}
	opts, err := NewStreamOptions(config.Transport.ProtocolConf, time.Duration(config.TimeoutSecond)*time.Second)
	if err != nil {
		return err
	}

	// Close all existing connections
	t.closeStreams()

	t.config = config
	t.serializer = s
	t.opts = opts
	t.closed.Store(false)

	connectionsPerEP := max(1, config.Transport.ConnectionsPerEndpoint)
	total := len(config.Transport.Endpoints) * connectionsPerEP
	t.streams = make([]*clientStream, 0, total)

	connected := 0
	for _, endpoint := range config.Transport.Endpoints {
		for i := 0; i < connectionsPerEP; i++ {
			cs := &clientStream{endpoint: endpoint}
			t.streams = append(t.streams, cs)

			// Failed connections stay in the pool and are retried on first use
			if err := t.reconnect(cs); err != nil {
				Logger.Warningf("Failed to connect to %s (connection %d/%d): %v", endpoint, i+1, connectionsPerEP, err)
				continue
			}
			connected++
		}
	}

	if connected == 0 {
		t.closeStreams()
		return errors.Newf("failed to connect to any of %v", config.Transport.Endpoints)
	}

	Logger.Infof("Connected %d out of %d connections to %d endpoints using %s transport (serializer %s)",
		connected, total, len(config.Transport.Endpoints), t.connector.GetName(), s.Name())
	return nil
}

func (t *clientTransport) Send(req *common.CommandRequest) (*common.CommandResponse, error) {
	if t.closed.Load() {
		return nil, ErrTransportClosed
	}

	// We always try at least once, and up to RetryCount times
	maxAttempts := max(1, t.config.Transport.RetryCount)

	// Initial backoff duration in milliseconds
	backoffMs := 50

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		cs := t.acquire()
		if cs == nil {
			return nil, errors.New("no connections available")
		}
		resp, retry, err := t.execute(cs, req)
		cs.mu.Unlock()

		if err == nil {
			return resp, nil
		}
		if !retry || t.closed.Load() {
			return nil, err
		}

		lastErr = err
		Logger.Debugf("Request attempt %d/%d to %s failed: %v", i+1, maxAttempts, cs.endpoint, err)

		if i < maxAttempts-1 {
			// Exponential backoff with a small random jitter (+-10%)
			jitter := float64(backoffMs) * (0.9 + 0.2*rand.Float64())
			time.Sleep(time.Duration(jitter) * time.Millisecond)
			backoffMs *= 2
		}
	}

	return nil, errors.Wrapf(lastErr, "failed to send request after %d attempts", maxAttempts)
}

func (t *clientTransport) Close() error {
	t.closed.Store(true)
	t.closeStreams()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// acquire selects the next stream via Round Robin and locks it. A busy stream is
// skipped in favor of the next free one, if all are busy the selected one is awaited.
func (t *clientTransport) acquire() *clientStream {
	n := len(t.streams)
	if n == 0 {
		return nil
	}

	start := 0
	if n > 1 {
		start = int(t.nextIndex.Add(1) % uint64(n))
	}
	for i := 0; i < n; i++ {
		cs := t.streams[(start+i)%n]
		if cs.mu.TryLock() {
			return cs
		}
	}

	cs := t.streams[start]
	cs.mu.Lock()
	return cs
}

// execute runs one exchange on a locked stream, reconnecting it first if needed.
// retry reports whether the request may be repeated on another attempt.
func (t *clientTransport) execute(cs *clientStream, req *common.CommandRequest) (resp *common.CommandResponse, retry bool, err error) {
	if t.closed.Load() {
		return nil, false, ErrTransportClosed
	}

	st := cs.stream.Load()
	if st == nil || st.Broken() {
		if err := t.reconnect(cs); err != nil {
			return nil, true, err
		}
		st = cs.stream.Load()
	}

	resp, err = st.Execute(req)
	if err != nil {
		// Only failures on the wire are retried, a payload the peer could not
		// understand would fail the same way again
		return nil, st.Broken() && !errors.Is(err, ErrMalformedPayload), err
	}
	return resp, false, nil
}

// reconnect establishes or restores the connection of a stream. The caller holds cs.mu
// (or is the only user during Connect).
func (t *clientTransport) reconnect(cs *clientStream) error {
	if old := cs.stream.Swap(nil); old != nil {
		_ = old.Close()
	}

	conn, err := t.connector.Connect(cs.endpoint)
	if err != nil {
		return errors.Wrapf(err, "failed to connect to %s", cs.endpoint)
	}

	upgraded, err := t.connector.UpgradeConnection(conn, t.config)
	if err != nil {
		_ = conn.Close()
		return errors.Wrapf(err, "failed to upgrade connection to %s", cs.endpoint)
	}

	cs.stream.Store(NewProtocolStream(upgraded, t.serializer, t.opts))
	return nil
}

// closeStreams closes all pooled connections
func (t *clientTransport) closeStreams() {
	for _, cs := range t.streams {
		if st := cs.stream.Swap(nil); st != nil {
			_ = st.Close()
		}
	}
}
