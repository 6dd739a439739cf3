package base

import (
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/compressor"
	"github.com/ValentinKolb/skv/rpc/serializer"
	"github.com/ValentinKolb/skv/rpc/transport"
	"github.com/cockroachdb/errors"
)

// StreamOptions configures a ProtocolStream
type StreamOptions struct {
	// Compressor used for payloads above the threshold, nil never compresses
	Compressor compressor.ICompressor
	// Payloads strictly larger than this are compressed
	CompressionThreshold int
	// Largest accepted frame payload, 0 means common.DefaultMaxFrameSize
	MaxFrameSize int
	// Deadline of one exchange, 0 disables it
	Timeout time.Duration
}

// NewStreamOptions builds the stream options from the protocol configuration
func NewStreamOptions(conf common.ProtocolConf, timeout time.Duration) (StreamOptions, error) {
	if err := conf.Validate(); err != nil {
		return StreamOptions{}, err
	}
	c, err := compressor.New(conf.Compression)
	if err != nil {
		return StreamOptions{}, err
	}
	return StreamOptions{
		Compressor:           c,
		CompressionThreshold: conf.CompressionThreshold,
		MaxFrameSize:         conf.MaxFrameSize,
		Timeout:              timeout,
	}, nil
}

// ProtocolStream carries the request/response exchange of the framed protocol over
// one connection. A client uses Execute, a server runs Serve. Every violation of the
// protocol marks the stream as broken and closes the connection.
type ProtocolStream struct {
	conn       net.Conn
	serializer serializer.IRPCSerializer
	opts       StreamOptions

	mu     sync.Mutex // one exchange at a time
	buf    []byte     // reused read buffer
	broken atomic.Bool
	closed atomic.Bool
}

// NewProtocolStream wraps an established (and already upgraded) connection
func NewProtocolStream(conn net.Conn, s serializer.IRPCSerializer, opts StreamOptions) *ProtocolStream {
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = common.DefaultMaxFrameSize
	}
	return &ProtocolStream{
		conn:       conn,
		serializer: s,
		opts:       opts,
	}
}

// Execute sends one request frame and reads exactly one response frame.
// Concurrent calls are serialized.
func (s *ProtocolStream) Execute(req *common.CommandRequest) (*common.CommandResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.broken.Load() {
		return nil, ErrBrokenStream
	}

	payload, err := s.serializer.SerializeRequest(req)
	if err != nil {
		return nil, errors.Wrap(err, "cannot serialize request")
	}
	payload, compressed, err := s.encode(payload)
	if err != nil {
		return nil, err
	}

	if s.opts.Timeout > 0 {
		if err := s.conn.SetDeadline(time.Now().Add(s.opts.Timeout)); err != nil {
			return nil, s.fail(errors.Wrap(err, "failed to set deadline"))
		}
	}

	if err := writeFrame(s.conn, payload, compressed); err != nil {
		return nil, s.fail(errors.Wrap(err, "failed to write request"))
	}

	length, compressed, err := readHeader(s.conn, s.opts.MaxFrameSize)
	if errors.Is(err, io.EOF) {
		err = protocolErrorf(io.ErrUnexpectedEOF, "connection closed before the response")
	}
	if err != nil {
		return nil, s.fail(err)
	}
	data, err := s.readPayload(length, compressed)
	if err != nil {
		return nil, s.fail(err)
	}

	var resp common.CommandResponse
	if err := s.serializer.DeserializeResponse(data, &resp); err != nil {
		return nil, s.fail(protocolErrorf(ErrMalformedPayload, "cannot decode response: %v", err))
	}
	return &resp, nil
}

// Serve runs the server side loop: read a request, execute it, write the response,
// notify the handler. Requests of one stream are handled strictly in order.
// Serve returns nil when the peer closes the connection between two frames.
func (s *ProtocolStream) Serve(handler transport.ServerHandler) error {
	for {
		if s.broken.Load() {
			return ErrBrokenStream
		}

		// an idle connection has no deadline, the exchange deadline starts with the first header byte
		if s.opts.Timeout > 0 {
			if err := s.conn.SetDeadline(time.Time{}); err != nil {
				return s.fail(errors.Wrap(err, "failed to reset deadline"))
			}
		}

		length, compressed, err := readHeader(s.conn, s.opts.MaxFrameSize)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return s.fail(err)
		}

		if s.opts.Timeout > 0 {
			if err := s.conn.SetDeadline(time.Now().Add(s.opts.Timeout)); err != nil {
				return s.fail(errors.Wrap(err, "failed to set deadline"))
			}
		}

		data, err := s.readPayload(length, compressed)
		if err != nil {
			return s.fail(err)
		}

		var req common.CommandRequest
		if err := s.serializer.DeserializeRequest(data, &req); err != nil {
			return s.fail(protocolErrorf(ErrMalformedPayload, "cannot decode request: %v", err))
		}

		payload, compressed, err := s.encodeResponse(handler.Execute(&req))
		if err != nil {
			return s.fail(err)
		}
		if err := writeFrame(s.conn, payload, compressed); err != nil {
			return s.fail(errors.Wrap(err, "failed to write response"))
		}

		handler.NotifyAfterSend()
	}
}

// Broken reports whether the stream failed and can not be used anymore
func (s *ProtocolStream) Broken() bool {
	return s.broken.Load()
}

// Close closes the underlying connection. It is safe to call Close more than once.
func (s *ProtocolStream) Close() error {
	s.broken.Store(true)
	if s.closed.Swap(true) {
		return nil
	}
	return s.conn.Close()
}

// RemoteAddr returns the address of the peer
func (s *ProtocolStream) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// fail marks the stream as broken, closes it and returns err
func (s *ProtocolStream) fail(err error) error {
	_ = s.Close()
	return err
}

// encode compresses the payload if configured and checks the frame size
func (s *ProtocolStream) encode(payload []byte) ([]byte, bool, error) {
	compressed := false
	if s.opts.Compressor != nil && len(payload) > s.opts.CompressionThreshold {
		out, err := s.opts.Compressor.Compress(payload)
		if err != nil {
			return nil, false, errors.Wrapf(err, "cannot compress payload with %s", s.opts.Compressor.Name())
		}
		payload, compressed = out, true
	}
	if len(payload) > s.opts.MaxFrameSize {
		return nil, false, errors.Wrapf(ErrFrameTooLarge, "cannot send frame of %d bytes (limit %d)", len(payload), s.opts.MaxFrameSize)
	}
	return payload, compressed, nil
}

// encodeResponse serializes and encodes a response. A response that can not be sent
// is replaced by an internal error response, so the client always gets an answer.
func (s *ProtocolStream) encodeResponse(resp *common.CommandResponse) ([]byte, bool, error) {
	payload, err := s.serializer.SerializeResponse(resp)
	if err == nil {
		var compressed bool
		if payload, compressed, err = s.encode(payload); err == nil {
			return payload, compressed, nil
		}
	}

	Logger.Errorf("Cannot send response to %s: %v", s.conn.RemoteAddr(), err)
	resp = common.NewErrorResponse(store.ErrInternal("Cannot send response: " + err.Error()))
	if payload, err = s.serializer.SerializeResponse(resp); err != nil {
		return nil, false, errors.Wrap(err, "cannot serialize error response")
	}
	return s.encode(payload)
}

// readPayload reads the frame body and decompresses it if flagged
func (s *ProtocolStream) readPayload(length int, compressed bool) ([]byte, error) {
	payload, err := readBody(s.conn, s.buf, length)
	if err != nil {
		return nil, err
	}
	if cap(payload) <= maxRetainedBuffer {
		s.buf = payload[:0]
	}

	if !compressed {
		return payload, nil
	}
	if s.opts.Compressor == nil {
		return nil, newProtocolError("received a compressed frame but compression is disabled")
	}
	out, err := s.opts.Compressor.Decompress(payload, s.opts.MaxFrameSize)
	if err != nil {
		return nil, protocolErrorf(err, "cannot decompress frame with %s", s.opts.Compressor.Name())
	}
	return out, nil
}
