package base

import (
	"encoding/binary"
	"io"
	"net"

	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport/rpc")

const (
	// frameHeaderSize is the size of the frame header (flag bit + 31 bit length)
	frameHeaderSize = 4
	// compressedFlag is set in the header when the payload is compressed
	compressedFlag uint32 = 1 << 31
	// lengthMask extracts the payload length from the header
	lengthMask = compressedFlag - 1
	// maxRetainedBuffer is the largest read buffer a stream keeps between frames
	maxRetainedBuffer = 64 * 1024
)

// --------------------------------------------------------------------------
// Errors
// --------------------------------------------------------------------------

var (
	// ErrProtocol marks every violation of the framed protocol. A stream that
	// returned it is broken and must not be used again.
	ErrProtocol = errors.New("protocol error")
	// ErrFrameTooLarge is returned when a frame exceeds the maximum frame size
	ErrFrameTooLarge = errors.New("frame exceeds the maximum size")
	// ErrMalformedPayload is returned when a frame payload can not be decoded
	ErrMalformedPayload = errors.New("malformed payload")
	// ErrBrokenStream is returned by every call on a broken or closed stream
	ErrBrokenStream = errors.Mark(errors.New("stream is broken"), ErrProtocol)
)

// protocolErrorf wraps cause and marks the result as a protocol error
func protocolErrorf(cause error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(cause, format, args...), ErrProtocol)
}

// newProtocolError creates a new protocol error
func newProtocolError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrProtocol)
}

// --------------------------------------------------------------------------
// Frame codec
// --------------------------------------------------------------------------

// writeFrame writes a frame with the format:
// - 4 bytes: header (uint32, big endian), bit 31 = compressed flag, bits 0-30 = payload length
// - N bytes: payload
func writeFrame(w io.Writer, payload []byte, compressed bool) error {
	header := make([]byte, frameHeaderSize)
	h := uint32(len(payload))
	if compressed {
		h |= compressedFlag
	}
	binary.BigEndian.PutUint32(header, h)

	// net.Buffers combines header and payload into a single write where the writer supports it
	b := net.Buffers{header, payload}
	_, err := b.WriteTo(w)
	return err
}

// readHeader reads a frame header. A clean EOF before the first header byte is
// returned as io.EOF, an EOF inside the header as a protocol error.
func readHeader(r io.Reader, maxSize int) (length int, compressed bool, err error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return 0, false, protocolErrorf(err, "cannot read frame header")
		}
		return 0, false, err
	}

	h := binary.BigEndian.Uint32(header[:])
	length, compressed = int(h&lengthMask), h&compressedFlag != 0
	if length > maxSize {
		return 0, false, protocolErrorf(ErrFrameTooLarge, "frame of %d bytes exceeds the limit of %d", length, maxSize)
	}
	return length, compressed, nil
}

// readBody reads a payload of the given length into buf (reallocated if too small)
func readBody(r io.Reader, buf []byte, length int) ([]byte, error) {
	if cap(buf) < length {
		buf = make([]byte, length)
	}
	buf = buf[:length]
	if _, err := io.ReadFull(r, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, protocolErrorf(io.ErrUnexpectedEOF, "cannot read frame payload of %d bytes", length)
		}
		return nil, err
	}
	return buf, nil
}

// readFrame reads a complete frame using the provided buffer
func readFrame(r io.Reader, buf []byte, maxSize int) (payload []byte, compressed bool, err error) {
	length, compressed, err := readHeader(r, maxSize)
	if err != nil {
		return nil, false, err
	}
	payload, err = readBody(r, buf, length)
	return payload, compressed, err
}
