// Package base provides the framed request/response protocol of skv and the transport
// layers built on it, independent of the specific network medium (TCP, Unix sockets).
// It serves as a base layer that is extended with medium specific connectors.
//
// Frame Format:
//
//	+---+-------------------------------+----------------------+
//	| C |  payload length (31 bit, BE)  |  payload (N bytes)   |
//	+---+-------------------------------+----------------------+
//
//	The header is a big endian uint32. Bit 31 (C) is set when the payload is
//	compressed with the configured compressor. Payloads strictly larger than the
//	compression threshold are compressed, smaller ones are sent raw. Frames larger
//	than the configured maximum are rejected.
//
// Key Components:
//
//   - ProtocolStream: Wraps one connection. Execute performs a client exchange (one
//     request frame, exactly one response frame), Serve runs the server loop (read,
//     execute, write, notify). Any protocol violation (oversized frame, truncated
//     frame, undecodable payload) marks the stream as broken and closes it. All such
//     errors are marked with ErrProtocol.
//
//   - IClientConnector/IServerConnector: Interfaces for medium specific operations
//     (dial, listen, socket options, TLS upgrade).
//
//   - clientTransport: Keeps ConnectionsPerEndpoint streams per endpoint and selects
//     them round robin. A stream is held exclusively for a whole exchange, so
//     concurrent requests use distinct connections. Failed exchanges on the wire are
//     retried with exponential backoff and jitter, broken streams are reconnected on
//     their next use.
//
//   - serverTransport: Accepts connections, upgrades them with the connector and
//     serves each one in its own goroutine. Requests of one connection are handled
//     strictly in order. Close stops the listener and closes all live connections.
//
// Timeouts:
//
//	With a non-zero timeout every exchange gets a deadline. On the server the deadline
//	starts with the first header byte of a request, idle connections never time out.
package base
