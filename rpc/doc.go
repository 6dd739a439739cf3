// Package rpc is the communication layer of skv. Clients send typed commands
// to a server, which executes them against a storage backend and answers with
// exactly one response per request.
//
// The package is organized into several subpackages:
//
//   - common: The command model (CommandRequest, CommandResponse), status codes,
//     configuration structures and logging.
//
//   - compressor: Payload compression codecs (snappy, lz4, zstd) used for large frames.
//
//   - serializer: Encoding of requests and responses (Binary, JSON, GOB).
//
//   - transport: The framed protocol stream and its connectors (TCP, Unix sockets),
//     with TLS applied by the secure subpackage.
//
//   - client: A typed client with one method per command.
//
//   - server: Command dispatch, the hook based Service and the server process.
package rpc
