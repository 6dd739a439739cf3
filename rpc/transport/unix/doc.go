// Package unix implements a transport layer for skv's RPC system using Unix domain
// sockets, for clients running on the same machine as the server.
//
// This package extends the base transport layer with Unix socket specific connectors
// while inheriting connection pooling, retries and the framed protocol from the base
// package. Connections are upgraded to TLS like TCP connections unless the insecure
// option is set, the file permissions of the socket are then the only access control.
//
// Key Components:
//
//   - clientConnector: Establishes connections using Unix domain sockets
//
//   - serverConnector: Creates Unix socket listeners (replacing stale socket files)
package unix
