// Package tcp implements the TCP transport of skv's RPC system. It provides the
// TCP specific connectors for the base package: dialing and listening, socket options
// (TCP_NODELAY, keep-alive, linger, buffer sizes) and the TLS upgrade of every
// connection (see the secure package). TLS can be disabled with the insecure option
// for local development, which is logged as a warning.
//
// Key Components:
//
//   - clientConnector: TCP specific implementation of base.IClientConnector
//
//   - serverConnector: TCP specific implementation of base.IServerConnector
package tcp
