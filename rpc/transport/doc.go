// Package transport defines the interfaces for RPC communication in skv. Transports
// move CommandRequests and CommandResponses between a client and a server as
// length-prefixed frames over a byte stream (see the base package for the frame format).
//
// Key Components:
//
//   - IRPCClientTransport: Interface for client-side transport implementations that
//     handle connection management, retries and request sending.
//
//   - IRPCServerTransport: Interface for server-side transport implementations that
//     accept connections and pass every request to a ServerHandler.
//
//   - ServerHandler: Request handling callback, implemented by the server's Service.
//
// Implementations live in the tcp and unix packages, both built on the protocol
// agnostic base package and the TLS upgrade of the secure package.
package transport
