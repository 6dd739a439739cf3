package transport

import (
	"net"

	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/serializer"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandler handles the decoded requests of a server transport.
// Execute is called once per request frame, NotifyAfterSend after the matching
// response frame has been written to the connection.
type ServerHandler interface {
	Execute(req *common.CommandRequest) *common.CommandResponse
	NotifyAfterSend()
}

// IRPCServerTransport is the interface for the server side of the RPC transport layer
type IRPCServerTransport interface {
	// RegisterHandler registers the handler for all incoming requests.
	// It must be called before Serve.
	RegisterHandler(handler ServerHandler)
	// Listen binds the listener described by the config. Payloads are encoded with s.
	Listen(config common.ServerConfig, s serializer.IRPCSerializer) error
	// Serve accepts connections until Close is called. It returns nil after Close.
	Serve() error
	// Close stops accepting connections and closes all live connections
	Close() error
	// Addr returns the bound address, nil before Listen
	Addr() net.Addr
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IRPCClientTransport is the interface for the RPC client transport
type IRPCClientTransport interface {
	// Connect initializes the transport with the given configuration. Payloads are encoded with s.
	Connect(config common.ClientConfig, s serializer.IRPCSerializer) error
	// Send sends a request to the server and returns the response.
	// Error responses of the server are returned as responses, not as errors.
	Send(req *common.CommandRequest) (resp *common.CommandResponse, err error)
	// Close closes all connections of the transport
	Close() error
}
