// Package client implements the RPC client of skv. It offers one typed method per
// command on top of a client transport.
//
// The package focuses on:
//   - Typed access to the nine hash commands (Hget, Hset, Hmget, ...)
//   - Converting error responses into Go errors
//   - Integration with the transport and serialization layers
//
// Key Components:
//
//   - NewRPCClient: Connects the given transport and returns a Client.
//
//   - Client.Execute: Sends a raw CommandRequest and returns the raw response, error
//     responses included.
//
//   - Typed methods: Return the decoded payload of a response. A response with a
//     status other than 200 becomes a *ResponseError, IsNotFound detects a missing
//     key on Hget. Batch methods return one element per requested key.
//
// Usage Example:
//
//	config := common.ClientConfig{
//	  TimeoutSecond: 5,
//	  Transport: common.ClientTransportConfig{
//	    Endpoints:              []string{"localhost:4567"},
//	    RetryCount:             3,
//	    ConnectionsPerEndpoint: 2,
//	    TLSConf:                common.TLSConf{CAFile: "ca.pem", Domain: "localhost"},
//	    ProtocolConf:           common.DefaultProtocolConf(),
//	  },
//	}
//
//	c, _ := client.NewRPCClient(config, tcp.NewTCPClientTransport(), serializer.NewBinarySerializer())
//	defer c.Close()
//
//	c.Hset("users", "u1", store.String("alice"))
//	v, err := c.Hget("users", "u1")
//	if client.IsNotFound(err) {
//	  ...
//	}
//
// Performance Considerations:
//
//   - Every connection handles one exchange at a time. Increasing
//     ConnectionsPerEndpoint allows more requests to be in flight concurrently.
//
//   - Batch commands (Hmget, Hmset, ...) need a single round trip for many keys.
//
//   - The binary serializer produces the smallest payloads.
//
// Thread Safety:
//
//	A Client can be used concurrently from multiple goroutines without additional
//	synchronization.
package client
