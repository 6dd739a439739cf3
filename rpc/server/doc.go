// Package server implements the skv server: the command dispatcher, the Service that
// wraps it with hooks, and the RPCServer that binds a Service to a transport and a
// storage backend.
//
// The package focuses on:
//   - Translating CommandRequests into IStore calls (Dispatch)
//   - Observing and modifying the request pipeline through hooks (Service)
//   - Selecting and owning the storage backend configured for the server
//   - Exposing request metrics and a health check over an admin HTTP endpoint
//
// Key Components:
//
//   - Dispatch: Executes one request against a store and never fails. Single key
//     commands report storage errors as error responses (404 for a missing key on
//     hget, 400 for a request without data, 500 for backend failures). Batch commands
//     always succeed and place the default value at every failed or missing position.
//
//   - Service: Built by a ServiceBuilder that collects four hook lists (received,
//     executed, before send, after send). Copies of a Service share the store and the
//     hooks. Only before send hooks can modify the response.
//
//   - MetricsHooks: Counts requests per command and responses per status into a
//     VictoriaMetrics set.
//
//   - RPCServer: Validates the configuration, opens the backend (memory or pebble),
//     starts the transport and the optional admin server.
//
// Usage Example:
//
//	config := common.ServerConfig{
//	  Transport: common.ServerTransportConfig{
//	    Endpoint:     "0.0.0.0:4567",
//	    TLSConf:      common.TLSConf{CertFile: "server.pem", KeyFile: "server-key.pem"},
//	    ProtocolConf: common.DefaultProtocolConf(),
//	  },
//	  Storage:  common.StorageConf{Backend: common.StoragePebble, DataDir: "/var/lib/skv"},
//	  LogLevel: "info",
//	}
//
//	s := server.NewRPCServer(
//	  config,
//	  tcp.NewTCPServerTransport(),
//	  serializer.NewBinarySerializer(),
//	)
//
//	if err := s.ServeUntilSignal(); err != nil {
//	  log.Fatalf("Server error: %v", err)
//	}
//
// Thread Safety:
//
//	Every connection is served by its own goroutine and requests on one connection
//	are executed one after another. Hooks may be called concurrently from different
//	connections and must synchronize shared state themselves.
package server
