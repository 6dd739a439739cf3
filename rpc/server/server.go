package server

import (
	"context"
	"net"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/lib/store/mstore"
	"github.com/ValentinKolb/skv/lib/store/pstore"
	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/serializer"
	"github.com/ValentinKolb/skv/rpc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("server")

// NewStoreFactory returns the factory of the storage backend selected by the config
func NewStoreFactory(conf common.StorageConf) (store.Factory, error) {
	switch conf.Backend {
	case common.StorageMemory, "":
		return mstore.Factory(), nil
	case common.StoragePebble:
		if conf.DataDir == "" {
			return nil, errors.New("the pebble backend needs a data directory")
		}
		return pstore.Factory(conf.DataDir, &pstore.Options{
			Sync:      conf.PebbleSync,
			CacheSize: int64(conf.PebbleCacheMB) << 20,
		}), nil
	default:
		return nil, errors.Newf("invalid storage backend %q (expected one of memory, pebble)", conf.Backend)
	}
}

// RPCServer binds a transport, a Service and a storage backend together
type RPCServer struct {
	config     common.ServerConfig
	transport  transport.IRPCServerTransport
	serializer serializer.IRPCSerializer
	metrics    *metrics.Set
	hooks      []func(*ServiceBuilder)

	startOnce sync.Once
	startErr  error
	service   Service
	admin     *AdminServer
	served    atomic.Bool
	serving   chan struct{} // closed when the transport stopped serving

	shutdownOnce sync.Once
	shutdownErr  error
}

// NewRPCServer creates a new RPC server
// It takes a config, transport and serializer as parameters
//
// Usage:
//
//	s := server.NewRPCServer(
//		*config,
//		tcp.NewTCPServerTransport(),
//		serializer.NewBinarySerializer(),
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewRPCServer(
	config common.ServerConfig,
	transport transport.IRPCServerTransport,
	serializer serializer.IRPCSerializer,
) *RPCServer {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	return &RPCServer{
		config:     config,
		transport:  transport,
		serializer: serializer,
		metrics:    metrics.NewSet(),
		serving:    make(chan struct{}),
	}
}

// WithHooks registers additional hooks on the service. It must be called before Start.
func (s *RPCServer) WithHooks(register func(*ServiceBuilder)) *RPCServer {
	s.hooks = append(s.hooks, register)
	return s
}

// Start opens the backend, builds the service and binds the listeners.
// It is called by Serve and only runs once.
func (s *RPCServer) Start() error {
	s.startOnce.Do(func() {
		s.startErr = s.init()
	})
	return s.startErr
}

// Serve starts the server (if not already started) and blocks until Shutdown
func (s *RPCServer) Serve() error {
	if err := s.Start(); err != nil {
		return err
	}
	if s.served.Swap(true) {
		return errors.New("server is already serving")
	}
	defer close(s.serving)
	return s.transport.Serve()
}

// ServeUntilSignal serves until SIGINT or SIGTERM is received and shuts down afterwards
func (s *RPCServer) ServeUntilSignal() error {
	if err := s.Start(); err != nil {
		return err
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve() }()

	select {
	case sig := <-sigs:
		Logger.Infof("Received %s, shutting down", sig)
		return s.Shutdown()
	case err := <-errCh:
		return errors.CombineErrors(err, s.Shutdown())
	}
}

// Addr returns the address of the RPC listener, nil before Start
func (s *RPCServer) Addr() net.Addr {
	return s.transport.Addr()
}

// AdminAddr returns the address of the admin HTTP server, nil if it is disabled
func (s *RPCServer) AdminAddr() net.Addr {
	if s.admin == nil {
		return nil
	}
	return s.admin.Addr()
}

// Metrics returns the metrics set of the server
func (s *RPCServer) Metrics() *metrics.Set {
	return s.metrics
}

// Shutdown stops the transport and the admin server and closes the store once all
// connections are done. It is safe to call Shutdown more than once.
func (s *RPCServer) Shutdown() error {
	s.shutdownOnce.Do(func() {
		var errs error
		errs = errors.CombineErrors(errs, s.transport.Close())

		if s.admin != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			errs = errors.CombineErrors(errs, s.admin.Shutdown(ctx))
			cancel()
		}

		// Serve returns after all connection goroutines finished
		if s.service.inner != nil {
			if s.served.Load() {
				select {
				case <-s.serving:
				case <-time.After(10 * time.Second):
					Logger.Warningf("Timed out waiting for connections to finish, late requests will see a closed store")
				}
			}
			errs = errors.CombineErrors(errs, s.service.Close())
		}

		s.shutdownErr = errs
		Logger.Infof("Server stopped")
	})
	return s.shutdownErr
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *RPCServer) init() error {
	if err := s.config.Validate(); err != nil {
		return errors.Wrap(err, "invalid server config")
	}

	// Init logger
	if err := common.InitLoggers(s.config.LogLevel); err != nil {
		return err
	}
	Logger.Infof("%s", s.config.String())

	// Open the storage backend
	factory, err := NewStoreFactory(s.config.Storage)
	if err != nil {
		return err
	}
	backend, err := factory()
	if err != nil {
		return errors.Wrap(err, "failed to open store")
	}

	// Build the service
	builder := NewServiceBuilder(backend).OnExecuted(logFailures)
	NewMetricsHooks(s.metrics).Register(builder)
	for _, register := range s.hooks {
		register(builder)
	}
	service := builder.Build()

	// Configure the transport layer
	s.transport.RegisterHandler(service)
	if err := s.transport.Listen(s.config, s.serializer); err != nil {
		return errors.CombineErrors(err, backend.Close())
	}

	// Start the admin endpoint
	if s.config.AdminEndpoint != "" {
		admin := NewAdminServer(s.config.AdminEndpoint, s.metrics)
		if err := admin.Start(); err != nil {
			return errors.CombineErrors(err, errors.CombineErrors(s.transport.Close(), backend.Close()))
		}
		s.admin = admin
	}

	s.service = service
	Logger.Infof("skv server started (storage %s)", s.config.Storage.Backend)
	return nil
}

// logFailures logs every response that reports a server side failure
func logFailures(resp common.CommandResponse) {
	if resp.Status >= common.StatusInternalServerError {
		Logger.Warningf("Request failed with status %d: %s", resp.Status, resp.Message)
	}
}
