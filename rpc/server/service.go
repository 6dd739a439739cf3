package server

import (
	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/rpc/common"
)

// Hook types of the request pipeline
type (
	// ReceivedHook observes a request before it is executed
	ReceivedHook func(req common.CommandRequest)
	// ExecutedHook observes a response right after execution
	ExecutedHook func(resp common.CommandResponse)
	// BeforeSendHook may modify a response before it is sent
	BeforeSendHook func(resp *common.CommandResponse)
	// AfterSendHook runs after the response was written to the connection
	AfterSendHook func()
)

// serviceInner is shared by all copies of a Service and never modified after Build
type serviceInner struct {
	store      store.IStore
	received   []ReceivedHook
	executed   []ExecutedHook
	beforeSend []BeforeSendHook
	afterSend  []AfterSendHook
}

// Service executes requests against one store and runs the registered hooks around
// every request. A Service is cheap to copy, all copies share the store and the hooks.
type Service struct {
	inner *serviceInner
}

// ServiceBuilder collects the hooks of a Service
type ServiceBuilder struct {
	inner serviceInner
}

// NewServiceBuilder creates a builder for a Service owning s
func NewServiceBuilder(s store.IStore) *ServiceBuilder {
	return &ServiceBuilder{inner: serviceInner{store: s}}
}

// OnReceived registers a hook that observes every received request
func (b *ServiceBuilder) OnReceived(hook ReceivedHook) *ServiceBuilder {
	b.inner.received = append(b.inner.received, hook)
	return b
}

// OnExecuted registers a hook that observes every response after execution
func (b *ServiceBuilder) OnExecuted(hook ExecutedHook) *ServiceBuilder {
	b.inner.executed = append(b.inner.executed, hook)
	return b
}

// OnBeforeSend registers a hook that may modify every response before it is sent
func (b *ServiceBuilder) OnBeforeSend(hook BeforeSendHook) *ServiceBuilder {
	b.inner.beforeSend = append(b.inner.beforeSend, hook)
	return b
}

// OnAfterSend registers a hook that runs after every response was sent
func (b *ServiceBuilder) OnAfterSend(hook AfterSendHook) *ServiceBuilder {
	b.inner.afterSend = append(b.inner.afterSend, hook)
	return b
}

// Build creates the Service. Hooks run in registration order.
func (b *ServiceBuilder) Build() Service {
	inner := b.inner
	inner.received = append([]ReceivedHook(nil), b.inner.received...)
	inner.executed = append([]ExecutedHook(nil), b.inner.executed...)
	inner.beforeSend = append([]BeforeSendHook(nil), b.inner.beforeSend...)
	inner.afterSend = append([]AfterSendHook(nil), b.inner.afterSend...)
	return Service{inner: &inner}
}

// Execute runs the request pipeline: received hooks, dispatch, executed hooks and
// before send hooks. It always returns a response.
func (s Service) Execute(req *common.CommandRequest) *common.CommandResponse {
	if req == nil {
		req = &common.CommandRequest{}
	}
	Logger.Debugf("Received %s request", req.Name())
	for _, hook := range s.inner.received {
		hook(*req)
	}

	resp := Dispatch(req, s.inner.store)
	Logger.Debugf("Executed %s request: status %d %s", req.Name(), resp.Status, resp.Message)

	for _, hook := range s.inner.executed {
		hook(*resp)
	}
	for _, hook := range s.inner.beforeSend {
		hook(resp)
	}
	return resp
}

// NotifyAfterSend runs the after send hooks. The transport calls it once the
// response of a request has been written.
func (s Service) NotifyAfterSend() {
	for _, hook := range s.inner.afterSend {
		hook()
	}
}

// Store returns the store of the service
func (s Service) Store() store.IStore {
	return s.inner.store
}

// Close closes the store of the service
func (s Service) Close() error {
	return s.inner.store.Close()
}
