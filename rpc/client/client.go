package client

import (
	"fmt"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/serializer"
	"github.com/ValentinKolb/skv/rpc/transport"
	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
)

var (
	Logger = logger.GetLogger("rpc")
)

// ErrUnexpectedResponse is returned when a successful response does not have the
// shape the command requires.
var ErrUnexpectedResponse = errors.New("unexpected response")

// ResponseError is returned by the typed methods of Client for every response
// whose status is not OK.
type ResponseError struct {
	Status  uint32
	Message string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, common.StatusText(e.Status), e.Message)
}

// IsNotFound reports whether err is a ResponseError with status 404
func IsNotFound(err error) bool {
	var respErr *ResponseError
	return errors.As(err, &respErr) && respErr.Status == common.StatusNotFound
}

// Client sends commands to a skv server. It is safe for concurrent use, concurrent
// requests are spread over the connections of the transport.
type Client struct {
	config    common.ClientConfig
	transport transport.IRPCClientTransport
}

// NewRPCClient connects the transport and returns a client using it
//
// Usage:
//
//	c, err := client.NewRPCClient(
//		*config,
//		tcp.NewTCPClientTransport(),
//		serializer.NewBinarySerializer(),
//	)
func NewRPCClient(
	config common.ClientConfig,
	transport transport.IRPCClientTransport,
	serializer serializer.IRPCSerializer,
) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid client config")
	}
	if err := transport.Connect(config, serializer); err != nil {
		return nil, err
	}
	Logger.Debugf("client connected to %v", config.Transport.Endpoints)
	return &Client{
		config:    config,
		transport: transport,
	}, nil
}

// Execute sends the request and returns the raw response, error responses included.
// An error is only returned if no response could be obtained.
func (c *Client) Execute(req *common.CommandRequest) (*common.CommandResponse, error) {
	resp, err := c.transport.Send(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s request failed", req.Name())
	}
	return resp, nil
}

// Close closes the transport
func (c *Client) Close() error {
	return c.transport.Close()
}

// --------------------------------------------------------------------------
// Typed Commands
// --------------------------------------------------------------------------

// Hget returns the value of key. A missing key yields a ResponseError with status 404.
func (c *Client) Hget(table, key string) (store.Value, error) {
	resp, err := c.call(common.NewHgetRequest(table, key))
	if err != nil {
		return store.Value{}, err
	}
	return single(resp)
}

// Hgetall returns all pairs of a table, in no particular order
func (c *Client) Hgetall(table string) ([]store.Kvpair, error) {
	resp, err := c.call(common.NewHgetallRequest(table))
	if err != nil {
		return nil, err
	}
	return resp.Pairs, nil
}

// Hset stores value under key and returns the previous value (the default value if
// there was none).
func (c *Client) Hset(table, key string, value store.Value) (store.Value, error) {
	resp, err := c.call(common.NewHsetRequest(table, key, value))
	if err != nil {
		return store.Value{}, err
	}
	return single(resp)
}

// Hmget returns one value per key, the default value for missing keys
func (c *Client) Hmget(table string, keys ...string) ([]store.Value, error) {
	resp, err := c.call(common.NewHmgetRequest(table, keys...))
	if err != nil {
		return nil, err
	}
	return aligned(resp, len(keys))
}

// Hmset stores all pairs and returns the previous value of each
func (c *Client) Hmset(table string, pairs ...store.Kvpair) ([]store.Value, error) {
	resp, err := c.call(common.NewHmsetRequest(table, pairs...))
	if err != nil {
		return nil, err
	}
	return aligned(resp, len(pairs))
}

// Hdel removes key and returns the removed value (the default value if there was none)
func (c *Client) Hdel(table, key string) (store.Value, error) {
	resp, err := c.call(common.NewHdelRequest(table, key))
	if err != nil {
		return store.Value{}, err
	}
	return single(resp)
}

// Hmdel removes all keys and returns the removed value of each
func (c *Client) Hmdel(table string, keys ...string) ([]store.Value, error) {
	resp, err := c.call(common.NewHmdelRequest(table, keys...))
	if err != nil {
		return nil, err
	}
	return aligned(resp, len(keys))
}

// Hexist reports whether key exists
func (c *Client) Hexist(table, key string) (bool, error) {
	resp, err := c.call(common.NewHexistRequest(table, key))
	if err != nil {
		return false, err
	}
	v, err := single(resp)
	if err != nil {
		return false, err
	}
	return asBool(v)
}

// Hmexist reports for every key whether it exists
func (c *Client) Hmexist(table string, keys ...string) ([]bool, error) {
	resp, err := c.call(common.NewHmexistRequest(table, keys...))
	if err != nil {
		return nil, err
	}
	values, err := aligned(resp, len(keys))
	if err != nil {
		return nil, err
	}
	found := make([]bool, len(values))
	for i, v := range values {
		// a failed element is reported as the default value
		if v.IsNone() {
			continue
		}
		if found[i], err = asBool(v); err != nil {
			return nil, err
		}
	}
	return found, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// call executes the request and converts error responses into a ResponseError
func (c *Client) call(req *common.CommandRequest) (*common.CommandResponse, error) {
	resp, err := c.Execute(req)
	if err != nil {
		return nil, err
	}
	if !resp.IsOK() {
		return nil, &ResponseError{Status: resp.Status, Message: resp.Message}
	}
	return resp, nil
}

func single(resp *common.CommandResponse) (store.Value, error) {
	if len(resp.Values) != 1 {
		return store.Value{}, errors.Wrapf(ErrUnexpectedResponse, "expected 1 value, got %d", len(resp.Values))
	}
	return resp.Values[0], nil
}

func aligned(resp *common.CommandResponse, n int) ([]store.Value, error) {
	if len(resp.Values) != n {
		return nil, errors.Wrapf(ErrUnexpectedResponse, "expected %d values, got %d", n, len(resp.Values))
	}
	return resp.Values, nil
}

func asBool(v store.Value) (bool, error) {
	b, ok := v.AsBool()
	if !ok {
		return false, errors.Wrapf(ErrUnexpectedResponse, "expected a bool, got %s", v.Kind())
	}
	return b, nil
}
