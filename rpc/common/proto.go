package common

import (
	"github.com/ValentinKolb/skv/lib/store"
)

// --------------------------------------------------------------------------
// Request Structure
// --------------------------------------------------------------------------

// CommandRequest is a single command sent by a client. Exactly one command variant is
// carried in Data. A request with nil Data is malformed and is answered with a
// bad request response.
type CommandRequest struct {
	Data RequestData
}

// RequestData is implemented by the nine command variants. The set is closed.
type RequestData interface {
	// Name returns the lower case command name (e.g. "hget").
	Name() string
	isRequestData()
}

// Name returns the command name of the request, "unknown" for a request without data.
func (r *CommandRequest) Name() string {
	if r == nil || r.Data == nil {
		return "unknown"
	}
	return r.Data.Name()
}

// Hget reads a single key.
type Hget struct {
	Table string
	Key   string
}

// Hgetall reads all pairs of a table.
type Hgetall struct {
	Table string
}

// Hset writes a single pair. A nil Pair is a no-op.
type Hset struct {
	Table string
	Pair  *store.Kvpair
}

// Hmget reads several keys.
type Hmget struct {
	Table string
	Keys  []string
}

// Hmset writes several pairs.
type Hmset struct {
	Table string
	Pairs []store.Kvpair
}

// Hdel removes a single key.
type Hdel struct {
	Table string
	Key   string
}

// Hmdel removes several keys.
type Hmdel struct {
	Table string
	Keys  []string
}

// Hexist checks a single key.
type Hexist struct {
	Table string
	Key   string
}

// Hmexist checks several keys.
type Hmexist struct {
	Table string
	Keys  []string
}

func (Hget) Name() string    { return "hget" }
func (Hgetall) Name() string { return "hgetall" }
func (Hset) Name() string    { return "hset" }
func (Hmget) Name() string   { return "hmget" }
func (Hmset) Name() string   { return "hmset" }
func (Hdel) Name() string    { return "hdel" }
func (Hmdel) Name() string   { return "hmdel" }
func (Hexist) Name() string  { return "hexist" }
func (Hmexist) Name() string { return "hmexist" }

func (Hget) isRequestData()    {}
func (Hgetall) isRequestData() {}
func (Hset) isRequestData()    {}
func (Hmget) isRequestData()   {}
func (Hmset) isRequestData()   {}
func (Hdel) isRequestData()    {}
func (Hmdel) isRequestData()   {}
func (Hexist) isRequestData()  {}
func (Hmexist) isRequestData() {}

// CommandNames lists all command names in wire order.
var CommandNames = []string{"hget", "hgetall", "hmget", "hset", "hmset", "hdel", "hmdel", "hexist", "hmexist"}

// --------------------------------------------------------------------------
// Request Factory Functions
// --------------------------------------------------------------------------

// NewHgetRequest creates a new Hget request
func NewHgetRequest(table, key string) *CommandRequest {
	return &CommandRequest{Data: Hget{Table: table, Key: key}}
}

// NewHgetallRequest creates a new Hgetall request
func NewHgetallRequest(table string) *CommandRequest {
	return &CommandRequest{Data: Hgetall{Table: table}}
}

// NewHsetRequest creates a new Hset request
func NewHsetRequest(table, key string, value store.Value) *CommandRequest {
	pair := store.NewKvpair(key, value)
	return &CommandRequest{Data: Hset{Table: table, Pair: &pair}}
}

// NewHmgetRequest creates a new Hmget request
func NewHmgetRequest(table string, keys ...string) *CommandRequest {
	return &CommandRequest{Data: Hmget{Table: table, Keys: keys}}
}

// NewHmsetRequest creates a new Hmset request
func NewHmsetRequest(table string, pairs ...store.Kvpair) *CommandRequest {
	return &CommandRequest{Data: Hmset{Table: table, Pairs: pairs}}
}

// NewHdelRequest creates a new Hdel request
func NewHdelRequest(table, key string) *CommandRequest {
	return &CommandRequest{Data: Hdel{Table: table, Key: key}}
}

// NewHmdelRequest creates a new Hmdel request
func NewHmdelRequest(table string, keys ...string) *CommandRequest {
	return &CommandRequest{Data: Hmdel{Table: table, Keys: keys}}
}

// NewHexistRequest creates a new Hexist request
func NewHexistRequest(table, key string) *CommandRequest {
	return &CommandRequest{Data: Hexist{Table: table, Key: key}}
}

// NewHmexistRequest creates a new Hmexist request
func NewHmexistRequest(table string, keys ...string) *CommandRequest {
	return &CommandRequest{Data: Hmexist{Table: table, Keys: keys}}
}

// --------------------------------------------------------------------------
// Response Structure
// --------------------------------------------------------------------------

// CommandResponse is the answer to exactly one CommandRequest.
//
// On success Status is StatusOK and Message is empty. Single key commands carry one
// element in Values, batch commands carry one element per requested key in request
// order and Hgetall carries the table contents in Pairs (unordered).
// On failure Status is an error status, Message holds a diagnostic and both
// sequences are empty.
type CommandResponse struct {
	Status  uint32
	Message string
	Values  []store.Value
	Pairs   []store.Kvpair
}

// IsOK returns true if the response reports success.
func (r *CommandResponse) IsOK() bool {
	return r.Status == StatusOK
}

// --------------------------------------------------------------------------
// Response Factory Functions
// --------------------------------------------------------------------------

// NewValueResponse creates a success response carrying a single value
func NewValueResponse(v store.Value) *CommandResponse {
	return &CommandResponse{
		Status: StatusOK,
		Values: []store.Value{v},
	}
}

// NewValuesResponse creates a success response carrying the values of a batch command
func NewValuesResponse(values []store.Value) *CommandResponse {
	if len(values) == 0 {
		values = nil
	}
	return &CommandResponse{
		Status: StatusOK,
		Values: values,
	}
}

// NewPairsResponse creates a success response carrying the pairs of a table
func NewPairsResponse(pairs []store.Kvpair) *CommandResponse {
	if len(pairs) == 0 {
		pairs = nil
	}
	return &CommandResponse{
		Status: StatusOK,
		Pairs:  pairs,
	}
}

// NewErrorResponse creates a failure response. The status is derived from the error.
func NewErrorResponse(err error) *CommandResponse {
	if err == nil {
		return &CommandResponse{Status: StatusInternalServerError, Message: "unknown error"}
	}
	return &CommandResponse{
		Status:  StatusFromError(err),
		Message: err.Error(),
	}
}
