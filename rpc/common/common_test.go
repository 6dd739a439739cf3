package common

import (
	"testing"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFromError(t *testing.T) {
	assert.Equal(t, StatusOK, StatusFromError(nil))
	assert.Equal(t, StatusNotFound, StatusFromError(store.ErrNotFound("t", "k")))
	assert.Equal(t, StatusBadRequest, StatusFromError(store.ErrInvalidCommand("x")))
	assert.Equal(t, StatusInternalServerError, StatusFromError(store.ErrConversion(nil, "bad")))
	assert.Equal(t, StatusInternalServerError, StatusFromError(store.ErrBackend(errors.New("io"), "get", "t", "k")))
	assert.Equal(t, StatusInternalServerError, StatusFromError(errors.New("other")))
}

func TestErrorResponse(t *testing.T) {
	resp := NewErrorResponse(store.ErrNotFound("users", "u9"))
	assert.Equal(t, StatusNotFound, resp.Status)
	assert.Equal(t, "Not found for table: users, key: u9", resp.Message)
	assert.Empty(t, resp.Values)
	assert.Empty(t, resp.Pairs)
	assert.False(t, resp.IsOK())
}

func TestSuccessResponses(t *testing.T) {
	resp := NewValueResponse(store.Value{})
	assert.True(t, resp.IsOK())
	assert.Empty(t, resp.Message)
	require.Len(t, resp.Values, 1)
	assert.True(t, resp.Values[0].IsNone())

	assert.Nil(t, NewValuesResponse([]store.Value{}).Values)
	assert.Nil(t, NewPairsResponse([]store.Kvpair{}).Pairs)
}

func TestRequestNames(t *testing.T) {
	reqs := []*CommandRequest{
		NewHgetRequest("t", "k"),
		NewHgetallRequest("t"),
		NewHmgetRequest("t", "a", "b"),
		NewHsetRequest("t", "k", store.Int(1)),
		NewHmsetRequest("t", store.NewKvpair("a", store.Int(1))),
		NewHdelRequest("t", "k"),
		NewHmdelRequest("t", "a"),
		NewHexistRequest("t", "k"),
		NewHmexistRequest("t", "a"),
	}
	for i, req := range reqs {
		assert.Equal(t, CommandNames[i], req.Name())
	}
	assert.Equal(t, "unknown", (&CommandRequest{}).Name())
}

func validServerConfig() ServerConfig {
	return ServerConfig{
		Transport: ServerTransportConfig{
			Endpoint:     "127.0.0.1:0",
			TLSConf:      TLSConf{Insecure: true},
			ProtocolConf: DefaultProtocolConf(),
		},
		Storage:  StorageConf{Backend: StorageMemory},
		LogLevel: "info",
	}
}

func TestServerConfigValidate(t *testing.T) {
	c := validServerConfig()
	require.NoError(t, c.Validate())
	assert.Contains(t, c.String(), "127.0.0.1:0")

	c = validServerConfig()
	c.LogLevel = "loud"
	assert.Error(t, c.Validate())

	c = validServerConfig()
	c.Storage.Backend = StoragePebble
	assert.Error(t, c.Validate(), "pebble needs a data dir")

	c = validServerConfig()
	c.Transport.Insecure = false
	assert.Error(t, c.Validate(), "tls needs cert and key")

	c = validServerConfig()
	c.Transport.Compression = "brotli"
	assert.Error(t, c.Validate())
}

func TestInitLoggers(t *testing.T) {
	require.NoError(t, InitLoggers("debug"))
	assert.Error(t, InitLoggers("verbose"))
}
