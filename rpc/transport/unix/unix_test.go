package unix

import (
	"path/filepath"
	"testing"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/ValentinKolb/skv/rpc/serializer"
	securetesting "github.com/ValentinKolb/skv/rpc/transport/secure/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoHandler struct{}

func (echoHandler) Execute(req *common.CommandRequest) *common.CommandResponse {
	return common.NewValueResponse(store.String(req.Name()))
}

func (echoHandler) NotifyAfterSend() {}

func roundTrip(t *testing.T, serverTLS, clientTLS common.TLSConf) {
	socket := filepath.Join(t.TempDir(), "skv.sock")
	s := serializer.NewGOBSerializer()

	srv := NewUnixServerTransport()
	srv.RegisterHandler(echoHandler{})
	require.NoError(t, srv.Listen(common.ServerConfig{
		Transport: common.ServerTransportConfig{
			Endpoint:     socket,
			TLSConf:      serverTLS,
			ProtocolConf: common.DefaultProtocolConf(),
		},
	}, s))
	go func() { _ = srv.Serve() }()
	defer srv.Close()

	client := NewUnixClientTransport()
	require.NoError(t, client.Connect(common.ClientConfig{
		Transport: common.ClientTransportConfig{
			Endpoints:    []string{socket},
			TLSConf:      clientTLS,
			ProtocolConf: common.DefaultProtocolConf(),
		},
	}, s))
	defer client.Close()

	resp, err := client.Send(common.NewHmgetRequest("t", "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, []store.Value{store.String("hmget")}, resp.Values)
}

func TestUnixTransportInsecure(t *testing.T) {
	roundTrip(t, common.TLSConf{Insecure: true}, common.TLSConf{Insecure: true})
}

func TestUnixTransportTLS(t *testing.T) {
	pki := securetesting.NewPKI(t, "skv.local")
	serverTLS, clientTLS := pki.WriteFiles(t, t.TempDir())
	roundTrip(t, serverTLS, clientTLS)
}
