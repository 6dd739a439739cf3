package server

import (
	"testing"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/lib/store/mstore"
	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceHookOrder(t *testing.T) {
	var calls []string
	service := NewServiceBuilder(mstore.New()).
		OnReceived(func(req common.CommandRequest) { calls = append(calls, "received:"+req.Name()) }).
		OnExecuted(func(resp common.CommandResponse) { calls = append(calls, "executed") }).
		OnBeforeSend(func(resp *common.CommandResponse) { calls = append(calls, "before_send:1") }).
		OnBeforeSend(func(resp *common.CommandResponse) { calls = append(calls, "before_send:2") }).
		OnAfterSend(func() { calls = append(calls, "after_send") }).
		Build()

	service.Execute(common.NewHgetRequest("t", "k"))
	assert.Equal(t, []string{"received:hget", "executed", "before_send:1", "before_send:2"}, calls)

	service.NotifyAfterSend()
	assert.Equal(t, "after_send", calls[len(calls)-1])
}

func TestServiceBeforeSendModifiesResponse(t *testing.T) {
	service := NewServiceBuilder(mstore.New()).
		OnBeforeSend(func(resp *common.CommandResponse) { resp.Status = 201 }).
		Build()

	resp := service.Execute(common.NewHsetRequest("t", "k", store.String("v")))
	assert.Equal(t, uint32(201), resp.Status)
	assert.Equal(t, []store.Value{{}}, resp.Values)
}

func TestServiceExecutedSeesCopy(t *testing.T) {
	service := NewServiceBuilder(mstore.New()).
		OnExecuted(func(resp common.CommandResponse) { resp.Status = 999 }).
		Build()

	resp := service.Execute(common.NewHexistRequest("t", "k"))
	assert.Equal(t, common.StatusOK, resp.Status)
}

func TestServiceCopiesShareStore(t *testing.T) {
	service := NewServiceBuilder(mstore.New()).Build()
	other := service

	resp := service.Execute(common.NewHsetRequest("t", "k", store.Int(7)))
	require.True(t, resp.IsOK())

	// read through the copy from a different goroutine
	done := make(chan *common.CommandResponse)
	go func() {
		done <- other.Execute(common.NewHgetRequest("t", "k"))
	}()
	resp = <-done

	require.True(t, resp.IsOK())
	assert.Equal(t, []store.Value{store.Int(7)}, resp.Values)
	assert.Same(t, service.Store(), other.Store())
}

func TestServiceExecuteNil(t *testing.T) {
	var received []string
	service := NewServiceBuilder(mstore.New()).
		OnReceived(func(req common.CommandRequest) { received = append(received, req.Name()) }).
		Build()

	resp := service.Execute(nil)
	require.NotNil(t, resp)
	assert.Equal(t, common.StatusBadRequest, resp.Status)
	assert.Equal(t, "Cannot parse command: `Request has no data`", resp.Message)
	assert.Len(t, received, 1)

	resp = Dispatch(nil, mstore.New())
	assert.Equal(t, common.StatusBadRequest, resp.Status)
}

func TestServiceBuilderIsolation(t *testing.T) {
	var count int
	builder := NewServiceBuilder(mstore.New()).
		OnReceived(func(common.CommandRequest) { count++ })
	first := builder.Build()

	builder.OnReceived(func(common.CommandRequest) { count += 10 })
	second := builder.Build()

	first.Execute(common.NewHgetRequest("t", "k"))
	assert.Equal(t, 1, count)

	second.Execute(common.NewHgetRequest("t", "k"))
	assert.Equal(t, 12, count)
}
