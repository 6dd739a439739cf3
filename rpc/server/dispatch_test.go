package server

import (
	"testing"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/lib/store/mstore"
	"github.com/ValentinKolb/skv/rpc/common"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingStore fails every operation with a backend error
type failingStore struct{}

var errDisk = errors.New("disk on fire")

func (failingStore) Get(table, key string) (store.Value, bool, error) {
	return store.Value{}, false, store.ErrBackend(errDisk, "get", table, key)
}

func (failingStore) Set(table, key string, _ store.Value) (store.Value, bool, error) {
	return store.Value{}, false, store.ErrBackend(errDisk, "set", table, key)
}

func (failingStore) Del(table, key string) (store.Value, bool, error) {
	return store.Value{}, false, store.ErrBackend(errDisk, "del", table, key)
}

func (failingStore) Contains(table, key string) (bool, error) {
	return false, store.ErrBackend(errDisk, "contains", table, key)
}

func (failingStore) GetAll(table string) ([]store.Kvpair, error) {
	return nil, store.ErrBackend(errDisk, "get_all", table, "")
}

func (failingStore) GetIter(table string) (store.Iterator, error) {
	return nil, store.ErrBackend(errDisk, "get_iter", table, "")
}

func (failingStore) Close() error { return nil }

func assertOK(t *testing.T, resp *common.CommandResponse) {
	t.Helper()
	assert.Equal(t, common.StatusOK, resp.Status)
	assert.Empty(t, resp.Message)
}

func assertError(t *testing.T, resp *common.CommandResponse, status uint32) {
	t.Helper()
	assert.Equal(t, status, resp.Status)
	assert.NotEmpty(t, resp.Message)
	assert.Empty(t, resp.Values)
	assert.Empty(t, resp.Pairs)
}

func TestDispatchSetThenGet(t *testing.T) {
	s := mstore.New()

	resp := Dispatch(common.NewHsetRequest("users", "u1", store.String("alice")), s)
	assertOK(t, resp)
	assert.Equal(t, []store.Value{{}}, resp.Values, "first set returns the default value")

	resp = Dispatch(common.NewHgetRequest("users", "u1"), s)
	assertOK(t, resp)
	assert.Equal(t, []store.Value{store.String("alice")}, resp.Values)

	resp = Dispatch(common.NewHsetRequest("users", "u1", store.Int(42)), s)
	assertOK(t, resp)
	assert.Equal(t, []store.Value{store.String("alice")}, resp.Values, "overwrite returns the previous value")
}

func TestDispatchGetMissing(t *testing.T) {
	resp := Dispatch(common.NewHgetRequest("users", "nobody"), mstore.New())
	assertError(t, resp, common.StatusNotFound)
	assert.Equal(t, "Not found for table: users, key: nobody", resp.Message)
}

func TestDispatchSetWithoutPair(t *testing.T) {
	s := mstore.New()
	resp := Dispatch(&common.CommandRequest{Data: common.Hset{Table: "users"}}, s)
	assertOK(t, resp)
	assert.Equal(t, []store.Value{{}}, resp.Values)

	pairs, err := s.GetAll("users")
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestDispatchBatches(t *testing.T) {
	s := mstore.New()

	resp := Dispatch(common.NewHmsetRequest("t",
		store.NewKvpair("a", store.Int(1)),
		store.NewKvpair("b", store.Int(2)),
	), s)
	assertOK(t, resp)
	assert.Equal(t, []store.Value{{}, {}}, resp.Values)

	resp = Dispatch(common.NewHmsetRequest("t",
		store.NewKvpair("b", store.Int(20)),
		store.NewKvpair("c", store.Int(30)),
	), s)
	assert.Equal(t, []store.Value{store.Int(2), {}}, resp.Values)

	resp = Dispatch(common.NewHmgetRequest("t", "a", "missing", "c"), s)
	assertOK(t, resp)
	assert.Equal(t, []store.Value{store.Int(1), {}, store.Int(30)}, resp.Values)

	resp = Dispatch(common.NewHmexistRequest("t", "a", "missing"), s)
	assert.Equal(t, []store.Value{store.Bool(true), store.Bool(false)}, resp.Values)

	resp = Dispatch(common.NewHmdelRequest("t", "a", "missing"), s)
	assert.Equal(t, []store.Value{store.Int(1), {}}, resp.Values)

	resp = Dispatch(common.NewHmgetRequest("t"), s)
	assertOK(t, resp)
	assert.Empty(t, resp.Values)
}

func TestDispatchDelAndExist(t *testing.T) {
	s := mstore.New()
	Dispatch(common.NewHsetRequest("t", "k", store.Bool(true)), s)

	resp := Dispatch(common.NewHexistRequest("t", "k"), s)
	assert.Equal(t, []store.Value{store.Bool(true)}, resp.Values)

	resp = Dispatch(common.NewHdelRequest("t", "k"), s)
	assertOK(t, resp)
	assert.Equal(t, []store.Value{store.Bool(true)}, resp.Values)

	resp = Dispatch(common.NewHdelRequest("t", "k"), s)
	assertOK(t, resp)
	assert.Equal(t, []store.Value{{}}, resp.Values)

	resp = Dispatch(common.NewHexistRequest("t", "k"), s)
	assert.Equal(t, []store.Value{store.Bool(false)}, resp.Values)
}

func TestDispatchGetAll(t *testing.T) {
	s := mstore.New()

	resp := Dispatch(common.NewHgetallRequest("empty"), s)
	assertOK(t, resp)
	assert.Empty(t, resp.Pairs)

	for _, k := range []string{"u3", "u1", "u2"} {
		Dispatch(common.NewHsetRequest("users", k, store.String("name-"+k)), s)
	}
	Dispatch(common.NewHsetRequest("other", "u9", store.String("x")), s)

	resp = Dispatch(common.NewHgetallRequest("users"), s)
	assertOK(t, resp)
	store.SortPairs(resp.Pairs)
	assert.Equal(t, []store.Kvpair{
		store.NewKvpair("u1", store.String("name-u1")),
		store.NewKvpair("u2", store.String("name-u2")),
		store.NewKvpair("u3", store.String("name-u3")),
	}, resp.Pairs)
}

func TestDispatchNoData(t *testing.T) {
	resp := Dispatch(&common.CommandRequest{}, mstore.New())
	assertError(t, resp, common.StatusBadRequest)
	assert.Equal(t, "Cannot parse command: `Request has no data`", resp.Message)
}

func TestDispatchBackendFailure(t *testing.T) {
	s := failingStore{}

	for _, req := range []*common.CommandRequest{
		common.NewHgetRequest("t", "k"),
		common.NewHgetallRequest("t"),
		common.NewHsetRequest("t", "k", store.Int(1)),
		common.NewHdelRequest("t", "k"),
		common.NewHexistRequest("t", "k"),
	} {
		t.Run(req.Name(), func(t *testing.T) {
			assertError(t, Dispatch(req, s), common.StatusInternalServerError)
		})
	}

	// batches swallow per element errors
	for _, req := range []*common.CommandRequest{
		common.NewHmgetRequest("t", "a", "b"),
		common.NewHmsetRequest("t", store.NewKvpair("a", store.Int(1)), store.NewKvpair("b", store.Int(2))),
		common.NewHmdelRequest("t", "a", "b"),
		common.NewHmexistRequest("t", "a", "b"),
	} {
		t.Run(req.Name(), func(t *testing.T) {
			resp := Dispatch(req, s)
			assertOK(t, resp)
			assert.Equal(t, []store.Value{{}, {}}, resp.Values)
		})
	}
}
