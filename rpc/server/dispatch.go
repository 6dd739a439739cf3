package server

import (
	"fmt"

	"github.com/ValentinKolb/skv/lib/store"
	"github.com/ValentinKolb/skv/rpc/common"
)

// Dispatch executes one request against the store and builds its response.
// It never fails: storage errors and malformed requests become error responses.
//
// Single key commands report storage errors as error responses. Batch commands
// (hmget, hmset, hmdel, hmexist) always succeed and put the default value at the
// position of every key that is missing or failed.
func Dispatch(req *common.CommandRequest, s store.IStore) *common.CommandResponse {
	if req == nil {
		return common.NewErrorResponse(store.ErrInvalidCommand("Request has no data"))
	}
	switch d := req.Data.(type) {
	case nil:
		return common.NewErrorResponse(store.ErrInvalidCommand("Request has no data"))

	case common.Hget:
		v, found, err := s.Get(d.Table, d.Key)
		if err != nil {
			return common.NewErrorResponse(err)
		}
		if !found {
			return common.NewErrorResponse(store.ErrNotFound(d.Table, d.Key))
		}
		return common.NewValueResponse(v)

	case common.Hgetall:
		pairs, err := s.GetAll(d.Table)
		if err != nil {
			return common.NewErrorResponse(err)
		}
		return common.NewPairsResponse(pairs)

	case common.Hset:
		if d.Pair == nil {
			return common.NewValueResponse(store.Value{})
		}
		old, _, err := s.Set(d.Table, d.Pair.Key, d.Pair.Value)
		if err != nil {
			return common.NewErrorResponse(err)
		}
		return common.NewValueResponse(old)

	case common.Hmget:
		return common.NewValuesResponse(batch(d.Keys, func(key string) (store.Value, error) {
			v, _, err := s.Get(d.Table, key)
			return v, err
		}))

	case common.Hmset:
		return common.NewValuesResponse(batch(d.Pairs, func(p store.Kvpair) (store.Value, error) {
			old, _, err := s.Set(d.Table, p.Key, p.Value)
			return old, err
		}))

	case common.Hdel:
		old, _, err := s.Del(d.Table, d.Key)
		if err != nil {
			return common.NewErrorResponse(err)
		}
		return common.NewValueResponse(old)

	case common.Hmdel:
		return common.NewValuesResponse(batch(d.Keys, func(key string) (store.Value, error) {
			old, _, err := s.Del(d.Table, key)
			return old, err
		}))

	case common.Hexist:
		found, err := s.Contains(d.Table, d.Key)
		if err != nil {
			return common.NewErrorResponse(err)
		}
		return common.NewValueResponse(store.Bool(found))

	case common.Hmexist:
		return common.NewValuesResponse(batch(d.Keys, func(key string) (store.Value, error) {
			found, err := s.Contains(d.Table, key)
			return store.Bool(found), err
		}))

	default:
		return common.NewErrorResponse(store.ErrInvalidCommand(fmt.Sprintf("unsupported command %T", d)))
	}
}

// batch applies op to every element. A failed element yields the default value.
func batch[T any](elems []T, op func(T) (store.Value, error)) []store.Value {
	values := make([]store.Value, len(elems))
	for i, e := range elems {
		v, err := op(e)
		if err != nil {
			Logger.Debugf("batch element %d failed: %v", i, err)
			continue
		}
		values[i] = v
	}
	return values
}
