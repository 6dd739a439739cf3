package common

import (
	"net/http"

	"github.com/ValentinKolb/skv/lib/store"
)

// Status codes of a CommandResponse. The numbers follow HTTP.
const (
	StatusOK                  uint32 = http.StatusOK
	StatusBadRequest          uint32 = http.StatusBadRequest
	StatusNotFound            uint32 = http.StatusNotFound
	StatusInternalServerError uint32 = http.StatusInternalServerError
)

// StatusFromError maps an error onto the status code sent to the client.
func StatusFromError(err error) uint32 {
	switch store.CodeOf(err) {
	case store.RetCSuccess:
		return StatusOK
	case store.RetCNotFound:
		return StatusNotFound
	case store.RetCInvalidCommand:
		return StatusBadRequest
	default:
		return StatusInternalServerError
	}
}

// StatusText returns a short description of a status code.
func StatusText(status uint32) string {
	return http.StatusText(int(status))
}
