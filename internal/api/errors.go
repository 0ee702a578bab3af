package api

import (
	"errors"
	"net/http"

	"github.com/samcharles93/dsotools/internal/patchset"
	"github.com/samcharles93/dsotools/pkg/dso"
)

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrNotFound       = errors.New("container not found")
	ErrBodyTooLarge   = errors.New("request body too large")
)

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// classify maps an error to the HTTP status and error type reported to the
// client.
func classify(err error) (status int, errType string) {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found_error"
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge, "invalid_request_error"
	case errors.Is(err, dso.ErrTruncated), errors.Is(err, dso.ErrUnsupportedVersion):
		return http.StatusBadRequest, "invalid_dso"
	case errors.Is(err, dso.ErrPatchIndex),
		errors.Is(err, patchset.ErrInvalidKey),
		errors.Is(err, patchset.ErrInvalidValue):
		return http.StatusBadRequest, "invalid_patch"
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request_error"
	default:
		return http.StatusInternalServerError, "server_error"
	}
}
