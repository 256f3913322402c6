package coinninja

import (
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized ...
	ErrUnauthorized = errors.New("request was not authorized")
	// ErrDeverifiedDevice is returned on a 401 whose body carries a device
	// mismatch or record-not-found reason: the server disavowed the local
	// identifiers and the caller must clear them.
	ErrDeverifiedDevice = errors.New("server disavowed the local device identifiers")
	// ErrRecordNotFound ...
	ErrRecordNotFound = errors.New("record not found")
	// ErrConflict ...
	ErrConflict = errors.New("request conflicts with the server state")
	// ErrRateLimited ...
	ErrRateLimited = errors.New("request was rate limited")
	// ErrServerUnavailable covers transient 5xx conditions.
	ErrServerUnavailable = errors.New("server is temporarily unavailable")
	// ErrNotImplemented ...
	ErrNotImplemented = errors.New("endpoint is not implemented by the server")
)

// IsTransient returns whether the error maps to a retryable condition. The
// caller must not retry in a tight loop, the next natural sync trigger does.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServerUnavailable)
}

// IsDeverification returns whether the error must trigger a local identity
// reset.
func IsDeverification(err error) bool {
	return errors.Is(err, ErrDeverifiedDevice)
}

func errorForStatus(status int, body string) error {
	switch status {
	case http.StatusOK, http.StatusCreated:
		return nil
	case http.StatusUnauthorized:
		lowered := strings.ToLower(body)
		if strings.Contains(lowered, "device") ||
			strings.Contains(lowered, "not found") {
			return ErrDeverifiedDevice
		}
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrRecordNotFound
	case http.StatusConflict:
		return ErrConflict
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusNotImplemented:
		return ErrNotImplemented
	case http.StatusInternalServerError, http.StatusServiceUnavailable:
		return ErrServerUnavailable
	default:
		if status >= 500 {
			return ErrServerUnavailable
		}
		return errors.New(body)
	}
}
