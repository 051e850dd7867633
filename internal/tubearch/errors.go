package tubearch

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the API answers 404 for a resource; for
// queue lookups this simply means the video is not queued.
var ErrNotFound = errors.New("resource not found in TubeArchivist")

type (
	// RequestError is a non-OK answer from the API that carried a
	// decodable error message.
	RequestError struct {
		Status  int
		Message string
	}

	// UnknownRequestError covers transport failures and undecodable
	// responses.
	UnknownRequestError struct {
		reason string
	}
)

func (err *RequestError) Error() string {
	return fmt.Sprintf("request failure (HTTP %d): %s", err.Status, err.Message)
}

func (err *UnknownRequestError) Error() string {
	return fmt.Sprintf("unknown error occurred while communicating with TubeArchivist: %s", err.reason)
}
