package herbscan

import (
	"fmt"
	"net/http"
)

// RequestFailure is returned when a call to the scanning API does not
// succeed. Status is zero for transport-level failures.
type RequestFailure struct {
	Endpoint string
	Status   int
	Err      error
}

func (e *RequestFailure) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("failed to fetch %s: %d %s", e.Endpoint, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("failed to fetch %s: %v", e.Endpoint, e.Err)
}

func (e *RequestFailure) Unwrap() error { return e.Err }

// DecodeFailure reports a sensor blob that is not a JSON object of numbers.
type DecodeFailure struct {
	Blob string
	Err  error
}

func (e *DecodeFailure) Error() string {
	return fmt.Sprintf("decode sensor data: %v", e.Err)
}

func (e *DecodeFailure) Unwrap() error { return e.Err }
