package remote

import (
	"encoding/json"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

var (
	// ErrRemoteUnavailable covers network failures, 5xx responses and calls
	// refused by the circuit breaker or bulkhead
	ErrRemoteUnavailable = errors.New("remote unavailable")
	// ErrRemoteWriteRejected is a write the backend refused (constraint or
	// validation failure)
	ErrRemoteWriteRejected = errors.New("remote write rejected")
	// ErrNotFound is a delete or update that matched no row
	ErrNotFound = errors.New("row not found")
	// ErrUploadFailed is an image the storage bucket did not accept
	ErrUploadFailed = errors.New("upload failed")
	// ErrAuthFailed is a refused sign-in
	ErrAuthFailed = errors.New("authentication failed")
)

// apiError covers the error bodies of the rows, storage and auth endpoints
type apiError struct {
	Message          string `json:"message"`
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// errorMessage extracts the human-readable reason from an error response
func errorMessage(resp *resty.Response) string {
	var body apiError
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		for _, s := range []string{body.ErrorDescription, body.Message, body.Msg, body.Error} {
			if s != "" {
				return s
			}
		}
	}

	if s := strings.TrimSpace(resp.String()); s != "" {
		return s
	}
	return resp.Status()
}
