package errors

import (
	"errors"
	"net/http"
)

// HTTPError is an augmented error with a HTTP status code.
type HTTPError struct {
	StatusCode int
	error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return e.error.Error()
}

// Unwrap returns the underlying error.
func (e *HTTPError) Unwrap() error {
	return e.error
}

// NewMethodNotAllowed returns an appropriate error in the case that
// an HTTP client uses an invalid method (i.e. a GET in place of a POST)
// on an API endpoint.
func NewMethodNotAllowed(method string) *HTTPError {
	return &HTTPError{http.StatusMethodNotAllowed, errors.New(`Method is not allowed:"` + method + `"`)}
}

// NewBadRequest creates a HttpError with the given error and error code 400.
func NewBadRequest(err error) *HTTPError {
	return &HTTPError{http.StatusBadRequest, err}
}

// NewBadRequestString returns a HttpError with the supplied message
// and error code 400.
func NewBadRequestString(s string) *HTTPError {
	return NewBadRequest(errors.New(s))
}

// NewBadRequestMissingParameter returns a 400 HttpError as a required
// parameter is missing in the HTTP request.
func NewBadRequestMissingParameter(s string) *HTTPError {
	return NewBadRequestString(`Missing parameter "` + s + `"`)
}

// NewConflict returns a 409 HttpError wrapping err.
func NewConflict(err error) *HTTPError {
	return &HTTPError{http.StatusConflict, err}
}

// StatusCode maps a coded *Error to the HTTP status an API handler should
// answer with. Errors outside the taxonomy map to 500.
func StatusCode(err error) int {
	var herr *HTTPError
	if errors.As(err, &herr) && herr.StatusCode != 0 {
		return herr.StatusCode
	}
	var cerr *Error
	if !errors.As(err, &cerr) {
		return http.StatusInternalServerError
	}
	switch cerr.Category() {
	case QueryError:
		switch cerr.Reason() {
		case BadRequest, InvalidAttribute:
			return http.StatusBadRequest
		case NotFound:
			return http.StatusNotFound
		case TransportFailed, ServerError:
			return http.StatusBadGateway
		}
	case DecodeError, CertificateError:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
