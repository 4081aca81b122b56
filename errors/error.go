// Package errors provides the coded error type returned by the decoding,
// search and storage packages.
package errors

import (
	"encoding/json"
	"errors"
)

// Error is the error type usually returned by functions in this module.
// It contains a 4-digit error code where the most significant digit
// describes the category where the error occurred and the rest 3 digits
// describe the specific error reason.
type Error struct {
	ErrorCode int    `json:"code"`
	Message   string `json:"message"`
	cause     error
}

// Category is the error category as the most significant digit of the
// error code.
type Category int

// Reason is the error reason as the last 3 digits of the error code.
type Reason int

const (
	Success          Category = 1000 * iota // 0XXX
	DecodeError                             // 1XXX
	CertificateError                        // 2XXX
	AttestationError                        // 3XXX
	QueryError                              // 4XXX
	StoreError                              // 5XXX
	ConfigError                             // 6XXX
)

// Non-specified error
const (
	None Reason = iota
)

// Parsing errors
const (
	Unknown      Reason = iota // X000
	ReadFailed                 // X001
	DecodeFailed               // X002
	ParseFailed                // X003
)

// Query errors, must be specified along with QueryError. The collaborator's
// own code is kept in the message rather than reinterpreted.
const (
	BadRequest       Reason = 100 * (iota + 1) // 41XX
	NotFound                                   // 42XX
	ServerError                                // 43XX
	TransportFailed                            // 44XX
	InvalidAttribute                           // 45XX
)

// Store errors, must be specified along with StoreError.
const (
	InsertionFailed Reason = 100 * (iota + 1) // 51XX
	RecordNotFound                            // 52XX
	DuplicateEntry                            // 53XX
)

// The error interface implementation, which formats to a JSON object string.
func (e *Error) Error() string {
	marshaled, err := json.Marshal(e)
	if err != nil {
		panic(err)
	}
	return string(marshaled)
}

// Unwrap returns the error that caused e, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Category returns the category digit of the error code.
func (e *Error) Category() Category {
	return Category(e.ErrorCode / 1000 * 1000)
}

// Reason returns the reason digits of the error code.
func (e *Error) Reason() Reason {
	return Reason(e.ErrorCode % 1000)
}

// Is reports whether target is an *Error with the same code, so that
// errors.Is can match against a code-only template such as
// New(QueryError, NotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.ErrorCode == e.ErrorCode
}

// New returns an error that contains an error code and message derived from
// the given category, reason. Currently, to avoid confusion, it is not
// allowed to create an error of category Success
func New(category Category, reason Reason) *Error {
	errorCode := int(category) + int(reason)
	var msg string
	switch category {
	case DecodeError:
		switch reason {
		case DecodeFailed:
			msg = "Failed to decode entry body"
		case ParseFailed:
			msg = "Failed to parse entry body"
		default:
			msg = "Unknown entry decode error"
		}
	case CertificateError:
		switch reason {
		case DecodeFailed:
			msg = "Failed to decode certificate"
		case ParseFailed:
			msg = "Failed to parse certificate"
		case ReadFailed:
			msg = "Failed to read certificate"
		default:
			msg = "Unknown certificate error"
		}
	case AttestationError:
		msg = "Failed to decode attestation"
	case QueryError:
		switch reason {
		case BadRequest:
			msg = "Malformed search query"
		case NotFound:
			msg = "No matching entry found"
		case ServerError:
			msg = "Transparency log server error"
		case TransportFailed:
			msg = "Failed to reach transparency log"
		case InvalidAttribute:
			msg = "Unsupported search attribute"
		default:
			msg = "Unknown query error"
		}
	case StoreError:
		switch reason {
		case InsertionFailed:
			msg = "Failed to insert entry record"
		case RecordNotFound:
			msg = "Entry record not found"
		case DuplicateEntry:
			msg = "Entry record already exists"
		default:
			msg = "Unknown entry store error"
		}
	case ConfigError:
		msg = "Invalid configuration"
	default:
		panic(errors.New("unsupported error category"))
	}
	return &Error{ErrorCode: errorCode, Message: msg}
}

// Wrap returns an error that contains the given error and an error code
// derived from the given category, reason and the error. The wrapped error
// stays reachable through errors.Unwrap.
func Wrap(category Category, reason Reason, err error) *Error {
	if err == nil {
		return New(category, reason)
	}
	if category == Success {
		panic(errors.New("unsupported error category"))
	}
	return &Error{
		ErrorCode: int(category) + int(reason),
		Message:   err.Error(),
		cause:     err,
	}
}

// InCategory reports whether err carries an *Error of the given category
// anywhere in its chain.
func InCategory(err error, category Category) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Category() == category
}
