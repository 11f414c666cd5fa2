package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/timada-org/taskflow/internal/store"
	"github.com/timada-org/taskflow/pkg/todo"
)

type Kind int

const (
	InternalError Kind = iota
	InvalidInput
	MalformedRequest
	BackendUnavailable
	BackendError
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case MalformedRequest:
		return "MalformedRequest"
	case BackendUnavailable:
		return "BackendUnavailable"
	case BackendError:
		return "BackendError"
	default:
		return "InternalError"
	}
}

func (k Kind) Status() int {
	switch k {
	case InvalidInput, MalformedRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Error is what a handler fails with. Message and Details end up in the
// response body, Err only in the logs.
type Error struct {
	Kind    Kind
	Message string
	Details string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

const (
	msgInvalidJSON      = "Invalid JSON in request body"
	msgRequiredFields   = "Title and owner_email are required fields"
	msgRequiredParam    = "owner_email query parameter is required"
	msgInvalidEmail     = "Invalid email format"
	msgBlankTitle       = "Title must not be blank"
	msgNotConfigured    = "Database connection not configured"
	msgCreateFailed     = "Failed to create todo"
	msgNoData           = "No data returned from database"
	msgFetchFailed      = "Failed to fetch todos"
	msgInternal         = "Internal server error"
	msgNotFound         = "Not found"
	msgMethodNotAllowed = "Method not allowed"
	msgCreated          = "Todo created successfully"
	msgRetrieved        = "Todos retrieved successfully"
)

func malformed(err error) *Error {
	return &Error{Kind: MalformedRequest, Message: msgInvalidJSON, Err: err}
}

// invalid maps a validation failure to its client message. required is the
// message used for missing fields, which differs between body and query.
func invalid(err error, required string) *Error {
	message := msgInvalidEmail

	var verr *todo.ValidationError
	if errors.As(err, &verr) {
		switch verr.Reason {
		case todo.ReasonRequired:
			message = required
		case todo.ReasonBlank:
			message = msgBlankTitle
		}
	}

	return &Error{Kind: InvalidInput, Message: message, Err: err}
}

func unavailable() *Error {
	return &Error{Kind: BackendUnavailable, Message: msgNotConfigured, Err: store.ErrNotConfigured}
}

func backendError(message string, err error) *Error {
	return &Error{Kind: BackendError, Message: message, Details: store.Details(err), Err: err}
}

func asError(err error) *Error {
	var aerr *Error
	if errors.As(err, &aerr) {
		return aerr
	}

	return &Error{Kind: InternalError, Message: msgInternal, Err: err}
}
