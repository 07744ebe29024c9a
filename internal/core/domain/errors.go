package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ============================================================================
// Error Kinds
// ============================================================================

// ErrorKind classifies every error the execution engine reports to callers.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindModelNotFound
	KindModelNotPublished
	KindEndpointNotActive
	KindExecutionNotFound
	KindExecutionNotOwned
	KindExecutionNotCancellable
	KindRemote
)

func (k ErrorKind) String() string {
	switch k {
	case KindModelNotFound:
		return "ModelNotFound"
	case KindModelNotPublished:
		return "ModelNotPublished"
	case KindEndpointNotActive:
		return "EndpointNotActive"
	case KindExecutionNotFound:
		return "ExecutionNotFound"
	case KindExecutionNotOwned:
		return "ExecutionNotOwned"
	case KindExecutionNotCancellable:
		return "ExecutionNotCancellable"
	case KindRemote:
		return "Remote"
	default:
		return "Unknown"
	}
}

// Stable error codes. Callers match on these, never on messages.
const (
	CodeModelNotFound           = "MODEL_NOT_FOUND"
	CodeModelNotPublished       = "MODEL_NOT_PUBLISHED"
	CodeEndpointNotActive       = "ENDPOINT_NOT_ACTIVE"
	CodeExecutionNotFound       = "EXECUTION_NOT_FOUND"
	CodeExecutionNotOwned       = "EXECUTION_NOT_OWNED"
	CodeExecutionNotCancellable = "EXECUTION_NOT_CANCELLABLE"
	CodeRemoteExecution         = "REMOTE_EXECUTION_ERROR"
	CodeRateLimited             = "RATE_LIMITED"

	// Persisted on Execution.ErrorCode.
	CodeSubmissionFailed = "SUBMISSION_FAILED"
	CodeExecutionFailed  = "EXECUTION_FAILED"
)

// ============================================================================
// Error
// ============================================================================

// Error is the single error type raised by the engine. Kind drives matching,
// Code and Status are what the calling layer renders.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Status  int
	Details map[string]interface{}
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so the package-level values below
// work with errors.Is regardless of details.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of err, or KindUnknown for foreign errors.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ============================================================================
// Sentinels (for errors.Is)
// ============================================================================

var (
	ErrModelNotFound           = &Error{Kind: KindModelNotFound, Code: CodeModelNotFound, Status: http.StatusNotFound, Message: "model not found"}
	ErrModelNotPublished       = &Error{Kind: KindModelNotPublished, Code: CodeModelNotPublished, Status: http.StatusBadRequest, Message: "model is not published"}
	ErrEndpointNotActive       = &Error{Kind: KindEndpointNotActive, Code: CodeEndpointNotActive, Status: http.StatusBadRequest, Message: "model endpoint is not active"}
	ErrExecutionNotFound       = &Error{Kind: KindExecutionNotFound, Code: CodeExecutionNotFound, Status: http.StatusNotFound, Message: "execution not found"}
	ErrExecutionNotOwned       = &Error{Kind: KindExecutionNotOwned, Code: CodeExecutionNotOwned, Status: http.StatusForbidden, Message: "execution belongs to another consumer"}
	ErrExecutionNotCancellable = &Error{Kind: KindExecutionNotCancellable, Code: CodeExecutionNotCancellable, Status: http.StatusConflict, Message: "execution cannot be cancelled"}
	ErrRemote                  = &Error{Kind: KindRemote, Code: CodeRemoteExecution, Status: http.StatusBadGateway, Message: "remote execution service error"}
)

// ErrRecordNotFound is returned by store adapters when a row does not exist.
// The engine translates it into the matching domain error.
var ErrRecordNotFound = errors.New("record not found")

// ============================================================================
// Constructors
// ============================================================================

func NewModelNotFoundError(slug string) *Error {
	return &Error{
		Kind:    KindModelNotFound,
		Code:    CodeModelNotFound,
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("model %q not found", slug),
		Details: map[string]interface{}{"slug": slug},
	}
}

func NewModelNotPublishedError(slug string, status ModelStatus) *Error {
	return &Error{
		Kind:    KindModelNotPublished,
		Code:    CodeModelNotPublished,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("model %q is not published", slug),
		Details: map[string]interface{}{"slug": slug, "status": string(status)},
	}
}

func NewEndpointNotActiveError(slug string) *Error {
	return &Error{
		Kind:    KindEndpointNotActive,
		Code:    CodeEndpointNotActive,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("endpoint for model %q is not active", slug),
		Details: map[string]interface{}{"slug": slug},
	}
}

func NewExecutionNotFoundError(id fmt.Stringer) *Error {
	return &Error{
		Kind:    KindExecutionNotFound,
		Code:    CodeExecutionNotFound,
		Status:  http.StatusNotFound,
		Message: "execution not found",
		Details: map[string]interface{}{"execution_id": id.String()},
	}
}

func NewExecutionNotOwnedError(id fmt.Stringer) *Error {
	return &Error{
		Kind:    KindExecutionNotOwned,
		Code:    CodeExecutionNotOwned,
		Status:  http.StatusForbidden,
		Message: "execution belongs to another consumer",
		Details: map[string]interface{}{"execution_id": id.String()},
	}
}

func NewExecutionNotCancellableError(id fmt.Stringer, status ExecutionStatus) *Error {
	return &Error{
		Kind:    KindExecutionNotCancellable,
		Code:    CodeExecutionNotCancellable,
		Status:  http.StatusConflict,
		Message: fmt.Sprintf("execution in status %s cannot be cancelled", status),
		Details: map[string]interface{}{"execution_id": id.String(), "status": string(status)},
	}
}

// NewRemoteError describes a failed call to the remote execution service.
// statusCode is 0 when no response was received.
func NewRemoteError(statusCode int, body string, cause error) *Error {
	e := &Error{
		Kind:    KindRemote,
		Code:    CodeRemoteExecution,
		Status:  http.StatusBadGateway,
		Message: "remote execution service error",
		Details: map[string]interface{}{"status_code": statusCode},
		Err:     cause,
	}
	if statusCode == http.StatusTooManyRequests {
		e.Code = CodeRateLimited
		e.Status = http.StatusTooManyRequests
		e.Message = "remote execution service rate limit exceeded"
	} else if statusCode > 0 {
		e.Message = fmt.Sprintf("remote execution service returned status %d", statusCode)
	}
	if body != "" {
		e.Details["body"] = body
	}
	return e
}

// RemoteStatusCode returns the HTTP status carried by a remote error, or 0.
func RemoteStatusCode(err error) int {
	var e *Error
	if !errors.As(err, &e) || e.Kind != KindRemote {
		return 0
	}
	code, _ := e.Details["status_code"].(int)
	return code
}
