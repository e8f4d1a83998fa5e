package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind classifies a failure at the boundary where a collaborator was invoked.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindGeoUnavailable Kind = "geo_unavailable"
	KindPersistence    Kind = "persistence"
	KindNotification   Kind = "notification"
	KindAuthRequired   Kind = "auth_required"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindThrottled      Kind = "throttled"
	KindInternal       Kind = "internal"
)

// Error is the structured application error surfaced to callers.
// Err keeps the underlying cause for logs; it is never shown to users.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Err     error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same request may succeed if repeated.
func (e *Error) Retryable() bool {
	return e.Kind == KindPersistence || e.Kind == KindGeoUnavailable
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an error of the given kind around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// FieldErrors accumulates per-field validation messages.
type FieldErrors map[string]string

// Add records msg for field, keeping the first message per field.
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// Err returns a validation error carrying the fields, or nil when empty.
func (f FieldErrors) Err() error {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf("invalid fields: %s", strings.Join(keys, ", ")),
		Fields:  map[string]string(f),
	}
}

// Validation creates a single-field validation error.
func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg, Fields: map[string]string{field: msg}}
}

// KindOf extracts the kind of err, KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Is reports whether err is an application error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsRetryable reports whether err is retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	return false
}

// HTTPStatus maps err to the status code used by the HTTP layer.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthRequired:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindThrottled:
		return http.StatusTooManyRequests
	case KindGeoUnavailable:
		return http.StatusBadGateway
	case KindPersistence:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text safe to show to users.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "internal error"
}

// Payload is the JSON body returned to clients for a failed request.
type Payload struct {
	Error     string            `json:"error"`
	Kind      Kind              `json:"kind"`
	Fields    map[string]string `json:"fields,omitempty"`
	Retryable bool              `json:"retryable,omitempty"`
}

// ToPayload builds the client-facing body for err. Causes are never included.
func ToPayload(err error) Payload {
	p := Payload{Error: PublicMessage(err), Kind: KindOf(err), Retryable: IsRetryable(err)}
	var e *Error
	if errors.As(err, &e) {
		p.Fields = e.Fields
	}
	return p
}
