package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestFieldErrors(t *testing.T) {
	fe := FieldErrors{}
	if fe.Err() != nil {
		t.Fatalf("empty field errors should be nil")
	}
	fe.Add("phone", "must be 10 digits")
	fe.Add("phone", "second message ignored")
	fe.Add("name", "required")
	err := fe.Err()
	if !Is(err, KindValidation) {
		t.Fatalf("expected validation kind, got %v", KindOf(err))
	}
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error")
	}
	if e.Fields["phone"] != "must be 10 digits" || e.Fields["name"] != "required" {
		t.Fatalf("unexpected fields: %+v", e.Fields)
	}
	if e.Message != "invalid fields: name, phone" {
		t.Fatalf("message = %q", e.Message)
	}
}

func TestKindOfWrapped(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("submit: %w", Wrap(KindPersistence, "could not save order", cause))
	if KindOf(err) != KindPersistence {
		t.Fatalf("KindOf = %v", KindOf(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("persistence errors are retryable")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should unwrap")
	}
	if PublicMessage(err) != "could not save order" {
		t.Fatalf("public message leaked cause: %q", PublicMessage(err))
	}
	if KindOf(cause) != KindInternal || PublicMessage(cause) != "internal error" {
		t.Fatalf("foreign errors must be internal")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindAuthRequired, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindThrottled, http.StatusTooManyRequests},
		{KindPersistence, http.StatusServiceUnavailable},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(New(tt.kind, "x")); got != tt.want {
			t.Errorf("HTTPStatus(%s) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestToPayload(t *testing.T) {
	p := ToPayload(Wrap(KindPersistence, "could not save", errors.New("sqlite: disk I/O error")))
	if p.Error != "could not save" || p.Kind != KindPersistence || !p.Retryable {
		t.Fatalf("unexpected payload: %+v", p)
	}
	raw := ToPayload(errors.New("secret backend detail"))
	if raw.Error != "internal error" || raw.Kind != KindInternal {
		t.Fatalf("foreign errors must be masked: %+v", raw)
	}
	v := ToPayload(Validation("phone", "phone must be 10 digits"))
	if v.Fields["phone"] == "" {
		t.Fatalf("fields missing: %+v", v)
	}
}
