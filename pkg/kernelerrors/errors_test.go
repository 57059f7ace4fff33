package kernelerrors

import (
	"errors"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	e := New(BadRoleID, "payload.id", "must be lowercase alphanumeric plus underscore")
	if e.Error() == "" {
		t.Fatalf("expected non-empty message")
	}
	if e.HTTPStatus() != 400 {
		t.Fatalf("expected 400, got %d", e.HTTPStatus())
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("boom")
	e := Wrap(IOError, "", "persistence timed out", cause)
	if !errors.Is(e, cause) {
		t.Fatalf("expected Unwrap to expose cause")
	}
}

func TestFatal(t *testing.T) {
	if !New(DeterminismError, "", "replay mismatch").Fatal() {
		t.Fatalf("expected DeterminismError to be fatal")
	}
	if New(BadSchema, "", "bad").Fatal() {
		t.Fatalf("expected BadSchema to be non-fatal")
	}
}
