package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	cause := errors.New("bad json")
	err := BadRequest("invalid body", cause)
	if err.Error() != "invalid body: bad json" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Fatal("AppError should unwrap to its cause")
	}
	if NotFound("missing").Error() != "missing" {
		t.Fatal("message without cause should be returned as is")
	}
}

func TestFrom(t *testing.T) {
	wrapped := fmt.Errorf("handler: %w", Unauthorized("nope"))
	if got := From(wrapped); got.Code != http.StatusUnauthorized {
		t.Fatalf("expected wrapped AppError to be found, got %d", got.Code)
	}
	if got := From(errors.New("boom")); got.Code != http.StatusInternalServerError || got.Message != "Internal Server Error" {
		t.Fatalf("plain errors should become internal: %#v", got)
	}
}
