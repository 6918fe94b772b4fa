package apperrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", Conflict("slot already booked"))
	kind, ok := KindOf(err)
	if !ok || kind != KindConflict {
		t.Fatalf("expected conflict kind through wrapping, got %v / %v", kind, ok)
	}
}

func TestIsHelper(t *testing.T) {
	if !Is(NotFound("reservation"), KindNotFound) {
		t.Fatal("expected not-found kind")
	}
	if Is(errors.New("plain"), KindNotFound) {
		t.Fatal("plain errors must not match any kind")
	}
}

func TestTransactionHidesCause(t *testing.T) {
	cause := errors.New("pq: deadlock detected on relation clients")
	err := Transaction(cause)
	if !errors.Is(err, cause) {
		t.Fatal("cause should stay reachable for logging")
	}
	if err.UserMessage() == err.Error() {
		t.Fatal("user message must not include the wrapped cause")
	}
	if got := err.UserMessage(); got != "the operation could not be completed, please retry" {
		t.Fatalf("unexpected user message %q", got)
	}
}

func TestValidationFormats(t *testing.T) {
	err := Validation("field %s is required", "providerId")
	if err.Message != "field providerId is required" {
		t.Fatalf("unexpected message %q", err.Message)
	}
	if err.UserMessage() != err.Message {
		t.Fatal("validation messages are user-visible as-is")
	}
}
