package restconf

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClientError_Classification(t *testing.T) {
	notFound := NewNotFoundError("missing")
	remote := NewRemoteError("rejected", nil)
	validation := NewValidationError("bad input")
	partial := NewPartialApplyError("sync failed", nil)

	if !IsNotFound(notFound) || IsNotFound(remote) {
		t.Error("IsNotFound misclassified")
	}
	if !IsRemote(remote) || IsRemote(validation) {
		t.Error("IsRemote misclassified")
	}
	if !IsValidation(validation) || IsValidation(partial) {
		t.Error("IsValidation misclassified")
	}
	if !IsPartialApply(partial) || IsPartialApply(notFound) {
		t.Error("IsPartialApply misclassified")
	}
	if IsNotFound(errors.New("plain")) {
		t.Error("Expected plain error to not classify")
	}
	if IsNotFound(nil) {
		t.Error("Expected nil to not classify")
	}
}

func TestClientError_ClassificationThroughWrapping(t *testing.T) {
	inner := NewNotFoundError("missing").WithIntent("10.0.0.1", "iplink")
	wrapped := fmt.Errorf("reading state: %w", inner)

	if !IsNotFound(wrapped) {
		t.Error("Expected classification to survive wrapping")
	}
}

func TestClientError_IntentIdentity(t *testing.T) {
	err := NewRemoteError("rejected", errors.New("boom")).WithIntent("10.0.0.1", "iplink")
	msg := err.Error()

	if !strings.Contains(msg, "intent=iplink/10.0.0.1") {
		t.Errorf("Expected intent identity in message, got %q", msg)
	}
	if !strings.Contains(msg, "[remote]") {
		t.Errorf("Expected class in message, got %q", msg)
	}
	if !strings.Contains(msg, "boom") {
		t.Errorf("Expected wrapped error in message, got %q", msg)
	}
}

func TestClientError_IntentTypeIdentity(t *testing.T) {
	err := NewValidationError("still in use").WithIntentType("iplink", 3)
	msg := err.Error()

	if !strings.Contains(msg, "intent-type=iplink_v3") {
		t.Errorf("Expected intent-type identity in message, got %q", msg)
	}
}

func TestClientError_Unwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := NewRemoteError("request failed", inner)

	if !errors.Is(err, inner) {
		t.Error("Expected errors.Is to reach the wrapped error")
	}
}
