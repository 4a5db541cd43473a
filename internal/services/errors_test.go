package services_test

import (
	"errors"
	"strings"
	"testing"

	"callboard/internal/services"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrSubmission, "dispatcher", "create task", "provider rejected request", base)
	if !errors.Is(err, services.ErrSubmission) {
		t.Fatalf("expected submission marker, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped base error, got %v", err)
	}
	if !strings.Contains(err.Error(), "dispatcher: create task: provider rejected request") {
		t.Fatalf("unexpected detail: %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "poller", "", "", nil)
	if !errors.Is(err, services.ErrSubmission) {
		t.Fatalf("expected default marker, got %v", err)
	}
}

func TestIsValidation(t *testing.T) {
	if !services.IsValidation(services.Wrap(services.ErrValidation, "dispatcher", "load clip", "missing id", nil)) {
		t.Fatal("validation marker not detected")
	}
	if !services.IsValidation(services.Wrap(services.ErrNotFound, "dispatcher", "load clip", "unknown id", nil)) {
		t.Fatal("not-found marker not detected")
	}
	if services.IsValidation(services.Wrap(services.ErrSubmission, "dispatcher", "create task", "", nil)) {
		t.Fatal("submission marker misclassified as validation")
	}
}

func TestTransient(t *testing.T) {
	if !services.Transient(services.Wrap(services.ErrProviderPoll, "poller", "task status", "", errors.New("eof"))) {
		t.Fatal("poll marker not transient")
	}
	if !services.Transient(services.Wrap(services.ErrTimeout, "poller", "task status", "", nil)) {
		t.Fatal("timeout marker not transient")
	}
	if services.Transient(services.Wrap(services.ErrZombie, "recovery", "scan", "", nil)) {
		t.Fatal("zombie marker misclassified as transient")
	}
}
