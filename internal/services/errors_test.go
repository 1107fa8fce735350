package services_test

import (
	"errors"
	"testing"

	"github.com/hiinaspace/animutools/internal/services"
)

func TestWrapTagsWithMarker(t *testing.T) {
	cause := errors.New("exit status 1")
	err := services.Wrap(services.ErrExternalTool, "encode", "ffmpeg", "encode failed", cause)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "nyaa", "fetch", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected ErrTransient default, got %v", err)
	}
}

func TestWrapBuildsReadableDetail(t *testing.T) {
	err := services.Wrap(services.ErrConfiguration, "config", "load", "lock file path empty", nil)
	want := "configuration error: config: load: lock file path empty"
	if err.Error() != want {
		t.Fatalf("unexpected message: got %q want %q", err.Error(), want)
	}
}
