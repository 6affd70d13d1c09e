package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"hlsenc/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrStageFailed, "segment-to-hls", "run ffmpeg", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrStageFailed) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"segment-to-hls", "run ffmpeg", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrInputMissing, "", "", "", nil)
	if !errors.Is(err, services.ErrInputMissing) {
		t.Fatalf("expected marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{services.Wrap(services.ErrInputMissing, "encode", "stat", "missing", nil), "input_missing"},
		{services.Wrap(services.ErrProbeUnavailable, "probe", "run", "", errors.New("x")), "probe_unavailable"},
		{services.Wrap(services.ErrStageFailed, "transcode-to-h264", "", "", nil), "stage_failed"},
		{services.Wrap(services.ErrValidation, "encode", "", "bad name", nil), "invalid_request"},
		{context.Canceled, "failed"},
	}
	for _, tc := range cases {
		if got := services.FailureKind(tc.err); got != tc.want {
			t.Fatalf("FailureKind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
