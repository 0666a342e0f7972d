package model

import (
	"errors"
	"testing"
)

// TestParseTarget tests target string parsing.
func TestParseTarget(t *testing.T) {
	t.Parallel()

	t.Run("host without port uses default", func(t *testing.T) {
		t.Parallel()

		ep, err := ParseTarget("gopher.example.org", 70)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ep.Host != "gopher.example.org" {
			t.Errorf("expected host gopher.example.org, got %q", ep.Host)
		}
		if ep.Port != 70 {
			t.Errorf("expected port 70, got %d", ep.Port)
		}
	})

	t.Run("host with explicit port", func(t *testing.T) {
		t.Parallel()

		ep, err := ParseTarget("gopher.example.org:7070", 70)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ep.Port != 7070 {
			t.Errorf("expected port 7070, got %d", ep.Port)
		}
	})

	t.Run("rejects out of range port", func(t *testing.T) {
		t.Parallel()

		if _, err := ParseTarget("example.org:70000", 70); !errors.Is(err, ErrInvalidPort) {
			t.Errorf("expected ErrInvalidPort, got %v", err)
		}
	})

	t.Run("rejects non-numeric port", func(t *testing.T) {
		t.Parallel()

		if _, err := ParseTarget("example.org:gopher", 70); !errors.Is(err, ErrInvalidPort) {
			t.Errorf("expected ErrInvalidPort, got %v", err)
		}
	})

	t.Run("rejects empty target", func(t *testing.T) {
		t.Parallel()

		if _, err := ParseTarget("  ", 70); !errors.Is(err, ErrEmptyHost) {
			t.Errorf("expected ErrEmptyHost, got %v", err)
		}
	})
}

// TestEndpointKeys tests canonical key derivation.
func TestEndpointKeys(t *testing.T) {
	t.Parallel()

	ep := Endpoint{Host: "gopher.example.org", Port: 70}

	if got := ep.Key(); got != "gopher.example.org:70" {
		t.Errorf("unexpected key: %q", got)
	}
	if got := ep.PathKey("/pub/readme.txt"); got != "gopher.example.org:70/pub/readme.txt" {
		t.Errorf("unexpected path key: %q", got)
	}
	if got := ep.PathKey(""); got != "gopher.example.org:70" {
		t.Errorf("root selector path key should equal server key, got %q", got)
	}
	if got := ep.Addr(); got != "gopher.example.org:70" {
		t.Errorf("unexpected dial address: %q", got)
	}
}
