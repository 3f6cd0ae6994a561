//go:build windows

package main

import (
	"errors"
	"testing"
)

func TestServiceHostIsRejected(t *testing.T) {
	if err := checkInteractive(true); !errors.Is(err, errServiceSession) {
		t.Fatalf("checkInteractive(service) = %v, want errServiceSession", err)
	}
	if err := checkInteractive(false); err != nil {
		t.Fatalf("checkInteractive(interactive) = %v", err)
	}
}
