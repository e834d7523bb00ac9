package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
)

func TestIsTimeout_Nil(t *testing.T) {
	if IsTimeout(nil) {
		t.Error("nil error should not be a timeout")
	}
}

func TestIsTimeout_DeadlineExceeded(t *testing.T) {
	err := fmt.Errorf("geocode request: %w", context.DeadlineExceeded)
	if !IsTimeout(err) {
		t.Error("wrapped DeadlineExceeded should be a timeout")
	}
}

func TestIsTimeout_NetworkTimeout(t *testing.T) {
	err := &net.DNSError{IsTimeout: true, Err: "timeout"}
	if !IsTimeout(err) {
		t.Error("network timeout should be a timeout")
	}
}

func TestIsTimeout_StringPatterns(t *testing.T) {
	for _, msg := range []string{
		"read tcp 10.0.0.1:443: i/o timeout",
		"net/http: TLS handshake timeout",
		"Get \"https://x\": context deadline exceeded (Client.Timeout exceeded while awaiting headers)",
	} {
		if !IsTimeout(errors.New(msg)) {
			t.Errorf("expected %q to be a timeout", msg)
		}
	}
}

func TestIsTimeout_RegularError(t *testing.T) {
	if IsTimeout(errors.New("connection refused")) {
		t.Error("connection refused is not a timeout")
	}
	if IsTimeout(context.Canceled) {
		t.Error("cancellation is not a timeout")
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	tests := []struct {
		code     int
		expected bool
	}{
		{200, false},
		{400, false},
		{403, false},
		{429, true},
		{500, true},
		{502, true},
		{503, true},
		{504, true},
	}
	for _, tt := range tests {
		if got := IsTransientHTTPStatus(tt.code); got != tt.expected {
			t.Errorf("IsTransientHTTPStatus(%d) = %v, want %v", tt.code, got, tt.expected)
		}
	}
}
