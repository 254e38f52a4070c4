package kerrors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestIsTransientConnection(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "sentinel error", err: ErrTransientConnection, want: true},
		{name: "wrapped sentinel error", err: fmt.Errorf("context: %w", ErrTransientConnection), want: true},
		{name: "connection refused", err: errors.New("connection refused"), want: true},
		{name: "connection reset", err: errors.New("connection reset by peer"), want: true},
		{name: "no such host", err: errors.New("dial tcp: lookup foo: no such host"), want: true},
		{name: "unrelated error", err: errors.New("invalid cluster name"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransientConnection(tt.err); got != tt.want {
				t.Errorf("IsTransientConnection(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransientKubernetesAPI(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error", err: nil, want: false},
		{name: "sentinel error", err: ErrTransientKubernetesAPI, want: true},
		{name: "rate limited", err: errors.New("client rate limiter: too many requests"), want: true},
		{name: "service unavailable", err: errors.New("Service Unavailable"), want: true},
		{name: "unrelated error", err: errors.New("image pull backoff"), want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransientKubernetesAPI(tt.err); got != tt.want {
				t.Errorf("IsTransientKubernetesAPI(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestIsTransientIncludesWatchTimeout(t *testing.T) {
	wrapped := fmt.Errorf("verify pod: %w", ErrWatchTimeout)
	if !IsTransient(wrapped) {
		t.Fatalf("IsTransient(%v) = false, want true", wrapped)
	}
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "permanent config", err: ErrPermanentConfig, want: true},
		{name: "validation", err: fmt.Errorf("domain: %w", ErrValidation), want: true},
		{name: "transient", err: ErrTransientConnection, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermanent(tt.err); got != tt.want {
				t.Errorf("IsPermanent(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestWrapTransientKubernetesAPIIdempotent(t *testing.T) {
	original := WrapTransientKubernetesAPI(errors.New("server error"))
	wrapped := WrapTransientKubernetesAPI(original)
	if wrapped != original {
		t.Fatalf("WrapTransientKubernetesAPI should not double-wrap an already-transient error")
	}
}

func TestShouldRequeue(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantRetry bool
		wantDelay time.Duration
	}{
		{name: "nil", err: nil, wantRetry: false, wantDelay: 0},
		{name: "watch timeout retries immediately", err: ErrWatchTimeout, wantRetry: true, wantDelay: 0},
		{name: "transient connection backs off", err: ErrTransientConnection, wantRetry: true, wantDelay: 5 * time.Second},
		{name: "permanent never retries", err: ErrPermanentConfig, wantRetry: false, wantDelay: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotRetry, gotDelay := ShouldRequeue(tt.err)
			if gotRetry != tt.wantRetry || gotDelay != tt.wantDelay {
				t.Errorf("ShouldRequeue(%v) = (%v, %v), want (%v, %v)", tt.err, gotRetry, gotDelay, tt.wantRetry, tt.wantDelay)
			}
		})
	}
}

func TestIsNotFoundAndIsConflict(t *testing.T) {
	if !IsNotFound(errors.New(`pods "admin-server" not found`)) {
		t.Fatalf("expected IsNotFound to match a not-found message")
	}
	if IsNotFound(errors.New("conflict updating resourceVersion")) {
		t.Fatalf("IsNotFound should not match a conflict message")
	}
	if !IsConflict(errors.New("Operation cannot be fulfilled: the object has been modified; please apply your changes to the latest version and try again (conflict)")) {
		t.Fatalf("expected IsConflict to match a conflict message")
	}
}

func TestIsAlreadyExists(t *testing.T) {
	if !IsAlreadyExists(errors.New(`jobs.batch "domain1-introspector" already exists`)) {
		t.Fatalf("expected IsAlreadyExists to match an already-exists message")
	}
	if IsAlreadyExists(errors.New(`jobs.batch "domain1-introspector" not found`)) {
		t.Fatalf("IsAlreadyExists should not match a not-found message")
	}
	if IsAlreadyExists(nil) {
		t.Fatalf("IsAlreadyExists(nil) should be false")
	}
}
