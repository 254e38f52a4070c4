// Package kerrors classifies the errors a step can throw so the
// kernel can decide, without the step itself knowing about retry
// policy, whether a failure is worth retrying and how long to wait.
package kerrors

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Transient errors indicate a temporary condition; a step that throws
// one should be retried with backoff.

// ErrTransientConnection covers network-level failures: timeouts,
// connection refused, DNS resolution failures.
var ErrTransientConnection = errors.New("kerrors: transient connection error")

// ErrTransientKubernetesAPI covers rate limiting and temporary API
// server errors.
var ErrTransientKubernetesAPI = errors.New("kerrors: transient Kubernetes API error")

// ErrWatchTimeout is thrown when a step suspended waiting for a pod
// watch event (ready, deleted) and its fallback Delay fired before the
// event arrived.
var ErrWatchTimeout = errors.New("kerrors: timed out waiting for pod watch event")

// Permanent errors require user intervention; a step that throws one
// should not be retried automatically.

// ErrPermanentConfig covers invalid or incompatible declared
// configuration.
var ErrPermanentConfig = errors.New("kerrors: permanent configuration error")

// ErrValidation covers a domain declaration that fails structural
// validation before any pod work begins (e.g. a cluster referencing a
// server name that collides with the admin server's).
var ErrValidation = errors.New("kerrors: validation error")

// IsTransientConnection reports whether err looks like a transient
// network failure, either because it wraps ErrTransientConnection or
// because its text or type matches a known transient pattern.
func IsTransientConnection(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransientConnection) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	patterns := []string{
		"connection refused",
		"connection reset",
		"connection timeout",
		"context deadline exceeded",
		"timeout",
		"i/o timeout",
		"no such host",
		"network is unreachable",
		"temporary failure",
		"dial tcp",
		"connection closed",
		"broken pipe",
	}
	for _, p := range patterns {
		if strings.Contains(errStr, p) {
			return true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return true
		}
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// IsTransientKubernetesAPI reports whether err looks like a transient
// API server failure.
func IsTransientKubernetesAPI(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTransientKubernetesAPI) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	patterns := []string{
		"rate limit",
		"too many requests",
		"server error",
		"service unavailable",
		"internal server error",
		"context deadline exceeded",
		"timeout",
		"conflict",
	}
	for _, p := range patterns {
		if strings.Contains(errStr, p) {
			return true
		}
	}
	return false
}

// WrapTransientConnection tags err as a transient connection error,
// leaving it unchanged if it already is one.
func WrapTransientConnection(err error) error {
	if err == nil {
		return nil
	}
	if IsTransientConnection(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransientConnection, err)
}

// WrapTransientKubernetesAPI tags err as a transient API error,
// leaving it unchanged if it already is one.
func WrapTransientKubernetesAPI(err error) error {
	if err == nil {
		return nil
	}
	if IsTransientKubernetesAPI(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrTransientKubernetesAPI, err)
}

// WrapPermanentConfig tags err as a permanent configuration error.
func WrapPermanentConfig(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPermanentConfig, err)
}

// WrapValidation tags err as a validation error.
func WrapValidation(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// IsTransient reports whether err should trigger a retry: a transient
// connection error, a transient API error, or a watch timeout.
func IsTransient(err error) bool {
	return IsTransientConnection(err) || IsTransientKubernetesAPI(err) || errors.Is(err, ErrWatchTimeout)
}

// IsPermanent reports whether err requires user intervention and
// should not be retried automatically.
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrPermanentConfig) || errors.Is(err, ErrValidation)
}

// ShouldRequeue reports whether a thrown error should cause the
// kernel to schedule a retry, and after how long.
func ShouldRequeue(err error) (bool, time.Duration) {
	if err == nil {
		return false, 0
	}
	if errors.Is(err, ErrWatchTimeout) {
		return true, 0
	}
	if IsTransientConnection(err) || IsTransientKubernetesAPI(err) {
		return true, 5 * time.Second
	}
	if IsPermanent(err) {
		return false, 0
	}
	return true, 0
}

// IsNotFound reports whether err indicates the target resource no
// longer exists, the case a pod step context must reclassify as
// "proceed to create" rather than a genuine failure.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "not found")
}

// IsConflict reports whether err indicates an optimistic-concurrency
// conflict (a stale resourceVersion), the case a pod step context
// reclassifies as "reread and retry" rather than a genuine failure.
func IsConflict(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "conflict")
}

// IsAlreadyExists reports whether err indicates the target resource
// was already created, the case a fire-and-forget job enqueue
// reclassifies as success rather than a genuine failure.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}
