package kerrors

import (
	"time"

	"k8s.io/client-go/util/workqueue"

	"github.com/oracle/weblogic-kubernetes-operator/internal/domain"
)

// RetryLimiter hands out the delay a step's Delay-based retry should
// use for its next attempt, and how many attempts have been made for
// a given retry key so a step can give up after
// TuningParameters.RetryMaxAttempts.
type RetryLimiter struct {
	limiter workqueue.TypedRateLimiter[string]
	tuning  domain.TuningParameters
}

// NewRetryLimiter builds a RetryLimiter backed by the same
// exponential-failure rate limiter shape used to back off a
// controller-runtime workqueue, parameterized from tuning instead of
// the package-level defaults a controller would use.
func NewRetryLimiter(tuning domain.TuningParameters) *RetryLimiter {
	return &RetryLimiter{
		limiter: workqueue.NewTypedItemExponentialFailureRateLimiter[string](tuning.RetryBackoffBase, tuning.RetryBackoffCap),
		tuning:  tuning,
	}
}

// NextDelay returns how long to wait before retrying the operation
// identified by key, and increments its failure count.
func (r *RetryLimiter) NextDelay(key string) time.Duration {
	return r.limiter.When(key)
}

// Attempts returns how many times key has failed so far.
func (r *RetryLimiter) Attempts(key string) int {
	return r.limiter.NumRequeues(key)
}

// Exhausted reports whether key has failed at least
// TuningParameters.RetryMaxAttempts times.
func (r *RetryLimiter) Exhausted(key string) bool {
	return r.limiter.NumRequeues(key) >= r.tuning.RetryMaxAttempts
}

// Forget clears key's failure history, called once the operation it
// identifies finally succeeds.
func (r *RetryLimiter) Forget(key string) {
	r.limiter.Forget(key)
}
