package domain

import "time"

// TuningParameters are the timeouts and retry knobs the kernel
// consults while reconciling a domain. They are loaded once at
// startup (see internal/kconfig) and passed down rather than read
// from a global, so a test can exercise the kernel with its own
// values without mutating process-wide state.
type TuningParameters struct {
	// RetryBackoffBase is the initial delay before retrying a step
	// that threw a transient error.
	RetryBackoffBase time.Duration
	// RetryBackoffCap bounds how large RetryBackoffBase may grow
	// after repeated failures.
	RetryBackoffCap time.Duration
	// RetryMaxAttempts is how many times a step will be retried
	// before its failure is reported as terminal.
	RetryMaxAttempts int

	// PodReadyTimeout bounds how long the kernel waits for a newly
	// created or patched pod to become ready before treating the wait
	// as failed.
	PodReadyTimeout time.Duration
	// PodDeleteTimeout bounds how long the kernel waits for a deleted
	// pod to actually disappear from the watch stream.
	PodDeleteTimeout time.Duration
	// PerServerRollTimeout bounds one server's full delete/await/
	// recreate/await-ready cycle during a roll.
	PerServerRollTimeout time.Duration

	// AdditionalDeleteGraceSeconds is added on top of a server's own
	// ShutdownTimeoutSeconds when the roll coordinator computes a
	// pod delete's grace period, giving WebLogic's own shutdown hooks
	// a margin before the kubelet's SIGKILL.
	AdditionalDeleteGraceSeconds int64

	// ResyncInterval is the cadence (accepted as either a duration
	// string like "30s" or an "@every 30s" expression) the kernel uses
	// to re-check pod watch state.
	ResyncInterval string
}

// DefaultTuningParameters returns the parameter set used when no
// configuration file overrides them.
func DefaultTuningParameters() TuningParameters {
	return TuningParameters{
		RetryBackoffBase:             time.Second,
		RetryBackoffCap:              time.Minute,
		RetryMaxAttempts:             5,
		PodReadyTimeout:              5 * time.Minute,
		PodDeleteTimeout:             2 * time.Minute,
		PerServerRollTimeout:         10 * time.Minute,
		AdditionalDeleteGraceSeconds: 10,
		ResyncInterval:               "30s",
	}
}
