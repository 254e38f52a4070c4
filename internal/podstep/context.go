// Package podstep implements the per-server pod lifecycle decision
// procedure: given a server's declared configuration and its live pod
// (if any), decide whether to create a pod, patch an existing one in
// place, or replace it via a roll, and carry out whichever decision
// is made.
package podstep

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/oracle/weblogic-kubernetes-operator/internal/domain"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kernel"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kerrors"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kubeclient"
	"github.com/oracle/weblogic-kubernetes-operator/internal/podwatch"
)

// Context is the fresh-per-invocation state a pod step context needs:
// which server it is deciding for, the snapshot it was seeded with,
// and the Builder that translates declared configuration into a pod
// template. It is never stored on a Packet; each call into VerifyPod
// or DeletePod constructs one and closes over it. The Kubernetes
// client and the Pod Awaiter are deliberately not fields here: they are
// injected collaborators looked up from the running Packet's service
// locator (client/awaiterFrom below), the same seam
// FiberGate-preempted fibers and tests both go through.
type Context struct {
	Builder domain.PodModelBuilder
	Tuning  domain.TuningParameters
	Logger  logr.Logger

	Identity  domain.Identity
	Namespace string
	Snapshot  *domain.Snapshot

	// IntrospectorBuilder builds the Job a topology diff on the admin
	// server enqueues. Left nil, it defaults to
	// domain.DefaultIntrospectorJobBuilder{}; it is a field, not a
	// constructor parameter, so existing callers that never heard of
	// re-introspection keep working unchanged.
	IntrospectorBuilder domain.IntrospectorJobBuilder
}

// clientFrom retrieves the Kubernetes client collaborator registered
// on p, failing loudly rather than with a nil-pointer panic if the
// fiber was started without one.
func clientFrom(p *kernel.Packet) (kubeclient.Client, error) {
	c, ok := kernel.Component[kubeclient.Client](p)
	if !ok {
		return nil, fmt.Errorf("podstep: no kubeclient.Client registered on packet")
	}
	return c, nil
}

// awaiterFrom retrieves the Pod Awaiter collaborator registered on p.
func awaiterFrom(p *kernel.Packet) (podwatch.PodAwaiter, error) {
	a, ok := kernel.Component[podwatch.PodAwaiter](p)
	if !ok {
		return nil, fmt.Errorf("podstep: no podwatch.PodAwaiter registered on packet")
	}
	return a, nil
}

// retryFrom retrieves the shared RetryLimiter collaborator registered
// on p. Unlike the client and awaiter, its absence is not fatal: a
// fiber started without one (a unit test exercising a single step in
// isolation, say) simply gets immediate-throw behavior on a transient
// error instead of a backoff retry.
func retryFrom(p *kernel.Packet) (*kerrors.RetryLimiter, bool) {
	return kernel.Component[*kerrors.RetryLimiter](p)
}

// retryOrThrow answers a transient failure on key: while the limiter
// (if any) has attempts left, it re-enters step after an exponential
// backoff delay; once attempts are exhausted, or no limiter was
// injected, it throws cause. forgetting the key is the caller's
// responsibility once the guarded operation finally succeeds.
func retryOrThrow(p *kernel.Packet, key string, cause error, step kernel.Step) kernel.NextAction {
	limiter, ok := retryFrom(p)
	if !ok || limiter.Exhausted(key) {
		return kernel.Throw(cause)
	}
	return kernel.Delay(step, limiter.NextDelay(key))
}

// PodName is the Kubernetes object name for this context's server: the
// domain UID and server name joined by a hyphen, matching the naming
// the rest of the kernel (labels, log lines) assumes.
func (c *Context) PodName() string {
	return fmt.Sprintf("%s-%s", c.Identity.DomainUID, c.Identity.ServerName)
}

// buildModel asks the configured PodModelBuilder for this server's
// desired PodModel and stamps its content hash.
func (c *Context) buildModel() (domain.PodModel, error) {
	model, err := c.Builder.Build(c.Identity, c.Snapshot)
	if err != nil {
		return domain.PodModel{}, fmt.Errorf("podstep: building pod model for %s: %w", c.PodName(), err)
	}
	return model.WithHash()
}
