// Package processor assembles the reconciliation kernel's pieces —
// Engine, FiberGate, pod step contexts, and the Roll Coordinator — into
// the single entry point a controller calls with a freshly observed
// domain declaration: DomainProcessor.Submit. Grounded on
// DomainProcessorDelegate's runSteps/createFiberGate contract, adapted
// to this repository's own Reconciler wiring style (one processor per
// controller manager, one FiberGate key per domain UID).
package processor

import (
	"context"
	"errors"
	"sort"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"

	"github.com/oracle/weblogic-kubernetes-operator/internal/domain"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kernel"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kerrors"
	"github.com/oracle/weblogic-kubernetes-operator/internal/klog"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kmetrics"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kubeclient"
	"github.com/oracle/weblogic-kubernetes-operator/internal/podstep"
	"github.com/oracle/weblogic-kubernetes-operator/internal/podwatch"
	"github.com/oracle/weblogic-kubernetes-operator/internal/roll"
)

// DomainProcessor is the facade a controller drives: one Submit call
// per observed generation of a Domain, cancelling whatever
// reconciliation for that domain was already in flight.
type DomainProcessor struct {
	engine  *kernel.Engine
	gate    *kernel.FiberGate
	roller  *roll.Coordinator
	client  kubeclient.Client
	awaiter *podwatch.Awaiter
	builder domain.PodModelBuilder
	tuning  domain.TuningParameters
	logger  logr.Logger
	retry   *kerrors.RetryLimiter
}

// New builds a DomainProcessor with its own Engine, sized per
// tuning-independent defaults; call Start before the first Submit and
// Shutdown when the controller manager stops.
func New(client kubeclient.Client, builder domain.PodModelBuilder, tuning domain.TuningParameters, logger logr.Logger) *DomainProcessor {
	engine := kernel.NewEngine(kernel.EngineOptions{Logger: logger})
	return &DomainProcessor{
		engine:  engine,
		gate:    kernel.NewFiberGate(engine),
		roller:  roll.NewCoordinator(engine, client, logger),
		client:  client,
		awaiter: podwatch.New(client, engine, tuning, logger),
		builder: builder,
		tuning:  tuning,
		logger:  logger,
		retry:   kerrors.NewRetryLimiter(tuning),
	}
}

// Start begins the Pod Awaiter's periodic resync.
func (dp *DomainProcessor) Start() error {
	return dp.awaiter.Start()
}

// Shutdown stops the resync and drains the Engine's worker pool.
func (dp *DomainProcessor) Shutdown(ctx context.Context) error {
	dp.awaiter.Stop()
	return dp.engine.Shutdown(ctx)
}

// NotifyPod feeds a pod add/update watch event into the Pod Awaiter.
// The controller's watch handler calls this directly; the kernel
// itself never establishes a watch.
func (dp *DomainProcessor) NotifyPod(pod *corev1.Pod) {
	dp.awaiter.NotifyPod(pod)
}

// NotifyPodDeleted feeds a pod delete watch event into the Pod Awaiter.
func (dp *DomainProcessor) NotifyPodDeleted(namespace, name string) {
	dp.awaiter.NotifyDeleted(namespace, name)
}

// Submit starts (preempting any current run for the same domain UID)
// a fiber that verifies every server's pod against snapshot and drains
// the resulting roll requests. onDone, if non-nil, is called exactly
// once with the terminal outcome.
func (dp *DomainProcessor) Submit(ctx context.Context, snapshot *domain.Snapshot, onDone func(error)) *kernel.Fiber {
	if _, preempting := dp.gate.CurrentFibers()[snapshot.DomainUID]; preempting {
		kmetrics.RecordFiberCancellation(snapshot.DomainUID)
		klog.Audit(dp.logger, "fiber-preempted", map[string]string{"domainUID": snapshot.DomainUID})
	}
	fiber := dp.gate.Start(ctx, snapshot.DomainUID, dp.buildChain(snapshot), dp.newPacket(), dp.callback(snapshot.DomainUID, onDone))
	kmetrics.SetActiveFibers(snapshot.DomainUID, len(dp.gate.CurrentFibers()))
	return fiber
}

// SubmitIfIdle starts the same fiber as Submit, but only if no fiber
// is currently running for this domain UID; used by a periodic resync
// reconcile that should not preempt an in-flight, freshly-triggered
// run.
func (dp *DomainProcessor) SubmitIfIdle(ctx context.Context, snapshot *domain.Snapshot, onDone func(error)) *kernel.Fiber {
	fiber := dp.gate.StartIfNoCurrent(ctx, snapshot.DomainUID, dp.buildChain(snapshot), dp.newPacket(), dp.callback(snapshot.DomainUID, onDone))
	if fiber != nil {
		kmetrics.SetActiveFibers(snapshot.DomainUID, len(dp.gate.CurrentFibers()))
	}
	return fiber
}

// ActiveFibers exposes the FiberGate's current key -> fiber table for
// observability (metrics, status reporting).
func (dp *DomainProcessor) ActiveFibers() map[string]*kernel.Fiber {
	return dp.gate.CurrentFibers()
}

func (dp *DomainProcessor) callback(domainUID string, onDone func(error)) kernel.CompletionCallback {
	return kernel.CompletionCallback{
		OnCompletion: func(*kernel.Packet) {
			kmetrics.SetActiveFibers(domainUID, len(dp.gate.CurrentFibers()))
			if onDone != nil {
				onDone(nil)
			}
		},
		OnThrowable: func(_ *kernel.Packet, cause error) {
			kmetrics.RecordStepThrow(domainUID, classifyThrow(cause))
			kmetrics.SetActiveFibers(domainUID, len(dp.gate.CurrentFibers()))
			if onDone != nil {
				onDone(cause)
			}
		},
	}
}

// classifyThrow buckets a step failure into the coarse classification
// kmetrics.RecordStepThrow tags its counter with.
func classifyThrow(cause error) string {
	switch {
	case errors.Is(cause, kerrors.ErrWatchTimeout):
		return "watch-timeout"
	case kerrors.IsPermanent(cause):
		return "permanent"
	case kerrors.IsTransient(cause):
		return "transient"
	default:
		return "unknown"
	}
}

func (dp *DomainProcessor) newPacket() *kernel.Packet {
	p := kernel.NewPacket()
	kernel.PutComponent[kubeclient.Client](p, dp.client)
	kernel.PutComponent[podwatch.PodAwaiter](p, dp.awaiter)
	kernel.PutComponent[*kerrors.RetryLimiter](p, dp.retry)
	return p
}

// buildChain links one VerifyPod step per server, administration
// server first, into a single Step ending in a finalize step that
// drains the roll requests those steps accumulated. It is built
// back-to-front so each step's continuation is a concrete Step rather
// than a nil left for kernel.Chain to resolve: a step that suspends
// (awaiting pod readiness or deletion) resumes directly into whatever
// Step it captured at suspend time, bypassing any wrapping Chain
// entirely, so that captured continuation must already be the real
// next step.
func (dp *DomainProcessor) buildChain(snapshot *domain.Snapshot) kernel.Step {
	next := dp.finalizeStep(snapshot)

	for i := len(snapshot.Clusters) - 1; i >= 0; i-- {
		cluster := snapshot.Clusters[i]
		names := cluster.ServerNames()
		sort.Strings(names)
		for j := len(names) - 1; j >= 0; j-- {
			ctx := dp.serverContext(snapshot, domain.NewManagedIdentity(snapshot.DomainUID, cluster.Name, names[j]))
			next = podstep.VerifyPod(ctx, next)
		}
	}

	adminCtx := dp.serverContext(snapshot, domain.NewAdminIdentity(snapshot.DomainUID, domain.AdminServerName))
	return podstep.VerifyPod(adminCtx, next)
}

func (dp *DomainProcessor) serverContext(snapshot *domain.Snapshot, id domain.Identity) *podstep.Context {
	return &podstep.Context{
		Builder:   dp.builder,
		Tuning:    dp.tuning,
		Logger:    dp.logger,
		Identity:  id,
		Namespace: snapshot.Namespace,
		Snapshot:  snapshot,
	}
}

func (dp *DomainProcessor) finalizeStep(snapshot *domain.Snapshot) kernel.Step {
	return func(ctx context.Context, p *kernel.Packet) kernel.NextAction {
		if err := dp.roller.Drain(ctx, p, snapshot.Namespace, snapshot.DomainUID, snapshot.Clusters); err != nil {
			return kernel.Throw(kerrors.WrapTransientKubernetesAPI(err))
		}
		return kernel.Terminate()
	}
}
