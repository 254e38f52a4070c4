package podstep

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"

	"github.com/oracle/weblogic-kubernetes-operator/internal/domain"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kernel"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kerrors"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kubeclient"
)

// replaceCurrentPod dispatches a pod whose hash no longer matches (or
// that has failed) to one of two paths, mirroring the asymmetry
// between a domain's single administration server and its clustered
// managed servers: the administration server has no roll budget to
// respect, so it is cycled immediately inline; a managed server is
// instead labelled and handed to the Roll Coordinator, which enforces
// each cluster's maxUnavailable across every member needing a cycle.
func (c *Context) replaceCurrentPod(ctx context.Context, p *kernel.Packet, client kubeclient.Client, pod *corev1.Pod, model domain.PodModel, next kernel.Step) kernel.NextAction {
	if c.Identity.IsAdminServer() && introspectionRequired(pod, model) {
		return kernel.Advance(c.enqueueReintrospection(client))
	}
	if c.Identity.IsAdminServer() {
		return kernel.Advance(c.cyclePod(pod, model, next))
	}
	return c.deferManagedRoll(ctx, p, client, pod, model, next)
}

// enqueueReintrospection submits the domain's introspector Job and
// terminates the fiber without advancing into whatever step follows
// a normal pod replacement: a topology diff invalidates every other
// server's desired state too, so there is nothing left in this fiber
// worth continuing until a fresh Domain edit, informed by the
// introspector's output, starts a new one. Job creation is idempotent:
// a prior fiber may have already enqueued the same Job before this one
// preempted it.
func (c *Context) enqueueReintrospection(client kubeclient.Client) kernel.Step {
	return func(ctx context.Context, p *kernel.Packet) kernel.NextAction {
		builder := c.IntrospectorBuilder
		if builder == nil {
			builder = domain.DefaultIntrospectorJobBuilder{}
		}
		job := builder.Build(c.Snapshot)
		if err := client.CreateJob(ctx, job); err != nil && !kerrors.IsAlreadyExists(err) {
			retryStep := c.enqueueReintrospection(client)
			return retryOrThrow(p, "introspect:"+job.Name, kerrors.WrapTransientKubernetesAPI(err), retryStep)
		}
		if limiter, ok := retryFrom(p); ok {
			limiter.Forget("introspect:" + job.Name)
		}
		return kernel.Terminate()
	}
}

// deferManagedRoll labels pod as pending a roll, records a
// RollRequest against the Packet's accumulator, and advances into next
// without itself touching the pod any further. The Roll Coordinator
// drains ServersToRoll once every pod step context for the domain has
// run, so a single reconciliation never starts more concurrent cycles
// than a cluster's maxUnavailable allows.
func (c *Context) deferManagedRoll(ctx context.Context, p *kernel.Packet, client kubeclient.Client, pod *corev1.Pod, model domain.PodModel, next kernel.Step) kernel.NextAction {
	patchBytes, err := buildToBeRolledPatch(pod.Labels)
	if err != nil {
		return kernel.Throw(fmt.Errorf("podstep: %w", err))
	}
	if err := client.PatchPod(ctx, c.Namespace, pod.Name, patchBytes); err != nil {
		if kerrors.IsNotFound(err) {
			// The pod was deleted out from under us before we could even
			// label it as pending a roll; there is no live pod left to
			// defer, so just create the desired replacement directly.
			return kernel.Advance(c.createPod(next))
		}
		retryStep := func(ctx context.Context, p *kernel.Packet) kernel.NextAction {
			return c.deferManagedRoll(ctx, p, client, pod, model, next)
		}
		return retryOrThrow(p, "to-be-rolled:"+pod.Name, kerrors.WrapTransientKubernetesAPI(err), retryStep)
	}
	if limiter, ok := retryFrom(p); ok {
		limiter.Forget("to-be-rolled:" + pod.Name)
	}

	clusterName := ""
	if c.Identity.ClusterName != nil {
		clusterName = *c.Identity.ClusterName
	}
	p.AddRollRequest(c.Identity.ServerName, kernel.RollRequest{
		ClusterName: clusterName,
		// The cycle step runs later, on a fiber the Roll Coordinator
		// starts of its own; it has nothing of this fiber's own `next`
		// to continue into, so it simply terminates once the server is
		// back and ready.
		CycleStep: c.cyclePod(pod, model, terminateStep),
		Snapshot:  p.Copy(),
	})
	return kernel.Advance(next)
}

// cyclePod deletes the live pod, waits for it to actually disappear,
// recreates it from model, and waits for the replacement to become
// ready before advancing into afterReady.
func (c *Context) cyclePod(pod *corev1.Pod, model domain.PodModel, afterReady kernel.Step) kernel.Step {
	return func(ctx context.Context, p *kernel.Packet) kernel.NextAction {
		client, err := clientFrom(p)
		if err != nil {
			return kernel.Throw(err)
		}
		if err := client.DeletePod(ctx, c.Namespace, pod.Name, c.gracePeriodSeconds()); err != nil && !kerrors.IsNotFound(err) {
			return retryOrThrow(p, "delete:"+pod.Name, kerrors.WrapTransientKubernetesAPI(err), c.cyclePod(pod, model, afterReady))
		}
		if limiter, ok := retryFrom(p); ok {
			limiter.Forget("delete:" + pod.Name)
		}
		return c.awaitGone(ctx, p, c.recreateStep(model, afterReady))
	}
}

// recreateStep submits a fresh pod from model and waits for it to
// become ready before advancing into afterReady.
func (c *Context) recreateStep(model domain.PodModel, afterReady kernel.Step) kernel.Step {
	return func(ctx context.Context, p *kernel.Packet) kernel.NextAction {
		client, err := clientFrom(p)
		if err != nil {
			return kernel.Throw(err)
		}
		pod := c.stampedPod(model)
		if err := client.CreatePod(ctx, pod); err != nil {
			return retryOrThrow(p, "recreate:"+pod.Name, kerrors.WrapTransientKubernetesAPI(err), c.recreateStep(model, afterReady))
		}
		if limiter, ok := retryFrom(p); ok {
			limiter.Forget("recreate:" + pod.Name)
		}
		return c.awaitReady(ctx, p, afterReady)
	}
}

// terminateStep is the continuation a deferred roll cycle ends in: the
// Roll Coordinator runs one fiber per server being cycled, and that
// fiber's only job is the cycle itself.
func terminateStep(context.Context, *kernel.Packet) kernel.NextAction {
	return kernel.Terminate()
}
