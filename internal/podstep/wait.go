package podstep

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"

	"github.com/oracle/weblogic-kubernetes-operator/internal/kernel"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kerrors"
)

// awaitReady suspends until this context's pod is observed Ready, then
// advances into then. If c.Tuning.PodReadyTimeout elapses first, the
// fiber instead throws an error wrapping kerrors.ErrWatchTimeout, which
// ends the fiber through its failure callback.
func (c *Context) awaitReady(ctx context.Context, p *kernel.Packet, then kernel.Step) kernel.NextAction {
	awaiter, err := awaiterFrom(p)
	if err != nil {
		return kernel.Throw(err)
	}
	timeoutStep := c.watchTimeoutStep("did not become ready")

	return kernel.SuspendWithTimeout(ctx, p, func(fiber *kernel.Fiber, guard func(kernel.Step)) {
		cancel := awaiter.WaitForReady(c.Namespace, c.PodName(), func(*corev1.Pod) {
			guard(then)
		})
		fiber.PushExitCallback(cancel)
	}, c.Tuning.PodReadyTimeout, timeoutStep)
}

// awaitGone suspends until this context's pod is observed deleted,
// then advances into then, with the same timeout-fallback shape as
// awaitReady.
func (c *Context) awaitGone(ctx context.Context, p *kernel.Packet, then kernel.Step) kernel.NextAction {
	awaiter, err := awaiterFrom(p)
	if err != nil {
		return kernel.Throw(err)
	}
	timeoutStep := c.watchTimeoutStep("did not finish deleting")

	return kernel.SuspendWithTimeout(ctx, p, func(fiber *kernel.Fiber, guard func(kernel.Step)) {
		cancel := awaiter.WaitForDeleted(c.Namespace, c.PodName(), func() {
			guard(then)
		})
		fiber.PushExitCallback(cancel)
	}, c.Tuning.PodDeleteTimeout, timeoutStep)
}

func (c *Context) watchTimeoutStep(what string) kernel.Step {
	return func(context.Context, *kernel.Packet) kernel.NextAction {
		return kernel.Throw(fmt.Errorf("podstep: %w: pod %s %s", kerrors.ErrWatchTimeout, c.PodName(), what))
	}
}
