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

// VerifyPod returns the Step implementing the CREATE/PATCH/ROLL
// decision procedure for pctx's server: read the live pod, if any, and
// either create it, patch its non-hashed fields in place, or hand it
// to the replace path, before advancing to next. A pod mid-deletion is
// neither patched nor replaced; the step waits for the delete to
// finish and re-enters the decision from the top.
func VerifyPod(pctx *Context, next kernel.Step) kernel.Step {
	return func(ctx context.Context, p *kernel.Packet) kernel.NextAction {
		client, err := clientFrom(p)
		if err != nil {
			return kernel.Throw(err)
		}

		pod, err := client.GetPod(ctx, pctx.Namespace, pctx.PodName())
		if err != nil {
			if kerrors.IsNotFound(err) {
				return kernel.Advance(pctx.createPod(next))
			}
			return retryOrThrow(p, "get:"+pctx.PodName(), kerrors.WrapTransientKubernetesAPI(err), VerifyPod(pctx, next))
		}
		if limiter, ok := retryFrom(p); ok {
			limiter.Forget("get:" + pctx.PodName())
		}

		if isDeleting(pod) {
			return pctx.awaitGone(ctx, p, VerifyPod(pctx, next))
		}

		model, err := pctx.buildModel()
		if err != nil {
			return kernel.Throw(kerrors.WrapPermanentConfig(err))
		}

		introspect := pctx.Identity.IsAdminServer() && introspectionRequired(pod, model)
		if introspect || isFailed(pod) || pod.Annotations[domain.AnnotationPodHash] != model.PodHash {
			return pctx.replaceCurrentPod(ctx, p, client, pod, model, next)
		}

		return pctx.patchNonHashed(ctx, p, client, pod, model, next)
	}
}

// patchNonHashed brings an existing, structurally-current pod's
// introspect-version annotation and to-be-rolled label in line with
// model, without forcing a rebuild, then advances to next.
func (c *Context) patchNonHashed(ctx context.Context, p *kernel.Packet, client kubeclient.Client, pod *corev1.Pod, model domain.PodModel, next kernel.Step) kernel.NextAction {
	patchBytes, err := buildNonHashedPatch(pod.Annotations, pod.Labels, model)
	if err != nil {
		return kernel.Throw(fmt.Errorf("podstep: %w", err))
	}
	if patchBytes != nil {
		if err := client.PatchPod(ctx, c.Namespace, pod.Name, patchBytes); err != nil {
			if kerrors.IsNotFound(err) {
				// The pod was deleted out from under us between our read
				// and our write; there is nothing left to patch, so fall
				// through to the same create path a fresh GetPod miss
				// would have taken.
				return kernel.Advance(c.createPod(next))
			}
			if kerrors.IsConflict(err) {
				// The pod moved under us between our read and our write;
				// re-read and redecide rather than blindly retrying the
				// same patch document against stale resourceVersion.
				return kernel.Advance(VerifyPod(c, next))
			}
			retryStep := func(ctx context.Context, p *kernel.Packet) kernel.NextAction {
				return c.patchNonHashed(ctx, p, client, pod, model, next)
			}
			return retryOrThrow(p, "patch:"+pod.Name, kerrors.WrapTransientKubernetesAPI(err), retryStep)
		}
		if limiter, ok := retryFrom(p); ok {
			limiter.Forget("patch:" + pod.Name)
		}
	}
	return kernel.Advance(next)
}

// createPod builds and submits a new pod for pctx's server, then
// suspends until it is ready before advancing to next.
func (c *Context) createPod(next kernel.Step) kernel.Step {
	return func(ctx context.Context, p *kernel.Packet) kernel.NextAction {
		client, err := clientFrom(p)
		if err != nil {
			return kernel.Throw(err)
		}
		model, err := c.buildModel()
		if err != nil {
			return kernel.Throw(kerrors.WrapPermanentConfig(err))
		}
		pod := c.stampedPod(model)
		if err := client.CreatePod(ctx, pod); err != nil {
			if kerrors.IsConflict(err) || kerrors.IsAlreadyExists(err) {
				// Someone else created this pod between our read and our
				// write; re-run the whole decision against whatever is
				// actually there now rather than assume we know its shape.
				return kernel.Advance(VerifyPod(c, next))
			}
			return retryOrThrow(p, "create:"+pod.Name, kerrors.WrapTransientKubernetesAPI(err), c.createPod(next))
		}
		if limiter, ok := retryFrom(p); ok {
			limiter.Forget("create:" + c.PodName())
		}
		return c.awaitReady(ctx, p, next)
	}
}
