package podstep

import (
	"context"

	"github.com/oracle/weblogic-kubernetes-operator/internal/kernel"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kerrors"
)

// DeletePod issues a delete for pctx's server's pod and suspends until
// it is actually gone before advancing to next. A pod already absent
// is treated as success rather than an error: the caller asked for
// the pod to not exist, and it doesn't.
func DeletePod(pctx *Context, next kernel.Step) kernel.Step {
	return func(ctx context.Context, p *kernel.Packet) kernel.NextAction {
		client, err := clientFrom(p)
		if err != nil {
			return kernel.Throw(err)
		}

		if err := client.DeletePod(ctx, pctx.Namespace, pctx.PodName(), pctx.gracePeriodSeconds()); err != nil {
			if kerrors.IsNotFound(err) {
				return kernel.Advance(next)
			}
			return kernel.Throw(kerrors.WrapTransientKubernetesAPI(err))
		}

		return pctx.awaitGone(ctx, p, next)
	}
}
