package podstep

import (
	corev1 "k8s.io/api/core/v1"

	"github.com/oracle/weblogic-kubernetes-operator/internal/domain"
)

// stampedPod returns a deep copy of model.Template with this context's
// name, namespace, the kernel-owned selection labels, the pod-hash
// annotation, and model's non-hashed annotations/labels all applied.
// Template itself is never mutated: every CREATE starts from a fresh
// copy so a retried create cannot accidentally reuse stale metadata
// left behind by a prior attempt.
func (c *Context) stampedPod(model domain.PodModel) *corev1.Pod {
	pod := model.Template.DeepCopy()
	pod.Namespace = c.Namespace
	pod.Name = c.PodName()

	if pod.Labels == nil {
		pod.Labels = map[string]string{}
	}
	if pod.Annotations == nil {
		pod.Annotations = map[string]string{}
	}

	pod.Labels[domain.LabelDomainUID] = c.Identity.DomainUID
	pod.Labels[domain.LabelServerName] = c.Identity.ServerName
	if c.Identity.ClusterName != nil {
		pod.Labels[domain.LabelClusterName] = *c.Identity.ClusterName
	} else {
		delete(pod.Labels, domain.LabelClusterName)
	}

	wantRolled := "false"
	if model.NonHashed.ToBeRolled {
		wantRolled = "true"
	}
	pod.Labels[domain.LabelToBeRolled] = wantRolled

	pod.Annotations[domain.AnnotationPodHash] = model.PodHash
	pod.Annotations[domain.AnnotationIntrospectVersion] = model.NonHashed.IntrospectVersion

	return pod
}

// shutdownTimeoutSeconds is this context's server's own declared
// shutdown timeout, read directly from the snapshot rather than from a
// PodModel: it is a step-timing concern, not part of the pod template
// translation a PodModelBuilder is responsible for.
func (c *Context) shutdownTimeoutSeconds() int64 {
	if c.Identity.IsAdminServer() {
		return c.Snapshot.AdminServer.ShutdownTimeoutSeconds
	}
	if c.Identity.ClusterName != nil {
		if cluster, ok := c.Snapshot.FindCluster(*c.Identity.ClusterName); ok {
			if spec, ok := cluster.Servers[c.Identity.ServerName]; ok {
				return spec.ShutdownTimeoutSeconds
			}
		}
	}
	return 0
}

// gracePeriodSeconds is the delete grace period for this context's
// server: its own declared shutdown timeout plus the tuning-wide
// fudge factor that gives WebLogic's shutdown hooks a margin before
// the kubelet escalates to SIGKILL.
func (c *Context) gracePeriodSeconds() int64 {
	return c.shutdownTimeoutSeconds() + c.Tuning.AdditionalDeleteGraceSeconds
}
