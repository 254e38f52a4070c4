package podstep

import (
	corev1 "k8s.io/api/core/v1"

	"github.com/oracle/weblogic-kubernetes-operator/internal/domain"
)

// isReady reports whether pod has a Ready condition of True while its
// phase is Running.
func isReady(pod *corev1.Pod) bool {
	if pod == nil || pod.Status.Phase != corev1.PodRunning {
		return false
	}
	for _, cond := range pod.Status.Conditions {
		if cond.Type == corev1.PodReady && cond.Status == corev1.ConditionTrue {
			return true
		}
	}
	return false
}

// isFailed reports whether pod's phase is Failed. A failed pod is
// always replaced regardless of whether its content hash still
// matches the desired model.
func isFailed(pod *corev1.Pod) bool {
	return pod != nil && pod.Status.Phase == corev1.PodFailed
}

// isDeleting reports whether pod carries a deletion timestamp, i.e.
// a delete has been issued but the kubelet has not yet reported the
// pod gone.
func isDeleting(pod *corev1.Pod) bool {
	return pod != nil && pod.DeletionTimestamp != nil
}

// introspectionRequired reports whether the live pod's introspect
// version annotation disagrees with the desired model's: a topology
// diff the external DomainProcessor detected since the live pod was
// last stamped, which the admin server must re-introspect rather than
// simply roll through.
func introspectionRequired(pod *corev1.Pod, model domain.PodModel) bool {
	if pod == nil || model.NonHashed.IntrospectVersion == "" {
		return false
	}
	live := pod.Annotations[domain.AnnotationIntrospectVersion]
	return live != "" && live != model.NonHashed.IntrospectVersion
}
