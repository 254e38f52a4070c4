package domain

import (
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// introspectorContainerName is the single container the introspector
// Job runs its one-shot topology discovery in.
const introspectorContainerName = "introspector"

// IntrospectorJobName is the Kubernetes object name for a domain's
// introspector Job.
func IntrospectorJobName(domainUID string) string {
	return domainUID + "-introspector"
}

// IntrospectorJobBuilder produces the Job that re-runs introspection
// for a domain. The reconciliation kernel treats the introspector as a
// black box with the contract "produce topology or fail"; this seam is
// only responsible for the Job's shape, never for reading its output.
type IntrospectorJobBuilder interface {
	Build(snapshot *Snapshot) *batchv1.Job
}

// DefaultIntrospectorJobBuilder is the IntrospectorJobBuilder every
// cmd/operator wiring uses. Grounded on DefaultPodModelBuilder's
// single-container template assembly (builder.go), adapted from a
// long-running server pod to a one-shot batch Job that runs against
// the same admin-server image.
type DefaultIntrospectorJobBuilder struct{}

// Build implements IntrospectorJobBuilder.
func (DefaultIntrospectorJobBuilder) Build(snapshot *Snapshot) *batchv1.Job {
	backoffLimit := int32(2)
	labels := map[string]string{
		LabelDomainUID: snapshot.DomainUID,
	}
	return &batchv1.Job{
		ObjectMeta: metav1.ObjectMeta{
			Namespace: snapshot.Namespace,
			Name:      IntrospectorJobName(snapshot.DomainUID),
			Labels:    labels,
		},
		Spec: batchv1.JobSpec{
			BackoffLimit: &backoffLimit,
			Template: corev1.PodTemplateSpec{
				ObjectMeta: metav1.ObjectMeta{Labels: labels},
				Spec: corev1.PodSpec{
					RestartPolicy: corev1.RestartPolicyNever,
					Containers: []corev1.Container{
						{
							Name:  introspectorContainerName,
							Image: snapshot.AdminServer.Image,
						},
					},
				},
			},
		},
	}
}
