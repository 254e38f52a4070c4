// Package kubeclient defines the thin collaborator surface the
// reconciliation kernel uses to read and write Kubernetes objects. The
// kernel never imports controller-runtime directly outside this
// package: every step depends on these interfaces so a fake
// implementation can drive kernel tests without a live API server.
package kubeclient

import (
	"context"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
)

// PodClient is the CRUD and list surface a pod step context needs; it
// has no watch method.
type PodClient interface {
	GetPod(ctx context.Context, namespace, name string) (*corev1.Pod, error)
	CreatePod(ctx context.Context, pod *corev1.Pod) error
	PatchPod(ctx context.Context, namespace, name string, patchBytes []byte) error
	DeletePod(ctx context.Context, namespace, name string, gracePeriodSeconds int64) error
	// ListPods returns every pod in namespace matching labelSelector,
	// the surface the Roll Coordinator uses to see pods already
	// not-ready for reasons outside the batch it is about to cycle.
	ListPods(ctx context.Context, namespace string, labelSelector map[string]string) ([]corev1.Pod, error)
}

// ServiceClient is the CRUD surface for a server's headless/cluster
// service.
type ServiceClient interface {
	GetService(ctx context.Context, namespace, name string) (*corev1.Service, error)
	CreateService(ctx context.Context, svc *corev1.Service) error
	PatchService(ctx context.Context, namespace, name string, patchBytes []byte) error
}

// ConfigMapClient is the get/create/patch surface for the
// introspector's rendered topology output.
type ConfigMapClient interface {
	GetConfigMap(ctx context.Context, namespace, name string) (*corev1.ConfigMap, error)
	CreateConfigMap(ctx context.Context, cm *corev1.ConfigMap) error
	PatchConfigMap(ctx context.Context, namespace, name string, patchBytes []byte) error
}

// SecretClient is the read surface for domain credentials.
type SecretClient interface {
	GetSecret(ctx context.Context, namespace, name string) (*corev1.Secret, error)
}

// JobClient is the get/create/delete surface for the introspector Job.
type JobClient interface {
	GetJob(ctx context.Context, namespace, name string) (*batchv1.Job, error)
	CreateJob(ctx context.Context, job *batchv1.Job) error
	DeleteJob(ctx context.Context, namespace, name string) error
}

// Client aggregates every collaborator surface the kernel's steps
// need. A single implementation normally satisfies all five; they are
// kept as separate interfaces so a step's signature documents exactly
// which resource kinds it touches.
type Client interface {
	PodClient
	ServiceClient
	ConfigMapClient
	SecretClient
	JobClient
}
