package kubeclient

import (
	"context"
	"fmt"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
)

// ControllerRuntimeClient adapts a sigs.k8s.io/controller-runtime
// client.Client into the Client interface. It is the production
// implementation; tests get the same adapter wrapped around
// sigs.k8s.io/controller-runtime/pkg/client/fake from NewFakeClient.
type ControllerRuntimeClient struct {
	Inner ctrlclient.Client
}

// NewControllerRuntimeClient wraps inner.
func NewControllerRuntimeClient(inner ctrlclient.Client) *ControllerRuntimeClient {
	return &ControllerRuntimeClient{Inner: inner}
}

func (c *ControllerRuntimeClient) GetPod(ctx context.Context, namespace, name string) (*corev1.Pod, error) {
	pod := &corev1.Pod{}
	if err := c.Inner.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, pod); err != nil {
		return nil, err
	}
	return pod, nil
}

func (c *ControllerRuntimeClient) CreatePod(ctx context.Context, pod *corev1.Pod) error {
	return c.Inner.Create(ctx, pod)
}

func (c *ControllerRuntimeClient) PatchPod(ctx context.Context, namespace, name string, patchBytes []byte) error {
	pod := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: name}}
	return c.Inner.Patch(ctx, pod, ctrlclient.RawPatch(types.JSONPatchType, patchBytes))
}

func (c *ControllerRuntimeClient) DeletePod(ctx context.Context, namespace, name string, gracePeriodSeconds int64) error {
	pod := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: name}}
	opts := []ctrlclient.DeleteOption{ctrlclient.GracePeriodSeconds(gracePeriodSeconds)}
	if err := c.Inner.Delete(ctx, pod, opts...); err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("kubeclient: deleting pod %s/%s: %w", namespace, name, err)
	}
	return nil
}

func (c *ControllerRuntimeClient) ListPods(ctx context.Context, namespace string, labelSelector map[string]string) ([]corev1.Pod, error) {
	var list corev1.PodList
	opts := []ctrlclient.ListOption{ctrlclient.InNamespace(namespace)}
	if len(labelSelector) > 0 {
		opts = append(opts, ctrlclient.MatchingLabels(labelSelector))
	}
	if err := c.Inner.List(ctx, &list, opts...); err != nil {
		return nil, fmt.Errorf("kubeclient: listing pods in %s: %w", namespace, err)
	}
	return list.Items, nil
}

func (c *ControllerRuntimeClient) GetService(ctx context.Context, namespace, name string) (*corev1.Service, error) {
	svc := &corev1.Service{}
	if err := c.Inner.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

func (c *ControllerRuntimeClient) CreateService(ctx context.Context, svc *corev1.Service) error {
	return c.Inner.Create(ctx, svc)
}

func (c *ControllerRuntimeClient) PatchService(ctx context.Context, namespace, name string, patchBytes []byte) error {
	svc := &corev1.Service{ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: name}}
	return c.Inner.Patch(ctx, svc, ctrlclient.RawPatch(types.JSONPatchType, patchBytes))
}

func (c *ControllerRuntimeClient) GetConfigMap(ctx context.Context, namespace, name string) (*corev1.ConfigMap, error) {
	cm := &corev1.ConfigMap{}
	if err := c.Inner.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, cm); err != nil {
		return nil, err
	}
	return cm, nil
}

func (c *ControllerRuntimeClient) CreateConfigMap(ctx context.Context, cm *corev1.ConfigMap) error {
	return c.Inner.Create(ctx, cm)
}

func (c *ControllerRuntimeClient) PatchConfigMap(ctx context.Context, namespace, name string, patchBytes []byte) error {
	cm := &corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: name}}
	return c.Inner.Patch(ctx, cm, ctrlclient.RawPatch(types.JSONPatchType, patchBytes))
}

func (c *ControllerRuntimeClient) GetSecret(ctx context.Context, namespace, name string) (*corev1.Secret, error) {
	secret := &corev1.Secret{}
	if err := c.Inner.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, secret); err != nil {
		return nil, err
	}
	return secret, nil
}

func (c *ControllerRuntimeClient) GetJob(ctx context.Context, namespace, name string) (*batchv1.Job, error) {
	job := &batchv1.Job{}
	if err := c.Inner.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (c *ControllerRuntimeClient) CreateJob(ctx context.Context, job *batchv1.Job) error {
	return c.Inner.Create(ctx, job)
}

func (c *ControllerRuntimeClient) DeleteJob(ctx context.Context, namespace, name string) error {
	job := &batchv1.Job{ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: name}}
	propagation := metav1.DeletePropagationBackground
	if err := c.Inner.Delete(ctx, job, &ctrlclient.DeleteOptions{PropagationPolicy: &propagation}); err != nil && !apierrors.IsNotFound(err) {
		return fmt.Errorf("kubeclient: deleting job %s/%s: %w", namespace, name, err)
	}
	return nil
}
