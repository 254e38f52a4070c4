package kubeclient

import (
	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	ctrlclient "sigs.k8s.io/controller-runtime/pkg/client"
	ctrlclientfake "sigs.k8s.io/controller-runtime/pkg/client/fake"

	weblogicv1 "github.com/oracle/weblogic-kubernetes-operator/api/v1"
)

// NewFakeClient builds a Client backed by an in-memory
// controller-runtime fake client, seeded with the given objects. It is
// the kernel's test double: package podstep/roll/podwatch/processor
// tests construct one per test rather than standing up an envtest API
// server.
func NewFakeClient(objs ...ctrlclient.Object) (*ControllerRuntimeClient, error) {
	scheme := runtime.NewScheme()
	if err := corev1.AddToScheme(scheme); err != nil {
		return nil, err
	}
	if err := batchv1.AddToScheme(scheme); err != nil {
		return nil, err
	}
	if err := weblogicv1.AddToScheme(scheme); err != nil {
		return nil, err
	}

	builder := ctrlclientfake.NewClientBuilder().
		WithScheme(scheme).
		WithStatusSubresource(&weblogicv1.Domain{})
	if len(objs) > 0 {
		builder = builder.WithObjects(objs...)
	}

	return NewControllerRuntimeClient(builder.Build()), nil
}
