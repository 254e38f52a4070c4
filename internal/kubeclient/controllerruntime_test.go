package kubeclient

import (
	"context"
	"testing"

	batchv1 "k8s.io/api/batch/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

func TestPodClientCreateGetPatchDelete(t *testing.T) {
	client, err := NewFakeClient()
	if err != nil {
		t.Fatalf("NewFakeClient() error = %v", err)
	}
	ctx := context.Background()

	pod := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Namespace: "wls", Name: "domain1-admin-server"}}
	if err := client.CreatePod(ctx, pod); err != nil {
		t.Fatalf("CreatePod() error = %v", err)
	}

	got, err := client.GetPod(ctx, "wls", "domain1-admin-server")
	if err != nil {
		t.Fatalf("GetPod() error = %v", err)
	}
	if got.Name != "domain1-admin-server" {
		t.Fatalf("GetPod() name = %q, want domain1-admin-server", got.Name)
	}

	patch := []byte(`[{"op":"add","path":"/metadata/labels","value":{"weblogic.oracle/to-be-rolled":"true"}}]`)
	if err := client.PatchPod(ctx, "wls", "domain1-admin-server", patch); err != nil {
		t.Fatalf("PatchPod() error = %v", err)
	}
	patched, err := client.GetPod(ctx, "wls", "domain1-admin-server")
	if err != nil {
		t.Fatalf("GetPod() after patch error = %v", err)
	}
	if patched.Labels["weblogic.oracle/to-be-rolled"] != "true" {
		t.Fatalf("patched labels = %+v, want to-be-rolled=true", patched.Labels)
	}

	if err := client.DeletePod(ctx, "wls", "domain1-admin-server", 30); err != nil {
		t.Fatalf("DeletePod() error = %v", err)
	}
	if _, err := client.GetPod(ctx, "wls", "domain1-admin-server"); !apierrors.IsNotFound(err) {
		t.Fatalf("GetPod() after delete error = %v, want NotFound", err)
	}
}

func TestGetPodNotFound(t *testing.T) {
	client, err := NewFakeClient()
	if err != nil {
		t.Fatalf("NewFakeClient() error = %v", err)
	}
	if _, err := client.GetPod(context.Background(), "wls", "missing"); !apierrors.IsNotFound(err) {
		t.Fatalf("GetPod() error = %v, want NotFound", err)
	}
}

func TestDeletePodAbsentIsNotAnError(t *testing.T) {
	client, err := NewFakeClient()
	if err != nil {
		t.Fatalf("NewFakeClient() error = %v", err)
	}
	if err := client.DeletePod(context.Background(), "wls", "missing", 30); err != nil {
		t.Fatalf("DeletePod() on an absent pod should not error, got %v", err)
	}
}

func TestListPodsFiltersByLabelSelector(t *testing.T) {
	admin := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{
		Namespace: "wls",
		Name:      "domain1-admin-server",
		Labels:    map[string]string{"weblogic.oracle/domainUID": "domain1"},
	}}
	clusterPod := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{
		Namespace: "wls",
		Name:      "domain1-cluster-a-1",
		Labels: map[string]string{
			"weblogic.oracle/domainUID":   "domain1",
			"weblogic.oracle/clusterName": "cluster-a",
		},
	}}
	other := &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Namespace: "wls", Name: "unrelated"}}

	client, err := NewFakeClient(admin, clusterPod, other)
	if err != nil {
		t.Fatalf("NewFakeClient() error = %v", err)
	}

	pods, err := client.ListPods(context.Background(), "wls", map[string]string{
		"weblogic.oracle/domainUID":   "domain1",
		"weblogic.oracle/clusterName": "cluster-a",
	})
	if err != nil {
		t.Fatalf("ListPods() error = %v", err)
	}
	if len(pods) != 1 || pods[0].Name != "domain1-cluster-a-1" {
		t.Fatalf("ListPods() = %+v, want only domain1-cluster-a-1", pods)
	}
}

func TestServiceConfigMapAndJobRoundTrip(t *testing.T) {
	client, err := NewFakeClient()
	if err != nil {
		t.Fatalf("NewFakeClient() error = %v", err)
	}
	ctx := context.Background()

	svc := &corev1.Service{ObjectMeta: metav1.ObjectMeta{Namespace: "wls", Name: "domain1-cluster-a"}}
	if err := client.CreateService(ctx, svc); err != nil {
		t.Fatalf("CreateService() error = %v", err)
	}
	if _, err := client.GetService(ctx, "wls", "domain1-cluster-a"); err != nil {
		t.Fatalf("GetService() error = %v", err)
	}

	cm := &corev1.ConfigMap{ObjectMeta: metav1.ObjectMeta{Namespace: "wls", Name: "domain1-introspector"}}
	if err := client.CreateConfigMap(ctx, cm); err != nil {
		t.Fatalf("CreateConfigMap() error = %v", err)
	}
	if _, err := client.GetConfigMap(ctx, "wls", "domain1-introspector"); err != nil {
		t.Fatalf("GetConfigMap() error = %v", err)
	}

	job := &batchv1.Job{ObjectMeta: metav1.ObjectMeta{Namespace: "wls", Name: "domain1-introspector"}}
	if err := client.CreateJob(ctx, job); err != nil {
		t.Fatalf("CreateJob() error = %v", err)
	}
	if _, err := client.GetJob(ctx, "wls", "domain1-introspector"); err != nil {
		t.Fatalf("GetJob() error = %v", err)
	}
	if err := client.DeleteJob(ctx, "wls", "domain1-introspector"); err != nil {
		t.Fatalf("DeleteJob() error = %v", err)
	}
	if err := client.DeleteJob(ctx, "wls", "domain1-introspector"); err != nil {
		t.Fatalf("DeleteJob() on an absent job should not error, got %v", err)
	}
}
