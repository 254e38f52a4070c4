package podstep

import (
	"testing"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/oracle/weblogic-kubernetes-operator/internal/domain"
)

func TestIsReady(t *testing.T) {
	cases := []struct {
		name string
		pod  *corev1.Pod
		want bool
	}{
		{"nil pod", nil, false},
		{"running and ready", &corev1.Pod{
			Status: corev1.PodStatus{
				Phase:      corev1.PodRunning,
				Conditions: []corev1.PodCondition{{Type: corev1.PodReady, Status: corev1.ConditionTrue}},
			},
		}, true},
		{"running but not ready", &corev1.Pod{
			Status: corev1.PodStatus{
				Phase:      corev1.PodRunning,
				Conditions: []corev1.PodCondition{{Type: corev1.PodReady, Status: corev1.ConditionFalse}},
			},
		}, false},
		{"pending", &corev1.Pod{Status: corev1.PodStatus{Phase: corev1.PodPending}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isReady(tc.pod); got != tc.want {
				t.Fatalf("isReady() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsFailed(t *testing.T) {
	if isFailed(nil) {
		t.Fatalf("isFailed(nil) should be false")
	}
	if !isFailed(&corev1.Pod{Status: corev1.PodStatus{Phase: corev1.PodFailed}}) {
		t.Fatalf("isFailed() should be true for a Failed pod")
	}
	if isFailed(&corev1.Pod{Status: corev1.PodStatus{Phase: corev1.PodRunning}}) {
		t.Fatalf("isFailed() should be false for a Running pod")
	}
}

func TestIsDeleting(t *testing.T) {
	if isDeleting(nil) {
		t.Fatalf("isDeleting(nil) should be false")
	}
	if isDeleting(&corev1.Pod{}) {
		t.Fatalf("isDeleting() should be false without a deletion timestamp")
	}
	now := metav1.NewTime(time.Now())
	if !isDeleting(&corev1.Pod{ObjectMeta: metav1.ObjectMeta{DeletionTimestamp: &now}}) {
		t.Fatalf("isDeleting() should be true once a deletion timestamp is set")
	}
}

func TestIntrospectionRequired(t *testing.T) {
	model := domain.PodModel{NonHashed: domain.NonHashedFields{IntrospectVersion: "9"}}
	cases := []struct {
		name string
		pod  *corev1.Pod
		want bool
	}{
		{"nil pod", nil, false},
		{"no live annotation yet", &corev1.Pod{}, false},
		{"matching version", &corev1.Pod{ObjectMeta: metav1.ObjectMeta{
			Annotations: map[string]string{domain.AnnotationIntrospectVersion: "9"},
		}}, false},
		{"differing version", &corev1.Pod{ObjectMeta: metav1.ObjectMeta{
			Annotations: map[string]string{domain.AnnotationIntrospectVersion: "1"},
		}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := introspectionRequired(tc.pod, model); got != tc.want {
				t.Fatalf("introspectionRequired() = %v, want %v", got, tc.want)
			}
		})
	}
}
