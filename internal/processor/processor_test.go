package processor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"

	"github.com/oracle/weblogic-kubernetes-operator/internal/domain"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kerrors"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kubeclient"
)

// autoReadyClient stands in for a kubelet: the fake apiserver has
// nothing that ever moves a pod to Running/Ready on its own, so every
// pod this decorator creates is stamped Ready immediately, and the Pod
// Awaiter's periodic resync (armed at a test-friendly cadence by
// newTestProcessor) is what actually delivers the notification a
// suspended fiber is waiting on.
type autoReadyClient struct {
	kubeclient.Client
}

func (a *autoReadyClient) CreatePod(ctx context.Context, pod *corev1.Pod) error {
	pod.Status = corev1.PodStatus{
		Phase:      corev1.PodRunning,
		Conditions: []corev1.PodCondition{{Type: corev1.PodReady, Status: corev1.ConditionTrue}},
	}
	return a.Client.CreatePod(ctx, pod)
}

func testSnapshot() *domain.Snapshot {
	return &domain.Snapshot{
		DomainUID: "domain1",
		Namespace: "wls",
		AdminServer: domain.ServerSpec{
			Image: "weblogic:14.1.1",
		},
		Clusters: []domain.ClusterSpec{
			{
				Name:           "cluster-a",
				MaxUnavailable: 1,
				Servers: map[string]domain.ServerSpec{
					"cluster-a-1": {Image: "weblogic:14.1.1"},
					"cluster-a-2": {Image: "weblogic:14.1.1"},
				},
			},
		},
	}
}

func newTestProcessor(t *testing.T) *DomainProcessor {
	t.Helper()
	fake, err := kubeclient.NewFakeClient()
	if err != nil {
		t.Fatalf("NewFakeClient() error = %v", err)
	}
	client := &autoReadyClient{Client: fake}
	tuning := domain.DefaultTuningParameters()
	tuning.PodReadyTimeout = 30 * time.Second
	tuning.PodDeleteTimeout = 30 * time.Second
	tuning.ResyncInterval = "20ms"
	dp := New(client, domain.DefaultPodModelBuilder{}, tuning, logr.Discard())
	if err := dp.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { dp.Shutdown(context.Background()) })
	return dp
}

func TestSubmitCreatesEveryServerAndTerminatesCleanly(t *testing.T) {
	dp := newTestProcessor(t)
	snapshot := testSnapshot()

	done := make(chan error, 1)
	dp.Submit(context.Background(), snapshot, func(err error) { done <- err })

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Submit() completion error = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for Submit() to complete")
	}

	for _, name := range []string{"domain1-admin-server", "domain1-cluster-a-1", "domain1-cluster-a-2"} {
		if _, err := dp.client.GetPod(context.Background(), "wls", name); err != nil {
			t.Fatalf("GetPod(%s) error = %v, want the pod to have been created", name, err)
		}
	}
}

func TestSubmitIfIdleDoesNotPreemptAnInFlightRun(t *testing.T) {
	dp := newTestProcessor(t)
	snapshot := testSnapshot()

	first := dp.Submit(context.Background(), snapshot, nil)
	if first == nil {
		t.Fatalf("Submit() should start a fiber")
	}

	second := dp.SubmitIfIdle(context.Background(), snapshot, nil)
	if second != nil {
		t.Fatalf("SubmitIfIdle() should be a no-op while a fiber is already running for this domain")
	}
}

func TestActiveFibersReflectsInFlightSubmission(t *testing.T) {
	dp := newTestProcessor(t)
	snapshot := testSnapshot()

	done := make(chan struct{})
	dp.Submit(context.Background(), snapshot, func(error) { close(done) })

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for submission to finish")
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if _, ok := dp.ActiveFibers()["domain1"]; !ok {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected domain1 to be evicted from ActiveFibers() after completion")
}

func TestClassifyThrow(t *testing.T) {
	cases := []struct {
		name  string
		cause error
		want  string
	}{
		{"watch timeout", kerrors.ErrWatchTimeout, "watch-timeout"},
		{"permanent", kerrors.ErrPermanentConfig, "permanent"},
		{"transient", kerrors.ErrTransientKubernetesAPI, "transient"},
		{"unknown", errors.New("boom"), "unknown"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := classifyThrow(tc.cause); got != tc.want {
				t.Fatalf("classifyThrow(%v) = %q, want %q", tc.cause, got, tc.want)
			}
		})
	}
}
