// Package roll implements the Roll Coordinator: once every pod step
// context for a domain's reconciliation has run and accumulated its
// roll requests on the Packet, this package drains them and carries
// out each cluster's server replacements without ever running more
// concurrent cycles than that cluster's declared maxUnavailable
// allows. Grounded on the upgrade rollout's performPodByPodUpgrade
// (ascending member order, one bounded batch in flight at a time), with
// the StatefulSet partition bookkeeping replaced by this kernel's
// delete/await/recreate/await-ready cycle per server.
package roll

import (
	"context"
	"sort"
	"sync"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"

	"github.com/oracle/weblogic-kubernetes-operator/internal/domain"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kernel"
	"github.com/oracle/weblogic-kubernetes-operator/internal/klog"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kmetrics"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kubeclient"
)

// Coordinator runs the deferred cycle steps a reconciliation's pod
// step contexts left behind on a Packet.
type Coordinator struct {
	engine *kernel.Engine
	client kubeclient.Client
	logger logr.Logger
}

// NewCoordinator builds a Coordinator whose cycle fibers run on engine.
// client lets it see pods already not-ready for reasons outside the
// batch it is about to cycle before sizing a cluster's budget; a nil
// client (unit tests exercising scheduling in isolation) falls back to
// the declared maxUnavailable unmodified.
func NewCoordinator(engine *kernel.Engine, client kubeclient.Client, logger logr.Logger) *Coordinator {
	return &Coordinator{engine: engine, client: client, logger: logger}
}

// Drain takes ownership of p's accumulated roll requests, groups them
// by owning cluster, and runs each cluster's cycles respecting its
// maxUnavailable. It blocks until every requested cycle has reached a
// terminal state and returns the first error encountered, if any — a
// failure cycling one server never stops another cluster's cycles, nor
// the rest of the same cluster's batch once already in flight.
func (rc *Coordinator) Drain(ctx context.Context, p *kernel.Packet, namespace, domainUID string, clusters []domain.ClusterSpec) error {
	requests := p.RollRequests()
	p.ClearRollRequests()
	if len(requests) == 0 {
		return nil
	}

	maxUnavailable := make(map[string]int32, len(clusters))
	for _, c := range clusters {
		budget := c.MaxUnavailable
		if budget <= 0 {
			budget = 1
		}
		maxUnavailable[c.Name] = budget
	}

	byCluster := make(map[string][]string)
	for serverName, req := range requests {
		byCluster[req.ClusterName] = append(byCluster[req.ClusterName], serverName)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(byCluster))
	for clusterName, serverNames := range byCluster {
		sort.Strings(serverNames)
		budget := maxUnavailable[clusterName]
		if budget <= 0 {
			budget = 1
		}
		budget = rc.budgetAfterExternalUnready(ctx, namespace, domainUID, clusterName, budget)

		wg.Add(1)
		go func(clusterName string, serverNames []string, budget int32) {
			defer wg.Done()
			errCh <- rc.cycleCluster(ctx, requests, domainUID, clusterName, serverNames, budget)
		}(clusterName, serverNames, budget)
	}
	wg.Wait()
	close(errCh)

	var first error
	for err := range errCh {
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

// budgetAfterExternalUnready subtracts, from budget, every live pod in
// clusterName that is already not-ready for reasons outside this
// batch: spec.md's invariant is that a cluster never has more than
// maxUnavailable not-ready pods at once, and a pod this coordinator is
// not about to cycle still counts against that ceiling. The result
// never drops below one, since this coordinator sizes its semaphore
// once up front rather than re-polling as pods recover; a floor of one
// keeps a drain making forward progress instead of deadlocking when
// the cluster already has no slack left.
func (rc *Coordinator) budgetAfterExternalUnready(ctx context.Context, namespace, domainUID, clusterName string, budget int32) int32 {
	if rc.client == nil {
		return budget
	}
	pods, err := rc.client.ListPods(ctx, namespace, map[string]string{
		domain.LabelDomainUID:   domainUID,
		domain.LabelClusterName: clusterName,
	})
	if err != nil {
		rc.logger.Error(err, "roll: listing live pods to size cluster budget", "cluster", clusterName)
		return budget
	}

	var externallyUnready int32
	for i := range pods {
		pod := &pods[i]
		if pod.Labels[domain.LabelToBeRolled] == domain.LabelValueTrue {
			continue
		}
		if !podReady(pod) {
			externallyUnready++
		}
	}

	remaining := budget - externallyUnready
	if remaining <= 0 {
		remaining = 1
	}
	return remaining
}

// podReady reports whether pod has a Ready condition of True while its
// phase is Running, mirroring podstep's isReady; kept as its own copy
// since nothing else in this package depends on podstep.
func podReady(pod *corev1.Pod) bool {
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

// cycleCluster runs serverNames' cycle steps in ascending name order,
// never more than budget of them in flight concurrently.
func (rc *Coordinator) cycleCluster(ctx context.Context, requests map[string]kernel.RollRequest, domainUID, clusterName string, serverNames []string, budget int32) error {
	sem := make(chan struct{}, budget)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	var inFlight int32

	for _, serverName := range serverNames {
		req, ok := requests[serverName]
		if !ok {
			continue
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(serverName string, req kernel.RollRequest) {
			defer wg.Done()
			defer func() { <-sem }()

			mu.Lock()
			inFlight++
			kmetrics.SetRollsInProgress(domainUID, clusterName, int(inFlight))
			mu.Unlock()

			err := rc.runOne(ctx, serverName, req)

			mu.Lock()
			inFlight--
			kmetrics.SetRollsInProgress(domainUID, clusterName, int(inFlight))
			if err != nil && firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}(serverName, req)
	}
	wg.Wait()
	return firstErr
}

// runOne starts req.CycleStep as its own fiber seeded with
// req.Snapshot and blocks until that fiber reaches a terminal state.
func (rc *Coordinator) runOne(ctx context.Context, serverName string, req kernel.RollRequest) error {
	klog.Audit(rc.logger, "roll-start", map[string]string{"server": serverName, "cluster": req.ClusterName})

	fiber := rc.engine.CreateFiber()
	done := make(chan error, 1)
	rc.engine.Submit(ctx, fiber, req.CycleStep, req.Snapshot, kernel.CompletionCallback{
		OnCompletion: func(*kernel.Packet) { done <- nil },
		OnThrowable:  func(_ *kernel.Packet, cause error) { done <- cause },
	})

	select {
	case err := <-done:
		if err != nil {
			rc.logger.Error(err, "roll: server cycle failed", "server", serverName)
		}
		klog.Audit(rc.logger, "roll-stop", map[string]string{"server": serverName, "cluster": req.ClusterName})
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
