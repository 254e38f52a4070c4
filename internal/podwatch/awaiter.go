// Package podwatch bridges asynchronous pod state changes (a pod
// becomes ready, a pod is actually gone) back into suspended fibers. It
// is the collaborator the reconciliation kernel looks up on a Packet as
// PodAwaiter: a step that needs to wait for a pod event registers a
// waiter here and suspends; this package is responsible for eventually
// resuming it, either because a watch event was pushed in via
// NotifyPod/NotifyDeleted or because a periodic resync polled the
// pod's current state directly.
package podwatch

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
	corev1 "k8s.io/api/core/v1"

	"github.com/oracle/weblogic-kubernetes-operator/internal/domain"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kernel"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kerrors"
	"github.com/oracle/weblogic-kubernetes-operator/internal/kubeclient"
)

// PodAwaiter is the collaborator surface a pod step context registers
// on the Packet's service locator (kernel.PutComponent) and a roll
// cycle step retrieves via kernel.Component.
type PodAwaiter interface {
	// WaitForReady registers onReady to be called the next time the
	// named pod is observed Ready. cancel removes the registration; it
	// is safe to call after onReady has already fired.
	WaitForReady(namespace, name string, onReady func(pod *corev1.Pod)) (cancel func())
	// WaitForDeleted registers onDeleted to be called the next time the
	// named pod is observed gone (a watch delete event, or a resync
	// poll that gets a not-found response).
	WaitForDeleted(namespace, name string, onDeleted func()) (cancel func())
}

const shardCount = 16

type readyWaiter struct {
	id      uint64
	onReady func(*corev1.Pod)
}

type deletedWaiter struct {
	id        uint64
	onDeleted func()
}

type shard struct {
	mu      sync.Mutex
	ready   map[string][]readyWaiter
	deleted map[string][]deletedWaiter
}

// Awaiter is the concrete PodAwaiter. Waiter lists are striped across a
// fixed number of shards keyed by pod name hash, so a resync touching
// one pod never blocks registration/lookup for an unrelated one.
type Awaiter struct {
	client kubeclient.PodClient
	engine *kernel.Engine
	tuning domain.TuningParameters
	logger logr.Logger

	shards [shardCount]*shard
	nextID atomic.Uint64

	stopMu sync.Mutex
	stop   func()
}

// New builds an Awaiter. Call Start to begin its periodic resync.
func New(client kubeclient.PodClient, engine *kernel.Engine, tuning domain.TuningParameters, logger logr.Logger) *Awaiter {
	a := &Awaiter{client: client, engine: engine, tuning: tuning, logger: logger}
	for i := range a.shards {
		a.shards[i] = &shard{
			ready:   make(map[string][]readyWaiter),
			deleted: make(map[string][]deletedWaiter),
		}
	}
	return a
}

// Start begins the periodic resync that catches watch events missed
// between a waiter's registration and the watch actually delivering.
func (a *Awaiter) Start() error {
	stop, err := a.engine.ScheduleAtFixedRate(a.tuning.ResyncInterval, a.resync)
	if err != nil {
		return err
	}
	a.stopMu.Lock()
	a.stop = stop
	a.stopMu.Unlock()
	return nil
}

// Stop cancels the periodic resync.
func (a *Awaiter) Stop() {
	a.stopMu.Lock()
	stop := a.stop
	a.stopMu.Unlock()
	if stop != nil {
		stop()
	}
}

func podKey(namespace, name string) string {
	return namespace + "/" + name
}

func (a *Awaiter) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return a.shards[h.Sum32()%shardCount]
}

// WaitForReady implements PodAwaiter.
func (a *Awaiter) WaitForReady(namespace, name string, onReady func(pod *corev1.Pod)) (cancel func()) {
	key := podKey(namespace, name)
	s := a.shardFor(key)
	id := a.nextID.Add(1)

	s.mu.Lock()
	s.ready[key] = append(s.ready[key], readyWaiter{id: id, onReady: onReady})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		waiters := s.ready[key]
		for i, w := range waiters {
			if w.id == id {
				s.ready[key] = append(waiters[:i], waiters[i+1:]...)
				break
			}
		}
	}
}

// WaitForDeleted implements PodAwaiter.
func (a *Awaiter) WaitForDeleted(namespace, name string, onDeleted func()) (cancel func()) {
	key := podKey(namespace, name)
	s := a.shardFor(key)
	id := a.nextID.Add(1)

	s.mu.Lock()
	s.deleted[key] = append(s.deleted[key], deletedWaiter{id: id, onDeleted: onDeleted})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		waiters := s.deleted[key]
		for i, w := range waiters {
			if w.id == id {
				s.deleted[key] = append(waiters[:i], waiters[i+1:]...)
				break
			}
		}
	}
}

// NotifyPod is fed pod add/update watch events from whatever collaborator
// owns the real controller-runtime watch (wired in cmd/operator). It
// fires and clears every registered ready-waiter if pod is ready.
func (a *Awaiter) NotifyPod(pod *corev1.Pod) {
	if pod == nil || !isReady(pod) {
		return
	}
	key := podKey(pod.Namespace, pod.Name)
	s := a.shardFor(key)

	s.mu.Lock()
	waiters := s.ready[key]
	delete(s.ready, key)
	s.mu.Unlock()

	for _, w := range waiters {
		w.onReady(pod)
	}
}

// NotifyDeleted is fed pod delete watch events. It fires and clears
// every registered deleted-waiter for namespace/name.
func (a *Awaiter) NotifyDeleted(namespace, name string) {
	key := podKey(namespace, name)
	s := a.shardFor(key)

	s.mu.Lock()
	waiters := s.deleted[key]
	delete(s.deleted, key)
	s.mu.Unlock()

	for _, w := range waiters {
		w.onDeleted()
	}
}

// resync polls the live state of every pod with an outstanding waiter,
// the fallback for a watch event dropped before it reached NotifyPod/
// NotifyDeleted. Grounded on the same level-triggered "poll, don't
// trust a single event" idiom the upgrade rollout's waitForPodReady/
// waitForPodHealthy loops use.
func (a *Awaiter) resync() {
	ctx := context.Background()
	for _, s := range a.shards {
		s.mu.Lock()
		keys := make([]string, 0, len(s.ready)+len(s.deleted))
		seen := make(map[string]bool)
		for k := range s.ready {
			if !seen[k] {
				keys = append(keys, k)
				seen[k] = true
			}
		}
		for k := range s.deleted {
			if !seen[k] {
				keys = append(keys, k)
				seen[k] = true
			}
		}
		s.mu.Unlock()

		for _, key := range keys {
			namespace, name := splitKey(key)
			pod, err := a.client.GetPod(ctx, namespace, name)
			if err != nil {
				if kerrors.IsNotFound(err) {
					a.NotifyDeleted(namespace, name)
				} else {
					a.logger.V(1).Info("podwatch: resync get failed", "namespace", namespace, "name", name, "error", err.Error())
				}
				continue
			}
			a.NotifyPod(pod)
		}
	}
}

func splitKey(key string) (namespace, name string) {
	for i := 0; i < len(key); i++ {
		if key[i] == '/' {
			return key[:i], key[i+1:]
		}
	}
	return "", key
}

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
