package kernel

import (
	"reflect"
	"sync"
)

// RollRequest is one entry accumulated under Packet.ServersToRoll by a
// managed-pod step that has decided a server needs replacing. The Roll
// Coordinator drains these after all pod-step-contexts for the domain
// have run (see internal/roll).
type RollRequest struct {
	// ClusterName is the owning cluster.
	ClusterName string
	// CycleStep is the deferred step that performs the delete/await/
	// recreate/await-ready cycle for this server.
	CycleStep Step
	// Snapshot is a shallow-copied Packet captured at the moment the
	// roll was requested, so the cycle step sees the domain state as it
	// was when the need was detected, not whatever a later step in the
	// same fiber has since mutated.
	Snapshot *Packet
}

// Packet is the per-fiber context bag threaded through every step of
// one reconciliation run. Unlike the untyped map the kernel is
// distilled from, Packet is a product type: it carries exactly the
// closed set of well-known values the kernel's own steps need, plus a
// small service-locator for the handful of injected collaborators
// (Kubernetes client, Pod Awaiter, retry limiter). It is mutated in
// place by the steps of one fiber and must never be shared across
// fibers except via Copy, which gives the copy its own maps (see Copy).
type Packet struct {
	// ClusterName is the cluster the current step is operating on, or
	// empty when processing the administrative server.
	ClusterName string

	// ServerName is the identity of the server the current step is
	// operating on.
	ServerName string

	// rollMu guards ServersToRoll. The Packet instance is its own
	// monitor for this field.
	rollMu sync.Mutex
	// ServersToRoll accumulates roll requests keyed by server name,
	// populated by managed-pod steps and drained by the Roll
	// Coordinator once all pod steps for the domain have run.
	serversToRoll map[string]RollRequest

	// EnvOverrides carries extra environment variables a step wants
	// injected into the next pod model built (e.g. internal TLS
	// material surfaced by a prior step); part of the non-hashed
	// overlay tracked alongside the hashed pod fields.
	EnvOverrides map[string]string

	// componentsMu guards components.
	componentsMu sync.RWMutex
	components   map[reflect.Type]any
}

// NewPacket returns an empty, ready-to-use Packet.
func NewPacket() *Packet {
	return &Packet{
		serversToRoll: make(map[string]RollRequest),
		EnvOverrides:  make(map[string]string),
		components:    make(map[reflect.Type]any),
	}
}

// PutComponent registers a collaborator implementation under its
// interface type, e.g. PutComponent[PodAwaiter](p, awaiter). Later
// lookups via Component[PodAwaiter](p) retrieve it.
func PutComponent[T any](p *Packet, impl T) {
	p.componentsMu.Lock()
	defer p.componentsMu.Unlock()
	var key T
	p.components[reflect.TypeOf(&key).Elem()] = impl
}

// Component retrieves a previously registered collaborator by
// interface type. ok is false if nothing was registered for T.
func Component[T any](p *Packet) (T, bool) {
	p.componentsMu.RLock()
	defer p.componentsMu.RUnlock()
	var key T
	v, ok := p.components[reflect.TypeOf(&key).Elem()]
	if !ok {
		var zero T
		return zero, false
	}
	impl, ok := v.(T)
	return impl, ok
}

// AddRollRequest records that serverName needs to be cycled by the Roll
// Coordinator. Idempotent: a second request for the same server name
// overwrites the first rather than accumulating duplicates.
func (p *Packet) AddRollRequest(serverName string, req RollRequest) {
	p.rollMu.Lock()
	defer p.rollMu.Unlock()
	if p.serversToRoll == nil {
		p.serversToRoll = make(map[string]RollRequest)
	}
	p.serversToRoll[serverName] = req
}

// RollRequests returns a snapshot copy of the accumulated roll
// requests, safe to range over without holding the Packet's lock.
func (p *Packet) RollRequests() map[string]RollRequest {
	p.rollMu.Lock()
	defer p.rollMu.Unlock()
	out := make(map[string]RollRequest, len(p.serversToRoll))
	for k, v := range p.serversToRoll {
		out[k] = v
	}
	return out
}

// ClearRollRequests empties the roll-request map, used by the Roll
// Coordinator once it has taken ownership of draining it.
func (p *Packet) ClearRollRequests() {
	p.rollMu.Lock()
	defer p.rollMu.Unlock()
	p.serversToRoll = make(map[string]RollRequest)
}

// Copy returns a shallow copy of the typed fields and a deep copy of
// the component registry and roll-request map, so the copy can be
// mutated independently of the original. Used when a deferred
// sub-workflow (a roll cycle step) is enqueued and must see a stable
// view of the Packet at the moment it was captured.
func (p *Packet) Copy() *Packet {
	p.rollMu.Lock()
	rollCopy := make(map[string]RollRequest, len(p.serversToRoll))
	for k, v := range p.serversToRoll {
		rollCopy[k] = v
	}
	p.rollMu.Unlock()

	p.componentsMu.RLock()
	compCopy := make(map[reflect.Type]any, len(p.components))
	for k, v := range p.components {
		compCopy[k] = v
	}
	p.componentsMu.RUnlock()

	envCopy := make(map[string]string, len(p.EnvOverrides))
	for k, v := range p.EnvOverrides {
		envCopy[k] = v
	}

	return &Packet{
		ClusterName:   p.ClusterName,
		ServerName:    p.ServerName,
		serversToRoll: rollCopy,
		EnvOverrides:  envCopy,
		components:    compCopy,
	}
}
