// Package domain holds the reconciliation kernel's data model: the
// immutable per-reconciliation view of a Domain's declared state
// (Snapshot), the identity of one server within it, the desired-versus-
// live pod comparison (PodModel, Hash), and the tuning knobs the kernel
// consults for timeouts and retry policy.
package domain

import (
	corev1 "k8s.io/api/core/v1"
)

// Snapshot is an immutable view of one Domain's declared state plus its
// derived topology, current for the entire lifetime of one
// reconciliation fiber. Snapshots are versioned by Generation: a fiber
// always refers back to the single snapshot it was seeded with, never
// re-reading the live Domain resource mid-reconciliation, so a
// concurrent user edit cannot tear a single reconciliation's view of
// the world.
type Snapshot struct {
	// Generation is the monotonic counter from the source Domain
	// resource's metadata.generation, used to detect that a Validation
	// failure is stale once the user has changed the domain spec.
	Generation int64
	DomainUID  string
	Namespace  string

	AdminServer ServerSpec
	Clusters    []ClusterSpec

	// IntrospectVersion is opaque; a change signals that topology must
	// be re-derived before pod work can proceed (the admin-server
	// rebuild trigger).
	IntrospectVersion string
}

// ClusterSpec describes one WebLogic cluster: its name, how many
// managed servers should be running, and how many of them may be
// simultaneously unavailable during a roll.
type ClusterSpec struct {
	Name           string
	Replicas       int32
	MaxUnavailable int32
	// Servers is the per-server spec for each member, keyed by server
	// name, allowing per-server overrides (image pinning during a
	// canary, for instance) layered on top of cluster-wide defaults.
	Servers map[string]ServerSpec
}

// ServerSpec is the per-server declared configuration the pod model
// builder consumes to produce a desired Pod. The kernel treats every
// field here as opaque input to hashing; it never interprets image,
// env, or resource values itself (pod template translation
// is an external collaborator's job).
type ServerSpec struct {
	Image       string
	Env         []corev1.EnvVar
	Labels      map[string]string
	Annotations map[string]string
	Resources   corev1.ResourceRequirements
	// ShutdownTimeoutSeconds bounds how long WebLogic is given to drain
	// in-flight work before the kernel forcibly deletes the pod. The
	// Roll Coordinator adds TuningParameters.AdditionalDeleteGraceSeconds
	// on top of this when computing a delete's grace period.
	ShutdownTimeoutSeconds int64
}

// FindCluster returns the ClusterSpec named name, if present.
func (s *Snapshot) FindCluster(name string) (ClusterSpec, bool) {
	for _, c := range s.Clusters {
		if c.Name == name {
			return c, true
		}
	}
	return ClusterSpec{}, false
}

// ServerNames returns the sorted-by-caller-not-guaranteed set of member
// server names for a cluster. Callers that need deterministic order
// (the Roll Coordinator does) must sort the result themselves.
func (c *ClusterSpec) ServerNames() []string {
	names := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		names = append(names, name)
	}
	return names
}
