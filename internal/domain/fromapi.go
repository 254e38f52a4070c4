package domain

import (
	"fmt"

	weblogicv1 "github.com/oracle/weblogic-kubernetes-operator/api/v1"
)

// managedServerName is the ordinal naming convention this kernel uses
// for a cluster's members: <cluster>-<n>, matching the ordinal suffix
// convention a StatefulSet's pods carry, since WebLogic clustered
// managed servers are otherwise interchangeable.
func managedServerName(clusterName string, ordinal int32) string {
	return fmt.Sprintf("%s-%d", clusterName, ordinal)
}

// SnapshotFromDomain builds the immutable Snapshot a reconciliation
// fiber is seeded with from the live Domain resource observed at the
// start of that reconciliation. Every cluster's declared Replicas is
// expanded into that many concrete ServerSpecs here, with a member's
// own Servers[name] override (if declared) layered on top of the
// cluster-wide defaults; from this point on the kernel only ever reads
// resolved ServerSpec values and never re-consults Replicas or a
// cluster's defaults directly.
func SnapshotFromDomain(d *weblogicv1.Domain) *Snapshot {
	snapshot := &Snapshot{
		Generation:        d.Generation,
		DomainUID:         d.Spec.DomainUID,
		Namespace:         d.Namespace,
		IntrospectVersion: d.Spec.IntrospectVersion,
		AdminServer:       serverSpecFromAdmin(d.Spec.AdminServer),
	}

	for _, c := range d.Spec.Clusters {
		snapshot.Clusters = append(snapshot.Clusters, clusterSpecFromAPI(c))
	}
	return snapshot
}

func serverSpecFromAdmin(a weblogicv1.AdminServerSpec) ServerSpec {
	return ServerSpec{
		Image:                  a.Image,
		Env:                    a.Env,
		Resources:              a.Resources,
		ShutdownTimeoutSeconds: a.ShutdownTimeoutSeconds,
	}
}

func clusterSpecFromAPI(c weblogicv1.ClusterSpec) ClusterSpec {
	cluster := ClusterSpec{
		Name:           c.Name,
		Replicas:       c.Replicas,
		MaxUnavailable: c.MaxUnavailable,
		Servers:        make(map[string]ServerSpec, c.Replicas),
	}

	defaults := ServerSpec{
		Image:                  c.Image,
		Env:                    c.Env,
		Resources:              c.Resources,
		ShutdownTimeoutSeconds: c.ShutdownTimeoutSeconds,
	}

	for i := int32(0); i < c.Replicas; i++ {
		name := managedServerName(c.Name, i+1)
		cluster.Servers[name] = resolveManagedServerSpec(defaults, c.Servers[name])
	}
	return cluster
}

// resolveManagedServerSpec layers a declared per-server override on
// top of a cluster's defaults, falling back field-by-field wherever
// the override leaves a field at its zero value.
func resolveManagedServerSpec(defaults ServerSpec, override weblogicv1.ManagedServerSpec) ServerSpec {
	spec := defaults
	if override.Image != "" {
		spec.Image = override.Image
	}
	if override.Env != nil {
		spec.Env = override.Env
	}
	if override.ShutdownTimeoutSeconds != 0 {
		spec.ShutdownTimeoutSeconds = override.ShutdownTimeoutSeconds
	}
	spec.Labels = override.Labels
	spec.Annotations = override.Annotations
	if override.Resources.Limits != nil || override.Resources.Requests != nil {
		spec.Resources = override.Resources
	}
	return spec
}
