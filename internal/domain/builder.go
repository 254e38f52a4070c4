package domain

import (
	"encoding/json"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// serverContainerName is the single container every server pod this
// builder produces runs its WebLogic Server process in.
const serverContainerName = "weblogic-server"

// DefaultPodModelBuilder is the PodModelBuilder every cmd/operator
// wiring uses: a server's ServerSpec (already resolved from cluster
// defaults layered under any per-server override when the Snapshot was
// built from a Domain resource) becomes a single-container pod
// template. Grounded on statefulset_builder.go's pod-template assembly
// (container, env, resources, labels on the template metadata),
// adapted from one shared StatefulSet template to one template per
// server since WebLogic servers are not fungible replicas.
type DefaultPodModelBuilder struct{}

// Build implements PodModelBuilder.
func (DefaultPodModelBuilder) Build(id Identity, snapshot *Snapshot) (PodModel, error) {
	if id.IsAdminServer() {
		return assembleModel(id, snapshot, snapshot.AdminServer, adminLabels(id))
	}

	cluster, ok := snapshot.FindCluster(*id.ClusterName)
	if !ok {
		return PodModel{}, fmt.Errorf("domain: cluster %q not found in snapshot", *id.ClusterName)
	}
	spec, ok := cluster.Servers[id.ServerName]
	if !ok {
		return PodModel{}, fmt.Errorf("domain: server %q not found in cluster %q", id.ServerName, cluster.Name)
	}
	return assembleModel(id, snapshot, spec, managedLabels(id, cluster.Name))
}

func adminLabels(id Identity) map[string]string {
	return map[string]string{
		LabelDomainUID:  id.DomainUID,
		LabelServerName: id.ServerName,
	}
}

func managedLabels(id Identity, clusterName string) map[string]string {
	return map[string]string{
		LabelDomainUID:   id.DomainUID,
		LabelClusterName: clusterName,
		LabelServerName:  id.ServerName,
	}
}

func assembleModel(id Identity, snapshot *Snapshot, spec ServerSpec, labels map[string]string) (PodModel, error) {
	resourcesJSON, err := json.Marshal(spec.Resources)
	if err != nil {
		return PodModel{}, fmt.Errorf("domain: marshalling resource requirements: %w", err)
	}

	envMap := make(map[string]string, len(spec.Env))
	for _, e := range spec.Env {
		envMap[e.Name] = e.Value
	}

	template := &corev1.Pod{
		ObjectMeta: metav1.ObjectMeta{
			Labels:      mergeStringMaps(labels, spec.Labels),
			Annotations: copyStringMap(spec.Annotations),
		},
		Spec: corev1.PodSpec{
			Containers: []corev1.Container{
				{
					Name:      serverContainerName,
					Image:     spec.Image,
					Env:       spec.Env,
					Resources: spec.Resources,
				},
			},
		},
	}

	return PodModel{
		Identity: id,
		Hashed: HashableFields{
			Image:       spec.Image,
			Env:         envMap,
			Labels:      labels,
			Annotations: spec.Annotations,
			Resources:   string(resourcesJSON),
		},
		NonHashed: NonHashedFields{
			IntrospectVersion: snapshot.IntrospectVersion,
		},
		Template: template,
	}, nil
}

func mergeStringMaps(base, overlay map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(overlay))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		out[k] = v
	}
	return out
}

func copyStringMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
