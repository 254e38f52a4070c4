/*
Copyright 2025.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1

import (
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	// DomainFinalizer ensures pods are drained before a Domain's
	// namespace-scoped resources are garbage collected.
	DomainFinalizer = "weblogic.oracle/domain-finalizer"
)

// DomainConditionType identifies one aspect of a Domain's lifecycle.
// +kubebuilder:validation:Enum=Available;Progressing;Failed
type DomainConditionType string

const (
	DomainConditionAvailable   DomainConditionType = "Available"
	DomainConditionProgressing DomainConditionType = "Progressing"
	DomainConditionFailed      DomainConditionType = "Failed"
)

// DomainCondition is a single observed aspect of Domain status, in the
// same shape as the upstream meta/v1 Condition convention.
type DomainCondition struct {
	Type               DomainConditionType   `json:"type"`
	Status             corev1.ConditionStatus `json:"status"`
	Reason             string                 `json:"reason,omitempty"`
	Message            string                 `json:"message,omitempty"`
	LastTransitionTime metav1.Time            `json:"lastTransitionTime,omitempty"`
}

// AdminServerSpec is the declared configuration for the Domain's
// administration server.
type AdminServerSpec struct {
	// Image is the WebLogic Server container image.
	// +kubebuilder:validation:MinLength=1
	Image string `json:"image"`
	// Env lists environment variables merged onto the server's pod
	// template.
	Env []corev1.EnvVar `json:"env,omitempty"`
	// Resources are the container's compute resource requirements.
	Resources corev1.ResourceRequirements `json:"resources,omitempty"`
	// ShutdownTimeoutSeconds bounds how long WebLogic is given to
	// drain in-flight work before the kernel forcibly deletes the
	// pod.
	// +kubebuilder:default=30
	ShutdownTimeoutSeconds int64 `json:"shutdownTimeoutSeconds,omitempty"`
}

// ManagedServerSpec is a per-server override layered on top of a
// cluster's defaults; every field is optional and falls back to the
// owning ClusterSpec's value when unset.
type ManagedServerSpec struct {
	Image                  string                      `json:"image,omitempty"`
	Env                    []corev1.EnvVar             `json:"env,omitempty"`
	Labels                 map[string]string           `json:"labels,omitempty"`
	Annotations            map[string]string           `json:"annotations,omitempty"`
	Resources              corev1.ResourceRequirements `json:"resources,omitempty"`
	ShutdownTimeoutSeconds int64                       `json:"shutdownTimeoutSeconds,omitempty"`
}

// ClusterSpec describes one WebLogic cluster.
type ClusterSpec struct {
	// Name is the cluster's name as known to WebLogic, and the label
	// value pods of this cluster carry.
	// +kubebuilder:validation:MinLength=1
	Name string `json:"name"`
	// Replicas is the desired number of running managed servers.
	// +kubebuilder:validation:Minimum=0
	Replicas int32 `json:"replicas"`
	// MaxUnavailable bounds how many of this cluster's managed
	// servers may be simultaneously unavailable during a roll.
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:default=1
	MaxUnavailable int32 `json:"maxUnavailable,omitempty"`
	// Image is the default container image for this cluster's
	// managed servers, overridable per server in Servers.
	Image string `json:"image,omitempty"`
	// Env lists environment variables merged onto every managed
	// server in this cluster, overridable per server in Servers.
	Env []corev1.EnvVar `json:"env,omitempty"`
	// Resources are the default compute resource requirements,
	// overridable per server in Servers.
	Resources corev1.ResourceRequirements `json:"resources,omitempty"`
	// ShutdownTimeoutSeconds is the cluster-wide default, overridable
	// per server in Servers.
	// +kubebuilder:default=30
	ShutdownTimeoutSeconds int64 `json:"shutdownTimeoutSeconds,omitempty"`
	// Servers holds per-server overrides keyed by server name. A
	// server named here need not otherwise exist; Replicas controls
	// how many members the cluster has, not this map.
	Servers map[string]ManagedServerSpec `json:"servers,omitempty"`
}

// DomainSpec is the user-declared desired state of a WebLogic domain.
type DomainSpec struct {
	// DomainUID uniquely identifies this domain among all domains in
	// the namespace; it seeds every pod, service, and label name the
	// kernel derives.
	// +kubebuilder:validation:MinLength=1
	DomainUID string `json:"domainUID"`

	// AdminServer is the declared configuration for the
	// administration server, of which there is always exactly one.
	AdminServer AdminServerSpec `json:"adminServer"`

	// Clusters lists the WebLogic clusters that make up this domain.
	Clusters []ClusterSpec `json:"clusters,omitempty"`

	// IntrospectVersion is a user-controlled opaque string; changing
	// it is the signal that topology must be re-derived (e.g. after
	// editing a domain's WDT model) before pod work proceeds. The
	// operator never generates this value itself.
	IntrospectVersion string `json:"introspectVersion,omitempty"`
}

// DomainStatus is the operator-computed observed state of a Domain.
type DomainStatus struct {
	// ObservedGeneration is the DomainSpec generation the most recent
	// reconciliation fiber was seeded with.
	ObservedGeneration int64 `json:"observedGeneration,omitempty"`

	// Conditions records the Domain's current lifecycle aspects.
	Conditions []DomainCondition `json:"conditions,omitempty"`

	// Servers reports the last-known phase of every server the
	// operator is tracking, keyed by server name.
	Servers map[string]string `json:"servers,omitempty"`
}

// Domain is the custom resource a user edits to declare a WebLogic
// Server domain's desired topology.
// +kubebuilder:object:root=true
// +kubebuilder:subresource:status
// +kubebuilder:printcolumn:name="DomainUID",type=string,JSONPath=`.spec.domainUID`
// +kubebuilder:printcolumn:name="Age",type=date,JSONPath=`.metadata.creationTimestamp`
type Domain struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   DomainSpec   `json:"spec,omitempty"`
	Status DomainStatus `json:"status,omitempty"`
}

// +kubebuilder:object:root=true
type DomainList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`
	Items           []Domain `json:"items"`
}

func init() {
	SchemeBuilder.Register(&Domain{}, &DomainList{})
}
