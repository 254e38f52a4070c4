package domain

import (
	"testing"

	corev1 "k8s.io/api/core/v1"
)

func TestDefaultPodModelBuilderBuildsAdminServer(t *testing.T) {
	snapshot := &Snapshot{
		DomainUID:         "domain1",
		IntrospectVersion: "1",
		AdminServer: ServerSpec{
			Image: "weblogic:14.1.1",
			Env:   []corev1.EnvVar{{Name: "DOMAIN_HOME", Value: "/u01/domain"}},
		},
	}
	id := NewAdminIdentity(snapshot.DomainUID, AdminServerName)

	model, err := DefaultPodModelBuilder{}.Build(id, snapshot)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if model.Hashed.Image != "weblogic:14.1.1" {
		t.Fatalf("Hashed.Image = %q, want weblogic:14.1.1", model.Hashed.Image)
	}
	if model.Hashed.Env["DOMAIN_HOME"] != "/u01/domain" {
		t.Fatalf("Hashed.Env[DOMAIN_HOME] = %q, want /u01/domain", model.Hashed.Env["DOMAIN_HOME"])
	}
	if model.NonHashed.IntrospectVersion != "1" {
		t.Fatalf("NonHashed.IntrospectVersion = %q, want 1", model.NonHashed.IntrospectVersion)
	}
	if got := model.Template.Labels[LabelServerName]; got != AdminServerName {
		t.Fatalf("template label %s = %q, want %q", LabelServerName, got, AdminServerName)
	}
	if _, hasCluster := model.Template.Labels[LabelClusterName]; hasCluster {
		t.Fatalf("admin server pod template should not carry %s", LabelClusterName)
	}
	if len(model.Template.Spec.Containers) != 1 || model.Template.Spec.Containers[0].Name != serverContainerName {
		t.Fatalf("expected a single %q container, got %+v", serverContainerName, model.Template.Spec.Containers)
	}
}

func TestDefaultPodModelBuilderBuildsManagedServer(t *testing.T) {
	snapshot := &Snapshot{
		DomainUID: "domain1",
		Clusters: []ClusterSpec{
			{
				Name: "cluster-a",
				Servers: map[string]ServerSpec{
					"cluster-a-1": {Image: "weblogic:14.1.1"},
				},
			},
		},
	}
	id := NewManagedIdentity(snapshot.DomainUID, "cluster-a", "cluster-a-1")

	model, err := DefaultPodModelBuilder{}.Build(id, snapshot)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if model.Template.Labels[LabelClusterName] != "cluster-a" {
		t.Fatalf("template label %s = %q, want cluster-a", LabelClusterName, model.Template.Labels[LabelClusterName])
	}
	if model.Template.Labels[LabelServerName] != "cluster-a-1" {
		t.Fatalf("template label %s = %q, want cluster-a-1", LabelServerName, model.Template.Labels[LabelServerName])
	}
}

func TestDefaultPodModelBuilderUnknownClusterErrors(t *testing.T) {
	snapshot := &Snapshot{DomainUID: "domain1"}
	id := NewManagedIdentity(snapshot.DomainUID, "cluster-missing", "cluster-missing-1")

	if _, err := (DefaultPodModelBuilder{}).Build(id, snapshot); err == nil {
		t.Fatalf("Build() with an unknown cluster should return an error")
	}
}

func TestDefaultPodModelBuilderUnknownServerErrors(t *testing.T) {
	snapshot := &Snapshot{
		DomainUID: "domain1",
		Clusters: []ClusterSpec{
			{Name: "cluster-a", Servers: map[string]ServerSpec{}},
		},
	}
	id := NewManagedIdentity(snapshot.DomainUID, "cluster-a", "cluster-a-1")

	if _, err := (DefaultPodModelBuilder{}).Build(id, snapshot); err == nil {
		t.Fatalf("Build() with an unknown server should return an error")
	}
}
