package domain

import "testing"

func TestNewAdminIdentityIsAdminServer(t *testing.T) {
	id := NewAdminIdentity("domain1", AdminServerName)
	if !id.IsAdminServer() {
		t.Fatalf("NewAdminIdentity().IsAdminServer() = false, want true")
	}
	if id.ClusterName != nil {
		t.Fatalf("admin identity should carry a nil ClusterName, got %v", *id.ClusterName)
	}
}

func TestNewManagedIdentityIsNotAdminServer(t *testing.T) {
	id := NewManagedIdentity("domain1", "cluster-a", "cluster-a-1")
	if id.IsAdminServer() {
		t.Fatalf("NewManagedIdentity().IsAdminServer() = true, want false")
	}
	if id.ClusterName == nil || *id.ClusterName != "cluster-a" {
		t.Fatalf("managed identity ClusterName = %v, want cluster-a", id.ClusterName)
	}
	if id.ServerName != "cluster-a-1" {
		t.Fatalf("managed identity ServerName = %q, want cluster-a-1", id.ServerName)
	}
}
