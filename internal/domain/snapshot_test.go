package domain

import (
	"reflect"
	"sort"
	"testing"
)

func TestFindCluster(t *testing.T) {
	snapshot := &Snapshot{
		Clusters: []ClusterSpec{
			{Name: "cluster-a"},
			{Name: "cluster-b"},
		},
	}

	got, ok := snapshot.FindCluster("cluster-b")
	if !ok {
		t.Fatalf("FindCluster(cluster-b) not found")
	}
	if got.Name != "cluster-b" {
		t.Fatalf("FindCluster(cluster-b).Name = %q, want cluster-b", got.Name)
	}

	if _, ok := snapshot.FindCluster("cluster-missing"); ok {
		t.Fatalf("FindCluster(cluster-missing) unexpectedly found")
	}
}

func TestClusterSpecServerNames(t *testing.T) {
	cluster := ClusterSpec{
		Servers: map[string]ServerSpec{
			"cluster-a-1": {},
			"cluster-a-2": {},
			"cluster-a-3": {},
		},
	}

	names := cluster.ServerNames()
	sort.Strings(names)
	want := []string{"cluster-a-1", "cluster-a-2", "cluster-a-3"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("ServerNames() = %v, want %v", names, want)
	}
}
