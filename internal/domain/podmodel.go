package domain

import corev1 "k8s.io/api/core/v1"

// PodModel is the desired shape of one server's pod, partitioned into
// the fields that participate in CREATE/PATCH/ROLL comparison
// (Hashed) and the fields a pod step context applies unconditionally
// without ever forcing a rebuild (NonHashed). Splitting the two lets a
// step add a label or env override on every reconciliation without
// that alone triggering a roll.
type PodModel struct {
	Identity Identity

	Hashed    HashableFields
	PodHash   string
	NonHashed NonHashedFields

	Template *corev1.Pod
}

// NonHashedFields are applied to every pod regardless of whether its
// hash has changed: annotations a controller stamps after the fact
// (introspect version, last-probed-at) and the labels the gate and
// roll coordinator rely on for selection.
type NonHashedFields struct {
	IntrospectVersion string
	ToBeRolled        bool
}

// PodModelBuilder produces the desired PodModel for one server. It is
// the seam between the kernel, which only ever compares and hashes a
// PodModel, and the collaborator responsible for turning a
// declaration's image/env/resources into an actual corev1.Pod
// template — translation this package deliberately does not perform
// itself.
type PodModelBuilder interface {
	Build(id Identity, snapshot *Snapshot) (PodModel, error)
}

// WithHash returns a copy of m with PodHash computed from m.Hashed.
func (m PodModel) WithHash() (PodModel, error) {
	h, err := Hash(m.Hashed)
	if err != nil {
		return PodModel{}, err
	}
	m.PodHash = h
	return m, nil
}
