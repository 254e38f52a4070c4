package domain

// Labels and annotations owned by the reconciliation kernel. All pods,
// services, and jobs the kernel manages carry these; nothing else in
// the cluster should set them.
const (
	// LabelDomainUID identifies the owning Domain.
	LabelDomainUID = "weblogic.oracle/domainUID"
	// LabelClusterName identifies cluster membership; absent on the
	// administrative server's pod.
	LabelClusterName = "weblogic.oracle/clusterName"
	// LabelServerName identifies which server a pod represents.
	// Required on every pod the kernel manages.
	LabelServerName = "weblogic.oracle/serverName"
	// LabelToBeRolled marks a pod as scheduled for replacement by the
	// Roll Coordinator, with value "true". Its presence means "the Roll
	// Coordinator owns this pod's next transition; do not recompute a
	// roll decision for it."
	LabelToBeRolled = "weblogic.oracle/to-be-rolled"

	// LabelValueTrue is the only value LabelToBeRolled is ever set to.
	LabelValueTrue = "true"

	// AnnotationPodHash carries the hex-encoded SHA-256 of a pod's
	// hashed fields (see Hash). Equality with the freshly computed
	// desired hash means the pod is structurally current.
	AnnotationPodHash = "weblogic.oracle/pod-hash"

	// AnnotationIntrospectVersion, when it differs between the desired
	// and live pod, indicates the admin-server rebuild trigger: the
	// desired pod's labels/annotations reflect a topology diff the
	// external DomainProcessor detected, and the replace path must
	// enqueue re-introspection instead of a plain roll.
	AnnotationIntrospectVersion = "weblogic.oracle/introspectVersion"
)
