package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// HashableFields is the subset of a server's desired pod shape that
// participates in change detection: touching any of these forces a
// CREATE (for a new pod) or a ROLL (for a live one), never a PATCH.
// Fields a step applies in place — readiness gates, status-only
// annotations a controller adds after the fact — are deliberately
// excluded so they don't cause spurious rolls.
type HashableFields struct {
	Image       string            `json:"image"`
	Env         map[string]string `json:"env"`
	Labels      map[string]string `json:"labels,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty"`
	Resources   string            `json:"resources,omitempty"`
}

// Hash returns a stable digest of f, suitable for storing in the
// AnnotationPodHash annotation and comparing across reconciliations
// (including across process restarts, where an in-memory equality
// check isn't available). Go's encoding/json already emits map[string]
// string keys in sorted order, so two HashableFields built from the
// same logical content always marshal identically regardless of the
// iteration order used to populate them.
func Hash(f HashableFields) (string, error) {
	b, err := json.Marshal(f)
	if err != nil {
		return "", fmt.Errorf("domain: hashing pod fields: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// MustHash is Hash for callers that have already validated f cannot
// fail to marshal (every field is a plain string or map[string]string).
func MustHash(f HashableFields) string {
	h, err := Hash(f)
	if err != nil {
		panic(err)
	}
	return h
}
