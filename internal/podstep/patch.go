package podstep

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"github.com/oracle/weblogic-kubernetes-operator/internal/domain"
)

// jsonPatchOp is one RFC 6902 operation. Building the slice by hand
// rather than pulling in a diffing library keeps the set of patched
// paths exactly the small, known set the kernel ever touches: the
// introspect-version annotation and the to-be-rolled label.
type jsonPatchOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value any    `json:"value,omitempty"`
}

// buildNonHashedPatch produces the JSON-Patch body that brings an
// existing pod's non-hashed annotations/labels in line with model,
// without touching anything that would force a rebuild. Returns nil,
// nil if no field actually differs.
func buildNonHashedPatch(currentAnnotations, currentLabels map[string]string, model domain.PodModel) ([]byte, error) {
	var ops []jsonPatchOp

	if currentAnnotations[domain.AnnotationIntrospectVersion] != model.NonHashed.IntrospectVersion {
		ops = append(ops, annotationOp(currentAnnotations, domain.AnnotationIntrospectVersion, model.NonHashed.IntrospectVersion))
	}

	wantRolled := "false"
	if model.NonHashed.ToBeRolled {
		wantRolled = "true"
	}
	if currentLabels[domain.LabelToBeRolled] != wantRolled {
		ops = append(ops, labelOp(currentLabels, domain.LabelToBeRolled, wantRolled))
	}

	if len(ops) == 0 {
		return nil, nil
	}
	return encodeAndValidate(ops)
}

// buildToBeRolledPatch produces the single-op patch that marks a live
// pod as pending a roll, the JSON-Patch equivalent of the original
// implementation's "add /metadata/labels/to-be-rolled true" call.
func buildToBeRolledPatch(currentLabels map[string]string) ([]byte, error) {
	return encodeAndValidate([]jsonPatchOp{labelOp(currentLabels, domain.LabelToBeRolled, domain.LabelValueTrue)})
}

func annotationOp(existing map[string]string, key, value string) jsonPatchOp {
	return metadataOp(existing, "annotations", key, value)
}

func labelOp(existing map[string]string, key, value string) jsonPatchOp {
	return metadataOp(existing, "labels", key, value)
}

func metadataOp(existing map[string]string, field, key, value string) jsonPatchOp {
	op := "replace"
	if _, ok := existing[key]; !ok {
		op = "add"
	}
	return jsonPatchOp{
		Op:    op,
		Path:  fmt.Sprintf("/metadata/%s/%s", field, escapePatchToken(key)),
		Value: value,
	}
}

// escapePatchToken escapes '~' and '/' per RFC 6901 so a label or
// annotation key containing either can be addressed by a JSON Pointer.
func escapePatchToken(token string) string {
	out := make([]byte, 0, len(token))
	for i := 0; i < len(token); i++ {
		switch token[i] {
		case '~':
			out = append(out, '~', '0')
		case '/':
			out = append(out, '~', '1')
		default:
			out = append(out, token[i])
		}
	}
	return string(out)
}

func encodeAndValidate(ops []jsonPatchOp) ([]byte, error) {
	b, err := json.Marshal(ops)
	if err != nil {
		return nil, fmt.Errorf("podstep: encoding patch: %w", err)
	}
	if _, err := jsonpatch.DecodePatch(b); err != nil {
		return nil, fmt.Errorf("podstep: built an invalid JSON patch: %w", err)
	}
	return b, nil
}
