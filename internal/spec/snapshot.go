package spec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// SnapshotFile is the name of the snapshot written next to generated output
const SnapshotFile = "text2api.spec.json"

// MarshalSnapshot serializes a validated specification in the persisted
// snapshot format
func MarshalSnapshot(v *Validated) ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("cannot snapshot a nil specification")
	}
	data, err := json.MarshalIndent(v.spec, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal specification: %w", err)
	}
	return append(data, '\n'), nil
}

// UnmarshalSnapshot parses a snapshot and validates it again. Validation is
// idempotent, so a snapshot of a validated specification yields an identical
// specification.
func UnmarshalSnapshot(data []byte) (*Validated, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var s Specification
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return Validate(s)
}

// MarshalJSON renders the validated specification with the snapshot schema
func (v *Validated) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.spec)
}
