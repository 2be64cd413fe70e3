package script

import (
	"fmt"

	"github.com/maglevlabs/mast/pkg/canonical"
)

// Serialize encodes s as canonical JSON. Serialization is deterministic:
// deep-equal scripts serialize to identical bytes, and deserializing then
// re-serializing any output reproduces it exactly.
func Serialize(s *TestScript) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("serialize: nil script")
	}
	return canonical.Marshal(s)
}

// Deserialize decodes a step-based script from JSON. Legacy documents are
// rejected; migrate them first. The returned script has non-nil collections
// throughout.
func Deserialize(data []byte) (*TestScript, error) {
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, err
	}
	if doc.Format != FormatStep {
		return nil, fmt.Errorf("deserialize: document is %s format, not step-based", doc.Format)
	}
	return doc.Script, nil
}

// Digest returns the SHA-256 hex digest of the canonical encoding of s.
// Two scripts share a digest exactly when they serialize identically.
func Digest(s *TestScript) (string, error) {
	b, err := Serialize(s)
	if err != nil {
		return "", err
	}
	return canonical.HashBytes(b), nil
}
