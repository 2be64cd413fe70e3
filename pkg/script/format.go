package script

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Format discriminates the two persisted document shapes.
type Format string

const (
	FormatLegacy  Format = "legacy"
	FormatStep    Format = "step"
	FormatUnknown Format = "unknown"
)

// DetectFormat classifies a raw JSON document by structure. A legacy file
// has a flat actions array and neither steps nor an action pool; anything
// carrying steps or an action pool is step-based. The rule is structural so
// existing files keep working regardless of their version string.
func DetectFormat(raw []byte) Format {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return FormatUnknown
	}
	_, hasActions := probe["actions"]
	_, hasSteps := probe["steps"]
	_, hasPool := probe["action_pool"]
	switch {
	case hasSteps || hasPool:
		return FormatStep
	case hasActions:
		return FormatLegacy
	default:
		return FormatUnknown
	}
}

// IsLegacyFormat reports whether raw is a flat pre-step document.
func IsLegacyFormat(raw []byte) bool {
	return DetectFormat(raw) == FormatLegacy
}

// IsStepBasedFormat reports whether raw is a step-based document. For any
// well-formed document exactly one of IsLegacyFormat and IsStepBasedFormat
// holds.
func IsStepBasedFormat(raw []byte) bool {
	return DetectFormat(raw) == FormatStep
}

// Document is the tagged result of parsing an arbitrary script file.
// Exactly one of Legacy and Script is set, matching Format.
type Document struct {
	Format Format
	Legacy *LegacyScript
	Script *TestScript
}

// ParseDocument classifies raw and decodes it into the matching type.
// Unknown top-level fields are rejected, like every other decoder in this
// repository.
func ParseDocument(raw []byte) (*Document, error) {
	switch DetectFormat(raw) {
	case FormatLegacy:
		var legacy LegacyScript
		if err := decodeStrict(raw, &legacy); err != nil {
			return nil, fmt.Errorf("parse legacy script: %w", err)
		}
		return &Document{Format: FormatLegacy, Legacy: &legacy}, nil
	case FormatStep:
		var ts TestScript
		if err := decodeStrict(raw, &ts); err != nil {
			return nil, fmt.Errorf("parse test script: %w", err)
		}
		normalize(&ts)
		return &Document{Format: FormatStep, Script: &ts}, nil
	default:
		return nil, fmt.Errorf("unrecognized script format: neither steps nor actions present")
	}
}

func decodeStrict(raw []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// normalize replaces nil collections with empty ones so downstream code can
// range and index without nil checks.
func normalize(ts *TestScript) {
	if ts.Steps == nil {
		ts.Steps = []TestStep{}
	}
	if ts.ActionPool == nil {
		ts.ActionPool = map[string]Action{}
	}
	if ts.Variables == nil {
		ts.Variables = map[string]string{}
	}
	for i := range ts.Steps {
		if ts.Steps[i].ActionIDs == nil {
			ts.Steps[i].ActionIDs = []string{}
		}
	}
}
