// Package schema generates JSON Schema documents for the persisted script
// formats and checks raw script files against them. The schemas are
// reflected from the Go types, so they never drift from what the decoder
// accepts.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	sjsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/maglevlabs/mast/pkg/script"
	"github.com/maglevlabs/mast/pkg/validate"
)

// PhaseSchema marks findings produced by schema checking.
const PhaseSchema = "schema"

// GenerateScriptSchema produces a JSON Schema Draft 2020-12 document from
// the step-based TestScript Go types.
func GenerateScriptSchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	s := r.Reflect(&script.TestScript{})
	s.ID = "https://github.com/maglevlabs/mast/schemas/test-script.json"
	s.Title = "Test Script — step-based format"
	s.Description = "Schema for step-based test script JSON documents (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal script schema: %w", err)
	}
	return data, nil
}

// GenerateLegacySchema produces a JSON Schema Draft 2020-12 document from
// the legacy flat-recording Go types.
func GenerateLegacySchema() ([]byte, error) {
	r := new(jsonschema.Reflector)
	s := r.Reflect(&script.LegacyScript{})
	s.ID = "https://github.com/maglevlabs/mast/schemas/legacy-script.json"
	s.Title = "Legacy Script — flat recording format"
	s.Description = "Schema for pre-step flat recording JSON documents (Draft 2020-12)"

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal legacy schema: %w", err)
	}
	return data, nil
}

// CheckBytes validates a raw script file against the generated schema for
// its detected format. Findings carry the schema phase; failures inside the
// checker itself surface as findings too, so callers always get a list.
func CheckBytes(raw []byte) []*validate.ValidationError {
	var schemaJSON []byte
	var err error
	var name string

	switch script.DetectFormat(raw) {
	case script.FormatStep:
		name = "test-script.json"
		schemaJSON, err = GenerateScriptSchema()
	case script.FormatLegacy:
		name = "legacy-script.json"
		schemaJSON, err = GenerateLegacySchema()
	default:
		return []*validate.ValidationError{validate.Errorf(PhaseSchema, "",
			"unrecognized script format: neither steps nor actions present")}
	}
	if err != nil {
		return []*validate.ValidationError{validate.Errorf(PhaseSchema, "",
			"generate schema: %v", err)}
	}

	sch, err := compile(name, schemaJSON)
	if err != nil {
		return []*validate.ValidationError{validate.Errorf(PhaseSchema, "",
			"compile schema: %v", err)}
	}

	doc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return []*validate.ValidationError{validate.Errorf(PhaseSchema, "",
			"parse document: %v", err)}
	}

	if err := sch.Validate(doc); err != nil {
		var errs []*validate.ValidationError
		if ve, ok := err.(*sjsonschema.ValidationError); ok {
			for _, cause := range flatten(ve) {
				errs = append(errs, validate.Errorf(PhaseSchema,
					strings.Join(cause.InstanceLocation, "/"),
					"%v", cause.ErrorKind))
			}
		} else {
			errs = append(errs, validate.Errorf(PhaseSchema, "", "%v", err))
		}
		return errs
	}
	return nil
}

func compile(name string, schemaJSON []byte) (*sjsonschema.Schema, error) {
	schemaDoc, err := sjsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, err
	}
	c := sjsonschema.NewCompiler()
	if err := c.AddResource(name, schemaDoc); err != nil {
		return nil, err
	}
	return c.Compile(name)
}

// flatten recursively collects all leaf validation errors.
func flatten(ve *sjsonschema.ValidationError) []*sjsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*sjsonschema.ValidationError{ve}
	}
	var flat []*sjsonschema.ValidationError
	for _, cause := range ve.Causes {
		flat = append(flat, flatten(cause)...)
	}
	return flat
}
