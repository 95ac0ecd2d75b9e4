package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// CandidateSchema is the JSON schema every record must satisfy before it reaches the
// shortlist store. Only identity is enforced; phase and date are the producer's concern.
var CandidateSchema = map[string]interface{}{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type":    "object",
	"required": []interface{}{
		"name",
		"email",
	},
	"properties": map[string]interface{}{
		"name": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
			"pattern":   `\S`,
		},
		"email": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
			"pattern":   `\S`,
		},
		"skills": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"projects": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	},
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// IdentityMissing reports whether any failure concerns name or email.
func (r *ValidationResult) IdentityMissing() bool {
	for _, e := range r.Errors {
		if e.Field == "name" || e.Field == "email" {
			return true
		}
	}
	return false
}

// Summary joins the individual failures into one line.
func (r *ValidationResult) Summary() string {
	parts := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return strings.Join(parts, "; ")
}

var candidateLoader = gojsonschema.NewGoLoader(CandidateSchema)

// ValidateDocument checks an arbitrary value (struct or decoded JSON) against schema.
func ValidateDocument(schema gojsonschema.JSONLoader, doc interface{}) (*ValidationResult, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	result, err := gojsonschema.Validate(schema, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldName(desc),
			Message: desc.Description(),
			Code:    strings.ToUpper(desc.Type()),
		})
	}
	return out, nil
}

// ValidateCandidate validates a record against CandidateSchema.
func ValidateCandidate(record interface{}) (*ValidationResult, error) {
	return ValidateDocument(candidateLoader, record)
}

// ValidateAgainst validates doc against a schema given as a decoded JSON object,
// as stored in the activity registry.
func ValidateAgainst(schema map[string]interface{}, doc interface{}) (*ValidationResult, error) {
	if len(schema) == 0 {
		return &ValidationResult{Valid: true}, nil
	}
	return ValidateDocument(gojsonschema.NewGoLoader(schema), doc)
}

// fieldName resolves the property a failure refers to. "required" failures are
// reported against the root, with the missing property in the details.
func fieldName(desc gojsonschema.ResultError) string {
	if desc.Type() == "required" {
		if p, ok := desc.Details()["property"].(string); ok {
			return p
		}
	}
	field := desc.Field()
	if field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		return "(root)"
	}
	return field
}
