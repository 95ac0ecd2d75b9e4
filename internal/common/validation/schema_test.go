package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCandidate(t *testing.T) {
	tests := []struct {
		name            string
		doc             map[string]interface{}
		wantValid       bool
		identityMissing bool
	}{
		{
			name:      "name and email present",
			doc:       map[string]interface{}{"name": "Ada Lovelace", "email": "ada@x.com"},
			wantValid: true,
		},
		{
			name:            "email missing",
			doc:             map[string]interface{}{"name": "Ada Lovelace"},
			identityMissing: true,
		},
		{
			name:            "name empty",
			doc:             map[string]interface{}{"name": "", "email": "ada@x.com"},
			identityMissing: true,
		},
		{
			name:            "name whitespace only",
			doc:             map[string]interface{}{"name": "   ", "email": "ada@x.com"},
			identityMissing: true,
		},
		{
			name:            "email wrong type",
			doc:             map[string]interface{}{"name": "Ada", "email": 42},
			identityMissing: true,
		},
		{
			name: "skills must be strings",
			doc: map[string]interface{}{
				"name": "Ada", "email": "ada@x.com", "skills": []interface{}{"go", 3},
			},
		},
		{
			name: "free-form phase accepted",
			doc: map[string]interface{}{
				"name": "Ada", "email": "ada@x.com", "shortlistedFrom": "Culture Fit Chat",
			},
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ValidateCandidate(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.wantValid, res.Valid, res.Summary())
			assert.Equal(t, tt.identityMissing, res.IdentityMissing(), res.Summary())
			if !tt.wantValid {
				assert.NotEmpty(t, res.Summary())
			}
		})
	}
}

func TestValidateAgainst_EmptySchemaAcceptsAnything(t *testing.T) {
	res, err := ValidateAgainst(nil, map[string]interface{}{"x": 1})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidateAgainst_RequiredProperty(t *testing.T) {
	schema := map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"id"},
	}
	res, err := ValidateAgainst(schema, map[string]interface{}{})
	require.NoError(t, err)
	require.False(t, res.Valid)
	assert.Equal(t, "id", res.Errors[0].Field)
	assert.Equal(t, "REQUIRED", res.Errors[0].Code)
}
