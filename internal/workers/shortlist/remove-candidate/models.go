// internal/workers/shortlist/remove-candidate/models.go
package removecandidate

type Input struct {
	EntryID string `json:"entryId"`
}

type Output struct {
	Removed bool   `json:"removed"`
	EntryID string `json:"entryId"`
}

func GetInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"entryId"},
		"properties": map[string]interface{}{
			// entries written by older clients carry numeric ids
			"entryId": map[string]interface{}{
				"type":      []interface{}{"string", "number"},
				"minLength": 1,
			},
		},
	}
}
