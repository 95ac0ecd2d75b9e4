// internal/workers/shortlist/add-candidate/models.go
package addcandidate

import "talent-shortlist/internal/models"

// Input carries the candidate a workflow screen decided to shortlist. Phase and
// ApplicationLabel fill the candidate's own fields when those are empty.
type Input struct {
	Candidate        models.CandidateRecord `json:"candidate"`
	Phase            string                 `json:"phase,omitempty"`
	ApplicationLabel string                 `json:"applicationLabel,omitempty"`
}

type Output struct {
	Added         bool   `json:"added"`
	EntryID       string `json:"entryId"`
	Reason        string `json:"reason,omitempty"`
	ShortlistedAt string `json:"shortlistedAt,omitempty"`
}

func GetInputSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"candidate"},
		"properties": map[string]interface{}{
			"candidate":        map[string]interface{}{"type": "object"},
			"phase":            map[string]interface{}{"type": "string"},
			"applicationLabel": map[string]interface{}{"type": "string"},
		},
	}
}
