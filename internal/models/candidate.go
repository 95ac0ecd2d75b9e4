// internal/models/candidate.go
package models

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Workflow phases that shortlist candidates. The phase field is free-form; these are
// the values the recruitment screens emit.
const (
	PhaseSemanticAnalysis    = "Semantic Analysis"
	PhaseTechnicalAssessment = "Technical Assessment"
	PhaseTechnicalInterview  = "Technical Interview"
	PhaseHRInterview         = "HR Interview"
)

// DateLayout is the format of ShortlistedDate and PostedDate.
const DateLayout = "2006-01-02"

// CandidateRecord is a snapshot of a candidate taken when they were shortlisted.
// Name and Email together identify the entry; ID is assigned by the store.
type CandidateRecord struct {
	ID               EntryID         `json:"id,omitempty"`
	Name             string          `json:"name"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone,omitempty"`
	Experience       string          `json:"experience,omitempty"`
	Education        string          `json:"education,omitempty"`
	Summary          string          `json:"summary,omitempty"`
	Skills           []string        `json:"skills,omitempty"`
	Projects         []string        `json:"projects,omitempty"`
	Score            json.RawMessage `json:"score,omitempty"`
	Match            json.RawMessage `json:"match,omitempty"`
	ShortlistedFrom  string          `json:"shortlistedFrom,omitempty"`
	ShortlistedDate  string          `json:"shortlistedDate,omitempty"`
	ApplicationLabel string          `json:"applicationLabel,omitempty"`
	JobTitle         string          `json:"jobTitle,omitempty"`
	ApplicationName  string          `json:"applicationName,omitempty"`
	Position         string          `json:"position,omitempty"`
	ApplicationTitle string          `json:"applicationTitle,omitempty"`
	Role             string          `json:"role,omitempty"`
}

// EntryID is the store-assigned identifier of a shortlist entry. It decodes from
// either a JSON string or a JSON number so that entries written by older clients,
// which used numeric timestamps, still load.
type EntryID string

func (id *EntryID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = EntryID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = EntryID(n.String())
	return nil
}

func (id EntryID) String() string {
	return string(id)
}

// SameIdentity reports whether two records are the same shortlist entry.
// Comparison is exact and case-sensitive.
func (c CandidateRecord) SameIdentity(other CandidateRecord) bool {
	return c.Name == other.Name && c.Email == other.Email
}

// LegacyApplicationName walks the pre-label field chain used by older producers.
func (c CandidateRecord) LegacyApplicationName() string {
	for _, v := range []string{c.JobTitle, c.ApplicationName, c.Position, c.ApplicationTitle, c.Role} {
		if v != "" {
			return v
		}
	}
	return ""
}

// ScoreText renders Score, falling back to Match, for display. Scores are stored
// verbatim because producers send both numbers and strings such as "92%".
func (c CandidateRecord) ScoreText() string {
	for _, raw := range []json.RawMessage{c.Score, c.Match} {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
		var f float64
		if err := json.Unmarshal(raw, &f); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return strings.TrimSpace(string(raw))
	}
	return ""
}

// NumericScore returns Score (or Match) as a number when it parses as one.
func (c CandidateRecord) NumericScore() (float64, bool) {
	text := strings.TrimSuffix(strings.TrimSpace(c.ScoreText()), "%")
	if text == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Clone returns a deep copy so callers cannot alias the store's slices.
func (c CandidateRecord) Clone() CandidateRecord {
	out := c
	if c.Skills != nil {
		out.Skills = append([]string(nil), c.Skills...)
	}
	if c.Projects != nil {
		out.Projects = append([]string(nil), c.Projects...)
	}
	if c.Score != nil {
		out.Score = append(json.RawMessage(nil), c.Score...)
	}
	if c.Match != nil {
		out.Match = append(json.RawMessage(nil), c.Match...)
	}
	return out
}
