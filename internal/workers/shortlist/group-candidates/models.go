// internal/workers/shortlist/group-candidates/models.go
package groupcandidates

import "talent-shortlist/internal/shortlist"

// Input optionally narrows the projection to one phase.
type Input struct {
	Phase string `json:"phase,omitempty"`
}

type Output struct {
	Groups         []shortlist.PhaseGroup `json:"groups"`
	PhaseCount     int                    `json:"phaseCount"`
	CandidateCount int                    `json:"candidateCount"`
}
