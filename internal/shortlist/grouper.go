package shortlist

import (
	"time"

	"talent-shortlist/internal/models"
)

const (
	DefaultFallbackPhase       = "General Application"
	DefaultFallbackApplication = "Unknown Application"
)

// ApplicationGroup is the set of candidates shortlisted for one job application
// within a phase.
type ApplicationGroup struct {
	ApplicationKey string                   `json:"applicationKey"`
	DisplayTitle   string                   `json:"displayTitle"`
	PostedDate     string                   `json:"postedDate"`
	Candidates     []models.CandidateRecord `json:"candidates"`
}

type PhaseGroup struct {
	PhaseName    string             `json:"phaseName"`
	Applications []ApplicationGroup `json:"applications"`
}

// Grouper projects a flat shortlist into phase -> application -> candidates.
// Phases and applications appear in the order they are first seen.
type Grouper struct {
	FallbackPhase       string
	FallbackApplication string
	Now                 func() time.Time
}

func NewGrouper(fallbackPhase, fallbackApplication string) *Grouper {
	return &Grouper{
		FallbackPhase:       fallbackPhase,
		FallbackApplication: fallbackApplication,
		Now:                 time.Now,
	}
}

// Group is pure: it does not modify records and the same input on the same day
// yields the same output.
func (g *Grouper) Group(records []models.CandidateRecord) []PhaseGroup {
	groups := []PhaseGroup{}
	if len(records) == 0 {
		return groups
	}

	today := g.now().Format(models.DateLayout)
	phaseIdx := make(map[string]int)
	appIdx := make(map[string]map[string]int)

	for _, rec := range records {
		phase := rec.ShortlistedFrom
		if phase == "" {
			phase = g.fallbackPhase()
		}
		pi, ok := phaseIdx[phase]
		if !ok {
			pi = len(groups)
			phaseIdx[phase] = pi
			appIdx[phase] = make(map[string]int)
			groups = append(groups, PhaseGroup{PhaseName: phase, Applications: []ApplicationGroup{}})
		}

		app := g.applicationName(rec)
		ai, ok := appIdx[phase][app]
		if !ok {
			posted := rec.ShortlistedDate
			if posted == "" {
				posted = today
			}
			ai = len(groups[pi].Applications)
			appIdx[phase][app] = ai
			groups[pi].Applications = append(groups[pi].Applications, ApplicationGroup{
				ApplicationKey: app,
				DisplayTitle:   app,
				PostedDate:     posted,
			})
		}

		a := &groups[pi].Applications[ai]
		a.Candidates = append(a.Candidates, rec.Clone())
	}
	return groups
}

func (g *Grouper) applicationName(rec models.CandidateRecord) string {
	if rec.ApplicationLabel != "" {
		return rec.ApplicationLabel
	}
	if name := rec.LegacyApplicationName(); name != "" {
		return name
	}
	if g.FallbackApplication != "" {
		return g.FallbackApplication
	}
	return DefaultFallbackApplication
}

func (g *Grouper) fallbackPhase() string {
	if g.FallbackPhase != "" {
		return g.FallbackPhase
	}
	return DefaultFallbackPhase
}

func (g *Grouper) now() time.Time {
	if g.Now != nil {
		return g.Now()
	}
	return time.Now()
}
