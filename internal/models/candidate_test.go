package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameIdentity(t *testing.T) {
	a := CandidateRecord{Name: "Ada Lovelace", Email: "ada@x.com", ShortlistedFrom: PhaseSemanticAnalysis}
	b := CandidateRecord{Name: "Ada Lovelace", Email: "ada@x.com", ShortlistedFrom: PhaseTechnicalAssessment}
	c := CandidateRecord{Name: "Ada Lovelace", Email: "ADA@x.com"}

	assert.True(t, a.SameIdentity(b), "phase does not change identity")
	assert.False(t, a.SameIdentity(c), "email comparison is case-sensitive")
}

func TestLegacyApplicationName(t *testing.T) {
	tests := []struct {
		name string
		rec  CandidateRecord
		want string
	}{
		{"job title first", CandidateRecord{JobTitle: "Backend Engineer", Role: "SRE"}, "Backend Engineer"},
		{"application name", CandidateRecord{ApplicationName: "Data Platform", Position: "x"}, "Data Platform"},
		{"position", CandidateRecord{Position: "QA Lead", ApplicationTitle: "y"}, "QA Lead"},
		{"application title", CandidateRecord{ApplicationTitle: "ML Engineer"}, "ML Engineer"},
		{"role", CandidateRecord{Role: "Designer"}, "Designer"},
		{"none", CandidateRecord{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rec.LegacyApplicationName())
		})
	}
}

func TestScoreText(t *testing.T) {
	var rec CandidateRecord
	require.NoError(t, json.Unmarshal([]byte(`{"name":"a","email":"b","score":87.5}`), &rec))
	assert.Equal(t, "87.5", rec.ScoreText())
	f, ok := rec.NumericScore()
	assert.True(t, ok)
	assert.Equal(t, 87.5, f)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"a","email":"b","match":"92%"}`), &rec))
	assert.Equal(t, "92%", rec.ScoreText())
	f, ok = rec.NumericScore()
	assert.True(t, ok)
	assert.Equal(t, 92.0, f)

	assert.Equal(t, "", CandidateRecord{}.ScoreText())
	_, ok = CandidateRecord{}.NumericScore()
	assert.False(t, ok)
}

func TestCloneDoesNotAlias(t *testing.T) {
	orig := CandidateRecord{Name: "a", Email: "b", Skills: []string{"go"}, Score: json.RawMessage(`1`)}
	cp := orig.Clone()
	cp.Skills[0] = "rust"
	cp.Score[0] = '2'
	assert.Equal(t, "go", orig.Skills[0])
	assert.Equal(t, "1", string(orig.Score))
}

func TestRecordRoundTripKeepsWireNames(t *testing.T) {
	raw := `{"name":"Ada","email":"ada@x.com","shortlistedFrom":"HR Interview","shortlistedDate":"2024-05-01","jobTitle":"Backend Engineer","skills":["go","sql"]}`
	var rec CandidateRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Equal(t, PhaseHRInterview, rec.ShortlistedFrom)
	assert.Equal(t, "Backend Engineer", rec.JobTitle)
	assert.Equal(t, []string{"go", "sql"}, rec.Skills)
}

func TestEntryIDAcceptsNumbersAndStrings(t *testing.T) {
	var recs []CandidateRecord
	raw := `[{"id":1714550400000,"name":"a","email":"a@x"},{"id":"7f1c","name":"b","email":"b@x"},{"id":null,"name":"c","email":"c@x"}]`
	require.NoError(t, json.Unmarshal([]byte(raw), &recs))
	assert.Equal(t, EntryID("1714550400000"), recs[0].ID)
	assert.Equal(t, "7f1c", recs[1].ID.String())
	assert.Equal(t, EntryID(""), recs[2].ID)

	var bad CandidateRecord
	assert.Error(t, json.Unmarshal([]byte(`{"id":{"x":1}}`), &bad))
}
