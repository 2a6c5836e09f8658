// internal/matching/engine_test.go
package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerrors "career-advisor/internal/common/errors"
	"career-advisor/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestCatalog() []models.CareerProfile {
	return []models.CareerProfile{
		{ID: 1, Name: "Data Scientist", Category: "technology", Audience: []string{"adult"},
			WorksWithPeople: false, RiskTolerant: true, Tags: []string{"high_growth"}},
		{ID: 2, Name: "Backend Developer", Category: "technology", Audience: []string{"teen", "adult"},
			WorksWithPeople: false, RiskTolerant: false, Tags: []string{"high_growth"}},
		{ID: 3, Name: "Engineering Manager", Category: "technology", Audience: []string{"adult"},
			WorksWithPeople: true, RiskTolerant: false},
		{ID: 4, Name: "QA Engineer", Category: "technology", Audience: []string{"teen", "adult"},
			WorksWithPeople: false, RiskTolerant: false},
		{ID: 5, Name: "UX Designer", Category: "creative", Audience: []string{"teen", "adult"},
			WorksWithPeople: true, RiskTolerant: false, Tags: []string{"high_growth"}},
		{ID: 6, Name: "Startup Founder", Category: "business", Audience: []string{"adult"},
			WorksWithPeople: true, RiskTolerant: true, Tags: []string{"high_growth"}},
	}
}

func createAnswers(audience, category string, people, risky bool) models.AnswerSet {
	return models.AnswerSet{
		Audience:        audience,
		Category:        category,
		WorksWithPeople: people,
		RiskTolerant:    risky,
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestEngine_Rank_StrictPass(t *testing.T) {
	engine := NewEngine(3)

	matches, err := engine.Rank(createTestCatalog(), createAnswers("adult", "technology", false, true))
	require.NoError(t, err)
	require.Len(t, matches, 3)

	// The adult solo risk-taker lands on Data Scientist at full score.
	assert.Equal(t, "Data Scientist", matches[0].Profile.Name)
	assert.Equal(t, 25, matches[0].Score)
	assert.False(t, matches[0].LowConfidence)

	assert.Equal(t, "Backend Developer", matches[1].Profile.Name)
	assert.Equal(t, 15, matches[1].Score)
	assert.Equal(t, "QA Engineer", matches[2].Profile.Name)
	assert.Equal(t, 10, matches[2].Score)
}

func TestEngine_Rank_TiesKeepCatalogOrder(t *testing.T) {
	engine := NewEngine(3)
	catalog := []models.CareerProfile{
		{ID: 1, Name: "First", Category: "technology", Audience: []string{"adult"}},
		{ID: 2, Name: "Second", Category: "technology", Audience: []string{"adult"}},
		{ID: 3, Name: "Third", Category: "technology", Audience: []string{"adult"}},
	}

	matches, err := engine.Rank(catalog, createAnswers("adult", "technology", true, true))
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, "First", matches[0].Profile.Name)
	assert.Equal(t, "Second", matches[1].Profile.Name)
	assert.Equal(t, "Third", matches[2].Profile.Name)
}

func TestEngine_Rank_LimitsResults(t *testing.T) {
	engine := NewEngine(2)

	matches, err := engine.Rank(createTestCatalog(), createAnswers("adult", "technology", false, false))
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

// ==========================
// Widened Fallback Tests
// ==========================

func TestEngine_Rank_WidenedFallback(t *testing.T) {
	engine := NewEngine(3)

	// No teen careers in business: strict pass is empty, the widened
	// pass unions audience and category matches.
	matches, err := engine.Rank(createTestCatalog(), createAnswers("teen", "business", true, true))
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	for _, m := range matches {
		assert.True(t, m.LowConfidence, "widened results must be flagged")
	}
	// Startup Founder matches via category and scores highest.
	assert.Equal(t, "Startup Founder", matches[0].Profile.Name)
	assert.Equal(t, 25, matches[0].Score)
}

func TestEngine_Rank_NoMatchFound(t *testing.T) {
	engine := NewEngine(3)
	catalog := []models.CareerProfile{
		{ID: 1, Name: "Only", Category: "science", Audience: []string{"adult"}},
	}

	matches, err := engine.Rank(catalog, createAnswers("teen", "technology", false, false))
	assert.Nil(t, matches)
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeNoMatchFound, cerrors.GetCode(err))
}

func TestEngine_Rank_EmptyCatalog(t *testing.T) {
	engine := NewEngine(3)

	_, err := engine.Rank(nil, createAnswers("adult", "technology", false, false))
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeNoMatchFound, cerrors.GetCode(err))
}

// ==========================
// Scoring Tests
// ==========================

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		profile  models.CareerProfile
		answers  models.AnswerSet
		expected int
	}{
		{
			name: "all components",
			profile: models.CareerProfile{WorksWithPeople: true, RiskTolerant: true,
				Tags: []string{"high_growth"}},
			answers:  models.AnswerSet{WorksWithPeople: true, RiskTolerant: true},
			expected: 25,
		},
		{
			name:     "work style only",
			profile:  models.CareerProfile{WorksWithPeople: false, RiskTolerant: true},
			answers:  models.AnswerSet{WorksWithPeople: false, RiskTolerant: false},
			expected: 10,
		},
		{
			name:     "risk only",
			profile:  models.CareerProfile{WorksWithPeople: true, RiskTolerant: false},
			answers:  models.AnswerSet{WorksWithPeople: false, RiskTolerant: false},
			expected: 10,
		},
		{
			name:     "high growth only",
			profile:  models.CareerProfile{WorksWithPeople: true, RiskTolerant: true, Tags: []string{"high_growth"}},
			answers:  models.AnswerSet{WorksWithPeople: false, RiskTolerant: false},
			expected: 5,
		},
		{
			name:     "nothing matches",
			profile:  models.CareerProfile{WorksWithPeople: true, RiskTolerant: true},
			answers:  models.AnswerSet{WorksWithPeople: false, RiskTolerant: false},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Score(tt.profile, tt.answers))
		})
	}
}

// ==========================
// Benchmarks
// ==========================

func BenchmarkEngine_Rank(b *testing.B) {
	engine := NewEngine(3)
	catalog := createTestCatalog()
	answers := createAnswers("adult", "technology", false, true)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = engine.Rank(catalog, answers)
	}
}
