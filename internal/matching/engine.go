// internal/matching/engine.go

// Package matching ranks catalog careers against a questionnaire
// answer set. Pure, no I/O.
package matching

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"career-advisor/internal/common/errors"
	"career-advisor/internal/common/metrics"
	"career-advisor/internal/models"
)

const (
	scoreWorkStyle  = 10
	scoreRisk       = 10
	scoreHighGrowth = 5

	tagHighGrowth = "high_growth"
)

// Engine scores and ranks careers. Limit caps the result length.
type Engine struct {
	Limit int
}

func NewEngine(limit int) *Engine {
	if limit <= 0 {
		limit = 3
	}
	return &Engine{Limit: limit}
}

// Rank runs the two-pass match over the given catalog snapshot:
// a strict audience+category pass first, then a widened audience-or-
// category pass flagged low-confidence. Both empty yields
// NO_MATCH_FOUND.
func (e *Engine) Rank(profiles []models.CareerProfile, answers models.AnswerSet) ([]models.Match, error) {
	start := time.Now()
	defer func() {
		metrics.MatchDuration.Observe(time.Since(start).Seconds())
	}()

	strict := filter(profiles, func(p models.CareerProfile) bool {
		return p.ForAudience(answers.Audience) && strings.EqualFold(p.Category, answers.Category)
	})
	if len(strict) > 0 {
		return e.rank(strict, answers, false), nil
	}

	widened := filter(profiles, func(p models.CareerProfile) bool {
		return p.ForAudience(answers.Audience) || strings.EqualFold(p.Category, answers.Category)
	})
	if len(widened) > 0 {
		return e.rank(widened, answers, true), nil
	}

	return nil, errors.NewNoMatchFoundError(
		fmt.Sprintf("audience=%s category=%s", answers.Audience, answers.Category))
}

func (e *Engine) rank(candidates []models.CareerProfile, answers models.AnswerSet, lowConfidence bool) []models.Match {
	matches := make([]models.Match, 0, len(candidates))
	for _, p := range candidates {
		matches = append(matches, models.Match{
			Profile:       p,
			Score:         Score(p, answers),
			LowConfidence: lowConfidence,
		})
	}

	// Stable: catalog order breaks ties.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > e.Limit {
		matches = matches[:e.Limit]
	}
	return matches
}

// Score computes the additive preference score for one profile.
func Score(p models.CareerProfile, answers models.AnswerSet) int {
	score := 0
	if p.WorksWithPeople == answers.WorksWithPeople {
		score += scoreWorkStyle
	}
	if p.RiskTolerant == answers.RiskTolerant {
		score += scoreRisk
	}
	if p.HasTag(tagHighGrowth) {
		score += scoreHighGrowth
	}
	return score
}

func filter(profiles []models.CareerProfile, keep func(models.CareerProfile) bool) []models.CareerProfile {
	var out []models.CareerProfile
	for _, p := range profiles {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out
}
