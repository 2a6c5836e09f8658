// internal/profile/aggregator.go

// Package profile aggregates per-user history: counters, results,
// favorites and the stats view.
package profile

import (
	"context"
	"time"

	"career-advisor/internal/common/logger"
	"career-advisor/internal/common/metrics"
	"career-advisor/internal/models"
	"career-advisor/internal/storage"
)

// Aggregator is the write and read facade over the stores.
type Aggregator struct {
	store  storage.Store
	logger logger.Logger
}

func NewAggregator(store storage.Store, log logger.Logger) *Aggregator {
	return &Aggregator{store: store, logger: log}
}

// RecordTestResult appends the result, bumps the test counter and
// credits the top-2 result categories toward the favorite-category
// tally. Returns the new total test count.
func (a *Aggregator) RecordTestResult(ctx context.Context, userID string, matches []models.Match, answers models.AnswerSet) (int, error) {
	result := &models.TestResult{
		UserID:   userID,
		TestType: "classic",
		Results:  matches,
		Answers:  answers,
	}
	if err := a.store.SaveTestResult(ctx, result); err != nil {
		return 0, err
	}
	if err := a.store.IncrementTests(ctx, userID); err != nil {
		return 0, err
	}

	var topCategories []string
	for i, m := range matches {
		if i >= 2 {
			break
		}
		topCategories = append(topCategories, m.Profile.Category)
	}
	if err := a.store.BumpFavoriteCategories(ctx, userID, topCategories); err != nil {
		return 0, err
	}

	metrics.TestsCompleted.WithLabelValues("classic").Inc()

	p, err := a.store.GetProfile(ctx, userID)
	if err != nil || p == nil {
		// Counter already committed; report at least this run.
		return 1, nil
	}
	return p.TotalTests, nil
}

// RecordConsultation appends the AI session and bumps the consultation
// counter. Returns the new consultation count.
func (a *Aggregator) RecordConsultation(ctx context.Context, userID string, turns int, recommendation string) (int, error) {
	if err := a.store.SaveAISession(ctx, &models.AISession{
		UserID:         userID,
		Turns:          turns,
		Recommendation: recommendation,
	}); err != nil {
		return 0, err
	}
	if err := a.store.IncrementConsultations(ctx, userID); err != nil {
		return 0, err
	}

	metrics.ConsultationsCompleted.Inc()

	p, err := a.store.GetProfile(ctx, userID)
	if err != nil || p == nil {
		return 1, nil
	}
	return p.AIConsultations, nil
}

// AddFavorite saves the career, true on first insert and false when the
// user already holds a favorite of that name. Returns the favorite
// count after the call.
func (a *Aggregator) AddFavorite(ctx context.Context, userID string, career models.CareerProfile) (bool, int, error) {
	added, err := a.store.AddFavorite(ctx, &models.Favorite{
		UserID:   userID,
		Name:     career.Name,
		Category: career.Category,
		Salary:   career.Salary,
	})
	if err != nil {
		return false, 0, err
	}
	count, err := a.store.CountFavorites(ctx, userID)
	if err != nil {
		return added, 0, err
	}
	return added, count, nil
}

// RemoveFavorite deletes by name, false when nothing was stored.
func (a *Aggregator) RemoveFavorite(ctx context.Context, userID, name string) (bool, error) {
	return a.store.RemoveFavorite(ctx, userID, name)
}

// Favorites lists the user's saved careers.
func (a *Aggregator) Favorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	return a.store.Favorites(ctx, userID)
}

// GetProfile returns the aggregate row. Read failures degrade to the
// default profile so callers keep working; writes never degrade.
func (a *Aggregator) GetProfile(ctx context.Context, userID string) *models.UserProfile {
	p, err := a.store.GetProfile(ctx, userID)
	if err != nil {
		a.logger.Warn("Profile read degraded to default", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
		return models.DefaultProfile(userID)
	}
	if p == nil {
		return models.DefaultProfile(userID)
	}
	return p
}

// RecentResults returns the newest test results, newest first.
func (a *Aggregator) RecentResults(ctx context.Context, userID string, limit int) ([]models.TestResult, error) {
	if limit <= 0 {
		limit = 5
	}
	return a.store.RecentResults(ctx, userID, limit)
}

// Stats builds the stats screen view.
func (a *Aggregator) Stats(ctx context.Context, userID string) (*models.ProfileStats, error) {
	p := a.GetProfile(ctx, userID)

	favCount, err := a.store.CountFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	achCount, err := a.store.CountUnlocked(ctx, userID)
	if err != nil {
		return nil, err
	}

	days := int(time.Since(p.CreatedAt).Hours()/24) + 1
	return &models.ProfileStats{
		UserID:           userID,
		MemberSince:      p.CreatedAt,
		TotalTests:       p.TotalTests,
		AIConsultations:  p.AIConsultations,
		FavoritesCount:   favCount,
		AchievementCount: achCount,
		FavoriteCategory: p.FavoriteCategory(),
		DaysActive:       days,
	}, nil
}

// ClearUserData zeroes counters and deletes results, favorites and
// achievements. The profile row, its userID and createdAt survive.
func (a *Aggregator) ClearUserData(ctx context.Context, userID string) error {
	if err := a.store.ResetProfile(ctx, userID); err != nil {
		return err
	}
	if err := a.store.DeleteResults(ctx, userID); err != nil {
		return err
	}
	if err := a.store.DeleteFavorites(ctx, userID); err != nil {
		return err
	}
	if err := a.store.DeleteAchievements(ctx, userID); err != nil {
		return err
	}
	a.logger.Info("User data cleared", map[string]interface{}{"userId": userID})
	return nil
}

// EnsureProfile creates the aggregate row on first contact.
func (a *Aggregator) EnsureProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return a.store.EnsureProfile(ctx, userID)
}
