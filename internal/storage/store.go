// internal/storage/store.go

// Package storage persists user profiles, test results, consultations,
// favorites and achievements in PostgreSQL.
package storage

import (
	"context"
	"time"

	"career-advisor/internal/models"
)

// ProfileStore owns the per-user aggregate row.
type ProfileStore interface {
	EnsureProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	GetProfile(ctx context.Context, userID string) (*models.UserProfile, error)
	IncrementTests(ctx context.Context, userID string) error
	IncrementConsultations(ctx context.Context, userID string) error
	BumpFavoriteCategories(ctx context.Context, userID string, categories []string) error
	ResetProfile(ctx context.Context, userID string) error
}

// ResultStore appends completed tests and AI sessions.
type ResultStore interface {
	SaveTestResult(ctx context.Context, result *models.TestResult) error
	RecentResults(ctx context.Context, userID string, limit int) ([]models.TestResult, error)
	SaveAISession(ctx context.Context, session *models.AISession) error
	DeleteResults(ctx context.Context, userID string) error
}

// FavoriteStore keeps saved careers, unique per (user, name).
type FavoriteStore interface {
	AddFavorite(ctx context.Context, fav *models.Favorite) (bool, error)
	Favorites(ctx context.Context, userID string) ([]models.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, name string) (bool, error)
	CountFavorites(ctx context.Context, userID string) (int, error)
	DeleteFavorites(ctx context.Context, userID string) error
}

// UnlockedAchievement is a persisted unlock row.
type UnlockedAchievement struct {
	AchievementID string    `json:"achievementId" db:"achievement_id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	Icon          string    `json:"icon" db:"icon"`
	Category      string    `json:"category" db:"category"`
	UnlockedAt    time.Time `json:"unlockedAt" db:"unlocked_at"`
}

// AchievementStore records unlocks (once per user and achievement) and
// sub-threshold progress.
type AchievementStore interface {
	RecordUnlock(ctx context.Context, userID string, a UnlockedAchievement) (bool, error)
	Unlocked(ctx context.Context, userID string) ([]UnlockedAchievement, error)
	CountUnlocked(ctx context.Context, userID string) (int, error)
	SetProgress(ctx context.Context, userID, achievementID string, current int) error
	Progress(ctx context.Context, userID string) (map[string]int, error)
	DeleteAchievements(ctx context.Context, userID string) error
}

// Store is the full persistence surface backed by one database.
type Store interface {
	ProfileStore
	ResultStore
	FavoriteStore
	AchievementStore
	Migrate(ctx context.Context) error
	TableCounts(ctx context.Context) (map[string]int, error)
}
