// internal/models/user.go
package models

import "time"

// UserProfile is the aggregate record kept per user.
// Counters only move forward; ClearUserData resets them to zero but the
// row itself, its userId and createdAt survive.
type UserProfile struct {
	UserID                 string         `json:"userId" db:"user_id"`
	CreatedAt              time.Time      `json:"createdAt" db:"created_at"`
	TotalTests             int            `json:"totalTests" db:"total_tests"`
	AIConsultations        int            `json:"aiConsultations" db:"ai_consultations"`
	FavoriteCategoryCounts map[string]int `json:"favoriteCategoryCounts" db:"favorite_categories"`
}

// DefaultProfile is what reads degrade to when the store is unavailable.
func DefaultProfile(userID string) *UserProfile {
	return &UserProfile{
		UserID:                 userID,
		CreatedAt:              time.Now().UTC(),
		FavoriteCategoryCounts: map[string]int{},
	}
}

// FavoriteCategory returns the category with the highest counter, empty
// when nothing has been counted yet.
func (p *UserProfile) FavoriteCategory() string {
	best, bestCount := "", 0
	for cat, n := range p.FavoriteCategoryCounts {
		if n > bestCount || (n == bestCount && best != "" && cat < best) {
			best, bestCount = cat, n
		}
	}
	return best
}

// TestResult is one completed questionnaire run. Append-only.
type TestResult struct {
	ID       int64     `json:"id" db:"id"`
	UserID   string    `json:"userId" db:"user_id"`
	TakenAt  time.Time `json:"takenAt" db:"taken_at"`
	TestType string    `json:"testType" db:"test_type"`
	Results  []Match   `json:"results" db:"results"`
	Answers  AnswerSet `json:"answers" db:"preferences"`
}

// AISession is one completed AI consultation. Append-only.
type AISession struct {
	ID             int64     `json:"id" db:"id"`
	UserID         string    `json:"userId" db:"user_id"`
	HeldAt         time.Time `json:"heldAt" db:"held_at"`
	Turns          int       `json:"turns" db:"turns"`
	Recommendation string    `json:"recommendation" db:"recommendations"`
}

// Favorite is a career a user saved. Unique per (user, name).
type Favorite struct {
	ID       int64     `json:"id" db:"id"`
	UserID   string    `json:"userId" db:"user_id"`
	Name     string    `json:"name" db:"name"`
	Category string    `json:"category" db:"category"`
	Salary   string    `json:"salary" db:"salary"`
	AddedAt  time.Time `json:"addedAt" db:"added_at"`
}

// ProfileStats is the aggregate view the stats screen renders.
type ProfileStats struct {
	UserID           string    `json:"userId"`
	MemberSince      time.Time `json:"memberSince"`
	TotalTests       int       `json:"totalTests"`
	AIConsultations  int       `json:"aiConsultations"`
	FavoritesCount   int       `json:"favoritesCount"`
	AchievementCount int       `json:"achievementCount"`
	FavoriteCategory string    `json:"favoriteCategory,omitempty"`
	DaysActive       int       `json:"daysActive"`
}
