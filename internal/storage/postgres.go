// internal/storage/postgres.go
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"career-advisor/internal/common/database"
	"career-advisor/internal/common/errors"
	"career-advisor/internal/common/logger"
	"career-advisor/internal/models"
)

// PostgresStore implements Store over the shared PostgresClient.
type PostgresStore struct {
	db     *database.PostgresClient
	logger logger.Logger
}

func NewPostgresStore(db *database.PostgresClient, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: log}
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS user_profiles (
		user_id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		total_tests INTEGER NOT NULL DEFAULT 0,
		ai_consultations INTEGER NOT NULL DEFAULT 0,
		favorite_categories JSONB NOT NULL DEFAULT '{}'::jsonb
	)`,
	`CREATE TABLE IF NOT EXISTS test_results (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		taken_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		test_type TEXT NOT NULL,
		results JSONB NOT NULL,
		preferences JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ai_sessions (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		held_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		turns INTEGER NOT NULL,
		recommendations TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS favorites (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		category TEXT NOT NULL,
		salary TEXT NOT NULL DEFAULT '',
		added_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS achievements (
		id BIGSERIAL PRIMARY KEY,
		user_id TEXT NOT NULL,
		achievement_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		unlocked_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, achievement_id)
	)`,
	`CREATE TABLE IF NOT EXISTS achievement_progress (
		user_id TEXT NOT NULL,
		achievement_id TEXT NOT NULL,
		current_progress INTEGER NOT NULL DEFAULT 0,
		last_updated TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (user_id, achievement_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_test_results_user ON test_results (user_id, taken_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_ai_sessions_user ON ai_sessions (user_id, held_at DESC)`,
}

// Migrate creates the schema. Idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.Exec(ctx, stmt); err != nil {
			return errors.NewPersistenceError("migrate", err)
		}
	}
	return nil
}

// ==========================
// Profiles
// ==========================

func (s *PostgresStore) EnsureProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	_, err := s.db.Exec(ctx,
		`INSERT INTO user_profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID)
	if err != nil {
		return nil, errors.NewPersistenceError("ensure_profile", err)
	}
	return s.GetProfile(ctx, userID)
}

func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	row := s.db.QueryRow(ctx,
		`SELECT user_id, created_at, total_tests, ai_consultations, favorite_categories
		 FROM user_profiles WHERE user_id = $1`,
		userID)

	var p models.UserProfile
	var rawCategories []byte
	if err := row.Scan(&p.UserID, &p.CreatedAt, &p.TotalTests, &p.AIConsultations, &rawCategories); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.NewPersistenceError("get_profile", err)
	}
	if err := json.Unmarshal(rawCategories, &p.FavoriteCategoryCounts); err != nil {
		return nil, errors.NewPersistenceError("get_profile", err)
	}
	if p.FavoriteCategoryCounts == nil {
		p.FavoriteCategoryCounts = map[string]int{}
	}
	return &p, nil
}

func (s *PostgresStore) IncrementTests(ctx context.Context, userID string) error {
	return s.bumpCounter(ctx, userID, "total_tests")
}

func (s *PostgresStore) IncrementConsultations(ctx context.Context, userID string) error {
	return s.bumpCounter(ctx, userID, "ai_consultations")
}

func (s *PostgresStore) bumpCounter(ctx context.Context, userID, column string) error {
	// column is one of two fixed names, never user input
	res, err := s.db.Exec(ctx,
		`UPDATE user_profiles SET `+column+` = `+column+` + 1 WHERE user_id = $1`,
		userID)
	if err != nil {
		return errors.NewPersistenceError("bump_"+column, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.EnsureProfile(ctx, userID); err != nil {
			return err
		}
		_, err = s.db.Exec(ctx,
			`UPDATE user_profiles SET `+column+` = `+column+` + 1 WHERE user_id = $1`,
			userID)
		if err != nil {
			return errors.NewPersistenceError("bump_"+column, err)
		}
	}
	return nil
}

func (s *PostgresStore) BumpFavoriteCategories(ctx context.Context, userID string, categories []string) error {
	if len(categories) == 0 {
		return nil
	}
	profile, err := s.EnsureProfile(ctx, userID)
	if err != nil {
		return err
	}
	counts := profile.FavoriteCategoryCounts
	for _, c := range categories {
		counts[c]++
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		return errors.NewPersistenceError("bump_categories", err)
	}
	_, err = s.db.Exec(ctx,
		`UPDATE user_profiles SET favorite_categories = $2 WHERE user_id = $1`,
		userID, raw)
	if err != nil {
		return errors.NewPersistenceError("bump_categories", err)
	}
	return nil
}

// ResetProfile zeroes the counters but keeps the row, its user_id and
// created_at.
func (s *PostgresStore) ResetProfile(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx,
		`UPDATE user_profiles
		 SET total_tests = 0, ai_consultations = 0, favorite_categories = '{}'::jsonb
		 WHERE user_id = $1`,
		userID)
	if err != nil {
		return errors.NewPersistenceError("reset_profile", err)
	}
	return nil
}

// ==========================
// Test results / AI sessions
// ==========================

func (s *PostgresStore) SaveTestResult(ctx context.Context, result *models.TestResult) error {
	rawResults, err := json.Marshal(result.Results)
	if err != nil {
		return errors.NewPersistenceError("save_test_result", err)
	}
	rawAnswers, err := json.Marshal(result.Answers)
	if err != nil {
		return errors.NewPersistenceError("save_test_result", err)
	}

	takenAt := result.TakenAt
	if takenAt.IsZero() {
		takenAt = time.Now().UTC()
	}

	err = s.db.QueryRow(ctx,
		`INSERT INTO test_results (user_id, taken_at, test_type, results, preferences)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		result.UserID, takenAt, result.TestType, rawResults, rawAnswers,
	).Scan(&result.ID)
	if err != nil {
		return errors.NewPersistenceError("save_test_result", err)
	}
	result.TakenAt = takenAt
	return nil
}

func (s *PostgresStore) RecentResults(ctx context.Context, userID string, limit int) ([]models.TestResult, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, taken_at, test_type, results, preferences
		 FROM test_results WHERE user_id = $1
		 ORDER BY taken_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, errors.NewPersistenceError("recent_results", err)
	}
	defer rows.Close()

	var out []models.TestResult
	for rows.Next() {
		var r models.TestResult
		var rawResults, rawAnswers []byte
		if err := rows.Scan(&r.ID, &r.UserID, &r.TakenAt, &r.TestType, &rawResults, &rawAnswers); err != nil {
			return nil, errors.NewPersistenceError("recent_results", err)
		}
		if err := json.Unmarshal(rawResults, &r.Results); err != nil {
			return nil, errors.NewPersistenceError("recent_results", err)
		}
		if err := json.Unmarshal(rawAnswers, &r.Answers); err != nil {
			return nil, errors.NewPersistenceError("recent_results", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("recent_results", err)
	}
	return out, nil
}

func (s *PostgresStore) SaveAISession(ctx context.Context, session *models.AISession) error {
	heldAt := session.HeldAt
	if heldAt.IsZero() {
		heldAt = time.Now().UTC()
	}
	err := s.db.QueryRow(ctx,
		`INSERT INTO ai_sessions (user_id, held_at, turns, recommendations)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		session.UserID, heldAt, session.Turns, session.Recommendation,
	).Scan(&session.ID)
	if err != nil {
		return errors.NewPersistenceError("save_ai_session", err)
	}
	session.HeldAt = heldAt
	return nil
}

func (s *PostgresStore) DeleteResults(ctx context.Context, userID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM test_results WHERE user_id = $1`, userID); err != nil {
		return errors.NewPersistenceError("delete_results", err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM ai_sessions WHERE user_id = $1`, userID); err != nil {
		return errors.NewPersistenceError("delete_results", err)
	}
	return nil
}

// ==========================
// Favorites
// ==========================

func (s *PostgresStore) AddFavorite(ctx context.Context, fav *models.Favorite) (bool, error) {
	addedAt := fav.AddedAt
	if addedAt.IsZero() {
		addedAt = time.Now().UTC()
	}
	res, err := s.db.Exec(ctx,
		`INSERT INTO favorites (user_id, name, category, salary, added_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id, name) DO NOTHING`,
		fav.UserID, fav.Name, fav.Category, fav.Salary, addedAt)
	if err != nil {
		return false, errors.NewPersistenceError("add_favorite", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewPersistenceError("add_favorite", err)
	}
	fav.AddedAt = addedAt
	return n > 0, nil
}

func (s *PostgresStore) Favorites(ctx context.Context, userID string) ([]models.Favorite, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, name, category, salary, added_at
		 FROM favorites WHERE user_id = $1 ORDER BY added_at`,
		userID)
	if err != nil {
		return nil, errors.NewPersistenceError("favorites", err)
	}
	defer rows.Close()

	var out []models.Favorite
	for rows.Next() {
		var f models.Favorite
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name, &f.Category, &f.Salary, &f.AddedAt); err != nil {
			return nil, errors.NewPersistenceError("favorites", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("favorites", err)
	}
	return out, nil
}

func (s *PostgresStore) RemoveFavorite(ctx context.Context, userID, name string) (bool, error) {
	res, err := s.db.Exec(ctx,
		`DELETE FROM favorites WHERE user_id = $1 AND name = $2`,
		userID, name)
	if err != nil {
		return false, errors.NewPersistenceError("remove_favorite", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (s *PostgresStore) CountFavorites(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM favorites WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, errors.NewPersistenceError("count_favorites", err)
	}
	return n, nil
}

func (s *PostgresStore) DeleteFavorites(ctx context.Context, userID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1`, userID); err != nil {
		return errors.NewPersistenceError("delete_favorites", err)
	}
	return nil
}

// ==========================
// Achievements
// ==========================

// RecordUnlock inserts an unlock row, reporting false when the user
// already holds the achievement.
func (s *PostgresStore) RecordUnlock(ctx context.Context, userID string, a UnlockedAchievement) (bool, error) {
	res, err := s.db.Exec(ctx,
		`INSERT INTO achievements (user_id, achievement_id, name, description, icon, category, unlocked_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (user_id, achievement_id) DO NOTHING`,
		userID, a.AchievementID, a.Name, a.Description, a.Icon, a.Category, a.UnlockedAt)
	if err != nil {
		return false, errors.NewPersistenceError("record_unlock", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewPersistenceError("record_unlock", err)
	}
	return n > 0, nil
}

func (s *PostgresStore) Unlocked(ctx context.Context, userID string) ([]UnlockedAchievement, error) {
	rows, err := s.db.Query(ctx,
		`SELECT achievement_id, name, description, icon, category, unlocked_at
		 FROM achievements WHERE user_id = $1 ORDER BY unlocked_at`,
		userID)
	if err != nil {
		return nil, errors.NewPersistenceError("unlocked", err)
	}
	defer rows.Close()

	var out []UnlockedAchievement
	for rows.Next() {
		var a UnlockedAchievement
		if err := rows.Scan(&a.AchievementID, &a.Name, &a.Description, &a.Icon, &a.Category, &a.UnlockedAt); err != nil {
			return nil, errors.NewPersistenceError("unlocked", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("unlocked", err)
	}
	return out, nil
}

func (s *PostgresStore) CountUnlocked(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM achievements WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, errors.NewPersistenceError("count_unlocked", err)
	}
	return n, nil
}

func (s *PostgresStore) SetProgress(ctx context.Context, userID, achievementID string, current int) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO achievement_progress (user_id, achievement_id, current_progress, last_updated)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (user_id, achievement_id)
		 DO UPDATE SET current_progress = EXCLUDED.current_progress, last_updated = now()`,
		userID, achievementID, current)
	if err != nil {
		return errors.NewPersistenceError("set_progress", err)
	}
	return nil
}

func (s *PostgresStore) Progress(ctx context.Context, userID string) (map[string]int, error) {
	rows, err := s.db.Query(ctx,
		`SELECT achievement_id, current_progress
		 FROM achievement_progress WHERE user_id = $1`,
		userID)
	if err != nil {
		return nil, errors.NewPersistenceError("progress", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var id string
		var current int
		if err := rows.Scan(&id, &current); err != nil {
			return nil, errors.NewPersistenceError("progress", err)
		}
		out[id] = current
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewPersistenceError("progress", err)
	}
	return out, nil
}

func (s *PostgresStore) DeleteAchievements(ctx context.Context, userID string) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM achievements WHERE user_id = $1`, userID); err != nil {
		return errors.NewPersistenceError("delete_achievements", err)
	}
	if _, err := s.db.Exec(ctx, `DELETE FROM achievement_progress WHERE user_id = $1`, userID); err != nil {
		return errors.NewPersistenceError("delete_achievements", err)
	}
	return nil
}

// ==========================
// Diagnostics
// ==========================

// TableCounts reports row counts per table for the stats screen.
func (s *PostgresStore) TableCounts(ctx context.Context) (map[string]int, error) {
	tables := []string{"user_profiles", "test_results", "ai_sessions", "favorites", "achievements"}
	out := map[string]int{}
	for _, t := range tables {
		var n int
		if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM `+t).Scan(&n); err != nil {
			return nil, errors.NewPersistenceError("table_counts", err)
		}
		out[t] = n
	}
	return out, nil
}
