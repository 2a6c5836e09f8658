// internal/storage/postgres_test.go
package storage

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-advisor/internal/common/database"
	cerrors "career-advisor/internal/common/errors"
	"career-advisor/internal/common/logger"
	"career-advisor/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := NewPostgresStore(&database.PostgresClient{DB: db}, logger.NewTestLogger(t))
	return store, mock
}

func profileRows(userID string, createdAt time.Time, tests, consults int, categories map[string]int) *sqlmock.Rows {
	raw, _ := json.Marshal(categories)
	return sqlmock.NewRows([]string{"user_id", "created_at", "total_tests", "ai_consultations", "favorite_categories"}).
		AddRow(userID, createdAt, tests, consults, raw)
}

// ==========================
// Profile Tests
// ==========================

func TestPostgresStore_GetProfile(t *testing.T) {
	store, mock := createTestStore(t)
	created := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, created_at, total_tests, ai_consultations, favorite_categories")).
		WithArgs("user-1").
		WillReturnRows(profileRows("user-1", created, 4, 2, map[string]int{"technology": 3}))

	p, err := store.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 4, p.TotalTests)
	assert.Equal(t, 2, p.AIConsultations)
	assert.Equal(t, created, p.CreatedAt)
	assert.Equal(t, map[string]int{"technology": 3}, p.FavoriteCategoryCounts)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetProfile_Missing(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM user_profiles")).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "created_at", "total_tests", "ai_consultations", "favorite_categories"}))

	p, err := store.GetProfile(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestPostgresStore_GetProfile_Failure(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM user_profiles")).
		WithArgs("user-1").
		WillReturnError(assert.AnError)

	_, err := store.GetProfile(context.Background(), "user-1")
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodePersistence, cerrors.GetCode(err))
}

func TestPostgresStore_IncrementTests(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_profiles SET total_tests = total_tests + 1")).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.IncrementTests(context.Background(), "user-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_IncrementTests_CreatesMissingRow(t *testing.T) {
	store, mock := createTestStore(t)
	created := time.Now().UTC()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_profiles SET total_tests")).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_profiles")).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM user_profiles")).
		WithArgs("user-1").
		WillReturnRows(profileRows("user-1", created, 0, 0, nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user_profiles SET total_tests")).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.IncrementTests(context.Background(), "user-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ResetProfile(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectExec(regexp.QuoteMeta("SET total_tests = 0, ai_consultations = 0")).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.ResetProfile(context.Background(), "user-1"))
}

// ==========================
// Favorites Tests
// ==========================

func TestPostgresStore_AddFavorite(t *testing.T) {
	store, mock := createTestStore(t)
	fav := &models.Favorite{UserID: "user-1", Name: "Data Scientist", Category: "technology", Salary: "90000"}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO favorites")).
		WithArgs("user-1", "Data Scientist", "technology", "90000", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	added, err := store.AddFavorite(context.Background(), fav)
	require.NoError(t, err)
	assert.True(t, added)
}

func TestPostgresStore_AddFavorite_Duplicate(t *testing.T) {
	store, mock := createTestStore(t)
	fav := &models.Favorite{UserID: "user-1", Name: "Data Scientist", Category: "technology"}

	// ON CONFLICT DO NOTHING: zero rows affected on the second insert.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO favorites")).
		WithArgs("user-1", "Data Scientist", "technology", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	added, err := store.AddFavorite(context.Background(), fav)
	require.NoError(t, err)
	assert.False(t, added)
}

// ==========================
// Achievement Tests
// ==========================

func TestPostgresStore_RecordUnlock(t *testing.T) {
	store, mock := createTestStore(t)
	a := UnlockedAchievement{
		AchievementID: "first_test",
		Name:          "First Steps",
		Category:      "tests",
		UnlockedAt:    time.Now().UTC(),
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO achievements")).
		WithArgs("user-1", "first_test", "First Steps", "", "", "tests", a.UnlockedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	inserted, err := store.RecordUnlock(context.Background(), "user-1", a)
	require.NoError(t, err)
	assert.True(t, inserted)

	// Second insert hits the unique constraint path.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO achievements")).
		WithArgs("user-1", "first_test", "First Steps", "", "", "tests", a.UnlockedAt).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err = store.RecordUnlock(context.Background(), "user-1", a)
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestPostgresStore_SetProgress(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO achievement_progress")).
		WithArgs("user-1", "test_master", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.SetProgress(context.Background(), "user-1", "test_master", 7))
}

// ==========================
// Result Tests
// ==========================

func TestPostgresStore_SaveTestResult(t *testing.T) {
	store, mock := createTestStore(t)
	result := &models.TestResult{
		UserID:   "user-1",
		TestType: "classic",
		Results:  []models.Match{{Score: 25}},
		Answers:  models.AnswerSet{Audience: "adult", Category: "technology"},
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO test_results")).
		WithArgs("user-1", sqlmock.AnyArg(), "classic", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(42))

	require.NoError(t, store.SaveTestResult(context.Background(), result))
	assert.Equal(t, int64(42), result.ID)
	assert.False(t, result.TakenAt.IsZero())
}

func TestPostgresStore_SaveTestResult_Failure(t *testing.T) {
	store, mock := createTestStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO test_results")).
		WillReturnError(assert.AnError)

	err := store.SaveTestResult(context.Background(), &models.TestResult{UserID: "user-1", TestType: "classic"})
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodePersistence, cerrors.GetCode(err))
}

// ==========================
// Migration Tests
// ==========================

func TestPostgresStore_Migrate(t *testing.T) {
	store, mock := createTestStore(t)

	for range migrations {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, store.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
