// internal/session/store_test.go
package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
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

func createTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	return NewStore(client, time.Hour, logger.NewTestLogger(t)), mr
}

// ==========================
// Session Tests
// ==========================

func TestSession_New(t *testing.T) {
	s := New("user-1")
	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, StateMainMenu, s.State)
	assert.NotEmpty(t, s.Version)
}

func TestSession_ResetRotatesVersion(t *testing.T) {
	s := New("user-1")
	s.State = StateAiCollecting
	s.AppendTurn(models.RoleUser, "hello")
	s.Results = []models.Match{{Score: 10}}
	oldVersion := s.Version

	s.Reset()

	assert.Equal(t, "user-1", s.UserID)
	assert.Equal(t, StateMainMenu, s.State)
	assert.Empty(t, s.Transcript)
	assert.Empty(t, s.Results)
	assert.NotEqual(t, oldVersion, s.Version)
}

func TestSession_UserTurns(t *testing.T) {
	s := New("user-1")
	s.AppendTurn(models.RoleUser, "one")
	s.AppendTurn(models.RoleAssistant, "reply")
	s.AppendTurn(models.RoleUser, "two")
	assert.Equal(t, 2, s.UserTurns())
}

// ==========================
// Store Tests
// ==========================

func TestStore_LoadMissingYieldsFreshSession(t *testing.T) {
	store, _ := createTestStore(t)

	s, err := store.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, StateMainMenu, s.State)
	assert.Equal(t, "user-1", s.UserID)
}

func TestStore_SaveLoadRoundtrip(t *testing.T) {
	store, _ := createTestStore(t)
	ctx := context.Background()

	s := New("user-1")
	s.State = StateClassicRisk
	s.Answers = models.AnswerSet{Audience: "adult", Category: "technology", WorksWithPeople: false, RiskTolerant: true}
	s.AppendTurn(models.RoleUser, "hi")
	require.NoError(t, store.Save(ctx, s))

	loaded, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, s.Version, loaded.Version)
	assert.Equal(t, StateClassicRisk, loaded.State)
	assert.Equal(t, s.Answers, loaded.Answers)
	require.Len(t, loaded.Transcript, 1)
	assert.Equal(t, "hi", loaded.Transcript[0].Content)
}

func TestStore_SaveSetsTTL(t *testing.T) {
	store, mr := createTestStore(t)

	require.NoError(t, store.Save(context.Background(), New("user-1")))
	ttl := mr.TTL("session:user-1")
	assert.Greater(t, ttl, time.Duration(0))
}

func TestStore_SaveIfVersion(t *testing.T) {
	store, _ := createTestStore(t)
	ctx := context.Background()

	s := New("user-1")
	require.NoError(t, store.Save(ctx, s))

	// Matching version saves fine.
	s.State = StateAiCollecting
	require.NoError(t, store.SaveIfVersion(ctx, s, s.Version))

	// The user restarts while a result is in flight.
	replacement := New("user-1")
	require.NoError(t, store.Save(ctx, replacement))

	err := store.SaveIfVersion(ctx, s, s.Version)
	require.Error(t, err)
	assert.Equal(t, cerrors.ErrCodeSessionConflict, cerrors.GetCode(err))

	// The stored session wins.
	current, err := store.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, replacement.Version, current.Version)
	assert.Equal(t, StateMainMenu, current.State)
}

func TestStore_CorruptPayloadYieldsFreshSession(t *testing.T) {
	store, mr := createTestStore(t)
	require.NoError(t, mr.Set("session:user-1", "{not json"))

	s, err := store.Load(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, StateMainMenu, s.State)
}

func TestStore_Delete(t *testing.T) {
	store, mr := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, New("user-1")))
	require.NoError(t, store.Delete(ctx, "user-1"))
	assert.False(t, mr.Exists("session:user-1"))
}
