// internal/conversation/machine_test.go
package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"career-advisor/internal/achievements"
	"career-advisor/internal/catalog"
	"career-advisor/internal/common/database"
	cerrors "career-advisor/internal/common/errors"
	"career-advisor/internal/common/logger"
	"career-advisor/internal/genai"
	"career-advisor/internal/matching"
	"career-advisor/internal/models"
	"career-advisor/internal/profile"
	"career-advisor/internal/session"
	"career-advisor/internal/storage"
)

// ==========================
// Test Helper Functions
// ==========================

type testEnv struct {
	machine  *Machine
	sessions *session.Store
	store    *storage.MemoryStore
	backend  *genai.MockBackend
}

func createTestCareers() []models.CareerProfile {
	return []models.CareerProfile{
		{ID: 1, Name: "Data Scientist", Category: "technology", Audience: []string{"adult"},
			WorksWithPeople: false, RiskTolerant: true, Tags: []string{"high_growth"}, Salary: "90000-160000"},
		{ID: 2, Name: "Backend Developer", Category: "technology", Audience: []string{"teen", "adult"},
			WorksWithPeople: false, RiskTolerant: false, Tags: []string{"high_growth"}},
		{ID: 3, Name: "QA Engineer", Category: "technology", Audience: []string{"teen", "adult"},
			WorksWithPeople: false, RiskTolerant: false},
		{ID: 4, Name: "UX Designer", Category: "creative", Audience: []string{"teen", "adult"},
			WorksWithPeople: true, RiskTolerant: false},
	}
}

func createTestMachine(t *testing.T) *testEnv {
	t.Helper()
	log := logger.NewTestLogger(t)

	mr := miniredis.RunT(t)
	client := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	sessions := session.NewStore(client, time.Hour, log)

	cat, err := catalog.New(createTestCareers(), log)
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	backend := genai.NewMockBackend()

	machine := NewMachine(
		Config{MinAITurns: 2},
		sessions,
		cat,
		matching.NewEngine(3),
		backend,
		profile.NewAggregator(store, log),
		achievements.NewTracker(store, log),
		nil,
		log,
	)
	return &testEnv{machine: machine, sessions: sessions, store: store, backend: backend}
}

// drive feeds inputs in order and returns the last reply.
func drive(t *testing.T, env *testEnv, userID string, inputs ...string) *Reply {
	t.Helper()
	var reply *Reply
	for _, in := range inputs {
		var err error
		reply, err = env.machine.Handle(context.Background(), userID, in)
		require.NoError(t, err, "input %q", in)
		require.NotNil(t, reply)
	}
	return reply
}

func unlockedIDs(reply *Reply) []string {
	var ids []string
	for _, u := range reply.Unlocks {
		ids = append(ids, u.AchievementID)
	}
	return ids
}

// ==========================
// Classic Flow Tests
// ==========================

func TestMachine_ClassicFlowEndToEnd(t *testing.T) {
	env := createTestMachine(t)

	reply := drive(t, env, "user-1",
		CmdStart, OptStartTest, OptClassic, "adult", "technology", OptSolo, OptRisky)

	assert.Equal(t, session.StateShowResults, reply.State)
	require.Len(t, reply.Matches, 3)
	assert.Equal(t, "Data Scientist", reply.Matches[0].Profile.Name)
	assert.Equal(t, 25, reply.Matches[0].Score)
	assert.False(t, reply.Matches[0].LowConfidence)
	assert.Contains(t, unlockedIDs(reply), "first_test")

	p, err := env.store.GetProfile(context.Background(), "user-1")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, 1, p.TotalTests)
}

// stalledProgressStore accepts unlocks but rejects progress writes.
type stalledProgressStore struct {
	*storage.MemoryStore
}

func (s *stalledProgressStore) SetProgress(context.Context, string, string, int) error {
	return cerrors.NewPersistenceError("set_progress", assert.AnError)
}

func TestMachine_UnlocksSurviveProgressWriteFailure(t *testing.T) {
	log := logger.NewTestLogger(t)

	mr := miniredis.RunT(t)
	client := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	sessions := session.NewStore(client, time.Hour, log)

	cat, err := catalog.New(createTestCareers(), log)
	require.NoError(t, err)

	store := storage.NewMemoryStore()
	machine := NewMachine(
		Config{MinAITurns: 2},
		sessions,
		cat,
		matching.NewEngine(3),
		genai.NewMockBackend(),
		profile.NewAggregator(store, log),
		achievements.NewTracker(&stalledProgressStore{MemoryStore: store}, log),
		nil,
		log,
	)
	env := &testEnv{machine: machine, sessions: sessions, store: store}

	// first_test is written before the progress write for the next
	// threshold fails. The unlock never re-emits, so it has to reach
	// the user on this reply.
	reply := drive(t, env, "user-1",
		CmdStart, OptStartTest, OptClassic, "adult", "technology", OptSolo, OptRisky)

	assert.Equal(t, session.StateShowResults, reply.State)
	assert.Nil(t, reply.Err, "evaluation failures must not mask the result")
	assert.Contains(t, unlockedIDs(reply), "first_test")

	unlocked, err := store.Unlocked(context.Background(), "user-1")
	require.NoError(t, err)
	ids := make([]string, 0, len(unlocked))
	for _, u := range unlocked {
		ids = append(ids, u.AchievementID)
	}
	assert.Contains(t, ids, "first_test")
}

func TestMachine_InvalidInputKeepsState(t *testing.T) {
	env := createTestMachine(t)
	ctx := context.Background()

	drive(t, env, "user-1", CmdStart, OptStartTest, OptClassic)

	reply, err := env.machine.Handle(ctx, "user-1", "banana")
	require.NoError(t, err)
	assert.Equal(t, session.StateClassicAudience, reply.State)
	require.NotNil(t, reply.Err)
	assert.Equal(t, cerrors.ErrCodeValidation, reply.Err.Code)

	sess, err := env.sessions.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, session.StateClassicAudience, sess.State)
}

func TestMachine_BackPreservesAnswers(t *testing.T) {
	env := createTestMachine(t)
	ctx := context.Background()

	drive(t, env, "user-1", CmdStart, OptStartTest, OptClassic, "adult", "technology")

	reply := drive(t, env, "user-1", CmdBack)
	assert.Equal(t, session.StateClassicInterest, reply.State)

	reply = drive(t, env, "user-1", CmdBack)
	assert.Equal(t, session.StateClassicAudience, reply.State)

	sess, err := env.sessions.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "adult", sess.Answers.Audience, "back keeps earlier answers")
	assert.Equal(t, "technology", sess.Answers.Category)

	// Backing out of the first question lands on mode select.
	reply = drive(t, env, "user-1", CmdBack)
	assert.Equal(t, session.StateModeSelect, reply.State)
}

func TestMachine_RestartResets(t *testing.T) {
	env := createTestMachine(t)
	ctx := context.Background()

	drive(t, env, "user-1", CmdStart, OptStartTest, OptClassic, "adult")

	reply := drive(t, env, "user-1", CmdRestart)
	assert.Equal(t, session.StateMainMenu, reply.State)

	sess, err := env.sessions.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, session.StateMainMenu, sess.State)
	assert.Empty(t, sess.Answers.Audience)
	assert.Empty(t, sess.Transcript)
}

func TestMachine_UnknownStateRecovers(t *testing.T) {
	env := createTestMachine(t)
	ctx := context.Background()

	sess := session.New("user-1")
	sess.State = session.State("stale_state_from_old_release")
	require.NoError(t, env.sessions.Save(ctx, sess))

	reply, err := env.machine.Handle(ctx, "user-1", "anything")
	require.NoError(t, err)
	assert.Equal(t, session.StateMainMenu, reply.State)
}

// ==========================
// Main Menu Tests
// ==========================

func TestMachine_MainMenuViews(t *testing.T) {
	env := createTestMachine(t)

	reply := drive(t, env, "user-1", CmdStart, OptProfile)
	assert.Equal(t, session.StateMainMenu, reply.State)
	assert.Contains(t, reply.Text, "Tests completed: 0")

	reply = drive(t, env, "user-1", OptFavorites)
	assert.Equal(t, "No favorites yet.", reply.Text)

	reply = drive(t, env, "user-1", OptAchievements)
	assert.Contains(t, reply.Text, "First Steps")
}

// ==========================
// AI Flow Tests
// ==========================

func TestMachine_RecommendNeedsTwoTurns(t *testing.T) {
	env := createTestMachine(t)
	ctx := context.Background()

	drive(t, env, "user-1", CmdStart, OptStartTest, OptAI, "I like math and quiet work")

	reply, err := env.machine.Handle(ctx, "user-1", OptRecommend)
	require.NoError(t, err)
	assert.Equal(t, session.StateAiCollecting, reply.State)
	require.NotNil(t, reply.Err)
	assert.Equal(t, cerrors.ErrCodeValidation, reply.Err.Code)

	p, err := env.store.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.AIConsultations, "a rejected request must not count")
}

func TestMachine_RecommendAfterEnoughTurns(t *testing.T) {
	env := createTestMachine(t)
	ctx := context.Background()
	env.backend.Enqueue("What subjects do you enjoy?", "Do you prefer teams?", "Consider data science.")

	reply := drive(t, env, "user-1",
		CmdStart, OptStartTest, OptAI,
		"I like math and statistics",
		"I prefer working alone",
		OptRecommend)

	assert.Equal(t, session.StateShowResults, reply.State)
	assert.Equal(t, "Consider data science.", reply.Text)
	assert.Contains(t, unlockedIDs(reply), "ai_curious")

	p, err := env.store.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 1, p.AIConsultations)
}

func TestMachine_BackendFailurePreservesTranscript(t *testing.T) {
	env := createTestMachine(t)
	ctx := context.Background()

	drive(t, env, "user-1", CmdStart, OptStartTest, OptAI, "I like biology")

	sess, err := env.sessions.Load(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, sess.Transcript, 2)

	env.backend.FailWith(assert.AnError)
	reply, err := env.machine.Handle(ctx, "user-1", "and chemistry")
	require.NoError(t, err)
	require.NotNil(t, reply.Err)
	assert.Equal(t, cerrors.ErrCodeGenerationBackend, reply.Err.Code)
	assert.Equal(t, session.StateAiCollecting, reply.State)

	sess, err = env.sessions.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, sess.Transcript, 2, "failed turn must not be committed")
	assert.Equal(t, "I like biology", sess.Transcript[0].Content)

	// Recovery: the same input goes through once the backend is back.
	env.backend.FailWith(nil)
	reply = drive(t, env, "user-1", "and chemistry")
	assert.Nil(t, reply.Err)

	sess, err = env.sessions.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, sess.Transcript, 4)
}

func TestMachine_BackResumesConsultation(t *testing.T) {
	env := createTestMachine(t)
	ctx := context.Background()

	drive(t, env, "user-1", CmdStart, OptStartTest, OptAI, "I like history")

	reply := drive(t, env, "user-1", CmdBack)
	assert.Equal(t, session.StateModeSelect, reply.State)

	sess, err := env.sessions.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, sess.Transcript, 2, "back keeps the transcript")

	// Re-entering the AI flow continues the same conversation.
	drive(t, env, "user-1", OptAI, "and archaeology")
	sess, err = env.sessions.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, sess.Transcript, 4)

	// "done" discards it.
	drive(t, env, "user-1", OptDone)
	sess, err = env.sessions.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, sess.Transcript)
}

func TestMachine_StaleRecommendDiscarded(t *testing.T) {
	env := createTestMachine(t)
	ctx := context.Background()

	drive(t, env, "user-1", CmdStart, OptStartTest, OptAI, "I like math", "and puzzles")

	// A restart lands while the recommendation is in flight.
	env.backend.OnRespond = func() {
		replacement := session.New("user-1")
		require.NoError(t, env.sessions.Save(ctx, replacement))
	}

	reply, err := env.machine.Handle(ctx, "user-1", OptRecommend)
	require.NoError(t, err)
	require.NotNil(t, reply.Err)
	assert.Equal(t, cerrors.ErrCodeSessionConflict, reply.Err.Code)
	assert.Equal(t, session.StateMainMenu, reply.State, "the stored session wins")

	p, err := env.store.GetProfile(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.AIConsultations, "the discarded result is not persisted")
}

// ==========================
// Results / Favorites Tests
// ==========================

func TestMachine_FavoriteFromResults(t *testing.T) {
	env := createTestMachine(t)

	drive(t, env, "user-1",
		CmdStart, OptStartTest, OptClassic, "adult", "technology", OptSolo, OptRisky)

	reply := drive(t, env, "user-1", "Data Scientist")
	assert.Equal(t, session.StateShowResults, reply.State)
	assert.Equal(t, "Saved Data Scientist to favorites.", reply.Text)
	assert.Contains(t, unlockedIDs(reply), "first_favorite")

	// Same name again, this time with the save prefix.
	reply = drive(t, env, "user-1", "save Data Scientist")
	assert.Equal(t, "Data Scientist is already in your favorites.", reply.Text)
	assert.Empty(t, reply.Unlocks)
}

func TestMachine_UnknownFavoriteNameRePrompts(t *testing.T) {
	env := createTestMachine(t)

	drive(t, env, "user-1",
		CmdStart, OptStartTest, OptClassic, "adult", "technology", OptSolo, OptRisky)

	reply := drive(t, env, "user-1", "Underwater Basket Weaver")
	assert.Equal(t, session.StateShowResults, reply.State)
	require.NotNil(t, reply.Err)
	assert.Equal(t, cerrors.ErrCodeValidation, reply.Err.Code)
	assert.Len(t, reply.Matches, 3, "the standing results stay on screen")
}

func TestMachine_ResultsNavigation(t *testing.T) {
	env := createTestMachine(t)
	ctx := context.Background()

	drive(t, env, "user-1",
		CmdStart, OptStartTest, OptClassic, "adult", "technology", OptSolo, OptRisky)

	reply := drive(t, env, "user-1", CmdBack)
	assert.Equal(t, session.StateModeSelect, reply.State)

	drive(t, env, "user-1", OptClassic, "adult", "creative", OptPeople, OptStable)
	reply = drive(t, env, "user-1", CmdMenu)
	assert.Equal(t, session.StateMainMenu, reply.State)

	sess, err := env.sessions.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, sess.Results)
}
