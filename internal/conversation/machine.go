// internal/conversation/machine.go

// Package conversation drives the advisor dialog: main menu, the guided
// classic questionnaire and the free-form AI consultation.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"career-advisor/internal/achievements"
	"career-advisor/internal/catalog"
	cerrors "career-advisor/internal/common/errors"
	"career-advisor/internal/common/logger"
	"career-advisor/internal/common/metrics"
	"career-advisor/internal/common/observability"
	"career-advisor/internal/genai"
	"career-advisor/internal/matching"
	"career-advisor/internal/models"
	"career-advisor/internal/profile"
	"career-advisor/internal/session"
)

// Config carries the dialog tunables.
type Config struct {
	MinAITurns int
}

// Machine is the conversation state machine. One instance serves all
// users; per-user state lives in the session store.
type Machine struct {
	cfg      Config
	sessions *session.Store
	catalog  *catalog.Catalog
	engine   *matching.Engine
	backend  genai.Backend
	profiles *profile.Aggregator
	tracker  *achievements.Tracker
	obs      *observability.Observability
	logger   logger.Logger
}

func NewMachine(
	cfg Config,
	sessions *session.Store,
	cat *catalog.Catalog,
	engine *matching.Engine,
	backend genai.Backend,
	profiles *profile.Aggregator,
	tracker *achievements.Tracker,
	obs *observability.Observability,
	log logger.Logger,
) *Machine {
	if cfg.MinAITurns <= 0 {
		cfg.MinAITurns = 2
	}
	return &Machine{
		cfg:      cfg,
		sessions: sessions,
		catalog:  cat,
		engine:   engine,
		backend:  backend,
		profiles: profiles,
		tracker:  tracker,
		obs:      obs,
		logger:   log,
	}
}

// Handle processes one user input. Invalid input re-prompts without a
// state change; /restart hard-resets from any state.
func (m *Machine) Handle(ctx context.Context, userID, input string) (*Reply, error) {
	start := time.Now()

	sess, err := m.sessions.Load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if m.obs != nil {
		defer func() {
			m.obs.RecordTurn(ctx, string(sess.State))
			m.obs.RecordTurnDuration(ctx, time.Since(start), string(sess.State))
		}()
	}

	text := strings.TrimSpace(input)
	lower := strings.ToLower(text)

	switch lower {
	case CmdStart:
		return m.handleStart(ctx, sess)
	case CmdRestart:
		return m.handleRestart(ctx, sess)
	}

	switch sess.State {
	case session.StateMainMenu:
		return m.handleMainMenu(ctx, sess, lower)
	case session.StateModeSelect:
		return m.handleModeSelect(ctx, sess, lower)
	case session.StateClassicAudience, session.StateClassicInterest,
		session.StateClassicWork, session.StateClassicRisk:
		return m.handleClassic(ctx, sess, lower)
	case session.StateAiCollecting:
		return m.handleAICollecting(ctx, sess, text)
	case session.StateShowResults:
		return m.handleShowResults(ctx, sess, text)
	default:
		// Unknown state in storage: recover via hard reset.
		m.logger.Warn("Unknown session state, resetting", map[string]interface{}{
			"userId": userID,
			"state":  string(sess.State),
		})
		return m.handleRestart(ctx, sess)
	}
}

func (m *Machine) handleStart(ctx context.Context, sess *session.Session) (*Reply, error) {
	p, err := m.profiles.EnsureProfile(ctx, sess.UserID)
	if err != nil {
		// Degrade: the dialog still works without the profile row.
		m.logger.Warn("Profile bootstrap failed", map[string]interface{}{
			"userId": sess.UserID,
			"error":  err.Error(),
		})
	}

	sess.Reset()
	if err := m.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	reply := mainMenuReply()

	// Activity milestones accrue on every visit.
	if p != nil {
		days := int(time.Since(p.CreatedAt).Hours()/24) + 1
		unlocks, err := m.tracker.Evaluate(ctx, sess.UserID, achievements.KindActiveDays, days)
		m.collectUnlocks(reply, sess.UserID, unlocks, err)
	}
	m.recordUnlocks(ctx, reply.Unlocks)
	return reply, nil
}

func (m *Machine) handleRestart(ctx context.Context, sess *session.Session) (*Reply, error) {
	sess.Reset()
	if err := m.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return mainMenuReply(), nil
}

func (m *Machine) handleMainMenu(ctx context.Context, sess *session.Session, input string) (*Reply, error) {
	switch input {
	case OptStartTest:
		sess.State = session.StateModeSelect
		if err := m.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		return modeSelectReply(), nil

	case OptProfile:
		stats, err := m.profiles.Stats(ctx, sess.UserID)
		if err != nil {
			return m.replyWithError(sess, err), nil
		}
		return &Reply{
			State:   session.StateMainMenu,
			Prompt:  PromptMainMenu,
			Options: mainMenuReply().Options,
			Text:    formatStats(stats),
		}, nil

	case OptFavorites:
		favs, err := m.profiles.Favorites(ctx, sess.UserID)
		if err != nil {
			return m.replyWithError(sess, err), nil
		}
		return &Reply{
			State:   session.StateMainMenu,
			Prompt:  PromptMainMenu,
			Options: mainMenuReply().Options,
			Text:    formatFavorites(favs),
		}, nil

	case OptAchievements:
		report, err := m.tracker.ProgressReport(ctx, sess.UserID)
		if err != nil {
			return m.replyWithError(sess, err), nil
		}
		return &Reply{
			State:   session.StateMainMenu,
			Prompt:  PromptMainMenu,
			Options: mainMenuReply().Options,
			Text:    formatAchievements(report),
		}, nil

	default:
		return m.invalidInput(sess, mainMenuReply(), input), nil
	}
}

func (m *Machine) handleModeSelect(ctx context.Context, sess *session.Session, input string) (*Reply, error) {
	switch input {
	case OptClassic:
		sess.State = session.StateClassicAudience
		sess.StartedAt = time.Now().UTC()
		if err := m.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		return m.classicPrompt(sess), nil

	case OptAI:
		sess.State = session.StateAiCollecting
		// A transcript left behind by "back" resumes; "done" clears it.
		if len(sess.Transcript) == 0 {
			sess.StartedAt = time.Now().UTC()
		}
		if err := m.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		return &Reply{
			State:   session.StateAiCollecting,
			Prompt:  PromptAiCollect,
			Options: []string{OptRecommend, OptDone},
			Text:    "Tell me about your interests, strengths and what a good workday looks like.",
		}, nil

	case CmdBack:
		sess.State = session.StateMainMenu
		if err := m.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		return mainMenuReply(), nil

	default:
		return m.invalidInput(sess, modeSelectReply(), input), nil
	}
}

func (m *Machine) handleShowResults(ctx context.Context, sess *session.Session, input string) (*Reply, error) {
	lower := strings.ToLower(input)

	switch lower {
	case CmdMenu:
		sess.State = session.StateMainMenu
		sess.Results = nil
		if err := m.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		return mainMenuReply(), nil
	case CmdBack:
		sess.State = session.StateModeSelect
		sess.Results = nil
		if err := m.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		return modeSelectReply(), nil
	}

	// Anything else is a favorite-add by career name, with or without
	// a leading "save".
	name := strings.TrimSpace(strings.TrimPrefix(input, "save "))
	career, ok := m.catalog.ByName(name)
	if !ok {
		return m.invalidInput(sess, m.resultsReply(sess), input), nil
	}

	added, count, err := m.profiles.AddFavorite(ctx, sess.UserID, career)
	if err != nil {
		return m.replyWithError(sess, err), nil
	}

	reply := m.resultsReply(sess)
	if !added {
		reply.Text = fmt.Sprintf("%s is already in your favorites.", career.Name)
		return reply, nil
	}

	reply.Text = fmt.Sprintf("Saved %s to favorites.", career.Name)
	unlocks, err := m.tracker.Evaluate(ctx, sess.UserID, achievements.KindFavorites, count)
	m.collectUnlocks(reply, sess.UserID, unlocks, err)
	m.recordUnlocks(ctx, reply.Unlocks)
	return reply, nil
}

func (m *Machine) resultsReply(sess *session.Session) *Reply {
	return &Reply{
		State:   session.StateShowResults,
		Prompt:  PromptResults,
		Options: []string{CmdMenu, CmdBack},
		Matches: sess.Results,
	}
}

// collectUnlocks appends whatever the tracker managed to persist.
// Unlock rows are written before the failure point and never re-emit,
// so partial events must still reach the user; the error itself only
// warrants a log line.
func (m *Machine) collectUnlocks(reply *Reply, userID string, unlocks []models.UnlockEvent, err error) {
	if err != nil {
		m.logger.Warn("Achievement evaluation failed", map[string]interface{}{
			"userId": userID,
			"error":  err.Error(),
		})
	}
	reply.Unlocks = append(reply.Unlocks, unlocks...)
}

// recordUnlocks mirrors unlock events onto the otel meter.
func (m *Machine) recordUnlocks(ctx context.Context, events []models.UnlockEvent) {
	if m.obs == nil {
		return
	}
	for _, e := range events {
		if def, ok := achievements.ByID(e.AchievementID); ok {
			m.obs.RecordUnlock(ctx, def.Category)
		}
	}
}

// invalidInput re-prompts the current state without touching the
// session.
func (m *Machine) invalidInput(sess *session.Session, prompt *Reply, input string) *Reply {
	prompt.Err = cerrors.NewValidationError(
		fmt.Sprintf("unrecognized input %q in state %s", input, sess.State))
	return prompt
}

func (m *Machine) replyWithError(sess *session.Session, err error) *Reply {
	stdErr, ok := err.(*cerrors.StandardError)
	if !ok {
		stdErr = cerrors.NewInternalError(err)
	}
	return &Reply{
		State: sess.State,
		Err:   stdErr,
	}
}

// discardStaleResult handles a lost version race: the stored session
// wins and the computed result is dropped.
func (m *Machine) discardStaleResult(ctx context.Context, userID string) (*Reply, error) {
	metrics.SessionConflicts.Inc()
	m.logger.Warn("Discarding stale in-flight result", map[string]interface{}{
		"userId": userID,
	})

	current, err := m.sessions.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	reply := m.promptFor(current)
	reply.Err = cerrors.NewSessionConflictError(userID)
	return reply, nil
}

// promptFor rebuilds the standing prompt for a session's state.
func (m *Machine) promptFor(sess *session.Session) *Reply {
	switch sess.State {
	case session.StateModeSelect:
		return modeSelectReply()
	case session.StateClassicAudience, session.StateClassicInterest,
		session.StateClassicWork, session.StateClassicRisk:
		return m.classicPrompt(sess)
	case session.StateAiCollecting:
		return &Reply{
			State:   session.StateAiCollecting,
			Prompt:  PromptAiCollect,
			Options: []string{OptRecommend, OptDone},
		}
	case session.StateShowResults:
		return m.resultsReply(sess)
	default:
		return mainMenuReply()
	}
}

func formatStats(s *models.ProfileStats) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Member since %s\n", s.MemberSince.Format("2006-01-02"))
	fmt.Fprintf(&b, "Tests completed: %d\n", s.TotalTests)
	fmt.Fprintf(&b, "AI consultations: %d\n", s.AIConsultations)
	fmt.Fprintf(&b, "Favorites: %d\n", s.FavoritesCount)
	fmt.Fprintf(&b, "Achievements: %d\n", s.AchievementCount)
	if s.FavoriteCategory != "" {
		fmt.Fprintf(&b, "Favorite category: %s\n", s.FavoriteCategory)
	}
	fmt.Fprintf(&b, "Days active: %d", s.DaysActive)
	return b.String()
}

func formatFavorites(favs []models.Favorite) string {
	if len(favs) == 0 {
		return "No favorites yet."
	}
	var b strings.Builder
	for _, f := range favs {
		fmt.Fprintf(&b, "%s (%s), salary %s\n", f.Name, f.Category, f.Salary)
	}
	return strings.TrimRight(b.String(), "\n")
}

func formatAchievements(report []achievements.ProgressEntry) string {
	var b strings.Builder
	for _, e := range report {
		mark := " "
		if e.Unlocked {
			mark = "x"
		}
		fmt.Fprintf(&b, "[%s] %s %s (%d/%d)\n",
			mark, e.Definition.Icon, e.Definition.Name, e.Current, e.Definition.Threshold)
	}
	return strings.TrimRight(b.String(), "\n")
}
