// internal/conversation/classic.go
package conversation

import (
	"context"
	"time"

	"career-advisor/internal/achievements"
	cerrors "career-advisor/internal/common/errors"
	"career-advisor/internal/session"
)

// classicPrompt renders the standing question for the classic flow.
func (m *Machine) classicPrompt(sess *session.Session) *Reply {
	switch sess.State {
	case session.StateClassicAudience:
		return &Reply{
			State:   sess.State,
			Prompt:  PromptAudience,
			Options: append(append([]string{}, AudienceOptions...), CmdBack),
		}
	case session.StateClassicInterest:
		return &Reply{
			State:   sess.State,
			Prompt:  PromptInterest,
			Options: append(m.catalog.Categories(), CmdBack),
		}
	case session.StateClassicWork:
		return &Reply{
			State:   sess.State,
			Prompt:  PromptWorkStyle,
			Options: []string{OptPeople, OptSolo, CmdBack},
		}
	default:
		return &Reply{
			State:   sess.State,
			Prompt:  PromptRisk,
			Options: []string{OptStable, OptRisky, CmdBack},
		}
	}
}

// handleClassic advances the four-question flow. Back steps one state
// and keeps earlier answers.
func (m *Machine) handleClassic(ctx context.Context, sess *session.Session, input string) (*Reply, error) {
	if input == CmdBack {
		switch sess.State {
		case session.StateClassicAudience:
			sess.State = session.StateModeSelect
		case session.StateClassicInterest:
			sess.State = session.StateClassicAudience
		case session.StateClassicWork:
			sess.State = session.StateClassicInterest
		case session.StateClassicRisk:
			sess.State = session.StateClassicWork
		}
		if err := m.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		if sess.State == session.StateModeSelect {
			return modeSelectReply(), nil
		}
		return m.classicPrompt(sess), nil
	}

	switch sess.State {
	case session.StateClassicAudience:
		if !contains(AudienceOptions, input) {
			return m.invalidInput(sess, m.classicPrompt(sess), input), nil
		}
		sess.Answers.Audience = input
		sess.State = session.StateClassicInterest

	case session.StateClassicInterest:
		if !contains(m.catalog.Categories(), input) {
			return m.invalidInput(sess, m.classicPrompt(sess), input), nil
		}
		sess.Answers.Category = input
		sess.State = session.StateClassicWork

	case session.StateClassicWork:
		switch input {
		case OptPeople:
			sess.Answers.WorksWithPeople = true
		case OptSolo:
			sess.Answers.WorksWithPeople = false
		default:
			return m.invalidInput(sess, m.classicPrompt(sess), input), nil
		}
		sess.State = session.StateClassicRisk

	case session.StateClassicRisk:
		switch input {
		case OptRisky:
			sess.Answers.RiskTolerant = true
		case OptStable:
			sess.Answers.RiskTolerant = false
		default:
			return m.invalidInput(sess, m.classicPrompt(sess), input), nil
		}
		return m.finishClassic(ctx, sess)
	}

	if err := m.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}
	return m.classicPrompt(sess), nil
}

// finishClassic runs matching on the terminal answer, persists the
// result and evaluates achievements.
func (m *Machine) finishClassic(ctx context.Context, sess *session.Session) (*Reply, error) {
	completedAt := time.Now().UTC()
	duration := completedAt.Sub(sess.StartedAt)

	matches, err := m.engine.Rank(m.catalog.All(), sess.Answers)
	if err != nil {
		if cerrors.Is(err, cerrors.ErrCodeNoMatchFound) {
			sess.State = session.StateModeSelect
			if saveErr := m.sessions.Save(ctx, sess); saveErr != nil {
				return nil, saveErr
			}
			reply := modeSelectReply()
			reply.Err = err.(*cerrors.StandardError)
			return reply, nil
		}
		return nil, err
	}

	totalTests, err := m.profiles.RecordTestResult(ctx, sess.UserID, matches, sess.Answers)
	if err != nil {
		// Persist failures surface; the user can answer again.
		return m.replyWithError(sess, err), nil
	}

	sess.State = session.StateShowResults
	sess.Results = matches
	if err := m.sessions.Save(ctx, sess); err != nil {
		return nil, err
	}

	reply := m.resultsReply(sess)

	unlocks, err := m.tracker.Evaluate(ctx, sess.UserID, achievements.KindTests, totalTests)
	m.collectUnlocks(reply, sess.UserID, unlocks, err)
	unlocks, err = m.tracker.EvaluateSpecial(ctx, sess.UserID, completedAt, duration)
	m.collectUnlocks(reply, sess.UserID, unlocks, err)

	// Discovery milestones ride on the aggregates the result just moved.
	p := m.profiles.GetProfile(ctx, sess.UserID)
	unlocks, err = m.tracker.Evaluate(ctx, sess.UserID, achievements.KindCategories, len(p.FavoriteCategoryCounts))
	m.collectUnlocks(reply, sess.UserID, unlocks, err)
	unlocks, err = m.tracker.EvaluateDelta(ctx, sess.UserID, achievements.KindSalaryViews, len(matches))
	m.collectUnlocks(reply, sess.UserID, unlocks, err)

	m.recordUnlocks(ctx, reply.Unlocks)
	return reply, nil
}

func contains(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}
