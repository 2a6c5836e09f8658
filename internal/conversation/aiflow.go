// internal/conversation/aiflow.go
package conversation

import (
	"context"
	"fmt"
	"strings"

	"career-advisor/internal/achievements"
	cerrors "career-advisor/internal/common/errors"
	"career-advisor/internal/genai"
	"career-advisor/internal/models"
	"career-advisor/internal/session"
)

// handleAICollecting runs the free-form consultation. The transcript
// only ever grows on a successful backend call: a failure leaves the
// session exactly as it was.
func (m *Machine) handleAICollecting(ctx context.Context, sess *session.Session, input string) (*Reply, error) {
	lower := strings.ToLower(strings.TrimSpace(input))

	switch lower {
	case OptDone:
		sess.State = session.StateModeSelect
		sess.Transcript = nil
		if err := m.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		return modeSelectReply(), nil

	case CmdBack:
		// Non-destructive: the transcript survives so the consultation
		// can resume.
		sess.State = session.StateModeSelect
		if err := m.sessions.Save(ctx, sess); err != nil {
			return nil, err
		}
		return modeSelectReply(), nil

	case OptRecommend:
		return m.handleRecommend(ctx, sess)
	}

	if strings.TrimSpace(input) == "" {
		return m.invalidInput(sess, m.promptFor(sess), input), nil
	}
	return m.handleChatTurn(ctx, sess, input)
}

func (m *Machine) handleChatTurn(ctx context.Context, sess *session.Session, input string) (*Reply, error) {
	versionSnapshot := sess.Version

	candidate := append(append([]models.Turn(nil), sess.Transcript...), models.Turn{
		Role:    models.RoleUser,
		Content: input,
	})

	answer, err := m.backend.Respond(ctx, candidate, genai.ModeChat)
	if err != nil {
		return m.backendFailure(sess, err), nil
	}

	sess.AppendTurn(models.RoleUser, input)
	sess.AppendTurn(models.RoleAssistant, answer)

	if err := m.sessions.SaveIfVersion(ctx, sess, versionSnapshot); err != nil {
		if cerrors.Is(err, cerrors.ErrCodeSessionConflict) {
			return m.discardStaleResult(ctx, sess.UserID)
		}
		return nil, err
	}

	return &Reply{
		State:   session.StateAiCollecting,
		Prompt:  PromptAiCollect,
		Options: []string{OptRecommend, OptDone},
		Text:    answer,
	}, nil
}

func (m *Machine) handleRecommend(ctx context.Context, sess *session.Session) (*Reply, error) {
	minTurns := m.cfg.MinAITurns
	if got := sess.UserTurns(); got < minTurns {
		reply := m.promptFor(sess)
		reply.Err = cerrors.NewValidationError(
			fmt.Sprintf("need at least %d messages before a recommendation, have %d", minTurns, got))
		return reply, nil
	}

	versionSnapshot := sess.Version

	recommendation, err := m.backend.Respond(ctx, sess.Transcript, genai.ModeRecommend)
	if err != nil {
		return m.backendFailure(sess, err), nil
	}

	sess.AppendTurn(models.RoleAssistant, recommendation)
	turns := sess.UserTurns()
	sess.State = session.StateShowResults
	sess.Results = nil

	if err := m.sessions.SaveIfVersion(ctx, sess, versionSnapshot); err != nil {
		if cerrors.Is(err, cerrors.ErrCodeSessionConflict) {
			// Lost the race against a restart: nothing is persisted.
			return m.discardStaleResult(ctx, sess.UserID)
		}
		return nil, err
	}

	total, err := m.profiles.RecordConsultation(ctx, sess.UserID, turns, recommendation)
	if err != nil {
		return m.replyWithError(sess, err), nil
	}

	reply := m.resultsReply(sess)
	reply.Text = recommendation

	unlocks, unlockErr := m.tracker.Evaluate(ctx, sess.UserID, achievements.KindConsultations, total)
	m.collectUnlocks(reply, sess.UserID, unlocks, unlockErr)
	m.recordUnlocks(ctx, reply.Unlocks)
	return reply, nil
}

// backendFailure reports a generation error while preserving the
// session: state stays AiCollecting, the transcript is untouched.
func (m *Machine) backendFailure(sess *session.Session, err error) *Reply {
	stdErr, ok := err.(*cerrors.StandardError)
	if !ok {
		stdErr = cerrors.NewGenerationBackendError(err)
	}
	m.logger.Warn("Generation backend failed", map[string]interface{}{
		"userId": sess.UserID,
		"code":   string(stdErr.Code),
	})
	reply := m.promptFor(sess)
	reply.Err = stdErr
	return reply
}
