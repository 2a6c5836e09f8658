// internal/session/session.go

// Package session keeps per-user conversation state in Redis.
package session

import (
	"time"

	"github.com/google/uuid"

	"career-advisor/internal/models"
)

// State is a conversation state machine node.
type State string

const (
	StateMainMenu        State = "main_menu"
	StateModeSelect      State = "mode_select"
	StateClassicAudience State = "classic_audience"
	StateClassicInterest State = "classic_interest"
	StateClassicWork     State = "classic_work_style"
	StateClassicRisk     State = "classic_risk"
	StateAiCollecting    State = "ai_collecting"
	StateShowResults     State = "show_results"
)

// Session is one user's conversation. Version is rotated on every hard
// reset so a result computed against an older session can be told apart
// and discarded.
type Session struct {
	UserID     string           `json:"userId"`
	State      State            `json:"state"`
	Version    string           `json:"version"`
	Answers    models.AnswerSet `json:"answers"`
	Transcript []models.Turn    `json:"transcript,omitempty"`
	Results    []models.Match   `json:"results,omitempty"`
	StartedAt  time.Time        `json:"startedAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
}

// New returns a fresh MainMenu session with a new version token.
func New(userID string) *Session {
	now := time.Now().UTC()
	return &Session{
		UserID:    userID,
		State:     StateMainMenu,
		Version:   uuid.NewString(),
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Reset wipes answers, transcript and results and rotates the version
// token. The userID survives.
func (s *Session) Reset() {
	userID := s.UserID
	*s = *New(userID)
}

// AppendTurn adds a transcript turn.
func (s *Session) AppendTurn(role models.TurnRole, content string) {
	s.Transcript = append(s.Transcript, models.Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// UserTurns counts user-authored transcript turns.
func (s *Session) UserTurns() int {
	return models.UserTurns(s.Transcript)
}
