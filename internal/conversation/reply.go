// internal/conversation/reply.go
package conversation

import (
	cerrors "career-advisor/internal/common/errors"
	"career-advisor/internal/models"
	"career-advisor/internal/session"
)

// PromptKind tells the renderer what to ask next. Rendering itself is
// out of scope here; replies stay structured.
type PromptKind string

const (
	PromptMainMenu   PromptKind = "main_menu"
	PromptModeSelect PromptKind = "mode_select"
	PromptAudience   PromptKind = "audience"
	PromptInterest   PromptKind = "interest"
	PromptWorkStyle  PromptKind = "work_style"
	PromptRisk       PromptKind = "risk"
	PromptAiCollect  PromptKind = "ai_collect"
	PromptResults    PromptKind = "results"
)

// Reply is the structured outcome of one handled input.
type Reply struct {
	State   session.State         `json:"state"`
	Prompt  PromptKind            `json:"prompt"`
	Options []string              `json:"options,omitempty"`
	Text    string                `json:"text,omitempty"`
	Matches []models.Match        `json:"matches,omitempty"`
	Unlocks []models.UnlockEvent  `json:"unlocks,omitempty"`
	Err     *cerrors.StandardError `json:"error,omitempty"`
}

// Commands and fixed option values.
const (
	CmdStart   = "/start"
	CmdRestart = "/restart"
	CmdBack    = "back"
	CmdMenu    = "menu"

	OptStartTest    = "start"
	OptProfile      = "profile"
	OptFavorites    = "favorites"
	OptAchievements = "achievements"

	OptClassic = "classic"
	OptAI      = "ai"

	OptPeople = "people"
	OptSolo   = "solo"
	OptStable = "stable"
	OptRisky  = "risky"

	OptRecommend = "recommend"
	OptDone      = "done"
)

// AudienceOptions are the supported audience groups, matching the
// catalog's audience values.
var AudienceOptions = []string{"teen", "adult"}

func mainMenuReply() *Reply {
	return &Reply{
		State:   session.StateMainMenu,
		Prompt:  PromptMainMenu,
		Options: []string{OptStartTest, OptProfile, OptFavorites, OptAchievements},
	}
}

func modeSelectReply() *Reply {
	return &Reply{
		State:   session.StateModeSelect,
		Prompt:  PromptModeSelect,
		Options: []string{OptClassic, OptAI, CmdBack},
	}
}
