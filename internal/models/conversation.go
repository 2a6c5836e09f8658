// internal/models/conversation.go
package models

import "time"

// TurnRole identifies who produced a transcript turn.
type TurnRole string

const (
	RoleUser      TurnRole = "user"
	RoleAssistant TurnRole = "assistant"
)

// Turn is one message of an AI consultation transcript.
type Turn struct {
	Role      TurnRole  `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// UserTurns counts the user-authored turns of a transcript.
func UserTurns(transcript []Turn) int {
	n := 0
	for _, t := range transcript {
		if t.Role == RoleUser {
			n++
		}
	}
	return n
}

// UnlockEvent reports a newly unlocked achievement.
type UnlockEvent struct {
	AchievementID string    `json:"achievementId"`
	Name          string    `json:"name"`
	Icon          string    `json:"icon"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}
