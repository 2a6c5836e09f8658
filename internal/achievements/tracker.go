// internal/achievements/tracker.go

// Package achievements evaluates milestone counters against the fixed
// definition list and records unlocks exactly once per user.
package achievements

import (
	"context"
	"time"

	"career-advisor/internal/common/logger"
	"career-advisor/internal/common/metrics"
	"career-advisor/internal/models"
	"career-advisor/internal/storage"
)

// Tracker evaluates counters and the one-shot specials.
type Tracker struct {
	store  storage.AchievementStore
	logger logger.Logger

	earlyBirdBefore int
	nightOwlFrom    int
	speedRunWithin  time.Duration
}

// Option adjusts special-achievement cutoffs.
type Option func(*Tracker)

func WithEarlyBirdBefore(hour int) Option {
	return func(t *Tracker) { t.earlyBirdBefore = hour }
}

func WithNightOwlFrom(hour int) Option {
	return func(t *Tracker) { t.nightOwlFrom = hour }
}

func WithSpeedRunWithin(d time.Duration) Option {
	return func(t *Tracker) { t.speedRunWithin = d }
}

func NewTracker(store storage.AchievementStore, log logger.Logger, opts ...Option) *Tracker {
	t := &Tracker{
		store:           store,
		logger:          log,
		earlyBirdBefore: 9,
		nightOwlFrom:    23,
		speedRunWithin:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Evaluate walks the definitions of the given kind in order. Reaching a
// threshold unlocks at most once per (user, achievement); below it the
// current value is recorded as progress. Several thresholds crossed by
// one call report in definition order.
func (t *Tracker) Evaluate(ctx context.Context, userID string, kind MilestoneKind, currentValue int) ([]models.UnlockEvent, error) {
	if kind == KindSpecial {
		return nil, nil
	}

	var events []models.UnlockEvent
	for _, def := range Definitions {
		if def.Kind != kind {
			continue
		}
		if currentValue >= def.Threshold {
			event, unlocked, err := t.unlock(ctx, userID, def)
			if err != nil {
				return events, err
			}
			if unlocked {
				events = append(events, event)
			}
		} else if err := t.store.SetProgress(ctx, userID, def.ID, currentValue); err != nil {
			return events, err
		}
	}
	return events, nil
}

// EvaluateDelta bumps a counter kept only in achievement_progress by
// delta and evaluates the result. Used for counters no other aggregate
// tracks, like salary views.
func (t *Tracker) EvaluateDelta(ctx context.Context, userID string, kind MilestoneKind, delta int) ([]models.UnlockEvent, error) {
	if delta <= 0 {
		return nil, nil
	}
	progress, err := t.store.Progress(ctx, userID)
	if err != nil {
		return nil, err
	}
	current := 0
	for _, def := range Definitions {
		if def.Kind == kind && progress[def.ID] > current {
			current = progress[def.ID]
		}
	}
	return t.Evaluate(ctx, userID, kind, current+delta)
}

// EvaluateSpecial checks the one-shot time-of-day and speed
// achievements. Only called at test completion; counters never
// retro-unlock these.
func (t *Tracker) EvaluateSpecial(ctx context.Context, userID string, completedAt time.Time, duration time.Duration) ([]models.UnlockEvent, error) {
	var events []models.UnlockEvent

	check := func(id string, hit bool) error {
		if !hit {
			return nil
		}
		def, ok := ByID(id)
		if !ok {
			return nil
		}
		event, unlocked, err := t.unlock(ctx, userID, def)
		if err != nil {
			return err
		}
		if unlocked {
			events = append(events, event)
		}
		return nil
	}

	hour := completedAt.Hour()
	if err := check("early_bird", hour < t.earlyBirdBefore); err != nil {
		return events, err
	}
	if err := check("night_owl", hour >= t.nightOwlFrom); err != nil {
		return events, err
	}
	if err := check("speed_runner", duration > 0 && duration < t.speedRunWithin); err != nil {
		return events, err
	}
	return events, nil
}

func (t *Tracker) unlock(ctx context.Context, userID string, def Definition) (models.UnlockEvent, bool, error) {
	now := time.Now().UTC()
	inserted, err := t.store.RecordUnlock(ctx, userID, storage.UnlockedAchievement{
		AchievementID: def.ID,
		Name:          def.Name,
		Description:   def.Description,
		Icon:          def.Icon,
		Category:      def.Category,
		UnlockedAt:    now,
	})
	if err != nil {
		return models.UnlockEvent{}, false, err
	}
	if !inserted {
		return models.UnlockEvent{}, false, nil
	}

	metrics.AchievementsUnlocked.WithLabelValues(def.Category).Inc()
	t.logger.Info("Achievement unlocked", map[string]interface{}{
		"userId":        userID,
		"achievementId": def.ID,
	})
	return models.UnlockEvent{
		AchievementID: def.ID,
		Name:          def.Name,
		Icon:          def.Icon,
		UnlockedAt:    now,
	}, true, nil
}

// Unlocked lists the user's unlocked achievements with timestamps.
func (t *Tracker) Unlocked(ctx context.Context, userID string) ([]storage.UnlockedAchievement, error) {
	return t.store.Unlocked(ctx, userID)
}

// ProgressEntry pairs a definition with the user's standing on it.
type ProgressEntry struct {
	Definition Definition `json:"definition"`
	Current    int        `json:"current"`
	Unlocked   bool       `json:"unlocked"`
}

// ProgressReport returns every definition with the user's current
// progress and unlock state, in definition order.
func (t *Tracker) ProgressReport(ctx context.Context, userID string) ([]ProgressEntry, error) {
	unlocked, err := t.store.Unlocked(ctx, userID)
	if err != nil {
		return nil, err
	}
	unlockedSet := make(map[string]bool, len(unlocked))
	for _, a := range unlocked {
		unlockedSet[a.AchievementID] = true
	}

	progress, err := t.store.Progress(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]ProgressEntry, 0, len(Definitions))
	for _, def := range Definitions {
		entry := ProgressEntry{
			Definition: def,
			Current:    progress[def.ID],
			Unlocked:   unlockedSet[def.ID],
		}
		if entry.Unlocked {
			entry.Current = def.Threshold
		}
		out = append(out, entry)
	}
	return out, nil
}
