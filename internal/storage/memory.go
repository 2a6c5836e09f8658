// internal/storage/memory.go
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"career-advisor/internal/common/errors"
	"career-advisor/internal/models"
)

// MemoryStore is an in-memory Store used by tests and local runs
// without a database. Safe for concurrent use.
type MemoryStore struct {
	mu        sync.Mutex
	profiles  map[string]*models.UserProfile
	results   map[string][]models.TestResult
	sessions  map[string][]models.AISession
	favorites map[string][]models.Favorite
	unlocks   map[string][]UnlockedAchievement
	progress  map[string]map[string]int
	nextID    int64

	// FailWrites makes every mutating call fail, for degraded-path
	// tests.
	FailWrites bool
	// FailReads makes every read fail.
	FailReads bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:  map[string]*models.UserProfile{},
		results:   map[string][]models.TestResult{},
		sessions:  map[string][]models.AISession{},
		favorites: map[string][]models.Favorite{},
		unlocks:   map[string][]UnlockedAchievement{},
		progress:  map[string]map[string]int{},
	}
}

func (s *MemoryStore) failWrite(op string) error {
	if s.FailWrites {
		return errors.NewPersistenceError(op, errSimulated)
	}
	return nil
}

func (s *MemoryStore) failRead(op string) error {
	if s.FailReads {
		return errors.NewPersistenceError(op, errSimulated)
	}
	return nil
}

var errSimulated = &simulatedError{}

type simulatedError struct{}

func (*simulatedError) Error() string { return "simulated store failure" }

func (s *MemoryStore) Migrate(context.Context) error { return nil }

// ==========================
// Profiles
// ==========================

func (s *MemoryStore) EnsureProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failWrite("ensure_profile"); err != nil {
		return nil, err
	}
	p, ok := s.profiles[userID]
	if !ok {
		p = models.DefaultProfile(userID)
		s.profiles[userID] = p
	}
	return cloneProfile(p), nil
}

func (s *MemoryStore) GetProfile(_ context.Context, userID string) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failRead("get_profile"); err != nil {
		return nil, err
	}
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return cloneProfile(p), nil
}

func (s *MemoryStore) IncrementTests(ctx context.Context, userID string) error {
	return s.bump(ctx, userID, func(p *models.UserProfile) { p.TotalTests++ })
}

func (s *MemoryStore) IncrementConsultations(ctx context.Context, userID string) error {
	return s.bump(ctx, userID, func(p *models.UserProfile) { p.AIConsultations++ })
}

func (s *MemoryStore) bump(_ context.Context, userID string, f func(*models.UserProfile)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failWrite("bump"); err != nil {
		return err
	}
	p, ok := s.profiles[userID]
	if !ok {
		p = models.DefaultProfile(userID)
		s.profiles[userID] = p
	}
	f(p)
	return nil
}

func (s *MemoryStore) BumpFavoriteCategories(ctx context.Context, userID string, categories []string) error {
	return s.bump(ctx, userID, func(p *models.UserProfile) {
		for _, c := range categories {
			p.FavoriteCategoryCounts[c]++
		}
	})
}

func (s *MemoryStore) ResetProfile(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failWrite("reset_profile"); err != nil {
		return err
	}
	if p, ok := s.profiles[userID]; ok {
		p.TotalTests = 0
		p.AIConsultations = 0
		p.FavoriteCategoryCounts = map[string]int{}
	}
	return nil
}

// ==========================
// Results
// ==========================

func (s *MemoryStore) SaveTestResult(_ context.Context, result *models.TestResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failWrite("save_test_result"); err != nil {
		return err
	}
	s.nextID++
	result.ID = s.nextID
	if result.TakenAt.IsZero() {
		result.TakenAt = time.Now().UTC()
	}
	s.results[result.UserID] = append(s.results[result.UserID], *result)
	return nil
}

func (s *MemoryStore) RecentResults(_ context.Context, userID string, limit int) ([]models.TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failRead("recent_results"); err != nil {
		return nil, err
	}
	all := append([]models.TestResult(nil), s.results[userID]...)
	sort.SliceStable(all, func(i, j int) bool { return all[i].TakenAt.After(all[j].TakenAt) })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (s *MemoryStore) SaveAISession(_ context.Context, session *models.AISession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failWrite("save_ai_session"); err != nil {
		return err
	}
	s.nextID++
	session.ID = s.nextID
	if session.HeldAt.IsZero() {
		session.HeldAt = time.Now().UTC()
	}
	s.sessions[session.UserID] = append(s.sessions[session.UserID], *session)
	return nil
}

func (s *MemoryStore) DeleteResults(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failWrite("delete_results"); err != nil {
		return err
	}
	delete(s.results, userID)
	delete(s.sessions, userID)
	return nil
}

// ==========================
// Favorites
// ==========================

func (s *MemoryStore) AddFavorite(_ context.Context, fav *models.Favorite) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failWrite("add_favorite"); err != nil {
		return false, err
	}
	for _, f := range s.favorites[fav.UserID] {
		if f.Name == fav.Name {
			return false, nil
		}
	}
	s.nextID++
	fav.ID = s.nextID
	if fav.AddedAt.IsZero() {
		fav.AddedAt = time.Now().UTC()
	}
	s.favorites[fav.UserID] = append(s.favorites[fav.UserID], *fav)
	return true, nil
}

func (s *MemoryStore) Favorites(_ context.Context, userID string) ([]models.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failRead("favorites"); err != nil {
		return nil, err
	}
	return append([]models.Favorite(nil), s.favorites[userID]...), nil
}

func (s *MemoryStore) RemoveFavorite(_ context.Context, userID, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failWrite("remove_favorite"); err != nil {
		return false, err
	}
	favs := s.favorites[userID]
	for i, f := range favs {
		if f.Name == name {
			s.favorites[userID] = append(favs[:i], favs[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) CountFavorites(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failRead("count_favorites"); err != nil {
		return 0, err
	}
	return len(s.favorites[userID]), nil
}

func (s *MemoryStore) DeleteFavorites(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failWrite("delete_favorites"); err != nil {
		return err
	}
	delete(s.favorites, userID)
	return nil
}

// ==========================
// Achievements
// ==========================

func (s *MemoryStore) RecordUnlock(_ context.Context, userID string, a UnlockedAchievement) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failWrite("record_unlock"); err != nil {
		return false, err
	}
	for _, u := range s.unlocks[userID] {
		if u.AchievementID == a.AchievementID {
			return false, nil
		}
	}
	s.unlocks[userID] = append(s.unlocks[userID], a)
	return true, nil
}

func (s *MemoryStore) Unlocked(_ context.Context, userID string) ([]UnlockedAchievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failRead("unlocked"); err != nil {
		return nil, err
	}
	return append([]UnlockedAchievement(nil), s.unlocks[userID]...), nil
}

func (s *MemoryStore) CountUnlocked(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failRead("count_unlocked"); err != nil {
		return 0, err
	}
	return len(s.unlocks[userID]), nil
}

func (s *MemoryStore) SetProgress(_ context.Context, userID, achievementID string, current int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failWrite("set_progress"); err != nil {
		return err
	}
	if s.progress[userID] == nil {
		s.progress[userID] = map[string]int{}
	}
	s.progress[userID][achievementID] = current
	return nil
}

func (s *MemoryStore) Progress(_ context.Context, userID string) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failRead("progress"); err != nil {
		return nil, err
	}
	out := map[string]int{}
	for k, v := range s.progress[userID] {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) DeleteAchievements(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failWrite("delete_achievements"); err != nil {
		return err
	}
	delete(s.unlocks, userID)
	delete(s.progress, userID)
	return nil
}

func (s *MemoryStore) TableCounts(_ context.Context) (map[string]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failRead("table_counts"); err != nil {
		return nil, err
	}
	results, sessions, favorites, unlocks := 0, 0, 0, 0
	for _, v := range s.results {
		results += len(v)
	}
	for _, v := range s.sessions {
		sessions += len(v)
	}
	for _, v := range s.favorites {
		favorites += len(v)
	}
	for _, v := range s.unlocks {
		unlocks += len(v)
	}
	return map[string]int{
		"user_profiles": len(s.profiles),
		"test_results":  results,
		"ai_sessions":   sessions,
		"favorites":     favorites,
		"achievements":  unlocks,
	}, nil
}

func cloneProfile(p *models.UserProfile) *models.UserProfile {
	cp := *p
	cp.FavoriteCategoryCounts = map[string]int{}
	for k, v := range p.FavoriteCategoryCounts {
		cp.FavoriteCategoryCounts[k] = v
	}
	return &cp
}
