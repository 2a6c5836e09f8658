// internal/achievements/definitions.go
package achievements

// MilestoneKind names the counter a definition watches.
type MilestoneKind string

const (
	KindTests         MilestoneKind = "tests"
	KindConsultations MilestoneKind = "consultations"
	KindFavorites     MilestoneKind = "favorites"
	KindActiveDays    MilestoneKind = "active_days"
	KindCategories    MilestoneKind = "categories_explored"
	KindSalaryViews   MilestoneKind = "salary_views"
	// KindSpecial definitions never unlock from counters, only from
	// EvaluateSpecial at event time.
	KindSpecial MilestoneKind = "special"
)

// Definition is one achievement. Threshold is the counter value at
// which it unlocks; zero for specials.
type Definition struct {
	ID          string
	Name        string
	Description string
	Icon        string
	Category    string
	Kind        MilestoneKind
	Threshold   int
}

// Definitions lists every achievement in unlock-report order. Multiple
// unlocks from one Evaluate call come back in this order.
var Definitions = []Definition{
	{ID: "first_test", Name: "First Steps", Description: "Complete your first career test", Icon: "🎯", Category: "tests", Kind: KindTests, Threshold: 1},
	{ID: "test_enthusiast", Name: "Test Enthusiast", Description: "Complete 10 career tests", Icon: "📊", Category: "tests", Kind: KindTests, Threshold: 10},
	{ID: "test_master", Name: "Test Master", Description: "Complete 25 career tests", Icon: "🏆", Category: "tests", Kind: KindTests, Threshold: 25},

	{ID: "ai_curious", Name: "AI Curious", Description: "Finish your first AI consultation", Icon: "🤖", Category: "ai", Kind: KindConsultations, Threshold: 1},
	{ID: "ai_explorer", Name: "AI Explorer", Description: "Finish 5 AI consultations", Icon: "🔮", Category: "ai", Kind: KindConsultations, Threshold: 5},
	{ID: "ai_master", Name: "AI Master", Description: "Finish 15 AI consultations", Icon: "🧠", Category: "ai", Kind: KindConsultations, Threshold: 15},

	{ID: "first_favorite", Name: "First Favorite", Description: "Save a career to favorites", Icon: "⭐", Category: "favorites", Kind: KindFavorites, Threshold: 1},
	{ID: "collector", Name: "Collector", Description: "Save 5 careers to favorites", Icon: "💫", Category: "favorites", Kind: KindFavorites, Threshold: 5},
	{ID: "connoisseur", Name: "Connoisseur", Description: "Save 15 careers to favorites", Icon: "🌟", Category: "favorites", Kind: KindFavorites, Threshold: 15},

	{ID: "week_active", Name: "Regular", Description: "Stay active for 7 days", Icon: "📅", Category: "activity", Kind: KindActiveDays, Threshold: 7},
	{ID: "month_active", Name: "Dedicated", Description: "Stay active for 30 days", Icon: "🗓", Category: "activity", Kind: KindActiveDays, Threshold: 30},
	{ID: "centurion", Name: "Centurion", Description: "Stay active for 100 days", Icon: "💯", Category: "activity", Kind: KindActiveDays, Threshold: 100},

	{ID: "explorer", Name: "Explorer", Description: "Browse careers in 5 different categories", Icon: "🧭", Category: "discovery", Kind: KindCategories, Threshold: 5},
	{ID: "salary_hunter", Name: "Salary Hunter", Description: "Check salary details 10 times", Icon: "💰", Category: "discovery", Kind: KindSalaryViews, Threshold: 10},

	{ID: "early_bird", Name: "Early Bird", Description: "Complete a test before 9 AM", Icon: "🌅", Category: "special", Kind: KindSpecial},
	{ID: "night_owl", Name: "Night Owl", Description: "Complete a test after 11 PM", Icon: "🦉", Category: "special", Kind: KindSpecial},
	{ID: "speed_runner", Name: "Speed Runner", Description: "Finish a test in under 30 seconds", Icon: "⚡", Category: "special", Kind: KindSpecial},
}

// ByID returns the definition with the given id.
func ByID(id string) (Definition, bool) {
	for _, d := range Definitions {
		if d.ID == id {
			return d, true
		}
	}
	return Definition{}, false
}
