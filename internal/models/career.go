// internal/models/career.go
package models

// CareerProfile is a single entry of the career catalog.
type CareerProfile struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	Description     string   `json:"description"`
	Salary          string   `json:"salary"`
	Audience        []string `json:"audience"`
	WorksWithPeople bool     `json:"worksWithPeople"`
	RiskTolerant    bool     `json:"riskTolerant"`
	Tags            []string `json:"tags,omitempty"`
}

// HasTag reports whether the profile carries the given tag.
func (p *CareerProfile) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ForAudience reports whether the profile targets the given audience group.
func (p *CareerProfile) ForAudience(audience string) bool {
	for _, a := range p.Audience {
		if a == audience {
			return true
		}
	}
	return false
}

// AnswerSet holds the answers collected by the guided questionnaire.
type AnswerSet struct {
	Audience        string `json:"audience"`
	Category        string `json:"category"`
	WorksWithPeople bool   `json:"worksWithPeople"`
	RiskTolerant    bool   `json:"riskTolerant"`
}

// Match is one ranked recommendation produced by the matching engine.
type Match struct {
	Profile       CareerProfile `json:"profile"`
	Score         int           `json:"score"`
	LowConfidence bool          `json:"lowConfidence,omitempty"`
}
