// internal/catalog/catalog.go

// Package catalog owns the in-memory career catalog: loading, schema
// validation, lookups and the small admin surface.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"career-advisor/internal/common/errors"
	"career-advisor/internal/common/logger"
	"career-advisor/internal/common/metrics"
	"career-advisor/internal/models"

	"github.com/xeipuuv/gojsonschema"
)

// TagHighGrowth marks professions the matcher boosts by +5.
const TagHighGrowth = "high_growth"

// Catalog is an immutable snapshot of career profiles guarded for
// concurrent reload. All read methods return defensive copies.
type Catalog struct {
	mu       sync.RWMutex
	profiles []models.CareerProfile
	byID     map[int]int
	logger   logger.Logger
}

// New builds a catalog from an already validated profile slice.
func New(profiles []models.CareerProfile, log logger.Logger) (*Catalog, error) {
	c := &Catalog{logger: log}
	if err := c.replace(profiles); err != nil {
		return nil, err
	}
	return c, nil
}

// Load reads and validates the catalog file at path.
func Load(path string, log logger.Logger) (*Catalog, error) {
	profiles, err := parseFile(path)
	if err != nil {
		return nil, err
	}
	c, err := New(profiles, log)
	if err != nil {
		return nil, err
	}
	log.Info("Catalog loaded", map[string]interface{}{
		"path":    path,
		"careers": len(profiles),
	})
	return c, nil
}

// Reload swaps the snapshot atomically. On failure the previous
// snapshot stays live and the error is returned.
func (c *Catalog) Reload(path string) error {
	profiles, err := parseFile(path)
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("failure").Inc()
		return err
	}
	if err := c.replace(profiles); err != nil {
		metrics.CatalogReloads.WithLabelValues("failure").Inc()
		return err
	}
	metrics.CatalogReloads.WithLabelValues("success").Inc()
	c.logger.Info("Catalog reloaded", map[string]interface{}{
		"path":    path,
		"careers": len(profiles),
	})
	return nil
}

func parseFile(path string) ([]models.CareerProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewCatalogLoadError(fmt.Sprintf("read %s: %v", path, err))
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(careerSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, errors.NewCatalogLoadError(fmt.Sprintf("schema validation: %v", err))
	}
	if !result.Valid() {
		var b strings.Builder
		for i, desc := range result.Errors() {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(desc.String())
		}
		return nil, errors.NewCatalogLoadError(b.String())
	}

	var file catalogFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.NewCatalogLoadError(fmt.Sprintf("decode: %v", err))
	}

	profiles := make([]models.CareerProfile, 0, len(file.Careers))
	for _, r := range file.Careers {
		profiles = append(profiles, models.CareerProfile{
			ID:              r.ID,
			Name:            r.Name,
			Category:        r.Category,
			Description:     r.Description,
			Salary:          r.Salary,
			Audience:        r.Audience,
			WorksWithPeople: r.WorksWithPeople,
			RiskTolerant:    r.RiskTolerant,
			Tags:            r.Tags,
		})
	}
	return profiles, nil
}

// replace validates invariants the schema cannot express and installs
// the new snapshot.
func (c *Catalog) replace(profiles []models.CareerProfile) error {
	byID := make(map[int]int, len(profiles))
	for i, p := range profiles {
		if p.ID < 0 {
			return errors.NewCatalogLoadError(fmt.Sprintf("career %q: negative id %d", p.Name, p.ID))
		}
		if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Category) == "" {
			return errors.NewCatalogLoadError(fmt.Sprintf("career id %d: empty name or category", p.ID))
		}
		if prev, dup := byID[p.ID]; dup {
			return errors.NewCatalogLoadError(
				fmt.Sprintf("duplicate id %d (%q and %q)", p.ID, profiles[prev].Name, p.Name))
		}
		byID[p.ID] = i
	}

	c.mu.Lock()
	c.profiles = copyProfiles(profiles)
	c.byID = byID
	c.mu.Unlock()
	return nil
}

// All returns every profile in catalog order.
func (c *Catalog) All() []models.CareerProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return copyProfiles(c.profiles)
}

// ByID returns the profile with the given id.
func (c *Catalog) ByID(id int) (models.CareerProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return models.CareerProfile{}, false
	}
	return copyProfile(c.profiles[i]), true
}

// ByName returns the profile with the given name, case-insensitive.
func (c *Catalog) ByName(name string) (models.CareerProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.profiles {
		if strings.EqualFold(p.Name, name) {
			return copyProfile(p), true
		}
	}
	return models.CareerProfile{}, false
}

// ByCategory returns all profiles in the given category, catalog order.
func (c *Catalog) ByCategory(category string) []models.CareerProfile {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.CareerProfile
	for _, p := range c.profiles {
		if strings.EqualFold(p.Category, category) {
			out = append(out, copyProfile(p))
		}
	}
	return out
}

// Categories returns the distinct categories, sorted.
func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := map[string]bool{}
	var out []string
	for _, p := range c.profiles {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out
}

// SearchByName returns profiles whose name contains the query,
// case-insensitive, catalog order.
func (c *Catalog) SearchByName(query string) []models.CareerProfile {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.CareerProfile
	for _, p := range c.profiles {
		if strings.Contains(strings.ToLower(p.Name), q) {
			out = append(out, copyProfile(p))
		}
	}
	return out
}

// Stats summarizes the current snapshot.
type Stats struct {
	Total      int            `json:"total"`
	Categories map[string]int `json:"categories"`
	HighGrowth int            `json:"highGrowth"`
}

func (c *Catalog) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := Stats{
		Total:      len(c.profiles),
		Categories: map[string]int{},
	}
	for _, p := range c.profiles {
		s.Categories[p.Category]++
		if p.HasTag(TagHighGrowth) {
			s.HighGrowth++
		}
	}
	return s
}

// Add inserts a profile. A zero ID gets the next free one; an explicit
// ID must be unused and non-negative.
func (c *Catalog) Add(p models.CareerProfile) (models.CareerProfile, error) {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Category) == "" {
		return models.CareerProfile{}, errors.NewValidationError("name and category are required")
	}
	if p.ID < 0 {
		return models.CareerProfile{}, errors.NewValidationError(fmt.Sprintf("negative id %d", p.ID))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if p.ID == 0 {
		next := 1
		for id := range c.byID {
			if id >= next {
				next = id + 1
			}
		}
		p.ID = next
	} else if _, exists := c.byID[p.ID]; exists {
		return models.CareerProfile{}, errors.NewValidationError(fmt.Sprintf("id %d already in use", p.ID))
	}

	c.profiles = append(c.profiles, copyProfile(p))
	c.byID[p.ID] = len(c.profiles) - 1
	return copyProfile(p), nil
}

// Update replaces the profile with the same ID.
func (c *Catalog) Update(p models.CareerProfile) error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Category) == "" {
		return errors.NewValidationError("name and category are required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.byID[p.ID]
	if !ok {
		return errors.NewValidationError(fmt.Sprintf("unknown id %d", p.ID))
	}
	c.profiles[i] = copyProfile(p)
	return nil
}

// Delete removes the profile with the given ID.
func (c *Catalog) Delete(id int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i, ok := c.byID[id]
	if !ok {
		return errors.NewValidationError(fmt.Sprintf("unknown id %d", id))
	}
	c.profiles = append(c.profiles[:i], c.profiles[i+1:]...)
	delete(c.byID, id)
	for j := i; j < len(c.profiles); j++ {
		c.byID[c.profiles[j].ID] = j
	}
	return nil
}

// Digest renders a compact one-line-per-career summary for generation
// backend prompts.
func (c *Catalog) Digest() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var b strings.Builder
	for _, p := range c.profiles {
		fmt.Fprintf(&b, "- %s (%s), salary %s\n", p.Name, p.Category, p.Salary)
	}
	return b.String()
}

func copyProfiles(src []models.CareerProfile) []models.CareerProfile {
	out := make([]models.CareerProfile, len(src))
	for i, p := range src {
		out[i] = copyProfile(p)
	}
	return out
}

func copyProfile(p models.CareerProfile) models.CareerProfile {
	cp := p
	cp.Audience = append([]string(nil), p.Audience...)
	cp.Tags = append([]string(nil), p.Tags...)
	return cp
}
