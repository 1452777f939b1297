// Package account maps account codes to their classification: display
// name, category, statement side, and the recurring/cyclical flags the
// anomaly passes key on.
package account

import (
	"sort"

	"github.com/seenimoa/varscope/internal/config"
	"github.com/seenimoa/varscope/pkg/models"
)

// Info is the resolved classification of one account code.
type Info struct {
	Code          string
	Name          string
	Category      models.Category
	StatementType models.StatementType
	Recurring     bool
	Cyclical      bool
}

// Mapper resolves account codes to classification info. It is built once
// from configuration and never mutated, so a single instance is safe to
// share across concurrent pipeline runs.
type Mapper struct {
	byCode     map[string]Info
	byCategory map[models.Category][]string
	recurring  map[string]bool
	cyclical   map[string]bool
}

// NewMapper builds a mapper from the configured account entries.
func NewMapper(accounts []config.AccountConfig) *Mapper {
	m := &Mapper{
		byCode:     make(map[string]Info, len(accounts)),
		byCategory: make(map[models.Category][]string),
		recurring:  make(map[string]bool),
		cyclical:   make(map[string]bool),
	}

	for _, ac := range accounts {
		info := Info{
			Code:          ac.Code,
			Name:          ac.Name,
			Category:      models.Category(ac.Category),
			StatementType: models.StatementType(ac.Statement),
			Recurring:     ac.Recurring,
			Cyclical:      ac.Cyclical,
		}
		m.byCode[ac.Code] = info
		m.byCategory[info.Category] = append(m.byCategory[info.Category], ac.Code)
		if ac.Recurring {
			m.recurring[ac.Code] = true
		}
		if ac.Cyclical {
			m.cyclical[ac.Code] = true
		}
	}

	// Deterministic category listing regardless of config order.
	for cat := range m.byCategory {
		sort.Strings(m.byCategory[cat])
	}

	return m
}

// Lookup returns the classification for an account code.
func (m *Mapper) Lookup(code string) (Info, bool) {
	info, ok := m.byCode[code]
	return info, ok
}

// Category returns the category for a code, CategoryUnknown when unmapped.
func (m *Mapper) Category(code string) models.Category {
	if info, ok := m.byCode[code]; ok {
		return info.Category
	}
	return models.CategoryUnknown
}

// DisplayName returns the mapped account name, falling back to the raw
// code when unmapped.
func (m *Mapper) DisplayName(code string) string {
	if info, ok := m.byCode[code]; ok {
		return info.Name
	}
	return code
}

// CodesForCategory returns the account codes mapped to a category, sorted.
func (m *Mapper) CodesForCategory(category models.Category) []string {
	return m.byCategory[category]
}

// IsRecurring reports whether the code belongs to the recurring set.
func (m *Mapper) IsRecurring(code string) bool {
	return m.recurring[code]
}

// IsCyclical reports whether the code belongs to the cyclical set.
func (m *Mapper) IsCyclical(code string) bool {
	return m.cyclical[code]
}
