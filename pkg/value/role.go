package value

import "strings"

// RoleBonus pairs a role keyword with the multiplier applied to riders whose
// role label contains it.
type RoleBonus struct {
	Keyword    string  `yaml:"keyword" json:"keyword"`
	Multiplier float64 `yaml:"multiplier" json:"multiplier"`
}

// DefaultRoleBonuses is checked top to bottom; the first keyword found in a
// role label decides the multiplier, so "GC Leader" resolves to leader.
var DefaultRoleBonuses = []RoleBonus{
	{Keyword: "leader", Multiplier: 1.15},
	{Keyword: "gc", Multiplier: 1.12},
	{Keyword: "sprinter", Multiplier: 1.10},
	{Keyword: "puncheur", Multiplier: 1.08},
	{Keyword: "climber", Multiplier: 1.08},
	{Keyword: "tt", Multiplier: 1.05},
	{Keyword: "helper", Multiplier: 1.00},
	{Keyword: "domestique", Multiplier: 1.00},
}

// Roles matches free-text role labels against an ordered keyword table.
type Roles struct {
	bonuses []RoleBonus
}

// NewRoles creates a matcher. An empty table falls back to DefaultRoleBonuses.
func NewRoles(bonuses []RoleBonus) *Roles {
	if len(bonuses) == 0 {
		bonuses = DefaultRoleBonuses
	}

	// Lowercase all keywords for case-insensitive matching.
	table := make([]RoleBonus, 0, len(bonuses))
	for _, b := range bonuses {
		kw := strings.ToLower(strings.TrimSpace(b.Keyword))
		if kw == "" {
			continue
		}
		table = append(table, RoleBonus{Keyword: kw, Multiplier: b.Multiplier})
	}
	return &Roles{bonuses: table}
}

// Multiplier returns the bonus for role, 1.0 when nothing matches.
func (r *Roles) Multiplier(role string) float64 {
	if role == "" {
		return 1.0
	}
	lower := strings.ToLower(role)
	for _, b := range r.bonuses {
		if strings.Contains(lower, b.Keyword) {
			return b.Multiplier
		}
	}
	return 1.0
}
