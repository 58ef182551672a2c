// Package query expands a user question into role-framed search variants.
package query

import (
	"strings"

	"github.com/samber/lo"

	"video-qa/internal/app/model"
)

// MaxVariants caps the number of variants a query expands into
const MaxVariants = 5

type synonymGroup struct {
	base     string
	synonyms []string
}

type synonymTable struct {
	limit  int
	groups []synonymGroup
}

// Tables are scanned in order; within a table, groups are scanned in order
var expansionTables = []synonymTable{
	{limit: 3, groups: []synonymGroup{
		{"romantic", []string{"romantic", "intimate", "loving", "tender", "affectionate", "passionate"}},
		{"emotional", []string{"emotional", "touching", "moving", "heartfelt", "poignant"}},
		{"happy", []string{"happy", "joyful", "cheerful", "content", "pleased", "delighted"}},
		{"sad", []string{"sad", "melancholic", "sorrowful", "upset", "unhappy", "grieving"}},
		{"tense", []string{"tense", "anxious", "nervous", "worried", "stressed", "uneasy"}},
		{"peaceful", []string{"peaceful", "calm", "serene", "tranquil", "relaxed", "quiet"}},
		{"angry", []string{"angry", "furious", "rage", "mad", "irritated", "hostile"}},
	}},
	{limit: 2, groups: []synonymGroup{
		{"beach", []string{"beach", "seaside", "ocean", "shore", "coast", "waterfront"}},
		{"woods", []string{"woods", "forest", "trees", "woodland", "nature"}},
		{"city", []string{"city", "urban", "street", "downtown", "metropolitan"}},
		{"indoor", []string{"indoor", "inside", "interior", "room"}},
	}},
	{limit: 2, groups: []synonymGroup{
		{"walking", []string{"walking", "strolling", "pacing", "moving"}},
		{"running", []string{"running", "sprinting", "rushing", "hurrying"}},
		{"fighting", []string{"fighting", "combat", "battle", "struggle"}},
		{"talking", []string{"talking", "speaking", "conversing", "discussing"}},
	}},
}

// Planner produces search variants for a query
type Planner struct {
	maxVariants int
}

// NewPlanner creates a planner; maxVariants <= 0 uses MaxVariants
func NewPlanner(maxVariants int) *Planner {
	if maxVariants <= 0 {
		maxVariants = MaxVariants
	}
	return &Planner{maxVariants: maxVariants}
}

// Expand returns the original query followed by lexical expansions.
// Expansions substitute synonyms into the lowercased query wherever a known
// term appears as a substring. The result is deduplicated and capped.
func (p *Planner) Expand(q string) []string {
	lower := strings.ToLower(q)
	variants := []string{q}

	for _, table := range expansionTables {
		for _, group := range table.groups {
			if !strings.Contains(lower, group.base) {
				continue
			}
			for _, syn := range group.synonyms[:min(table.limit, len(group.synonyms))] {
				expanded := strings.ReplaceAll(lower, group.base, syn)
				if expanded != lower {
					variants = append(variants, expanded)
				}
			}
		}
	}

	variants = lo.Uniq(variants)
	if len(variants) > p.maxVariants {
		variants = variants[:p.maxVariants]
	}
	return variants
}

// Frame wraps a query in the instruction text of the role's index
func Frame(role model.Role, q string) string {
	switch role {
	case model.RoleTechnical:
		return "Technical cinematography and filmmaking: " + q +
			". Focus on shot types, camera angles, lighting, and visual composition."
	case model.RoleProduction:
		return "Production and commercial aspects: " + q +
			". Focus on visible objects, props, equipment, vehicles, production value, locations, sets, costumes, budget indicators, and commercial appeal." +
			" Pay special attention to specific items and objects present in the scene."
	default:
		return "Scene content and performance: " + q +
			". Focus on characters, actions, emotions, and story elements."
	}
}

// Variant is one planned search: the raw text and its role-framed form
type Variant struct {
	Text   string
	Framed string
}

// Plan expands q and frames every variant for role
func (p *Planner) Plan(q string, role model.Role) []Variant {
	texts := p.Expand(q)
	return lo.Map(texts, func(t string, _ int) Variant {
		return Variant{Text: t, Framed: Frame(role, t)}
	})
}
