package catalog

import (
	"strings"

	"github.com/skinbuddy/concierge/core"
)

// Keyword maps used by the deterministic product scorer. Concern keys are
// matched as substrings of the profile's concern strings, so "dark spots"
// lands on the hyperpigmentation map via the explicit key.
var (
	concernKeywords = map[string][]string{
		"acne":              {"acne", "salicylic", "bha", "benzoyl"},
		"aging":             {"retinol", "retinoid", "peptide", "niacinamide", "vitamin c", "collagen"},
		"hyperpigmentation": {"arbutin", "kojic", "tranexamic", "licorice", "vitamin c"},
		"sensitivity":       {"ceramide", "centella", "cica", "panthenol", "madecassoside", "fragrance free"},
		"dryness":           {"hyaluronic", "glycerin", "squalane", "ceramide"},
	}

	skinTypeKeywords = map[string][]string{
		"dry":         {"cream", "balm", "ceramide", "hyaluronic", "shea", "squalane", "glycerin"},
		"oily":        {"gel", "oil-free", "salicylic", "niacinamide", "non-comedogenic"},
		"combination": {"lightweight", "balancing", "non-comedogenic"},
	}

	budgetKeywords = map[string][]string{
		"low":    {"low", "budget", "affordable"},
		"medium": {"mid", "medium", "mid-range", "mid range", "moderate"},
		"high":   {"high", "premium", "expensive", "luxury"},
	}
)

// PickBest deterministically selects the single best product of the given
// category (a product_type substring) for a profile. Returns nil when no
// product matches the category.
func (c *Catalog) PickBest(category string, profile *core.Profile) *Product {
	category = strings.ToLower(category)

	var best *Product
	bestScore := -1 << 30
	for i := range c.products {
		p := &c.products[i]
		if !strings.Contains(strings.ToLower(p.Type), category) {
			continue
		}
		if s := score(p, profile); s > bestScore {
			bestScore = s
			best = p
		}
	}
	return best
}

func score(p *Product, profile *core.Profile) int {
	// Category already matched by the caller's filter.
	s := 2
	if profile == nil {
		return s
	}

	name := strings.ToLower(p.Name)
	ingredients := strings.ToLower(p.Ingredients)
	price := strings.ToLower(p.Price)

	for _, concern := range profile.Concerns {
		c := strings.ToLower(strings.TrimSpace(concern))
		for key, kws := range concernKeywords {
			if !strings.Contains(c, key) {
				continue
			}
			if anyKeyword(kws, name, ingredients) {
				s += 2
			}
		}
	}

	skinType := strings.ToLower(profile.SkinType)
	for stype, kws := range skinTypeKeywords {
		if strings.Contains(skinType, stype) && anyKeyword(kws, name, ingredients) {
			s++
		}
	}

	budget := strings.ToLower(profile.BudgetPreference)
	for tier, kws := range budgetKeywords {
		if !strings.Contains(budget, tier) {
			continue
		}
		for _, kw := range kws {
			if strings.Contains(price, kw) {
				s++
				break
			}
		}
	}

	// Fragrance is a liability for sensitive skin.
	if profile.HasConcern("sensitivity") && strings.Contains(ingredients, "fragrance") {
		s -= 2
	}

	return s
}

func anyKeyword(keywords []string, name, ingredients string) bool {
	for _, kw := range keywords {
		if strings.Contains(ingredients, kw) || strings.Contains(name, kw) {
			return true
		}
	}
	return false
}
