package agents

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/skinbuddy/concierge/catalog"
	"github.com/skinbuddy/concierge/core"
	"github.com/skinbuddy/concierge/llm"
)

const productPlanPrompt = `You translate a skincare shopping question into a catalog search plan.

The catalog has these searchable columns: product_name, product_url, product_type, ingredients, price.

Respond with ONLY a JSON object of this shape:
{
  "columns_to_search": ["product_type", "ingredients"],
  "patterns": {"product_type": ["serum"], "ingredients": ["niacinamide"]},
  "reason": "one short sentence"
}

Rules:
- patterns values are lowercase substrings to match, not regexes.
- include "product_type" whenever the question names a product category
  (cleanser, serum, moisturizer, sunscreen, toner, mask, oil, cream).
- include "ingredients" whenever the question names an ingredient.
- never invent columns outside the list above.`

// ProductLookup turns free-form shopping questions into catalog searches.
// The search plan comes from the model; the search itself is plain
// substring matching so results never hallucinate products.
type ProductLookup struct {
	llm     llm.Provider
	catalog *catalog.Catalog
}

// NewProductLookup builds a product lookup agent.
func NewProductLookup(provider llm.Provider, cat *catalog.Catalog) *ProductLookup {
	return &ProductLookup{llm: provider, catalog: cat}
}

// Run answers a product question. The profile and memoryContext are
// optional; when present they steer the plan and the per-product reasons.
func (a *ProductLookup) Run(ctx context.Context, question string, prof *core.Profile, memoryContext string) (*ProductAnswer, error) {
	plan := a.buildPlan(ctx, question, prof, memoryContext)
	matches := a.catalog.Search(plan)

	answer := &ProductAnswer{Question: question, Reason: plan.Reason}
	for _, p := range matches {
		answer.Products = append(answer.Products, ProductMatch{
			ProductName: p.Name,
			ProductURL:  p.URL,
			Reason:      matchReason(p, plan),
		})
	}
	return answer, nil
}

func (a *ProductLookup) buildPlan(ctx context.Context, question string, prof *core.Profile, memoryContext string) catalog.Plan {
	var sb strings.Builder
	sb.WriteString("Question: ")
	sb.WriteString(question)
	if prof != nil {
		fmt.Fprintf(&sb, "\nUser skin type: %s; concerns: %s; budget: %s",
			prof.SkinType, prof.ConcernsText(), prof.BudgetPreference)
	}
	if memoryContext != "" {
		sb.WriteString("\n")
		sb.WriteString(memoryContext)
	}

	raw, err := a.llm.Complete(ctx, llm.Request{
		System:      productPlanPrompt,
		Prompt:      sb.String(),
		Temperature: 0.1,
		MaxTokens:   512,
		JSONOnly:    true,
	})
	if err != nil {
		log.Printf("[PRODUCT] plan generation failed, using fallback: %v", err)
		return fallbackPlan(question)
	}

	var plan catalog.Plan
	if err := llm.DecodeJSON(raw, &plan); err != nil {
		log.Printf("[PRODUCT] plan decode failed, using fallback: %v", err)
		return fallbackPlan(question)
	}
	if len(plan.Columns) == 0 || len(plan.Patterns) == 0 {
		return fallbackPlan(question)
	}
	return plan
}

// fallbackPlan searches product_type and ingredients for every
// non-trivial word of the question. Crude, but it keeps the agent useful
// when the model is down.
func fallbackPlan(question string) catalog.Plan {
	seen := map[string]bool{}
	var words []string
	for _, w := range strings.Fields(strings.ToLower(question)) {
		w = strings.Trim(w, ".,!?\"'")
		if len(w) <= 2 || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	return catalog.Plan{
		Columns: []string{catalog.ColType, catalog.ColIngredients},
		Patterns: map[string][]string{
			catalog.ColType:        words,
			catalog.ColIngredients: words,
		},
		Reason: "keyword search over product type and ingredients",
	}
}

func matchReason(p catalog.Product, plan catalog.Plan) string {
	for _, col := range plan.Columns {
		value := strings.ToLower(p.Field(col))
		for _, pat := range plan.Patterns[col] {
			if pat != "" && strings.Contains(value, strings.ToLower(pat)) {
				return fmt.Sprintf("matched %q in %s", pat, col)
			}
		}
	}
	return "matched the search plan"
}
