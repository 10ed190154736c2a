package agents

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/skinbuddy/concierge/evidence"
	"github.com/skinbuddy/concierge/llm"
)

// NoIngredientFound is reported when a question routed to the evidence
// agent names no known ingredient.
const NoIngredientFound = "NO_INGREDIENT_FOUND"

const evidenceSummaryPrompt = `You summarize skincare research snippets for a shopper.

Respond with ONLY a JSON object of this shape:
{
  "summary": "2-3 plain sentences on what the studies show",
  "strength": "strong" | "moderate" | "weak",
  "tags": ["tag", ...]
}

Base the summary strictly on the snippets given. Do not add claims the
snippets do not support. Strength reflects how consistent and direct the
snippets are, not how famous the ingredient is.`

// EvidenceAgent answers "does X actually work?" questions from the study
// index, with the model only summarizing retrieved snippets.
type EvidenceAgent struct {
	llm   llm.Provider
	index *evidence.Index
}

// NewEvidenceAgent builds an evidence agent.
func NewEvidenceAgent(provider llm.Provider, index *evidence.Index) *EvidenceAgent {
	return &EvidenceAgent{llm: provider, index: index}
}

type evidenceSummaryJSON struct {
	Summary  string   `json:"summary"`
	Strength string   `json:"strength"`
	Tags     []string `json:"tags"`
}

// Run looks up evidence for the ingredient named in the question.
func (a *EvidenceAgent) Run(ctx context.Context, question string) (*EvidenceSummary, error) {
	ingredient := evidence.ExtractIngredient(question)
	if ingredient == "" {
		return &EvidenceSummary{
			Question: question,
			Strength: "none",
			Error:    NoIngredientFound,
			Summary:  "I could not spot a specific ingredient in that question. Try asking about one, like niacinamide or retinol.",
		}, nil
	}

	chunks := a.index.Lookup(ctx, ingredient, question)
	if len(chunks) == 0 {
		return &EvidenceSummary{
			Ingredient: ingredient,
			Question:   question,
			Strength:   "weak",
			Summary:    fmt.Sprintf("No studies on %s in the evidence library yet.", ingredient),
		}, nil
	}

	summary := a.summarize(ctx, ingredient, question, chunks)
	summary.Sources = chunks
	summary.Tags = mergeTags(summary.Tags, chunks)
	return summary, nil
}

func (a *EvidenceAgent) summarize(ctx context.Context, ingredient, question string, chunks []evidence.Chunk) *EvidenceSummary {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Ingredient: %s\nQuestion: %s\n\nStudy snippets:\n", ingredient, question)
	for i, c := range chunks {
		fmt.Fprintf(&sb, "%d. %s: %s\n", i+1, c.Title, c.Snippet)
	}

	out := &EvidenceSummary{Ingredient: ingredient, Question: question}

	raw, err := a.llm.Complete(ctx, llm.Request{
		System:      evidenceSummaryPrompt,
		Prompt:      sb.String(),
		Temperature: 0.2,
		MaxTokens:   512,
		JSONOnly:    true,
	})
	if err != nil {
		log.Printf("[EVIDENCE] summary generation failed: %v", err)
		out.Summary = firstSnippets(chunks)
		out.Strength = "moderate"
		return out
	}

	var parsed evidenceSummaryJSON
	if err := llm.DecodeJSON(raw, &parsed); err != nil {
		log.Printf("[EVIDENCE] summary decode failed: %v", err)
		out.Summary = firstSnippets(chunks)
		out.Strength = "moderate"
		return out
	}

	out.Summary = parsed.Summary
	out.Strength = normalizeStrength(parsed.Strength)
	out.Tags = parsed.Tags
	return out
}

// firstSnippets is the degraded answer when the model is unavailable:
// the raw snippets, joined.
func firstSnippets(chunks []evidence.Chunk) string {
	var parts []string
	for _, c := range chunks {
		parts = append(parts, c.Snippet)
	}
	return strings.Join(parts, " ")
}

func normalizeStrength(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strong":
		return "strong"
	case "weak":
		return "weak"
	default:
		return "moderate"
	}
}

func mergeTags(tags []string, chunks []evidence.Chunk) []string {
	seen := map[string]bool{}
	var out []string
	add := func(t string) {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		out = append(out, t)
	}
	for _, t := range tags {
		add(t)
	}
	for _, c := range chunks {
		for _, t := range c.Tags {
			add(t)
		}
	}
	return out
}
