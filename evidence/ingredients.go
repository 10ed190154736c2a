package evidence

import "strings"

// Ingredients is the lexicon of ingredients the concierge knows about.
// Multi-word names come first so "salicylic acid" wins over "bha" style
// shorthands when both appear.
var Ingredients = []string{
	"azelaic acid",
	"salicylic acid",
	"glycolic acid",
	"lactic acid",
	"ascorbic acid",
	"hyaluronic acid",
	"kojic acid",
	"tranexamic acid",
	"vitamin c",
	"niacinamide",
	"tretinoin",
	"retinol",
	"ceramides",
	"panthenol",
	"arbutin",
}

// ExtractIngredient returns the first known ingredient mentioned in the
// text, or "" when none is found.
func ExtractIngredient(text string) string {
	t := strings.ToLower(text)
	for _, ing := range Ingredients {
		if strings.Contains(t, ing) {
			return ing
		}
	}
	return ""
}
