package agents

import "strings"

// DefaultTriggerWords flag questions that need a medical professional
// rather than a shopping assistant. Ingredients in the evidence lexicon
// must not appear here: interception runs before routing, so a listed
// ingredient could never reach the evidence agent.
var DefaultTriggerWords = []string{
	"pregnant",
	"pregnancy",
	"breastfeeding",
	"nursing",
	"prescription",
	"accutane",
	"isotretinoin",
	"steroid",
	"cortisone",
	"infection",
	"infected",
	"bleeding",
	"severe pain",
	"cystic",
	"melanoma",
	"cancer",
	"eczema",
	"psoriasis",
	"rosacea flare",
	"allergic reaction",
	"swelling",
	"hives",
}

const safetyMessage = "This sounds like something a dermatologist or doctor should look at. " +
	"I can help with general skincare shopping questions, but please talk to a medical " +
	"professional about this one."

// Safety intercepts questions that mention medical conditions or
// prescription treatments before any other agent sees them.
type Safety struct {
	triggers []string
}

// NewSafety builds a safety agent. An empty trigger list selects
// DefaultTriggerWords.
func NewSafety(triggers []string) *Safety {
	if len(triggers) == 0 {
		triggers = DefaultTriggerWords
	}
	return &Safety{triggers: triggers}
}

// Check returns a refusal message and false when the question trips a
// trigger word. A true result means the question is safe to route.
func (s *Safety) Check(question string) (string, bool) {
	lower := strings.ToLower(question)
	for _, w := range s.triggers {
		if strings.Contains(lower, w) {
			return safetyMessage, false
		}
	}
	return "", true
}
