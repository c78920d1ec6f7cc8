package assistant

import (
	"regexp"
	"strings"
)

// Classification is the classifier verdict for one message. Vague and
// Specific can both be false: the message is then under-specified and the
// orchestrator decides from conversation context whether it is a follow-up.
type Classification struct {
	Vague    bool
	Specific bool
}

// partVocabulary lists part names that make a message specific on their own.
var partVocabulary = []string{
	"brake pad", "brake pads", "oil filter", "air filter", "spark plug",
	"spark plugs", "cam chain tensioner", "alternator", "starter",
	"water pump", "fuel pump", "turbo", "clutch", "timing belt",
	"head gasket", "radiator", "shock absorber", "strut", "caliper",
	"rotor", "muffler", "carburetor", "ignition coil",
}

// genericPhrases are messages too broad to act on regardless of length.
var genericPhrases = []string{
	"honda motors", "want info", "tell me more", "help", "parts", "info",
}

var (
	tellMeAboutRe = regexp.MustCompile(`^(tell me about|information about|what about|info on)\b`)
	classYearRe   = regexp.MustCompile(`\b(19[89]\d|20[0-2]\d)\b`)
)

// detailedLength is the point past which a message is presumed to carry
// enough detail to search on.
const detailedLength = 60

// Classifier decides whether a message justifies external searches.
type Classifier struct {
	vagueThreshold int
}

// NewClassifier creates a classifier. vagueThreshold is the character length
// below which a message is vague; zero or negative selects the default of 10.
func NewClassifier(vagueThreshold int) *Classifier {
	if vagueThreshold <= 0 {
		vagueThreshold = 10
	}
	return &Classifier{vagueThreshold: vagueThreshold}
}

// Classify applies the vague and specific rules to one message.
func (c *Classifier) Classify(message string) Classification {
	trimmed := strings.TrimSpace(message)
	lower := strings.ToLower(trimmed)
	words := strings.Fields(lower)

	hasPart := containsAny(lower, partVocabulary)
	hasYear := classYearRe.MatchString(lower)
	hasModel := rightmostMatch(lower, vehicleModels) != ""

	vague := false
	switch {
	case len(trimmed) < c.vagueThreshold && !hasPart:
		vague = true
	case contains(genericPhrases, lower):
		vague = true
	case tellMeAboutRe.MatchString(lower) && len(trimmed) <= detailedLength:
		vague = true
	case len(words) < 3 && !hasPart && !hasYear && !hasModel:
		vague = true
	}

	specific := !vague && (hasPart || hasYear || hasModel || len(trimmed) > detailedLength)

	return Classification{Vague: vague, Specific: specific}
}
