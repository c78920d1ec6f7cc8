package assistant

import (
	"regexp"
	"strconv"
	"strings"
)

// Experience levels inferred from conversation.
const (
	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceExpert       = "expert"
)

// vehicleMakes is the recognition vocabulary for makes, cars and motorcycles.
var vehicleMakes = []string{
	"toyota", "honda", "ford", "chevrolet", "chevy", "bmw", "mercedes",
	"audi", "volkswagen", "nissan", "mazda", "subaru", "hyundai", "kia",
	"jeep", "dodge", "lexus", "volvo", "porsche", "yamaha", "kawasaki",
	"suzuki", "ducati", "harley",
}

// vehicleModels covers the models the forum sees most. Model mentions do not
// imply a make: "cb750" alone sets the model and leaves the make empty.
var vehicleModels = []string{
	"civic", "accord", "corolla", "camry", "supra", "mustang", "f-150",
	"silverado", "wrangler", "golf", "jetta", "altima", "miata", "impreza",
	"outback", "tacoma", "cb750", "gs500", "ninja", "sportster", "bonneville",
}

var interestTopics = map[string][]string{
	"brakes":     {"brake", "brakes", "caliper", "rotor", "brake pad"},
	"engine":     {"engine", "piston", "camshaft", "turbo", "head gasket"},
	"suspension": {"suspension", "shock", "strut", "coilover", "spring"},
	"electrical": {"electrical", "wiring", "battery", "alternator", "starter"},
	"exhaust":    {"exhaust", "muffler", "catalytic", "header"},
}

var beginnerPhrases = []string{
	"new to", "i'm new", "im new", "first time", "beginner", "never done",
	"how do i even", "just starting", "no experience",
}

var expertPhrases = []string{
	"professional", "mechanic", "i rebuilt", "i've rebuilt", "track day",
	"i race", "machined", "my shop", "i restore", "years of experience",
}

// Years are constrained to 1980-2029 so part numbers and prices do not
// masquerade as model years.
var prefYearRe = regexp.MustCompile(`\b(19[89]\d|20[0-2]\d)\b`)

// ExtractPreferences updates prefs in place from one user message. Later
// mentions win: a user who says "actually it's the yamaha, not the honda"
// ends up with yamaha. Extraction is additive, nothing is ever cleared.
func ExtractPreferences(message string, prefs *Preferences) {
	lower := strings.ToLower(message)

	if make := rightmostMatch(lower, vehicleMakes); make != "" {
		prefs.VehicleMake = make
	}
	if model := rightmostMatch(lower, vehicleModels); model != "" {
		prefs.VehicleModel = model
	}

	// The year keeps the numerically largest match seen across the whole
	// conversation, unlike make and model where the latest mention wins.
	if year := latestYear(lower); year > prefs.VehicleYear {
		prefs.VehicleYear = year
	}

	if containsAny(lower, beginnerPhrases) {
		prefs.Experience = ExperienceBeginner
	}
	if containsAny(lower, expertPhrases) {
		prefs.Experience = ExperienceExpert
	}

	for topic, terms := range interestTopics {
		if containsAny(lower, terms) && !contains(prefs.Interests, topic) {
			prefs.Interests = append(prefs.Interests, topic)
		}
	}
}

// VehicleHint renders the known vehicle as a search hint, e.g. "honda cb750"
// or "1998 honda". Empty when nothing is known.
func (p Preferences) VehicleHint() string {
	var parts []string
	if p.VehicleYear > 0 {
		parts = append(parts, strconv.Itoa(p.VehicleYear))
	}
	if p.VehicleMake != "" {
		parts = append(parts, p.VehicleMake)
	}
	if p.VehicleModel != "" {
		parts = append(parts, p.VehicleModel)
	}
	return strings.Join(parts, " ")
}

// HasVehicle reports whether any vehicle detail is known.
func (p Preferences) HasVehicle() bool {
	return p.VehicleMake != "" || p.VehicleModel != "" || p.VehicleYear > 0
}

// ExperienceLevel returns the inferred experience, defaulting to intermediate
// when nothing in the conversation suggested otherwise.
func (p Preferences) ExperienceLevel() string {
	if p.Experience == "" {
		return ExperienceIntermediate
	}
	return p.Experience
}

// rightmostMatch returns the vocabulary entry whose last occurrence in text
// is furthest right. Word boundaries matter: "fordham" does not match "ford".
func rightmostMatch(text string, vocab []string) string {
	best := ""
	bestIdx := -1
	for _, term := range vocab {
		idx := lastWordIndex(text, term)
		if idx > bestIdx {
			bestIdx = idx
			best = term
		}
	}
	return best
}

func lastWordIndex(text, term string) int {
	best := -1
	for offset := 0; ; {
		idx := strings.Index(text[offset:], term)
		if idx < 0 {
			break
		}
		idx += offset
		if isWordBoundary(text, idx, len(term)) {
			best = idx
		}
		offset = idx + len(term)
	}
	return best
}

func isWordBoundary(text string, idx, length int) bool {
	if idx > 0 && isWordChar(text[idx-1]) {
		return false
	}
	end := idx + length
	if end < len(text) && isWordChar(text[end]) {
		return false
	}
	return true
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

func latestYear(text string) int {
	best := 0
	for _, m := range prefYearRe.FindAllString(text, -1) {
		if year, err := strconv.Atoi(m); err == nil && year > best {
			best = year
		}
	}
	return best
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
