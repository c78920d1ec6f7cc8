package assistant

import (
	"fmt"
	"strings"

	"github.com/gearhive/gearhive/internal/storage"
	"github.com/gearhive/gearhive/internal/websearch"
)

// ClarifyingResponse asks the user to narrow a query too broad to search on.
func ClarifyingResponse(prefs Preferences) string {
	if prefs.HasVehicle() {
		return fmt.Sprintf(
			"Could you tell me a bit more about what you need for your %s? "+
				"For example the specific part, or the symptom you're seeing.",
			prefs.VehicleHint())
	}
	return "Could you tell me a bit more? What vehicle are you working on " +
		"(make, model, year), and what part or problem are you looking at?"
}

// FallbackResponse assembles a templated reply from whichever evidence pools
// are non-empty. Used when no LLM credential is configured or the call failed.
func FallbackResponse(prefs Preferences, parts []storage.Part, knowledge []storage.KnowledgeEntry, webResults []websearch.Result) string {
	var b strings.Builder

	if prefs.HasVehicle() {
		b.WriteString(fmt.Sprintf("Here's what I found for your %s:\n\n", prefs.VehicleHint()))
	} else {
		b.WriteString("Here's what I found:\n\n")
	}

	if len(parts) > 0 {
		b.WriteString("From the parts catalog:\n")
		for i, p := range parts {
			if i >= 3 {
				break
			}
			b.WriteString(fmt.Sprintf("- %s from %s at $%.2f\n", p.Name, p.Supplier, p.Price))
		}
		b.WriteString("\n")
	}

	if len(knowledge) > 0 {
		b.WriteString("From our guides:\n")
		for i, e := range knowledge {
			if i >= 2 {
				break
			}
			b.WriteString(fmt.Sprintf("- %s: %s\n", e.Title, summarize(e.Content, 160)))
		}
		b.WriteString("\n")
	}

	if len(webResults) > 0 {
		b.WriteString("From around the web:\n")
		for i, r := range webResults {
			if i >= 3 {
				break
			}
			line := fmt.Sprintf("- %s (%s)", r.Title, r.Source)
			if r.Price != nil {
				line += fmt.Sprintf(", around $%.2f", *r.Price)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	if len(parts) == 0 && len(knowledge) == 0 && len(webResults) == 0 {
		return "I couldn't find anything matching that. Could you try " +
			"rephrasing, or give me the part name and your vehicle's make and model?"
	}

	b.WriteString("Ask me about installation or troubleshooting if you want more detail.")
	return b.String()
}

func summarize(text string, limit int) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if len(text) <= limit {
		return text
	}
	return strings.TrimSpace(text[:limit]) + "..."
}
