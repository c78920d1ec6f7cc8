package assistant

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gearhive/gearhive/internal/storage"
	"github.com/gearhive/gearhive/internal/websearch"
)

// Section markers the model is asked to emit so installation and tips can be
// split out of the reply for the structured payload.
const (
	installationTag = "INSTALLATION:"
	tipsTag         = "TIPS:"
)

// historyWindow is how many recent turns are replayed into the prompt.
const defaultHistoryWindow = 10

// BuildSystemPrompt renders the assistant persona, the user's profile, the
// recent conversation, and the evidence pools into one system prompt.
func BuildSystemPrompt(rec Record, parts []storage.Part, knowledge []storage.KnowledgeEntry, webResults []websearch.Result, historyWindow int) string {
	if historyWindow <= 0 {
		historyWindow = defaultHistoryWindow
	}

	var b strings.Builder
	b.WriteString("You are GearHive's parts assistant. You help vehicle owners find parts, ")
	b.WriteString("plan repairs, and avoid mistakes. Be concrete and cite the provided ")
	b.WriteString("listings and guides rather than inventing specifics.\n\n")

	prefs := rec.Preferences
	b.WriteString("User profile:\n")
	if prefs.HasVehicle() {
		b.WriteString(fmt.Sprintf("- Vehicle: %s\n", prefs.VehicleHint()))
	} else {
		b.WriteString("- Vehicle: unknown\n")
	}
	b.WriteString(fmt.Sprintf("- Experience: %s\n", prefs.ExperienceLevel()))
	if len(prefs.Interests) > 0 {
		b.WriteString(fmt.Sprintf("- Interests: %s\n", strings.Join(prefs.Interests, ", ")))
	}
	b.WriteString("\n")

	if history := recentHistory(rec.Messages, historyWindow); len(history) > 0 {
		b.WriteString("Recent conversation:\n")
		for _, msg := range history {
			b.WriteString(fmt.Sprintf("%s: %s\n", msg.Role, msg.Content))
		}
		b.WriteString("\n")
	}

	if len(parts) > 0 {
		b.WriteString("Catalog parts found:\n")
		for _, p := range parts {
			b.WriteString(fmt.Sprintf("- %s ($%.2f, %s): %s\n", p.Name, p.Price, p.Supplier, p.Description))
		}
		b.WriteString("\n")
	}

	if len(knowledge) > 0 {
		b.WriteString("Knowledge base entries:\n")
		for _, e := range knowledge {
			b.WriteString(fmt.Sprintf("- [%s] %s: %s\n", e.Category, e.Title, e.Content))
		}
		b.WriteString("\n")
	}

	if len(webResults) > 0 {
		b.WriteString("Web results:\n")
		for _, r := range webResults {
			line := fmt.Sprintf("- %s (%s)", r.Title, r.Source)
			if r.Price != nil {
				line += fmt.Sprintf(" $%.2f", *r.Price)
			}
			if r.Description != "" {
				line += ": " + r.Description
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Answer the user's message. If installation steps are relevant, put them ")
	b.WriteString("in a section starting with the line \"" + installationTag + "\". If you have ")
	b.WriteString("practical tips, put them in a section starting with the line \"" + tipsTag + "\".\n")

	return b.String()
}

var (
	installationFallbackRe = regexp.MustCompile(`(?is)installation[^\n]*:?\s*\n((?:[^\n]+\n?){1,8})`)
	tipsFallbackRe         = regexp.MustCompile(`(?is)\btips?[^\n]*:?\s*\n((?:[^\n]+\n?){1,8})`)
)

// ExtractSections splits the tagged installation and tips sections out of a
// model reply. The remaining text becomes the main response. When the model
// ignored the tags, a looser regex pass over headed paragraphs is tried.
func ExtractSections(reply string) (body, installation, tips string) {
	body = reply

	if idx := strings.Index(body, installationTag); idx >= 0 {
		installation, body = cutSection(body, idx, len(installationTag))
	}
	if idx := strings.Index(body, tipsTag); idx >= 0 {
		tips, body = cutSection(body, idx, len(tipsTag))
	}

	if installation == "" {
		if m := installationFallbackRe.FindStringSubmatch(reply); m != nil {
			installation = strings.TrimSpace(m[1])
		}
	}
	if tips == "" {
		if m := tipsFallbackRe.FindStringSubmatch(reply); m != nil {
			tips = strings.TrimSpace(m[1])
		}
	}

	return strings.TrimSpace(body), installation, tips
}

// cutSection removes the tagged section starting at idx and returns its text
// and the remaining body. A section runs to the next tag or end of reply.
func cutSection(text string, idx, tagLen int) (section, rest string) {
	after := text[idx+tagLen:]
	end := len(after)
	for _, tag := range []string{installationTag, tipsTag} {
		if next := strings.Index(after, tag); next >= 0 && next < end {
			end = next
		}
	}
	section = strings.TrimSpace(after[:end])
	rest = strings.TrimSpace(text[:idx] + after[end:])
	return section, rest
}

// OverrideFromKnowledge prefers curated guidance over model output: an
// installation guide in the pool replaces the model's installation section,
// a safety warning is always prepended to the tips, and a maintenance entry
// fills tips when the model produced none.
func OverrideFromKnowledge(knowledge []storage.KnowledgeEntry, installation, tips string) (string, string) {
	for _, e := range knowledge {
		switch e.Category {
		case storage.CategoryInstallationGuide:
			installation = e.Content
		case storage.CategorySafetyWarning:
			if tips == "" {
				tips = e.Content
			} else {
				tips = e.Content + "\n\n" + tips
			}
		case storage.CategoryMaintenance:
			if tips == "" {
				tips = e.Content
			}
		}
	}
	return installation, tips
}

func recentHistory(messages []Message, window int) []Message {
	if len(messages) > window {
		return messages[len(messages)-window:]
	}
	return messages
}
