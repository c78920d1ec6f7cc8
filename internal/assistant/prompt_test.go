package assistant

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gearhive/gearhive/internal/storage"
	"github.com/gearhive/gearhive/internal/websearch"
)

func TestBuildSystemPrompt(t *testing.T) {
	rec := Record{
		Preferences: Preferences{VehicleMake: "honda", VehicleModel: "civic", VehicleYear: 2015},
		Messages: []Message{
			{Role: RoleUser, Content: "I have a 2015 honda civic"},
			{Role: RoleAssistant, Content: "Nice, what do you need?"},
		},
	}
	parts := []storage.Part{{Name: "Front brake pads", Price: 42.50, Supplier: "rockauto"}}
	knowledge := []storage.KnowledgeEntry{{Title: "Brake pad swap", Content: "Jack up the car.", Category: storage.CategoryInstallationGuide}}
	price := 39.99
	web := []websearch.Result{{Title: "Civic brake kit", Source: "ebay", Price: &price}}

	prompt := BuildSystemPrompt(rec, parts, knowledge, web, 10)

	assert.Contains(t, prompt, "2015 honda civic")
	assert.Contains(t, prompt, "intermediate")
	assert.Contains(t, prompt, "Front brake pads")
	assert.Contains(t, prompt, "Brake pad swap")
	assert.Contains(t, prompt, "Civic brake kit")
	assert.Contains(t, prompt, installationTag)
	assert.Contains(t, prompt, tipsTag)
}

func TestBuildSystemPrompt_HistoryWindow(t *testing.T) {
	rec := Record{}
	for i := 0; i < 20; i++ {
		rec.Messages = append(rec.Messages, Message{Role: RoleUser, Content: "turn"})
	}
	rec.Messages[19].Content = "the last turn"
	rec.Messages[0].Content = "the first turn"

	prompt := BuildSystemPrompt(rec, nil, nil, nil, 5)
	assert.Contains(t, prompt, "the last turn")
	assert.NotContains(t, prompt, "the first turn")
}

func TestExtractSections_Tagged(t *testing.T) {
	reply := "You should replace both pads.\n" +
		"INSTALLATION: Jack up the car, remove the wheel.\n" +
		"TIPS: Grease the slide pins."

	body, installation, tips := ExtractSections(reply)
	assert.Equal(t, "You should replace both pads.", body)
	assert.Equal(t, "Jack up the car, remove the wheel.", installation)
	assert.Equal(t, "Grease the slide pins.", tips)
}

func TestExtractSections_TagsInEitherOrder(t *testing.T) {
	reply := "Summary.\nTIPS: Buy ceramic.\nINSTALLATION: Remove caliper."

	body, installation, tips := ExtractSections(reply)
	assert.Equal(t, "Summary.", body)
	assert.Equal(t, "Remove caliper.", installation)
	assert.Equal(t, "Buy ceramic.", tips)
}

func TestExtractSections_RegexFallback(t *testing.T) {
	reply := "Here is the plan.\n" +
		"Installation steps:\n" +
		"1. Jack up the car.\n" +
		"2. Remove the wheel.\n"

	_, installation, _ := ExtractSections(reply)
	assert.True(t, strings.Contains(installation, "Jack up the car"),
		"untagged installation heading still extracted: %q", installation)
}

func TestExtractSections_NoSections(t *testing.T) {
	body, installation, tips := ExtractSections("Just a plain answer.")
	assert.Equal(t, "Just a plain answer.", body)
	assert.Empty(t, installation)
	assert.Empty(t, tips)
}

func TestOverrideFromKnowledge(t *testing.T) {
	knowledge := []storage.KnowledgeEntry{
		{Category: storage.CategoryInstallationGuide, Content: "Curated install steps."},
		{Category: storage.CategoryMaintenance, Content: "Curated maintenance tips."},
	}

	installation, tips := OverrideFromKnowledge(knowledge, "model install", "model tips")
	assert.Equal(t, "Curated install steps.", installation,
		"curated guide always wins over model output")
	assert.Equal(t, "model tips", tips,
		"maintenance entry only fills empty tips")

	installation, tips = OverrideFromKnowledge(knowledge, "", "")
	assert.Equal(t, "Curated install steps.", installation)
	assert.Equal(t, "Curated maintenance tips.", tips)
}

func TestOverrideFromKnowledge_SafetyWarning(t *testing.T) {
	knowledge := []storage.KnowledgeEntry{
		{Category: storage.CategorySafetyWarning, Content: "Support the car on stands."},
	}

	_, tips := OverrideFromKnowledge(knowledge, "", "model tips")
	assert.Equal(t, "Support the car on stands.\n\nmodel tips", tips,
		"safety warnings are prepended, never dropped")

	_, tips = OverrideFromKnowledge(knowledge, "", "")
	assert.Equal(t, "Support the car on stands.", tips)
}
