package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPreferences_VehicleDetails(t *testing.T) {
	var prefs Preferences
	ExtractPreferences("I have a 2015 Honda Civic with brake issues", &prefs)

	assert.Equal(t, "honda", prefs.VehicleMake)
	assert.Equal(t, "civic", prefs.VehicleModel)
	assert.Equal(t, 2015, prefs.VehicleYear)
	assert.Contains(t, prefs.Interests, "brakes")
}

func TestExtractPreferences_LaterMakeWins(t *testing.T) {
	var prefs Preferences
	ExtractPreferences("I have a honda", &prefs)
	assert.Equal(t, "honda", prefs.VehicleMake)

	ExtractPreferences("actually it's the yamaha, not the honda", &prefs)
	assert.Equal(t, "honda", prefs.VehicleMake,
		"rightmost mention in the message wins")

	ExtractPreferences("sorry, I mean the yamaha", &prefs)
	assert.Equal(t, "yamaha", prefs.VehicleMake)
}

func TestExtractPreferences_ModelWithoutMake(t *testing.T) {
	// "CB750" names a model but the make is never stated, so it stays unset.
	var prefs Preferences
	ExtractPreferences("My 1980 CB750 needs a new cam chain tensioner", &prefs)

	assert.Equal(t, "", prefs.VehicleMake)
	assert.Equal(t, "cb750", prefs.VehicleModel)
	assert.Equal(t, 1980, prefs.VehicleYear)
}

func TestExtractPreferences_LargestYearWins(t *testing.T) {
	var prefs Preferences
	ExtractPreferences("comparing the 1998 model against the 2012 one", &prefs)
	assert.Equal(t, 2012, prefs.VehicleYear)
}

func TestExtractPreferences_LargestYearWinsAcrossTurns(t *testing.T) {
	var prefs Preferences
	ExtractPreferences("I drive a 2015 civic", &prefs)
	ExtractPreferences("I also looked at a 1998 accord", &prefs)

	assert.Equal(t, 2015, prefs.VehicleYear,
		"a smaller year in a later turn never overwrites a larger one")
	assert.Equal(t, "accord", prefs.VehicleModel, "model still follows the latest mention")
}

func TestExtractPreferences_YearRange(t *testing.T) {
	var prefs Preferences
	ExtractPreferences("part number 1750 costs 2550 dollars", &prefs)
	assert.Equal(t, 0, prefs.VehicleYear, "numbers outside 1980-2029 are not years")
}

func TestExtractPreferences_Experience(t *testing.T) {
	var prefs Preferences
	assert.Equal(t, ExperienceIntermediate, prefs.ExperienceLevel())

	ExtractPreferences("I'm new to this, first time changing oil", &prefs)
	assert.Equal(t, ExperienceBeginner, prefs.Experience)

	ExtractPreferences("I rebuilt the whole engine in my shop last year", &prefs)
	assert.Equal(t, ExperienceExpert, prefs.Experience)
}

func TestExtractPreferences_ExperiencePhrases(t *testing.T) {
	var prefs Preferences
	ExtractPreferences("new to wrenching, where do I start", &prefs)
	assert.Equal(t, ExperienceBeginner, prefs.Experience)

	ExtractPreferences("I'm a professional mechanic", &prefs)
	assert.Equal(t, ExperienceExpert, prefs.Experience)
}

func TestExtractPreferences_Idempotent(t *testing.T) {
	var prefs Preferences
	ExtractPreferences("2015 honda civic brake pads", &prefs)
	before := prefs

	ExtractPreferences("2015 honda civic brake pads", &prefs)
	assert.Equal(t, before.VehicleMake, prefs.VehicleMake)
	assert.Equal(t, before.VehicleModel, prefs.VehicleModel)
	assert.Equal(t, before.VehicleYear, prefs.VehicleYear)
	assert.Equal(t, before.Interests, prefs.Interests, "interests are not duplicated")
}

func TestExtractPreferences_WordBoundaries(t *testing.T) {
	var prefs Preferences
	ExtractPreferences("I study at fordham university", &prefs)
	assert.Equal(t, "", prefs.VehicleMake)
}

func TestVehicleHint(t *testing.T) {
	prefs := Preferences{VehicleMake: "honda", VehicleModel: "civic", VehicleYear: 2015}
	assert.Equal(t, "2015 honda civic", prefs.VehicleHint())

	assert.Equal(t, "", Preferences{}.VehicleHint())
	assert.False(t, Preferences{}.HasVehicle())
	assert.True(t, Preferences{VehicleModel: "cb750"}.HasVehicle())
}
