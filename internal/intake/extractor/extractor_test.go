// internal/intake/extractor/extractor_test.go

package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"intake-workers/internal/models"
)

func user(content string) models.Message {
	return models.Message{Role: models.RoleUser, Content: content}
}

func assistant(content string) models.Message {
	return models.Message{Role: models.RoleAssistant, Content: content}
}

func TestExtract_NameFromPrefixPhrase(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected string
	}{
		{"my name is", "my name is Jane Doe", "Jane Doe"},
		{"i am", "I am John Smith and I need help", "John Smith"},
		{"contraction", "Hi, I'm Maria Garcia", "Maria Garcia"},
		{"this is", "this is Robert Brown", "Robert Brown"},
		{"lowercase input", "my name is jane doe", "Jane Doe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := Extract([]models.Message{user(tt.message)})
			assert.Equal(t, tt.expected, profile.Name)
		})
	}
}

func TestExtract_BareTwoWordName(t *testing.T) {
	profile := Extract([]models.Message{
		assistant("May I have your full name?"),
		user("Jane Doe"),
	})
	assert.Equal(t, "Jane Doe", profile.Name)
}

func TestExtract_StoplistPhrasesAreNotNames(t *testing.T) {
	for _, phrase := range []string{"thank you", "Sounds good", "not sure", "Good morning"} {
		profile := Extract([]models.Message{user(phrase)})
		assert.Empty(t, profile.Name, "phrase %q should not be a name", phrase)
	}
}

func TestExtract_NewestNameWins(t *testing.T) {
	profile := Extract([]models.Message{
		user("my name is Jane Doe"),
		assistant("Thanks Jane."),
		user("Actually, my name is Janet Dough"),
	})
	assert.Equal(t, "Janet Dough", profile.Name)
}

func TestExtract_EmailAndPhone(t *testing.T) {
	profile := Extract([]models.Message{
		user("You can reach me at jane@example.com"),
		user("My number is 555-123-4567"),
	})
	assert.Equal(t, "jane@example.com", profile.Email)
	assert.Equal(t, "555-123-4567", profile.Phone)
}

func TestExtract_PhoneFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"dashes", "555-123-4567"},
		{"dots", "555.123.4567"},
		{"spaces", "555 123 4567"},
		{"parens", "(555) 123-4567"},
		{"bare", "5551234567"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := Extract([]models.Message{user("call me at " + tt.input)})
			assert.NotEmpty(t, profile.Phone)
		})
	}
}

func TestExtract_LastContactMatchWins(t *testing.T) {
	profile := Extract([]models.Message{
		user("my email is old@example.com"),
		user("sorry, use new@example.com instead"),
	})
	assert.Equal(t, "new@example.com", profile.Email)
}

func TestExtract_MatterDescriptionEncounterOrder(t *testing.T) {
	profile := Extract([]models.Message{
		user("I was in a car accident and now my wife wants a divorce"),
	})
	assert.Equal(t, "personal injury, divorce", profile.MatterDescription)

	reversed := Extract([]models.Message{
		user("my wife wants a divorce and I was also in an accident"),
	})
	assert.Equal(t, "divorce, personal injury", reversed.MatterDescription)
}

func TestExtract_MatterDescriptionDeduplicatesCategories(t *testing.T) {
	profile := Extract([]models.Message{
		user("I was fired last week. Being terminated was a shock."),
	})
	assert.Equal(t, "employment termination", profile.MatterDescription)
}

func TestExtract_OpposingPartyPriority(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected string
	}{
		{"explicit spouse phrase", "my husband filed the papers", "husband"},
		{"explicit ex spouse", "my ex-wife took the house", "ex-wife"},
		{"generic spouse keyword", "the spouse refuses to respond", "spouse"},
		{"explicit other party", "my employer fired me without cause", "employer"},
		{"generic other party", "the landlord never fixed the heating", "landlord"},
		{"explicit beats generic", "my wife and her employer are both involved", "wife"},
		{"none", "I need legal advice", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := Extract([]models.Message{user(tt.message)})
			assert.Equal(t, tt.expected, profile.OpposingParty)
		})
	}
}

func TestExtract_Deterministic(t *testing.T) {
	transcript := []models.Message{
		user("my name is Jane Doe, jane@example.com, 555-123-4567"),
		user("my husband wants a divorce and custody of the kids"),
	}

	first := Extract(transcript)
	second := Extract(transcript)
	assert.Equal(t, first, second)
}

func TestLooksLikeContactInfo(t *testing.T) {
	assert.True(t, LooksLikeContactInfo("jane@example.com"))
	assert.True(t, LooksLikeContactInfo("call 555-123-4567 anytime"))
	assert.False(t, LooksLikeContactInfo("I need a lawyer"))
}

func TestHasContactAndComplete(t *testing.T) {
	profile := models.ExtractedProfile{
		Name:              "Jane Doe",
		Email:             "jane@example.com",
		MatterDescription: "divorce",
	}
	assert.True(t, profile.HasContact())
	assert.False(t, profile.Complete(true))
	assert.True(t, profile.Complete(false))

	profile.OpposingParty = "husband"
	assert.True(t, profile.Complete(true))
}
