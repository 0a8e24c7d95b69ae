// internal/intake/orchestrator/orchestrator_test.go

package orchestrator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"intake-workers/internal/common/genai"
	"intake-workers/internal/common/logger"
	"intake-workers/internal/intake/signals"
	"intake-workers/internal/models"
)

type fakeCompletionClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeCompletionClient) Complete(_ context.Context, _ genai.CompletionRequest) (*genai.CompletionResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &genai.CompletionResponse{Response: f.response}, nil
}

type fakePolicyProvider struct {
	policy models.PaymentPolicy
	err    error
}

func (f *fakePolicyProvider) GetPaymentPolicy(_ context.Context, _ string) (models.PaymentPolicy, error) {
	if f.err != nil {
		return models.PaymentPolicy{}, f.err
	}
	return f.policy, nil
}

func newTestOrchestrator(completions CompletionClient, policies PolicyProvider) *Orchestrator {
	if completions == nil {
		completions = &fakeCompletionClient{response: "Could you tell me more?"}
	}
	if policies == nil {
		policies = &fakePolicyProvider{}
	}
	return New(&Config{MaxTokens: 300, Temperature: 0.3}, completions, policies, logger.NewNoOpLogger())
}

func user(content string) models.Message {
	return models.Message{Role: models.RoleUser, Content: content}
}

func assistant(content string) models.Message {
	return models.Message{Role: models.RoleAssistant, Content: content}
}

func matterClassification(matterType string) models.WorkflowClassification {
	return models.WorkflowClassification{
		Workflow:   models.WorkflowMatterCreation,
		MatterType: matterType,
		Urgency:    models.UrgencyMedium,
		Complexity: 3,
	}
}

// Transcript with name, phone, and a family-law matter but no opposing
// party.
func divorceTranscript() []models.Message {
	return []models.Message{
		user("I want to file for divorce"),
		assistant("I'm sorry to hear that. May I have your full name?"),
		user("Jane Doe"),
		assistant("What is the best phone number or email address to reach you?"),
		user("555-123-4567"),
	}
}

func TestDecide_SchedulingQuestionWinsFirst(t *testing.T) {
	o := newTestOrchestrator(nil, nil)
	decision := o.Decide(context.Background(), models.ChainContext{
		OrganizationID: "org-1",
		Message:        "What time are you available for an appointment?",
		Messages:       divorceTranscript(),
	}, matterClassification("Family Law"))

	assert.Equal(t, StateSchedulingOffered, decision.State)
	assert.Contains(t, decision.Response, "Monday through Friday")
	assert.True(t, decision.AttachApproval)
	assert.False(t, decision.Submitted)
}

func TestDecide_AsksOpposingPartyForFamilyMatter(t *testing.T) {
	o := newTestOrchestrator(nil, nil)
	decision := o.Decide(context.Background(), models.ChainContext{
		OrganizationID: "org-1",
		Message:        "yes",
		Messages:       divorceTranscript(),
	}, matterClassification("Family Law"))

	assert.Equal(t, StateNeedsOpposingParty, decision.State)
	assert.Contains(t, decision.Response, "other party")
	assert.NotContains(t, strings.ToLower(decision.Response), "name")
	assert.NotContains(t, strings.ToLower(decision.Response), "phone")
}

func TestDecide_InjuryMatterSkipsOpposingParty(t *testing.T) {
	transcript := []models.Message{
		user("I was hurt in a bus accident last week"),
		assistant("May I have your full name?"),
		user("John Smith"),
		assistant("What is the best phone number or email address to reach you?"),
		user("john@example.com"),
	}

	o := newTestOrchestrator(nil, nil)
	decision := o.Decide(context.Background(), models.ChainContext{
		OrganizationID: "org-1",
		Message:        "yes",
		Messages:       transcript,
	}, matterClassification("Personal Injury"))

	assert.Equal(t, StateSummaryShown, decision.State)
	assert.Contains(t, decision.Response, signals.SummaryIntro)
	assert.Contains(t, decision.Response, signals.SummaryConfirmPrompt)
	assert.Contains(t, decision.Response, "John Smith")
	assert.False(t, decision.Submitted)
}

func TestDecide_SummaryShownOnlyOnce(t *testing.T) {
	transcript := append(divorceTranscript(),
		user("my husband filed the papers"),
		assistant(signals.SummaryIntro+"\n- Name: Jane Doe\n\n"+signals.SummaryConfirmPrompt),
	)

	o := newTestOrchestrator(nil, nil)
	decision := o.Decide(context.Background(), models.ChainContext{
		OrganizationID: "org-1",
		Message:        "yes",
		Messages:       transcript,
	}, matterClassification("Family Law"))

	assert.NotEqual(t, StateSummaryShown, decision.State, "no duplicate summary")
	assert.Equal(t, StateFinalized, decision.State)
}

func TestDecide_FinalizeWithPaymentPolicy(t *testing.T) {
	transcript := append(divorceTranscript(),
		user("my husband filed the papers"),
		assistant(signals.SummaryIntro+"\n- Name: Jane Doe\n\n"+signals.SummaryConfirmPrompt),
	)

	policies := &fakePolicyProvider{policy: models.PaymentPolicy{
		RequiresPayment: true,
		ConsultationFee: 150,
		PaymentLink:     "https://pay.example/x",
	}}

	o := newTestOrchestrator(nil, policies)
	decision := o.Decide(context.Background(), models.ChainContext{
		OrganizationID: "org-1",
		Message:        "yes",
		Messages:       transcript,
	}, matterClassification("Family Law"))

	assert.Equal(t, StateFinalized, decision.State)
	assert.True(t, decision.Submitted)
	assert.Contains(t, decision.Response, "150")
	assert.Contains(t, decision.Response, "https://pay.example/x")
	assert.True(t, decision.Policy.RequiresPayment)
}

func TestDecide_FinalizeWithoutPayment(t *testing.T) {
	transcript := append(divorceTranscript(),
		user("my husband filed the papers"),
		assistant(signals.SummaryIntro+"\n\n"+signals.SummaryConfirmPrompt),
	)

	o := newTestOrchestrator(nil, nil)
	decision := o.Decide(context.Background(), models.ChainContext{
		OrganizationID: "org-1",
		Message:        "yes",
		Messages:       transcript,
	}, matterClassification("Family Law"))

	assert.Equal(t, StateFinalized, decision.State)
	assert.True(t, decision.Submitted)
	assert.Contains(t, decision.Response, "submitted to our legal team")
	assert.Contains(t, decision.Response, "Jane Doe")
}

func TestDecide_NoWithCompleteProfileFinalizesBeforeSummary(t *testing.T) {
	transcript := append(divorceTranscript(),
		assistant("Who is the other party involved in your matter?"),
		user("my husband filed the papers"),
	)

	o := newTestOrchestrator(nil, nil)
	decision := o.Decide(context.Background(), models.ChainContext{
		OrganizationID: "org-1",
		Message:        "no, nothing else",
		Messages:       transcript,
	}, matterClassification("Family Law"))

	assert.Equal(t, StateFinalized, decision.State)
	assert.True(t, decision.Submitted)
	assert.Contains(t, decision.Response, "submitted to our legal team")
}

func TestDecide_PolicyLookupFailureDefaultsToNoPayment(t *testing.T) {
	transcript := append(divorceTranscript(),
		user("my husband filed the papers"),
		assistant(signals.SummaryIntro+"\n\n"+signals.SummaryConfirmPrompt),
	)

	o := newTestOrchestrator(nil, &fakePolicyProvider{err: errors.New("redis down")})
	decision := o.Decide(context.Background(), models.ChainContext{
		OrganizationID: "org-1",
		Message:        "yes",
		Messages:       transcript,
	}, matterClassification("Family Law"))

	assert.Equal(t, StateFinalized, decision.State)
	assert.True(t, decision.Submitted)
	assert.False(t, decision.Policy.RequiresPayment)
	assert.NotContains(t, decision.Response, "fee")
}

func TestDecide_FrustrationAcknowledgedWithName(t *testing.T) {
	o := newTestOrchestrator(nil, nil)
	decision := o.Decide(context.Background(), models.ChainContext{
		OrganizationID: "org-1",
		Message:        "why do you keep asking me that",
		Messages: []models.Message{
			user("my name is Jane Doe"),
			assistant("May I have your full name?"),
		},
	}, matterClassification("Family Law"))

	assert.Equal(t, StateFrustrationHandled, decision.State)
	assert.Contains(t, decision.Response, "Jane Doe")
	assert.Contains(t, decision.Response, "schedule")
	assert.True(t, decision.AttachApproval)
}

func TestDecide_AsksContactBeforeName(t *testing.T) {
	o := newTestOrchestrator(nil, nil)
	decision := o.Decide(context.Background(), models.ChainContext{
		OrganizationID: "org-1",
		Message:        "yes",
		Messages: []models.Message{
			user("I was fired from my job"),
			assistant("I can help with that. Shall we get started?"),
		},
	}, matterClassification("Employment Law"))

	assert.Equal(t, StateNeedsContact, decision.State)
	assert.Contains(t, decision.Response, "phone number or email")
}

func TestDecide_AsksNameLast(t *testing.T) {
	o := newTestOrchestrator(nil, nil)
	decision := o.Decide(context.Background(), models.ChainContext{
		OrganizationID: "org-1",
		Message:        "okay",
		Messages: []models.Message{
			user("I was fired, reach me at jane@example.com"),
			assistant("Understood. Shall we continue?"),
		},
	}, matterClassification("Employment Law"))

	assert.Equal(t, StateNeedsName, decision.State)
	assert.Contains(t, decision.Response, "full name")
}

func TestDecide_NeverAsksForKnownField(t *testing.T) {
	// Every field except the opposing party is already in the transcript;
	// no branch may ask for name, phone, or email again.
	o := newTestOrchestrator(nil, nil)
	decision := o.Decide(context.Background(), models.ChainContext{
		OrganizationID: "org-1",
		Message:        "sure",
		Messages:       divorceTranscript(),
	}, matterClassification("Family Law"))

	lower := strings.ToLower(decision.Response)
	assert.NotContains(t, lower, "your full name")
	assert.NotContains(t, lower, "phone number or email")
}

func TestDecide_DefaultBranchUsesCompletionService(t *testing.T) {
	completions := &fakeCompletionClient{response: "I understand. When did this happen?"}
	o := newTestOrchestrator(completions, nil)

	decision := o.Decide(context.Background(), models.ChainContext{
		OrganizationID: "org-1",
		Message:        "my boss has been threatening me at work",
		Messages:       nil,
	}, matterClassification("Employment Law"))

	assert.Equal(t, 1, completions.calls)
	assert.Equal(t, StateClarifying, decision.State)
	assert.Equal(t, "I understand. When did this happen?", decision.Response)
}

func TestDecide_GenerationFailureUsesFixedQuestion(t *testing.T) {
	completions := &fakeCompletionClient{err: genai.ErrCompletionUnavailable}
	o := newTestOrchestrator(completions, nil)

	decision := o.Decide(context.Background(), models.ChainContext{
		OrganizationID: "org-1",
		Message:        "something happened at work",
		Messages:       nil,
	}, matterClassification("Employment Law"))

	assert.Equal(t, StateClarifying, decision.State)
	assert.Equal(t, clarifyingFallback, decision.Response)
}

func TestDecide_EmptyGenerationUsesFixedQuestion(t *testing.T) {
	completions := &fakeCompletionClient{response: "   "}
	o := newTestOrchestrator(completions, nil)

	decision := o.Decide(context.Background(), models.ChainContext{
		OrganizationID: "org-1",
		Message:        "something happened at work",
		Messages:       nil,
	}, matterClassification("Employment Law"))

	assert.Equal(t, clarifyingFallback, decision.Response)
}
