// internal/intake/orchestrator/orchestrator.go

// Package orchestrator drives the matter-creation conversation. All state
// is re-derived from the transcript on every turn; the only memory is the
// wording of prior assistant messages.
package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	commonerrors "intake-workers/internal/common/errors"
	"intake-workers/internal/common/genai"
	"intake-workers/internal/common/logger"
	"intake-workers/internal/common/metrics"
	"intake-workers/internal/intake/extractor"
	"intake-workers/internal/intake/signals"
	"intake-workers/internal/models"
)

// Conversation states, re-derived each turn.
const (
	StateNeedsName          = "NEEDS_NAME"
	StateNeedsContact       = "NEEDS_CONTACT"
	StateNeedsOpposingParty = "NEEDS_OPPOSING_PARTY"
	StateSummaryShown       = "SUMMARY_SHOWN_AWAITING_CONFIRM"
	StateFinalized          = "FINALIZED"
	StateSchedulingOffered  = "SCHEDULING_OFFERED"
	StateFrustrationHandled = "FRUSTRATION_ACKNOWLEDGED"
	StateClarifying         = "CLARIFYING"
)

const clarifyingFallback = "I want to make sure I understand your situation correctly. Could you tell me a bit more about what happened?"

// CompletionClient is the slice of the completion service used for
// open-ended response generation.
type CompletionClient interface {
	Complete(ctx context.Context, req genai.CompletionRequest) (*genai.CompletionResponse, error)
}

// PolicyProvider resolves an organization's consultation payment policy.
type PolicyProvider interface {
	GetPaymentPolicy(ctx context.Context, organizationID string) (models.PaymentPolicy, error)
}

type Config struct {
	MaxTokens   int
	Temperature float64
}

type Orchestrator struct {
	config      *Config
	completions CompletionClient
	policies    PolicyProvider
	logger      logger.Logger
}

// Decision is what the orchestrator chose to do for one turn. The
// assembler turns it into a ChainResult.
type Decision struct {
	Response       string
	State          string
	Profile        models.ExtractedProfile
	Policy         models.PaymentPolicy
	AttachApproval bool
	Submitted      bool
}

func New(config *Config, completions CompletionClient, policies PolicyProvider, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		config:      config,
		completions: completions,
		policies:    policies,
		logger: log.With(map[string]interface{}{
			"component": "orchestrator",
		}),
	}
}

var familyKeywords = []string{"divorce", "custody", "family", "spouse", "alimony", "separation", "child support"}
var injuryKeywords = []string{"accident", "injur", "crash", "slip", "fall", "hurt"}

var noWordPattern = regexp.MustCompile(`(?i)\bno\b`)

// Decide applies the transition rules in fixed priority order; the first
// matching rule wins.
func (o *Orchestrator) Decide(ctx context.Context, chainCtx models.ChainContext, classification models.WorkflowClassification) Decision {
	// The current message is part of the conversation for extraction
	// purposes; the signal predicates look at it on its own.
	transcript := append(append([]models.Message{}, chainCtx.Messages...), models.Message{
		Role:    models.RoleUser,
		Content: chainCtx.Message,
	})
	profile := extractor.Extract(transcript)

	flavor := strings.ToLower(profile.MatterDescription + " " + classification.MatterType)
	familyFlavored := containsAny(flavor, familyKeywords)
	injuryFlavored := containsAny(flavor, injuryKeywords)
	// Opposing party is usually unknown at intake time for injury matters.
	requireOpposing := familyFlavored && !injuryFlavored

	complete := profile.Complete(requireOpposing)
	affirmative := signals.IsAffirmative(chainCtx.Message)
	summaryShown := signals.SummaryAlreadyShown(chainCtx.Messages)

	switch {
	case signals.IsSchedulingQuestion(chainCtx.Message):
		return Decision{
			Response:       "We offer consultations Monday through Friday, 9am to 5pm. I can have our team confirm a time with you. Would morning or afternoon work better for you?",
			State:          StateSchedulingOffered,
			Profile:        profile,
			AttachApproval: true,
		}

	case complete && affirmative && !summaryShown:
		return Decision{
			Response:       renderSummary(profile, classification),
			State:          StateSummaryShown,
			Profile:        profile,
			AttachApproval: true,
		}

	// An affirmative lands here only after the summary (the rule above
	// catches it otherwise); a "no" finalizes regardless of whether the
	// summary was shown.
	case complete && (affirmative || noWordPattern.MatchString(chainCtx.Message)):
		return o.finalize(ctx, chainCtx.OrganizationID, profile)

	case signals.IsFrustrated(chainCtx.Message):
		return Decision{
			Response:       frustrationResponse(profile.Name),
			State:          StateFrustrationHandled,
			Profile:        profile,
			AttachApproval: true,
		}

	case affirmative && !complete:
		return o.askNextMissing(ctx, chainCtx.OrganizationID, profile, requireOpposing)

	default:
		return o.generate(ctx, chainCtx, profile)
	}
}

// finalize submits the matter, gated on the organization's payment policy.
// Policy lookup failure defaults to no payment and is never surfaced.
func (o *Orchestrator) finalize(ctx context.Context, organizationID string, profile models.ExtractedProfile) Decision {
	policy, err := o.policies.GetPaymentPolicy(ctx, organizationID)
	if err != nil {
		stdErr := commonerrors.NewPolicyLookupFailedError(organizationID, err)
		o.logger.WithError(stdErr).Warn("payment policy lookup failed, defaulting to no payment", map[string]interface{}{
			"organizationId": organizationID,
		})
		policy = models.PaymentPolicy{}
	}

	name := profile.Name
	if name == "" {
		name = "there"
	}

	var response string
	if policy.RequiresPayment && policy.ConsultationFee > 0 {
		response = fmt.Sprintf(
			"Thank you, %s. To proceed with your consultation there is a fee of $%.2f. Please complete your payment here: %s. Once payment is received, our legal team will review your matter and reach out to you.",
			name, policy.ConsultationFee, policy.PaymentLink)
	} else {
		response = fmt.Sprintf(
			"Thank you, %s. Your matter has been submitted to our legal team. A lawyer will review your information and contact you shortly.",
			name)
	}

	return Decision{
		Response:       response,
		State:          StateFinalized,
		Profile:        profile,
		Policy:         policy,
		AttachApproval: true,
		Submitted:      true,
	}
}

// askNextMissing asks for exactly one field, in fixed priority. Each branch
// only offers a missing field, so a known field is never asked for again.
func (o *Orchestrator) askNextMissing(ctx context.Context, organizationID string, profile models.ExtractedProfile, requireOpposing bool) Decision {
	switch {
	case requireOpposing && profile.OpposingParty == "":
		return Decision{
			Response: "Who is the other party involved in your matter? For example, your spouse or their attorney.",
			State:    StateNeedsOpposingParty,
			Profile:  profile,
		}
	case !profile.HasContact():
		return Decision{
			Response: "What is the best phone number or email address to reach you?",
			State:    StateNeedsContact,
			Profile:  profile,
		}
	case profile.Name == "":
		return Decision{
			Response: "May I have your full name?",
			State:    StateNeedsName,
			Profile:  profile,
		}
	default:
		return o.finalize(ctx, organizationID, profile)
	}
}

// generate is the default branch: one completion call carrying the whole
// transcript, the extraction, and explicit generation rules.
func (o *Orchestrator) generate(ctx context.Context, chainCtx models.ChainContext, profile models.ExtractedProfile) Decision {
	resp, err := o.completions.Complete(ctx, genai.CompletionRequest{
		Prompt:      buildGenerationPrompt(chainCtx, profile),
		MaxTokens:   o.config.MaxTokens,
		Temperature: o.config.Temperature,
	})
	if err != nil || strings.TrimSpace(resp.Response) == "" {
		metrics.CompletionCalls.WithLabelValues("generate", "failure").Inc()
		metrics.FallbackActivations.WithLabelValues("generation_fallback").Inc()
		if err != nil {
			o.logger.WithError(err).Warn("response generation failed, using fixed question", nil)
		}
		return Decision{
			Response: clarifyingFallback,
			State:    StateClarifying,
			Profile:  profile,
		}
	}

	metrics.CompletionCalls.WithLabelValues("generate", "success").Inc()
	return Decision{
		Response: strings.TrimSpace(resp.Response),
		State:    StateClarifying,
		Profile:  profile,
	}
}

// renderSummary builds the matter summary. The intro and closing lines are
// the markers signals.SummaryAlreadyShown looks for, so any rewording must
// go through those constants.
func renderSummary(profile models.ExtractedProfile, classification models.WorkflowClassification) string {
	var sb strings.Builder
	sb.WriteString(signals.SummaryIntro)
	sb.WriteString("\n")
	sb.WriteString("- Name: " + orNotProvided(profile.Name) + "\n")
	sb.WriteString("- Phone: " + orNotProvided(profile.Phone) + "\n")
	sb.WriteString("- Email: " + orNotProvided(profile.Email) + "\n")
	sb.WriteString("- Matter type: " + orNotProvided(classification.MatterType) + "\n")
	sb.WriteString("- Description: " + orNotProvided(profile.MatterDescription) + "\n")
	sb.WriteString("- Opposing party: " + orNotProvided(profile.OpposingParty) + "\n")
	sb.WriteString("- Urgency: " + orNotProvided(classification.Urgency) + "\n")
	sb.WriteString("\n")
	sb.WriteString(signals.SummaryConfirmPrompt)
	return sb.String()
}

func frustrationResponse(name string) string {
	if name != "" {
		return fmt.Sprintf("I apologize for the repeated questions, %s. Would you prefer to schedule a consultation with one of our lawyers directly?", name)
	}
	return "I apologize for the repeated questions. Would you prefer to schedule a consultation with one of our lawyers directly?"
}

func buildGenerationPrompt(chainCtx models.ChainContext, profile models.ExtractedProfile) string {
	var sb strings.Builder
	sb.WriteString("You are a legal intake assistant for a law firm. Continue the conversation.\n\n")

	known := []string{}
	if profile.Name != "" {
		known = append(known, "name: "+profile.Name)
	}
	if profile.Email != "" {
		known = append(known, "email: "+profile.Email)
	}
	if profile.Phone != "" {
		known = append(known, "phone: "+profile.Phone)
	}
	if profile.MatterDescription != "" {
		known = append(known, "matter: "+profile.MatterDescription)
	}
	if profile.OpposingParty != "" {
		known = append(known, "opposing party: "+profile.OpposingParty)
	}
	if len(known) > 0 {
		sb.WriteString("Already known about the client (never ask for these again): ")
		sb.WriteString(strings.Join(known, "; "))
		sb.WriteString("\n\n")
	}

	sb.WriteString("Rules:\n")
	sb.WriteString("- Reply in at most 2-3 sentences.\n")
	sb.WriteString("- Never ask for information listed above.\n")
	sb.WriteString("- If the client challenges a question, briefly explain why you asked.\n\n")

	if len(chainCtx.Messages) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, msg := range chainCtx.Messages {
			sb.WriteString(string(msg.Role))
			sb.WriteString(": ")
			sb.WriteString(msg.Content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Client: ")
	sb.WriteString(chainCtx.Message)
	sb.WriteString("\nAssistant:")
	return sb.String()
}

func orNotProvided(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
