// internal/intake/router/router.go

// Package router decides which workflow handles a turn. Classification
// never fails: when the completion service is down or returns garbage the
// router walks a keyword ladder, and when even that finds nothing it falls
// back to a fixed heuristic.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	commonerrors "intake-workers/internal/common/errors"
	"intake-workers/internal/common/genai"
	"intake-workers/internal/common/logger"
	"intake-workers/internal/common/metrics"
	"intake-workers/internal/common/validation"
	"intake-workers/internal/intake/extractor"
	"intake-workers/internal/intake/signals"
	"intake-workers/internal/models"
)

// CompletionClient is the slice of the completion service the router needs.
type CompletionClient interface {
	Complete(ctx context.Context, req genai.CompletionRequest) (*genai.CompletionResponse, error)
}

type Config struct {
	MaxTokens   int
	Temperature float64
}

type Router struct {
	config *Config
	client CompletionClient
	logger logger.Logger
}

func New(config *Config, client CompletionClient, log logger.Logger) *Router {
	return &Router{
		config: config,
		client: client,
		logger: log.With(map[string]interface{}{
			"component": "router",
		}),
	}
}

// keywordRule pairs an indicator set with the classification it produces.
// The slice is walked in order and the first hit wins, so more specific
// practice areas sit above generic ones.
type keywordRule struct {
	name     string
	keywords []string
	result   models.WorkflowClassification
}

var messageLadder = []keywordRule{
	{
		name:     "personal_injury",
		keywords: []string{"accident", "injured", "injury", "crash", "slip and fall", "hit by"},
		result: models.WorkflowClassification{
			Workflow:       models.WorkflowMatterCreation,
			MatterType:     "Personal Injury",
			Urgency:        models.UrgencyHigh,
			Complexity:     3,
			EstimatedValue: 10000,
		},
	},
	{
		name:     "employment",
		keywords: []string{"fired", "terminated", "laid off", "wrongful", "workplace", "my boss"},
		result: models.WorkflowClassification{
			Workflow:       models.WorkflowMatterCreation,
			MatterType:     "Employment Law",
			Urgency:        models.UrgencyHigh,
			Complexity:     3,
			EstimatedValue: 5000,
		},
	},
	{
		name:     "family",
		keywords: []string{"divorce", "custody", "alimony", "spouse", "separation"},
		result: models.WorkflowClassification{
			Workflow:       models.WorkflowMatterCreation,
			MatterType:     "Family Law",
			Urgency:        models.UrgencyMedium,
			Complexity:     3,
			EstimatedValue: 5000,
		},
	},
	{
		name:     "civil",
		keywords: []string{"contract", "lawsuit", "sue", "dispute", "landlord", "evict"},
		result: models.WorkflowClassification{
			Workflow:       models.WorkflowMatterCreation,
			MatterType:     "Civil Litigation",
			Urgency:        models.UrgencyMedium,
			Complexity:     3,
			EstimatedValue: 5000,
		},
	},
	{
		name:     "criminal",
		keywords: []string{"arrested", "charged", "dui", "criminal"},
		result: models.WorkflowClassification{
			Workflow:       models.WorkflowMatterCreation,
			MatterType:     "Criminal Defense",
			Urgency:        models.UrgencyHigh,
			Complexity:     4,
			EstimatedValue: 5000,
		},
	},
	{
		name:     "general_legal",
		keywords: []string{"help", "lawyer", "legal", "attorney"},
		result: models.WorkflowClassification{
			Workflow:       models.WorkflowMatterCreation,
			MatterType:     "General Consultation",
			Urgency:        models.UrgencyMedium,
			Complexity:     2,
			EstimatedValue: 5000,
		},
	},
}

// continuationMatterLadder infers the practice area for an in-progress
// conversation from the whole transcript, most specific first.
var continuationMatterLadder = []struct {
	keywords   []string
	matterType string
}{
	{[]string{"accident", "injured", "injury", "crash", "slip and fall"}, "Personal Injury"},
	{[]string{"divorce", "custody", "alimony", "spouse"}, "Family Law"},
}

// Classify routes a single turn. By contract it never returns an error;
// every failure path degrades to a cheaper tier.
func (r *Router) Classify(ctx context.Context, message string, transcript []models.Message) (result models.WorkflowClassification) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("classification panic, using hard fallback", map[string]interface{}{
				"panic": fmt.Sprintf("%v", rec),
			})
			result = hardFallback(message)
		}
	}()

	// Contact details and confirmations mid-conversation are answers to
	// intake questions, not new requests; keep the conversation in matter
	// creation without re-routing it.
	if len(transcript) > 0 && (extractor.LooksLikeContactInfo(message) || signals.IsAffirmative(message)) {
		return r.classifyContinuation(transcript)
	}

	classification, err := r.classifyWithCompletion(ctx, message, transcript)
	if err == nil {
		metrics.CompletionCalls.WithLabelValues("classify", "success").Inc()
		return classification
	}

	metrics.CompletionCalls.WithLabelValues("classify", "failure").Inc()
	metrics.FallbackActivations.WithLabelValues("keyword_ladder").Inc()
	r.logger.Warn("completion classification failed, using keyword ladder", map[string]interface{}{
		"error": err.Error(),
	})

	if ruled, ok := r.classifyByLadder(message); ok {
		return ruled
	}

	metrics.FallbackActivations.WithLabelValues("hard_heuristic").Inc()
	return hardFallback(message)
}

// classifyContinuation keeps a short reply inside matter creation and
// infers the practice area from the transcript.
func (r *Router) classifyContinuation(transcript []models.Message) models.WorkflowClassification {
	lower := strings.ToLower(models.TranscriptText(transcript))

	matterType := "Employment Law"
	for _, rung := range continuationMatterLadder {
		if containsAny(lower, rung.keywords) {
			matterType = rung.matterType
			break
		}
	}

	return models.WorkflowClassification{
		Workflow:       models.WorkflowMatterCreation,
		MatterType:     matterType,
		Urgency:        models.UrgencyHigh,
		Complexity:     3,
		EstimatedValue: 5000,
	}
}

func (r *Router) classifyWithCompletion(ctx context.Context, message string, transcript []models.Message) (models.WorkflowClassification, error) {
	resp, err := r.client.Complete(ctx, genai.CompletionRequest{
		Prompt:      buildClassificationPrompt(message, transcript),
		MaxTokens:   r.config.MaxTokens,
		Temperature: r.config.Temperature,
	})
	if err != nil {
		if errors.Is(err, genai.ErrCompletionTimeout) {
			return models.WorkflowClassification{}, commonerrors.NewCompletionTimeoutError(err.Error())
		}
		return models.WorkflowClassification{}, commonerrors.NewCompletionUnavailableError(err)
	}

	doc, err := extractJSONObject(resp.Response)
	if err != nil {
		return models.WorkflowClassification{}, commonerrors.NewClassificationMalformedError(err.Error())
	}

	if err := validation.ValidateClassification(doc); err != nil {
		return models.WorkflowClassification{}, commonerrors.NewClassificationMalformedError(err.Error())
	}

	return classificationFromDoc(doc), nil
}

// classifyByLadder walks the ordered keyword rules over the lowercased
// message.
func (r *Router) classifyByLadder(message string) (models.WorkflowClassification, bool) {
	lower := strings.ToLower(message)
	for _, rule := range messageLadder {
		if containsAny(lower, rule.keywords) {
			r.logger.Debug("keyword ladder matched", map[string]interface{}{
				"rule": rule.name,
			})
			return rule.result, true
		}
	}
	return models.WorkflowClassification{}, false
}

// hardFallback is the floor of the chain: anything that mentions needing
// help becomes a matter, everything else a general inquiry.
func hardFallback(message string) models.WorkflowClassification {
	lower := strings.ToLower(message)
	if containsAny(lower, []string{"help", "lawyer", "legal", "caught", "fired"}) {
		return models.WorkflowClassification{
			Workflow:       models.WorkflowMatterCreation,
			MatterType:     "Employment Law",
			Urgency:        models.UrgencyMedium,
			Complexity:     2,
			EstimatedValue: 5000,
		}
	}
	return models.WorkflowClassification{
		Workflow:   models.WorkflowGeneralInquiry,
		MatterType: "General",
		Urgency:    models.UrgencyLow,
		Complexity: 1,
	}
}

func buildClassificationPrompt(message string, transcript []models.Message) string {
	var sb strings.Builder
	sb.WriteString("You are an intake classifier for a law firm. Classify the client's latest message into exactly one workflow.\n\n")
	sb.WriteString("Workflows:\n")
	sb.WriteString("- MATTER_CREATION: the client describes a legal problem or wants to open a matter\n")
	sb.WriteString("- SCHEDULING: the client asks about appointment times or availability\n")
	sb.WriteString("- CONTACT_FORM: the client wants to leave contact details for a callback\n")
	sb.WriteString("- URGENT_MATTER: the client faces an imminent deadline, arrest, or emergency\n")
	sb.WriteString("- GENERAL_INQUIRY: anything else\n\n")

	if len(transcript) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, msg := range transcript {
			sb.WriteString(string(msg.Role))
			sb.WriteString(": ")
			sb.WriteString(msg.Content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Latest message: ")
	sb.WriteString(message)
	sb.WriteString("\n\nRespond with only a JSON object: ")
	sb.WriteString(`{"workflow": "...", "matterType": "...", "urgency": "low|medium|high", "complexity": 1-5, "estimatedValue": number}`)
	return sb.String()
}

// extractJSONObject pulls the first balanced-looking JSON object out of the
// response text; models often wrap the object in prose or code fences.
func extractJSONObject(text string) (map[string]interface{}, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(text[start:end+1]), &doc); err != nil {
		return nil, fmt.Errorf("malformed classification JSON: %w", err)
	}
	return doc, nil
}

func classificationFromDoc(doc map[string]interface{}) models.WorkflowClassification {
	result := models.WorkflowClassification{
		Workflow:   models.Workflow(stringField(doc, "workflow")),
		MatterType: stringField(doc, "matterType"),
		Urgency:    stringField(doc, "urgency"),
		Complexity: 3,
	}

	if result.MatterType == "" {
		result.MatterType = "General"
	}
	if result.Urgency == "" {
		result.Urgency = models.UrgencyMedium
	}
	if v, ok := doc["complexity"].(float64); ok {
		result.Complexity = int(v)
	}
	if v, ok := doc["estimatedValue"].(float64); ok {
		result.EstimatedValue = v
	}
	return result
}

func stringField(doc map[string]interface{}, key string) string {
	if v, ok := doc[key].(string); ok {
		return v
	}
	return ""
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
