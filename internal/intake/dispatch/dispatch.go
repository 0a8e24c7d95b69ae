// internal/intake/dispatch/dispatch.go

// Package dispatch assembles the engine's uniform output contract. The
// engine never performs side effects itself; every intended effect is
// described as an action for the downstream consumer.
package dispatch

import (
	"time"

	"github.com/google/uuid"

	"intake-workers/internal/common/logger"
	"intake-workers/internal/intake/orchestrator"
	"intake-workers/internal/models"
)

// Action names understood by the downstream consumer.
const (
	ActionRequestLawyerApproval = "request_lawyer_approval"
	ActionProposeTimeSlots      = "propose_time_slots"
	ActionShowContactForm       = "show_contact_form"
	ActionNotifyOnCallLawyer    = "notify_on_call_lawyer"
)

const safeResponse = "I'm here to help with your legal questions. Could you tell me a bit more about what you need?"

type Assembler struct {
	logger logger.Logger
}

func NewAssembler(log logger.Logger) *Assembler {
	return &Assembler{
		logger: log.With(map[string]interface{}{
			"component": "dispatch",
		}),
	}
}

// Assemble builds the ChainResult for a matter-creation turn. At most one
// request_lawyer_approval action is emitted per turn.
func (a *Assembler) Assemble(chainCtx models.ChainContext, classification models.WorkflowClassification, decision orchestrator.Decision) models.ChainResult {
	actions := []models.Action{}
	if decision.AttachApproval {
		actions = append(actions, models.Action{
			Name: ActionRequestLawyerApproval,
			Parameters: map[string]interface{}{
				"matter_type":        classification.MatterType,
				"urgency":            classification.Urgency,
				"client_message":     chainCtx.Message,
				"client_name":        decision.Profile.Name,
				"client_email":       decision.Profile.Email,
				"client_phone":       decision.Profile.Phone,
				"matter_description": decision.Profile.MatterDescription,
				"opposing_party":     decision.Profile.OpposingParty,
				"submitted":          decision.Submitted,
				"requires_payment":   decision.Policy.RequiresPayment,
				"consultation_fee":   decision.Policy.ConsultationFee,
				"payment_link":       decision.Policy.PaymentLink,
			},
		})
	}

	a.logger.Info("turn assembled", map[string]interface{}{
		"sessionId": chainCtx.SessionID,
		"workflow":  string(classification.Workflow),
		"state":     decision.State,
		"submitted": decision.Submitted,
	})

	return models.ChainResult{
		Workflow: classification.Workflow,
		Response: decision.Response,
		Actions:  actions,
		Metadata: baseMetadata(classification, decision.State),
	}
}

// AssembleStub handles the non-matter workflows with a canned response and
// at most one fixed action.
func (a *Assembler) AssembleStub(chainCtx models.ChainContext, classification models.WorkflowClassification) models.ChainResult {
	var response string
	var actions []models.Action

	switch classification.Workflow {
	case models.WorkflowScheduling:
		response = "Happy to help you schedule a consultation. Our team will follow up with available time slots shortly."
		actions = []models.Action{{
			Name:       ActionProposeTimeSlots,
			Parameters: map[string]interface{}{"session_id": chainCtx.SessionID},
		}}
	case models.WorkflowContactForm:
		response = "Please share your contact details and a short description of your matter, and our team will reach out to you."
		actions = []models.Action{{
			Name:       ActionShowContactForm,
			Parameters: map[string]interface{}{"session_id": chainCtx.SessionID},
		}}
	case models.WorkflowUrgentMatter:
		response = "I understand this is urgent. I am alerting our on-call lawyer right now; please stay in the chat."
		actions = []models.Action{{
			Name: ActionNotifyOnCallLawyer,
			Parameters: map[string]interface{}{
				"session_id":     chainCtx.SessionID,
				"urgency":        classification.Urgency,
				"client_message": chainCtx.Message,
			},
		}}
	default:
		response = "Thanks for reaching out. I can help with questions about our services, scheduling, or starting a new legal matter. What would you like to know?"
		actions = []models.Action{}
	}

	return models.ChainResult{
		Workflow: classification.Workflow,
		Response: response,
		Actions:  actions,
		Metadata: baseMetadata(classification, ""),
	}
}

// SafeResult is the top-level recovery output. The diagnostic detail goes
// into metadata only and never into the conversation surface.
func SafeResult(detail string) models.ChainResult {
	return models.ChainResult{
		Workflow: models.WorkflowGeneralInquiry,
		Response: safeResponse,
		Actions:  []models.Action{},
		Metadata: map[string]interface{}{
			"turnId": uuid.New().String(),
			"error":  detail,
		},
	}
}

func baseMetadata(classification models.WorkflowClassification, state string) map[string]interface{} {
	metadata := map[string]interface{}{
		"turnId":      uuid.New().String(),
		"matterType":  classification.MatterType,
		"urgency":     classification.Urgency,
		"processedAt": time.Now().UTC().Format(time.RFC3339),
	}
	if state != "" {
		metadata["state"] = state
	}
	return metadata
}
