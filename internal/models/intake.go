// internal/models/intake.go
package models

// Workflow is the top-level intake category chosen for a turn.
type Workflow string

const (
	WorkflowMatterCreation Workflow = "MATTER_CREATION"
	WorkflowGeneralInquiry Workflow = "GENERAL_INQUIRY"
	WorkflowScheduling     Workflow = "SCHEDULING"
	WorkflowContactForm    Workflow = "CONTACT_FORM"
	WorkflowUrgentMatter   Workflow = "URGENT_MATTER"
)

// Urgency levels for a classified matter.
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// WorkflowClassification is the routing decision for a single turn.
type WorkflowClassification struct {
	Workflow       Workflow `json:"workflow"`
	MatterType     string   `json:"matterType"`
	Urgency        string   `json:"urgency"`
	Complexity     int      `json:"complexity"`
	EstimatedValue float64  `json:"estimatedValue"`
}

// ExtractedProfile is the client information mined from the transcript.
// It is recomputed from the full transcript on every turn; missing fields
// are empty strings.
type ExtractedProfile struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	MatterDescription string `json:"matterDescription"`
	OpposingParty     string `json:"opposingParty"`
}

// HasContact reports whether at least one contact channel is known.
func (p ExtractedProfile) HasContact() bool {
	return p.Email != "" || p.Phone != ""
}

// Complete reports whether all essential intake fields are present.
// Opposing party is only essential when requireOpposingParty is set.
func (p ExtractedProfile) Complete(requireOpposingParty bool) bool {
	if p.Name == "" || !p.HasContact() || p.MatterDescription == "" {
		return false
	}
	if requireOpposingParty && p.OpposingParty == "" {
		return false
	}
	return true
}

// PaymentPolicy is the organization's consultation payment configuration.
// The zero value means no payment is required.
type PaymentPolicy struct {
	RequiresPayment bool    `json:"requiresPayment"`
	ConsultationFee float64 `json:"consultationFee"`
	PaymentLink     string  `json:"paymentLink,omitempty"`
}
