// internal/workers/intake/process-chat-turn/models.go
package processchatturn

import "intake-workers/internal/models"

type Input struct {
	OrganizationID string           `json:"organizationId"`
	SessionID      string           `json:"sessionId"`
	Message        string           `json:"message"`
	Messages       []models.Message `json:"messages"`
}

type Output struct {
	Workflow string                 `json:"workflow"`
	Response string                 `json:"response"`
	Actions  []models.Action        `json:"actions"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
