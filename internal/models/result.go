// internal/models/result.go
package models

// Action is a named, parameterized side effect for a downstream consumer
// to execute. The engine itself never performs side effects.
type Action struct {
	Name       string                 `json:"name"`
	Parameters map[string]interface{} `json:"parameters"`
}

// ChainContext is the engine's sole input for one turn.
type ChainContext struct {
	OrganizationID string    `json:"organizationId"`
	SessionID      string    `json:"sessionId"`
	Message        string    `json:"message"`
	Messages       []Message `json:"messages"`
}

// ChainResult is the engine's sole output for one turn. Every code path
// produces a valid ChainResult; errors surface only in Metadata.
type ChainResult struct {
	Workflow Workflow               `json:"workflow"`
	Response string                 `json:"response"`
	Actions  []Action               `json:"actions"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}
