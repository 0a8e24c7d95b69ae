// internal/models/conversation.go
package models

import "strings"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single entry in a conversation transcript.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// UserText concatenates the content of all user-authored messages,
// separated by newlines.
func UserText(transcript []Message) string {
	var b strings.Builder
	for _, m := range transcript {
		if m.Role != RoleUser {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Content)
	}
	return b.String()
}

// TranscriptText concatenates the content of every message, separated by
// newlines, regardless of author.
func TranscriptText(transcript []Message) string {
	var b strings.Builder
	for _, m := range transcript {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(m.Content)
	}
	return b.String()
}
