package models

// Chat roles for transcript entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one entry in an append-only chat transcript. Transcripts
// are owned by a single chat surface for the session's lifetime; the
// onboarding chat and the floating assistant never share one.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
