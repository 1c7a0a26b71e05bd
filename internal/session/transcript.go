package session

import "vigia/internal/models"

// Chat surfaces with independent transcripts. The onboarding chat and the
// floating assistant never share history.
const (
	SurfaceOnboarding = "onboarding"
	SurfaceAssistant  = "assistant"
)

// AppendChat records one exchange turn on a surface's transcript.
// Transcripts are append-only and live for the session's lifetime.
func (c *Controller) AppendChat(surface, role, content string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.transcripts == nil {
		c.transcripts = make(map[string][]models.ChatMessage)
	}
	c.transcripts[surface] = append(c.transcripts[surface], models.ChatMessage{
		Role:    role,
		Content: content,
	})
}

// Transcript returns a copy of one surface's chat history, oldest first.
func (c *Controller) Transcript(surface string) []models.ChatMessage {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.ChatMessage, len(c.transcripts[surface]))
	copy(out, c.transcripts[surface])
	return out
}
