package chat

import (
	"time"

	"github.com/ren-app/ren-backend/internal/types"
)

// PersonaInstruction is the synthetic user-role instruction that opens the
// context for a brand-new user. It is sent to the provider but never stored.
const PersonaInstruction = `You are Ren, a warm and supportive wellness companion inside a mental-wellness app. You listen without judgment, ask gentle follow-up questions, and help users reflect on how they are feeling. Keep responses short and conversational. You are not a therapist and you never give medical advice; if a user seems to be in crisis, encourage them to reach out to a professional or a local helpline.`

// PersonaAck is the synthetic assistant acknowledgment paired with
// PersonaInstruction.
const PersonaAck = `Understood. I'm Ren, and I'm here to listen and support you. Whenever you're ready, tell me what's on your mind.`

// Greeting is the assistant message that seeds every newly created
// conversation.
const Greeting = `Hi, I'm Ren. It's good to see you. How are you feeling today?`

// personaPreamble returns the fixed instruction/acknowledgment pair that
// fronts a brand-new user's first context.
func personaPreamble(now time.Time) []types.Message {
	return []types.Message{
		{Role: types.RoleUser, Content: PersonaInstruction, CreatedAt: now, UpdatedAt: now},
		{Role: types.RoleAssistant, Content: PersonaAck, CreatedAt: now, UpdatedAt: now},
	}
}
