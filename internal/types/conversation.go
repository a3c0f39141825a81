package types

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the role of a message sender.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single entry inside a conversation. Messages are append-only;
// once written they keep their original timestamps.
type Message struct {
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Conversation is one chat session for a user. At most one conversation per
// user is active at any time.
type Conversation struct {
	ID        uuid.UUID  `json:"id"`
	UserID    string     `json:"user_id"`
	Active    bool       `json:"active"`
	Messages  []Message  `json:"messages"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ClosedAt  *time.Time `json:"closed_at,omitempty"`
}

// HistoryMessage is a message flattened out of its conversation for the
// cross-conversation history feed, carrying the owning conversation's
// metadata alongside the message fields.
type HistoryMessage struct {
	ConversationID        string      `json:"conversation_id"`
	ConversationActive    bool        `json:"conversation_active"`
	ConversationCreatedAt time.Time   `json:"conversation_created_at"`
	ConversationUpdatedAt time.Time   `json:"conversation_updated_at"`
	Role                  MessageRole `json:"role"`
	Content               string      `json:"content"`
	CreatedAt             time.Time   `json:"created_at"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

// Showing describes the 1-based range of messages on the current page.
type Showing struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Count int `json:"count"`
}

// Pagination is the metadata returned alongside a history page.
type Pagination struct {
	CurrentPage     int     `json:"current_page"`
	TotalPages      int     `json:"total_pages"`
	HasNextPage     bool    `json:"has_next_page"`
	HasPreviousPage bool    `json:"has_previous_page"`
	TotalMessages   int     `json:"total_messages"`
	MessagesPerPage int     `json:"messages_per_page"`
	Showing         Showing `json:"showing"`
}
