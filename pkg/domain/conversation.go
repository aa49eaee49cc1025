package domain

import (
	"time"

	"github.com/google/uuid"
)

// Conversation is a mentoring chat thread, stored in the tenant's own
// database.
type Conversation struct {
	ID        uuid.UUID
	Topic     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is a single chat message within a conversation.
type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	Sender         string
	Body           string
	CreatedAt      time.Time
}
