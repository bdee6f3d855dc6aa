package models

import "time"

// Turn roles as stored in a session's conversation history.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is a single conversation turn within a session.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session binds one uploaded document set, one vector index, and one
// conversation history. Turns are appended in pairs (user then assistant)
// after every successful chat invocation.
type Session struct {
	ID        string    `json:"id" badgerhold:"key"`
	Turns     []Turn    `json:"turns"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
