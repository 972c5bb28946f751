// Package convo holds the normalized conversation model shared by the
// renderer, exporter, index, server and TUI. Normalizers produce these
// values fresh on every call; consumers must not mutate them.
package convo

import "time"

// Role classifies a message for display.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
)

// Message is a single normalized timeline entry. A zero Time means the
// source carried no usable timestamp; such messages sort before all others.
type Message struct {
	ID   string    `json:"id" yaml:"id"`
	Role Role      `json:"role" yaml:"role"`
	Kind string    `json:"kind,omitempty" yaml:"kind,omitempty"` // "text" or "thinking"
	Text string    `json:"text" yaml:"text"`
	Time time.Time `json:"time,omitempty" yaml:"time,omitempty"`
}

// Conversation is a normalized chat session from any supported source.
type Conversation struct {
	ID        string    `json:"id" yaml:"id"`
	Title     string    `json:"title" yaml:"title"`
	Source    string    `json:"source" yaml:"source"` // "claude" or "chatgpt"
	CreatedAt time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
	Messages  []Message `json:"messages" yaml:"messages"`
}

// SoftDeleted reports whether the conversation follows the empty-title
// convention for deleted-but-exported conversations. Listings hide these
// by default.
func (c *Conversation) SoftDeleted() bool {
	return c.Title == ""
}
