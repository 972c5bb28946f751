// Package claude decodes Claude conversation exports. The export is
// already a flat message list, so normalization is validation plus a
// stabilizing sort; there is no graph work.
package claude

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mkarpel/convoview/internal/convo"
	"github.com/mkarpel/convoview/internal/detect"
	"github.com/mkarpel/convoview/internal/payload"
)

// ErrInvalidFormat reports a payload that matches neither the single
// conversation shape nor an array of conversations.
var ErrInvalidFormat = errors.New("invalid Claude conversation format")

// Conversation mirrors one conversation in a Claude export. An empty name
// marks a soft-deleted conversation by convention, not schema.
type Conversation struct {
	UUID      string    `json:"uuid"`
	Name      string    `json:"name"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
	Messages  []Message `json:"chat_messages"`
}

func (c *Conversation) SoftDeleted() bool { return c.Name == "" }

// Message is a single exported chat message.
type Message struct {
	UUID        string         `json:"uuid"`
	Sender      string         `json:"sender"` // "human" or "assistant"
	Text        string         `json:"text"`
	CreatedAt   string         `json:"created_at"`
	Content     []ContentBlock `json:"content,omitempty"`
	Attachments []Attachment   `json:"attachments,omitempty"`
	Files       []Attachment   `json:"files,omitempty"`
	Feedback    *Feedback      `json:"chat_feedback,omitempty"`
}

// ContentBlock is one typed fragment of a message body.
type ContentBlock struct {
	Type string `json:"type"` // "text" or "thinking"
	Text string `json:"text,omitempty"`
}

// Attachment describes an uploaded file referenced by a message.
type Attachment struct {
	FileName         string `json:"file_name"`
	FileType         string `json:"file_type,omitempty"`
	FileSize         int64  `json:"file_size,omitempty"`
	ExtractedContent string `json:"extracted_content,omitempty"`
}

// Feedback is an optional thumbs rating left on an assistant message.
type Feedback struct {
	Type   string `json:"type"` // "good" or "bad"
	Reason string `json:"reason,omitempty"`
}

// Decode validates and unmarshals a payload into conversations. It accepts
// a single conversation (strict or loose shape) or a non-empty array whose
// elements each satisfy the strict or loose predicate. These are the same
// predicates detection uses, so anything detected as Claude also decodes.
// A single conversation comes back as a one-element slice.
func Decode(p *payload.Payload) ([]Conversation, error) {
	raw, err := p.JSON()
	if err != nil {
		return nil, err
	}

	switch v := p.Value.(type) {
	case map[string]any:
		if !detect.IsClaudeConversation(v) && !detect.IsClaudeConversationLoose(v) {
			return nil, ErrInvalidFormat
		}
		var c Conversation
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("decode conversation: %w", err)
		}
		return []Conversation{c}, nil
	case []any:
		if len(v) == 0 {
			return nil, ErrInvalidFormat
		}
		for _, el := range v {
			if !detect.IsClaudeConversation(el) && !detect.IsClaudeConversationLoose(el) {
				return nil, ErrInvalidFormat
			}
		}
		var cs []Conversation
		if err := json.Unmarshal(raw, &cs); err != nil {
			return nil, fmt.Errorf("decode conversations: %w", err)
		}
		return cs, nil
	}
	return nil, ErrInvalidFormat
}

// Normalize converts one exported conversation to the shared model.
// Messages re-sort ascending by creation time; the sort is stable so ties
// keep their source order. Messages whose timestamp fails to parse get a
// zero time and therefore sort first.
func Normalize(c Conversation) convo.Conversation {
	out := convo.Conversation{
		ID:        c.UUID,
		Title:     c.Name,
		Source:    "claude",
		CreatedAt: parseTimestamp(c.CreatedAt),
		UpdatedAt: parseTimestamp(c.UpdatedAt),
	}

	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	sort.SliceStable(msgs, func(i, j int) bool {
		return parseTimestamp(msgs[i].CreatedAt).Before(parseTimestamp(msgs[j].CreatedAt))
	})

	for _, m := range msgs {
		ts := parseTimestamp(m.CreatedAt)
		role := convo.RoleAssistant
		if m.Sender == "human" {
			role = convo.RoleHuman
		}

		// Thinking blocks surface as their own entry ahead of the reply.
		if think := joinBlocks(m.Content, "thinking"); think != "" {
			out.Messages = append(out.Messages, convo.Message{
				ID:   m.UUID,
				Role: role,
				Kind: "thinking",
				Text: think,
				Time: ts,
			})
		}

		text := strings.TrimSpace(m.Text)
		if text == "" {
			text = joinBlocks(m.Content, "text")
		}
		if text == "" {
			continue
		}
		out.Messages = append(out.Messages, convo.Message{
			ID:   m.UUID,
			Role: role,
			Kind: "text",
			Text: text,
			Time: ts,
		})
	}
	return out
}

func joinBlocks(blocks []ContentBlock, kind string) string {
	var parts []string
	for _, b := range blocks {
		if b.Type == kind && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
