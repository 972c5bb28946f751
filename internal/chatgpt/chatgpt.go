// Package chatgpt decodes ChatGPT conversation exports and flattens their
// parent/child mapping into a chronological message sequence. The mapping
// encodes a branch tree, but flattening never walks parent links: it visits
// the node set directly and lets the final timestamp sort establish order.
// Orphaned nodes are therefore still included; that matches the upstream
// viewer and keeps the walk bounded by the node count.
package chatgpt

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/mkarpel/convoview/internal/convo"
	"github.com/mkarpel/convoview/internal/detect"
	"github.com/mkarpel/convoview/internal/payload"
)

// ErrInvalidFormat reports a payload that matches neither the single
// conversation shape nor an array of conversations.
var ErrInvalidFormat = errors.New("invalid ChatGPT conversation format")

// Conversation mirrors one conversation in a ChatGPT export. Timestamps
// are Unix epoch seconds. An empty title marks a soft-deleted conversation
// by convention.
type Conversation struct {
	ID         string                 `json:"id"`
	Title      string                 `json:"title"`
	CreateTime float64                `json:"create_time"`
	UpdateTime float64                `json:"update_time"`
	Mapping    map[string]MappingNode `json:"mapping"`
}

func (c *Conversation) SoftDeleted() bool { return c.Title == "" }

// MappingNode is one entry of the mapping tree. Purely structural nodes,
// such as the synthetic root, carry no message.
type MappingNode struct {
	ID       string   `json:"id"`
	Message  *Message `json:"message"`
	Parent   *string  `json:"parent"`
	Children []string `json:"children"`
}

// Message is the message embedded in a mapping node. A nil CreateTime
// means the timestamp is unknown; such messages sort before all others.
type Message struct {
	ID         string          `json:"id"`
	Author     Author          `json:"author"`
	CreateTime *float64        `json:"create_time"`
	Content    *Content        `json:"content"`
	Status     string          `json:"status,omitempty"`
	Weight     float64         `json:"weight,omitempty"`
	Recipient  string          `json:"recipient,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
}

// Author identifies the message sender.
type Author struct {
	Role string `json:"role"` // "user", "assistant" or "system"
	Name string `json:"name,omitempty"`
}

// Content holds the message body fragments. Parts may contain nulls and
// non-string values; only non-empty strings count as displayable text.
type Content struct {
	ContentType string `json:"content_type,omitempty"`
	Parts       []any  `json:"parts"`
}

// Decode validates and unmarshals a payload into conversations, using the
// same strict predicate as detection. A single conversation comes back as
// a one-element slice.
func Decode(p *payload.Payload) ([]Conversation, error) {
	raw, err := p.JSON()
	if err != nil {
		return nil, err
	}

	switch v := p.Value.(type) {
	case map[string]any:
		if !detect.IsChatGPTConversation(v) {
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
			if !detect.IsChatGPTConversation(el) {
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

// ExtractMessages flattens the mapping into a chronologically ordered,
// deduplicated display sequence. Nodes are dropped when they carry no
// message, when the author is the system, or when no content part survives
// trimming. Nodes are visited in sorted key order and the timestamp sort
// is stable, so messages with equal (or missing) timestamps keep a
// deterministic order across runs.
func ExtractMessages(c Conversation) []convo.Message {
	keys := make([]string, 0, len(c.Mapping))
	for k := range c.Mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	type entry struct {
		msg  convo.Message
		when float64 // math.Inf(-1) when create_time is null
	}
	var entries []entry

	for _, k := range keys {
		node := c.Mapping[k]
		m := node.Message
		if m == nil || m.Author.Role == "system" {
			continue
		}
		text := displayText(m.Content)
		if text == "" {
			continue
		}

		role := convo.RoleAssistant
		if m.Author.Role == "user" {
			role = convo.RoleHuman
		}
		when := math.Inf(-1)
		var ts time.Time
		if m.CreateTime != nil {
			when = *m.CreateTime
			ts = epochToTime(*m.CreateTime)
		}
		entries = append(entries, entry{
			msg:  convo.Message{ID: m.ID, Role: role, Kind: "text", Text: text, Time: ts},
			when: when,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].when < entries[j].when
	})

	out := make([]convo.Message, len(entries))
	for i, e := range entries {
		out[i] = e.msg
	}
	return out
}

// Normalize converts one exported conversation to the shared model.
func Normalize(c Conversation) convo.Conversation {
	return convo.Conversation{
		ID:        c.ID,
		Title:     c.Title,
		Source:    "chatgpt",
		CreatedAt: epochToTime(c.CreateTime),
		UpdatedAt: epochToTime(c.UpdateTime),
		Messages:  ExtractMessages(c),
	}
}

// displayText joins the content parts that are non-empty strings after
// trimming. Null parts and non-string fragments (image pointers and the
// like) are skipped.
func displayText(c *Content) string {
	if c == nil {
		return ""
	}
	var parts []string
	for _, p := range c.Parts {
		s, ok := p.(string)
		if !ok {
			continue
		}
		if strings.TrimSpace(s) == "" {
			continue
		}
		parts = append(parts, s)
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

func epochToTime(sec float64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	whole := math.Floor(sec)
	return time.Unix(int64(whole), int64((sec-whole)*1e9)).UTC()
}
