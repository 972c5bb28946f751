// Package detect guesses which export schema a parsed payload carries.
// Detection is advisory and total: it never fails, it only picks the most
// specific matching kind. Strict validation lives with the typed decoders
// in the claude and chatgpt packages, which reuse the predicates here.
package detect

import "strings"

// Kind labels the recognized payload schemas.
type Kind string

const (
	KindClaude      Kind = "claude-conversation"
	KindChatGPT     Kind = "chatgpt-conversation"
	KindCloudWatch  Kind = "cloudwatch-logs"
	KindGenericJSON Kind = "generic-json"
	KindGenericYAML Kind = "generic-yaml"
	KindUnknown     Kind = "unknown"
)

// rule pairs a structural predicate with the kind it proves. Rules are
// evaluated in order and the first match wins; specificity must come
// before the generic fallbacks because the signatures overlap.
type rule struct {
	match func(v any, filename string) bool
	kind  Kind
}

var rules = []rule{
	{func(v any, _ string) bool { return IsClaudeConversation(v) }, KindClaude},
	{func(v any, _ string) bool { return isClaudeArray(v) }, KindClaude},
	{func(v any, _ string) bool { return IsClaudeConversationLoose(v) }, KindClaude},
	{func(v any, _ string) bool { return IsChatGPTConversation(v) }, KindChatGPT},
	{func(v any, _ string) bool { return isChatGPTArray(v) }, KindChatGPT},
	{func(_ any, fn string) bool { return hintsChatGPT(fn) }, KindChatGPT},
	{func(_ any, fn string) bool { return hintsCloudWatch(fn) }, KindCloudWatch},
}

// Detect classifies a parsed value. Structural checks run before filename
// hints because filenames are unreliable; the hints exist only as a last
// resort before the generic bucket.
func Detect(v any, filename string) Kind {
	if !isMap(v) && !isSlice(v) {
		return KindUnknown
	}
	for _, r := range rules {
		if r.match(v, filename) {
			return r.kind
		}
	}
	if isYAMLName(filename) {
		return KindGenericYAML
	}
	return KindGenericJSON
}

// IsClaudeConversation is the strict single-conversation predicate: string
// uuid, string name, and a non-empty chat_messages array whose every
// element carries uuid, text and sender keys.
func IsClaudeConversation(v any) bool {
	obj, ok := v.(map[string]any)
	if !ok {
		return false
	}
	if !isString(obj["uuid"]) || !isString(obj["name"]) {
		return false
	}
	msgs, ok := obj["chat_messages"].([]any)
	if !ok || len(msgs) == 0 {
		return false
	}
	for _, m := range msgs {
		mm, ok := m.(map[string]any)
		if !ok {
			return false
		}
		if !hasKeys(mm, "uuid", "text", "sender") {
			return false
		}
	}
	return true
}

// IsClaudeConversationLoose matches conversations by key shape alone. The
// first chat message is inspected only when one exists, so conversations
// exported with an empty message list still match inside arrays.
func IsClaudeConversationLoose(v any) bool {
	obj, ok := v.(map[string]any)
	if !ok {
		return false
	}
	if !hasKeys(obj, "chat_messages", "uuid", "name", "created_at", "updated_at") {
		return false
	}
	msgs, ok := obj["chat_messages"].([]any)
	if !ok {
		return false
	}
	if len(msgs) == 0 {
		return true
	}
	first, ok := msgs[0].(map[string]any)
	if !ok {
		return false
	}
	return hasKeys(first, "uuid", "sender", "text", "created_at")
}

func isClaudeArray(v any) bool {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return false
	}
	for _, el := range arr {
		if !IsClaudeConversation(el) && !IsClaudeConversationLoose(el) {
			return false
		}
	}
	return true
}

// IsChatGPTConversation is the strict ChatGPT predicate: string title,
// numeric create_time and update_time, and a mapping object.
func IsChatGPTConversation(v any) bool {
	obj, ok := v.(map[string]any)
	if !ok {
		return false
	}
	if !isString(obj["title"]) || !isNumber(obj["create_time"]) || !isNumber(obj["update_time"]) {
		return false
	}
	_, ok = obj["mapping"].(map[string]any)
	return ok
}

func isChatGPTArray(v any) bool {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return false
	}
	for _, el := range arr {
		if !IsChatGPTConversation(el) {
			return false
		}
	}
	return true
}

func hintsChatGPT(filename string) bool {
	fn := strings.ToLower(filename)
	if strings.Contains(fn, "chatgpt") {
		return true
	}
	return strings.Contains(fn, "conversation") && !strings.Contains(fn, "claude")
}

func hintsCloudWatch(filename string) bool {
	fn := strings.ToLower(filename)
	return strings.Contains(fn, "cloudwatch") || strings.Contains(fn, "log")
}

func isYAMLName(filename string) bool {
	fn := strings.ToLower(filename)
	return strings.HasSuffix(fn, ".yaml") || strings.HasSuffix(fn, ".yml")
}

func isMap(v any) bool {
	_, ok := v.(map[string]any)
	return ok
}

func isSlice(v any) bool {
	_, ok := v.([]any)
	return ok
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

// isNumber accepts the numeric types both decoders produce: encoding/json
// yields float64, yaml.v3 yields int or float64 depending on the scalar.
func isNumber(v any) bool {
	switch v.(type) {
	case float64, float32, int, int64, uint64:
		return true
	}
	return false
}

func hasKeys(m map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return false
		}
	}
	return true
}
