package detect

import (
	"encoding/json"
	"testing"
)

func parse(t *testing.T, s string) any {
	t.Helper()
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		t.Fatalf("bad test payload: %v", err)
	}
	return v
}

const claudeStrict = `{"uuid":"u1","name":"Test","chat_messages":[{"uuid":"m1","text":"hi","sender":"human"}]}`

const claudeLoose = `{"uuid":"u2","name":"Loose","created_at":"2024-01-01T00:00:00Z","updated_at":"2024-01-02T00:00:00Z","chat_messages":[{"uuid":"m1","sender":"human","text":"hi","created_at":"2024-01-01T00:00:00Z"}]}`

const chatgptStrict = `{"title":"T","create_time":1.0,"update_time":2.0,"mapping":{"a":{"id":"a","message":null,"parent":null,"children":["b"]},"b":{"id":"b","message":{"id":"m1","author":{"role":"user"},"create_time":5,"content":{"content_type":"text","parts":["hello"]},"status":"finished_successfully","weight":1,"recipient":"all"},"parent":"a","children":[]}}}`

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		filename string
		want     Kind
	}{
		{"claude strict single", claudeStrict, "export.json", KindClaude},
		{"claude loose single", claudeLoose, "export.json", KindClaude},
		{"claude array strict", `[` + claudeStrict + `]`, "export.json", KindClaude},
		{"claude array mixed strict and loose", `[` + claudeStrict + `,` + claudeLoose + `]`, "export.json", KindClaude},
		{"claude array with empty messages via loose", `[{"uuid":"u3","name":"","created_at":"2024-01-01","updated_at":"2024-01-01","chat_messages":[]}]`, "export.json", KindClaude},
		{"chatgpt strict single", chatgptStrict, "export.json", KindChatGPT},
		{"chatgpt array", `[` + chatgptStrict + `]`, "export.json", KindChatGPT},
		{"chatgpt integer times", `{"title":"T","create_time":1,"update_time":2,"mapping":{}}`, "export.json", KindChatGPT},
		{"structural match beats filename hint", claudeLoose, "chatgpt-export.json", KindClaude},
		{"filename hint chatgpt", `{"foo":"bar"}`, "chatgpt-export.json", KindChatGPT},
		{"filename hint conversation", `{"foo":"bar"}`, "conversations.json", KindChatGPT},
		{"conversation with claude is not a chatgpt hint", `{"foo":"bar"}`, "claude-conversations.json", KindGenericJSON},
		{"filename hint cloudwatch", `{"foo":"bar"}`, "cloudwatch-2024.json", KindCloudWatch},
		{"filename hint log", `{"foo":"bar"}`, "app-log.json", KindCloudWatch},
		{"empty object is generic", `{}`, "random.json", KindGenericJSON},
		{"unmatched array is generic", `[1,2,3]`, "random.json", KindGenericJSON},
		{"yaml filename falls back to generic-yaml", `{}`, "random.yaml", KindGenericYAML},
		{"scalar is unknown", `42`, "random.json", KindUnknown},
		{"string is unknown", `"hello"`, "random.json", KindUnknown},
		{"null is unknown", `null`, "random.json", KindUnknown},
		{"empty array is generic", `[]`, "random.json", KindGenericJSON},
		{"chatgpt mapping must be object", `{"title":"T","create_time":1,"update_time":2,"mapping":[]}`, "random.json", KindGenericJSON},
		{"claude empty chat_messages fails strict single", `{"uuid":"u1","name":"N","chat_messages":[]}`, "random.json", KindGenericJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Detect(parse(t, tt.payload), tt.filename)
			if got != tt.want {
				t.Errorf("Detect() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRecordCount(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		kind    Kind
		want    int
		wantOK  bool
	}{
		{"claude single counts messages", claudeStrict, KindClaude, 1, true},
		{"claude array sums messages", `[` + claudeStrict + `,` + claudeLoose + `]`, KindClaude, 2, true},
		// ChatGPT counts raw mapping nodes, not displayed messages:
		// the root node with a nil message is included.
		{"chatgpt single counts mapping keys", chatgptStrict, KindChatGPT, 2, true},
		{"chatgpt array sums mapping keys", `[` + chatgptStrict + `,` + chatgptStrict + `]`, KindChatGPT, 4, true},
		{"generic object has no count", `{}`, KindGenericJSON, 0, false},
		{"generic array counts elements", `[1,2,3]`, KindGenericJSON, 3, true},
		{"unknown scalar has no count", `42`, KindUnknown, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RecordCount(parse(t, tt.payload), tt.kind)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("RecordCount() = (%d, %v), want (%d, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestDetectScenario(t *testing.T) {
	v := parse(t, claudeStrict)
	if got := Detect(v, "data.json"); got != KindClaude {
		t.Fatalf("kind = %s, want %s", got, KindClaude)
	}
	n, ok := RecordCount(v, KindClaude)
	if !ok || n != 1 {
		t.Fatalf("record count = (%d, %v), want (1, true)", n, ok)
	}
}
