package chatgpt

import (
	"errors"
	"reflect"
	"testing"

	"github.com/mkarpel/convoview/internal/convo"
	"github.com/mkarpel/convoview/internal/payload"
)

func load(t *testing.T, doc string) *payload.Payload {
	t.Helper()
	p, err := payload.Parse([]byte(doc), "conversations.json")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return p
}

const singleDoc = `{
	"title": "T",
	"create_time": 1.0,
	"update_time": 2.0,
	"mapping": {
		"a": {"id": "a", "message": null, "parent": null, "children": ["b"]},
		"b": {"id": "b", "message": {"id": "m1", "author": {"role": "user"}, "create_time": 5,
			"content": {"content_type": "text", "parts": ["hello"]},
			"status": "finished_successfully", "weight": 1, "recipient": "all"},
			"parent": "a", "children": []}
	}
}`

func TestDecodeSingle(t *testing.T) {
	cs, err := Decode(load(t, singleDoc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(cs) != 1 {
		t.Fatalf("got %d conversations, want 1", len(cs))
	}
	c := cs[0]
	if c.Title != "T" || c.CreateTime != 1.0 || c.UpdateTime != 2.0 {
		t.Errorf("conversation fields changed: %+v", c)
	}
	if len(c.Mapping) != 2 {
		t.Fatalf("got %d mapping nodes, want 2", len(c.Mapping))
	}
	if c.Mapping["a"].Message != nil {
		t.Error("structural root should carry no message")
	}
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty object", `{}`},
		{"empty array", `[]`},
		{"scalar", `"hi"`},
		{"mapping is array", `{"title":"T","create_time":1,"update_time":2,"mapping":[]}`},
		{"array with bad element", `[` + singleDoc + `, {"nope": true}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(load(t, tt.doc))
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("err = %v, want ErrInvalidFormat", err)
			}
		})
	}
}

func TestExtractMessagesScenario(t *testing.T) {
	cs, err := Decode(load(t, singleDoc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	msgs := ExtractMessages(cs[0])
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	if msgs[0].ID != "m1" || msgs[0].Role != convo.RoleHuman || msgs[0].Text != "hello" {
		t.Errorf("flattened message wrong: %+v", msgs[0])
	}
}

func f(v float64) *float64 { return &v }

func msgNode(id string, role string, createTime *float64, parts ...any) MappingNode {
	return MappingNode{
		ID: id,
		Message: &Message{
			ID:         id,
			Author:     Author{Role: role},
			CreateTime: createTime,
			Content:    &Content{ContentType: "text", Parts: parts},
		},
	}
}

func TestExtractMessagesFiltering(t *testing.T) {
	c := Conversation{
		ID: "c1",
		Mapping: map[string]MappingNode{
			"root":       {ID: "root"},
			"system":     msgNode("system", "system", f(1), "you are a model"),
			"empty":      msgNode("empty", "user", f(2)),
			"blank":      msgNode("blank", "user", f(3), "   ", "\t\n"),
			"nullparts":  msgNode("nullparts", "user", f(4), nil, nil),
			"survivor":   msgNode("survivor", "assistant", f(5), "kept"),
			"mixedparts": msgNode("mixedparts", "user", f(6), nil, "  ", "also kept"),
		},
	}
	msgs := ExtractMessages(c)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2: %+v", len(msgs), msgs)
	}
	if msgs[0].ID != "survivor" || msgs[1].ID != "mixedparts" {
		t.Errorf("wrong survivors: %+v", msgs)
	}
	if msgs[1].Text != "also kept" {
		t.Errorf("null/blank parts leaked into text: %q", msgs[1].Text)
	}
}

func TestExtractMessagesOrdering(t *testing.T) {
	c := Conversation{
		ID: "c1",
		Mapping: map[string]MappingNode{
			"n3": msgNode("late", "user", f(30), "late"),
			"n1": msgNode("early", "user", f(10), "early"),
			"n2": msgNode("mid", "assistant", f(20), "mid"),
			"n0": msgNode("untimed", "user", nil, "no clock"),
		},
	}
	msgs := ExtractMessages(c)
	wantOrder := []string{"untimed", "early", "mid", "late"}
	if len(msgs) != len(wantOrder) {
		t.Fatalf("got %d messages, want %d", len(msgs), len(wantOrder))
	}
	for i, id := range wantOrder {
		if msgs[i].ID != id {
			t.Errorf("message %d = %s, want %s", i, msgs[i].ID, id)
		}
	}
	// ascending with null-first: adjacent pairs never go backwards
	for i := 1; i < len(msgs); i++ {
		a, b := msgs[i-1], msgs[i]
		if a.Time.IsZero() || b.Time.IsZero() {
			continue
		}
		if a.Time.After(b.Time) {
			t.Errorf("messages %d and %d out of order: %v > %v", i-1, i, a.Time, b.Time)
		}
	}
}

func TestExtractMessagesNullTimesDeterministic(t *testing.T) {
	c := Conversation{
		ID: "c1",
		Mapping: map[string]MappingNode{
			"kb": msgNode("b", "user", nil, "b"),
			"ka": msgNode("a", "user", nil, "a"),
			"kc": msgNode("c", "user", nil, "c"),
		},
	}
	first := ExtractMessages(c)
	// both-null ordering follows mapping key order, every run
	wantOrder := []string{"a", "b", "c"}
	for i, id := range wantOrder {
		if first[i].ID != id {
			t.Fatalf("message %d = %s, want %s", i, first[i].ID, id)
		}
	}
	for i := 0; i < 10; i++ {
		if got := ExtractMessages(c); !reflect.DeepEqual(got, first) {
			t.Fatal("flattening is not deterministic across runs")
		}
	}
}

func TestExtractMessagesIdempotentSort(t *testing.T) {
	c := Conversation{
		ID: "c1",
		Mapping: map[string]MappingNode{
			"n1": msgNode("x", "user", nil, "x"),
			"n2": msgNode("y", "user", f(1), "y"),
			"n3": msgNode("z", "user", f(2), "z"),
		},
	}
	once := ExtractMessages(c)
	twice := ExtractMessages(c)
	if !reflect.DeepEqual(once, twice) {
		t.Error("re-flattening an unchanged conversation changed the order")
	}
}

func TestExtractMessagesIncludesOrphans(t *testing.T) {
	// nodes with dangling parents are still flattened: traversal never
	// follows parent links
	dangling := "ghost"
	node := msgNode("orphan", "user", f(1), "still here")
	node.Parent = &dangling
	c := Conversation{ID: "c1", Mapping: map[string]MappingNode{"o": node}}
	msgs := ExtractMessages(c)
	if len(msgs) != 1 || msgs[0].ID != "orphan" {
		t.Errorf("orphan node dropped: %+v", msgs)
	}
}

func TestNormalize(t *testing.T) {
	cs, err := Decode(load(t, singleDoc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	out := Normalize(cs[0])
	if out.Title != "T" || out.Source != "chatgpt" {
		t.Errorf("normalized header wrong: %+v", out)
	}
	if out.CreatedAt.Unix() != 1 || out.UpdatedAt.Unix() != 2 {
		t.Errorf("timestamps wrong: %v %v", out.CreatedAt, out.UpdatedAt)
	}
	if len(out.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(out.Messages))
	}
}

func TestSoftDeleted(t *testing.T) {
	c := Conversation{ID: "c1", Title: ""}
	if !c.SoftDeleted() {
		t.Error("empty title should mark the conversation soft-deleted")
	}
}
