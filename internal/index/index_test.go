package index

import (
	"strings"
	"testing"
	"time"

	"github.com/mkarpel/convoview/internal/convo"
)

func testConv(id, title, source string, updated time.Time, texts ...string) convo.Conversation {
	c := convo.Conversation{
		ID:        id,
		Title:     title,
		Source:    source,
		CreatedAt: updated.Add(-time.Hour),
		UpdatedAt: updated,
	}
	for i, txt := range texts {
		role := convo.RoleHuman
		if i%2 == 1 {
			role = convo.RoleAssistant
		}
		c.Messages = append(c.Messages, convo.Message{
			ID:   id + "-m" + string(rune('a'+i)),
			Role: role,
			Kind: "text",
			Text: txt,
			Time: updated.Add(time.Duration(i) * time.Minute),
		})
	}
	return c
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open()
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAddAndCount(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := db.AddAll([]convo.Conversation{
		testConv("c1", "first", "claude", base, "hello world", "hi there"),
		testConv("c2", "second", "chatgpt", base.Add(time.Hour), "unrelated"),
	}); err != nil {
		t.Fatalf("AddAll: %v", err)
	}
	n, err := db.ConversationCount()
	if err != nil || n != 2 {
		t.Errorf("count = (%d, %v), want 2", n, err)
	}
}

func TestAddReplaces(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	c := testConv("c1", "first", "claude", base, "hello")
	if err := db.Add(c); err != nil {
		t.Fatal(err)
	}
	c.Title = "renamed"
	if err := db.Add(c); err != nil {
		t.Fatal(err)
	}
	n, _ := db.ConversationCount()
	if n != 1 {
		t.Errorf("count = %d, want 1 after re-add", n)
	}
	rows, err := db.List(Options{})
	if err != nil || len(rows) != 1 || rows[0].Title != "renamed" {
		t.Errorf("List after re-add = %+v, %v", rows, err)
	}
}

func TestSearch(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := db.AddAll([]convo.Conversation{
		testConv("c1", "build fixes", "claude", base, "the compiler crashed", "try rebuilding"),
		testConv("c2", "lunch plans", "chatgpt", base, "where should we eat"),
	}); err != nil {
		t.Fatal(err)
	}

	results, err := db.Search(Options{Query: "compiler"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1: %+v", len(results), results)
	}
	r := results[0]
	if r.ConvID != "c1" || r.MsgIdx != 0 || r.Role != "human" {
		t.Errorf("hit wrong: %+v", r)
	}
	if !strings.Contains(r.Snippet, ">>>") {
		t.Errorf("snippet not marked: %q", r.Snippet)
	}
}

func TestSearchDedupsPerConversation(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := db.Add(testConv("c1", "t", "claude", base,
		"compiler error one", "compiler error two", "compiler error three")); err != nil {
		t.Fatal(err)
	}
	results, err := db.Search(Options{Query: "compiler"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1 per conversation", len(results))
	}
}

func TestSearchFilters(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := db.AddAll([]convo.Conversation{
		testConv("c1", "claude convo", "claude", base, "needle in claude"),
		testConv("c2", "gpt convo", "chatgpt", base, "needle in chatgpt"),
	}); err != nil {
		t.Fatal(err)
	}

	results, err := db.Search(Options{Query: "needle", Source: "chatgpt"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ConvID != "c2" {
		t.Errorf("source filter failed: %+v", results)
	}

	results, err = db.Search(Options{Query: "needle", Role: "assistant"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 0 {
		t.Errorf("role filter failed: %+v", results)
	}
}

func TestSearchHidesSoftDeleted(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := db.AddAll([]convo.Conversation{
		testConv("c1", "", "claude", base, "hidden needle"),
		testConv("c2", "kept", "claude", base, "visible needle"),
	}); err != nil {
		t.Fatal(err)
	}

	results, err := db.Search(Options{Query: "needle"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].ConvID != "c2" {
		t.Errorf("soft-deleted conversation leaked: %+v", results)
	}

	results, err = db.Search(Options{Query: "needle", ShowDeleted: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("ShowDeleted should include both: %+v", results)
	}
}

func TestSearchCJKFallsBackToLike(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := db.Add(testConv("c1", "t", "claude", base, "修复构建问题")); err != nil {
		t.Fatal(err)
	}
	results, err := db.Search(Options{Query: "构建"})
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 {
		t.Fatalf("CJK search found %d results, want 1", len(results))
	}
	if !strings.Contains(results[0].Snippet, ">>>构建<<<") {
		t.Errorf("CJK snippet not marked: %q", results[0].Snippet)
	}
}

func TestListNewestFirst(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := db.AddAll([]convo.Conversation{
		testConv("old", "old convo", "claude", base, "a"),
		testConv("new", "new convo", "claude", base.Add(2*time.Hour), "b"),
	}); err != nil {
		t.Fatal(err)
	}
	rows, err := db.List(Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[0].ConvID != "new" || rows[1].ConvID != "old" {
		t.Errorf("list order wrong: %+v", rows)
	}
	if rows[0].MsgIdx != -1 {
		t.Errorf("listing rows carry no hit index: %+v", rows[0])
	}
}

func TestListTitleFilter(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := db.AddAll([]convo.Conversation{
		testConv("c1", "database migration", "claude", base, "a"),
		testConv("c2", "frontend tweaks", "claude", base, "b"),
	}); err != nil {
		t.Fatal(err)
	}
	rows, err := db.List(Options{Query: "migration"})
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ConvID != "c1" {
		t.Errorf("title filter failed: %+v", rows)
	}
}

func TestMakeSnippet(t *testing.T) {
	long := strings.Repeat("x", 100) + "needle" + strings.Repeat("y", 100)
	s := makeSnippet(long, "needle", 10)
	if !strings.HasPrefix(s, "...") || !strings.HasSuffix(s, "...") {
		t.Errorf("snippet not elided: %q", s)
	}
	if !strings.Contains(s, ">>>needle<<<") {
		t.Errorf("match not marked: %q", s)
	}
}
