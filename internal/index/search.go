package index

import (
	"fmt"
	"strings"
	"unicode"
)

// Result is one search hit or listing row. MsgIdx is the position of the
// hit message within the conversation's normalized timeline, or -1 for
// listing rows with no specific hit.
type Result struct {
	ConvID    string
	MsgIdx    int
	Title     string
	Source    string
	UpdatedAt string
	MsgCount  int
	Snippet   string
	Role      string
	Rank      float64
}

type Options struct {
	Query       string
	Source      string // "" = all, "claude", "chatgpt"
	Role        string // "" = all, "human", "assistant"
	ShowDeleted bool
	Limit       int
}

// containsCJK returns true if the string contains any CJK Unified Ideograph.
func containsCJK(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Han, r) {
			return true
		}
	}
	return false
}

// makeSnippet extracts a snippet around the first occurrence of query in text.
func makeSnippet(text, query string, contextChars int) string {
	lower := strings.ToLower(text)
	qLower := strings.ToLower(query)
	idx := strings.Index(lower, qLower)
	if idx < 0 {
		// no match, return head
		if len([]rune(text)) > contextChars*2 {
			return string([]rune(text)[:contextChars*2]) + "..."
		}
		return text
	}
	runes := []rune(text)
	qRunes := []rune(query)
	runePos := len([]rune(text[:idx]))
	start := runePos - contextChars
	if start < 0 {
		start = 0
	}
	end := runePos + len(qRunes) + contextChars
	if end > len(runes) {
		end = len(runes)
	}
	prefix := ""
	suffix := ""
	if start > 0 {
		prefix = "..."
	}
	if end < len(runes) {
		suffix = "..."
	}
	// wrap the matched part with markers
	snippet := string(runes[start:runePos]) +
		">>>" + string(runes[runePos:runePos+len(qRunes)]) + "<<<" +
		string(runes[runePos+len(qRunes):end])
	return prefix + snippet + suffix
}

// Search runs a full-text query, keeping the best-ranked hit per
// conversation. CJK queries fall back to LIKE because the unicode61
// tokenizer cannot split ideographs.
func (d *DB) Search(opts Options) ([]Result, error) {
	if opts.Limit <= 0 {
		opts.Limit = 100
	}

	// Fetch more results before dedup so we still have enough after
	origLimit := opts.Limit
	opts.Limit = origLimit * 3

	var results []Result
	var err error
	if containsCJK(opts.Query) {
		results, err = d.searchLike(opts)
	} else {
		results, err = d.searchFTS(opts)
	}
	if err != nil {
		return nil, err
	}

	// Deduplicate: keep only the best-ranked result per conversation
	seen := make(map[string]bool)
	var deduped []Result
	for _, r := range results {
		if seen[r.ConvID] {
			continue
		}
		seen[r.ConvID] = true
		deduped = append(deduped, r)
		if len(deduped) >= origLimit {
			break
		}
	}
	return deduped, nil
}

func (d *DB) searchFTS(opts Options) ([]Result, error) {
	conditions := []string{"messages_fts MATCH ?"}
	args := []any{opts.Query}
	conditions, args = appendFilters(conditions, args, opts)

	query := fmt.Sprintf(`
		SELECT
			m.conv_id,
			m.msg_idx,
			c.title,
			c.source,
			c.updated_at,
			c.msg_count,
			snippet(messages_fts, 0, '>>>', '<<<', '...', 40) as snip,
			m.role,
			bm25(messages_fts, 1.0) as rank
		FROM messages_fts
		JOIN messages m ON messages_fts.rowid = m.rowid
		JOIN conversations c ON m.conv_id = c.conv_id
		WHERE %s
		ORDER BY rank
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		if err := rows.Scan(
			&r.ConvID, &r.MsgIdx, &r.Title, &r.Source,
			&r.UpdatedAt, &r.MsgCount, &r.Snippet, &r.Role, &r.Rank,
		); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (d *DB) searchLike(opts Options) ([]Result, error) {
	conditions := []string{"m.text LIKE ?"}
	args := []any{"%" + opts.Query + "%"}
	conditions, args = appendFilters(conditions, args, opts)

	query := fmt.Sprintf(`
		SELECT
			m.conv_id,
			m.msg_idx,
			c.title,
			c.source,
			c.updated_at,
			c.msg_count,
			m.text,
			m.role
		FROM messages m
		JOIN conversations c ON m.conv_id = c.conv_id
		WHERE %s
		ORDER BY c.updated_at DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, opts.Limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var fullText string
		if err := rows.Scan(
			&r.ConvID, &r.MsgIdx, &r.Title, &r.Source,
			&r.UpdatedAt, &r.MsgCount, &fullText, &r.Role,
		); err != nil {
			return nil, err
		}
		r.Snippet = makeSnippet(fullText, opts.Query, 30)
		results = append(results, r)
	}
	return results, rows.Err()
}

func appendFilters(conditions []string, args []any, opts Options) ([]string, []any) {
	if opts.Source != "" {
		conditions = append(conditions, "c.source = ?")
		args = append(args, opts.Source)
	}
	if opts.Role != "" {
		conditions = append(conditions, "m.role = ?")
		args = append(args, opts.Role)
	}
	if !opts.ShowDeleted {
		conditions = append(conditions, "c.deleted = 0")
	}
	return conditions, args
}

// List returns one row per conversation, newest first, optionally
// filtered by a title substring.
func (d *DB) List(opts Options) ([]Result, error) {
	conditions := []string{"1=1"}
	var args []any
	if opts.Query != "" {
		conditions = append(conditions, "c.title LIKE ?")
		args = append(args, "%"+opts.Query+"%")
	}
	if opts.Source != "" {
		conditions = append(conditions, "c.source = ?")
		args = append(args, opts.Source)
	}
	if !opts.ShowDeleted {
		conditions = append(conditions, "c.deleted = 0")
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 1000
	}

	query := fmt.Sprintf(`
		SELECT
			c.conv_id,
			c.title,
			c.source,
			c.updated_at,
			c.msg_count,
			COALESCE((SELECT m.text FROM messages m WHERE m.conv_id = c.conv_id ORDER BY m.msg_idx LIMIT 1), '')
		FROM conversations c
		WHERE %s
		ORDER BY c.updated_at DESC
		LIMIT ?
	`, strings.Join(conditions, " AND "))

	args = append(args, limit)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var head string
		if err := rows.Scan(&r.ConvID, &r.Title, &r.Source, &r.UpdatedAt, &r.MsgCount, &head); err != nil {
			return nil, err
		}
		r.MsgIdx = -1
		if rs := []rune(head); len(rs) > 80 {
			head = string(rs[:80]) + "..."
		}
		r.Snippet = strings.ReplaceAll(head, "\n", " ")
		results = append(results, r)
	}
	return results, rows.Err()
}
