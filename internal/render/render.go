package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"

	"github.com/mkarpel/convoview/internal/convo"
)

const (
	colorReset   = "\033[0m"
	colorHuman   = "\033[1;34m" // bold blue
	colorAssist  = "\033[1;32m" // bold green
	colorThink   = "\033[2;35m" // dim magenta for thinking
	colorDim     = "\033[2m"
	colorHit     = "\033[43m"   // yellow background
	colorBoldRed = "\033[1;31m" // bold red for keyword highlights
)

type Options struct {
	HitIndex     int    // message index to highlight, -1 for none
	Context      int    // messages before/after hit to show (<0 = all)
	Width        int    // wrap width (0 = no wrap)
	Query        string // search query for keyword highlighting
	ShowThinking bool
}

// highlightKeywords wraps case-insensitive matches of query terms in bold red ANSI codes.
func highlightKeywords(text, query string) string {
	if query == "" {
		return text
	}
	terms := strings.Fields(query)
	for _, term := range terms {
		lower := strings.ToLower(term)
		i := 0
		for i < len(text) {
			idx := strings.Index(strings.ToLower(text[i:]), lower)
			if idx < 0 {
				break
			}
			pos := i + idx
			orig := text[pos : pos+len(term)]
			replacement := colorBoldRed + orig + colorReset
			text = text[:pos] + replacement + text[pos+len(term):]
			i = pos + len(replacement)
		}
	}
	return text
}

// indentLines prepends each line of text with the given prefix.
func indentLines(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

// wrapLine breaks a single line into multiple lines that fit within maxWidth
// visible columns, correctly skipping ANSI escape sequences when measuring width.
func wrapLine(line string, maxWidth int) []string {
	if maxWidth <= 0 {
		return []string{line}
	}

	var result []string
	var cur strings.Builder
	visW := 0

	i := 0
	for i < len(line) {
		// check for ANSI escape sequence: ESC[ ... m
		if i+1 < len(line) && line[i] == '\033' && line[i+1] == '[' {
			j := i + 2
			for j < len(line) && line[j] != 'm' {
				j++
			}
			if j < len(line) {
				j++ // include 'm'
			}
			cur.WriteString(line[i:j])
			i = j
			continue
		}

		r, size := utf8.DecodeRuneInString(line[i:])
		rw := runewidth.RuneWidth(r)

		if visW+rw > maxWidth {
			result = append(result, cur.String())
			cur.Reset()
			visW = 0
		}

		cur.WriteRune(r)
		visW += rw
		i += size
	}

	if cur.Len() > 0 {
		result = append(result, cur.String())
	}

	if len(result) == 0 {
		return []string{""}
	}
	return result
}

// Conversation renders a normalized conversation and returns the content
// plus the 0-based line number of the hit message header (-1 if no hit).
func Conversation(c convo.Conversation, opts Options) (string, int) {
	msgs := c.Messages
	if !opts.ShowThinking {
		msgs = withoutThinking(msgs)
	}

	total := len(msgs)
	if total == 0 {
		return "(empty conversation)", -1
	}

	// window around the hit
	start, end := 0, total
	hitPos := opts.HitIndex
	if hitPos >= total {
		hitPos = -1
	}
	if hitPos >= 0 && opts.Context >= 0 {
		ctx := opts.Context
		if ctx == 0 {
			ctx = 10
		}
		start = hitPos - ctx
		if start < 0 {
			start = 0
		}
		end = hitPos + ctx + 1
		if end > total {
			end = total
		}
	}
	window := msgs[start:end]
	skipAfter := total - end

	var b strings.Builder
	hitLine := -1
	lineCount := 0
	separator := colorDim + "--------------------------------------------------" + colorReset
	wrapW := opts.Width

	// helper to track line count; wraps long lines if Width is set
	writeLine := func(s string) {
		wrapped := wrapLine(s, wrapW)
		for _, wl := range wrapped {
			b.WriteString(wl)
			b.WriteString("\n")
			lineCount++
		}
	}

	// header
	title := c.Title
	if title == "" {
		title = "(untitled)"
	}
	writeLine(fmt.Sprintf("%s--- %s [%s] %d messages ---%s", colorDim, title, c.Source, total, colorReset))

	if start > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages before) ...%s", colorDim, start, colorReset))
	}

	for i, m := range window {
		isHit := start+i == hitPos

		// separator between messages
		if i > 0 {
			writeLine(separator)
		}

		if isHit {
			hitLine = lineCount
		}

		var roleColor, roleLabel string
		isThinking := m.Kind == "thinking"
		switch m.Role {
		case convo.RoleHuman:
			roleColor = colorHuman
			roleLabel = "HUMAN"
		case convo.RoleAssistant:
			if isThinking {
				roleColor = colorThink
				roleLabel = "THINK"
			} else {
				roleColor = colorAssist
				roleLabel = "ASST"
			}
		default:
			roleColor = colorDim
			roleLabel = strings.ToUpper(string(m.Role))
		}

		ts := ""
		if !m.Time.IsZero() {
			ts = m.Time.Format("2006-01-02 15:04:05")
		}

		if isHit {
			writeLine(fmt.Sprintf("%s>> %s > %s <<%s", colorHit, roleLabel, ts, colorReset))
		} else {
			writeLine(fmt.Sprintf("%s%s >%s %s%s%s", roleColor, roleLabel, colorReset, colorDim, ts, colorReset))
		}

		text := m.Text
		if isThinking {
			text = colorDim + text + colorReset
		}
		text = highlightKeywords(text, opts.Query)
		text = indentLines(text, "  ")

		for _, tl := range strings.Split(text, "\n") {
			writeLine(tl)
		}
		writeLine("") // blank line after message
	}

	if skipAfter > 0 {
		writeLine(fmt.Sprintf("%s... (%d messages after) ...%s", colorDim, skipAfter, colorReset))
	}

	return b.String(), hitLine
}

func withoutThinking(msgs []convo.Message) []convo.Message {
	out := make([]convo.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Kind == "thinking" {
			continue
		}
		out = append(out, m)
	}
	return out
}
