// Package export writes a normalized conversation as Markdown, JSON or
// YAML text.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/mkarpel/convoview/internal/convo"
)

// Format selects the output serialization.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat resolves a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown export format: %q", s)
}

// Ext returns the filename extension for the format.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	}
	return ".md"
}

// Write serializes the conversation in the given format.
func Write(w io.Writer, c convo.Conversation, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(c)
	default:
		return writeMarkdown(w, c)
	}
}

func writeMarkdown(w io.Writer, c convo.Conversation) error {
	var b strings.Builder

	title := c.Title
	if title == "" {
		title = "(untitled conversation)"
	}
	b.WriteString("# ")
	b.WriteString(title)
	b.WriteString("\n\n")

	b.WriteString("**ID:** `")
	b.WriteString(c.ID)
	b.WriteString("`  \n")
	b.WriteString("**Source:** ")
	b.WriteString(c.Source)
	b.WriteString("  \n")
	if !c.CreatedAt.IsZero() {
		b.WriteString("**Created:** ")
		b.WriteString(c.CreatedAt.Format(time.RFC3339))
		b.WriteString("  \n")
	}
	if !c.UpdatedAt.IsZero() {
		b.WriteString("**Updated:** ")
		b.WriteString(c.UpdatedAt.Format(time.RFC3339))
		b.WriteString("  \n")
	}
	b.WriteString("**Messages:** ")
	fmt.Fprintf(&b, "%d", len(c.Messages))
	b.WriteString("\n\n---\n\n")

	for _, m := range c.Messages {
		label := strings.ToUpper(string(m.Role))
		if m.Kind == "thinking" {
			label += " (THINKING)"
		}
		b.WriteString("**")
		b.WriteString(label)
		b.WriteString("**")
		if !m.Time.IsZero() {
			b.WriteString(" — ")
			b.WriteString(m.Time.Format("2006-01-02 15:04:05"))
		}
		b.WriteString("\n\n")
		b.WriteString(m.Text)
		b.WriteString("\n\n---\n\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

const maxFilenameLen = 64

// Filename derives a safe export filename from the conversation title,
// falling back to the id for untitled conversations. Non-alphanumeric runs
// collapse to a single dash and the stem is bounded in length.
func Filename(c convo.Conversation, f Format) string {
	stem := Sanitize(c.Title)
	if stem == "" {
		stem = Sanitize(c.ID)
	}
	if stem == "" {
		stem = "conversation"
	}
	return stem + f.Ext()
}

// Sanitize lowercases s and collapses every non-alphanumeric run to "-".
func Sanitize(s string) string {
	var b strings.Builder
	lastDash := true // suppress a leading dash
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
		if b.Len() >= maxFilenameLen {
			break
		}
	}
	return strings.Trim(b.String(), "-")
}
