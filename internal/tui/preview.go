package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/mkarpel/convoview/internal/convo"
	"github.com/mkarpel/convoview/internal/index"
	"github.com/mkarpel/convoview/internal/render"
)

// previewRenderedMsg is sent when an async preview render completes.
type previewRenderedMsg struct {
	convID  string
	msgIdx  int
	content string
	hitLine int
	err     error
}

// loadPreviewCmd returns a tea.Cmd that renders the conversation preview async.
func loadPreviewCmd(convs map[string]convo.Conversation, r index.Result, query string, width int) tea.Cmd {
	return func() tea.Msg {
		c, ok := convs[r.ConvID]
		if !ok {
			return previewRenderedMsg{convID: r.ConvID, msgIdx: r.MsgIdx, content: "(conversation not loaded)"}
		}
		content, hitLine := render.Conversation(c, render.Options{
			HitIndex:     r.MsgIdx,
			Context:      -1,
			Width:        width,
			Query:        query,
			ShowThinking: true,
		})
		return previewRenderedMsg{
			convID:  r.ConvID,
			msgIdx:  r.MsgIdx,
			content: content,
			hitLine: hitLine,
		}
	}
}

// newViewport creates a new viewport model with the given dimensions.
// The border comes from the surrounding panel style, not the viewport.
func newViewport(width, height int) viewport.Model {
	return viewport.New(width, height)
}
