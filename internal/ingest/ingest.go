// Package ingest runs the full pipeline for one payload: detect the
// schema, validate it with the matching decoder, and normalize to the
// shared model. Every surface (CLI, server, index, TUI) goes through here.
package ingest

import (
	"fmt"

	"github.com/mkarpel/convoview/internal/chatgpt"
	"github.com/mkarpel/convoview/internal/claude"
	"github.com/mkarpel/convoview/internal/convo"
	"github.com/mkarpel/convoview/internal/detect"
	"github.com/mkarpel/convoview/internal/payload"
)

// Result is one ingested file. RecordCount follows the per-kind counting
// rules; HasCount is false when no count applies to the kind.
type Result struct {
	Payload       *payload.Payload
	Kind          detect.Kind
	Conversations []convo.Conversation
	RecordCount   int
	HasCount      bool
}

// File loads and ingests a single export file.
func File(path string) (*Result, error) {
	p, err := payload.Load(path)
	if err != nil {
		return nil, err
	}
	return Payload(p)
}

// Payload ingests an already-parsed payload. Kinds without a normalizer
// (cloudwatch-logs and the generic buckets) come back with nil
// conversations; callers that need a timeline must check and refuse.
func Payload(p *payload.Payload) (*Result, error) {
	kind := detect.Detect(p.Value, p.Filename)
	res := &Result{Payload: p, Kind: kind}
	res.RecordCount, res.HasCount = detect.RecordCount(p.Value, kind)

	switch kind {
	case detect.KindClaude:
		cs, err := claude.Decode(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Filename, err)
		}
		for _, c := range cs {
			res.Conversations = append(res.Conversations, claude.Normalize(c))
		}
	case detect.KindChatGPT:
		// Filename hints can label payloads that fail the structural
		// predicate; those carry no timeline and stay undecoded.
		if !structurallyChatGPT(p.Value) {
			return res, nil
		}
		cs, err := chatgpt.Decode(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.Filename, err)
		}
		for _, c := range cs {
			res.Conversations = append(res.Conversations, chatgpt.Normalize(c))
		}
	}
	return res, nil
}

func structurallyChatGPT(v any) bool {
	if detect.IsChatGPTConversation(v) {
		return true
	}
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return false
	}
	for _, el := range arr {
		if !detect.IsChatGPTConversation(el) {
			return false
		}
	}
	return true
}

// Files ingests several export files, failing on the first bad one.
func Files(paths []string) ([]*Result, error) {
	var out []*Result
	for _, path := range paths {
		r, err := File(path)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
