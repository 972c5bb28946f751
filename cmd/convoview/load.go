package main

import (
	"fmt"
	"os"

	"github.com/mkarpel/convoview/internal/convo"
	"github.com/mkarpel/convoview/internal/index"
	"github.com/mkarpel/convoview/internal/ingest"
)

// loadIntoIndex ingests export files, indexes every conversation and
// returns the index plus the conversations keyed by id for rendering.
// Files without a timeline (generic payloads, filename-hint kinds) are
// reported and skipped.
func loadIntoIndex(paths []string) (*index.DB, map[string]convo.Conversation, error) {
	db, err := index.Open()
	if err != nil {
		return nil, nil, err
	}

	convs := make(map[string]convo.Conversation)
	for _, path := range paths {
		res, err := ingest.File(path)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if len(res.Conversations) == 0 {
			fmt.Fprintf(os.Stderr, "skipping %s: %s payload has no conversations\n", path, res.Kind)
			continue
		}
		for _, c := range res.Conversations {
			convs[c.ID] = c
			if err := db.Add(c); err != nil {
				db.Close()
				return nil, nil, fmt.Errorf("index %s: %w", path, err)
			}
		}
	}
	return db, convs, nil
}
