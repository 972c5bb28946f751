package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mkarpel/convoview/internal/ingest"
	"github.com/mkarpel/convoview/internal/render"
)

func showCmd() *cobra.Command {
	var convID, query string
	var width, contextN int
	var thinking, deleted bool

	cmd := &cobra.Command{
		Use:   "show <file>",
		Short: "Render a conversation from an export file to the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := ingest.File(args[0])
			if err != nil {
				return err
			}
			if len(res.Conversations) == 0 {
				return fmt.Errorf("%s: %s payload has no conversations to show", args[0], res.Kind)
			}

			conv := res.Conversations[0]
			found := convID == ""
			for _, c := range res.Conversations {
				if convID != "" && c.ID == convID {
					conv = c
					found = true
					break
				}
				if convID == "" && !c.SoftDeleted() {
					conv = c
					break
				}
			}
			if !found {
				return fmt.Errorf("conversation %s not found in %s", convID, args[0])
			}
			if conv.SoftDeleted() && !deleted && convID == "" {
				return fmt.Errorf("%s only holds soft-deleted conversations; pass --deleted to show them", args[0])
			}

			// fit the terminal when stdout is one and no width was forced
			if width == 0 {
				if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
					width = w
				}
			}

			// --context windows around the first query match
			hit := -1
			if query != "" && contextN >= 0 {
				q := strings.ToLower(query)
				for i, m := range conv.Messages {
					if strings.Contains(strings.ToLower(m.Text), q) {
						hit = i
						break
					}
				}
			}

			out, _ := render.Conversation(conv, render.Options{
				HitIndex:     hit,
				Context:      contextN,
				Width:        width,
				Query:        query,
				ShowThinking: thinking,
			})
			fmt.Print(out)
			return nil
		},
	}

	cmd.Flags().StringVar(&convID, "conversation", "", "Conversation ID to show (default: first)")
	cmd.Flags().StringVar(&query, "query", "", "Highlight occurrences of this query")
	cmd.Flags().IntVar(&contextN, "context", -1, "Messages of context around the first query match (-1 = all)")
	cmd.Flags().IntVar(&width, "width", 0, "Wrap width (0 = terminal width)")
	cmd.Flags().BoolVar(&thinking, "thinking", false, "Include thinking blocks")
	cmd.Flags().BoolVar(&deleted, "deleted", false, "Allow showing soft-deleted conversations")

	return cmd
}
