package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mkarpel/convoview/internal/config"
	"github.com/mkarpel/convoview/internal/index"
	"github.com/mkarpel/convoview/internal/tui"
)

const (
	sColorReset   = "\033[0m"
	sColorBoldRed = "\033[1;31m"
	sColorBlue    = "\033[1;34m"
	sColorGreen   = "\033[1;32m"
	sColorDim     = "\033[2m"
)

func colorizeSource(source string) string {
	switch source {
	case "claude":
		return sColorBlue + source + sColorReset
	case "chatgpt":
		return sColorGreen + source + sColorReset
	default:
		return source
	}
}

func colorizeSnippet(snippet string) string {
	snippet = strings.ReplaceAll(snippet, ">>>", sColorBoldRed)
	snippet = strings.ReplaceAll(snippet, "<<<", sColorReset)
	return snippet
}

func searchCmd() *cobra.Command {
	var source, role string
	var limit int
	var deleted bool

	cmd := &cobra.Command{
		Use:   "search <query> <file>...",
		Short: "Full-text search across conversation export files",
		Long: `Loads the given export files, indexes their messages in memory and
searches them. Interactive TUI when stdout is a terminal; TSV rows for
pipes: convID, msgIdx, updatedAt, source, title, snippet.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			query := args[0]
			db, convs, err := loadIntoIndex(args[1:])
			if err != nil {
				return err
			}
			defer db.Close()

			opts := index.Options{
				Source:      source,
				Role:        role,
				ShowDeleted: deleted || cfg.ShowDeleted,
				Limit:       limit,
			}

			// Interactive TUI when stdout is a terminal; TSV output for pipes
			if term.IsTerminal(int(os.Stdout.Fd())) {
				return tui.Run(db, convs, query, opts)
			}

			opts.Query = query
			results, err := db.Search(opts)
			if err != nil {
				return err
			}

			if len(results) == 0 {
				fmt.Fprintln(os.Stderr, "No results found.")
				return nil
			}

			for _, r := range results {
				snippet := strings.ReplaceAll(r.Snippet, "\t", " ")
				snippet = strings.ReplaceAll(snippet, "\n", " ")
				snippet = colorizeSnippet(snippet)
				title := strings.ReplaceAll(r.Title, "\t", " ")
				title = strings.ReplaceAll(title, "\n", " ")
				if title == "" {
					title = "-"
				}
				// first two fields (convID, msgIdx) stay plain for fzf {1} {2}
				fmt.Printf("%s\t%d\t%s%s%s\t%s\t%s\t%s\n",
					r.ConvID,
					r.MsgIdx,
					sColorDim, r.UpdatedAt, sColorReset,
					colorizeSource(r.Source),
					title,
					snippet,
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Filter by source (claude/chatgpt)")
	cmd.Flags().StringVar(&role, "role", "", "Filter by role (human/assistant)")
	cmd.Flags().IntVar(&limit, "limit", 100, "Max results")
	cmd.Flags().BoolVar(&deleted, "deleted", false, "Include soft-deleted conversations")

	return cmd
}
