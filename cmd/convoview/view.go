package main

import (
	"github.com/spf13/cobra"

	"github.com/mkarpel/convoview/internal/config"
	"github.com/mkarpel/convoview/internal/index"
	"github.com/mkarpel/convoview/internal/tui"
)

func viewCmd() *cobra.Command {
	var source string
	var deleted bool

	cmd := &cobra.Command{
		Use:   "view <file>...",
		Short: "Browse conversations from export files in a TUI",
		Long:  `Opens a TUI panel listing every conversation in the given export files, newest first. Type to filter by title or search message content.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			db, convs, err := loadIntoIndex(args)
			if err != nil {
				return err
			}
			defer db.Close()

			opts := index.Options{
				Source:      source,
				ShowDeleted: deleted || cfg.ShowDeleted,
			}
			return tui.RunList(db, convs, opts)
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Filter by source (claude/chatgpt)")
	cmd.Flags().BoolVar(&deleted, "deleted", false, "Include soft-deleted conversations")

	return cmd
}
