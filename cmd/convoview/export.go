package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mkarpel/convoview/internal/config"
	"github.com/mkarpel/convoview/internal/convo"
	"github.com/mkarpel/convoview/internal/export"
	"github.com/mkarpel/convoview/internal/ingest"
)

func exportCmd() *cobra.Command {
	var formatName, output, convID string
	var all, deleted bool

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Export conversations as Markdown, JSON or YAML",
		Long: `Validates the export file, normalizes its conversations and writes
them out. By default the first conversation is exported to the current
directory under a name derived from its title; --all exports every
conversation in the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if formatName == "" {
				formatName = cfg.ExportFormat
			}
			format, err := export.ParseFormat(formatName)
			if err != nil {
				return err
			}

			res, err := ingest.File(args[0])
			if err != nil {
				return err
			}
			if len(res.Conversations) == 0 {
				return fmt.Errorf("%s: %s payload has no conversations to export", args[0], res.Kind)
			}

			targets := pickTargets(res.Conversations, convID, all, deleted)
			if len(targets) == 0 {
				return fmt.Errorf("no matching conversation in %s", args[0])
			}

			if output != "" && len(targets) > 1 {
				return fmt.Errorf("--output only applies to a single conversation; use --all without it")
			}

			for _, c := range targets {
				path := output
				if path == "" {
					path = filepath.Join(cfg.ExportDir, export.Filename(c, format))
				}
				if err := writeExport(path, c, format); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "wrote %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&formatName, "format", "", "Output format: markdown, json or yaml (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path")
	cmd.Flags().StringVar(&convID, "conversation", "", "Export only this conversation ID")
	cmd.Flags().BoolVar(&all, "all", false, "Export every conversation in the file")
	cmd.Flags().BoolVar(&deleted, "deleted", false, "Include soft-deleted conversations")

	return cmd
}

func pickTargets(convs []convo.Conversation, convID string, all, deleted bool) []convo.Conversation {
	var out []convo.Conversation
	for _, c := range convs {
		if convID != "" {
			if c.ID == convID {
				return []convo.Conversation{c}
			}
			continue
		}
		if c.SoftDeleted() && !deleted {
			continue
		}
		out = append(out, c)
		if !all {
			break
		}
	}
	return out
}

func writeExport(path string, c convo.Conversation, format export.Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	if err := export.Write(f, c, format); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	return nil
}
