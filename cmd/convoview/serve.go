package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkarpel/convoview/internal/config"
	"github.com/mkarpel/convoview/internal/ingest"
	"github.com/mkarpel/convoview/internal/server"
)

func serveCmd() *cobra.Command {
	var port int
	var uiDir string
	var deleted bool

	cmd := &cobra.Command{
		Use:   "serve [file]...",
		Short: "Serve loaded conversations over a local HTTP viewer",
		Long: `Starts a local HTTP server with a JSON API over the given export
files (more can be uploaded while it runs) and optionally serves a static
viewer UI directory at /.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if port == 0 {
				port = cfg.Port
			}
			if uiDir == "" {
				uiDir = cfg.UIDir
			}

			store := server.NewStore()
			for _, path := range args {
				res, err := ingest.File(path)
				if err != nil {
					return err
				}
				if len(res.Conversations) == 0 {
					fmt.Fprintf(os.Stderr, "skipping %s: %s payload has no conversations\n", path, res.Kind)
					continue
				}
				for _, c := range res.Conversations {
					store.Add(res.Kind, c)
				}
			}
			fmt.Fprintf(os.Stderr, "loaded %d conversations\n", store.Len())

			s := server.New(store, port, uiDir, deleted || cfg.ShowDeleted)
			return s.Start()
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "Listen port (default from config)")
	cmd.Flags().StringVar(&uiDir, "ui", "", "Static viewer directory to serve at /")
	cmd.Flags().BoolVar(&deleted, "deleted", false, "Include soft-deleted conversations in listings")

	return cmd
}
