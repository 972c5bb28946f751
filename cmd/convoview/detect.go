package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mkarpel/convoview/internal/detect"
	"github.com/mkarpel/convoview/internal/payload"
)

func detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>...",
		Short: "Guess the export schema of one or more files",
		Long: `Parses each file and reports the detected schema kind, a record
count where one applies, and the file size. Detection never fails: files
with no recognizable structure land in a generic bucket. Files that do not
parse as JSON/YAML at all are reported and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bad := 0
			for _, path := range args {
				p, err := payload.Load(path)
				if err != nil {
					fmt.Fprintf(os.Stderr, "WARN: %v\n", err)
					bad++
					continue
				}
				kind := detect.Detect(p.Value, p.Filename)
				count, ok := detect.RecordCount(p.Value, kind)
				records := "-"
				if ok {
					records = fmt.Sprintf("%d", count)
				}
				fmt.Printf("%s\t%s\t%s records\t%s\n",
					path, kind, records, humanize.Bytes(uint64(p.Size)))
			}
			if bad == len(args) {
				return fmt.Errorf("no file could be parsed")
			}
			return nil
		},
	}
}
