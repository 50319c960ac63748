package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajnelson-nist/dfxml/internal/dfxmlio"
	"github.com/ajnelson-nist/dfxml/internal/progress"
	"github.com/ajnelson-nist/dfxml/internal/scan"
)

func scanCmd() *cobra.Command {
	var (
		output       string
		algorithms   []string
		maxHashSize  int64
		showProgress bool
	)

	cmd := &cobra.Command{
		Use:   "scan DIRECTORY",
		Short: "Snapshot a live directory tree",
		Long: `Walks a directory tree, hashing every regular file, and writes the result
as a snapshot document that diff accepts as input.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup()
			if err != nil {
				return err
			}

			var reporter progress.Reporter
			if showProgress {
				reporter = progress.NewCallbackReporter(printProgress)
			}

			scanner, err := scan.New(args[0], scan.Options{
				Algorithms:  algorithms,
				MaxHashSize: maxHashSize,
				IgnoreNames: cfg.Diff.IgnoreNames,
				Reporter:    reporter,
			})
			if err != nil {
				return err
			}

			snapshot, err := scanner.Scan(cmd.Context())
			if err != nil {
				return err
			}
			if showProgress {
				fmt.Fprintln(os.Stderr)
			}

			out := io.Writer(os.Stdout)
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			return dfxmlio.WriteSnapshotXML(out, snapshot)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Write the snapshot to this file instead of stdout")
	cmd.Flags().StringSliceVar(&algorithms, "hash", nil, "Content hash algorithm: md5, sha1, or sha256 (repeatable; default all three)")
	cmd.Flags().Int64Var(&maxHashSize, "max-hash-size", 0, "Skip hashing files larger than this many bytes (0 = no limit)")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "Print hashing progress to stderr")

	return cmd
}

// printProgress renders one progress line to stderr, overwriting in place
func printProgress(u progress.Update) {
	switch u.Type {
	case progress.UpdateComplete, progress.UpdateProgress:
		bar := progress.FormatProgress(u.BytesHashed, u.BytesTotal, 30)
		fmt.Fprintf(os.Stderr, "\r%s %d/%d files %s",
			bar, u.FilesHashed, u.FilesTotal, progress.FormatBytes(u.BytesHashed))
	case progress.UpdateError:
		fmt.Fprintf(os.Stderr, "\nskipping %s: %v\n", u.CurrentFile, u.Error)
	}
}
