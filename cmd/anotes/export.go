package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/anotes/pkg/core"
	"github.com/aretw0/anotes/pkg/export"
)

var (
	exportFormat string
	exportOut    string
)

var noteExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Write a note to a txt, md or json file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		format, err := export.ByName(exportFormat)
		if err != nil {
			fatal("Invalid format", err)
		}

		k, err := openKeeper(context.Background())
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		n, ok := k.Notes.Get(args[0])
		if !ok {
			fatal("Failed to export note", fmt.Errorf("%w: %s", core.ErrNotFound, args[0]))
		}
		data, err := format.Encode(n)
		if err != nil {
			fatal("Failed to encode note", err)
		}

		if exportOut == "-" {
			os.Stdout.Write(data)
			return
		}
		path := filepath.Join(exportOut, export.FileName(n.Title, format, time.Now()))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			fatal("Failed to write file", err)
		}
		fmt.Println(path)
	},
}

var noteImportCmd = &cobra.Command{
	Use:   "import <file.md>...",
	Short: "Create notes from Markdown files with optional front matter",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		k, err := openKeeper(ctx)
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		var commit core.Commit
		for _, name := range args {
			f, err := os.Open(name)
			if err != nil {
				fatal("Failed to open file", err)
			}
			draft, err := export.ParseMarkdown(f)
			f.Close()
			if err != nil {
				fatal("Failed to parse "+name, err)
			}
			n, c, err := k.Notes.Create(draft)
			if err != nil {
				fatal("Invalid note in "+name, err)
			}
			commit = c
			fmt.Println(n.ID)
		}
		// Every commit writes the latest snapshot, so one is enough.
		if err := commit(ctx); err != nil {
			fatal("Failed to save notes", err)
		}
	},
}

func init() {
	noteCmd.AddCommand(noteExportCmd, noteImportCmd)
	noteExportCmd.Flags().StringVarP(&exportFormat, "format", "f", "md", "Output format (txt, md, json)")
	noteExportCmd.Flags().StringVarP(&exportOut, "out", "o", ".", "Output directory, or - for stdout")
}
