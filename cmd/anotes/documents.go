package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aretw0/anotes/pkg/core"
)

var (
	docPinned  bool
	docStarred bool
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage uploaded documents",
}

var docAddCmd = &cobra.Command{
	Use:   "add <file>",
	Short: "Store a file, subject to the per-file and total size ceilings",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		data, err := os.ReadFile(args[0])
		if err != nil {
			fatal("Failed to read file", err)
		}

		k, err := openKeeper(ctx)
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		mimeType := mime.TypeByExtension(filepath.Ext(args[0]))
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		d, err := k.AddDocument(ctx, core.DocumentDraft{
			Name:      filepath.Base(args[0]),
			MimeType:  mimeType,
			Size:      int64(len(data)),
			URL:       "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
			IsPinned:  docPinned,
			IsStarred: docStarred,
		})
		if err != nil {
			fatal("Failed to add document", err)
		}
		fmt.Println(d.ID)
	},
}

var docListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, pinned and starred first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		k, err := openKeeper(context.Background())
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		for _, d := range k.Documents.Sorted() {
			marks := ""
			if d.IsPinned {
				marks += "*"
			}
			if d.IsStarred {
				marks += "+"
			}
			fmt.Printf("%s %-2s %s (%s, %d bytes)\n", d.ID, marks, d.Name, d.MimeType, d.Size)
		}
		limits := k.Documents.Limits()
		fmt.Printf("%d of %d bytes used\n", k.Documents.TotalSize(), limits.MaxTotalSize)
	},
}

func docToggle(use, short string, patch func(v bool) core.DocumentPatch) *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx := context.Background()
			k, err := openKeeper(ctx)
			if err != nil {
				fatal("Failed to open data directory", err)
			}
			defer k.Close()

			if _, ok := k.Documents.Get(args[0]); !ok {
				fatal("Failed to "+use+" document", fmt.Errorf("%w: %s", core.ErrNotFound, args[0]))
			}
			commit, err := k.Documents.Update(args[0], patch(!off))
			if err != nil {
				fatal("Invalid document", err)
			}
			if err := commit(ctx); err != nil {
				fatal("Failed to save documents", err)
			}
		},
	}
	cmd.Flags().BoolVar(&off, "off", false, "Clear instead of set")
	return cmd
}

var docPinCmd = docToggle("pin", "Pin a document", func(v bool) core.DocumentPatch {
	return core.DocumentPatch{IsPinned: &v}
})

var docStarCmd = docToggle("star", "Star a document", func(v bool) core.DocumentPatch {
	return core.DocumentPatch{IsStarred: &v}
})

var docRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a document and its payload",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		k, err := openKeeper(ctx)
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		if err := k.DeleteDocument(ctx, args[0]); err != nil {
			fatal("Failed to delete document", err)
		}
	},
}

var docVacuumCmd = &cobra.Command{
	Use:   "vacuum",
	Short: "Remove payloads that no document refers to",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		k, err := openKeeper(ctx)
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		removed, err := k.Vacuum(ctx)
		if err != nil {
			fatal("Failed to vacuum", err)
		}
		fmt.Printf("%d orphaned payloads removed\n", len(removed))
	},
}

func init() {
	rootCmd.AddCommand(docCmd)
	docCmd.AddCommand(docAddCmd, docListCmd, docPinCmd, docStarCmd, docRmCmd, docVacuumCmd)
	docAddCmd.Flags().BoolVar(&docPinned, "pin", false, "Pin the document")
	docAddCmd.Flags().BoolVar(&docStarred, "star", false, "Star the document")
}
