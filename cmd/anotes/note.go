package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/anotes/pkg/core"
	"github.com/aretw0/anotes/pkg/notes"
)

var (
	noteTitle    string
	noteContent  string
	noteTags     []string
	noteColor    string
	notePinned   bool
	noteFavorite bool
	notePrivate  bool

	listTrash     bool
	listPrivate   bool
	listFavorites bool
	listSearch    string
	listJSON      bool

	purgeDays int
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes",
}

var noteAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a note",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		k, err := openKeeper(ctx)
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		n, commit, err := k.Notes.Create(core.NoteDraft{
			Title:      noteTitle,
			Content:    noteContent,
			Tags:       noteTags,
			Color:      core.Color(noteColor),
			IsPinned:   notePinned,
			IsFavorite: noteFavorite,
			IsPrivate:  notePrivate,
		})
		if err != nil {
			fatal("Invalid note", err)
		}
		if err := commit(ctx); err != nil {
			fatal("Failed to save note", err)
		}
		fmt.Println(n.ID)
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		k, err := openKeeper(context.Background())
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		if listPrivate && !k.Notes.IsPrivateSpaceUnlocked() {
			fatal("Cannot list private notes", fmt.Errorf("private space is locked, pass --password"))
		}

		view := k.Notes.View(notes.Query{
			Trash:         listTrash,
			Private:       listPrivate,
			FavoritesOnly: listFavorites,
			Search:        listSearch,
			Tags:          noteTags,
		})

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(view); err != nil {
				fatal("Failed to encode JSON", err)
			}
			return
		}

		for _, n := range view {
			printNoteLine(n)
		}
	},
}

func printNoteLine(n core.Note) {
	marks := ""
	if n.IsPinned {
		marks += "*"
	}
	if n.IsFavorite {
		marks += "+"
	}
	line := fmt.Sprintf("%s %-2s %s", n.ID, marks, n.Title)
	if len(n.Tags) > 0 {
		line += " [" + strings.Join(n.Tags, ", ") + "]"
	}
	if n.DeletedAt != nil {
		line += " (trashed " + n.DeletedAt.Format("2006-01-02") + ")"
	}
	fmt.Println(line)
}

var noteShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		k, err := openKeeper(ctx)
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		n, ok := k.Notes.Get(args[0])
		if !ok {
			fatal("Failed to show note", fmt.Errorf("%w: %s", core.ErrNotFound, args[0]))
		}
		fmt.Printf("%s\n\n%s\n", n.Title, n.Content)

		if err := k.Notes.IncrementViewCount(n.ID)(ctx); err != nil {
			slog.Warn("failed to record view", "id", n.ID, "error", err)
		}
	},
}

var noteEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change fields of a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		k, err := openKeeper(ctx)
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		if _, ok := k.Notes.Get(args[0]); !ok {
			fatal("Failed to edit note", fmt.Errorf("%w: %s", core.ErrNotFound, args[0]))
		}

		flags := cmd.Flags()
		var patch core.NotePatch
		if flags.Changed("title") {
			patch.Title = &noteTitle
		}
		if flags.Changed("content") {
			patch.Content = &noteContent
		}
		if flags.Changed("tag") {
			patch.Tags = &noteTags
		}
		if flags.Changed("color") {
			c := core.Color(noteColor)
			patch.Color = &c
		}
		if flags.Changed("pin") {
			patch.IsPinned = &notePinned
		}
		if flags.Changed("favorite") {
			patch.IsFavorite = &noteFavorite
		}
		if flags.Changed("private") {
			patch.IsPrivate = &notePrivate
		}

		commit, err := k.Notes.Update(args[0], patch)
		if err != nil {
			fatal("Invalid note", err)
		}
		if err := commit(ctx); err != nil {
			fatal("Failed to save note", err)
		}
	},
}

// byID builds a command applying a registry mutation to the note named by its argument.
func byID(use, short string, mutate func(r *notes.Registry, id string) core.Commit) *cobra.Command {
	return &cobra.Command{
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

			if _, ok := k.Notes.Get(args[0]); !ok {
				fatal("Failed to "+use+" note", fmt.Errorf("%w: %s", core.ErrNotFound, args[0]))
			}
			if err := mutate(k.Notes, args[0])(ctx); err != nil {
				fatal("Failed to save notes", err)
			}
		},
	}
}

var noteTrashCmd = byID("trash", "Move a note to the trash", (*notes.Registry).MoveToTrash)
var noteRestoreCmd = byID("restore", "Restore a note from the trash", (*notes.Registry).RestoreFromTrash)
var noteRmCmd = byID("rm", "Delete a note permanently", (*notes.Registry).PermanentlyDelete)

var notePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete notes trashed longer than the retention window",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		k, err := openKeeper(ctx)
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		days := cfg.Trash.RetentionDays
		if cmd.Flags().Changed("days") {
			days = purgeDays
		}
		removed, commit := k.Notes.PurgeExpired(days)
		if removed > 0 {
			if err := commit(ctx); err != nil {
				fatal("Failed to save notes", err)
			}
		}
		fmt.Printf("%d notes purged\n", removed)
	},
}

var noteTagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "List every tag in use",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		k, err := openKeeper(context.Background())
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		for _, t := range k.Notes.Tags() {
			fmt.Println(t)
		}
	},
}

func addNoteFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&noteTitle, "title", "", "Note title")
	cmd.Flags().StringVar(&noteContent, "content", "", "Note content")
	cmd.Flags().StringSliceVar(&noteTags, "tag", nil, "Tag (repeatable)")
	cmd.Flags().StringVar(&noteColor, "color", "", "Color label (red, orange, yellow, green, blue, purple, pink, gray)")
	cmd.Flags().BoolVar(&notePinned, "pin", false, "Pin the note")
	cmd.Flags().BoolVar(&noteFavorite, "favorite", false, "Mark the note as favorite")
	cmd.Flags().BoolVar(&notePrivate, "private", false, "Keep the note in the private space")
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteListCmd, noteShowCmd, noteEditCmd,
		noteTrashCmd, noteRestoreCmd, noteRmCmd, notePurgeCmd, noteTagsCmd)

	addNoteFlags(noteAddCmd)
	addNoteFlags(noteEditCmd)

	noteListCmd.Flags().BoolVar(&listTrash, "trash", false, "Show the trash")
	noteListCmd.Flags().BoolVar(&listPrivate, "private", false, "Show private notes (requires --password)")
	noteListCmd.Flags().BoolVar(&listFavorites, "favorites", false, "Only favorites")
	noteListCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Filter by text in title, content or tags")
	noteListCmd.Flags().StringSliceVar(&noteTags, "tag", nil, "Filter by tag (repeatable)")
	noteListCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")

	notePurgeCmd.Flags().IntVar(&purgeDays, "days", 0, "Retention window in days (defaults to the configured one)")
}
