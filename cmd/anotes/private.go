package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var privateCmd = &cobra.Command{
	Use:   "private",
	Short: "Manage the password-gated private space",
}

var privateSetupCmd = &cobra.Command{
	Use:   "setup <password>",
	Short: "Create the private space",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		k, err := openKeeper(ctx)
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		commit, err := k.Notes.SetupPrivateSpace(args[0])
		if err != nil {
			fatal("Failed to set up private space", err)
		}
		if err := commit(ctx); err != nil {
			fatal("Failed to save private space", err)
		}
		fmt.Println("Private space created.")
	},
}

var privateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the private space exists and whether --password unlocks it",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		k, err := openKeeper(context.Background())
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		fmt.Println(k.Notes.SpaceState())
	},
}

var privateCheckCmd = &cobra.Command{
	Use:   "check <note-id> <password>",
	Short: "Check a password against a private note",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		k, err := openKeeper(context.Background())
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		if !k.Notes.ValidateNotePassword(args[0], args[1]) {
			fatal("Check failed", fmt.Errorf("password does not match"))
		}
		fmt.Println("ok")
	},
}

var privateDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete the private space and every private note (requires --password)",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		k, err := openKeeper(ctx)
		if err != nil {
			fatal("Failed to open data directory", err)
		}
		defer k.Close()

		if !k.Notes.IsPrivateSpaceUnlocked() {
			fatal("Failed to delete private space", fmt.Errorf("private space is locked, pass --password"))
		}
		if err := k.Notes.DeletePrivateSpace()(ctx); err != nil {
			fatal("Failed to save notes", err)
		}
		fmt.Println("Private space deleted.")
	},
}

func init() {
	rootCmd.AddCommand(privateCmd)
	privateCmd.AddCommand(privateSetupCmd, privateStatusCmd, privateCheckCmd, privateDeleteCmd)
}
