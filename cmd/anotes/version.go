package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/anotes"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of anotes",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("anotes version %s\n", strings.TrimSpace(anotes.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
