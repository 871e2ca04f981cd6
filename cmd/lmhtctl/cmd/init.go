package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the storage file if it does not already exist, or report its current state",
	Run:   runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) {
	tree := openTree()
	fmt.Printf("store %s: %d leaves\n", flagDatadir, tree.N())
}
