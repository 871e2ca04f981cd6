package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootNodeCmd = &cobra.Command{
	Use:   "root",
	Short: "Print the current generation root's address and digest",
	Run:   runRootNode,
}

func init() {
	rootCmd.AddCommand(rootNodeCmd)
}

func runRootNode(_ *cobra.Command, _ []string) {
	tree := openTree()
	node, ok := tree.Root()
	if !ok {
		fmt.Println("empty")
		return
	}
	fmt.Printf("i=%d j=%d hash=%x\n", node.I, node.J, node.Hash)
}
