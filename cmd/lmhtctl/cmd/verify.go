package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-read and checksum-verify every entry in the store, reporting every failure found",
	Run:   runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(_ *cobra.Command, _ []string) {
	tree := openTree()
	if err := tree.VerifyAll(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("%d entries verified\n", tree.N())
}
