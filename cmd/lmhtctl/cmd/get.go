package cmd

import (
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var flagGetIndex uint64

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the payload appended at --index, verifying its checksum",
	Run:   runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().Uint64Var(&flagGetIndex, "index", 0, "one-based leaf index to retrieve")
	_ = getCmd.MarkFlagRequired("index")
}

func runGet(_ *cobra.Command, _ []string) {
	tree := openTree()
	q := tree.Query()

	payload, ok, err := q.Get(flagGetIndex)
	if err != nil {
		log.Fatal().Err(err).Uint64("index", flagGetIndex).Msg("get failed")
	}
	if !ok {
		log.Fatal().Uint64("index", flagGetIndex).Uint64("n", q.N()).Msg("index out of range")
	}

	os.Stdout.Write(payload)
}
