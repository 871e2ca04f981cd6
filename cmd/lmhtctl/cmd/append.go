package cmd

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	flagAppendValue string
	flagAppendFile  string
)

var appendCmd = &cobra.Command{
	Use:   "append",
	Short: "Append a payload as the next leaf and print the new root",
	Run:   runAppend,
}

func init() {
	rootCmd.AddCommand(appendCmd)

	appendCmd.Flags().StringVarP(&flagAppendValue, "value", "v", "", "payload to append, as a literal string")
	appendCmd.Flags().StringVar(&flagAppendFile, "from-file", "", "read the payload from this file instead of --value")
}

func runAppend(_ *cobra.Command, _ []string) {
	payload := []byte(flagAppendValue)
	if flagAppendFile != "" {
		data, err := ioutil.ReadFile(flagAppendFile)
		if err != nil {
			log.Fatal().Err(err).Str("file", flagAppendFile).Msg("could not read payload file")
		}
		payload = data
	}

	tree := openTree()
	node, err := tree.Append(payload)
	if err != nil {
		log.Fatal().Err(err).Msg("append failed")
	}

	fmt.Fprintf(os.Stdout, "i=%d j=%d hash=%x\n", node.I, node.J, node.Hash)
}
