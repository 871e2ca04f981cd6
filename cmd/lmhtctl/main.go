package main

import "github.com/dapperlabs/lmtht/cmd/lmhtctl/cmd"

func main() {
	cmd.Execute()
}
