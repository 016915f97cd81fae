package main

import (
	"os"

	"github.com/conneroisu/cmdhub/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
