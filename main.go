package main

import (
	"os"

	"github.com/Azure/filecover/pkg/cmd"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(cmd.Execute(cmd.NewFileCoverCommand(version, commit, date)))
}
