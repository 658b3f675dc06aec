// Command treasuryctl is the combined Treasury command line tool.
package main

import (
	"os"

	"github.com/faeton/treasury-sdk-go/cli"
)

func main() {
	app := cli.NewApp()
	os.Exit(app.Run(app.RootCommand(), os.Args[1:]))
}
