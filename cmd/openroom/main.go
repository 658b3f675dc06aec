package main

import (
	"fmt"
	"os"

	"github.com/faeton/treasury-sdk-go/cli"
	"github.com/faeton/treasury-sdk-go/services/treasury"
)

func main() {
	app := cli.NewApp()
	cmd, err := app.OperationCommand(treasury.MethodOpenRoom)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(app.Run(cmd, os.Args[1:]))
}
