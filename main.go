package main

import "github.com/devdeck/dd-cli/cmd"

func main() {
	cmd.Execute()
}
