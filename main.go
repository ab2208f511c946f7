package main

import "github.com/strrl/folio/cmd/folio/commands"

func main() {
	commands.Execute()
}
