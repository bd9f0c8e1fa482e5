// Package main implements the vedfolnir console CLI.
// It tracks caption generation tasks, keeps the session in sync, and
// surfaces server notifications in the terminal.
package main

import "github.com/vedfolnir/console/cmd/vedfolnir/cmd"

func main() {
	cmd.Execute()
}
