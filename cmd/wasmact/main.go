package main

import (
	"fmt"
	"os"

	"github.com/wasmact/wasmact/cmd/wasmact/cmd"
)

func main() {
	err := cmd.Execute()
	if err == nil {
		return
	}

	if cmd.Interrupted(err) {
		fmt.Fprintln(os.Stderr, "Operation cancelled by user")
	} else if !cmd.Reported(err) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cmd.ExitCode(err))
}
