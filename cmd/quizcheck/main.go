package main

import (
	"os"

	"github.com/moolen/quizcheck/cmd/quizcheck/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
