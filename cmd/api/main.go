package main

import (
	"log"
	"os"

	"github.com/calendarease/core/cmd/api/commands"
)

// @title CalendarEase API
// @version 1.0
// @description Calendar tasks and voice notes

// @host localhost:8080
// @BasePath /api/v1

func main() {
	rootCmd := commands.NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
