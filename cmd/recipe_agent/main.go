// Package main provides the entry point for the recipe importer CLI and server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "recipe_agent",
	Short: "Recipe Importer",
	Long:  "Recipe Importer turns social media cooking posts into structured recipe documents: it scrapes the post, runs the media through Gemini, validates the result, and persists it.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
