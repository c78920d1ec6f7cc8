// gearhive-cli is the operator tool for the GearHive assistant: ask questions
// against a running API and manage the curated knowledge base.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	apiURL     string
	configPath string
)

func main() {
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "gearhive-cli",
		Short: "GearHive assistant command line tool",
		Long:  "Ask the GearHive parts assistant questions and manage the knowledge base.",
	}

	root.PersistentFlags().StringVar(&apiURL, "api", envOr("GEARHIVE_API_URL", "http://localhost:8090"), "base URL of the GearHive API")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")

	root.AddCommand(newAskCommand())
	root.AddCommand(newKnowledgeCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
