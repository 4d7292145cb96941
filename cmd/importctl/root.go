package main

import (
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/sabuysoft/wms-import/internal/client"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "importctl",
		Short: "Pull external datasets into the warehouse",
		Long: `importctl talks to the import server: preview a dataset from an
external API, check and adjust how its fields map onto the warehouse
schema, then commit the batch. Saved import configurations are managed
with the configs subcommands.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
	}

	cmd.PersistentFlags().String("server", defaultServerURL(), "base URL of the import server")

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newConfigsCmd())

	return cmd
}

func defaultServerURL() string {
	if url := os.Getenv("IMPORT_SERVER_URL"); url != "" {
		return url
	}
	return "http://localhost:8080"
}

func apiClient(cmd *cobra.Command) *client.Client {
	serverURL, _ := cmd.Flags().GetString("server")
	return client.New(serverURL, &http.Client{Timeout: 120 * time.Second})
}
