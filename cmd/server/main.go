package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"tv-finder/internal/config"
	"tv-finder/internal/tvmaze"
)

var (
	configPath string
	cfg        *config.Config
)

// rootCmd starts the web server when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tv-finder",
	Short: "Search TV shows and browse their episodes",
	Long: `tv-finder is a small web front-end over the TVMaze API. Search shows by title,
pick one and list its episodes. The search and episodes subcommands do the same
from the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", os.Getenv("TVFINDER_CONFIG"), "Path to a TOML config file")
	rootCmd.AddCommand(serveCmd, searchCmd, episodesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newProviderClient builds the TVMaze client from the loaded config
func newProviderClient() *tvmaze.Client {
	client := tvmaze.NewClientWithHTTP(&http.Client{Timeout: cfg.RequestTimeout.Duration})
	client.SetBaseURL(cfg.ProviderBaseURL)
	return client
}
