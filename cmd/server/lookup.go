package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"tv-finder/internal/service"
	"tv-finder/internal/ui"
)

var (
	nameStyle   = lipgloss.NewStyle().Bold(true)
	idStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	detailStyle = lipgloss.NewStyle().Faint(true)
)

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search shows by title",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := strings.Join(args, " ")
		if strings.TrimSpace(query) == "" {
			return fmt.Errorf("query cannot be empty")
		}

		finder := service.NewShowFinder(newProviderClient(), service.NewDiagnostics(nil, nil), stderrNotifier())
		shows := finder.SearchShows(cmd.Context(), query)

		out := cmd.OutOrStdout()
		for _, show := range shows {
			fmt.Fprintf(out, "%s %s\n", idStyle.Render(fmt.Sprintf("[%d]", show.ID)), nameStyle.Render(show.Name))
			fmt.Fprintln(out, detailStyle.Render("    "+ui.PlainText(show.Summary)))
			fmt.Fprintln(out, detailStyle.Render("    "+show.Image))
		}
		return nil
	},
}

var episodesCmd = &cobra.Command{
	Use:   "episodes <show-id>",
	Short: "List the episodes of a show",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		showID, err := strconv.Atoi(args[0])
		if err != nil || showID <= 0 {
			return fmt.Errorf("invalid show id %q", args[0])
		}

		browser := service.NewEpisodeBrowser(newProviderClient(), service.NewDiagnostics(nil, nil), stderrNotifier())
		episodes := browser.GetEpisodes(cmd.Context(), showID)

		out := cmd.OutOrStdout()
		for _, ep := range episodes {
			fmt.Fprintln(out, ui.FormatEpisode(ep))
		}
		return nil
	},
}

func stderrNotifier() service.Notifier {
	return service.NotifierFunc(func(text string) {
		fmt.Fprintln(os.Stderr, text)
	})
}
