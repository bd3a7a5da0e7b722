package ui

import (
	"embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"tv-finder/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// State is the view state of one browser: the displayed show grid, the
// displayed episode list and pending notices. Collections are only ever
// replaced wholesale.
type State struct {
	Query           string
	Shows           []models.ShowSummary
	Episodes        []models.EpisodeSummary
	EpisodesVisible bool
	SelectedShowID  int
	Notices         []string
}

// RenderShows replaces the displayed show collection
func RenderShows(state *State, shows []models.ShowSummary) {
	state.Shows = append([]models.ShowSummary{}, shows...)
}

// RenderEpisodes replaces the displayed episode collection for showID and
// makes the episode area visible
func RenderEpisodes(state *State, showID int, episodes []models.EpisodeSummary) {
	state.Episodes = append([]models.EpisodeSummary{}, episodes...)
	state.SelectedShowID = showID
	state.EpisodesVisible = true
}

// ClearEpisodes empties and hides the episode area
func ClearEpisodes(state *State) {
	state.Episodes = nil
	state.SelectedShowID = 0
	state.EpisodesVisible = false
}

// FormatEpisode renders one episode line item
func FormatEpisode(ep models.EpisodeSummary) string {
	return fmt.Sprintf("%s (season %s, episode %s)", ep.Name, optionalInt(ep.Season), optionalInt(ep.Number))
}

func optionalInt(v *int) string {
	if v == nil {
		return "?"
	}
	return strconv.Itoa(*v)
}

// ShowCard is one card of the show grid
type ShowCard struct {
	ID      int
	Name    string
	Summary string // plain text
	Image   string
}

// View is a render-ready snapshot of a State
type View struct {
	Query           string
	Shows           []ShowCard
	Episodes        []string
	EpisodesVisible bool
	SelectedShowID  int
	SelectedShow    string
	Notices         []string
}

// BuildView converts state into a View
func BuildView(state *State) View {
	view := View{
		Query:           state.Query,
		Shows:           make([]ShowCard, 0, len(state.Shows)),
		Episodes:        make([]string, 0, len(state.Episodes)),
		EpisodesVisible: state.EpisodesVisible,
		SelectedShowID:  state.SelectedShowID,
		Notices:         append([]string{}, state.Notices...),
	}

	for _, show := range state.Shows {
		view.Shows = append(view.Shows, ShowCard{
			ID:      show.ID,
			Name:    show.Name,
			Summary: PlainText(show.Summary),
			Image:   show.Image,
		})
		if show.ID == state.SelectedShowID {
			view.SelectedShow = show.Name
		}
	}
	for _, ep := range state.Episodes {
		view.Episodes = append(view.Episodes, FormatEpisode(ep))
	}

	return view
}

// PlainText strips markup from a provider HTML fragment, separating block
// elements with a single space
func PlainText(fragment string) string {
	if !strings.ContainsRune(fragment, '<') {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	doc.Find("script, style").Remove()
	// block boundaries would otherwise run sentences together
	doc.Find("br").ReplaceWithHtml(" ")
	doc.Find("p, li, div, h1, h2, h3, h4, h5, h6").AppendHtml(" ")
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// LoadTemplates parses the embedded page templates
func LoadTemplates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}
