package service

import (
	"context"

	"tv-finder/internal/models"
)

const (
	OpSearchShows = "search_shows"

	searchFailedMessage = "Error fetching shows. Please try again."
)

// ShowFinder turns a free-text query into display-ready shows
type ShowFinder struct {
	provider ShowProvider
	recorder FailureRecorder
	notifier Notifier
}

// NewShowFinder creates a new ShowFinder. A nil recorder or notifier discards.
func NewShowFinder(provider ShowProvider, recorder FailureRecorder, notifier Notifier) *ShowFinder {
	if recorder == nil {
		recorder = discardRecorder{}
	}
	if notifier == nil {
		notifier = discardNotifier{}
	}
	return &ShowFinder{
		provider: provider,
		recorder: recorder,
		notifier: notifier,
	}
}

// SearchShows returns the provider's matches for query in provider order.
// The query is not validated; callers reject blank input.
// Provider failures are recorded, reported to the user and yield an empty slice.
func (f *ShowFinder) SearchShows(ctx context.Context, query string) []models.ShowSummary {
	matches, err := f.provider.SearchShows(ctx, query)
	if err != nil {
		f.recorder.Record(OpSearchShows, err)
		f.notifier.ShowMessage(searchFailedMessage)
		return []models.ShowSummary{}
	}

	shows := make([]models.ShowSummary, 0, len(matches))
	for _, match := range matches {
		shows = append(shows, NormalizeShow(match.Show))
	}
	return shows
}
