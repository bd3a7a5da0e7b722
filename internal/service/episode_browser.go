package service

import (
	"context"

	"tv-finder/internal/models"
)

const (
	OpGetEpisodes = "get_episodes"

	episodesFailedMessage = "Error fetching episodes. Please try again."
)

// EpisodeBrowser fetches the episode list of one show
type EpisodeBrowser struct {
	provider ShowProvider
	recorder FailureRecorder
	notifier Notifier
}

// NewEpisodeBrowser creates a new EpisodeBrowser. A nil recorder or notifier discards.
func NewEpisodeBrowser(provider ShowProvider, recorder FailureRecorder, notifier Notifier) *EpisodeBrowser {
	if recorder == nil {
		recorder = discardRecorder{}
	}
	if notifier == nil {
		notifier = discardNotifier{}
	}
	return &EpisodeBrowser{
		provider: provider,
		recorder: recorder,
		notifier: notifier,
	}
}

// GetEpisodes returns the episodes of showID in provider order, never re-sorted.
// Failures are recorded, reported to the user and yield an empty slice.
func (b *EpisodeBrowser) GetEpisodes(ctx context.Context, showID int) []models.EpisodeSummary {
	raw, err := b.provider.GetEpisodes(ctx, showID)
	if err != nil {
		b.recorder.Record(OpGetEpisodes, err)
		b.notifier.ShowMessage(episodesFailedMessage)
		return []models.EpisodeSummary{}
	}

	episodes := make([]models.EpisodeSummary, 0, len(raw))
	for _, ep := range raw {
		episodes = append(episodes, NormalizeEpisode(ep))
	}
	return episodes
}
