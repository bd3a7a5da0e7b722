package service

import (
	"tv-finder/internal/models"
	"tv-finder/internal/tvmaze"
)

// NormalizeShow maps a provider show to a ShowSummary.
// A missing summary or medium image is replaced by its placeholder.
func NormalizeShow(show tvmaze.Show) models.ShowSummary {
	summary := show.Summary
	if summary == "" {
		summary = models.MissingSummary
	}

	image := models.MissingImageURL
	if show.Image != nil && show.Image.Medium != "" {
		image = show.Image.Medium
	}

	return models.ShowSummary{
		ID:      show.ID,
		Name:    show.Name,
		Summary: summary,
		Image:   image,
	}
}

// NormalizeEpisode maps a provider episode to an EpisodeSummary without defaulting
func NormalizeEpisode(ep tvmaze.Episode) models.EpisodeSummary {
	return models.EpisodeSummary{
		ID:     ep.ID,
		Name:   ep.Name,
		Season: ep.Season,
		Number: ep.Number,
	}
}
