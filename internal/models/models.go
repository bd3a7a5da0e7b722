package models

import "time"

const (
	// MissingImageURL substitutes for a show without a provider image
	MissingImageURL = "http://tinyurl.com/missing-tv"
	// MissingSummary substitutes for a show without a provider summary
	MissingSummary = "No summary available"
)

// ShowSummary is a display-ready search result
type ShowSummary struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Summary string `json:"summary"` // provider HTML fragment or MissingSummary
	Image   string `json:"image"`   // medium image URL or MissingImageURL
}

// EpisodeSummary is a display-ready episode of one show.
// Season and Number are passed through from the provider and may be nil.
type EpisodeSummary struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Season *int   `json:"season"`
	Number *int   `json:"number"`
}

// ProviderError is a diagnostic record of a failed provider call
type ProviderError struct {
	ID         int64     `json:"id"`
	Operation  string    `json:"operation"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurred_at"`
}
