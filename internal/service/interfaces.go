package service

import (
	"context"
	"sync"

	"tv-finder/internal/tvmaze"
)

// ShowProvider is the upstream show search and episode list API
type ShowProvider interface {
	SearchShows(ctx context.Context, query string) ([]tvmaze.SearchMatch, error)
	GetEpisodes(ctx context.Context, showID int) ([]tvmaze.Episode, error)
}

// Notifier displays a message to the user
type Notifier interface {
	ShowMessage(text string)
}

// FailureRecorder keeps a diagnostic record of failed provider calls
type FailureRecorder interface {
	Record(operation string, err error)
}

// Alerter forwards a failure to an operator channel
type Alerter interface {
	Alert(operation, message string) error
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(text string)

// ShowMessage calls f(text)
func (f NotifierFunc) ShowMessage(text string) {
	f(text)
}

// MessageLog collects user messages for responses that carry them inline
type MessageLog struct {
	mu       sync.Mutex
	messages []string
}

// ShowMessage appends text to the log
func (l *MessageLog) ShowMessage(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, text)
}

// Messages returns the collected messages, never nil
func (l *MessageLog) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.messages))
	copy(out, l.messages)
	return out
}

type discardNotifier struct{}

func (discardNotifier) ShowMessage(string) {}

type discardRecorder struct{}

func (discardRecorder) Record(string, error) {}
