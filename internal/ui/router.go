package ui

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"tv-finder/internal/service"
)

// InteractionType names a class of user interaction
type InteractionType string

const (
	SearchSubmitted   InteractionType = "search_submitted"
	EpisodesRequested InteractionType = "episodes_requested"
)

// Interaction is one user action routed to a handler
type Interaction struct {
	Type   InteractionType
	Query  string // SearchSubmitted
	ShowID int    // EpisodesRequested
}

// HandlerFunc handles one interaction
type HandlerFunc func(ctx context.Context, in Interaction)

// Router owns one browser's State and dispatches interactions to registered
// handlers. Each interaction class carries a generation counter; a response
// is rendered only while its generation is current, so the most recent
// request always wins.
type Router struct {
	mu          sync.Mutex
	state       *State
	generations map[InteractionType]uint64
	handlers    map[InteractionType]HandlerFunc

	provider service.ShowProvider
	recorder service.FailureRecorder
}

// NewRouter creates a Router with the search and episode handlers registered.
// Notices raised while serving an interaction reach the state only when its
// result is rendered.
func NewRouter(provider service.ShowProvider, recorder service.FailureRecorder) *Router {
	r := &Router{
		state:       &State{},
		generations: make(map[InteractionType]uint64),
		handlers:    make(map[InteractionType]HandlerFunc),
		provider:    provider,
		recorder:    recorder,
	}

	r.Handle(SearchSubmitted, r.handleSearch)
	r.Handle(EpisodesRequested, r.handleEpisodes)
	return r
}

// Handle registers h for interactions of type t, replacing any previous handler
func (r *Router) Handle(t InteractionType, h HandlerFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[t] = h
}

// Dispatch routes in to its handler and blocks until the handler returns
func (r *Router) Dispatch(ctx context.Context, in Interaction) error {
	r.mu.Lock()
	h, ok := r.handlers[in.Type]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("no handler for interaction %q", in.Type)
	}
	h(ctx, in)
	return nil
}

// ShowMessage implements service.Notifier. It queues text on the state
// immediately, for handlers registered with Handle.
func (r *Router) ShowMessage(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Notices = append(r.state.Notices, text)
}

// View returns a render-ready snapshot and drains pending notices
func (r *Router) View() View {
	r.mu.Lock()
	defer r.mu.Unlock()
	view := BuildView(r.state)
	r.state.Notices = nil
	return view
}

// Snapshot returns a copy of the current state without draining notices
func (r *Router) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := *r.state
	s.Shows = append(s.Shows[:0:0], s.Shows...)
	s.Episodes = append(s.Episodes[:0:0], s.Episodes...)
	s.Notices = append(s.Notices[:0:0], s.Notices...)
	return s
}

// nextGeneration must be called with r.mu held
func (r *Router) nextGeneration(t InteractionType) uint64 {
	r.generations[t]++
	return r.generations[t]
}

func (r *Router) handleSearch(ctx context.Context, in Interaction) {
	if strings.TrimSpace(in.Query) == "" {
		return
	}

	r.mu.Lock()
	ClearEpisodes(r.state)
	r.state.Query = in.Query
	gen := r.nextGeneration(SearchSubmitted)
	// a late episode list must not reopen the area this search just hid
	r.nextGeneration(EpisodesRequested)
	r.mu.Unlock()

	messages := &service.MessageLog{}
	shows := service.NewShowFinder(r.provider, r.recorder, messages).SearchShows(ctx, in.Query)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generations[SearchSubmitted] != gen {
		log.Printf("Dropping stale search result for %q", in.Query)
		return
	}
	// episodes opened while this search was in flight belong to the old grid
	ClearEpisodes(r.state)
	r.nextGeneration(EpisodesRequested)
	RenderShows(r.state, shows)
	r.state.Notices = append(r.state.Notices, messages.Messages()...)
}

func (r *Router) handleEpisodes(ctx context.Context, in Interaction) {
	r.mu.Lock()
	gen := r.nextGeneration(EpisodesRequested)
	r.mu.Unlock()

	messages := &service.MessageLog{}
	episodes := service.NewEpisodeBrowser(r.provider, r.recorder, messages).GetEpisodes(ctx, in.ShowID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generations[EpisodesRequested] != gen {
		log.Printf("Dropping stale episode list for show %d", in.ShowID)
		return
	}
	RenderEpisodes(r.state, in.ShowID, episodes)
	r.state.Notices = append(r.state.Notices, messages.Messages()...)
}
