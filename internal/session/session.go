// Package session drives one interactive planning conversation: an initial
// plan streamed step by step, then a refinement loop where free-text
// feedback is turned into a structured state diff and the affected steps
// are re-run.
package session

import (
	"context"
	"fmt"

	"github.com/voyago-poc/server/internal/graph"
	"github.com/voyago-poc/server/internal/graph/steps"
	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// Event is one message pushed to the client. Type is "status", "update" or
// "complete"; Update carries the state diff for update events.
type Event struct {
	Type    string       `json:"type"`
	Step    string       `json:"step,omitempty"`
	Message string       `json:"message,omitempty"`
	Update  *trip.Update `json:"update,omitempty"`
	Cached  bool         `json:"cached,omitempty"`
}

// Emitter pushes events to the client. A non-nil error means the transport
// is gone and the session must stop.
type Emitter interface {
	Emit(Event) error
}

// FeedbackSource yields the user's refinement messages in order. It returns
// io.EOF (or any error) when the client is done.
type FeedbackSource interface {
	Next(ctx context.Context) (string, error)
}

// Session owns the state of one conversation. Not safe for concurrent use;
// run it on a single goroutine.
type Session struct {
	graph  *graph.Runnable
	gen    steps.Generator
	prefs  steps.PreferenceStore
	finder TripFinder
	cp     graph.Checkpointer

	userID         string
	conversationID string

	state *trip.TripState
}

// TripFinder is the whole-trip cache lookup used for the pre-graph
// short-circuit. A (nil, nil) return is a miss.
type TripFinder interface {
	FindCachedTrip(ctx context.Context, q trip.CacheQuery) (*trip.CachedTrip, error)
}

type Options struct {
	Graph          *graph.Runnable
	Generator      steps.Generator
	Preferences    steps.PreferenceStore
	Finder         TripFinder
	Checkpointer   graph.Checkpointer
	UserID         string
	ConversationID string
}

func New(opts Options) *Session {
	return &Session{
		graph:          opts.Graph,
		gen:            opts.Generator,
		prefs:          opts.Preferences,
		finder:         opts.Finder,
		cp:             opts.Checkpointer,
		userID:         opts.UserID,
		conversationID: opts.ConversationID,
	}
}

// Run executes the initial plan for the request, then consumes feedback
// until the source or the context ends. Transport errors end the session;
// planning errors are reported as update events and the loop continues.
func (s *Session) Run(ctx context.Context, initial trip.Update, emitter Emitter, feedback FeedbackSource) error {
	if err := s.plan(ctx, initial, emitter); err != nil {
		return err
	}

	for {
		text, err := feedback.Next(ctx)
		if err != nil {
			logx.Debug().Err(err).Str("conversation_id", s.conversationID).Msg("feedback source closed")
			return nil
		}
		if err := s.refine(ctx, text, emitter); err != nil {
			return err
		}
	}
}

// State returns the session's current state snapshot.
func (s *Session) State() *trip.TripState {
	return s.state.Clone()
}

func (s *Session) plan(ctx context.Context, initial trip.Update, emitter Emitter) error {
	s.state = s.loadState(ctx)
	initial.Apply(s.state)

	if hit := s.lookupCached(ctx); hit != nil {
		update := cachedUpdate(hit)
		update.Apply(s.state)
		if err := emitter.Emit(Event{Type: "update", Step: steps.StepCache, Update: &update, Cached: true}); err != nil {
			return err
		}
		s.saveState(ctx)
		return emitter.Emit(Event{Type: "complete", Message: "Trip plan ready.", Cached: true})
	}

	if err := emitter.Emit(Event{Type: "status", Message: "Planning your trip..."}); err != nil {
		return err
	}

	for ev := range s.graph.Stream(ctx, s.state) {
		if ev.Err != nil {
			logx.Error().Err(ev.Err).Str("step", ev.Step).Msg("planning step failed")
			return emitter.Emit(Event{Type: "update", Step: ev.Step, Message: "Planning failed. Please try again."})
		}
		update := ev.Update
		if err := emitter.Emit(Event{Type: "update", Step: ev.Step, Update: &update}); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.saveState(ctx)
	return emitter.Emit(Event{Type: "complete", Message: "Trip plan ready."})
}

// refine turns one feedback message into a state diff and re-runs the
// affected steps. Extraction failures are recoverable; the client is told
// and the loop goes on.
func (s *Session) refine(ctx context.Context, text string, emitter Emitter) error {
	diff, err := s.gen.ExtractStateUpdate(ctx, s.state, text)
	if err != nil {
		logx.Warn().Err(err).Str("conversation_id", s.conversationID).Msg("feedback extraction failed")
		return emitter.Emit(Event{Type: "update", Message: "Sorry, I couldn't work out what to change. Could you rephrase?"})
	}

	update := diff.ToUpdate()
	if diff.NewPreference != "" {
		if s.prefs != nil {
			if err := s.prefs.Add(ctx, s.userID, diff.NewPreference); err != nil {
				logx.Warn().Err(err).Str("user_id", s.userID).Msg("preference not persisted")
			}
		}
		update.UserPreferences = []string{diff.NewPreference}
	}
	update.Apply(s.state)

	// The client mirrors state by applying the same updates the engine
	// does, so the diff itself goes out before the re-run results.
	if !update.IsZero() {
		if err := emitter.Emit(Event{Type: "update", Update: &update}); err != nil {
			return err
		}
	}

	// A hotel re-run changes the recommendations the itinerary is built
	// from, so it always forces an itinerary re-run too.
	rerunItinerary := diff.RerunItinerary || diff.RerunHotels

	if diff.RerunHotels {
		if err := s.rerunStep(ctx, steps.StepRecommendHotels, emitter); err != nil {
			return err
		}
	}
	if rerunItinerary {
		if err := s.rerunStep(ctx, steps.StepItinerary, emitter); err != nil {
			return err
		}
	}

	s.saveState(ctx)
	return emitter.Emit(Event{Type: "complete", Message: "updated"})
}

func (s *Session) rerunStep(ctx context.Context, name string, emitter Emitter) error {
	update, err := s.graph.RunStep(ctx, name, s.state)
	if err != nil {
		logx.Warn().Err(err).Str("step", name).Msg("refinement step failed")
		return emitter.Emit(Event{Type: "update", Step: name, Message: fmt.Sprintf("Could not refresh %s.", name)})
	}
	return emitter.Emit(Event{Type: "update", Step: name, Update: &update})
}

func (s *Session) lookupCached(ctx context.Context) *trip.CachedTrip {
	if s.finder == nil {
		return nil
	}
	hit, err := s.finder.FindCachedTrip(ctx, trip.CacheQuery{
		Origin:      s.state.Origin,
		Destination: s.state.Destination,
		StartDate:   s.state.StartDate,
		EndDate:     s.state.EndDate,
		TripPurpose: s.state.TripPurpose,
	})
	if err != nil {
		logx.Warn().Err(err).Msg("trip cache lookup failed")
		return nil
	}
	return hit
}

// cachedUpdate rebuilds a state update from a stored snapshot so a cache
// hit flows through the same reducer as live results.
func cachedUpdate(hit *trip.CachedTrip) trip.Update {
	u := trip.Update{
		Flights:        hit.Flights,
		Accommodations: hit.Accommodations,
		Cached:         trip.Bool(true),
	}
	if hit.OriginCity != "" {
		u.OriginCity = trip.String(hit.OriginCity)
	}
	if hit.DestinationCity != "" {
		u.DestinationCity = trip.String(hit.DestinationCity)
	}
	if hit.WeatherSummary != "" {
		u.WeatherSummary = trip.String(hit.WeatherSummary)
	}
	if hit.WeatherInfo != nil {
		u.WeatherInfo = hit.WeatherInfo
	}
	if hit.Itinerary != "" {
		u.Itinerary = trip.String(hit.Itinerary)
	}
	return u
}

func (s *Session) loadState(ctx context.Context) *trip.TripState {
	if s.cp == nil || s.conversationID == "" {
		return trip.NewState()
	}
	prior, err := s.cp.Load(ctx, s.conversationID)
	if err != nil {
		logx.Warn().Err(err).Str("conversation_id", s.conversationID).Msg("checkpoint load failed; starting fresh")
		return trip.NewState()
	}
	if prior == nil {
		return trip.NewState()
	}
	return prior
}

func (s *Session) saveState(ctx context.Context) {
	if s.cp == nil || s.conversationID == "" {
		return
	}
	if err := s.cp.Save(ctx, s.conversationID, s.state); err != nil {
		logx.Warn().Err(err).Str("conversation_id", s.conversationID).Msg("checkpoint save failed")
	}
}
