// Package api exposes the planner over HTTP: a one-shot JSON endpoint and a
// websocket endpoint for the interactive streaming session.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	errx "github.com/voyago-poc/server/internal/core/error"
	"github.com/voyago-poc/server/internal/graph"
	"github.com/voyago-poc/server/internal/graph/steps"
	"github.com/voyago-poc/server/internal/session"
	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// PlanRequest is the body of POST /plan and the first websocket frame of
// GET /ws/chat. Omitted fields keep the planner defaults.
type PlanRequest struct {
	ConversationID string `json:"conversation_id,omitempty"`
	UserID         string `json:"user_id,omitempty"`

	Origin          string `json:"origin"`
	Destination     string `json:"destination"`
	OriginID        string `json:"origin_id,omitempty"`
	DestinationID   string `json:"destination_id,omitempty"`
	OriginCity      string `json:"origin_city,omitempty"`
	DestinationCity string `json:"destination_city,omitempty"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`

	Bedrooms         *int     `json:"bedrooms,omitempty"`
	MaxPricePerNight *float64 `json:"max_price_per_night,omitempty"`
	MinRating        *float64 `json:"min_rating,omitempty"`
	Budget           *float64 `json:"budget,omitempty"`
	TripPurpose      string   `json:"trip_purpose,omitempty"`
	TravelParty      string   `json:"travel_party,omitempty"`
	Interests        string   `json:"interests,omitempty"`
}

// Update converts the request into a reducer update over the default state.
func (r PlanRequest) Update() trip.Update {
	u := trip.Update{
		Bedrooms:         r.Bedrooms,
		MaxPricePerNight: r.MaxPricePerNight,
		MinRating:        r.MinRating,
		Budget:           r.Budget,
	}
	setIf := func(dst **string, v string) {
		if v != "" {
			*dst = trip.String(v)
		}
	}
	setIf(&u.Origin, r.Origin)
	setIf(&u.Destination, r.Destination)
	setIf(&u.OriginID, r.OriginID)
	setIf(&u.DestinationID, r.DestinationID)
	setIf(&u.OriginCity, r.OriginCity)
	setIf(&u.DestinationCity, r.DestinationCity)
	setIf(&u.StartDate, r.StartDate)
	setIf(&u.EndDate, r.EndDate)
	setIf(&u.TripPurpose, r.TripPurpose)
	setIf(&u.TravelParty, r.TravelParty)
	setIf(&u.Interests, r.Interests)
	return u
}

// Server holds the compiled graph and the collaborators sessions need.
type Server struct {
	Graph        *graph.Runnable
	Generator    steps.Generator
	Preferences  steps.PreferenceStore
	Finder       session.TripFinder
	Checkpointer graph.Checkpointer

	upgrader websocket.Upgrader
}

// Handler builds the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/plan", s.handlePlan)
	r.Get("/ws/chat", s.handleChat)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handlePlan runs the whole graph synchronously and returns the final
// state. Adapter failures inside steps degrade to partial results, so a
// non-200 here means the engine or its configuration is broken.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	var req PlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errx.New(err, http.StatusBadRequest, "invalid request body"))
		return
	}
	if req.Origin == "" || req.Destination == "" {
		writeError(w, errx.New(errors.New("origin and destination are required"), http.StatusBadRequest, "origin and destination are required"))
		return
	}

	var (
		final *trip.TripState
		err   error
	)
	if req.ConversationID != "" {
		final, err = s.Graph.InvokeWithCheckpoint(r.Context(), s.Checkpointer, req.ConversationID, req.Update())
	} else {
		state := trip.NewState()
		req.Update().Apply(state)
		final, err = s.Graph.Invoke(r.Context(), state)
	}
	if err != nil {
		logx.Error().Err(err).Msg("plan request failed")
		writeError(w, errx.New(err, http.StatusInternalServerError, "planning failed"))
		return
	}

	writeJSON(w, http.StatusOK, final)
}

// handleChat upgrades to a websocket and runs an interactive session: the
// first frame is a PlanRequest, every later text frame is refinement
// feedback, and each session event goes out as one JSON frame.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logx.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	var req PlanRequest
	if err := conn.ReadJSON(&req); err != nil {
		logx.Warn().Err(err).Msg("invalid initial chat frame")
		return
	}
	if req.ConversationID == "" {
		req.ConversationID = uuid.NewString()
	}
	if req.UserID == "" {
		req.UserID = "anonymous"
	}

	sess := session.New(session.Options{
		Graph:          s.Graph,
		Generator:      s.Generator,
		Preferences:    s.Preferences,
		Finder:         s.Finder,
		Checkpointer:   s.Checkpointer,
		UserID:         req.UserID,
		ConversationID: req.ConversationID,
	})

	emitter := wsEmitter{conn: conn}
	feedback := wsFeedback{conn: conn}
	if err := sess.Run(r.Context(), req.Update(), emitter, feedback); err != nil {
		logx.Debug().Err(err).Str("conversation_id", req.ConversationID).Msg("chat session ended")
	}
}

type wsEmitter struct {
	conn *websocket.Conn
}

func (e wsEmitter) Emit(ev session.Event) error {
	return e.conn.WriteJSON(ev)
}

type wsFeedback struct {
	conn *websocket.Conn
}

func (f wsFeedback) Next(ctx context.Context) (string, error) {
	type frame struct {
		Message string `json:"message"`
	}
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		var fr frame
		if err := f.conn.ReadJSON(&fr); err != nil {
			return "", err
		}
		if fr.Message != "" {
			return fr.Message, nil
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("response encode failed")
	}
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *errx.AppError
	if !errors.As(err, &appErr) {
		appErr = errx.New(err, http.StatusInternalServerError, "internal error")
	}
	writeJSON(w, appErr.Status, map[string]string{"error": appErr.Message})
}
