package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyago-poc/server/internal/trip"
)

// recordStep appends its name to the trace and returns an empty update.
func recordStep(name string, trace *[]string) StepFunc {
	return func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		*trace = append(*trace, name)
		return trip.Update{}, nil
	}
}

func TestCompileValidation(t *testing.T) {
	noop := func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		return trip.Update{}, nil
	}

	t.Run("missing entry", func(t *testing.T) {
		_, err := New().AddStep("a", noop).AddEdge("a", End).Compile()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "entry step not set")
	})

	t.Run("edge to unknown step", func(t *testing.T) {
		_, err := New().AddStep("a", noop).AddEdge("a", "ghost").SetEntry("a").Compile()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown step")
	})

	t.Run("step without outgoing edge", func(t *testing.T) {
		_, err := New().
			AddStep("a", noop).AddStep("b", noop).
			AddEdge("a", "b").SetEntry("a").Compile()
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"b" has no outgoing edge`)
	})

	t.Run("duplicate step", func(t *testing.T) {
		_, err := New().
			AddStep("a", noop).AddStep("a", noop).
			AddEdge("a", End).SetEntry("a").Compile()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate step")
	})

	t.Run("router target not registered", func(t *testing.T) {
		_, err := New().
			AddStep("a", noop).
			AddRouter("a", func(s *trip.TripState) string { return "ghost" }, "ghost").
			SetEntry("a").Compile()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "targets unknown step")
	})
}

func TestInvokeRunsInOrder(t *testing.T) {
	var trace []string
	g, err := New().
		AddStep("a", recordStep("a", &trace)).
		AddStep("b", recordStep("b", &trace)).
		AddStep("c", recordStep("c", &trace)).
		SetEntry("a").
		AddEdge("a", "b").
		AddEdge("b", "c").
		AddEdge("c", End).
		Compile()
	require.NoError(t, err)

	final, err := g.Invoke(context.Background(), trip.NewState())
	require.NoError(t, err)
	require.NotNil(t, final)
	assert.Equal(t, []string{"a", "b", "c"}, trace)
}

func TestInvokeAppliesUpdates(t *testing.T) {
	g, err := New().
		AddStep("set", func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
			return trip.Update{Destination: trip.String("LHR")}, nil
		}).
		AddStep("read", func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
			return trip.Update{Itinerary: trip.String("to " + s.Destination)}, nil
		}).
		SetEntry("set").
		AddEdge("set", "read").
		AddEdge("read", End).
		Compile()
	require.NoError(t, err)

	final, err := g.Invoke(context.Background(), trip.NewState())
	require.NoError(t, err)
	assert.Equal(t, "to LHR", final.Itinerary)
}

func TestRouterPicksBranch(t *testing.T) {
	var trace []string
	build := func() *Runnable {
		g, err := New().
			AddStep("decide", recordStep("decide", &trace)).
			AddStep("hit", recordStep("hit", &trace)).
			AddStep("miss", recordStep("miss", &trace)).
			SetEntry("decide").
			AddRouter("decide", func(s *trip.TripState) string {
				if s.Cached {
					return "hit"
				}
				return "miss"
			}, "hit", "miss").
			AddEdge("hit", End).
			AddEdge("miss", End).
			Compile()
		require.NoError(t, err)
		return g
	}

	trace = nil
	s := trip.NewState()
	s.Cached = true
	_, err := build().Invoke(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, []string{"decide", "hit"}, trace)

	trace = nil
	_, err = build().Invoke(context.Background(), trip.NewState())
	require.NoError(t, err)
	assert.Equal(t, []string{"decide", "miss"}, trace)
}

func TestRouterReturningUndeclaredStepFails(t *testing.T) {
	noop := func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		return trip.Update{}, nil
	}
	g, err := New().
		AddStep("a", noop).
		AddStep("b", noop).
		SetEntry("a").
		AddRouter("a", func(s *trip.TripState) string { return End }, "b").
		AddEdge("b", End).
		Compile()
	require.NoError(t, err)

	_, err = g.Invoke(context.Background(), trip.NewState())
	assert.ErrorIs(t, err, ErrBadRoute)
}

func TestStepErrorAbortsRun(t *testing.T) {
	boom := errors.New("boom")
	var trace []string
	g, err := New().
		AddStep("a", recordStep("a", &trace)).
		AddStep("b", func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
			return trip.Update{}, boom
		}).
		AddStep("c", recordStep("c", &trace)).
		SetEntry("a").
		AddEdge("a", "b").
		AddEdge("b", "c").
		AddEdge("c", End).
		Compile()
	require.NoError(t, err)

	_, err = g.Invoke(context.Background(), trip.NewState())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a"}, trace, "steps after the failure must not run")
}

func TestMaxRunStepsStopsLoops(t *testing.T) {
	noop := func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		return trip.Update{}, nil
	}
	g, err := New().
		AddStep("a", noop).
		AddStep("b", noop).
		SetEntry("a").
		AddEdge("a", "b").
		AddEdge("b", "a").
		WithMaxRunSteps(10).
		Compile()
	require.NoError(t, err)

	_, err = g.Invoke(context.Background(), trip.NewState())
	assert.ErrorIs(t, err, ErrMaxSteps)
}

func TestStreamEmitsOneEventPerStepInOrder(t *testing.T) {
	g, err := New().
		AddStep("a", func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
			return trip.Update{Origin: trip.String("JFK")}, nil
		}).
		AddStep("b", func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
			return trip.Update{Destination: trip.String("LHR")}, nil
		}).
		SetEntry("a").
		AddEdge("a", "b").
		AddEdge("b", End).
		Compile()
	require.NoError(t, err)

	var events []Event
	for ev := range g.Stream(context.Background(), trip.NewState()) {
		events = append(events, ev)
	}

	require.Len(t, events, 2)
	assert.Equal(t, "a", events[0].Step)
	require.NotNil(t, events[0].Update.Origin)
	assert.Equal(t, "JFK", *events[0].Update.Origin)
	assert.Equal(t, "b", events[1].Step)
	require.NoError(t, events[1].Err)
}

func TestStreamCancellationStopsScheduling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var ran []string
	g, err := New().
		AddStep("a", func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
			ran = append(ran, "a")
			cancel()
			return trip.Update{}, nil
		}).
		AddStep("b", func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
			ran = append(ran, "b")
			return trip.Update{}, nil
		}).
		SetEntry("a").
		AddEdge("a", "b").
		AddEdge("b", End).
		Compile()
	require.NoError(t, err)

	for range g.Stream(ctx, trip.NewState()) {
	}

	assert.Equal(t, []string{"a"}, ran, "no step may start after cancellation")
}

// memCheckpointer is an in-memory Checkpointer for engine tests.
type memCheckpointer struct {
	states map[string]*trip.TripState
	err    error
}

func (m *memCheckpointer) Load(ctx context.Context, id string) (*trip.TripState, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.states[id], nil
}

func (m *memCheckpointer) Save(ctx context.Context, id string, s *trip.TripState) error {
	if m.err != nil {
		return m.err
	}
	if m.states == nil {
		m.states = map[string]*trip.TripState{}
	}
	m.states[id] = s.Clone()
	return nil
}

func passthroughGraph(t *testing.T) *Runnable {
	t.Helper()
	g, err := New().
		AddStep("noop", func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
			return trip.Update{}, nil
		}).
		SetEntry("noop").
		AddEdge("noop", End).
		Compile()
	require.NoError(t, err)
	return g
}

func TestInvokeWithCheckpoint(t *testing.T) {
	g := passthroughGraph(t)

	t.Run("fresh conversation starts from defaults plus input", func(t *testing.T) {
		cp := &memCheckpointer{}
		final, err := g.InvokeWithCheckpoint(context.Background(), cp, "c1",
			trip.Update{Destination: trip.String("LHR")})
		require.NoError(t, err)
		assert.Equal(t, "LHR", final.Destination)
		assert.Equal(t, 4.0, final.MinRating, "defaults apply on a fresh run")
		require.NotNil(t, cp.states["c1"], "final state is saved")
	})

	t.Run("caller input wins over the snapshot", func(t *testing.T) {
		prior := trip.NewState()
		prior.Destination = "LHR"
		prior.MinRating = 4.5
		cp := &memCheckpointer{states: map[string]*trip.TripState{"c1": prior}}

		final, err := g.InvokeWithCheckpoint(context.Background(), cp, "c1",
			trip.Update{MinRating: trip.Float(3.0)})
		require.NoError(t, err)
		assert.Equal(t, 3.0, final.MinRating)
		assert.Equal(t, "LHR", final.Destination, "untouched snapshot fields survive")
	})

	t.Run("continuation extends the saved message history", func(t *testing.T) {
		talk, err := New().
			AddStep("talk", func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
				return trip.Update{
					Itinerary: trip.String("day 1"),
					Messages:  []*schema.Message{schema.AssistantMessage("day 1", nil)},
				}, nil
			}).
			SetEntry("talk").
			AddEdge("talk", End).
			Compile()
		require.NoError(t, err)

		prior := trip.NewState()
		prior.Destination = "LHR"
		prior.Messages = []*schema.Message{
			schema.UserMessage("plan me a trip"),
			schema.AssistantMessage("day 0", nil),
		}
		cp := &memCheckpointer{states: map[string]*trip.TripState{"c1": prior.Clone()}}

		final, err := talk.InvokeWithCheckpoint(context.Background(), cp, "c1",
			trip.Update{StartDate: trip.String("2026-09-10")})
		require.NoError(t, err)

		require.Greater(t, len(final.Messages), len(prior.Messages),
			"a continued conversation always grows the transcript")
		assert.Equal(t, "plan me a trip", final.Messages[0].Content)
		assert.Equal(t, "day 0", final.Messages[1].Content)
		assert.Equal(t, "day 1", final.Messages[2].Content)
		assert.Equal(t, "LHR", final.Destination, "snapshot fields survive the continuation")
		assert.Equal(t, "2026-09-10", final.StartDate)

		saved := cp.states["c1"]
		require.NotNil(t, saved)
		assert.Len(t, saved.Messages, 3, "the grown transcript is checkpointed")
	})

	t.Run("load failure degrades to a fresh run", func(t *testing.T) {
		cp := &memCheckpointer{err: errors.New("redis down")}
		final, err := g.InvokeWithCheckpoint(context.Background(), cp, "c1",
			trip.Update{Destination: trip.String("CDG")})
		require.NoError(t, err)
		assert.Equal(t, "CDG", final.Destination)
	})
}

func TestRunStepAppliesSingleStep(t *testing.T) {
	g, err := New().
		AddStep("set", func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
			return trip.Update{Itinerary: trip.String("day 1")}, nil
		}).
		SetEntry("set").
		AddEdge("set", End).
		Compile()
	require.NoError(t, err)

	s := trip.NewState()
	update, err := g.RunStep(context.Background(), "set", s)
	require.NoError(t, err)
	require.NotNil(t, update.Itinerary)
	assert.Equal(t, "day 1", s.Itinerary)

	_, err = g.RunStep(context.Background(), "ghost", s)
	assert.Error(t, err)
}
