// Package graph implements the step-sequencing engine for the travel
// planner: a fixed topology of named steps, each returning a partial state
// update, with conditional routing resolved by pure router functions.
package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// End is the terminal marker. Routing to End finishes the run.
const End = "__end__"

// defaultMaxRunSteps bounds a single run so a miswired loop cannot spin
// forever. The full topology plus one correction cycle stays well below it.
const defaultMaxRunSteps = 50

// ErrBadRoute is returned when a router picks a step that was not declared
// as a valid target for its decision point.
var ErrBadRoute = errors.New("graph: router returned undeclared step")

// ErrMaxSteps is returned when a run exceeds the step budget.
var ErrMaxSteps = errors.New("graph: max run steps exceeded")

// StepFunc transforms state into a partial update. Implementations must not
// mutate the state they receive.
type StepFunc func(ctx context.Context, s *trip.TripState) (trip.Update, error)

// RouterFunc picks the next step name from current state. It must be a pure
// function of field values and return one of the declared targets.
type RouterFunc func(s *trip.TripState) string

// Event is one completed step in execution order. A non-nil Err means the
// run aborted after this step.
type Event struct {
	Step   string
	Update trip.Update
	Err    error
}

// Checkpointer persists per-conversation state snapshots so a later request
// can continue an earlier planning session.
type Checkpointer interface {
	Load(ctx context.Context, id string) (*trip.TripState, error)
	Save(ctx context.Context, id string, s *trip.TripState) error
}

type edge struct {
	next    string
	router  RouterFunc
	targets map[string]bool
}

// Builder accumulates the step/edge topology before compilation.
type Builder struct {
	steps       map[string]StepFunc
	edges       map[string]edge
	entry       string
	maxRunSteps int
	errs        []error
}

func New() *Builder {
	return &Builder{
		steps:       make(map[string]StepFunc),
		edges:       make(map[string]edge),
		maxRunSteps: defaultMaxRunSteps,
	}
}

func (b *Builder) AddStep(name string, fn StepFunc) *Builder {
	if name == "" || name == End {
		b.errs = append(b.errs, fmt.Errorf("graph: invalid step name %q", name))
		return b
	}
	if _, dup := b.steps[name]; dup {
		b.errs = append(b.errs, fmt.Errorf("graph: duplicate step %q", name))
		return b
	}
	if fn == nil {
		b.errs = append(b.errs, fmt.Errorf("graph: nil step func for %q", name))
		return b
	}
	b.steps[name] = fn
	return b
}

// AddEdge declares a fixed transition from one step to another (or to End).
func (b *Builder) AddEdge(from, to string) *Builder {
	if _, dup := b.edges[from]; dup {
		b.errs = append(b.errs, fmt.Errorf("graph: step %q already has an outgoing edge", from))
		return b
	}
	b.edges[from] = edge{next: to}
	return b
}

// AddRouter declares a conditional transition resolved at run time. The
// router may only return one of the listed targets.
func (b *Builder) AddRouter(from string, r RouterFunc, targets ...string) *Builder {
	if _, dup := b.edges[from]; dup {
		b.errs = append(b.errs, fmt.Errorf("graph: step %q already has an outgoing edge", from))
		return b
	}
	if r == nil {
		b.errs = append(b.errs, fmt.Errorf("graph: nil router for %q", from))
		return b
	}
	if len(targets) == 0 {
		b.errs = append(b.errs, fmt.Errorf("graph: router for %q has no targets", from))
		return b
	}
	set := make(map[string]bool, len(targets))
	for _, t := range targets {
		set[t] = true
	}
	b.edges[from] = edge{router: r, targets: set}
	return b
}

func (b *Builder) SetEntry(name string) *Builder {
	b.entry = name
	return b
}

func (b *Builder) WithMaxRunSteps(n int) *Builder {
	if n > 0 {
		b.maxRunSteps = n
	}
	return b
}

// Compile validates the topology and returns an executable graph. Any
// dangling edge, unknown target, or missing entry is a configuration error.
func (b *Builder) Compile() (*Runnable, error) {
	errs := append([]error{}, b.errs...)

	if b.entry == "" {
		errs = append(errs, errors.New("graph: entry step not set"))
	} else if _, ok := b.steps[b.entry]; !ok {
		errs = append(errs, fmt.Errorf("graph: entry step %q not registered", b.entry))
	}

	known := func(name string) bool {
		if name == End {
			return true
		}
		_, ok := b.steps[name]
		return ok
	}

	for from, e := range b.edges {
		if _, ok := b.steps[from]; !ok {
			errs = append(errs, fmt.Errorf("graph: edge from unknown step %q", from))
		}
		if e.router == nil {
			if !known(e.next) {
				errs = append(errs, fmt.Errorf("graph: edge %q -> %q targets unknown step", from, e.next))
			}
			continue
		}
		for t := range e.targets {
			if !known(t) {
				errs = append(errs, fmt.Errorf("graph: router on %q targets unknown step %q", from, t))
			}
		}
	}

	for name := range b.steps {
		if _, ok := b.edges[name]; !ok {
			errs = append(errs, fmt.Errorf("graph: step %q has no outgoing edge", name))
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return &Runnable{
		steps:       b.steps,
		edges:       b.edges,
		entry:       b.entry,
		maxRunSteps: b.maxRunSteps,
	}, nil
}

// Runnable is a compiled, immutable graph. It is safe for concurrent use;
// all run state lives in the TripState passed per call.
type Runnable struct {
	steps       map[string]StepFunc
	edges       map[string]edge
	entry       string
	maxRunSteps int
}

// Invoke runs the graph to completion and returns the final state. The
// input state is mutated in place as updates are applied.
func (r *Runnable) Invoke(ctx context.Context, state *trip.TripState) (*trip.TripState, error) {
	err := r.run(ctx, state, nil)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// InvokeWithCheckpoint loads any prior snapshot for the conversation,
// merges the caller-supplied input on top (caller fields win, messages
// append) and runs from the entry step. Checkpoint load/save failures
// degrade to an uncheckpointed run; they never fail the request.
func (r *Runnable) InvokeWithCheckpoint(ctx context.Context, cp Checkpointer, id string, input trip.Update) (*trip.TripState, error) {
	state := trip.NewState()
	if cp != nil && id != "" {
		prior, err := cp.Load(ctx, id)
		switch {
		case err != nil:
			logx.Warn().Err(err).Str("conversation_id", id).Msg("checkpoint load failed; starting fresh")
		case prior != nil:
			state = prior
		}
	}
	input.Apply(state)

	final, err := r.Invoke(ctx, state)
	if err != nil {
		return nil, err
	}

	if cp != nil && id != "" {
		if err := cp.Save(ctx, id, final); err != nil {
			logx.Warn().Err(err).Str("conversation_id", id).Msg("checkpoint save failed")
		}
	}
	return final, nil
}

// Stream runs the graph on its own goroutine and emits one Event per
// completed step in execution order. The channel closing is the terminal
// event. After ctx is cancelled the in-flight step finishes but no further
// steps are scheduled and no further events are emitted.
func (r *Runnable) Stream(ctx context.Context, state *trip.TripState) <-chan Event {
	out := make(chan Event)
	go func() {
		defer close(out)
		emit := func(ev Event) bool {
			select {
			case out <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}
		if err := r.run(ctx, state, emit); err != nil && ctx.Err() == nil {
			logx.Error().Err(err).Msg("graph stream aborted")
		}
	}()
	return out
}

// RunStep executes a single named step against the state and applies its
// update. The streaming session uses this for partial re-runs during
// refinement.
func (r *Runnable) RunStep(ctx context.Context, name string, state *trip.TripState) (trip.Update, error) {
	fn, ok := r.steps[name]
	if !ok {
		return trip.Update{}, fmt.Errorf("graph: unknown step %q", name)
	}
	update, err := fn(ctx, state)
	if err != nil {
		return trip.Update{}, fmt.Errorf("graph: step %q: %w", name, err)
	}
	update.Apply(state)
	return update, nil
}

func (r *Runnable) run(ctx context.Context, state *trip.TripState, emit func(Event) bool) error {
	current := r.entry
	executed := 0

	for current != End {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("graph: run cancelled: %w", err)
		}
		if executed >= r.maxRunSteps {
			return fmt.Errorf("%w (%d)", ErrMaxSteps, r.maxRunSteps)
		}

		fn := r.steps[current]
		update, err := fn(ctx, state)
		if err != nil {
			err = fmt.Errorf("graph: step %q: %w", current, err)
			if emit != nil {
				emit(Event{Step: current, Err: err})
			}
			return err
		}
		update.Apply(state)
		executed++

		logx.Debug().Str("step", current).Msg("step completed")

		if emit != nil && !emit(Event{Step: current, Update: update}) {
			return nil
		}

		e := r.edges[current]
		next := e.next
		if e.router != nil {
			next = e.router(state)
			if !e.targets[next] {
				return fmt.Errorf("%w: %q from %q", ErrBadRoute, next, current)
			}
		}
		current = next
	}
	return nil
}
