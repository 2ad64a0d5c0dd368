package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/voyago-poc/server/internal/session"
	"github.com/voyago-poc/server/internal/trip"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Plan a trip interactively from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		userID, _ := cmd.Flags().GetString("user")
		a, err := bootstrap(ctx, userID)
		if err != nil {
			return err
		}
		defer a.close()

		in := bufio.NewScanner(os.Stdin)
		fmt.Println("Welcome to Voyago. Let's plan your trip.")

		initial := promptTrip(in)

		sess := session.New(session.Options{
			Graph:          a.graph,
			Generator:      a.generator,
			Preferences:    a.preferences,
			Finder:         a.store,
			Checkpointer:   a.checkpointer,
			UserID:         userID,
			ConversationID: "cli-" + userID,
		})

		emitter := &cliEmitter{session: sess}
		feedback := &cliFeedback{in: in}
		return sess.Run(ctx, initial, emitter, feedback)
	},
}

func init() {
	chatCmd.Flags().String("user", "local", "user id for preference memory")
	rootCmd.AddCommand(chatCmd)
}

// promptTrip collects the trip parameters, keeping the planner defaults for
// blank answers.
func promptTrip(in *bufio.Scanner) trip.Update {
	u := trip.Update{}
	if v := ask(in, "Origin airport/city"); v != "" {
		u.Origin = trip.String(v)
	}
	if v := ask(in, "Destination airport/city"); v != "" {
		u.Destination = trip.String(v)
	}
	if v := ask(in, "Start date (YYYY-MM-DD)"); v != "" {
		u.StartDate = trip.String(v)
	}
	if v := ask(in, "End date (YYYY-MM-DD)"); v != "" {
		u.EndDate = trip.String(v)
	}
	if v := ask(in, "Bedrooms [1]"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			u.Bedrooms = trip.Int(n)
		}
	}
	if v := ask(in, "Max price per night [200]"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			u.MaxPricePerNight = trip.Float(f)
		}
	}
	if v := ask(in, "Minimum hotel rating [4.0]"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			u.MinRating = trip.Float(f)
		}
	}
	return u
}

func ask(in *bufio.Scanner, prompt string) string {
	fmt.Printf("%s: ", prompt)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

// cliEmitter prints step progress as it happens and a plan summary on every
// complete event.
type cliEmitter struct {
	session *session.Session
}

func (e *cliEmitter) Emit(ev session.Event) error {
	switch ev.Type {
	case "status":
		fmt.Println(ev.Message)
	case "update":
		if ev.Step != "" {
			fmt.Printf("  ✓ %s\n", ev.Step)
		}
		if ev.Message != "" {
			fmt.Println(ev.Message)
		}
	case "complete":
		printSummary(e.session.State(), ev.Cached)
		fmt.Println("Tell me what to change, or type 'quit' to finish.")
	}
	return nil
}

func printSummary(s *trip.TripState, cached bool) {
	fmt.Println()
	if cached {
		fmt.Println("(using a recent plan for this trip)")
	}
	if s.WeatherSummary != "" {
		fmt.Printf("Weather: %s\n", s.WeatherSummary)
	}

	if len(s.RecommendedHotels) > 0 {
		fmt.Println("Top accommodations:")
		for i, h := range s.RecommendedHotels {
			if i >= 3 {
				break
			}
			fmt.Printf("  %d. %s %s — %s\n", i+1, h.Name, formatRating(h.Rating), formatPrice(h.Price, "/night"))
		}
	}

	if len(s.Flights) > 0 {
		fmt.Println("Top flights:")
		for i, f := range s.Flights {
			if i >= 3 {
				break
			}
			fmt.Printf("  %d. %s %s → %s — %s\n", i+1, f.Airline, f.Origin, f.Destination, formatPrice(f.Price, ""))
		}
	}

	if s.TripAnalysis != "" {
		fmt.Printf("Agent note: %s\n", s.TripAnalysis)
	}
	if s.Itinerary != "" {
		fmt.Println("\nItinerary:")
		fmt.Println(s.Itinerary)
	}
	fmt.Println()
}

func formatPrice(p *float64, suffix string) string {
	if p == nil {
		return "price unavailable"
	}
	return fmt.Sprintf("$%.0f%s", *p, suffix)
}

func formatRating(r *float64) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("(%.1f★)", *r)
}

// cliFeedback reads refinement lines from stdin until EOF or quit.
type cliFeedback struct {
	in *bufio.Scanner
}

func (f *cliFeedback) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		fmt.Print("> ")
		if !f.in.Scan() {
			return "", io.EOF
		}
		line := strings.TrimSpace(f.in.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "quit", "exit":
			return "", io.EOF
		}
		return line, nil
	}
}
