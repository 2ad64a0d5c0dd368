package steps

import (
	"context"
	"sort"

	"github.com/voyago-poc/server/internal/graph"
	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// Widget priorities by content kind.
const (
	prioritySight    = 10
	priorityLocalGem = 8
	priorityNews     = 5
)

// NewCommunityStep fetches sights, local gems, news and discussions for the
// destination and shapes the first few of each into display widgets. Each
// sub-search fails independently; a failed one is logged and skipped.
func NewCommunityStep(svc CommunitySearcher) graph.StepFunc {
	return func(ctx context.Context, s *trip.TripState) (trip.Update, error) {
		location := s.DestinationQuery()
		if location == "" {
			logx.Warn().Msg("no destination for community search")
			return trip.Update{}, nil
		}

		u := trip.Update{}
		widgets := []trip.Widget{}

		if sights, err := svc.TopSights(ctx, location); err != nil {
			logx.Warn().Err(err).Msg("sights search failed")
		} else {
			u.TopSights = sights
			for _, sight := range head(sights, 3) {
				widgets = append(widgets, trip.Widget{
					Type:     "place_card",
					Priority: prioritySight,
					Data: map[string]any{
						"name":      firstOf(sight, "title", "name"),
						"type":      "Sightseeing",
						"rating":    sight["rating"],
						"reviews":   sight["reviews"],
						"address":   sight["address"],
						"thumbnail": sight["thumbnail"],
					},
				})
			}
		}

		if gems, err := svc.LocalPlaces(ctx, location); err != nil {
			logx.Warn().Err(err).Msg("local places search failed")
		} else {
			u.LocalPlaces = gems
			for _, gem := range head(gems, 3) {
				widgets = append(widgets, trip.Widget{
					Type:     "place_card",
					Priority: priorityLocalGem,
					Data: map[string]any{
						"name":      gem["title"],
						"type":      "Local Gem",
						"rating":    gem["rating"],
						"thumbnail": gem["thumbnail"],
					},
				})
			}
		}

		if news, err := svc.News(ctx, "latest travel news "+location); err != nil {
			logx.Warn().Err(err).Msg("news search failed")
		} else {
			u.LocalNews = news
			for _, item := range head(news, 3) {
				widgets = append(widgets, trip.Widget{
					Type:     "news_card",
					Priority: priorityNews,
					Data: map[string]any{
						"title":     item["title"],
						"snippet":   item["snippet"],
						"link":      item["link"],
						"source":    item["source"],
						"date":      item["date"],
						"thumbnail": item["thumbnail"],
					},
				})
			}
		}

		if discussions, err := svc.Discussions(ctx, location); err != nil {
			logx.Warn().Err(err).Msg("discussions search failed")
		} else {
			u.Discussions = discussions
		}

		sort.SliceStable(widgets, func(i, j int) bool {
			return widgets[i].Priority > widgets[j].Priority
		})
		u.Widgets = widgets

		return u, nil
	}
}

func head[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func firstOf(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}
