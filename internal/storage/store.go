// Package storage is the relational trip store: one parent row per plan
// with child rows for flights, accommodations, itinerary and weather.
// Rows are immutable after insert; cache lookups read the newest match.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	errx "github.com/voyago-poc/server/internal/core/error"
	"github.com/voyago-poc/server/internal/trip"
	logx "github.com/voyago-poc/server/pkg/logger"
)

// cacheWindow is how recent a stored plan must be to count as a cache hit.
const cacheWindow = "-24 hours"

type Config struct {
	Path string `envconfig:"DATABASE_PATH" default:"voyago.db"`
}

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database and prepares the schema.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewWithDB wraps an existing database handle; used by tests with an
// in-memory database.
func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates the schema when missing.
func (s *Store) Init(ctx context.Context) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS trip_plans (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			origin TEXT,
			destination TEXT,
			origin_city TEXT,
			destination_city TEXT,
			start_date TEXT,
			end_date TEXT,
			trip_purpose TEXT,
			travel_party TEXT,
			traveler_age INTEGER,
			group_age_min INTEGER,
			group_age_max INTEGER,
			transportation_mode TEXT,
			budget REAL,
			bedrooms INTEGER,
			max_price_per_night REAL,
			min_rating REAL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS itineraries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trip_id INTEGER NOT NULL,
			itinerary_text TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS weather (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trip_id INTEGER NOT NULL,
			summary TEXT,
			weather_info TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS flights (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trip_id INTEGER NOT NULL,
			airline TEXT,
			origin TEXT,
			destination TEXT,
			price REAL,
			url TEXT,
			details TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS accommodations (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trip_id INTEGER NOT NULL,
			name TEXT,
			city TEXT,
			country TEXT,
			price_per_night REAL,
			rating REAL,
			bedrooms INTEGER,
			url TEXT,
			image_url TEXT,
			description TEXT
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// SaveTripPlan writes the parent row and all child rows in one transaction
// and returns the new trip id.
func (s *Store) SaveTripPlan(ctx context.Context, st *trip.TripState) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errx.WrapSQL(err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO trip_plans (
			origin, destination, origin_city, destination_city, start_date, end_date,
			trip_purpose, travel_party, traveler_age,
			group_age_min, group_age_max, transportation_mode,
			budget, bedrooms, max_price_per_night, min_rating
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.Origin, st.Destination, st.OriginCity, st.DestinationCity, st.StartDate, st.EndDate,
		st.TripPurpose, st.TravelParty, st.TravelerAge,
		st.GroupAgeMin, st.GroupAgeMax, st.TransportationMode,
		st.Budget, st.Bedrooms, st.MaxPricePerNight, st.MinRating,
	)
	if err != nil {
		return 0, errx.WrapSQL(err)
	}
	tripID, err := res.LastInsertId()
	if err != nil {
		return 0, errx.WrapSQL(err)
	}

	if st.Itinerary != "" {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO itineraries (trip_id, itinerary_text) VALUES (?, ?)`,
			tripID, st.Itinerary,
		); err != nil {
			return 0, errx.WrapSQL(err)
		}
	}

	if st.WeatherInfo != nil || st.WeatherSummary != "" {
		info, err := json.Marshal(st.WeatherInfo)
		if err != nil {
			return 0, fmt.Errorf("marshal weather info: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO weather (trip_id, summary, weather_info) VALUES (?, ?, ?)`,
			tripID, st.WeatherSummary, string(info),
		); err != nil {
			return 0, errx.WrapSQL(err)
		}
	}

	for _, f := range st.Flights {
		details, err := json.Marshal(f)
		if err != nil {
			return 0, fmt.Errorf("marshal flight: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO flights (trip_id, airline, origin, destination, price, url, details)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			tripID, f.Airline, f.Origin, f.Destination, nullableFloat(f.Price), f.URL, string(details),
		); err != nil {
			return 0, errx.WrapSQL(err)
		}
	}

	for _, h := range st.Accommodations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO accommodations (trip_id, name, city, country, price_per_night, rating, bedrooms, url, image_url, description)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			tripID, h.Name, h.City, h.Country, nullableFloat(h.Price), nullableFloat(h.Rating),
			st.Bedrooms, h.URL, h.ImageURL, h.Description,
		); err != nil {
			return 0, errx.WrapSQL(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errx.WrapSQL(err)
	}

	logx.Info().Int64("trip_id", tripID).Str("destination", st.Destination).Msg("trip plan stored")
	return tripID, nil
}

// FindCachedRoute returns previously stored flights for the exact route and
// accommodations for the destination city, for the graph's cache step.
func (s *Store) FindCachedRoute(ctx context.Context, origin, destination string) ([]trip.FlightOffer, []trip.HotelOffer, error) {
	hotels := []trip.HotelOffer{}
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, city, country, price_per_night, rating, url, bedrooms
		FROM accommodations
		WHERE LOWER(city) = LOWER(?)
		LIMIT 10`, destination)
	if err != nil {
		return nil, nil, errx.WrapSQL(err)
	}
	defer rows.Close()
	for rows.Next() {
		var h trip.HotelOffer
		var price, rating sql.NullFloat64
		var bedrooms sql.NullInt64
		if err := rows.Scan(&h.Name, &h.City, &h.Country, &price, &rating, &h.URL, &bedrooms); err != nil {
			return nil, nil, errx.WrapSQL(err)
		}
		if price.Valid {
			h.Price = trip.Float(price.Float64)
		}
		if rating.Valid {
			h.Rating = trip.Float(rating.Float64)
		}
		h.Bedrooms = int(bedrooms.Int64)
		hotels = append(hotels, h)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errx.WrapSQL(err)
	}

	flights := []trip.FlightOffer{}
	frows, err := s.db.QueryContext(ctx, `
		SELECT airline, origin, destination, price, url
		FROM flights
		WHERE origin = ? AND destination = ?
		LIMIT 10`, origin, destination)
	if err != nil {
		return nil, nil, errx.WrapSQL(err)
	}
	defer frows.Close()
	for frows.Next() {
		var f trip.FlightOffer
		var price sql.NullFloat64
		if err := frows.Scan(&f.Airline, &f.Origin, &f.Destination, &price, &f.URL); err != nil {
			return nil, nil, errx.WrapSQL(err)
		}
		if price.Valid {
			f.Price = trip.Float(price.Float64)
		}
		flights = append(flights, f)
	}
	if err := frows.Err(); err != nil {
		return nil, nil, errx.WrapSQL(err)
	}

	return flights, hotels, nil
}

// FindCachedTrip looks for a plan matching the exact request tuple created
// within the recency window and rebuilds its snapshot. Returns (nil, nil)
// on a miss.
func (s *Store) FindCachedTrip(ctx context.Context, q trip.CacheQuery) (*trip.CachedTrip, error) {
	var tripID int64
	var originCity, destinationCity sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, origin_city, destination_city
		FROM trip_plans
		WHERE origin = ?
		  AND destination = ?
		  AND start_date = ?
		  AND end_date = ?
		  AND trip_purpose = ?
		  AND created_at > datetime('now', ?)
		ORDER BY created_at DESC
		LIMIT 1`,
		q.Origin, q.Destination, q.StartDate, q.EndDate, q.TripPurpose, cacheWindow,
	).Scan(&tripID, &originCity, &destinationCity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errx.WrapSQL(err)
	}

	logx.Info().Int64("trip_id", tripID).Msg("trip cache hit")

	snapshot := &trip.CachedTrip{
		OriginCity:      originCity.String,
		DestinationCity: destinationCity.String,
		Flights:         []trip.FlightOffer{},
		Accommodations:  []trip.HotelOffer{},
		Cached:          true,
	}

	var itinerary sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT itinerary_text FROM itineraries WHERE trip_id = ? LIMIT 1`, tripID,
	).Scan(&itinerary)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errx.WrapSQL(err)
	}
	snapshot.Itinerary = itinerary.String

	var summary, info sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT summary, weather_info FROM weather WHERE trip_id = ? LIMIT 1`, tripID,
	).Scan(&summary, &info)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, errx.WrapSQL(err)
	}
	snapshot.WeatherSummary = summary.String
	if info.Valid && info.String != "" && info.String != "null" {
		var wi trip.WeatherInfo
		if err := json.Unmarshal([]byte(info.String), &wi); err != nil {
			logx.Warn().Err(err).Int64("trip_id", tripID).Msg("unreadable stored weather info")
		} else {
			snapshot.WeatherInfo = &wi
		}
	}

	frows, err := s.db.QueryContext(ctx, `SELECT details FROM flights WHERE trip_id = ?`, tripID)
	if err != nil {
		return nil, errx.WrapSQL(err)
	}
	defer frows.Close()
	for frows.Next() {
		var details string
		if err := frows.Scan(&details); err != nil {
			return nil, errx.WrapSQL(err)
		}
		var f trip.FlightOffer
		if err := json.Unmarshal([]byte(details), &f); err != nil {
			logx.Warn().Err(err).Int64("trip_id", tripID).Msg("unreadable stored flight details")
			continue
		}
		snapshot.Flights = append(snapshot.Flights, f)
	}
	if err := frows.Err(); err != nil {
		return nil, errx.WrapSQL(err)
	}

	arows, err := s.db.QueryContext(ctx, `
		SELECT name, city, country, price_per_night, rating, bedrooms, url, image_url, description
		FROM accommodations WHERE trip_id = ?`, tripID)
	if err != nil {
		return nil, errx.WrapSQL(err)
	}
	defer arows.Close()
	for arows.Next() {
		var h trip.HotelOffer
		var price, rating sql.NullFloat64
		var bedrooms sql.NullInt64
		var imageURL, description sql.NullString
		if err := arows.Scan(&h.Name, &h.City, &h.Country, &price, &rating, &bedrooms, &h.URL, &imageURL, &description); err != nil {
			return nil, errx.WrapSQL(err)
		}
		if price.Valid {
			h.Price = trip.Float(price.Float64)
		}
		if rating.Valid {
			h.Rating = trip.Float(rating.Float64)
		}
		h.Bedrooms = int(bedrooms.Int64)
		h.ImageURL = imageURL.String
		h.Description = description.String
		snapshot.Accommodations = append(snapshot.Accommodations, h)
	}
	if err := arows.Err(); err != nil {
		return nil, errx.WrapSQL(err)
	}

	return snapshot, nil
}

func nullableFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
