// Package seed provisions a demo cinema database: a fixed movie catalog
// and theater roster plus randomized showtimes, customers, tickets,
// reviews, and staff, with the indexes the ask workflow benefits from.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/askmongo/askmongo/internal/errors"
	"github.com/askmongo/askmongo/internal/logging"
)

// collections lists every collection the seeder owns. Existing data in
// these collections is dropped on each run.
var collections = []string{"movies", "theaters", "showtimes", "customers", "tickets", "reviews", "staff"}

// Summary reports how many documents each collection received.
type Summary struct {
	Movies    int `json:"movies"`
	Theaters  int `json:"theaters"`
	Showtimes int `json:"showtimes"`
	Customers int `json:"customers"`
	Tickets   int `json:"tickets"`
	Reviews   int `json:"reviews"`
	Staff     int `json:"staff"`
}

// Seeder populates a database with the demo cinema dataset.
type Seeder struct {
	db     *mongo.Database
	logger *logging.Logger
	rng    *rand.Rand
	now    time.Time
}

// New creates a seeder for the given database handle.
func New(db *mongo.Database, logger *logging.Logger) *Seeder {
	if logger == nil {
		logger = logging.NewFallbackLogger()
	}

	return &Seeder{
		db:     db,
		logger: logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now(),
	}
}

// Run drops the cinema collections, inserts fresh data, and rebuilds
// the indexes. It is safe to run repeatedly.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	if err := s.dropCollections(ctx); err != nil {
		return nil, err
	}

	movieIDs, err := s.insert(ctx, "movies", sampleMovies())
	if err != nil {
		return nil, err
	}

	theaterIDs, err := s.insert(ctx, "theaters", sampleTheaters())
	if err != nil {
		return nil, err
	}

	customerIDs, err := s.insert(ctx, "customers", s.buildCustomers())
	if err != nil {
		return nil, err
	}

	staffIDs, err := s.insert(ctx, "staff", s.buildStaff(theaterIDs))
	if err != nil {
		return nil, err
	}

	showtimeIDs, err := s.insert(ctx, "showtimes", s.buildShowtimes(movieIDs, theaterIDs))
	if err != nil {
		return nil, err
	}

	ticketIDs, err := s.insert(ctx, "tickets", s.buildTickets(customerIDs, showtimeIDs))
	if err != nil {
		return nil, err
	}

	reviewIDs, err := s.insert(ctx, "reviews", s.buildReviews(movieIDs, customerIDs))
	if err != nil {
		return nil, err
	}

	if err := s.createIndexes(ctx); err != nil {
		return nil, err
	}

	summary := &Summary{
		Movies:    len(movieIDs),
		Theaters:  len(theaterIDs),
		Showtimes: len(showtimeIDs),
		Customers: len(customerIDs),
		Tickets:   len(ticketIDs),
		Reviews:   len(reviewIDs),
		Staff:     len(staffIDs),
	}

	s.logger.WithFields(map[string]interface{}{
		"database":  s.db.Name(),
		"movies":    summary.Movies,
		"showtimes": summary.Showtimes,
		"tickets":   summary.Tickets,
	}).Info("Cinema database seeded")

	return summary, nil
}

func (s *Seeder) dropCollections(ctx context.Context) error {
	for _, name := range collections {
		if err := s.db.Collection(name).Drop(ctx); err != nil {
			return errors.Wrap(err, errors.ErrTypeDatabase, fmt.Sprintf("failed to drop collection %s", name))
		}
	}

	return nil
}

func (s *Seeder) insert(ctx context.Context, collection string, docs []any) ([]any, error) {
	result, err := s.db.Collection(collection).InsertMany(ctx, docs)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeDatabase, fmt.Sprintf("failed to insert into %s", collection))
	}

	s.logger.WithFields(map[string]interface{}{
		"collection": collection,
		"count":      len(result.InsertedIDs),
	}).Debug("Inserted documents")

	return result.InsertedIDs, nil
}

func (s *Seeder) buildCustomers() []any {
	docs := make([]any, 0, len(customerSeeds))

	for _, c := range customerSeeds {
		docs = append(docs, bson.M{
			"first_name": c.firstName,
			"last_name":  c.lastName,
			"email":      c.email,
			"phone":      s.randomPhone(),
			"date_of_birth": time.Date(1980+s.rng.Intn(31), time.Month(s.intBetween(1, 12)),
				s.intBetween(1, 28), 0, 0, 0, 0, time.UTC),
			"membership_status": s.pick(membershipLevels),
			"join_date":         s.now.AddDate(0, 0, -s.rng.Intn(366)),
			"total_bookings":    s.rng.Intn(51),
		})
	}

	return docs
}

func (s *Seeder) buildStaff(theaterIDs []any) []any {
	docs := make([]any, 0, len(staffSeeds))

	for _, m := range staffSeeds {
		docs = append(docs, bson.M{
			"first_name": m.firstName,
			"last_name":  m.lastName,
			"role":       m.role,
			"email":      fmt.Sprintf("%s.%s@cinemamax.com", strings.ToLower(m.firstName), strings.ToLower(m.lastName)),
			"phone":      s.randomPhone(),
			"hire_date":  s.now.AddDate(0, 0, -s.intBetween(30, 1095)),
			"theater_id": theaterIDs[s.rng.Intn(len(theaterIDs))],
			"salary":     round2(30000 + s.rng.Float64()*30000),
		})
	}

	return docs
}

// buildShowtimes schedules the next 7 days. Each theater shows 3-5
// movies per day, each with 3-5 screenings at the standard hours.
func (s *Seeder) buildShowtimes(movieIDs, theaterIDs []any) []any {
	base := time.Date(s.now.Year(), s.now.Month(), s.now.Day(), 0, 0, 0, 0, s.now.Location())

	var docs []any

	for day := 0; day < 7; day++ {
		date := base.AddDate(0, 0, day)

		for _, theaterID := range theaterIDs {
			moviesPerDay := s.intBetween(3, min(5, len(movieIDs)))

			for _, mi := range s.sampleIndices(len(movieIDs), moviesPerDay) {
				screenings := min(s.intBetween(3, 5), len(showHours))

				for _, hi := range s.sampleIndices(len(showHours), screenings) {
					docs = append(docs, bson.M{
						"movie_id":        movieIDs[mi],
						"theater_id":      theaterID,
						"screen_number":   s.intBetween(1, 8),
						"show_datetime":   date.Add(time.Duration(showHours[hi]) * time.Hour),
						"available_seats": s.intBetween(50, 200),
						"total_seats":     s.intBetween(150, 250),
						"ticket_price":    round2(8 + s.rng.Float64()*7),
						"format":          s.pick(showFormats),
					})
				}
			}
		}
	}

	return docs
}

func (s *Seeder) buildTickets(customerIDs, showtimeIDs []any) []any {
	count := s.intBetween(50, 100)
	docs := make([]any, 0, count)

	for i := 0; i < count; i++ {
		numSeats := s.intBetween(1, 4)

		seats := make([]string, numSeats)
		for j := range seats {
			seats[j] = fmt.Sprintf("%c%d", 'A'+rune(s.rng.Intn(11)), s.intBetween(1, 20))
		}

		docs = append(docs, bson.M{
			"customer_id":    customerIDs[s.rng.Intn(len(customerIDs))],
			"showtime_id":    showtimeIDs[s.rng.Intn(len(showtimeIDs))],
			"booking_date":   s.now.AddDate(0, 0, -s.rng.Intn(31)),
			"num_seats":      numSeats,
			"total_price":    round2(10 + s.rng.Float64()*50),
			"payment_method": s.pick(paymentMethods),
			"status":         s.pick(ticketStatuses),
			"seat_numbers":   seats,
		})
	}

	return docs
}

func (s *Seeder) buildReviews(movieIDs, customerIDs []any) []any {
	count := s.intBetween(30, 50)
	docs := make([]any, 0, count)

	for i := 0; i < count; i++ {
		docs = append(docs, bson.M{
			"movie_id":      movieIDs[s.rng.Intn(len(movieIDs))],
			"customer_id":   customerIDs[s.rng.Intn(len(customerIDs))],
			"rating":        s.intBetween(1, 5),
			"review_text":   s.pick(reviewTexts),
			"review_date":   s.now.AddDate(0, 0, -s.rng.Intn(91)),
			"helpful_count": s.rng.Intn(51),
		})
	}

	return docs
}

func (s *Seeder) createIndexes(ctx context.Context) error {
	specs := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{"movies", []mongo.IndexModel{
			{Keys: bson.D{{Key: "title", Value: 1}}},
			{Keys: bson.D{{Key: "genre", Value: 1}}},
			{Keys: bson.D{{Key: "director", Value: 1}}},
		}},
		{"theaters", []mongo.IndexModel{
			{Keys: bson.D{{Key: "name", Value: 1}}},
			{Keys: bson.D{{Key: "location.city", Value: 1}}},
		}},
		{"showtimes", []mongo.IndexModel{
			{Keys: bson.D{{Key: "movie_id", Value: 1}}},
			{Keys: bson.D{{Key: "theater_id", Value: 1}}},
			{Keys: bson.D{{Key: "show_datetime", Value: 1}}},
			{Keys: bson.D{{Key: "movie_id", Value: 1}, {Key: "theater_id", Value: 1}, {Key: "show_datetime", Value: 1}}},
		}},
		{"customers", []mongo.IndexModel{
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "last_name", Value: 1}}},
		}},
		{"tickets", []mongo.IndexModel{
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
			{Keys: bson.D{{Key: "showtime_id", Value: 1}}},
			{Keys: bson.D{{Key: "booking_date", Value: 1}}},
		}},
		{"reviews", []mongo.IndexModel{
			{Keys: bson.D{{Key: "movie_id", Value: 1}}},
			{Keys: bson.D{{Key: "customer_id", Value: 1}}},
			{Keys: bson.D{{Key: "rating", Value: 1}}},
		}},
		{"staff", []mongo.IndexModel{
			{Keys: bson.D{{Key: "theater_id", Value: 1}}},
			{Keys: bson.D{{Key: "role", Value: 1}}},
		}},
	}

	for _, spec := range specs {
		if _, err := s.db.Collection(spec.collection).Indexes().CreateMany(ctx, spec.models); err != nil {
			return errors.Wrap(err, errors.ErrTypeDatabase, fmt.Sprintf("failed to create indexes on %s", spec.collection))
		}
	}

	return nil
}

// intBetween returns a uniform random integer in [low, high].
func (s *Seeder) intBetween(low, high int) int {
	return low + s.rng.Intn(high-low+1)
}

// sampleIndices returns k distinct indices drawn from [0, n).
func (s *Seeder) sampleIndices(n, k int) []int {
	return s.rng.Perm(n)[:k]
}

func (s *Seeder) pick(values []string) string {
	return values[s.rng.Intn(len(values))]
}

func (s *Seeder) randomPhone() string {
	return fmt.Sprintf("+1-%d-%d-%d", s.intBetween(200, 999), s.intBetween(100, 999), s.intBetween(1000, 9999))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
