package seed

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

type customerSeed struct {
	firstName string
	lastName  string
	email     string
}

type staffSeed struct {
	firstName string
	lastName  string
	role      string
}

var customerSeeds = []customerSeed{
	{"John", "Smith", "john.smith@email.com"},
	{"Sarah", "Johnson", "sarah.j@email.com"},
	{"Michael", "Brown", "michael.brown@email.com"},
	{"Emily", "Davis", "emily.davis@email.com"},
	{"David", "Wilson", "david.wilson@email.com"},
	{"Jessica", "Martinez", "jessica.m@email.com"},
	{"James", "Anderson", "james.anderson@email.com"},
	{"Lisa", "Taylor", "lisa.taylor@email.com"},
	{"Robert", "Thomas", "robert.t@email.com"},
	{"Amanda", "Jackson", "amanda.jackson@email.com"},
	{"William", "White", "william.white@email.com"},
	{"Ashley", "Harris", "ashley.harris@email.com"},
	{"Christopher", "Martin", "chris.martin@email.com"},
	{"Michelle", "Thompson", "michelle.t@email.com"},
	{"Daniel", "Garcia", "daniel.garcia@email.com"},
	{"Stephanie", "Martinez", "stephanie.m@email.com"},
	{"Matthew", "Robinson", "matt.robinson@email.com"},
	{"Nicole", "Clark", "nicole.clark@email.com"},
	{"Anthony", "Rodriguez", "anthony.r@email.com"},
	{"Melissa", "Lewis", "melissa.lewis@email.com"},
}

var staffSeeds = []staffSeed{
	{"Alice", "Manager", "Manager"},
	{"Bob", "Cashier", "Cashier"},
	{"Charlie", "Projectionist", "Projectionist"},
	{"Diana", "Usher", "Usher"},
	{"Eve", "Concessions", "Concessions"},
	{"Frank", "Security", "Security"},
	{"Grace", "Manager", "Manager"},
	{"Henry", "Cashier", "Cashier"},
}

var (
	membershipLevels = []string{"Regular", "Premium", "VIP", "None"}
	paymentMethods   = []string{"Credit Card", "Debit Card", "Cash", "Online"}
	ticketStatuses   = []string{"Confirmed", "Cancelled", "Used"}
	showFormats      = []string{"2D", "3D", "IMAX", "4DX"}

	// Showtimes fall on these hours of the day.
	showHours = []int{10, 13, 16, 19, 22}

	reviewTexts = []string{
		"Amazing movie! Highly recommend it.",
		"Great storyline and acting. Worth watching.",
		"One of the best movies I've seen this year.",
		"Good movie but could have been better.",
		"Not my cup of tea, but well made.",
		"Brilliant cinematography and direction.",
		"A masterpiece! Will watch again.",
		"Entertaining but predictable plot.",
		"Outstanding performance by the cast.",
		"Disappointing ending, but good overall.",
	}
)

// sampleMovies returns the fixed movie catalog. Each call builds fresh
// documents so repeated seeding never shares state.
func sampleMovies() []any {
	return []any{
		bson.M{
			"title":            "The Dark Knight",
			"genre":            []string{"Action", "Crime", "Drama"},
			"director":         "Christopher Nolan",
			"release_date":     time.Date(2008, time.July, 18, 0, 0, 0, 0, time.UTC),
			"duration_minutes": 152,
			"rating":           "PG-13",
			"imdb_rating":      9.0,
			"description":      "Batman faces the Joker in this epic crime thriller.",
			"cast":             []string{"Christian Bale", "Heath Ledger", "Aaron Eckhart"},
			"language":         "English",
			"budget":           185000000,
			"box_office":       1005000000,
		},
		bson.M{
			"title":            "Inception",
			"genre":            []string{"Sci-Fi", "Action", "Thriller"},
			"director":         "Christopher Nolan",
			"release_date":     time.Date(2010, time.July, 16, 0, 0, 0, 0, time.UTC),
			"duration_minutes": 148,
			"rating":           "PG-13",
			"imdb_rating":      8.8,
			"description":      "A thief enters people's dreams to steal secrets.",
			"cast":             []string{"Leonardo DiCaprio", "Marion Cotillard", "Tom Hardy"},
			"language":         "English",
			"budget":           160000000,
			"box_office":       836800000,
		},
		bson.M{
			"title":            "The Matrix",
			"genre":            []string{"Sci-Fi", "Action"},
			"director":         "Lana Wachowski",
			"release_date":     time.Date(1999, time.March, 31, 0, 0, 0, 0, time.UTC),
			"duration_minutes": 136,
			"rating":           "R",
			"imdb_rating":      8.7,
			"description":      "A computer hacker learns about the true nature of reality.",
			"cast":             []string{"Keanu Reeves", "Laurence Fishburne", "Carrie-Anne Moss"},
			"language":         "English",
			"budget":           63000000,
			"box_office":       467200000,
		},
		bson.M{
			"title":            "Parasite",
			"genre":            []string{"Thriller", "Drama", "Comedy"},
			"director":         "Bong Joon-ho",
			"release_date":     time.Date(2019, time.May, 30, 0, 0, 0, 0, time.UTC),
			"duration_minutes": 132,
			"rating":           "R",
			"imdb_rating":      8.5,
			"description":      "A poor family schemes to become employed by a wealthy family.",
			"cast":             []string{"Song Kang-ho", "Lee Sun-kyun", "Cho Yeo-jeong"},
			"language":         "Korean",
			"budget":           11400000,
			"box_office":       258800000,
		},
		bson.M{
			"title":            "Interstellar",
			"genre":            []string{"Sci-Fi", "Drama", "Adventure"},
			"director":         "Christopher Nolan",
			"release_date":     time.Date(2014, time.November, 7, 0, 0, 0, 0, time.UTC),
			"duration_minutes": 169,
			"rating":           "PG-13",
			"imdb_rating":      8.6,
			"description":      "A team of explorers travel through a wormhole in space.",
			"cast":             []string{"Matthew McConaughey", "Anne Hathaway", "Jessica Chastain"},
			"language":         "English",
			"budget":           165000000,
			"box_office":       677500000,
		},
		bson.M{
			"title":            "Spirited Away",
			"genre":            []string{"Animation", "Adventure", "Family"},
			"director":         "Hayao Miyazaki",
			"release_date":     time.Date(2001, time.July, 20, 0, 0, 0, 0, time.UTC),
			"duration_minutes": 125,
			"rating":           "PG",
			"imdb_rating":      8.6,
			"description":      "A young girl enters a world of spirits.",
			"cast":             []string{"Rumi Hiiragi", "Miyu Irino", "Mari Natsuki"},
			"language":         "Japanese",
			"budget":           19000000,
			"box_office":       395800000,
		},
		bson.M{
			"title":            "The Shawshank Redemption",
			"genre":            []string{"Drama"},
			"director":         "Frank Darabont",
			"release_date":     time.Date(1994, time.September, 23, 0, 0, 0, 0, time.UTC),
			"duration_minutes": 142,
			"rating":           "R",
			"imdb_rating":      9.3,
			"description":      "Two imprisoned men bond over a number of years.",
			"cast":             []string{"Tim Robbins", "Morgan Freeman", "Bob Gunton"},
			"language":         "English",
			"budget":           25000000,
			"box_office":       58300000,
		},
		bson.M{
			"title":            "Pulp Fiction",
			"genre":            []string{"Crime", "Drama"},
			"director":         "Quentin Tarantino",
			"release_date":     time.Date(1994, time.October, 14, 0, 0, 0, 0, time.UTC),
			"duration_minutes": 154,
			"rating":           "R",
			"imdb_rating":      8.9,
			"description":      "The lives of two mob hitmen, a boxer, and others intertwine.",
			"cast":             []string{"John Travolta", "Uma Thurman", "Samuel L. Jackson"},
			"language":         "English",
			"budget":           8000000,
			"box_office":       214200000,
		},
	}
}

// sampleTheaters returns the fixed theater roster.
func sampleTheaters() []any {
	return []any{
		bson.M{
			"name": "CinemaMax Downtown",
			"location": bson.M{
				"address":     "123 Main Street",
				"city":        "New York",
				"state":       "NY",
				"zipcode":     "10001",
				"coordinates": bson.M{"lat": 40.7128, "lng": -74.0060},
			},
			"screens":     8,
			"total_seats": 1200,
			"amenities":   []string{"IMAX", "3D", "Dolby Atmos", "Reclining Seats", "Snack Bar"},
			"phone":       "+1-212-555-0101",
			"email":       "downtown@cinemamax.com",
		},
		bson.M{
			"name": "CinemaMax Uptown",
			"location": bson.M{
				"address":     "456 Broadway",
				"city":        "New York",
				"state":       "NY",
				"zipcode":     "10013",
				"coordinates": bson.M{"lat": 40.7282, "lng": -74.0776},
			},
			"screens":     6,
			"total_seats": 900,
			"amenities":   []string{"3D", "Dolby Atmos", "Reclining Seats", "Snack Bar", "Arcade"},
			"phone":       "+1-212-555-0102",
			"email":       "uptown@cinemamax.com",
		},
		bson.M{
			"name": "CinemaMax Central",
			"location": bson.M{
				"address":     "789 Park Avenue",
				"city":        "New York",
				"state":       "NY",
				"zipcode":     "10021",
				"coordinates": bson.M{"lat": 40.7681, "lng": -73.9719},
			},
			"screens":     10,
			"total_seats": 1500,
			"amenities":   []string{"IMAX", "3D", "4DX", "Dolby Atmos", "VIP Lounge", "Restaurant"},
			"phone":       "+1-212-555-0103",
			"email":       "central@cinemamax.com",
		},
	}
}
