package domain

// SearchResult is one match of a title search against the movie database.
type SearchResult struct {
	ImdbID string
	Title  string
	Year   string
	Type   string
	Poster string
}

// MovieDetails carries the descriptive fields of a single movie.
type MovieDetails struct {
	ImdbID     string
	Title      string
	Year       string
	Rated      string
	Released   string
	Runtime    string
	Genre      string
	Director   string
	Writer     string
	Actors     string
	Plot       string
	Language   string
	Country    string
	Poster     string
	ImdbRating string
	ImdbVotes  string
	Type       string
}
