package v1

import "net/http"

// ListMoviesRequest is bound from the query string.
type ListMoviesRequest struct {
	Page      *int     `json:"page,omitempty"`
	PageSize  *int     `json:"page_size,omitempty"`
	Title     *string  `json:"title,omitempty"`
	Year      *int     `json:"year,omitempty"`
	Genre     *string  `json:"genre,omitempty"`
	MinRating *float64 `json:"min_rating,omitempty"`
	MaxRating *float64 `json:"max_rating,omitempty"`
}

// MovieSummary is the list shape: genres as names, rating flattened.
// AverageRating and VoteCount are null for unrated movies.
type MovieSummary struct {
	Id            int64    `json:"id"`
	Title         string   `json:"title"`
	Year          *int     `json:"year"`
	Duration      *int     `json:"duration"`
	AverageRating *float64 `json:"average_rating"`
	VoteCount     *int     `json:"vote_count"`
	Genres        []string `json:"genres"`
}

type ListMoviesReply struct {
	Movies   []*MovieSummary `json:"movies"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

type MovieRequest struct {
	Id int64 `json:"id"`
}

// RatingPayload is the {rating, vote_count} body.
type RatingPayload struct {
	Rating    *float64 `json:"rating,omitempty"`
	VoteCount *int     `json:"vote_count,omitempty"`
}

type CreateMovieRequest struct {
	Title    string         `json:"title"`
	Year     *int           `json:"year,omitempty"`
	Duration *int           `json:"duration,omitempty"`
	Genres   []string       `json:"genres,omitempty"`
	Rating   *RatingPayload `json:"rating,omitempty"`
}

// UpdateMovieRequest: a missing genres key leaves genres untouched, an
// empty list removes them all.
type UpdateMovieRequest struct {
	Id       int64          `json:"id"`
	Title    *string        `json:"title,omitempty"`
	Year     *int           `json:"year,omitempty"`
	Duration *int           `json:"duration,omitempty"`
	Genres   *[]string      `json:"genres,omitempty"`
	Rating   *RatingPayload `json:"rating,omitempty"`
}

type Genre struct {
	Id      int64  `json:"id"`
	MovieId int64  `json:"movie_id"`
	Genre   string `json:"genre"`
}

type Rating struct {
	Id        int64   `json:"id"`
	MovieId   int64   `json:"movie_id"`
	Rating    float64 `json:"rating"`
	VoteCount int     `json:"vote_count"`
}

// MovieDetail is the single-movie shape with full genre and rating objects.
type MovieDetail struct {
	Id       int64    `json:"id"`
	Title    string   `json:"title"`
	Year     *int     `json:"year"`
	Duration *int     `json:"duration"`
	Genres   []*Genre `json:"genres"`
	Rating   *Rating  `json:"rating"`
}

type MessageReply struct {
	Message string `json:"message"`
}

type GenreList []*Genre

type AddGenreRequest struct {
	Id        int64  `json:"id"`
	GenreName string `json:"genre_name"`
}

type RemoveGenreRequest struct {
	Id      int64 `json:"id"`
	GenreId int64 `json:"genre_id"`
}

type RatingRequest struct {
	Id int64 `json:"id"`
	RatingPayload
}

// RatingReply answers 201 when the rating was created and 200 otherwise.
type RatingReply struct {
	Rating
	Created bool `json:"-"`
}

func (r *RatingReply) HTTPStatus() int {
	if r.Created {
		return http.StatusCreated
	}
	return http.StatusOK
}

type ListGenresRequest struct {
	Limit *int `json:"limit,omitempty"`
}

type GenreCount struct {
	Genre      string `json:"genre"`
	MovieCount int64  `json:"movie_count"`
}

type GenreCountList []*GenreCount

type ListMoviesByGenreRequest struct {
	GenreName string `json:"genre_name"`
	Page      *int   `json:"page,omitempty"`
	PageSize  *int   `json:"page_size,omitempty"`
}

type MovieBrief struct {
	Id       int64  `json:"id"`
	Title    string `json:"title"`
	Year     *int   `json:"year"`
	Duration *int   `json:"duration"`
}

type ListMoviesByGenreReply struct {
	Genre    string        `json:"genre"`
	Movies   []*MovieBrief `json:"movies"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

type TopRatedRequest struct {
	Limit    *int `json:"limit,omitempty"`
	MinVotes *int `json:"min_votes,omitempty"`
}

type TopRatedMovie struct {
	Id            int64   `json:"id"`
	Title         string  `json:"title"`
	Year          *int    `json:"year"`
	Duration      *int    `json:"duration"`
	AverageRating float64 `json:"average_rating"`
	VoteCount     int     `json:"vote_count"`
}

type TopRatedList []*TopRatedMovie

type Empty struct{}

type RatingStatistics struct {
	AverageRating          float64 `json:"average_rating"`
	MinRating              float64 `json:"min_rating"`
	MaxRating              float64 `json:"max_rating"`
	TotalMoviesWithRatings int64   `json:"total_movies_with_ratings"`
	TotalVotes             int64   `json:"total_votes"`
}

type RatingBucket struct {
	RatingRange string `json:"rating_range"`
	Count       int64  `json:"count"`
}

type RatingDistribution []*RatingBucket

type HealthReply struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Service   string `json:"service"`
	Version   string `json:"version"`
}
