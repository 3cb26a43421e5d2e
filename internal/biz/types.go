package biz

import (
	"context"
	"fmt"
	"math"
)

const (
	DefaultPage     = 1
	MaxPage         = 10_000_000
	DefaultPageSize = 50
	MaxPageSize     = 100

	DefaultTopRatedLimit = 10
	MaxTopRatedLimit     = 100
	DefaultMinVotes      = 50

	MaxTitleLength = 500
	MaxGenreLength = 100
	MinYear        = 1800
	MaxYear        = 2030
	MinRating      = 0.0
	MaxRating      = 10.0
)

// Movie domain model. Genres and Rating are only populated by reads that
// declare them.
type Movie struct {
	ID       int64
	Title    string
	Year     *int
	Duration *int
	Genres   []*Genre
	Rating   *Rating
}

// GenreNames returns the genre names in row order.
func (m *Movie) GenreNames() []string {
	names := make([]string, 0, len(m.Genres))
	for _, g := range m.Genres {
		names = append(names, g.Genre)
	}
	return names
}

// Genre domain model
type Genre struct {
	ID      int64
	MovieID int64
	Genre   string
}

// Rating domain model. A movie has at most one.
type Rating struct {
	ID        int64
	MovieID   int64
	Rating    float64
	VoteCount int
}

// RatingInput is the {rating, vote_count} payload used on create and add.
type RatingInput struct {
	Rating    float64
	VoteCount int
}

// RatingPatch is a partial rating update.
type RatingPatch struct {
	Rating    *float64
	VoteCount *int
}

// CreateMovieRequest domain model
type CreateMovieRequest struct {
	Title    string
	Year     *int
	Duration *int
	Genres   []string
	Rating   *RatingInput
}

// UpdateMovieRequest carries only the fields to change. A nil Genres leaves
// the genres alone; a pointer to an empty slice removes them all.
type UpdateMovieRequest struct {
	Title    *string
	Year     *int
	Duration *int
	Genres   *[]string
	Rating   *RatingInput
}

// MovieFilter domain model
type MovieFilter struct {
	Title     *string
	Year      *int
	Genre     *string
	MinRating *float64
	MaxRating *float64
	Page      int
	PageSize  int
}

// Offset of the first row of the requested page.
func (f *MovieFilter) Offset() int {
	return PageOffset(f.Page, f.PageSize)
}

// PageOffset is (page-1)*pageSize, saturating at math.MaxInt instead of
// wrapping.
func PageOffset(page, pageSize int) int {
	if page <= 1 || pageSize <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/pageSize {
		return math.MaxInt
	}
	return (page - 1) * pageSize
}

// RatingBounded reports whether either rating bound is set.
func (f *MovieFilter) RatingBounded() bool {
	return f.MinRating != nil || f.MaxRating != nil
}

// MoviePage domain model
type MoviePage struct {
	Items    []*Movie
	Total    int64
	Page     int
	PageSize int
}

// GenreCount is a distinct genre name with the number of rows carrying it.
type GenreCount struct {
	Genre      string
	MovieCount int64
}

// RatingSummary holds aggregates over every rating row. All values are zero
// when there are no ratings.
type RatingSummary struct {
	AverageRating          float64
	MinRating              float64
	MaxRating              float64
	TotalMoviesWithRatings int64
	TotalVotes             int64
}

// RatingValueCount is the number of ratings sharing an exact value.
type RatingValueCount struct {
	Rating float64
	Count  int64
}

// RatingBucket groups ratings by the integer floor of their value.
type RatingBucket struct {
	Floor int
	Count int64
}

// Label renders the half-open range, e.g. "7-8".
func (b *RatingBucket) Label() string {
	return fmt.Sprintf("%d-%d", b.Floor, b.Floor+1)
}

// Transaction runs fn inside one store transaction. Repos called with the
// ctx passed to fn join it.
type Transaction interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// MovieRepo defines the repository interface for movies
type MovieRepo interface {
	CreateMovie(ctx context.Context, movie *Movie) error
	// FindMovie loads the movie row only.
	FindMovie(ctx context.Context, id int64) (*Movie, error)
	// GetMovieDetail loads the movie with its genres and rating.
	GetMovieDetail(ctx context.Context, id int64) (*Movie, error)
	UpdateMovie(ctx context.Context, movie *Movie) error
	// DeleteMovie removes the movie together with its genres and rating.
	DeleteMovie(ctx context.Context, id int64) error
	// ListMovies returns the page of matching movies with Rating attached and
	// the total ignoring pagination.
	ListMovies(ctx context.Context, filter *MovieFilter) ([]*Movie, int64, error)
	// ListMoviesByGenre matches the genre name case-insensitively.
	ListMoviesByGenre(ctx context.Context, genre string, page, pageSize int) ([]*Movie, int64, error)
}

// GenreRepo defines the repository interface for genres
type GenreRepo interface {
	CreateGenres(ctx context.Context, genres []*Genre) error
	GetGenre(ctx context.Context, movieID, genreID int64) (*Genre, error)
	ListByMovie(ctx context.Context, movieID int64) ([]*Genre, error)
	ListByMovies(ctx context.Context, movieIDs []int64) (map[int64][]*Genre, error)
	// ExistsForMovie compares names exactly.
	ExistsForMovie(ctx context.Context, movieID int64, name string) (bool, error)
	// ExistsByName compares names case-insensitively.
	ExistsByName(ctx context.Context, name string) (bool, error)
	DeleteGenre(ctx context.Context, genre *Genre) error
	DeleteByNames(ctx context.Context, movieID int64, names []string) (int64, error)
	CountByName(ctx context.Context, limit int) ([]*GenreCount, error)
}

// RatingRepo defines the repository interface for ratings
type RatingRepo interface {
	GetByMovie(ctx context.Context, movieID int64) (*Rating, error)
	CreateRating(ctx context.Context, rating *Rating) error
	UpdateRating(ctx context.Context, rating *Rating) error
	DeleteRating(ctx context.Context, rating *Rating) error
	// TopRated returns movies with Rating attached, best first.
	TopRated(ctx context.Context, limit, minVotes int) ([]*Movie, error)
	Summary(ctx context.Context) (*RatingSummary, error)
	CountByValue(ctx context.Context) ([]*RatingValueCount, error)
}
