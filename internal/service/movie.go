package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/wire"

	v1 "movies/api/movies/v1"
	"movies/internal/biz"
	"movies/internal/pkg/validator"
)

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(NewMovieService)

// Version is reported by the health endpoint; set from main.
var Version = "dev"

// MovieService implements the Movies API
type MovieService struct {
	movieUC  *biz.MovieUseCase
	genreUC  *biz.GenreUseCase
	ratingUC *biz.RatingUseCase
}

var _ v1.MoviesHTTPServer = (*MovieService)(nil)

// NewMovieService creates a new MovieService
func NewMovieService(movieUC *biz.MovieUseCase, genreUC *biz.GenreUseCase, ratingUC *biz.RatingUseCase) *MovieService {
	return &MovieService{
		movieUC:  movieUC,
		genreUC:  genreUC,
		ratingUC: ratingUC,
	}
}

// ListMovies implements movie listing
func (s *MovieService) ListMovies(ctx context.Context, req *v1.ListMoviesRequest) (*v1.ListMoviesReply, error) {
	filter := &biz.MovieFilter{
		Title:     req.Title,
		Year:      req.Year,
		Genre:     req.Genre,
		MinRating: req.MinRating,
		MaxRating: req.MaxRating,
		Page:      intOr(req.Page, biz.DefaultPage),
		PageSize:  intOr(req.PageSize, biz.DefaultPageSize),
	}

	page, err := s.movieUC.ListMovies(ctx, filter)
	if err != nil {
		return nil, err
	}

	reply := &v1.ListMoviesReply{
		Movies:   make([]*v1.MovieSummary, 0, len(page.Items)),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}
	for _, movie := range page.Items {
		reply.Movies = append(reply.Movies, movieSummaryToProto(movie))
	}
	return reply, nil
}

// GetMovie implements single movie lookup
func (s *MovieService) GetMovie(ctx context.Context, req *v1.MovieRequest) (*v1.MovieDetail, error) {
	movie, err := s.movieUC.GetMovie(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	return movieDetailToProto(movie), nil
}

// CreateMovie implements movie creation
func (s *MovieService) CreateMovie(ctx context.Context, req *v1.CreateMovieRequest) (*v1.MovieDetail, error) {
	rating, err := ratingInputFromProto(req.Rating)
	if err != nil {
		return nil, err
	}

	movie, err := s.movieUC.CreateMovie(ctx, &biz.CreateMovieRequest{
		Title:    req.Title,
		Year:     req.Year,
		Duration: req.Duration,
		Genres:   req.Genres,
		Rating:   rating,
	})
	if err != nil {
		return nil, err
	}
	return movieDetailToProto(movie), nil
}

// UpdateMovie implements partial movie update
func (s *MovieService) UpdateMovie(ctx context.Context, req *v1.UpdateMovieRequest) (*v1.MovieDetail, error) {
	rating, err := ratingInputFromProto(req.Rating)
	if err != nil {
		return nil, err
	}

	movie, err := s.movieUC.UpdateMovie(ctx, req.Id, &biz.UpdateMovieRequest{
		Title:    req.Title,
		Year:     req.Year,
		Duration: req.Duration,
		Genres:   req.Genres,
		Rating:   rating,
	})
	if err != nil {
		return nil, err
	}
	return movieDetailToProto(movie), nil
}

// DeleteMovie implements movie deletion
func (s *MovieService) DeleteMovie(ctx context.Context, req *v1.MovieRequest) (*v1.MessageReply, error) {
	title, err := s.movieUC.DeleteMovie(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	return &v1.MessageReply{Message: fmt.Sprintf("Movie '%s' deleted successfully", title)}, nil
}

// Health implements health check
func (s *MovieService) Health(ctx context.Context, _ *v1.Empty) (*v1.HealthReply, error) {
	return &v1.HealthReply{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   "movie-backend",
		Version:   Version,
	}, nil
}

// Helper functions

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// ratingInputFromProto requires both fields of a present rating payload.
func ratingInputFromProto(p *v1.RatingPayload) (*biz.RatingInput, error) {
	if p == nil {
		return nil, nil
	}
	v := validator.New()
	v.Check(p.Rating != nil, "rating", "must be provided")
	v.Check(p.VoteCount != nil, "vote_count", "must be provided")
	if !v.Valid() {
		return nil, biz.ValidationError(v)
	}
	return &biz.RatingInput{Rating: *p.Rating, VoteCount: *p.VoteCount}, nil
}

func movieSummaryToProto(movie *biz.Movie) *v1.MovieSummary {
	item := &v1.MovieSummary{
		Id:       movie.ID,
		Title:    movie.Title,
		Year:     movie.Year,
		Duration: movie.Duration,
		Genres:   movie.GenreNames(),
	}
	// Unrated movies keep null average_rating and vote_count
	if movie.Rating != nil {
		rating := movie.Rating.Rating
		votes := movie.Rating.VoteCount
		item.AverageRating = &rating
		item.VoteCount = &votes
	}
	return item
}

func movieDetailToProto(movie *biz.Movie) *v1.MovieDetail {
	reply := &v1.MovieDetail{
		Id:       movie.ID,
		Title:    movie.Title,
		Year:     movie.Year,
		Duration: movie.Duration,
		Genres:   make([]*v1.Genre, 0, len(movie.Genres)),
	}
	for _, g := range movie.Genres {
		reply.Genres = append(reply.Genres, genreToProto(g))
	}
	if movie.Rating != nil {
		reply.Rating = ratingToProto(movie.Rating)
	}
	return reply
}

func genreToProto(g *biz.Genre) *v1.Genre {
	return &v1.Genre{
		Id:      g.ID,
		MovieId: g.MovieID,
		Genre:   g.Genre,
	}
}

func ratingToProto(r *biz.Rating) *v1.Rating {
	return &v1.Rating{
		Id:        r.ID,
		MovieId:   r.MovieID,
		Rating:    r.Rating,
		VoteCount: r.VoteCount,
	}
}
