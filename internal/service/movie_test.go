package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "movies/api/movies/v1"
	"movies/internal/biz"
	"movies/internal/conf"
	"movies/internal/data"
)

func newTestService(t *testing.T) *MovieService {
	t.Helper()
	logger := log.DefaultLogger
	d, cleanup, err := data.NewData(&conf.Data{
		Database: &conf.Data_Database{
			Driver:       "sqlite",
			Source:       ":memory:?_pragma=foreign_keys(1)",
			MaxIdleConns: 1,
			MaxOpenConns: 1,
			AutoMigrate:  true,
		},
	}, logger)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	tx := data.NewTransaction(d)
	movieRepo := data.NewMovieRepo(d, logger)
	genreRepo := data.NewGenreRepo(d, logger)
	ratingRepo := data.NewRatingRepo(d, logger)
	ratings := biz.NewRatingUseCase(tx, movieRepo, ratingRepo, logger)
	return NewMovieService(
		biz.NewMovieUseCase(tx, movieRepo, genreRepo, ratings, logger),
		biz.NewGenreUseCase(tx, movieRepo, genreRepo, logger),
		ratings,
	)
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func createInception(t *testing.T, s *MovieService) *v1.MovieDetail {
	t.Helper()
	movie, err := s.CreateMovie(context.Background(), &v1.CreateMovieRequest{
		Title:    "Inception",
		Year:     intPtr(2010),
		Duration: intPtr(148),
		Genres:   []string{"Action", "Sci-Fi"},
		Rating:   &v1.RatingPayload{Rating: floatPtr(8.8), VoteCount: intPtr(2000000)},
	})
	require.NoError(t, err)
	return movie
}

func TestCreateAndGetMovieDetailShape(t *testing.T) {
	s := newTestService(t)
	created := createInception(t, s)

	got, err := s.GetMovie(context.Background(), &v1.MovieRequest{Id: created.Id})
	require.NoError(t, err)

	body, err := json.Marshal(got)
	require.NoError(t, err)
	var shape map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &shape))

	assert.Equal(t, "Inception", shape["title"])
	assert.Equal(t, float64(2010), shape["year"])
	genres := shape["genres"].([]interface{})
	require.Len(t, genres, 2)
	assert.Equal(t, "Action", genres[0].(map[string]interface{})["genre"])
	assert.Equal(t, float64(created.Id), genres[0].(map[string]interface{})["movie_id"])
	rating := shape["rating"].(map[string]interface{})
	assert.Equal(t, 8.8, rating["rating"])
	assert.Equal(t, float64(2000000), rating["vote_count"])
}

func TestMovieDetailWithoutGenresOrRating(t *testing.T) {
	s := newTestService(t)
	created, err := s.CreateMovie(context.Background(), &v1.CreateMovieRequest{Title: "Bare"})
	require.NoError(t, err)

	body, err := json.Marshal(created)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"title":"Bare","year":null,"duration":null,"genres":[],"rating":null}`, string(body))
}

func TestListMoviesSummaryShape(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	createInception(t, s)
	_, err := s.CreateMovie(ctx, &v1.CreateMovieRequest{Title: "Unrated"})
	require.NoError(t, err)

	reply, err := s.ListMovies(ctx, &v1.ListMoviesRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), reply.Total)
	assert.Equal(t, biz.DefaultPage, reply.Page)
	assert.Equal(t, biz.DefaultPageSize, reply.PageSize)
	require.Len(t, reply.Movies, 2)

	assert.Equal(t, []string{"Action", "Sci-Fi"}, reply.Movies[0].Genres)
	require.NotNil(t, reply.Movies[0].AverageRating)
	assert.Equal(t, 8.8, *reply.Movies[0].AverageRating)
	assert.Equal(t, 2000000, *reply.Movies[0].VoteCount)

	body, err := json.Marshal(reply.Movies[1])
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":2,"title":"Unrated","year":null,"duration":null,
		"average_rating":null,"vote_count":null,"genres":[]}`, string(body))
}

func TestListMoviesRatingFilterBounds(t *testing.T) {
	s := newTestService(t)
	createInception(t, s)

	reply, err := s.ListMovies(context.Background(), &v1.ListMoviesRequest{MinRating: floatPtr(9)})
	require.NoError(t, err)
	assert.Zero(t, reply.Total)
	assert.NotNil(t, reply.Movies)

	_, err = s.ListMovies(context.Background(), &v1.ListMoviesRequest{PageSize: intPtr(101)})
	assert.True(t, errors.IsBadRequest(err))
}

func TestCreateMovieRatingPayloadNeedsBothFields(t *testing.T) {
	s := newTestService(t)

	_, err := s.CreateMovie(context.Background(), &v1.CreateMovieRequest{
		Title:  "Inception",
		Rating: &v1.RatingPayload{Rating: floatPtr(8.8)},
	})
	require.True(t, errors.IsBadRequest(err))
	assert.Equal(t, "must be provided", errors.FromError(err).Metadata["vote_count"])

	reply, err := s.ListMovies(context.Background(), &v1.ListMoviesRequest{})
	require.NoError(t, err)
	assert.Zero(t, reply.Total)
}

func TestInceptionScenario(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	created := createInception(t, s)

	updated, err := s.UpdateMovie(ctx, &v1.UpdateMovieRequest{
		Id:     created.Id,
		Genres: &[]string{"Sci-Fi", "Thriller"},
		Rating: &v1.RatingPayload{Rating: floatPtr(9.0), VoteCount: intPtr(2100000)},
	})
	require.NoError(t, err)
	assert.Equal(t, "Inception", updated.Title)
	require.Len(t, updated.Genres, 2)
	assert.Equal(t, created.Genres[1].Id, updated.Genres[0].Id)
	assert.Equal(t, "Thriller", updated.Genres[1].Genre)
	assert.Equal(t, created.Rating.Id, updated.Rating.Id)
	assert.Equal(t, 9.0, updated.Rating.Rating)

	top, err := s.TopRated(ctx, &v1.TopRatedRequest{})
	require.NoError(t, err)
	require.Len(t, *top, 1)
	assert.Equal(t, 9.0, (*top)[0].AverageRating)

	stats, err := s.RatingStatistics(ctx, &v1.Empty{})
	require.NoError(t, err)
	assert.Equal(t, &v1.RatingStatistics{
		AverageRating:          9.0,
		MinRating:              9.0,
		MaxRating:              9.0,
		TotalMoviesWithRatings: 1,
		TotalVotes:             2100000,
	}, stats)

	dist, err := s.RatingDistribution(ctx, &v1.Empty{})
	require.NoError(t, err)
	assert.Equal(t, v1.RatingDistribution{{RatingRange: "9-10", Count: 1}}, *dist)

	msg, err := s.DeleteMovie(ctx, &v1.MovieRequest{Id: created.Id})
	require.NoError(t, err)
	assert.Equal(t, "Movie 'Inception' deleted successfully", msg.Message)

	_, err = s.GetMovie(ctx, &v1.MovieRequest{Id: created.Id})
	assert.True(t, errors.IsNotFound(err))

	stats, err = s.RatingStatistics(ctx, &v1.Empty{})
	require.NoError(t, err)
	assert.Equal(t, &v1.RatingStatistics{}, stats)
}

func TestGenreEndpoints(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	created := createInception(t, s)

	added, err := s.AddMovieGenre(ctx, &v1.AddGenreRequest{Id: created.Id, GenreName: "Thriller"})
	require.NoError(t, err)
	assert.Equal(t, "Thriller", added.Genre)

	_, err = s.AddMovieGenre(ctx, &v1.AddGenreRequest{Id: created.Id, GenreName: "Thriller"})
	assert.True(t, errors.IsConflict(err))

	list, err := s.ListMovieGenres(ctx, &v1.MovieRequest{Id: created.Id})
	require.NoError(t, err)
	assert.Len(t, *list, 3)

	msg, err := s.RemoveMovieGenre(ctx, &v1.RemoveGenreRequest{Id: created.Id, GenreId: added.Id})
	require.NoError(t, err)
	assert.Equal(t, "Genre 'Thriller' removed from movie", msg.Message)

	_, err = s.RemoveMovieGenre(ctx, &v1.RemoveGenreRequest{Id: created.Id, GenreId: added.Id})
	assert.True(t, errors.IsNotFound(err))

	catalogue, err := s.ListGenres(ctx, &v1.ListGenresRequest{})
	require.NoError(t, err)
	assert.Equal(t, v1.GenreCountList{
		{Genre: "Action", MovieCount: 1},
		{Genre: "Sci-Fi", MovieCount: 1},
	}, *catalogue)

	byGenre, err := s.ListMoviesByGenre(ctx, &v1.ListMoviesByGenreRequest{GenreName: "sci-fi"})
	require.NoError(t, err)
	assert.Equal(t, "sci-fi", byGenre.Genre)
	assert.Equal(t, int64(1), byGenre.Total)
	require.Len(t, byGenre.Movies, 1)
	assert.Equal(t, "Inception", byGenre.Movies[0].Title)

	_, err = s.ListMoviesByGenre(ctx, &v1.ListMoviesByGenreRequest{GenreName: "Western"})
	assert.True(t, errors.IsNotFound(err))
	assert.Equal(t, "Genre not found", errors.FromError(err).Message)
}

func TestRatingEndpoints(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	movie, err := s.CreateMovie(ctx, &v1.CreateMovieRequest{Title: "Tenet"})
	require.NoError(t, err)

	_, err = s.GetMovieRating(ctx, &v1.MovieRequest{Id: movie.Id})
	assert.True(t, errors.IsNotFound(err))

	added, err := s.AddMovieRating(ctx, &v1.RatingRequest{
		Id:            movie.Id,
		RatingPayload: v1.RatingPayload{Rating: floatPtr(7.3), VoteCount: intPtr(500)},
	})
	require.NoError(t, err)
	assert.Equal(t, 201, added.HTTPStatus())

	again, err := s.AddMovieRating(ctx, &v1.RatingRequest{
		Id:            movie.Id,
		RatingPayload: v1.RatingPayload{Rating: floatPtr(7.5), VoteCount: intPtr(600)},
	})
	require.NoError(t, err)
	assert.Equal(t, 200, again.HTTPStatus())
	assert.Equal(t, added.Id, again.Id)

	body, err := json.Marshal(again)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":1,"movie_id":1,"rating":7.5,"vote_count":600}`, string(body))

	patched, err := s.UpdateMovieRating(ctx, &v1.RatingRequest{
		Id:            movie.Id,
		RatingPayload: v1.RatingPayload{VoteCount: intPtr(700)},
	})
	require.NoError(t, err)
	assert.Equal(t, 7.5, patched.Rating)
	assert.Equal(t, 700, patched.VoteCount)

	msg, err := s.DeleteMovieRating(ctx, &v1.MovieRequest{Id: movie.Id})
	require.NoError(t, err)
	assert.Equal(t, "Rating removed from movie", msg.Message)

	_, err = s.DeleteMovieRating(ctx, &v1.MovieRequest{Id: movie.Id})
	assert.True(t, errors.IsNotFound(err))
}

func TestHealth(t *testing.T) {
	s := newTestService(t)

	reply, err := s.Health(context.Background(), &v1.Empty{})
	require.NoError(t, err)
	assert.Equal(t, "healthy", reply.Status)
	assert.Equal(t, "movie-backend", reply.Service)
	assert.NotEmpty(t, reply.Timestamp)
}
