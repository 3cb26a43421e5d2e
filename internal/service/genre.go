package service

import (
	"context"
	"fmt"

	v1 "movies/api/movies/v1"
	"movies/internal/biz"
)

// ListMovieGenres implements listing the genres of a movie
func (s *MovieService) ListMovieGenres(ctx context.Context, req *v1.MovieRequest) (*v1.GenreList, error) {
	genres, err := s.genreUC.ListMovieGenres(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	reply := make(v1.GenreList, 0, len(genres))
	for _, g := range genres {
		reply = append(reply, genreToProto(g))
	}
	return &reply, nil
}

// AddMovieGenre implements adding one genre to a movie
func (s *MovieService) AddMovieGenre(ctx context.Context, req *v1.AddGenreRequest) (*v1.Genre, error) {
	genre, err := s.genreUC.AddGenre(ctx, req.Id, req.GenreName)
	if err != nil {
		return nil, err
	}
	return genreToProto(genre), nil
}

// RemoveMovieGenre implements removing one genre row from a movie
func (s *MovieService) RemoveMovieGenre(ctx context.Context, req *v1.RemoveGenreRequest) (*v1.MessageReply, error) {
	genre, err := s.genreUC.RemoveGenre(ctx, req.Id, req.GenreId)
	if err != nil {
		return nil, err
	}
	return &v1.MessageReply{Message: fmt.Sprintf("Genre '%s' removed from movie", genre.Genre)}, nil
}

// ListGenres implements the genre catalogue
func (s *MovieService) ListGenres(ctx context.Context, req *v1.ListGenresRequest) (*v1.GenreCountList, error) {
	counts, err := s.genreUC.ListGenres(ctx, req.Limit)
	if err != nil {
		return nil, err
	}
	reply := make(v1.GenreCountList, 0, len(counts))
	for _, c := range counts {
		reply = append(reply, &v1.GenreCount{Genre: c.Genre, MovieCount: c.MovieCount})
	}
	return &reply, nil
}

// ListMoviesByGenre implements paging through one genre
func (s *MovieService) ListMoviesByGenre(ctx context.Context, req *v1.ListMoviesByGenreRequest) (*v1.ListMoviesByGenreReply, error) {
	page, err := s.genreUC.ListMoviesByGenre(ctx, req.GenreName,
		intOr(req.Page, biz.DefaultPage), intOr(req.PageSize, biz.DefaultPageSize))
	if err != nil {
		return nil, err
	}

	reply := &v1.ListMoviesByGenreReply{
		Genre:    req.GenreName,
		Movies:   make([]*v1.MovieBrief, 0, len(page.Items)),
		Total:    page.Total,
		Page:     page.Page,
		PageSize: page.PageSize,
	}
	for _, m := range page.Items {
		reply.Movies = append(reply.Movies, &v1.MovieBrief{
			Id:       m.ID,
			Title:    m.Title,
			Year:     m.Year,
			Duration: m.Duration,
		})
	}
	return reply, nil
}
