package biz

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"movies/internal/pkg/validator"
)

// GenreUseCase handles genres of a single movie and the genre catalogue.
type GenreUseCase struct {
	tx        Transaction
	movieRepo MovieRepo
	repo      GenreRepo
	log       *log.Helper
}

func NewGenreUseCase(tx Transaction, movieRepo MovieRepo, repo GenreRepo, logger log.Logger) *GenreUseCase {
	return &GenreUseCase{
		tx:        tx,
		movieRepo: movieRepo,
		repo:      repo,
		log:       log.NewHelper(logger),
	}
}

// ListMovieGenres returns the genre rows of an existing movie.
func (uc *GenreUseCase) ListMovieGenres(ctx context.Context, movieID int64) ([]*Genre, error) {
	var genres []*Genre
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := uc.movieRepo.FindMovie(ctx, movieID); err != nil {
			return err
		}
		var err error
		genres, err = uc.repo.ListByMovie(ctx, movieID)
		return err
	})
	if err != nil {
		return nil, storageError(uc.log, "list movie genres", err)
	}
	return genres, nil
}

// AddGenre attaches a genre to a movie. An exact duplicate is a conflict.
func (uc *GenreUseCase) AddGenre(ctx context.Context, movieID int64, name string) (*Genre, error) {
	v := validator.New()
	if validateGenreName(v, "genre_name", name); !v.Valid() {
		return nil, ValidationError(v)
	}

	genre := &Genre{MovieID: movieID, Genre: name}
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := uc.movieRepo.FindMovie(ctx, movieID); err != nil {
			return err
		}
		exists, err := uc.repo.ExistsForMovie(ctx, movieID, name)
		if err != nil {
			return err
		}
		if exists {
			return ErrGenreExists
		}
		return uc.repo.CreateGenres(ctx, []*Genre{genre})
	})
	if err != nil {
		return nil, storageError(uc.log, "add genre", err)
	}
	return genre, nil
}

// RemoveGenre deletes a genre row that belongs to the movie.
func (uc *GenreUseCase) RemoveGenre(ctx context.Context, movieID, genreID int64) (*Genre, error) {
	var genre *Genre
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		genre, err = uc.repo.GetGenre(ctx, movieID, genreID)
		if err != nil {
			return err
		}
		return uc.repo.DeleteGenre(ctx, genre)
	})
	if err != nil {
		return nil, storageError(uc.log, "remove genre", err)
	}
	return genre, nil
}

// ListGenres returns distinct genre names with their row counts, ordered by
// name. A nil limit means no limit.
func (uc *GenreUseCase) ListGenres(ctx context.Context, limit *int) ([]*GenreCount, error) {
	n := 0
	if limit != nil {
		v := validator.New()
		if v.Check(*limit >= 1, "limit", "must be greater than zero"); !v.Valid() {
			return nil, ValidationError(v)
		}
		n = *limit
	}
	counts, err := uc.repo.CountByName(ctx, n)
	if err != nil {
		return nil, storageError(uc.log, "list genres", err)
	}
	return counts, nil
}

// ListMoviesByGenre pages through the movies carrying a genre, matched
// case-insensitively. Unknown genres are not found.
func (uc *GenreUseCase) ListMoviesByGenre(ctx context.Context, name string, page, pageSize int) (*MoviePage, error) {
	v := validator.New()
	if ValidatePagination(v, page, pageSize); !v.Valid() {
		return nil, ValidationError(v)
	}

	result := &MoviePage{Page: page, PageSize: pageSize}
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		exists, err := uc.repo.ExistsByName(ctx, name)
		if err != nil {
			return err
		}
		if !exists {
			return ErrUnknownGenre
		}
		result.Items, result.Total, err = uc.movieRepo.ListMoviesByGenre(ctx, name, page, pageSize)
		return err
	})
	if err != nil {
		return nil, storageError(uc.log, "list movies by genre", err)
	}
	return result, nil
}
