package biz

import (
	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"movies/internal/pkg/validator"
)

var (
	ErrMovieNotFound  = errors.NotFound("MOVIE_NOT_FOUND", "Movie not found")
	ErrGenreNotFound  = errors.NotFound("GENRE_NOT_FOUND", "Genre not found for this movie")
	ErrUnknownGenre   = errors.NotFound("GENRE_NOT_FOUND", "Genre not found")
	ErrRatingNotFound = errors.NotFound("RATING_NOT_FOUND", "Rating not found for this movie")
	ErrGenreExists    = errors.Conflict("GENRE_ALREADY_EXISTS", "Genre already exists for this movie")
	ErrValidation     = errors.BadRequest("VALIDATION_ERROR", "invalid request parameters")
	ErrStorage        = errors.InternalServer("STORAGE_ERROR", "database error occurred")
)

// ValidationError wraps the collected field messages into ErrValidation.
func ValidationError(v *validator.Validator) error {
	if v.Valid() {
		return nil
	}
	return ErrValidation.WithMetadata(v.Errors)
}

// storageError passes classified errors through and turns anything else into
// an opaque ErrStorage, logging the cause.
func storageError(l *log.Helper, op string, err error) error {
	if err == nil {
		return nil
	}
	if se := new(errors.Error); errors.As(err, &se) {
		return err
	}
	l.Errorf("%s: %v", op, err)
	return ErrStorage.WithCause(err)
}
