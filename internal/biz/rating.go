package biz

import (
	"context"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"

	"movies/internal/pkg/validator"
)

// RatingUseCase handles rating-related business logic
type RatingUseCase struct {
	tx         Transaction
	movieRepo  MovieRepo
	ratingRepo RatingRepo
	log        *log.Helper
}

// NewRatingUseCase creates a new RatingUseCase instance
func NewRatingUseCase(tx Transaction, movieRepo MovieRepo, ratingRepo RatingRepo, logger log.Logger) *RatingUseCase {
	return &RatingUseCase{
		tx:         tx,
		movieRepo:  movieRepo,
		ratingRepo: ratingRepo,
		log:        log.NewHelper(logger),
	}
}

// GetRating returns the rating of an existing movie.
func (uc *RatingUseCase) GetRating(ctx context.Context, movieID int64) (*Rating, error) {
	var rating *Rating
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := uc.movieRepo.FindMovie(ctx, movieID); err != nil {
			return err
		}
		var err error
		rating, err = uc.ratingRepo.GetByMovie(ctx, movieID)
		return err
	})
	if err != nil {
		return nil, storageError(uc.log, "get rating", err)
	}
	return rating, nil
}

// AddRating sets the rating of a movie (Upsert). The existing row keeps its
// id; created reports whether a new row was inserted.
func (uc *RatingUseCase) AddRating(ctx context.Context, movieID int64, in *RatingInput) (rating *Rating, created bool, err error) {
	v := validator.New()
	if ValidateRatingInput(v, in); !v.Valid() {
		return nil, false, ValidationError(v)
	}

	err = uc.tx.InTx(ctx, func(ctx context.Context) error {
		if _, err := uc.movieRepo.FindMovie(ctx, movieID); err != nil {
			return err
		}
		var err error
		rating, created, err = uc.upsert(ctx, movieID, in)
		return err
	})
	if err != nil {
		return nil, false, storageError(uc.log, "add rating", err)
	}
	return rating, created, nil
}

// UpdateRating changes the fields present in patch. The rating must exist.
func (uc *RatingUseCase) UpdateRating(ctx context.Context, movieID int64, patch *RatingPatch) (*Rating, error) {
	v := validator.New()
	if ValidateRatingPatch(v, patch); !v.Valid() {
		return nil, ValidationError(v)
	}

	var rating *Rating
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		rating, err = uc.ratingRepo.GetByMovie(ctx, movieID)
		if err != nil {
			return err
		}
		if patch.Rating != nil {
			rating.Rating = *patch.Rating
		}
		if patch.VoteCount != nil {
			rating.VoteCount = *patch.VoteCount
		}
		return uc.ratingRepo.UpdateRating(ctx, rating)
	})
	if err != nil {
		return nil, storageError(uc.log, "update rating", err)
	}
	return rating, nil
}

// DeleteRating removes the rating of a movie. The rating must exist.
func (uc *RatingUseCase) DeleteRating(ctx context.Context, movieID int64) error {
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		rating, err := uc.ratingRepo.GetByMovie(ctx, movieID)
		if err != nil {
			return err
		}
		return uc.ratingRepo.DeleteRating(ctx, rating)
	})
	return storageError(uc.log, "delete rating", err)
}

// TopRated returns the best rated movies having at least minVotes votes.
// Unrated movies never appear.
func (uc *RatingUseCase) TopRated(ctx context.Context, limit, minVotes int) ([]*Movie, error) {
	v := validator.New()
	v.Check(validator.Between(limit, 1, MaxTopRatedLimit), "limit", "must be between 1 and 100")
	v.Check(minVotes >= 1, "min_votes", "must be greater than zero")
	if !v.Valid() {
		return nil, ValidationError(v)
	}

	movies, err := uc.ratingRepo.TopRated(ctx, limit, minVotes)
	if err != nil {
		return nil, storageError(uc.log, "top rated", err)
	}
	return movies, nil
}

// Statistics summarises every rating. The average is rounded to two
// decimals; everything is zero when no rating exists.
func (uc *RatingUseCase) Statistics(ctx context.Context) (*RatingSummary, error) {
	summary, err := uc.ratingRepo.Summary(ctx)
	if err != nil {
		return nil, storageError(uc.log, "rating statistics", err)
	}
	summary.AverageRating = roundTo2(summary.AverageRating)
	return summary, nil
}

// Distribution counts ratings per integer floor, lowest first.
func (uc *RatingUseCase) Distribution(ctx context.Context) ([]*RatingBucket, error) {
	counts, err := uc.ratingRepo.CountByValue(ctx)
	if err != nil {
		return nil, storageError(uc.log, "rating distribution", err)
	}
	return BucketRatings(counts), nil
}

// upsert must run inside a transaction on an existing movie.
func (uc *RatingUseCase) upsert(ctx context.Context, movieID int64, in *RatingInput) (*Rating, bool, error) {
	rating, err := uc.ratingRepo.GetByMovie(ctx, movieID)
	switch {
	case errors.Is(err, ErrRatingNotFound):
		rating = &Rating{MovieID: movieID, Rating: in.Rating, VoteCount: in.VoteCount}
		if err := uc.ratingRepo.CreateRating(ctx, rating); err != nil {
			return nil, false, err
		}
		return rating, true, nil
	case err != nil:
		return nil, false, err
	}

	rating.Rating = in.Rating
	rating.VoteCount = in.VoteCount
	if err := uc.ratingRepo.UpdateRating(ctx, rating); err != nil {
		return nil, false, err
	}
	return rating, false, nil
}
