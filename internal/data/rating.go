package data

import (
	"context"
	"errors"
	"fmt"

	"movies/internal/biz"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ratingRepo struct {
	data *Data
	log  *log.Helper
}

// NewRatingRepo creates a new rating repository
func NewRatingRepo(data *Data, logger log.Logger) biz.RatingRepo {
	return &ratingRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *ratingRepo) GetByMovie(ctx context.Context, movieID int64) (*biz.Rating, error) {
	var dbRating Rating
	if err := r.data.DB(ctx).Where("movie_id = ?", movieID).First(&dbRating).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to get rating of movie %d: %w", movieID, err)
	}
	return ratingToBiz(&dbRating), nil
}

func (r *ratingRepo) CreateRating(ctx context.Context, rating *biz.Rating) error {
	dbRating := &Rating{
		MovieID:   rating.MovieID,
		Rating:    rating.Rating,
		VoteCount: rating.VoteCount,
	}
	if err := r.data.DB(ctx).Omit(clause.Associations).Create(dbRating).Error; err != nil {
		return fmt.Errorf("failed to create rating: %w", err)
	}
	rating.ID = dbRating.ID

	r.invalidate(ctx, rating.MovieID)
	return nil
}

func (r *ratingRepo) UpdateRating(ctx context.Context, rating *biz.Rating) error {
	err := r.data.DB(ctx).Model(&Rating{ID: rating.ID}).Updates(map[string]interface{}{
		"rating":     rating.Rating,
		"vote_count": rating.VoteCount,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update rating: %w", err)
	}

	r.invalidate(ctx, rating.MovieID)
	return nil
}

func (r *ratingRepo) DeleteRating(ctx context.Context, rating *biz.Rating) error {
	if err := r.data.DB(ctx).Delete(&Rating{}, rating.ID).Error; err != nil {
		return fmt.Errorf("failed to delete rating: %w", err)
	}

	r.invalidate(ctx, rating.MovieID)
	return nil
}

func (r *ratingRepo) TopRated(ctx context.Context, limit, minVotes int) ([]*biz.Movie, error) {
	var rows []movieRow
	err := r.data.DB(ctx).Model(&Movie{}).
		Select(movieRowColumns).
		Joins("JOIN ratings ON ratings.movie_id = movies.id").
		Where("ratings.vote_count >= ?", minVotes).
		Order("ratings.rating DESC").
		Order("movies.id").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top rated movies: %w", err)
	}
	return rowsToBiz(rows), nil
}

func (r *ratingRepo) Summary(ctx context.Context) (*biz.RatingSummary, error) {
	var summary biz.RatingSummary
	ver, hit := r.data.cacheGet(ctx, ratingStatsKey, &summary)
	if hit {
		return &summary, nil
	}

	var result struct {
		AverageRating          float64
		MinRating              float64
		MaxRating              float64
		TotalMoviesWithRatings int64
		TotalVotes             int64
	}
	err := r.data.DB(ctx).
		Model(&Rating{}).
		Select("COALESCE(AVG(rating), 0) AS average_rating, " +
			"COALESCE(MIN(rating), 0) AS min_rating, " +
			"COALESCE(MAX(rating), 0) AS max_rating, " +
			"COUNT(id) AS total_movies_with_ratings, " +
			"COALESCE(SUM(vote_count), 0) AS total_votes").
		Scan(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get rating statistics: %w", err)
	}

	summary = biz.RatingSummary(result)
	r.data.cacheSet(ctx, ratingStatsKey, ver, &summary)
	return &summary, nil
}

func (r *ratingRepo) CountByValue(ctx context.Context) ([]*biz.RatingValueCount, error) {
	var counts []*biz.RatingValueCount
	ver, hit := r.data.cacheGet(ctx, ratingDistributionKey, &counts)
	if hit {
		return counts, nil
	}

	var rows []struct {
		Rating float64
		Count  int64
	}
	err := r.data.DB(ctx).
		Model(&Rating{}).
		Select("rating, COUNT(id) AS count").
		Group("rating").
		Order("rating").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get rating distribution: %w", err)
	}

	counts = make([]*biz.RatingValueCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, &biz.RatingValueCount{Rating: row.Rating, Count: row.Count})
	}
	r.data.cacheSet(ctx, ratingDistributionKey, ver, counts)
	return counts, nil
}

// invalidate drops every cached value derived from a movie's rating.
func (r *ratingRepo) invalidate(ctx context.Context, movieID int64) {
	r.data.evict(ctx, movieKey(movieID), ratingStatsKey, ratingDistributionKey)
}

func ratingToBiz(r *Rating) *biz.Rating {
	return &biz.Rating{
		ID:        r.ID,
		MovieID:   r.MovieID,
		Rating:    r.Rating,
		VoteCount: r.VoteCount,
	}
}
