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

type movieRepo struct {
	data *Data
	log  *log.Helper
}

// NewMovieRepo creates a new movie repository
func NewMovieRepo(data *Data, logger log.Logger) biz.MovieRepo {
	return &movieRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *movieRepo) CreateMovie(ctx context.Context, movie *biz.Movie) error {
	dbMovie := r.bizToModel(movie)

	if err := r.data.DB(ctx).Omit(clause.Associations).Create(dbMovie).Error; err != nil {
		return fmt.Errorf("failed to create movie: %w", err)
	}
	movie.ID = dbMovie.ID
	return nil
}

func (r *movieRepo) FindMovie(ctx context.Context, id int64) (*biz.Movie, error) {
	var dbMovie Movie
	if err := r.data.DB(ctx).First(&dbMovie, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrMovieNotFound
		}
		return nil, fmt.Errorf("failed to find movie %d: %w", id, err)
	}
	return r.modelToBiz(&dbMovie), nil
}

func (r *movieRepo) GetMovieDetail(ctx context.Context, id int64) (*biz.Movie, error) {
	var movie *biz.Movie
	ver, hit := r.data.cacheGet(ctx, movieKey(id), &movie)
	if hit && movie != nil {
		return movie, nil
	}

	// movie, genres and rating are read in one transaction
	err := r.data.InTx(ctx, func(ctx context.Context) error {
		var err error
		movie, err = r.FindMovie(ctx, id)
		if err != nil {
			return err
		}

		var genres []Genre
		if err := r.data.DB(ctx).Where("movie_id = ?", id).Order("id").Find(&genres).Error; err != nil {
			return fmt.Errorf("failed to load genres of movie %d: %w", id, err)
		}
		movie.Genres = genresToBiz(genres)

		var rating Rating
		err = r.data.DB(ctx).Where("movie_id = ?", id).Limit(1).Find(&rating).Error
		if err != nil {
			return fmt.Errorf("failed to load rating of movie %d: %w", id, err)
		}
		if rating.ID != 0 {
			movie.Rating = ratingToBiz(&rating)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.data.cacheSet(ctx, movieKey(id), ver, movie)
	return movie, nil
}

func (r *movieRepo) UpdateMovie(ctx context.Context, movie *biz.Movie) error {
	err := r.data.DB(ctx).Model(&Movie{ID: movie.ID}).Updates(map[string]interface{}{
		"title":    movie.Title,
		"year":     movie.Year,
		"duration": movie.Duration,
	}).Error
	if err != nil {
		return fmt.Errorf("failed to update movie: %w", err)
	}

	r.data.evict(ctx, movieKey(movie.ID))
	return nil
}

// DeleteMovie must run inside a transaction; children go first so the
// foreign keys hold at every step.
func (r *movieRepo) DeleteMovie(ctx context.Context, id int64) error {
	db := r.data.DB(ctx)
	if err := db.Where("movie_id = ?", id).Delete(&Genre{}).Error; err != nil {
		return fmt.Errorf("failed to delete genres of movie %d: %w", id, err)
	}
	if err := db.Where("movie_id = ?", id).Delete(&Rating{}).Error; err != nil {
		return fmt.Errorf("failed to delete rating of movie %d: %w", id, err)
	}
	res := db.Delete(&Movie{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete movie %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return biz.ErrMovieNotFound
	}

	r.data.evict(ctx, movieKey(id), ratingStatsKey, ratingDistributionKey)
	return nil
}

func (r *movieRepo) ListMovies(ctx context.Context, filter *biz.MovieFilter) ([]*biz.Movie, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count movies: %w", err)
	}

	var rows []movieRow
	err := r.filtered(ctx, filter).
		Select(movieRowColumns).
		Order("movies.id").
		Offset(filter.Offset()).
		Limit(filter.PageSize).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list movies: %w", err)
	}

	return rowsToBiz(rows), total, nil
}

func (r *movieRepo) ListMoviesByGenre(ctx context.Context, genre string, page, pageSize int) ([]*biz.Movie, int64, error) {
	byGenre := func() *gorm.DB {
		return r.data.DB(ctx).Model(&Movie{}).
			Where("EXISTS (SELECT 1 FROM genres WHERE genres.movie_id = movies.id AND LOWER(genres.genre) = LOWER(?))", genre)
	}

	var total int64
	if err := byGenre().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count movies of genre %q: %w", genre, err)
	}

	var dbMovies []Movie
	err := byGenre().
		Order("movies.id").
		Offset(biz.PageOffset(page, pageSize)).
		Limit(pageSize).
		Find(&dbMovies).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list movies of genre %q: %w", genre, err)
	}

	movies := make([]*biz.Movie, 0, len(dbMovies))
	for i := range dbMovies {
		movies = append(movies, r.modelToBiz(&dbMovies[i]))
	}
	return movies, total, nil
}

// Helper: Convert biz.Movie to data.Movie
func (r *movieRepo) bizToModel(m *biz.Movie) *Movie {
	return &Movie{
		ID:       m.ID,
		Title:    m.Title,
		Year:     m.Year,
		Duration: m.Duration,
	}
}

// Helper: Convert data.Movie to biz.Movie
func (r *movieRepo) modelToBiz(m *Movie) *biz.Movie {
	return &biz.Movie{
		ID:       m.ID,
		Title:    m.Title,
		Year:     m.Year,
		Duration: m.Duration,
	}
}

func rowsToBiz(rows []movieRow) []*biz.Movie {
	movies := make([]*biz.Movie, 0, len(rows))
	for _, row := range rows {
		movie := &biz.Movie{
			ID:       row.ID,
			Title:    row.Title,
			Year:     row.Year,
			Duration: row.Duration,
		}
		if row.RatingID != nil {
			movie.Rating = &biz.Rating{
				ID:      *row.RatingID,
				MovieID: row.ID,
			}
			if row.RatingValue != nil {
				movie.Rating.Rating = *row.RatingValue
			}
			if row.RatingVoteCount != nil {
				movie.Rating.VoteCount = *row.RatingVoteCount
			}
		}
		movies = append(movies, movie)
	}
	return movies
}
