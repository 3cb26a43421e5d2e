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

type genreRepo struct {
	data *Data
	log  *log.Helper
}

// NewGenreRepo creates a new genre repository
func NewGenreRepo(data *Data, logger log.Logger) biz.GenreRepo {
	return &genreRepo{
		data: data,
		log:  log.NewHelper(logger),
	}
}

func (r *genreRepo) CreateGenres(ctx context.Context, genres []*biz.Genre) error {
	if len(genres) == 0 {
		return nil
	}

	dbGenres := make([]Genre, 0, len(genres))
	for _, g := range genres {
		dbGenres = append(dbGenres, Genre{MovieID: g.MovieID, Genre: g.Genre})
	}
	if err := r.data.DB(ctx).Omit(clause.Associations).Create(&dbGenres).Error; err != nil {
		return fmt.Errorf("failed to create genres: %w", err)
	}

	keys := make([]string, 0, len(genres))
	for i, g := range genres {
		g.ID = dbGenres[i].ID
		keys = append(keys, movieKey(g.MovieID))
	}
	r.data.evict(ctx, keys...)
	return nil
}

func (r *genreRepo) GetGenre(ctx context.Context, movieID, genreID int64) (*biz.Genre, error) {
	var dbGenre Genre
	err := r.data.DB(ctx).Where("id = ? AND movie_id = ?", genreID, movieID).First(&dbGenre).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, biz.ErrGenreNotFound
		}
		return nil, fmt.Errorf("failed to get genre %d: %w", genreID, err)
	}
	return genreToBiz(&dbGenre), nil
}

func (r *genreRepo) ListByMovie(ctx context.Context, movieID int64) ([]*biz.Genre, error) {
	var dbGenres []Genre
	if err := r.data.DB(ctx).Where("movie_id = ?", movieID).Order("id").Find(&dbGenres).Error; err != nil {
		return nil, fmt.Errorf("failed to list genres of movie %d: %w", movieID, err)
	}
	return genresToBiz(dbGenres), nil
}

func (r *genreRepo) ListByMovies(ctx context.Context, movieIDs []int64) (map[int64][]*biz.Genre, error) {
	byMovie := make(map[int64][]*biz.Genre, len(movieIDs))
	if len(movieIDs) == 0 {
		return byMovie, nil
	}

	var dbGenres []Genre
	if err := r.data.DB(ctx).Where("movie_id IN ?", movieIDs).Order("id").Find(&dbGenres).Error; err != nil {
		return nil, fmt.Errorf("failed to list genres: %w", err)
	}
	for i := range dbGenres {
		g := genreToBiz(&dbGenres[i])
		byMovie[g.MovieID] = append(byMovie[g.MovieID], g)
	}
	return byMovie, nil
}

func (r *genreRepo) ExistsForMovie(ctx context.Context, movieID int64, name string) (bool, error) {
	var n int64
	err := r.data.DB(ctx).Model(&Genre{}).Where("movie_id = ? AND genre = ?", movieID, name).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check genre %q: %w", name, err)
	}
	return n > 0, nil
}

func (r *genreRepo) ExistsByName(ctx context.Context, name string) (bool, error) {
	var n int64
	err := r.data.DB(ctx).Model(&Genre{}).Where("LOWER(genre) = LOWER(?)", name).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check genre %q: %w", name, err)
	}
	return n > 0, nil
}

func (r *genreRepo) DeleteGenre(ctx context.Context, genre *biz.Genre) error {
	if err := r.data.DB(ctx).Delete(&Genre{}, genre.ID).Error; err != nil {
		return fmt.Errorf("failed to delete genre %d: %w", genre.ID, err)
	}
	r.data.evict(ctx, movieKey(genre.MovieID))
	return nil
}

// DeleteByNames removes every row of the movie whose name is in names,
// duplicates included.
func (r *genreRepo) DeleteByNames(ctx context.Context, movieID int64, names []string) (int64, error) {
	if len(names) == 0 {
		return 0, nil
	}
	res := r.data.DB(ctx).Where("movie_id = ? AND genre IN ?", movieID, names).Delete(&Genre{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete genres of movie %d: %w", movieID, res.Error)
	}
	r.data.evict(ctx, movieKey(movieID))
	return res.RowsAffected, nil
}

func (r *genreRepo) CountByName(ctx context.Context, limit int) ([]*biz.GenreCount, error) {
	var rows []struct {
		Genre      string
		MovieCount int64
	}
	db := r.data.DB(ctx).Model(&Genre{}).
		Select("genre, COUNT(id) AS movie_count").
		Group("genre").
		Order("genre")
	if limit > 0 {
		db = db.Limit(limit)
	}
	if err := db.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count genres: %w", err)
	}

	counts := make([]*biz.GenreCount, 0, len(rows))
	for _, row := range rows {
		counts = append(counts, &biz.GenreCount{Genre: row.Genre, MovieCount: row.MovieCount})
	}
	return counts, nil
}

func genreToBiz(g *Genre) *biz.Genre {
	return &biz.Genre{
		ID:      g.ID,
		MovieID: g.MovieID,
		Genre:   g.Genre,
	}
}

func genresToBiz(genres []Genre) []*biz.Genre {
	out := make([]*biz.Genre, 0, len(genres))
	for i := range genres {
		out = append(out, genreToBiz(&genres[i]))
	}
	return out
}
