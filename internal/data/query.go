package data

import (
	"context"
	"strings"

	"movies/internal/biz"

	"gorm.io/gorm"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s anywhere, with LIKE
// metacharacters in s taken literally.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// filtered builds the movie query for a filter, without paging. Filters
// combine with AND. A rating bound turns the rating join into an inner join
// so unrated movies drop out; the genre filter is an EXISTS so a movie
// matching several genres is still counted once.
func (r *movieRepo) filtered(ctx context.Context, f *biz.MovieFilter) *gorm.DB {
	db := r.data.DB(ctx).Model(&Movie{})

	if f.RatingBounded() {
		db = db.Joins("JOIN ratings ON ratings.movie_id = movies.id")
		if f.MinRating != nil {
			db = db.Where("ratings.rating >= ?", *f.MinRating)
		}
		if f.MaxRating != nil {
			db = db.Where("ratings.rating <= ?", *f.MaxRating)
		}
	} else {
		db = db.Joins("LEFT JOIN ratings ON ratings.movie_id = movies.id")
	}

	if f.Title != nil && *f.Title != "" {
		db = db.Where(`LOWER(movies.title) LIKE LOWER(?) ESCAPE '\'`, containsPattern(*f.Title))
	}

	if f.Year != nil {
		db = db.Where("movies.year = ?", *f.Year)
	}

	if f.Genre != nil && *f.Genre != "" {
		db = db.Where(`EXISTS (SELECT 1 FROM genres WHERE genres.movie_id = movies.id AND LOWER(genres.genre) LIKE LOWER(?) ESCAPE '\')`,
			containsPattern(*f.Genre))
	}

	return db
}
