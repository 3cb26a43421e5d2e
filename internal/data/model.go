package data

// Movie represents the movies table
type Movie struct {
	ID       int64  `gorm:"primaryKey"`
	Title    string `gorm:"not null;size:500;index;index:idx_movie_title_year,priority:1"`
	Year     *int   `gorm:"index;index:idx_movie_title_year,priority:2;index:idx_movie_year_duration,priority:1"`
	Duration *int   `gorm:"index:idx_movie_year_duration,priority:2"`
}

// TableName overrides the table name
func (Movie) TableName() string {
	return "movies"
}

// Genre represents the genres table. (movie_id, genre) is indexed but not
// unique; create requests may carry the same name twice.
type Genre struct {
	ID      int64  `gorm:"primaryKey"`
	MovieID int64  `gorm:"not null;index;index:idx_genre_movie_genre,priority:1"`
	Genre   string `gorm:"not null;size:100;index;index:idx_genre_movie_genre,priority:2"`

	// Foreign key
	Movie Movie `gorm:"foreignKey:MovieID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the table name
func (Genre) TableName() string {
	return "genres"
}

// Rating represents the ratings table, at most one row per movie.
type Rating struct {
	ID        int64   `gorm:"primaryKey"`
	MovieID   int64   `gorm:"not null;uniqueIndex"`
	Rating    float64 `gorm:"not null;index;index:idx_rating_vote_count,priority:1;check:rating >= 0 AND rating <= 10"`
	VoteCount int     `gorm:"not null;default:0;index:idx_rating_vote_count,priority:2"`

	// Foreign key
	Movie Movie `gorm:"foreignKey:MovieID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName overrides the table name
func (Rating) TableName() string {
	return "ratings"
}

// movieRow is a movie joined with its optional rating.
type movieRow struct {
	ID              int64
	Title           string
	Year            *int
	Duration        *int
	RatingID        *int64
	RatingValue     *float64
	RatingVoteCount *int
}

const movieRowColumns = "movies.id, movies.title, movies.year, movies.duration, " +
	"ratings.id AS rating_id, ratings.rating AS rating_value, ratings.vote_count AS rating_vote_count"
