package data

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm/clause"

	"movies/internal/biz"
	"movies/internal/pkg/validator"
)

// Seed file names and their headers.
const (
	seedMoviesFile  = "peliculas_10000.csv" // id_pelicula,titulo,año,duracion
	seedGenresFile  = "generos_10000.csv"   // id,id_pelicula,genero
	seedRatingsFile = "rating_10000.csv"    // id,id_pelicula,rating,nro_votos

	seedBatchSize = 500
)

// Seed loads the CSV files found in dir when the movies table is empty.
// Missing files are skipped. Malformed rows, duplicate ids and genre or rating
// rows pointing at a movie that was not loaded are logged and skipped.
func (d *Data) Seed(ctx context.Context, dir string) error {
	var n int64
	if err := d.db.WithContext(ctx).Model(&Movie{}).Count(&n).Error; err != nil {
		return fmt.Errorf("failed to count movies: %w", err)
	}
	if n > 0 {
		d.log.Infof("movies table not empty (%d rows), skipping seed", n)
		return nil
	}

	return d.InTx(ctx, func(ctx context.Context) error {
		movies, err := readSeed(d.log, filepath.Join(dir, seedMoviesFile), parseSeedMovie)
		if err != nil {
			return err
		}
		genres, err := readSeed(d.log, filepath.Join(dir, seedGenresFile), parseSeedGenre)
		if err != nil {
			return err
		}
		ratings, err := readSeed(d.log, filepath.Join(dir, seedRatingsFile), parseSeedRating)
		if err != nil {
			return err
		}

		movieIDs := make(map[int64]bool, len(movies))
		movies = filterSeed(d.log, seedMoviesFile, movies, func(m Movie) error {
			if movieIDs[m.ID] {
				return fmt.Errorf("duplicate id_pelicula %d", m.ID)
			}
			movieIDs[m.ID] = true
			return nil
		})

		genreIDs := make(map[int64]bool, len(genres))
		genres = filterSeed(d.log, seedGenresFile, genres, func(g Genre) error {
			switch {
			case genreIDs[g.ID]:
				return fmt.Errorf("duplicate id %d", g.ID)
			case !movieIDs[g.MovieID]:
				return fmt.Errorf("id %d: unknown id_pelicula %d", g.ID, g.MovieID)
			}
			genreIDs[g.ID] = true
			return nil
		})

		ratingIDs := make(map[int64]bool, len(ratings))
		rated := make(map[int64]bool, len(ratings))
		ratings = filterSeed(d.log, seedRatingsFile, ratings, func(r Rating) error {
			switch {
			case ratingIDs[r.ID]:
				return fmt.Errorf("duplicate id %d", r.ID)
			case !movieIDs[r.MovieID]:
				return fmt.Errorf("id %d: unknown id_pelicula %d", r.ID, r.MovieID)
			case rated[r.MovieID]:
				return fmt.Errorf("id %d: id_pelicula %d already rated", r.ID, r.MovieID)
			}
			ratingIDs[r.ID] = true
			rated[r.MovieID] = true
			return nil
		})

		create := func(table string, rows interface{}) error {
			if err := d.DB(ctx).Omit(clause.Associations).CreateInBatches(rows, seedBatchSize).Error; err != nil {
				return fmt.Errorf("failed to seed %s: %w", table, err)
			}
			return nil
		}
		if len(movies) > 0 {
			if err := create("movies", &movies); err != nil {
				return err
			}
		}
		if len(genres) > 0 {
			if err := create("genres", &genres); err != nil {
				return err
			}
		}
		if len(ratings) > 0 {
			if err := create("ratings", &ratings); err != nil {
				return err
			}
		}

		if d.db.Dialector.Name() == "postgres" {
			for _, table := range []string{"movies", "genres", "ratings"} {
				// explicit ids leave the sequences behind
				err := d.DB(ctx).Exec(fmt.Sprintf(
					"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)",
					table)).Error
				if err != nil {
					return fmt.Errorf("failed to reset %s sequence: %w", table, err)
				}
			}
		}

		d.log.Infof("seeded %d movies, %d genres, %d ratings", len(movies), len(genres), len(ratings))
		return nil
	})
}

// readSeed parses every data row of a CSV file with a header line.
func readSeed[T any](l *log.Helper, path string, parse func(row map[string]string) (T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	var out []T
	for line := 2; ; line++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		v, err := parse(row)
		if err != nil {
			l.Warnf("skipping invalid row %d in %s: %v", line, path, err)
			continue
		}
		out = append(out, v)
	}
	return out, nil
}

// filterSeed keeps the rows accepted by check, in order.
func filterSeed[T any](l *log.Helper, file string, rows []T, check func(T) error) []T {
	kept := rows[:0]
	for _, row := range rows {
		if err := check(row); err != nil {
			l.Warnf("skipping row of %s: %v", file, err)
			continue
		}
		kept = append(kept, row)
	}
	return kept
}

func parseSeedMovie(row map[string]string) (Movie, error) {
	id, err := strconv.ParseInt(row["id_pelicula"], 10, 64)
	if err != nil {
		return Movie{}, fmt.Errorf("id_pelicula: %w", err)
	}
	title := row["titulo"]
	if strings.TrimSpace(title) == "" || utf8.RuneCountInString(title) > biz.MaxTitleLength {
		return Movie{}, fmt.Errorf("titulo: must be 1 to %d characters", biz.MaxTitleLength)
	}
	year, err := optionalInt(row["año"])
	if err != nil {
		return Movie{}, fmt.Errorf("año: %w", err)
	}
	if year != nil && !validator.Between(*year, biz.MinYear, biz.MaxYear) {
		return Movie{}, fmt.Errorf("año: %d out of range", *year)
	}
	duration, err := optionalInt(row["duracion"])
	if err != nil {
		return Movie{}, fmt.Errorf("duracion: %w", err)
	}
	if duration != nil && *duration < 1 {
		return Movie{}, fmt.Errorf("duracion: %d not positive", *duration)
	}
	return Movie{ID: id, Title: title, Year: year, Duration: duration}, nil
}

func parseSeedGenre(row map[string]string) (Genre, error) {
	id, err := strconv.ParseInt(row["id"], 10, 64)
	if err != nil {
		return Genre{}, fmt.Errorf("id: %w", err)
	}
	movieID, err := strconv.ParseInt(row["id_pelicula"], 10, 64)
	if err != nil {
		return Genre{}, fmt.Errorf("id_pelicula: %w", err)
	}
	name := row["genero"]
	if strings.TrimSpace(name) == "" || utf8.RuneCountInString(name) > biz.MaxGenreLength {
		return Genre{}, fmt.Errorf("genero: must be 1 to %d characters", biz.MaxGenreLength)
	}
	return Genre{ID: id, MovieID: movieID, Genre: name}, nil
}

func parseSeedRating(row map[string]string) (Rating, error) {
	id, err := strconv.ParseInt(row["id"], 10, 64)
	if err != nil {
		return Rating{}, fmt.Errorf("id: %w", err)
	}
	movieID, err := strconv.ParseInt(row["id_pelicula"], 10, 64)
	if err != nil {
		return Rating{}, fmt.Errorf("id_pelicula: %w", err)
	}
	value, err := strconv.ParseFloat(row["rating"], 64)
	if err != nil {
		return Rating{}, fmt.Errorf("rating: %w", err)
	}
	if !validator.Between(value, biz.MinRating, biz.MaxRating) {
		return Rating{}, fmt.Errorf("rating: %v out of range", value)
	}
	votes, err := strconv.Atoi(row["nro_votos"])
	if err != nil {
		return Rating{}, fmt.Errorf("nro_votos: %w", err)
	}
	if votes < 0 {
		return Rating{}, fmt.Errorf("nro_votos: %d negative", votes)
	}
	return Rating{ID: id, MovieID: movieID, Rating: value, VoteCount: votes}, nil
}

func optionalInt(s string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
