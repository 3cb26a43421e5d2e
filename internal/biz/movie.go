package biz

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"

	"movies/internal/pkg/validator"
)

// MovieUseCase handles movie-related business logic
type MovieUseCase struct {
	tx        Transaction
	repo      MovieRepo
	genreRepo GenreRepo
	ratings   *RatingUseCase
	log       *log.Helper
}

// NewMovieUseCase creates a new MovieUseCase instance
func NewMovieUseCase(tx Transaction, repo MovieRepo, genreRepo GenreRepo, ratings *RatingUseCase, logger log.Logger) *MovieUseCase {
	return &MovieUseCase{
		tx:        tx,
		repo:      repo,
		genreRepo: genreRepo,
		ratings:   ratings,
		log:       log.NewHelper(logger),
	}
}

// ListMovies returns one page of movies matching every filter that is set,
// each with its genres and rating attached.
func (uc *MovieUseCase) ListMovies(ctx context.Context, filter *MovieFilter) (*MoviePage, error) {
	v := validator.New()
	if ValidateMovieFilter(v, filter); !v.Valid() {
		return nil, ValidationError(v)
	}

	page := &MoviePage{Page: filter.Page, PageSize: filter.PageSize}
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		movies, total, err := uc.repo.ListMovies(ctx, filter)
		if err != nil {
			return err
		}
		if err := uc.attachGenres(ctx, movies); err != nil {
			return err
		}
		page.Items = movies
		page.Total = total
		return nil
	})
	if err != nil {
		return nil, storageError(uc.log, "list movies", err)
	}
	return page, nil
}

// GetMovie retrieves a movie by id with its genres and rating.
func (uc *MovieUseCase) GetMovie(ctx context.Context, id int64) (*Movie, error) {
	movie, err := uc.repo.GetMovieDetail(ctx, id)
	if err != nil {
		return nil, storageError(uc.log, "get movie", err)
	}
	return movie, nil
}

// CreateMovie stores the movie, one genre row per requested name and the
// optional rating, all or nothing.
func (uc *MovieUseCase) CreateMovie(ctx context.Context, req *CreateMovieRequest) (*Movie, error) {
	v := validator.New()
	if ValidateCreateMovie(v, req); !v.Valid() {
		return nil, ValidationError(v)
	}

	movie := &Movie{
		Title:    req.Title,
		Year:     req.Year,
		Duration: req.Duration,
	}
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.CreateMovie(ctx, movie); err != nil {
			return err
		}

		movie.Genres = make([]*Genre, 0, len(req.Genres))
		for _, name := range req.Genres {
			movie.Genres = append(movie.Genres, &Genre{MovieID: movie.ID, Genre: name})
		}
		if err := uc.genreRepo.CreateGenres(ctx, movie.Genres); err != nil {
			return err
		}

		if req.Rating != nil {
			rating, _, err := uc.ratings.upsert(ctx, movie.ID, req.Rating)
			if err != nil {
				return err
			}
			movie.Rating = rating
		}
		return nil
	})
	if err != nil {
		return nil, storageError(uc.log, "create movie", err)
	}

	uc.log.WithContext(ctx).Infof("movie %d created: %q", movie.ID, movie.Title)
	return movie, nil
}

// UpdateMovie applies the fields present in req. Genres are reconciled so
// unchanged names keep their rows; a rating is updated in place or created.
func (uc *MovieUseCase) UpdateMovie(ctx context.Context, id int64, req *UpdateMovieRequest) (*Movie, error) {
	v := validator.New()
	if ValidateUpdateMovie(v, req); !v.Valid() {
		return nil, ValidationError(v)
	}

	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		movie, err := uc.repo.FindMovie(ctx, id)
		if err != nil {
			return err
		}

		if req.Title != nil {
			movie.Title = *req.Title
		}
		if req.Year != nil {
			movie.Year = req.Year
		}
		if req.Duration != nil {
			movie.Duration = req.Duration
		}
		if err := uc.repo.UpdateMovie(ctx, movie); err != nil {
			return err
		}

		if req.Genres != nil {
			if err := uc.reconcileGenres(ctx, id, *req.Genres); err != nil {
				return err
			}
		}

		if req.Rating != nil {
			if _, _, err := uc.ratings.upsert(ctx, id, req.Rating); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, storageError(uc.log, "update movie", err)
	}

	return uc.GetMovie(ctx, id)
}

// DeleteMovie removes the movie and, with it, its genres and rating. It
// returns the deleted movie's title.
func (uc *MovieUseCase) DeleteMovie(ctx context.Context, id int64) (string, error) {
	var title string
	err := uc.tx.InTx(ctx, func(ctx context.Context) error {
		movie, err := uc.repo.FindMovie(ctx, id)
		if err != nil {
			return err
		}
		title = movie.Title
		return uc.repo.DeleteMovie(ctx, id)
	})
	if err != nil {
		return "", storageError(uc.log, "delete movie", err)
	}

	uc.log.WithContext(ctx).Infof("movie %d deleted: %q", id, title)
	return title, nil
}

func (uc *MovieUseCase) reconcileGenres(ctx context.Context, movieID int64, desired []string) error {
	current, err := uc.genreRepo.ListByMovie(ctx, movieID)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(current))
	for _, g := range current {
		names = append(names, g.Genre)
	}

	toRemove, toAdd := ReconcileGenres(names, desired)
	if len(toRemove) > 0 {
		if _, err := uc.genreRepo.DeleteByNames(ctx, movieID, toRemove); err != nil {
			return err
		}
	}
	if len(toAdd) > 0 {
		genres := make([]*Genre, 0, len(toAdd))
		for _, name := range toAdd {
			genres = append(genres, &Genre{MovieID: movieID, Genre: name})
		}
		if err := uc.genreRepo.CreateGenres(ctx, genres); err != nil {
			return err
		}
	}
	uc.log.WithContext(ctx).Debugf("movie %d genres: -%v +%v", movieID, toRemove, toAdd)
	return nil
}

func (uc *MovieUseCase) attachGenres(ctx context.Context, movies []*Movie) error {
	if len(movies) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(movies))
	for _, m := range movies {
		ids = append(ids, m.ID)
	}
	byMovie, err := uc.genreRepo.ListByMovies(ctx, ids)
	if err != nil {
		return err
	}
	for _, m := range movies {
		m.Genres = byMovie[m.ID]
		if m.Genres == nil {
			m.Genres = []*Genre{}
		}
	}
	return nil
}
