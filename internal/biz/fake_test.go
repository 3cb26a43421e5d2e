package biz

import (
	"context"
	"sort"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
)

// memStore is an in-memory MovieRepo, GenreRepo and RatingRepo. Every call
// fails with failErr when it is set.
type memStore struct {
	nextID  int64
	movies  map[int64]*Movie
	genres  []*Genre
	ratings map[int64]*Rating
	failErr error
}

func newMemStore() *memStore {
	return &memStore{
		movies:  make(map[int64]*Movie),
		ratings: make(map[int64]*Rating),
	}
}

func (s *memStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *memStore) CreateMovie(_ context.Context, movie *Movie) error {
	if s.failErr != nil {
		return s.failErr
	}
	movie.ID = s.id()
	s.movies[movie.ID] = &Movie{ID: movie.ID, Title: movie.Title, Year: movie.Year, Duration: movie.Duration}
	return nil
}

func (s *memStore) FindMovie(_ context.Context, id int64) (*Movie, error) {
	if s.failErr != nil {
		return nil, s.failErr
	}
	m, ok := s.movies[id]
	if !ok {
		return nil, ErrMovieNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) GetMovieDetail(ctx context.Context, id int64) (*Movie, error) {
	m, err := s.FindMovie(ctx, id)
	if err != nil {
		return nil, err
	}
	m.Genres, _ = s.ListByMovie(ctx, id)
	if r, ok := s.ratings[id]; ok {
		cp := *r
		m.Rating = &cp
	}
	return m, nil
}

func (s *memStore) UpdateMovie(_ context.Context, movie *Movie) error {
	if s.failErr != nil {
		return s.failErr
	}
	s.movies[movie.ID] = &Movie{ID: movie.ID, Title: movie.Title, Year: movie.Year, Duration: movie.Duration}
	return nil
}

func (s *memStore) DeleteMovie(_ context.Context, id int64) error {
	delete(s.movies, id)
	delete(s.ratings, id)
	kept := s.genres[:0]
	for _, g := range s.genres {
		if g.MovieID != id {
			kept = append(kept, g)
		}
	}
	s.genres = kept
	return nil
}

func (s *memStore) ListMovies(_ context.Context, f *MovieFilter) ([]*Movie, int64, error) {
	if s.failErr != nil {
		return nil, 0, s.failErr
	}
	var out []*Movie
	for _, m := range s.sortedMovies() {
		cp := *m
		if r, ok := s.ratings[m.ID]; ok {
			rc := *r
			cp.Rating = &rc
		}
		out = append(out, &cp)
	}
	return paginate(out, f.Offset(), f.PageSize), int64(len(out)), nil
}

func (s *memStore) ListMoviesByGenre(_ context.Context, genre string, p, pageSize int) ([]*Movie, int64, error) {
	var out []*Movie
	for _, m := range s.sortedMovies() {
		for _, g := range s.genres {
			if g.MovieID == m.ID && strings.EqualFold(g.Genre, genre) {
				cp := *m
				out = append(out, &cp)
				break
			}
		}
	}
	return paginate(out, (p-1)*pageSize, pageSize), int64(len(out)), nil
}

func (s *memStore) sortedMovies() []*Movie {
	out := make([]*Movie, 0, len(s.movies))
	for _, m := range s.movies {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func paginate(movies []*Movie, offset, limit int) []*Movie {
	if offset >= len(movies) {
		return nil
	}
	end := offset + limit
	if end > len(movies) {
		end = len(movies)
	}
	return movies[offset:end]
}

func (s *memStore) CreateGenres(_ context.Context, genres []*Genre) error {
	if s.failErr != nil {
		return s.failErr
	}
	for _, g := range genres {
		g.ID = s.id()
		cp := *g
		s.genres = append(s.genres, &cp)
	}
	return nil
}

func (s *memStore) GetGenre(_ context.Context, movieID, genreID int64) (*Genre, error) {
	for _, g := range s.genres {
		if g.ID == genreID && g.MovieID == movieID {
			cp := *g
			return &cp, nil
		}
	}
	return nil, ErrGenreNotFound
}

func (s *memStore) ListByMovie(_ context.Context, movieID int64) ([]*Genre, error) {
	out := []*Genre{}
	for _, g := range s.genres {
		if g.MovieID == movieID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) ListByMovies(ctx context.Context, movieIDs []int64) (map[int64][]*Genre, error) {
	out := make(map[int64][]*Genre)
	for _, id := range movieIDs {
		genres, _ := s.ListByMovie(ctx, id)
		if len(genres) > 0 {
			out[id] = genres
		}
	}
	return out, nil
}

func (s *memStore) ExistsForMovie(_ context.Context, movieID int64, name string) (bool, error) {
	for _, g := range s.genres {
		if g.MovieID == movieID && g.Genre == name {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ExistsByName(_ context.Context, name string) (bool, error) {
	for _, g := range s.genres {
		if strings.EqualFold(g.Genre, name) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) DeleteGenre(_ context.Context, genre *Genre) error {
	kept := s.genres[:0]
	for _, g := range s.genres {
		if g.ID != genre.ID {
			kept = append(kept, g)
		}
	}
	s.genres = kept
	return nil
}

func (s *memStore) DeleteByNames(_ context.Context, movieID int64, names []string) (int64, error) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var n int64
	kept := s.genres[:0]
	for _, g := range s.genres {
		if g.MovieID == movieID && drop[g.Genre] {
			n++
			continue
		}
		kept = append(kept, g)
	}
	s.genres = kept
	return n, nil
}

func (s *memStore) CountByName(_ context.Context, limit int) ([]*GenreCount, error) {
	counts := make(map[string]int64)
	for _, g := range s.genres {
		counts[g.Genre]++
	}
	out := make([]*GenreCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, &GenreCount{Genre: name, MovieCount: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Genre < out[j].Genre })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) GetByMovie(_ context.Context, movieID int64) (*Rating, error) {
	if s.failErr != nil {
		return nil, s.failErr
	}
	r, ok := s.ratings[movieID]
	if !ok {
		return nil, ErrRatingNotFound
	}
	cp := *r
	return &cp, nil
}

func (s *memStore) CreateRating(_ context.Context, rating *Rating) error {
	rating.ID = s.id()
	cp := *rating
	s.ratings[rating.MovieID] = &cp
	return nil
}

func (s *memStore) UpdateRating(_ context.Context, rating *Rating) error {
	cp := *rating
	s.ratings[rating.MovieID] = &cp
	return nil
}

func (s *memStore) DeleteRating(_ context.Context, rating *Rating) error {
	delete(s.ratings, rating.MovieID)
	return nil
}

func (s *memStore) TopRated(_ context.Context, limit, minVotes int) ([]*Movie, error) {
	var out []*Movie
	for _, m := range s.sortedMovies() {
		r, ok := s.ratings[m.ID]
		if !ok || r.VoteCount < minVotes {
			continue
		}
		cp := *m
		rc := *r
		cp.Rating = &rc
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rating.Rating > out[j].Rating.Rating })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) Summary(_ context.Context) (*RatingSummary, error) {
	if s.failErr != nil {
		return nil, s.failErr
	}
	summary := &RatingSummary{}
	var sum float64
	for _, r := range s.ratings {
		if summary.TotalMoviesWithRatings == 0 || r.Rating < summary.MinRating {
			summary.MinRating = r.Rating
		}
		if r.Rating > summary.MaxRating {
			summary.MaxRating = r.Rating
		}
		sum += r.Rating
		summary.TotalMoviesWithRatings++
		summary.TotalVotes += int64(r.VoteCount)
	}
	if summary.TotalMoviesWithRatings > 0 {
		summary.AverageRating = sum / float64(summary.TotalMoviesWithRatings)
	}
	return summary, nil
}

func (s *memStore) CountByValue(_ context.Context) ([]*RatingValueCount, error) {
	counts := make(map[float64]int64)
	for _, r := range s.ratings {
		counts[r.Rating]++
	}
	out := make([]*RatingValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, &RatingValueCount{Rating: v, Count: n})
	}
	return out, nil
}

type useCases struct {
	store  *memStore
	movie  *MovieUseCase
	genre  *GenreUseCase
	rating *RatingUseCase
}

func newUseCases() *useCases {
	s := newMemStore()
	logger := log.DefaultLogger
	ratings := NewRatingUseCase(s, s, s, logger)
	return &useCases{
		store:  s,
		movie:  NewMovieUseCase(s, s, s, ratings, logger),
		genre:  NewGenreUseCase(s, s, s, logger),
		rating: ratings,
	}
}

func intPtr(v int) *int              { return &v }
func strPtr(v string) *string        { return &v }
func floatPtr(v float64) *float64    { return &v }
func namesPtr(v ...string) *[]string { return &v }
