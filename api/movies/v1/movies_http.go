package v1

import (
	"context"
	"net/http"

	"github.com/go-kratos/kratos/v2/errors"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

const (
	OperationMoviesListMovies         = "/api.movies.v1.Movies/ListMovies"
	OperationMoviesCreateMovie        = "/api.movies.v1.Movies/CreateMovie"
	OperationMoviesGetMovie           = "/api.movies.v1.Movies/GetMovie"
	OperationMoviesUpdateMovie        = "/api.movies.v1.Movies/UpdateMovie"
	OperationMoviesDeleteMovie        = "/api.movies.v1.Movies/DeleteMovie"
	OperationMoviesListMovieGenres    = "/api.movies.v1.Movies/ListMovieGenres"
	OperationMoviesAddMovieGenre      = "/api.movies.v1.Movies/AddMovieGenre"
	OperationMoviesRemoveMovieGenre   = "/api.movies.v1.Movies/RemoveMovieGenre"
	OperationMoviesGetMovieRating     = "/api.movies.v1.Movies/GetMovieRating"
	OperationMoviesAddMovieRating     = "/api.movies.v1.Movies/AddMovieRating"
	OperationMoviesUpdateMovieRating  = "/api.movies.v1.Movies/UpdateMovieRating"
	OperationMoviesDeleteMovieRating  = "/api.movies.v1.Movies/DeleteMovieRating"
	OperationMoviesListGenres         = "/api.movies.v1.Movies/ListGenres"
	OperationMoviesListMoviesByGenre  = "/api.movies.v1.Movies/ListMoviesByGenre"
	OperationMoviesTopRated           = "/api.movies.v1.Movies/TopRated"
	OperationMoviesRatingStatistics   = "/api.movies.v1.Movies/RatingStatistics"
	OperationMoviesRatingDistribution = "/api.movies.v1.Movies/RatingDistribution"
	OperationMoviesHealth             = "/api.movies.v1.Movies/Health"
)

// WriteOperations are the operations that change stored data.
var WriteOperations = map[string]bool{
	OperationMoviesCreateMovie:       true,
	OperationMoviesUpdateMovie:       true,
	OperationMoviesDeleteMovie:       true,
	OperationMoviesAddMovieGenre:     true,
	OperationMoviesRemoveMovieGenre:  true,
	OperationMoviesAddMovieRating:    true,
	OperationMoviesUpdateMovieRating: true,
	OperationMoviesDeleteMovieRating: true,
}

type MoviesHTTPServer interface {
	ListMovies(context.Context, *ListMoviesRequest) (*ListMoviesReply, error)
	CreateMovie(context.Context, *CreateMovieRequest) (*MovieDetail, error)
	GetMovie(context.Context, *MovieRequest) (*MovieDetail, error)
	UpdateMovie(context.Context, *UpdateMovieRequest) (*MovieDetail, error)
	DeleteMovie(context.Context, *MovieRequest) (*MessageReply, error)
	ListMovieGenres(context.Context, *MovieRequest) (*GenreList, error)
	AddMovieGenre(context.Context, *AddGenreRequest) (*Genre, error)
	RemoveMovieGenre(context.Context, *RemoveGenreRequest) (*MessageReply, error)
	GetMovieRating(context.Context, *MovieRequest) (*Rating, error)
	AddMovieRating(context.Context, *RatingRequest) (*RatingReply, error)
	UpdateMovieRating(context.Context, *RatingRequest) (*Rating, error)
	DeleteMovieRating(context.Context, *MovieRequest) (*MessageReply, error)
	ListGenres(context.Context, *ListGenresRequest) (*GenreCountList, error)
	ListMoviesByGenre(context.Context, *ListMoviesByGenreRequest) (*ListMoviesByGenreReply, error)
	TopRated(context.Context, *TopRatedRequest) (*TopRatedList, error)
	RatingStatistics(context.Context, *Empty) (*RatingStatistics, error)
	RatingDistribution(context.Context, *Empty) (*RatingDistribution, error)
	Health(context.Context, *Empty) (*HealthReply, error)
}

func RegisterMoviesHTTPServer(s *khttp.Server, srv MoviesHTTPServer) {
	r := s.Route("/")
	r.GET("/movies", handler(OperationMoviesListMovies, http.StatusOK, bindQuery[ListMoviesRequest], srv.ListMovies))
	r.POST("/movies", handler(OperationMoviesCreateMovie, http.StatusCreated, bindBody[CreateMovieRequest], srv.CreateMovie))
	r.GET("/movies/{id}", handler(OperationMoviesGetMovie, http.StatusOK, bindVars[MovieRequest], srv.GetMovie))
	r.PUT("/movies/{id}", handler(OperationMoviesUpdateMovie, http.StatusOK, bindBodyVars[UpdateMovieRequest], srv.UpdateMovie))
	r.DELETE("/movies/{id}", handler(OperationMoviesDeleteMovie, http.StatusOK, bindVars[MovieRequest], srv.DeleteMovie))
	r.GET("/movies/{id}/genres", handler(OperationMoviesListMovieGenres, http.StatusOK, bindVars[MovieRequest], srv.ListMovieGenres))
	r.POST("/movies/{id}/genres", handler(OperationMoviesAddMovieGenre, http.StatusCreated, bindQueryVars[AddGenreRequest], srv.AddMovieGenre))
	r.DELETE("/movies/{id}/genres/{genre_id}", handler(OperationMoviesRemoveMovieGenre, http.StatusOK, bindVars[RemoveGenreRequest], srv.RemoveMovieGenre))
	r.GET("/movies/{id}/rating", handler(OperationMoviesGetMovieRating, http.StatusOK, bindVars[MovieRequest], srv.GetMovieRating))
	r.POST("/movies/{id}/rating", handler(OperationMoviesAddMovieRating, http.StatusCreated, bindBodyVars[RatingRequest], srv.AddMovieRating))
	r.PUT("/movies/{id}/rating", handler(OperationMoviesUpdateMovieRating, http.StatusOK, bindBodyVars[RatingRequest], srv.UpdateMovieRating))
	r.DELETE("/movies/{id}/rating", handler(OperationMoviesDeleteMovieRating, http.StatusOK, bindVars[MovieRequest], srv.DeleteMovieRating))
	r.GET("/genres", handler(OperationMoviesListGenres, http.StatusOK, bindQuery[ListGenresRequest], srv.ListGenres))
	r.GET("/genres/{genre_name}/movies", handler(OperationMoviesListMoviesByGenre, http.StatusOK, bindQueryVars[ListMoviesByGenreRequest], srv.ListMoviesByGenre))
	r.GET("/ratings/top-rated", handler(OperationMoviesTopRated, http.StatusOK, bindQuery[TopRatedRequest], srv.TopRated))
	r.GET("/ratings/statistics", handler(OperationMoviesRatingStatistics, http.StatusOK, bindNone[Empty], srv.RatingStatistics))
	r.GET("/ratings/distribution", handler(OperationMoviesRatingDistribution, http.StatusOK, bindNone[Empty], srv.RatingDistribution))
	r.GET("/health", handler(OperationMoviesHealth, http.StatusOK, bindNone[Empty], srv.Health))
}

// statusReply lets a reply pick its own status code.
type statusReply interface {
	HTTPStatus() int
}

func handler[Req, Reply any](
	operation string,
	code int,
	bind func(khttp.Context, *Req) error,
	call func(context.Context, *Req) (*Reply, error),
) khttp.HandlerFunc {
	return func(ctx khttp.Context) error {
		var in Req
		if err := bind(ctx, &in); err != nil {
			return errors.BadRequest("VALIDATION_ERROR", "malformed request").
				WithMetadata(map[string]string{"detail": errors.FromError(err).Message})
		}
		khttp.SetOperation(ctx, operation)
		h := ctx.Middleware(func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(ctx, req.(*Req))
		})
		out, err := h(ctx, &in)
		if err != nil {
			return err
		}
		status := code
		if sr, ok := out.(statusReply); ok {
			status = sr.HTTPStatus()
		}
		return ctx.Result(status, out)
	}
}

func bindNone[Req any](khttp.Context, *Req) error { return nil }

func bindQuery[Req any](ctx khttp.Context, in *Req) error {
	return ctx.BindQuery(in)
}

func bindVars[Req any](ctx khttp.Context, in *Req) error {
	return ctx.BindVars(in)
}

func bindBody[Req any](ctx khttp.Context, in *Req) error {
	return ctx.Bind(in)
}

func bindQueryVars[Req any](ctx khttp.Context, in *Req) error {
	if err := ctx.BindQuery(in); err != nil {
		return err
	}
	return ctx.BindVars(in)
}

func bindBodyVars[Req any](ctx khttp.Context, in *Req) error {
	if err := ctx.Bind(in); err != nil {
		return err
	}
	return ctx.BindVars(in)
}
