package server

import (
	"net/http"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/logging"
	"github.com/go-kratos/kratos/v2/middleware/recovery"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/gorilla/handlers"

	v1 "movies/api/movies/v1"
	"movies/internal/conf"
	"movies/internal/service"
)

// NewHTTPServer new an HTTP server.
func NewHTTPServer(c *conf.Server, auth *conf.Auth, limiter *conf.Limiter, movieSvc *service.MovieService, logger log.Logger) *khttp.Server {
	var opts = []khttp.ServerOption{
		khttp.Middleware(
			recovery.Recovery(),
			RequestID(),
			logging.Server(logger),
			RateLimit(limiter),
			AuthMiddleware(auth.GetToken()),
		),
		khttp.Filter(corsFilter(c.Http.GetCorsOrigins())),
		khttp.ErrorEncoder(errorEncoder(logger)),
	}
	if c.Http.Network != "" {
		opts = append(opts, khttp.Network(c.Http.Network))
	}
	if c.Http.Addr != "" {
		opts = append(opts, khttp.Address(c.Http.Addr))
	}
	if c.Http.Timeout != nil {
		opts = append(opts, khttp.Timeout(c.Http.Timeout.AsDuration()))
	}
	srv := khttp.NewServer(opts...)
	v1.RegisterMoviesHTTPServer(srv, movieSvc)
	return srv
}

// corsFilter allows every origin unless a list is configured.
func corsFilter(origins []string) khttp.FilterFunc {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type", RequestIDHeader}),
		handlers.ExposedHeaders([]string{RequestIDHeader}),
	)
}

// errorEncoder logs server-side failures with their cause; the body only
// carries code, reason, message and metadata.
func errorEncoder(logger log.Logger) khttp.EncodeErrorFunc {
	helper := log.NewHelper(log.With(logger, "module", "server/http"))
	return func(w http.ResponseWriter, r *http.Request, err error) {
		se := errors.FromError(err)
		if se.Code >= http.StatusInternalServerError {
			helper.Errorw("msg", "request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", w.Header().Get(RequestIDHeader),
				"reason", se.Reason,
				"error", err,
			)
		}
		khttp.DefaultErrorEncoder(w, r, se)
	}
}
