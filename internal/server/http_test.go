package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movies/internal/biz"
	"movies/internal/conf"
	"movies/internal/data"
	"movies/internal/service"
)

func newTestServer(t *testing.T, auth *conf.Auth, limiter *conf.Limiter) *khttp.Server {
	t.Helper()
	logger := log.DefaultLogger
	d, cleanup, err := data.NewData(&conf.Data{
		Database: &conf.Data_Database{
			Driver:       "sqlite",
			Source:       ":memory:?_pragma=foreign_keys(1)",
			MaxIdleConns: 1,
			MaxOpenConns: 1,
			AutoMigrate:  true,
		},
	}, logger)
	require.NoError(t, err)
	t.Cleanup(cleanup)

	tx := data.NewTransaction(d)
	movieRepo := data.NewMovieRepo(d, logger)
	genreRepo := data.NewGenreRepo(d, logger)
	ratingRepo := data.NewRatingRepo(d, logger)
	ratings := biz.NewRatingUseCase(tx, movieRepo, ratingRepo, logger)
	svc := service.NewMovieService(
		biz.NewMovieUseCase(tx, movieRepo, genreRepo, ratings, logger),
		biz.NewGenreUseCase(tx, movieRepo, genreRepo, logger),
		ratings,
	)
	return NewHTTPServer(&conf.Server{Http: &conf.Server_HTTP{}}, auth, limiter, svc, logger)
}

type call struct {
	method string
	path   string
	body   string
	header map[string]string
}

func do(t *testing.T, srv http.Handler, c call) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(c.method, c.path, strings.NewReader(c.body))
	if c.body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var out map[string]interface{}
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

const inceptionBody = `{"title":"Inception","year":2010,"duration":148,
	"genres":["Action","Sci-Fi"],"rating":{"rating":8.8,"vote_count":2000000}}`

func TestMovieLifecycleOverHTTP(t *testing.T) {
	srv := newTestServer(t, &conf.Auth{}, &conf.Limiter{})

	rec, movie := do(t, srv, call{method: http.MethodPost, path: "/movies", body: inceptionBody})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), movie["id"])
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))

	rec, movie = do(t, srv, call{method: http.MethodGet, path: "/movies/1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, movie["genres"], 2)

	rec, list := do(t, srv, call{method: http.MethodGet, path: "/movies?title=incep&min_rating=8&page_size=10"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), list["total"])
	assert.Equal(t, float64(10), list["page_size"])

	rec, _ = do(t, srv, call{method: http.MethodPut, path: "/movies/1", body: `{"genres":["Sci-Fi","Thriller"]}`})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, genre := do(t, srv, call{method: http.MethodPost, path: "/movies/1/genres?genre_name=Drama"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Drama", genre["genre"])

	rec, _ = do(t, srv, call{method: http.MethodPost, path: "/movies/1/genres?genre_name=Drama"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, _ = do(t, srv, call{method: http.MethodPost, path: "/movies/1/rating", body: `{"rating":9.1,"vote_count":10}`})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, _ = do(t, srv, call{method: http.MethodGet, path: "/genres/drama/movies"})
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec, stats := do(t, srv, call{method: http.MethodGet, path: "/ratings/statistics"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 9.1, stats["average_rating"])

	rec, msg := do(t, srv, call{method: http.MethodDelete, path: "/movies/1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Movie 'Inception' deleted successfully", msg["message"])

	rec, notFound := do(t, srv, call{method: http.MethodGet, path: "/movies/1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "MOVIE_NOT_FOUND", notFound["reason"])
}

func TestRatingAddStatusCodes(t *testing.T) {
	srv := newTestServer(t, &conf.Auth{}, &conf.Limiter{})
	rec, _ := do(t, srv, call{method: http.MethodPost, path: "/movies", body: `{"title":"Tenet"}`})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = do(t, srv, call{method: http.MethodPost, path: "/movies/1/rating", body: `{"rating":7.3,"vote_count":5}`})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = do(t, srv, call{method: http.MethodPost, path: "/movies/1/rating", body: `{"rating":7.4,"vote_count":6}`})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, srv, call{method: http.MethodPost, path: "/movies/2/rating", body: `{"rating":7.4,"vote_count":6}`})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidationErrorsOverHTTP(t *testing.T) {
	srv := newTestServer(t, &conf.Auth{}, &conf.Limiter{})

	tests := []call{
		{method: http.MethodGet, path: "/movies?page=0"},
		{method: http.MethodGet, path: "/movies?page=10000001"},
		{method: http.MethodGet, path: "/movies?page_size=101"},
		{method: http.MethodGet, path: "/movies?min_rating=11"},
		{method: http.MethodGet, path: "/movies/abc"},
		{method: http.MethodPost, path: "/movies", body: `{"title":""}`},
		{method: http.MethodPost, path: "/movies", body: `{"title":"x","year":1700}`},
		{method: http.MethodPost, path: "/movies", body: `{"title":"x","rating":{"rating":10.5,"vote_count":1}}`},
		{method: http.MethodPost, path: "/movies", body: `{not json`},
		{method: http.MethodGet, path: "/ratings/top-rated?limit=0"},
		{method: http.MethodGet, path: "/genres?limit=0"},
	}
	for _, c := range tests {
		t.Run(c.method+" "+c.path, func(t *testing.T) {
			rec, body := do(t, srv, c)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, "VALIDATION_ERROR", body["reason"])
		})
	}
}

func TestHealthOverHTTP(t *testing.T) {
	srv := newTestServer(t, &conf.Auth{}, &conf.Limiter{})

	rec, body := do(t, srv, call{method: http.MethodGet, path: "/health"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestAuthGuardsWriteOperations(t *testing.T) {
	srv := newTestServer(t, &conf.Auth{Token: "secret"}, &conf.Limiter{})

	rec, _ := do(t, srv, call{method: http.MethodPost, path: "/movies", body: `{"title":"Tenet"}`})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, srv, call{method: http.MethodPost, path: "/movies", body: `{"title":"Tenet"}`,
		header: map[string]string{"Authorization": "Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, srv, call{method: http.MethodPost, path: "/movies", body: `{"title":"Tenet"}`,
		header: map[string]string{"Authorization": "Bearer secret"}})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = do(t, srv, call{method: http.MethodGet, path: "/movies/1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv := newTestServer(t, &conf.Auth{}, &conf.Limiter{})

	rec, _ := do(t, srv, call{method: http.MethodGet, path: "/health",
		header: map[string]string{RequestIDHeader: "abc-123"}})
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t, &conf.Auth{}, &conf.Limiter{})

	rec, _ := do(t, srv, call{method: http.MethodOptions, path: "/movies", header: map[string]string{
		"Origin":                        "http://example.com",
		"Access-Control-Request-Method": http.MethodPost,
	}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimitOverHTTP(t *testing.T) {
	srv := newTestServer(t, &conf.Auth{}, &conf.Limiter{Enabled: true, Rps: 0.001, Burst: 1})

	rec, _ := do(t, srv, call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, body := do(t, srv, call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["reason"])
}
