package biz

import (
	"strings"
	"unicode/utf8"

	"movies/internal/pkg/validator"
)

func ValidatePagination(v *validator.Validator, page, pageSize int) {
	v.Check(page >= 1, "page", "must be greater than zero")
	v.Check(page <= MaxPage, "page", "must be a maximum of 10 million")
	v.Check(validator.Between(pageSize, 1, MaxPageSize), "page_size", "must be between 1 and 100")
}

func ValidateMovieFilter(v *validator.Validator, f *MovieFilter) {
	ValidatePagination(v, f.Page, f.PageSize)
	if f.MinRating != nil {
		v.Check(validator.Between(*f.MinRating, MinRating, MaxRating), "min_rating", "must be between 0 and 10")
	}
	if f.MaxRating != nil {
		v.Check(validator.Between(*f.MaxRating, MinRating, MaxRating), "max_rating", "must be between 0 and 10")
	}
}

func validateTitle(v *validator.Validator, title string) {
	n := utf8.RuneCountInString(title)
	v.Check(n >= 1, "title", "must be provided")
	v.Check(n <= MaxTitleLength, "title", "must not be more than 500 characters long")
}

func validateMovieFields(v *validator.Validator, year, duration *int) {
	if year != nil {
		v.Check(validator.Between(*year, MinYear, MaxYear), "year", "must be between 1800 and 2030")
	}
	if duration != nil {
		v.Check(*duration >= 1, "duration", "must be a positive integer")
	}
}

func validateGenreName(v *validator.Validator, key, name string) {
	v.Check(strings.TrimSpace(name) != "", key, "must be provided")
	v.Check(utf8.RuneCountInString(name) <= MaxGenreLength, key, "must not be more than 100 characters long")
}

func validateGenreNames(v *validator.Validator, names []string) {
	for _, name := range names {
		validateGenreName(v, "genres", name)
	}
}

func ValidateRatingInput(v *validator.Validator, in *RatingInput) {
	v.Check(validator.Between(in.Rating, MinRating, MaxRating), "rating", "must be between 0 and 10")
	v.Check(in.VoteCount >= 0, "vote_count", "must not be negative")
}

func ValidateRatingPatch(v *validator.Validator, p *RatingPatch) {
	if p.Rating != nil {
		v.Check(validator.Between(*p.Rating, MinRating, MaxRating), "rating", "must be between 0 and 10")
	}
	if p.VoteCount != nil {
		v.Check(*p.VoteCount >= 0, "vote_count", "must not be negative")
	}
}

func ValidateCreateMovie(v *validator.Validator, req *CreateMovieRequest) {
	validateTitle(v, req.Title)
	validateMovieFields(v, req.Year, req.Duration)
	validateGenreNames(v, req.Genres)
	if req.Rating != nil {
		ValidateRatingInput(v, req.Rating)
	}
}

func ValidateUpdateMovie(v *validator.Validator, req *UpdateMovieRequest) {
	if req.Title != nil {
		validateTitle(v, *req.Title)
	}
	validateMovieFields(v, req.Year, req.Duration)
	if req.Genres != nil {
		validateGenreNames(v, *req.Genres)
	}
	if req.Rating != nil {
		ValidateRatingInput(v, req.Rating)
	}
}
