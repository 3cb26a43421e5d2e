package service

import (
	"context"

	v1 "movies/api/movies/v1"
	"movies/internal/biz"
)

// GetMovieRating implements rating lookup
func (s *MovieService) GetMovieRating(ctx context.Context, req *v1.MovieRequest) (*v1.Rating, error) {
	rating, err := s.ratingUC.GetRating(ctx, req.Id)
	if err != nil {
		return nil, err
	}
	return ratingToProto(rating), nil
}

// AddMovieRating implements rating upsert
func (s *MovieService) AddMovieRating(ctx context.Context, req *v1.RatingRequest) (*v1.RatingReply, error) {
	in, err := ratingInputFromProto(&req.RatingPayload)
	if err != nil {
		return nil, err
	}

	rating, created, err := s.ratingUC.AddRating(ctx, req.Id, in)
	if err != nil {
		return nil, err
	}
	return &v1.RatingReply{Rating: *ratingToProto(rating), Created: created}, nil
}

// UpdateMovieRating implements partial rating update
func (s *MovieService) UpdateMovieRating(ctx context.Context, req *v1.RatingRequest) (*v1.Rating, error) {
	rating, err := s.ratingUC.UpdateRating(ctx, req.Id, &biz.RatingPatch{
		Rating:    req.Rating,
		VoteCount: req.VoteCount,
	})
	if err != nil {
		return nil, err
	}
	return ratingToProto(rating), nil
}

// DeleteMovieRating implements rating removal
func (s *MovieService) DeleteMovieRating(ctx context.Context, req *v1.MovieRequest) (*v1.MessageReply, error) {
	if err := s.ratingUC.DeleteRating(ctx, req.Id); err != nil {
		return nil, err
	}
	return &v1.MessageReply{Message: "Rating removed from movie"}, nil
}

// TopRated implements the best rated listing
func (s *MovieService) TopRated(ctx context.Context, req *v1.TopRatedRequest) (*v1.TopRatedList, error) {
	movies, err := s.ratingUC.TopRated(ctx,
		intOr(req.Limit, biz.DefaultTopRatedLimit), intOr(req.MinVotes, biz.DefaultMinVotes))
	if err != nil {
		return nil, err
	}

	reply := make(v1.TopRatedList, 0, len(movies))
	for _, m := range movies {
		item := &v1.TopRatedMovie{
			Id:       m.ID,
			Title:    m.Title,
			Year:     m.Year,
			Duration: m.Duration,
		}
		if m.Rating != nil {
			item.AverageRating = m.Rating.Rating
			item.VoteCount = m.Rating.VoteCount
		}
		reply = append(reply, item)
	}
	return &reply, nil
}

// RatingStatistics implements the rating summary
func (s *MovieService) RatingStatistics(ctx context.Context, _ *v1.Empty) (*v1.RatingStatistics, error) {
	summary, err := s.ratingUC.Statistics(ctx)
	if err != nil {
		return nil, err
	}
	return &v1.RatingStatistics{
		AverageRating:          summary.AverageRating,
		MinRating:              summary.MinRating,
		MaxRating:              summary.MaxRating,
		TotalMoviesWithRatings: summary.TotalMoviesWithRatings,
		TotalVotes:             summary.TotalVotes,
	}, nil
}

// RatingDistribution implements the rating histogram
func (s *MovieService) RatingDistribution(ctx context.Context, _ *v1.Empty) (*v1.RatingDistribution, error) {
	buckets, err := s.ratingUC.Distribution(ctx)
	if err != nil {
		return nil, err
	}
	reply := make(v1.RatingDistribution, 0, len(buckets))
	for _, b := range buckets {
		reply = append(reply, &v1.RatingBucket{RatingRange: b.Label(), Count: b.Count})
	}
	return &reply, nil
}
