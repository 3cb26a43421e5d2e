package biz

import (
	"math"
	"sort"
)

// BucketRatings folds per-value counts into floor buckets, lowest first.
func BucketRatings(counts []*RatingValueCount) []*RatingBucket {
	byFloor := make(map[int]int64)
	for _, c := range counts {
		byFloor[int(math.Floor(c.Rating))] += c.Count
	}

	buckets := make([]*RatingBucket, 0, len(byFloor))
	for floor, count := range byFloor {
		buckets = append(buckets, &RatingBucket{Floor: floor, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Floor < buckets[j].Floor
	})
	return buckets
}

// roundTo2 rounds half away from zero to two decimal places.
func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}
