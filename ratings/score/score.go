package score

import (
	"sort"
	"strings"

	"github.com/glbter/stock-ratings/entities"
)

const maxTopRecommendations = 5

// Checked in order; the first phrase found in the label decides the score.
var ratingPhrases = []struct {
	phrase string
	score  int
}{
	{"strong buy", 5},
	{"buy", 4},
	{"outperform", 3},
	{"neutral", 2},
	{"hold", 1},
}

// RatingScore ranks an analyst rating label from 0 (unknown) to 5 (strong buy).
func RatingScore(label string) int {
	label = strings.ToLower(label)
	for _, p := range ratingPhrases {
		if strings.Contains(label, p.phrase) {
			return p.score
		}
	}

	return 0
}

// TopRecommendations picks up to n (at most 5) records rated buy or
// outperform, best rating first and newest first within a rating.
func TopRecommendations(stocks []entities.Stock, n int) []entities.Stock {
	if n <= 0 || n > maxTopRecommendations {
		n = maxTopRecommendations
	}

	picked := make([]entities.Stock, 0, len(stocks))
	for _, s := range stocks {
		to := strings.ToLower(s.RatingTo)
		if strings.Contains(to, "buy") || strings.Contains(to, "outperform") {
			picked = append(picked, s)
		}
	}

	sort.SliceStable(picked, func(i, j int) bool {
		si, sj := RatingScore(picked[i].RatingTo), RatingScore(picked[j].RatingTo)
		if si != sj {
			return si > sj
		}
		return picked[i].ParsedTime().After(picked[j].ParsedTime())
	})

	if len(picked) > n {
		picked = picked[:n]
	}

	return picked
}
