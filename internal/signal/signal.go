package signal

import (
	"sort"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
)

// Generator is the signal-collaborator contract. Generate produces target
// weights for a rebalance date; GenerateRanked additionally orders the full
// candidate universe best-first, which the completion engine walks for
// backfill.
type Generator interface {
	Generate(date string, universe []string) ([]domain.TargetWeight, error)
	GenerateRanked(date string, universe []string) ([]domain.TargetWeight, error)
}

// Scorer is the minimal capability: plain weights with scores. Use Ranked to
// derive the full Generator contract from it.
type Scorer interface {
	Generate(date string, universe []string) ([]domain.TargetWeight, error)
}

// Ranked adapts a Scorer into a Generator by score-sorting its output.
type Ranked struct {
	Scorer
}

func NewRanked(s Scorer) *Ranked {
	return &Ranked{Scorer: s}
}

func (r *Ranked) GenerateRanked(date string, universe []string) ([]domain.TargetWeight, error) {
	weights, err := r.Generate(date, universe)
	if err != nil {
		return nil, err
	}
	return SortByScore(weights), nil
}

// SortByScore orders candidates best-first, score descending. The sort is
// stable so equal scores keep the collaborator's order.
func SortByScore(weights []domain.TargetWeight) []domain.TargetWeight {
	out := make([]domain.TargetWeight, len(weights))
	copy(out, weights)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// TopN returns the first n entries of a ranked list with equal weights
// summing to 1. Used when the collaborator supplies scores but no weights.
func TopN(ranked []domain.TargetWeight, n int) []domain.TargetWeight {
	if n > len(ranked) {
		n = len(ranked)
	}
	if n == 0 {
		return nil
	}
	out := make([]domain.TargetWeight, n)
	copy(out, ranked[:n])
	w := 1.0 / float64(n)
	for i := range out {
		out[i].Weight = w
	}
	return out
}
