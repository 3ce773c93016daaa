package signal

import (
	"math"
	"testing"

	"github.com/deltree-y/LazyBull-sub000/internal/domain"
)

func TestSortByScore(t *testing.T) {
	in := []domain.TargetWeight{
		{Symbol: "AAA", Score: 1.0},
		{Symbol: "BBB", Score: 3.0},
		{Symbol: "CCC", Score: 2.0},
		{Symbol: "DDD", Score: 2.0}, // ties keep input order
	}
	got := SortByScore(in)

	want := []string{"BBB", "CCC", "DDD", "AAA"}
	for i, symbol := range want {
		if got[i].Symbol != symbol {
			t.Errorf("SortByScore()[%d] = %s, want %s", i, got[i].Symbol, symbol)
		}
	}
	// input order untouched
	if in[0].Symbol != "AAA" {
		t.Error("SortByScore() mutated its input")
	}
}

func TestTopN(t *testing.T) {
	ranked := []domain.TargetWeight{
		{Symbol: "AAA", Score: 3},
		{Symbol: "BBB", Score: 2},
		{Symbol: "CCC", Score: 1},
	}

	tests := []struct {
		name       string
		n          int
		wantLen    int
		wantWeight float64
	}{
		{"top 2", 2, 2, 0.5},
		{"n exceeds list", 5, 3, 1.0 / 3.0},
		{"zero", 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TopN(ranked, tt.n)
			if len(got) != tt.wantLen {
				t.Fatalf("TopN() len = %d, want %d", len(got), tt.wantLen)
			}
			sum := 0.0
			for _, w := range got {
				if math.Abs(w.Weight-tt.wantWeight) > 1e-9 {
					t.Errorf("TopN() weight = %v, want %v", w.Weight, tt.wantWeight)
				}
				sum += w.Weight
			}
			if tt.wantLen > 0 && math.Abs(sum-1.0) > 1e-9 {
				t.Errorf("TopN() weights sum to %v, want 1.0", sum)
			}
		})
	}
}

type fixedScorer struct {
	weights []domain.TargetWeight
}

func (s *fixedScorer) Generate(string, []string) ([]domain.TargetWeight, error) {
	return s.weights, nil
}

func TestRanked(t *testing.T) {
	gen := NewRanked(&fixedScorer{weights: []domain.TargetWeight{
		{Symbol: "AAA", Score: 1},
		{Symbol: "BBB", Score: 2},
	}})

	got, err := gen.GenerateRanked("2024-01-02", nil)
	if err != nil {
		t.Fatalf("GenerateRanked() error = %v", err)
	}
	if got[0].Symbol != "BBB" {
		t.Errorf("GenerateRanked()[0] = %s, want BBB", got[0].Symbol)
	}
}
