package sm2

import (
	"testing"

	"github.com/retain-app/retain/internal/domain"
)

func cardsWithMastery(values ...int) []domain.Card {
	cards := make([]domain.Card, len(values))
	for i, m := range values {
		cards[i] = domain.NewCard("q", "a", t0)
		cards[i].Mastery = m
	}
	return cards
}

func TestMasteryBuckets(t *testing.T) {
	cards := cardsWithMastery(0, 39, 40, 59, 60, 79, 80, 100)
	b := MasteryBuckets(cards)

	if b.Novice != 2 {
		t.Errorf("Novice = %d, want 2", b.Novice)
	}
	if b.Learning != 2 {
		t.Errorf("Learning = %d, want 2", b.Learning)
	}
	if b.Proficient != 2 {
		t.Errorf("Proficient = %d, want 2", b.Proficient)
	}
	if b.Master != 2 {
		t.Errorf("Master = %d, want 2", b.Master)
	}
	if total := b.Novice + b.Learning + b.Proficient + b.Master; total != len(cards) {
		t.Errorf("bucket total = %d, want %d", total, len(cards))
	}
}

func TestMasteryBucketsEmpty(t *testing.T) {
	b := MasteryBuckets(nil)
	if b != (Buckets{}) {
		t.Errorf("MasteryBuckets(nil) = %+v, want zero buckets", b)
	}
}

func TestAverageMastery(t *testing.T) {
	testCases := []struct {
		name   string
		values []int
		want   int
	}{
		{"empty", nil, 0},
		{"single", []int{42}, 42},
		{"exact mean", []int{20, 40, 60}, 40},
		{"rounds up", []int{1, 2}, 2},  // 1.5 rounds away from zero
		{"rounds down", []int{1, 0, 0}, 0}, // 0.33
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := AverageMastery(cardsWithMastery(tc.values...)); got != tc.want {
				t.Errorf("AverageMastery(%v) = %d, want %d", tc.values, got, tc.want)
			}
		})
	}
}
