package sm2

import (
	"math"

	"github.com/retain-app/retain/internal/domain"
)

// Buckets counts cards per coarse proficiency band.
type Buckets struct {
	Novice     int
	Learning   int
	Proficient int
	Master     int
}

// Mastery band thresholds.
const (
	masterThreshold     = 80
	proficientThreshold = 60
	learningThreshold   = 40
)

// MasteryBuckets assigns every card to exactly one band by its mastery score.
func MasteryBuckets(cards []domain.Card) Buckets {
	var b Buckets
	for _, c := range cards {
		switch {
		case c.Mastery >= masterThreshold:
			b.Master++
		case c.Mastery >= proficientThreshold:
			b.Proficient++
		case c.Mastery >= learningThreshold:
			b.Learning++
		default:
			b.Novice++
		}
	}
	return b
}

// AverageMastery returns the rounded mean mastery over all cards,
// or 0 for an empty slice.
func AverageMastery(cards []domain.Card) int {
	if len(cards) == 0 {
		return 0
	}
	sum := 0
	for _, c := range cards {
		sum += c.Mastery
	}
	return int(math.Round(float64(sum) / float64(len(cards))))
}
