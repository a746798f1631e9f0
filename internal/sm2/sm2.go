// Package sm2 implements the spaced-repetition scheduler.
//
// The algorithm is an SM-2 variant with two deliberate deviations from the
// classic formulation: a failed review (grade < 3) re-schedules the card four
// hours out instead of a full day, and the easiness factor is left untouched
// on failure so a single bad day cannot permanently de-rank a card.
//
// Review is a pure function of (card, grade, now): it never reads the wall
// clock and never mutates its input, so review chains are reproducible.
package sm2

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/retain-app/retain/internal/domain"
)

// Sentinel errors. Check with errors.Is.
var (
	ErrInvalidGrade     = errors.New("sm2: grade out of range")
	ErrInvalidCardState = errors.New("sm2: invalid card state")
)

const (
	// EasinessFloor is the minimum ease factor after every update.
	EasinessFloor = 1.3

	// SuccessThreshold is the lowest grade counted as a successful recall.
	SuccessThreshold = 3

	// FailureDelay is how soon a failed card is shown again. Deliberately
	// shorter than a day so it can be re-drilled within the same session.
	FailureDelay = 4 * time.Hour

	day = 24 * time.Hour
)

// Mastery adjustments per grade band.
const (
	masteryEasy    = 25
	masteryGood    = 18
	masteryHard    = 10
	masteryFailure = -15
)

// Review applies one review with the given grade at the given time and
// returns the updated card. The input card is not mutated.
//
// Grade must be an integer in [0, 5]; anything else returns ErrInvalidGrade
// rather than clamping, since a clamped grade would silently corrupt the
// easiness formula. A card whose scheduling fields violate their invariants
// returns ErrInvalidCardState.
func Review(card domain.Card, grade int, now time.Time) (domain.Card, error) {
	if grade < 0 || grade > 5 {
		return domain.Card{}, fmt.Errorf("%w: %d", ErrInvalidGrade, grade)
	}
	if err := validate(card); err != nil {
		return domain.Card{}, err
	}

	c := card.Clone()

	if grade < SuccessThreshold {
		c.Repetitions = 0
		c.Interval = 1
		c.NextReview = now.Add(FailureDelay)
		// Easiness is left unchanged on failure.
	} else {
		c.Repetitions++
		switch c.Repetitions {
		case 1:
			c.Interval = 1
		case 2:
			c.Interval = 3
		default:
			// Previous interval times previous easiness, before the
			// easiness update below.
			c.Interval = int(math.Round(float64(c.Interval) * c.Easiness))
		}
		c.Easiness += 0.1 - float64(5-grade)*(0.08+float64(5-grade)*0.02)
		if c.Easiness < EasinessFloor {
			c.Easiness = EasinessFloor
		}
		c.NextReview = now.Add(time.Duration(c.Interval) * day)
	}

	c.Mastery = clampMastery(c.Mastery + masteryDelta(grade))
	t := now
	c.LastReviewed = &t
	c.ReviewHistory = append(c.ReviewHistory, domain.ReviewRecord{Grade: grade, ReviewedAt: now})

	return c, nil
}

// ReviewBoolean is a simplified entry point for callers that only have
// pass/fail data. A correct answer is treated as Good, an incorrect one
// as Again.
func ReviewBoolean(card domain.Card, correct bool, now time.Time) (domain.Card, error) {
	grade := domain.GradeAgain
	if correct {
		grade = domain.GradeGood
	}
	return Review(card, grade, now)
}

func masteryDelta(grade int) int {
	switch {
	case grade >= 5:
		return masteryEasy
	case grade == 4:
		return masteryGood
	case grade == 3:
		return masteryHard
	default:
		return masteryFailure
	}
}

func clampMastery(m int) int {
	if m < 0 {
		return 0
	}
	if m > 100 {
		return 100
	}
	return m
}

func validate(card domain.Card) error {
	switch {
	case card.Easiness < EasinessFloor:
		return fmt.Errorf("%w: easiness %.2f below floor", ErrInvalidCardState, card.Easiness)
	case card.Interval < 1:
		return fmt.Errorf("%w: interval %d", ErrInvalidCardState, card.Interval)
	case card.Repetitions < 0:
		return fmt.Errorf("%w: repetitions %d", ErrInvalidCardState, card.Repetitions)
	case card.Mastery < 0 || card.Mastery > 100:
		return fmt.Errorf("%w: mastery %d", ErrInvalidCardState, card.Mastery)
	}
	return nil
}

// DueCards returns the cards whose next review is at or before now, most
// overdue first. Ties keep their input order. The input slice is not mutated.
func DueCards(cards []domain.Card, now time.Time) []domain.Card {
	var due []domain.Card
	for _, c := range cards {
		if !c.NextReview.After(now) {
			due = append(due, c)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		return due[i].NextReview.Before(due[j].NextReview)
	})
	return due
}
