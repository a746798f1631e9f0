package domain

import "time"

// Scheduling defaults for a card that has never been reviewed.
const (
	InitialEasiness = 2.5
	InitialInterval = 1
)

// Grade values for the review scale exposed by the UI.
// The scheduler accepts the full 0-5 range; these are the four labeled levels.
const (
	GradeAgain = 1
	GradeHard  = 3
	GradeGood  = 4
	GradeEasy  = 5
)

// Card represents a single flashcard together with its spaced-repetition state.
// The Hash is the card's identity, derived from its normalized content.
type Card struct {
	Hash       string
	Question   string
	Answer     string
	Hint       string
	Concept    string
	Difficulty string

	Easiness     float64
	Repetitions  int
	Interval     int
	NextReview   time.Time
	Mastery      int
	LastReviewed *time.Time

	ReviewHistory []ReviewRecord
	CreatedAt     time.Time
}

// ReviewRecord is one entry in a card's append-only review history.
type ReviewRecord struct {
	Grade      int
	ReviewedAt time.Time
}

// NewCard returns a card with default scheduling state, due immediately.
func NewCard(question, answer string, now time.Time) Card {
	return Card{
		Question:   question,
		Answer:     answer,
		Easiness:   InitialEasiness,
		Interval:   InitialInterval,
		NextReview: now,
		CreatedAt:  now,
	}
}

// Clone returns a deep copy of the card. The review history slice is copied
// so that mutating the clone's history cannot alias the original.
func (c Card) Clone() Card {
	out := c
	if c.LastReviewed != nil {
		t := *c.LastReviewed
		out.LastReviewed = &t
	}
	if c.ReviewHistory != nil {
		out.ReviewHistory = make([]ReviewRecord, len(c.ReviewHistory))
		copy(out.ReviewHistory, c.ReviewHistory)
	}
	return out
}

// Deck is an ordered collection of cards sharing a source. It owns no
// scheduling logic; due queries and mastery aggregation live in the sm2 package.
type Deck struct {
	Name  string
	Cards []Card
}
