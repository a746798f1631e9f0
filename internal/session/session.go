// Package session implements an in-memory review session over a due-card
// queue. A failed card is re-appended to the back of the queue so the
// learner sees it again before the session ends; the persisted next-review
// date still governs future sessions.
package session

import (
	"errors"
	"time"

	"github.com/retain-app/retain/internal/domain"
	"github.com/retain-app/retain/internal/sm2"
)

// ErrNoCard is returned by Grade when the session queue is empty.
var ErrNoCard = errors.New("session: no card to grade")

// Session processes a queue of due cards in order.
type Session struct {
	queue    []domain.Card
	reviewed int
	failed   int
}

// New starts a session over the given due cards, head of the queue first.
// The slice is copied; the caller's slice is not touched afterwards.
func New(due []domain.Card) *Session {
	queue := make([]domain.Card, len(due))
	copy(queue, due)
	return &Session{queue: queue}
}

// Next returns the card at the head of the queue without consuming it.
func (s *Session) Next() (domain.Card, bool) {
	if len(s.queue) == 0 {
		return domain.Card{}, false
	}
	return s.queue[0], true
}

// Grade applies the given grade to the head card and returns the updated
// card for the caller to persist. On a failing grade the updated card is
// appended to the back of the queue; on success it is consumed.
func (s *Session) Grade(grade int, now time.Time) (domain.Card, error) {
	if len(s.queue) == 0 {
		return domain.Card{}, ErrNoCard
	}

	updated, err := sm2.Review(s.queue[0], grade, now)
	if err != nil {
		return domain.Card{}, err
	}

	s.queue = s.queue[1:]
	s.reviewed++
	if grade < sm2.SuccessThreshold {
		s.failed++
		s.queue = append(s.queue, updated)
	}
	return updated, nil
}

// Remaining reports how many cards are still queued, requeued failures included.
func (s *Session) Remaining() int {
	return len(s.queue)
}

// Done reports whether the queue is exhausted.
func (s *Session) Done() bool {
	return len(s.queue) == 0
}

// Reviewed returns the number of grading actions taken this session.
func (s *Session) Reviewed() int {
	return s.reviewed
}

// Failed returns the number of failing grades given this session.
func (s *Session) Failed() int {
	return s.failed
}
