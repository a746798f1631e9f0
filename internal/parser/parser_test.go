package parser

import (
	"strings"
	"testing"
	"time"

	"github.com/retain-app/retain/internal/domain"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedCards int
		expectedQ     string
		expectedA     string
		expectedH     string
		expectedC     string
		expectedD     string
	}{
		{
			name:          "Simple Q&A",
			input:         "Q: What is the capital of France?\nA: Paris",
			expectedCards: 1,
			expectedQ:     "What is the capital of France?",
			expectedA:     "Paris",
		},
		{
			name:          "All fields",
			input:         "Q: What is 1+1?\nA: 2\nH: Count on your fingers\nC: arithmetic\nD: easy",
			expectedCards: 1,
			expectedQ:     "What is 1+1?",
			expectedA:     "2",
			expectedH:     "Count on your fingers",
			expectedC:     "arithmetic",
			expectedD:     "easy",
		},
		{
			name: "Multiline answer",
			input: `
Q: What are the primary colors?
A: Red
Blue
Yellow
`,
			expectedCards: 1,
			expectedQ:     "What are the primary colors?",
			expectedA:     "Red\nBlue\nYellow",
		},
		{
			name: "Two cards without separator",
			input: `
Q: First question
A: First answer
Q: Second question
A: Second answer
`,
			expectedCards: 2,
		},
		{
			name: "Cards with separator",
			input: `
Q: First
A: one
---
Q: Second
A: two
`,
			expectedCards: 2,
		},
		{
			name:          "Answer without question is dropped",
			input:         "A: orphaned answer",
			expectedCards: 0,
		},
		{
			name:          "Empty input",
			input:         "",
			expectedCards: 0,
		},
		{
			name:          "Prose without prefixes",
			input:         "just some text\nwith no cards in it",
			expectedCards: 0,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := Parse(strings.NewReader(tc.input), t0)
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if len(cards) != tc.expectedCards {
				t.Fatalf("got %d cards, want %d", len(cards), tc.expectedCards)
			}
			if tc.expectedCards == 0 || tc.expectedQ == "" {
				return
			}
			card := cards[0]
			if card.Question != tc.expectedQ {
				t.Errorf("Question = %q, want %q", card.Question, tc.expectedQ)
			}
			if card.Answer != tc.expectedA {
				t.Errorf("Answer = %q, want %q", card.Answer, tc.expectedA)
			}
			if card.Hint != tc.expectedH {
				t.Errorf("Hint = %q, want %q", card.Hint, tc.expectedH)
			}
			if card.Concept != tc.expectedC {
				t.Errorf("Concept = %q, want %q", card.Concept, tc.expectedC)
			}
			if card.Difficulty != tc.expectedD {
				t.Errorf("Difficulty = %q, want %q", card.Difficulty, tc.expectedD)
			}
		})
	}
}

func TestParsedCardsHaveDefaultSchedulingState(t *testing.T) {
	cards, err := Parse(strings.NewReader("Q: q\nA: a"), t0)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cards) != 1 {
		t.Fatalf("got %d cards, want 1", len(cards))
	}
	card := cards[0]
	if card.Easiness != domain.InitialEasiness {
		t.Errorf("Easiness = %v, want %v", card.Easiness, domain.InitialEasiness)
	}
	if card.Interval != domain.InitialInterval {
		t.Errorf("Interval = %d, want %d", card.Interval, domain.InitialInterval)
	}
	if !card.NextReview.Equal(t0) {
		t.Errorf("NextReview = %v, want %v (immediately due)", card.NextReview, t0)
	}
	if card.Mastery != 0 || card.Repetitions != 0 {
		t.Errorf("Mastery/Repetitions = %d/%d, want 0/0", card.Mastery, card.Repetitions)
	}
	if card.LastReviewed != nil {
		t.Errorf("LastReviewed = %v, want nil", card.LastReviewed)
	}
}
