// Package cardhash derives a card's identity from its content.
// Two cards with the same normalized question, answer, hint and concept
// are the same card, regardless of formatting or source file.
package cardhash

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/retain-app/retain/internal/domain"
)

// Normalize cleans and concatenates the card's identity-bearing fields.
// Each part is lowercased, trimmed, and has its line endings normalized.
// Scheduling state and difficulty never contribute to identity.
func Normalize(card domain.Card) string {
	parts := []string{card.Question, card.Answer, card.Hint, card.Concept}
	for i, p := range parts {
		p = strings.ToLower(p)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		parts[i] = p
	}
	// Joined with newlines so adjacent fields cannot run together and
	// collide ("question"+"answer" vs "questionanswer").
	return strings.Join(parts, "\n")
}

// Hash returns the SHA-256 of the normalized card as a hex string.
func Hash(card domain.Card) string {
	sum := sha256.Sum256([]byte(Normalize(card)))
	return fmt.Sprintf("%x", sum)
}
