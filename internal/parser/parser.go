// Package parser extracts flashcards from plain-text / markdown files.
//
// Card grammar, line-prefix based:
//
//	Q: question text (starts a new card)
//	A: answer text
//	H: optional hint
//	C: optional concept tag
//	D: optional difficulty label
//	---  explicit card separator
//
// Q, A and H blocks may span multiple lines; continuation lines belong to
// the most recent prefixed block.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"
	"time"

	"github.com/retain-app/retain/internal/domain"
)

type field int

const (
	none field = iota
	question
	answer
	hint
	concept
	difficulty
)

var prefixes = []struct {
	prefix string
	field  field
}{
	{"Q:", question},
	{"A:", answer},
	{"H:", hint},
	{"C:", concept},
	{"D:", difficulty},
}

const separator = "---"

// ParseFile reads the file at path and extracts all cards.
// New cards carry default scheduling state anchored at now.
func ParseFile(path string, now time.Time) ([]domain.Card, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return Parse(file, now)
}

// Parse reads from r and extracts all cards.
func Parse(r io.Reader, now time.Time) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)

	var cards []domain.Card
	current := domain.NewCard("", "", now)
	var block []string
	active := none

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch active {
		case question:
			current.Question = content
		case answer:
			current.Answer = content
		case hint:
			current.Hint = content
		case concept:
			current.Concept = strings.TrimSpace(content)
		case difficulty:
			current.Difficulty = strings.TrimSpace(content)
		}
		block = nil
	}

	finishCard := func() {
		flushBlock()
		if current.Question != "" {
			cards = append(cards, current)
		}
		current = domain.NewCard("", "", now)
		active = none
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == separator {
			finishCard()
			continue
		}

		matched := false
		for _, p := range prefixes {
			if !strings.HasPrefix(line, p.prefix) {
				continue
			}
			flushBlock()
			// A new question starts a new card.
			if p.field == question && active != none {
				finishCard()
			}
			active = p.field
			block = append(block, strings.TrimPrefix(strings.TrimPrefix(line, p.prefix), " "))
			matched = true
			break
		}
		if !matched && active != none {
			block = append(block, line)
		}
	}
	finishCard()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}
