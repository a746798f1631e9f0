package storage

import (
	"testing"
	"time"

	"github.com/retain-app/retain/internal/domain"
	"github.com/retain-app/retain/internal/sm2"
)

var t0 = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func insertTestCard(t *testing.T, db *DB, hash string, nextReview time.Time) domain.Card {
	t.Helper()
	card := domain.NewCard("question "+hash, "answer", t0)
	card.Hash = hash
	card.NextReview = nextReview
	sourceID, err := db.InsertSource("/tmp/cards/"+hash, "local")
	if err != nil {
		t.Fatalf("InsertSource: %v", err)
	}
	if err := db.InsertCard(card, sourceID); err != nil {
		t.Fatalf("InsertCard: %v", err)
	}
	return card
}

func TestCardRoundTrip(t *testing.T) {
	db := openTestDB(t)

	card := domain.NewCard("What is Go?", "A language", t0)
	card.Hash = "abc123"
	card.Hint = "compiled"
	card.Concept = "programming"
	card.Difficulty = "easy"
	card.Easiness = 2.36
	card.Repetitions = 3
	card.Interval = 7
	card.Mastery = 53

	sourceID, err := db.InsertSource("/tmp/cards", "local")
	if err != nil {
		t.Fatalf("InsertSource: %v", err)
	}
	if err := db.InsertCard(card, sourceID); err != nil {
		t.Fatalf("InsertCard: %v", err)
	}

	got, err := db.FindCardByHash("abc123")
	if err != nil {
		t.Fatalf("FindCardByHash: %v", err)
	}
	if got == nil {
		t.Fatal("card not found after insert")
	}
	if got.Question != card.Question || got.Answer != card.Answer ||
		got.Hint != card.Hint || got.Concept != card.Concept || got.Difficulty != card.Difficulty {
		t.Errorf("content fields did not round-trip: %+v", got)
	}
	if got.Easiness != 2.36 {
		t.Errorf("Easiness = %v, want 2.36", got.Easiness)
	}
	if got.Repetitions != 3 || got.Interval != 7 || got.Mastery != 53 {
		t.Errorf("scheduling fields = %d/%d/%d, want 3/7/53", got.Repetitions, got.Interval, got.Mastery)
	}
	if got.LastReviewed != nil {
		t.Errorf("LastReviewed = %v, want nil", got.LastReviewed)
	}
}

func TestFindCardByHashMissing(t *testing.T) {
	db := openTestDB(t)
	got, err := db.FindCardByHash("nope")
	if err != nil {
		t.Fatalf("FindCardByHash: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil for missing card", got)
	}
}

func TestRecordReviewPersistsStateAndHistory(t *testing.T) {
	db := openTestDB(t)
	card := insertTestCard(t, db, "c1", t0)

	reviewed, err := sm2.Review(card, domain.GradeGood, t0)
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if err := db.RecordReview(reviewed); err != nil {
		t.Fatalf("RecordReview: %v", err)
	}

	got, err := db.FindCardByHash("c1")
	if err != nil {
		t.Fatalf("FindCardByHash: %v", err)
	}
	if got.Repetitions != 1 || got.Mastery != 18 {
		t.Errorf("state = reps %d mastery %d, want 1/18", got.Repetitions, got.Mastery)
	}
	if got.LastReviewed == nil {
		t.Fatal("LastReviewed not persisted")
	}
	if len(got.ReviewHistory) != 1 {
		t.Fatalf("history length = %d, want 1", len(got.ReviewHistory))
	}
	if got.ReviewHistory[0].Grade != domain.GradeGood {
		t.Errorf("history grade = %d, want %d", got.ReviewHistory[0].Grade, domain.GradeGood)
	}

	// A second review appends, never rewrites.
	reviewed2, err := sm2.Review(*got, domain.GradeAgain, t0.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("Review: %v", err)
	}
	if err := db.RecordReview(reviewed2); err != nil {
		t.Fatalf("RecordReview: %v", err)
	}
	got2, err := db.FindCardByHash("c1")
	if err != nil {
		t.Fatalf("FindCardByHash: %v", err)
	}
	if len(got2.ReviewHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(got2.ReviewHistory))
	}
	if got2.ReviewHistory[1].Grade != domain.GradeAgain {
		t.Errorf("latest grade = %d, want %d", got2.ReviewHistory[1].Grade, domain.GradeAgain)
	}
}

func TestRecordReviewWithoutHistory(t *testing.T) {
	db := openTestDB(t)
	card := insertTestCard(t, db, "c1", t0)
	if err := db.RecordReview(card); err == nil {
		t.Error("RecordReview should reject a card with no review history")
	}
}

func TestGetDueCardsOrdering(t *testing.T) {
	db := openTestDB(t)
	insertTestCard(t, db, "future", t0.Add(time.Hour))
	insertTestCard(t, db, "overdue", t0.Add(-2*time.Hour))
	insertTestCard(t, db, "exact", t0)

	due, err := db.GetDueCards(t0)
	if err != nil {
		t.Fatalf("GetDueCards: %v", err)
	}
	if len(due) != 2 {
		t.Fatalf("len(due) = %d, want 2", len(due))
	}
	if due[0].Hash != "overdue" || due[1].Hash != "exact" {
		t.Errorf("order = [%s %s], want [overdue exact]", due[0].Hash, due[1].Hash)
	}
}

func TestSourceLifecycle(t *testing.T) {
	db := openTestDB(t)

	id, err := db.InsertSource("git@github.com:someone/cards.git", "git")
	if err != nil {
		t.Fatalf("InsertSource: %v", err)
	}

	src, err := db.FindSourceByPath("git@github.com:someone/cards.git")
	if err != nil {
		t.Fatalf("FindSourceByPath: %v", err)
	}
	if src == nil || src.ID != id || src.Type != "git" {
		t.Fatalf("source = %+v, want id %d type git", src, id)
	}
	if src.LastScanned.Valid {
		t.Error("LastScanned should be null before first sync")
	}

	if err := db.UpdateSourceLastScanned(id); err != nil {
		t.Fatalf("UpdateSourceLastScanned: %v", err)
	}
	src, err = db.FindSourceByPath("git@github.com:someone/cards.git")
	if err != nil {
		t.Fatalf("FindSourceByPath: %v", err)
	}
	if !src.LastScanned.Valid {
		t.Error("LastScanned should be set after update")
	}

	card := domain.NewCard("q", "a", t0)
	card.Hash = "h1"
	if err := db.InsertCard(card, id); err != nil {
		t.Fatalf("InsertCard: %v", err)
	}

	if err := db.DeleteSource(id); err != nil {
		t.Fatalf("DeleteSource: %v", err)
	}
	sources, err := db.GetAllSources()
	if err != nil {
		t.Fatalf("GetAllSources: %v", err)
	}
	if len(sources) != 0 {
		t.Errorf("sources remaining = %d, want 0", len(sources))
	}
	gone, err := db.FindCardByHash("h1")
	if err != nil {
		t.Fatalf("FindCardByHash: %v", err)
	}
	if gone != nil {
		t.Error("cards of a deleted source should be removed")
	}
}
