package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/retain-app/retain/internal/domain"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

const cardColumns = `hash, question, answer, hint, concept, difficulty,
	easiness, repetitions, interval, next_review, mastery, last_reviewed, created_at`

// InsertCard inserts a new card with its current scheduling state.
func (db *DB) InsertCard(card domain.Card, sourceID int64) error {
	_, err := db.conn.Exec(`
		INSERT INTO cards (`+cardColumns+`, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		card.Hash,
		card.Question,
		card.Answer,
		card.Hint,
		card.Concept,
		card.Difficulty,
		card.Easiness,
		card.Repetitions,
		card.Interval,
		card.NextReview,
		card.Mastery,
		nullTime(card.LastReviewed),
		card.CreatedAt,
		sourceID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert card %s: %w", card.Hash, err)
	}
	return nil
}

func scanCard(row interface{ Scan(...any) error }) (domain.Card, error) {
	var c domain.Card
	var lastReviewed sql.NullTime
	err := row.Scan(
		&c.Hash,
		&c.Question,
		&c.Answer,
		&c.Hint,
		&c.Concept,
		&c.Difficulty,
		&c.Easiness,
		&c.Repetitions,
		&c.Interval,
		&c.NextReview,
		&c.Mastery,
		&lastReviewed,
		&c.CreatedAt,
	)
	if err != nil {
		return domain.Card{}, err
	}
	if lastReviewed.Valid {
		t := lastReviewed.Time
		c.LastReviewed = &t
	}
	return c, nil
}

// FindCardByHash retrieves a card, including its full review history.
// Returns (nil, nil) when no card has the given hash.
func (db *DB) FindCardByHash(hash string) (*domain.Card, error) {
	row := db.conn.QueryRow(`
		SELECT `+cardColumns+` FROM cards WHERE hash = ?
	`, hash)

	card, err := scanCard(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Card not found
		}
		return nil, fmt.Errorf("failed to find card by hash %s: %w", hash, err)
	}

	history, err := db.reviewHistory(hash)
	if err != nil {
		return nil, err
	}
	card.ReviewHistory = history
	return &card, nil
}

func (db *DB) reviewHistory(hash string) ([]domain.ReviewRecord, error) {
	rows, err := db.conn.Query(`
		SELECT grade, reviewed_at FROM review_log
		WHERE card_hash = ? ORDER BY id
	`, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to load review history for %s: %w", hash, err)
	}
	defer rows.Close()

	var history []domain.ReviewRecord
	for rows.Next() {
		var rec domain.ReviewRecord
		if err := rows.Scan(&rec.Grade, &rec.ReviewedAt); err != nil {
			return nil, fmt.Errorf("failed to scan review record for %s: %w", hash, err)
		}
		history = append(history, rec)
	}
	return history, rows.Err()
}

// RecordReview persists the outcome of one review: it writes the card's
// updated scheduling fields and appends the newest history record, in a
// single transaction so the card row and its audit trail cannot diverge.
func (db *DB) RecordReview(card domain.Card) error {
	if len(card.ReviewHistory) == 0 {
		return fmt.Errorf("card %s has no review to record", card.Hash)
	}
	latest := card.ReviewHistory[len(card.ReviewHistory)-1]

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin review transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE cards
		SET easiness = ?, repetitions = ?, interval = ?, next_review = ?,
		    mastery = ?, last_reviewed = ?
		WHERE hash = ?
	`,
		card.Easiness,
		card.Repetitions,
		card.Interval,
		card.NextReview,
		card.Mastery,
		nullTime(card.LastReviewed),
		card.Hash,
	)
	if err != nil {
		return fmt.Errorf("failed to update scheduling state for %s: %w", card.Hash, err)
	}

	_, err = tx.Exec(`
		INSERT INTO review_log (card_hash, grade, reviewed_at)
		VALUES (?, ?, ?)
	`, card.Hash, latest.Grade, latest.ReviewedAt)
	if err != nil {
		return fmt.Errorf("failed to append review log for %s: %w", card.Hash, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit review for %s: %w", card.Hash, err)
	}
	return nil
}

// GetDueCards returns cards due at the given time, most overdue first.
// The ordering mirrors the in-memory due query and is relied on by the
// review session UI.
func (db *DB) GetDueCards(now time.Time) ([]domain.Card, error) {
	return db.queryCards(`
		SELECT `+cardColumns+` FROM cards
		WHERE next_review <= ? ORDER BY next_review ASC
	`, now)
}

// GetAllCards returns every stored card without review history.
func (db *DB) GetAllCards() ([]domain.Card, error) {
	return db.queryCards(`SELECT ` + cardColumns + ` FROM cards`)
}

// GetCardsBySourceID retrieves all cards associated with a specific source.
func (db *DB) GetCardsBySourceID(sourceID int64) ([]domain.Card, error) {
	return db.queryCards(`
		SELECT `+cardColumns+` FROM cards WHERE source_id = ?
	`, sourceID)
}

func (db *DB) queryCards(query string, args ...any) ([]domain.Card, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan card row: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

// DeleteCardByHash removes a card and its review history.
func (db *DB) DeleteCardByHash(hash string) error {
	if _, err := db.conn.Exec(`DELETE FROM review_log WHERE card_hash = ?`, hash); err != nil {
		return fmt.Errorf("failed to delete review log for %s: %w", hash, err)
	}
	if _, err := db.conn.Exec(`DELETE FROM cards WHERE hash = ?`, hash); err != nil {
		return fmt.Errorf("failed to delete card with hash %s: %w", hash, err)
	}
	return nil
}

// Source represents a card source, either a local path or a git URL.
type Source struct {
	ID          int64
	Path        string
	Type        string // "local" or "git"
	LastScanned sql.NullTime
}

// InsertSource inserts a new source and returns its ID.
func (db *DB) InsertSource(path, sourceType string) (int64, error) {
	res, err := db.conn.Exec(`
		INSERT INTO sources (path, type) VALUES (?, ?)
	`, path, sourceType)
	if err != nil {
		return 0, fmt.Errorf("failed to insert source %s: %w", path, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert ID for source %s: %w", path, err)
	}
	return id, nil
}

// FindSourceByPath retrieves a source by its path, or (nil, nil) if absent.
func (db *DB) FindSourceByPath(path string) (*Source, error) {
	var s Source
	row := db.conn.QueryRow(`
		SELECT id, path, type, last_scanned FROM sources WHERE path = ?
	`, path)

	err := row.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Source not found
		}
		return nil, fmt.Errorf("failed to find source by path %s: %w", path, err)
	}
	return &s, nil
}

// GetAllSources retrieves all stored sources.
func (db *DB) GetAllSources() ([]Source, error) {
	rows, err := db.conn.Query(`
		SELECT id, path, type, last_scanned FROM sources
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.Path, &s.Type, &s.LastScanned); err != nil {
			return nil, fmt.Errorf("failed to scan source row: %w", err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// UpdateSourceLastScanned updates the last_scanned timestamp for a source.
func (db *DB) UpdateSourceLastScanned(sourceID int64) error {
	_, err := db.conn.Exec(`
		UPDATE sources SET last_scanned = ? WHERE id = ?
	`, time.Now(), sourceID)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for source ID %d: %w", sourceID, err)
	}
	return nil
}

// DeleteSource removes a source and all cards that came from it.
func (db *DB) DeleteSource(id int64) error {
	cards, err := db.GetCardsBySourceID(id)
	if err != nil {
		return err
	}
	for _, card := range cards {
		if err := db.DeleteCardByHash(card.Hash); err != nil {
			return err
		}
	}
	if _, err := db.conn.Exec(`DELETE FROM sources WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete source %d: %w", id, err)
	}
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
