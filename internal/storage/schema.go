package storage

const schema = `
-- The 'cards' table stores each flashcard's content and its
-- spaced-repetition scheduling state.
CREATE TABLE IF NOT EXISTS cards (
    hash TEXT PRIMARY KEY,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    hint TEXT NOT NULL DEFAULT '',
    concept TEXT NOT NULL DEFAULT '',
    difficulty TEXT NOT NULL DEFAULT '',
    easiness REAL NOT NULL,
    repetitions INTEGER NOT NULL,
    interval INTEGER NOT NULL,
    next_review DATETIME NOT NULL,
    mastery INTEGER NOT NULL,
    last_reviewed DATETIME,
    created_at DATETIME NOT NULL,
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id)
);

-- Append-only review audit trail, one row per grading action.
CREATE TABLE IF NOT EXISTS review_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    card_hash TEXT NOT NULL,
    grade INTEGER NOT NULL,
    reviewed_at DATETIME NOT NULL,

    FOREIGN KEY(card_hash) REFERENCES cards(hash)
);

CREATE INDEX IF NOT EXISTS idx_review_log_card ON review_log(card_hash, id);
CREATE INDEX IF NOT EXISTS idx_cards_next_review ON cards(next_review);

-- The 'sources' table tracks where cards come from, either a local
-- directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local', -- 'local' or 'git'
    last_scanned DATETIME
);
`
