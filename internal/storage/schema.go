package storage

const schema = `
-- The 'cards' table stores each flashcard and its review state.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    fingerprint TEXT NOT NULL UNIQUE,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    repetitions INTEGER NOT NULL DEFAULT 0,
    interval_days INTEGER NOT NULL DEFAULT 1,
    ease_factor REAL NOT NULL DEFAULT 2.5,
    next_review_at INTEGER NOT NULL, -- Unix milliseconds
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    source_id INTEGER,

    FOREIGN KEY(source_id) REFERENCES sources(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_cards_next_review_at ON cards(next_review_at);

-- The 'streak' table holds the single study streak row.
CREATE TABLE IF NOT EXISTS streak (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    last_study_date TEXT,
    current_streak INTEGER NOT NULL DEFAULT 0
);

INSERT OR IGNORE INTO streak (id, current_streak) VALUES (1, 0);

-- The 'sources' table tracks where imported cards came from, either a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned INTEGER
);
`
