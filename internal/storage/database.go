package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/conorfennell/snapcard/internal/domain"
	"github.com/conorfennell/snapcard/internal/knol"
	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// Streak dates are stored as calendar dates. Timestamps are stored as Unix
// milliseconds, which cover every interval the scheduler can produce.
const dateLayout = "2006-01-02"

// DB represents a wrapper around the SQL database connection.
type DB struct {
	conn *sql.DB
}

// Open creates a new database connection and ensures the schema is up to date.
// The parent directory of path is created if needed.
func Open(path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("failed to open database: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection keeps writes ordered.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

const cardColumns = `id, question, answer, repetitions, interval_days, ease_factor, next_review_at, created_at, updated_at`

// LoadAllCards returns every card in creation order.
func (db *DB) LoadAllCards() ([]domain.Card, error) {
	rows, err := db.conn.Query(`SELECT ` + cardColumns + ` FROM cards ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to load cards: %w", err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate card rows: %w", err)
	}
	return cards, nil
}

// FindCardByID retrieves a card by its ID. It returns nil if there is none.
func (db *DB) FindCardByID(id string) (*domain.Card, error) {
	row := db.conn.QueryRow(`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id)
	card, err := scanCard(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Card not found
		}
		return nil, fmt.Errorf("failed to find card %s: %w", id, err)
	}
	return &card, nil
}

// SaveCard inserts the card or updates the review state of an existing one.
// Question and answer are never changed by an update.
func (db *DB) SaveCard(card domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("failed to save card: %w", err)
	}
	_, err := db.conn.Exec(`
		INSERT INTO cards (id, fingerprint, question, answer, repetitions, interval_days, ease_factor, next_review_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			repetitions = excluded.repetitions,
			interval_days = excluded.interval_days,
			ease_factor = excluded.ease_factor,
			next_review_at = excluded.next_review_at,
			updated_at = excluded.updated_at
	`,
		card.ID,
		knol.CardFingerprint(card),
		card.Question,
		card.Answer,
		card.Repetitions,
		card.IntervalDays,
		card.EaseFactor,
		toMillis(card.NextReviewAt),
		toMillis(card.CreatedAt),
		toMillis(card.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save card %s: %w", card.ID, err)
	}
	return nil
}

// InsertCards adds new cards in one transaction, skipping any whose content
// fingerprint is already stored. A sourceID of 0 records no source.
// It returns the number of cards actually inserted.
func (db *DB) InsertCards(cards []domain.Card, sourceID int64) (int, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO cards (id, fingerprint, question, answer, repetitions, interval_days, ease_factor, next_review_at, created_at, updated_at, source_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	source := sql.NullInt64{Int64: sourceID, Valid: sourceID != 0}
	inserted := 0
	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return 0, fmt.Errorf("failed to insert cards: %w", err)
		}
		res, err := stmt.Exec(
			card.ID,
			knol.CardFingerprint(card),
			card.Question,
			card.Answer,
			card.Repetitions,
			card.IntervalDays,
			card.EaseFactor,
			toMillis(card.NextReviewAt),
			toMillis(card.CreatedAt),
			toMillis(card.UpdatedAt),
			source,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert card %s: %w", card.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to count inserted rows: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit insert: %w", err)
	}
	return inserted, nil
}

// LoadStreakState returns the study streak.
func (db *DB) LoadStreakState() (domain.StreakState, error) {
	var last sql.NullString
	var state domain.StreakState
	err := db.conn.QueryRow(`SELECT last_study_date, current_streak FROM streak WHERE id = 1`).Scan(&last, &state.CurrentStreak)
	if err != nil {
		return domain.StreakState{}, fmt.Errorf("failed to load streak: %w", err)
	}
	if last.Valid && last.String != "" {
		state.LastStudyDate, err = time.Parse(dateLayout, last.String)
		if err != nil {
			return domain.StreakState{}, fmt.Errorf("failed to parse last study date %q: %w", last.String, err)
		}
	}
	return state, nil
}

// SaveStreakState stores the study streak.
func (db *DB) SaveStreakState(state domain.StreakState) error {
	if err := state.Validate(); err != nil {
		return fmt.Errorf("failed to save streak: %w", err)
	}
	var last sql.NullString
	if state.HasStudied() {
		last = sql.NullString{String: state.LastStudyDate.Format(dateLayout), Valid: true}
	}
	_, err := db.conn.Exec(`
		INSERT INTO streak (id, last_study_date, current_streak) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET last_study_date = excluded.last_study_date, current_streak = excluded.current_streak
	`, last, state.CurrentStreak)
	if err != nil {
		return fmt.Errorf("failed to save streak: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCard(row scanner) (domain.Card, error) {
	var c domain.Card
	var next, created, updated int64
	err := row.Scan(
		&c.ID,
		&c.Question,
		&c.Answer,
		&c.Repetitions,
		&c.IntervalDays,
		&c.EaseFactor,
		&next,
		&created,
		&updated,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Card{}, err
		}
		return domain.Card{}, fmt.Errorf("failed to scan card row: %w", err)
	}
	c.NextReviewAt = fromMillis(next)
	c.CreatedAt = fromMillis(created)
	c.UpdatedAt = fromMillis(updated)
	return c, nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
