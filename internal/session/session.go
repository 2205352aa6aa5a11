package session

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/conorfennell/snapcard/internal/domain"
	"github.com/conorfennell/snapcard/internal/progress"
	"github.com/conorfennell/snapcard/internal/srs"
)

// ErrNoCurrentCard is returned when a card is requested while nothing is due.
var ErrNoCurrentCard = errors.New("no current card")

// ErrPersistence matches every *PersistenceError with errors.Is.
var ErrPersistence = errors.New("persistence failure")

// ErrStreakNotSaved matches the *PersistenceError returned by RecordJudgment
// when the card was saved but the study streak was not.
var ErrStreakNotSaved = errors.New("study streak not saved")

const opSaveStreak = "save streak"

// PersistenceError wraps a failure of the storage collaborator.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPersistence, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence || (target == ErrStreakNotSaved && e.Op == opSaveStreak)
}

// Store is the storage collaborator a session reads cards from and writes
// reviews to. A saved card must be returned by the next LoadAllCards.
type Store interface {
	LoadAllCards() ([]domain.Card, error)
	SaveCard(card domain.Card) error
	LoadStreakState() (domain.StreakState, error)
	SaveStreakState(state domain.StreakState) error
}

// Status is the state of a review session.
type Status int

const (
	StatusIdle   Status = iota // no session started
	StatusActive               // cards are due and one is current
	StatusEmpty                // nothing is due
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusEmpty:
		return "empty"
	default:
		return "idle"
	}
}

// Controller runs one study pass at a time over the cards in a Store.
// It is not safe for concurrent use.
type Controller struct {
	store  Store
	params *srs.Params
	log    *slog.Logger

	status Status
	cards  []domain.Card
	streak domain.StreakState
	due    []domain.Card
	cursor int
}

// Option configures a Controller.
type Option func(*Controller)

// WithParams sets the scheduler policy. Params that fail validation are
// replaced by the defaults.
func WithParams(p *srs.Params) Option {
	return func(c *Controller) { c.params = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New creates an idle controller reading from and writing to store.
func New(store Store, opts ...Option) *Controller {
	c := &Controller{
		store:  store,
		params: srs.DefaultParams(),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.params == nil {
		c.params = srs.DefaultParams()
	}
	if err := c.params.Validate(); err != nil {
		c.log.Warn("Rejected scheduler params, using defaults", "error", err)
		c.params = srs.DefaultParams()
	}
	return c
}

// Start loads all cards and the streak state and selects the cards due at now.
// It returns StatusEmpty when nothing is due.
func (c *Controller) Start(now time.Time) (Status, error) {
	cards, err := c.store.LoadAllCards()
	if err != nil {
		return c.status, &PersistenceError{Op: "load cards", Err: err}
	}
	streak, err := c.store.LoadStreakState()
	if err != nil {
		return c.status, &PersistenceError{Op: "load streak", Err: err}
	}

	c.cards = slices.Clone(cards)
	c.streak = streak
	c.due = srs.DueCards(cards, now)
	c.cursor = 0
	c.status = StatusActive
	if len(c.due) == 0 {
		c.status = StatusEmpty
	}
	c.log.Info("Review session started", "cards", len(cards), "due", len(c.due))
	return c.status, nil
}

// End returns the controller to idle and drops the session state.
func (c *Controller) End() {
	c.status = StatusIdle
	c.cards = nil
	c.due = nil
	c.cursor = 0
}

// Status returns the current session status.
func (c *Controller) Status() Status {
	return c.status
}

// CurrentCard returns the card under the cursor.
func (c *Controller) CurrentCard() (domain.Card, error) {
	if len(c.due) == 0 {
		return domain.Card{}, ErrNoCurrentCard
	}
	return c.due[c.cursor], nil
}

// Position returns the 1-based position of the current card and the due count.
func (c *Controller) Position() (int, int) {
	if len(c.due) == 0 {
		return 0, 0
	}
	return c.cursor + 1, len(c.due)
}

// Preview returns the current card as it would be after each judgment.
func (c *Controller) Preview(now time.Time) (map[srs.Judgment]domain.Card, error) {
	card, err := c.CurrentCard()
	if err != nil {
		return nil, err
	}
	return c.params.Preview(card, now), nil
}

// RecordJudgment reschedules the current card, saves it, refreshes the due set
// and moves the cursor on, wrapping to the start after the last card.
// If the card save fails the session is left exactly as it was.
//
// An error matching ErrStreakNotSaved means the judgment was recorded and the
// cursor has moved on; only the streak write failed. Callers must not record
// the judgment again. The streak write is retried on the next judgment.
func (c *Controller) RecordJudgment(j srs.Judgment, now time.Time) error {
	card, err := c.CurrentCard()
	if err != nil {
		return err
	}
	next, err := c.params.Apply(card, j, now)
	if err != nil {
		return err
	}
	if err := c.store.SaveCard(next); err != nil {
		return &PersistenceError{Op: "save card " + next.ID, Err: err}
	}

	c.replace(next)
	c.log.Debug("Card reviewed", "id", next.ID, "judgment", j, "interval_days", next.IntervalDays, "ease", next.EaseFactor)

	// The card is durable at this point, so a failed streak write is reported
	// without rolling the card back. The next judgment retries it.
	var streakErr error
	if !progress.StudiedOn(c.streak, now) {
		streak := progress.UpdateStreak(c.streak, now)
		if err := c.store.SaveStreakState(streak); err != nil {
			streakErr = &PersistenceError{Op: opSaveStreak, Err: err}
		} else {
			c.streak = streak
		}
	}

	c.due = srs.DueCards(c.cards, now)
	if c.cursor < len(c.due)-1 {
		c.cursor++
	} else {
		c.cursor = 0
	}
	if len(c.due) == 0 {
		c.status = StatusEmpty
		c.log.Info("Review session complete, nothing left due")
	}
	return streakErr
}

// Stats summarises the cards held by the session at now.
func (c *Controller) Stats(now time.Time) progress.Stats {
	return progress.Summarize(c.cards, c.streak, now)
}

func (c *Controller) replace(card domain.Card) {
	for i := range c.cards {
		if c.cards[i].ID == card.ID {
			c.cards[i] = card
			return
		}
	}
}
