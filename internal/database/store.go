// Package database provides the slide library for Gallery.
//
// It implements the Store interface on SQLite in WAL mode. Decks and
// their slides are stored by position, and every transition the player
// makes is appended to a playback log. The rotator's live state is never
// written here; the log is history only.
package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaFS embed.FS

// ErrNotFound is returned when a deck does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the interface for slide library persistence.
type Store interface {
	// InsertDeck creates or updates a deck record.
	InsertDeck(deck *Deck) error
	// BatchInsertSlides replaces all slides of a deck in a single transaction.
	BatchInsertSlides(deckID string, slides []*Slide) error
	// DeleteDeck removes a deck together with its slides and history.
	DeleteDeck(deckID string) error

	// QueryDecks returns decks matching the filter, most recently updated first.
	QueryDecks(filter DeckFilter) ([]*Deck, error)
	// GetDeck returns a single deck or ErrNotFound.
	GetDeck(deckID string) (*Deck, error)
	// FindDeckBySource returns the deck imported from path or ErrNotFound.
	FindDeckBySource(path string) (*Deck, error)
	// QuerySlides returns the slides of a deck ordered by position.
	QuerySlides(deckID string) ([]*Slide, error)
	// SearchSlides matches title and body text across all decks.
	SearchSlides(query string, limit int) ([]*Slide, error)

	// RecordTransition appends one entry to the playback log.
	RecordTransition(event *TransitionEvent) error
	// QueryTransitions returns the playback log of a deck in time order.
	QueryTransitions(deckID string) ([]*TransitionEvent, error)
	// GetDeckStats returns aggregated statistics for a deck.
	GetDeckStats(deckID string) (*DeckStats, error)

	// Close gracefully shuts down the database connection.
	Close() error
}

// ============================================================
// Domain Models
// ============================================================

// Deck is a stored slideshow.
type Deck struct {
	DeckID     string  `json:"deck_id"`
	Title      string  `json:"title"`
	IntervalMs int64   `json:"interval_ms"`
	FadeMs     int64   `json:"fade_ms"`
	Policy     string  `json:"policy"`
	SourcePath *string `json:"source_path,omitempty"`
	CreatedAt  int64   `json:"created_at"`
	UpdatedAt  int64   `json:"updated_at"`
}

// Slide is one stored entry of a deck. Caption entries are annotations.
type Slide struct {
	DeckID   string `json:"deck_id"`
	Position int    `json:"position"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	Caption  bool   `json:"caption"`
	Accent   string `json:"accent,omitempty"`
}

// TransitionEvent is one playback log entry.
type TransitionEvent struct {
	TransitionID int64  `json:"transition_id"`
	DeckID       string `json:"deck_id"`
	FromPosition int    `json:"from_position"`
	ToPosition   int    `json:"to_position"`
	Timestamp    int64  `json:"timestamp"`
	Manual       bool   `json:"manual"`
}

// DeckFilter defines query parameters for deck listing.
type DeckFilter struct {
	Title  *string `json:"title,omitempty"` // substring match
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// DeckStats holds aggregated statistics for a single deck.
type DeckStats struct {
	DeckID         string `json:"deck_id"`
	TotalSlides    int    `json:"total_slides"`
	Annotations    int    `json:"annotations"`
	Transitions    int    `json:"transitions"`
	ManualAdvances int    `json:"manual_advances"`
	LastPlayedAt   *int64 `json:"last_played_at,omitempty"`
}

// ============================================================
// DBService Implementation
// ============================================================

// DBService implements the Store interface using SQLite.
type DBService struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string

	stmtInsertDeck       *sql.Stmt
	stmtInsertSlide      *sql.Stmt
	stmtInsertTransition *sql.Stmt
}

// NewDBService opens (or creates) the library at path, applies the
// embedded schema and prepares hot-path statements.
//
// Use ":memory:" for an in-memory database (useful for testing).
func NewDBService(path string) (*DBService, error) {
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=ON", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database at %s: %w", path, err)
	}

	// One connection: SQLite has a single writer, and ":memory:" databases
	// are per-connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	svc := &DBService{
		db:   db,
		path: path,
	}

	if err := svc.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	if err := svc.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("preparing statements: %w", err)
	}

	return svc, nil
}

func (s *DBService) initSchema() error {
	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("reading embedded schema: %w", err)
	}

	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

func (s *DBService) prepareStatements() error {
	var err error

	s.stmtInsertDeck, err = s.db.Prepare(`
		INSERT INTO decks (deck_id, title, interval_ms, fade_ms, policy, source_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(deck_id) DO UPDATE SET
			title = excluded.title,
			interval_ms = excluded.interval_ms,
			fade_ms = excluded.fade_ms,
			policy = excluded.policy,
			source_path = COALESCE(excluded.source_path, decks.source_path),
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertDeck: %w", err)
	}

	s.stmtInsertSlide, err = s.db.Prepare(`
		INSERT INTO slides (deck_id, position, title, body, caption, accent)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertSlide: %w", err)
	}

	s.stmtInsertTransition, err = s.db.Prepare(`
		INSERT INTO transitions (deck_id, from_position, to_position, timestamp, manual)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing InsertTransition: %w", err)
	}

	return nil
}

// InsertDeck persists a deck. CreatedAt and UpdatedAt are filled in when
// zero; an existing deck keeps its original CreatedAt.
func (s *DBService) InsertDeck(deck *Deck) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UnixNano()
	if deck.CreatedAt == 0 {
		deck.CreatedAt = now
	}
	if deck.UpdatedAt == 0 {
		deck.UpdatedAt = now
	}
	if deck.Policy == "" {
		deck.Policy = "skip-to-first"
	}

	_, err := s.stmtInsertDeck.Exec(
		deck.DeckID, deck.Title, deck.IntervalMs, deck.FadeMs,
		deck.Policy, deck.SourcePath, deck.CreatedAt, deck.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting deck %s: %w", deck.DeckID, err)
	}
	return nil
}

// BatchInsertSlides replaces the slides of deckID. Positions are taken
// from slice order.
func (s *DBService) BatchInsertSlides(deckID string, slides []*Slide) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning slide transaction: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.Exec(`DELETE FROM slides WHERE deck_id = ?`, deckID); err != nil {
		return fmt.Errorf("clearing slides for deck %s: %w", deckID, err)
	}

	stmt := tx.Stmt(s.stmtInsertSlide)
	for i, sl := range slides {
		sl.DeckID = deckID
		sl.Position = i
		if _, err := stmt.Exec(deckID, i, sl.Title, sl.Body, sl.Caption, sl.Accent); err != nil {
			return fmt.Errorf("inserting slide %d of deck %s: %w", i, deckID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing slide transaction: %w", err)
	}
	return nil
}

// DeleteDeck removes a deck. Slides and transitions cascade.
func (s *DBService) DeleteDeck(deckID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`DELETE FROM decks WHERE deck_id = ?`, deckID)
	if err != nil {
		return fmt.Errorf("deleting deck %s: %w", deckID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deck %s: %w", deckID, ErrNotFound)
	}
	return nil
}

const deckColumns = `deck_id, title, interval_ms, fade_ms, policy, source_path, created_at, updated_at`

// QueryDecks returns decks ordered by updated_at descending.
func (s *DBService) QueryDecks(filter DeckFilter) ([]*Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + deckColumns + ` FROM decks WHERE 1=1`
	args := make([]interface{}, 0)

	if filter.Title != nil {
		query += ` AND title LIKE ?`
		args = append(args, "%"+*filter.Title+"%")
	}

	query += ` ORDER BY updated_at DESC`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	} else {
		query += ` LIMIT 100`
	}
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying decks: %w", err)
	}
	defer rows.Close()

	var decks []*Deck
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

// GetDeck returns the deck with the given ID.
func (s *DBService) GetDeck(deckID string) (*Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+deckColumns+` FROM decks WHERE deck_id = ?`, deckID)
	d, err := scanDeck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("deck %s: %w", deckID, ErrNotFound)
	}
	return d, err
}

// FindDeckBySource returns the most recently updated deck imported from path.
func (s *DBService) FindDeckBySource(path string) (*Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`SELECT `+deckColumns+` FROM decks WHERE source_path = ?
		ORDER BY updated_at DESC LIMIT 1`, path)
	d, err := scanDeck(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("deck from %s: %w", path, ErrNotFound)
	}
	return d, err
}

// QuerySlides returns the slides of a deck ordered by position.
func (s *DBService) QuerySlides(deckID string) ([]*Slide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT deck_id, position, title, body, caption, accent
		FROM slides
		WHERE deck_id = ?
		ORDER BY position ASC
	`, deckID)
	if err != nil {
		return nil, fmt.Errorf("querying slides for deck %s: %w", deckID, err)
	}
	defer rows.Close()

	return scanSlides(rows)
}

// SearchSlides performs a case-insensitive substring search over slide
// titles and bodies.
func (s *DBService) SearchSlides(query string, limit int) ([]*Slide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + query + "%"

	rows, err := s.db.Query(`
		SELECT deck_id, position, title, body, caption, accent
		FROM slides
		WHERE title LIKE ? OR body LIKE ?
		ORDER BY deck_id, position
		LIMIT ?
	`, pattern, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("searching slides for %q: %w", query, err)
	}
	defer rows.Close()

	return scanSlides(rows)
}

// RecordTransition appends a transition to the playback log.
func (s *DBService) RecordTransition(event *TransitionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixNano()
	}

	res, err := s.stmtInsertTransition.Exec(
		event.DeckID, event.FromPosition, event.ToPosition,
		event.Timestamp, event.Manual,
	)
	if err != nil {
		return fmt.Errorf("recording transition for deck %s: %w", event.DeckID, err)
	}
	event.TransitionID, _ = res.LastInsertId()
	return nil
}

// QueryTransitions returns the playback log of a deck in time order.
func (s *DBService) QueryTransitions(deckID string) ([]*TransitionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT transition_id, deck_id, from_position, to_position, timestamp, manual
		FROM transitions
		WHERE deck_id = ?
		ORDER BY timestamp ASC, transition_id ASC
	`, deckID)
	if err != nil {
		return nil, fmt.Errorf("querying transitions for deck %s: %w", deckID, err)
	}
	defer rows.Close()

	var events []*TransitionEvent
	for rows.Next() {
		ev := &TransitionEvent{}
		if err := rows.Scan(&ev.TransitionID, &ev.DeckID, &ev.FromPosition,
			&ev.ToPosition, &ev.Timestamp, &ev.Manual); err != nil {
			return nil, fmt.Errorf("scanning transition row: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// GetDeckStats returns aggregated statistics for a deck.
func (s *DBService) GetDeckStats(deckID string) (*DeckStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &DeckStats{DeckID: deckID}

	err := s.db.QueryRow(`
		SELECT
			COUNT(*) as total_slides,
			COALESCE(SUM(CASE WHEN caption THEN 1 ELSE 0 END), 0) as annotations
		FROM slides
		WHERE deck_id = ?
	`, deckID).Scan(&stats.TotalSlides, &stats.Annotations)
	if err != nil {
		return nil, fmt.Errorf("querying slide stats for %s: %w", deckID, err)
	}

	err = s.db.QueryRow(`
		SELECT
			COUNT(*) as transitions,
			COALESCE(SUM(CASE WHEN manual THEN 1 ELSE 0 END), 0) as manual_advances,
			MAX(timestamp) as last_played
		FROM transitions
		WHERE deck_id = ?
	`, deckID).Scan(&stats.Transitions, &stats.ManualAdvances, &stats.LastPlayedAt)
	if err != nil {
		return nil, fmt.Errorf("querying transition stats for %s: %w", deckID, err)
	}

	return stats, nil
}

// Close closes prepared statements and the connection pool.
func (s *DBService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stmts := []*sql.Stmt{s.stmtInsertDeck, s.stmtInsertSlide, s.stmtInsertTransition}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}

	return s.db.Close()
}

// ============================================================
// Scan Helpers
// ============================================================

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDeck(row rowScanner) (*Deck, error) {
	d := &Deck{}
	if err := row.Scan(&d.DeckID, &d.Title, &d.IntervalMs, &d.FadeMs,
		&d.Policy, &d.SourcePath, &d.CreatedAt, &d.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning deck row: %w", err)
	}
	return d, nil
}

func scanSlides(rows *sql.Rows) ([]*Slide, error) {
	var slides []*Slide
	for rows.Next() {
		sl := &Slide{}
		if err := rows.Scan(&sl.DeckID, &sl.Position, &sl.Title,
			&sl.Body, &sl.Caption, &sl.Accent); err != nil {
			return nil, fmt.Errorf("scanning slide row: %w", err)
		}
		slides = append(slides, sl)
	}
	return slides, rows.Err()
}
