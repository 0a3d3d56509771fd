package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/BrunoVisnadi/taca-sociedades/pkg/standings"
)

// ErrNotFound reports a row that does not exist.
var ErrNotFound = errors.New("not found")

// ErrInvalidInput reports a write rejected by validation (wrong member kind,
// out-of-range score, duplicate judges, ...).
var ErrInvalidInput = errors.New("invalid input")

// Edition is one year of the tournament.
type Edition struct {
	ID   int64  `db:"id"`
	Year int    `db:"year"`
	Name string `db:"name"`
}

// RoundStatus is a round together with its score-entry completion state.
type RoundStatus struct {
	ID        int64  `db:"id" json:"id"`
	Number    int    `db:"number" json:"number"`
	Name      string `db:"name" json:"name,omitempty"`
	Silent    bool   `db:"silent" json:"silent"`
	Published bool   `db:"scores_published" json:"scores_published"`
	Completed bool   `db:"-" json:"completed"`
}

// DebateStatus is a debate together with its score-entry completion state.
type DebateStatus struct {
	ID        int64 `db:"id" json:"id"`
	Number    int   `db:"number_in_round" json:"number_in_round"`
	Completed bool  `db:"-" json:"completed"`
}

// PositionInfo is one side of a debate with the occupying team.
type PositionInfo struct {
	Position  string `db:"position" json:"position"`
	TeamShort string `db:"team_short" json:"team_short"`
	TeamID    int64  `db:"team_id" json:"edition_society_id"`
}

// MemberInfo is an edition member eligible for a speech or judging slot.
type MemberInfo struct {
	ID      int64  `db:"id" json:"edition_member_id"`
	Name    string `db:"full_name" json:"name"`
	Society string `db:"society" json:"soc"`
}

// DebateDetail feeds the score-entry form: positions in display order plus the
// eligible debaters and judges. Judges from a society debating in this debate
// are excluded.
type DebateDetail struct {
	Positions []PositionInfo `json:"positions"`
	Debaters  []MemberInfo   `json:"debaters"`
	Judges    []MemberInfo   `json:"judges"`
}

// SpeechEntry carries both speeches of one side for a result submission.
type SpeechEntry struct {
	Position string `json:"position"`
	S1Member int64  `json:"s1_id"`
	S1Score  int    `json:"s1_score"`
	S2Member int64  `json:"s2_id"`
	S2Score  int    `json:"s2_score"`
}

// JudgesEntry carries the judging panel for a result submission.
type JudgesEntry struct {
	Chair int64   `json:"chair"`
	Wings []int64 `json:"wings"`
}

// ResultEntry is a full score submission for one debate.
type ResultEntry struct {
	Speeches []SpeechEntry `json:"speeches"`
	Judges   JudgesEntry   `json:"judges"`
}

// Store is the persistence interface.
type Store interface {
	CurrentEdition(ctx context.Context) (*Edition, error)
	EditionByYear(ctx context.Context, year int) (*Edition, error)
	EditionSnapshot(ctx context.Context, year int) (*standings.Snapshot, error)

	RoundStatuses(ctx context.Context, editionID int64) ([]RoundStatus, error)
	DebateStatuses(ctx context.Context, roundID int64) ([]DebateStatus, error)
	DebateDetail(ctx context.Context, debateID int64) (*DebateDetail, error)
	SaveDebateResult(ctx context.Context, debateID int64, entry ResultEntry) error

	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CurrentEdition returns the edition with the highest year.
func (s *SQLiteStore) CurrentEdition(ctx context.Context) (*Edition, error) {
	var ed Edition
	err := s.db.GetContext(ctx, &ed, "SELECT * FROM editions ORDER BY year DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("current edition: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("current edition: %w", err)
	}
	return &ed, nil
}

func (s *SQLiteStore) EditionByYear(ctx context.Context, year int) (*Edition, error) {
	var ed Edition
	err := s.db.GetContext(ctx, &ed, "SELECT * FROM editions WHERE year = ?", year)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("edition %d: %w", year, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("edition %d: %w", year, err)
	}
	return &ed, nil
}

// SetRoundFlags updates a round's silent and scores_published flags.
func (s *SQLiteStore) SetRoundFlags(ctx context.Context, editionID int64, roundNumber int, silent, published bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE rounds SET silent = ?, scores_published = ?
		WHERE edition_id = ? AND number = ?
	`, silent, published, editionID, roundNumber)
	if err != nil {
		return fmt.Errorf("set round %d flags: %w", roundNumber, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("round %d: %w", roundNumber, ErrNotFound)
	}
	return nil
}
