package store

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/BrunoVisnadi/taca-sociedades/pkg/standings"
)

// EnsureEdition returns the edition for year, creating it when missing.
func (s *SQLiteStore) EnsureEdition(ctx context.Context, year int, name string) (*Edition, error) {
	ed, err := s.EditionByYear(ctx, year)
	if err == nil {
		return ed, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	if name == "" {
		name = fmt.Sprintf("Taça das Sociedades %d", year)
	}
	res, err := s.db.ExecContext(ctx, "INSERT INTO editions (year, name) VALUES (?, ?)", year, name)
	if err != nil {
		return nil, fmt.Errorf("create edition %d: %w", year, err)
	}
	id, _ := res.LastInsertId()
	return &Edition{ID: id, Year: year, Name: name}, nil
}

// SetPlaceholder flags an edition registration as a non-competing placeholder
// (or clears the flag). The society is resolved by short name or name.
func (s *SQLiteStore) SetPlaceholder(ctx context.Context, editionID int64, society string, placeholder bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE edition_societies SET placeholder = ?
		WHERE edition_id = ? AND society_id IN (
			SELECT id FROM societies WHERE short_name = ? OR name = ?
		)
	`, placeholder, editionID, society, society)
	if err != nil {
		return fmt.Errorf("set placeholder %q: %w", society, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("registration %q: %w", society, ErrNotFound)
	}
	return nil
}

// ImportMembersCSV loads a member roster into an edition. Expected columns:
// full_name, kind ('debater' or 'judge'), and optionally society_short,
// society_name, email. Re-importing the same file is a no-op.
func (s *SQLiteStore) ImportMembersCSV(ctx context.Context, editionID int64, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open members csv: %w", err)
	}
	defer f.Close()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows := csv.NewReader(f)
	header, err := rows.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	col := columnIndex(header)
	if _, ok := col["full_name"]; !ok {
		return 0, fmt.Errorf("%w: members csv needs a full_name column", ErrInvalidInput)
	}
	if _, ok := col["kind"]; !ok {
		return 0, fmt.Errorf("%w: members csv needs a kind column", ErrInvalidInput)
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := rows.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read csv line %d: %w", line, err)
		}

		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		fullName := get("full_name")
		kind := strings.ToLower(get("kind"))
		if fullName == "" {
			return 0, fmt.Errorf("%w: line %d: empty full_name", ErrInvalidInput, line)
		}
		if kind != "debater" && kind != "judge" {
			return 0, fmt.Errorf("%w: line %d: kind %q", ErrInvalidInput, line, kind)
		}

		var societyID *int64
		if short, name := get("society_short"), get("society_name"); short != "" || name != "" {
			id, err := ensureSociety(ctx, tx, name, short)
			if err != nil {
				return 0, fmt.Errorf("line %d: %w", line, err)
			}
			societyID = &id
			if _, err := ensureRegistration(ctx, tx, editionID, id); err != nil {
				return 0, fmt.Errorf("line %d: %w", line, err)
			}
		}

		personID, err := ensurePerson(ctx, tx, fullName, get("email"), societyID)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		if err := ensureMember(ctx, tx, editionID, personID, kind); err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit members import: %w", err)
	}
	return imported, nil
}

// ImportPairingsCSV loads round/debate pairings into an edition. Expected
// columns: round, debate, og, oo, cg, co (society short names), and
// optionally silent ('1'/'true'). Societies are created and registered as
// needed; re-importing updates positions in place.
func (s *SQLiteStore) ImportPairingsCSV(ctx context.Context, editionID int64, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open pairings csv: %w", err)
	}
	defer f.Close()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows := csv.NewReader(f)
	header, err := rows.Read()
	if err != nil {
		return 0, fmt.Errorf("read csv header: %w", err)
	}
	col := columnIndex(header)
	for _, required := range []string{"round", "debate", "og", "oo", "cg", "co"} {
		if _, ok := col[required]; !ok {
			return 0, fmt.Errorf("%w: pairings csv needs a %s column", ErrInvalidInput, required)
		}
	}

	imported := 0
	for line := 2; ; line++ {
		record, err := rows.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("read csv line %d: %w", line, err)
		}

		get := func(name string) string {
			i, ok := col[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		roundNum, err := strconv.Atoi(get("round"))
		if err != nil {
			return 0, fmt.Errorf("%w: line %d: round %q", ErrInvalidInput, line, get("round"))
		}
		debateNum, err := strconv.Atoi(get("debate"))
		if err != nil {
			return 0, fmt.Errorf("%w: line %d: debate %q", ErrInvalidInput, line, get("debate"))
		}
		silent := false
		if v := strings.ToLower(get("silent")); v == "1" || v == "true" || v == "yes" {
			silent = true
		}

		roundID, err := ensureRound(ctx, tx, editionID, roundNum, silent)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}
		debateID, err := ensureDebate(ctx, tx, roundID, debateNum)
		if err != nil {
			return 0, fmt.Errorf("line %d: %w", line, err)
		}

		for _, side := range standings.Sides() {
			ref := get(strings.ToLower(string(side)))
			if ref == "" {
				return 0, fmt.Errorf("%w: line %d: empty %s team", ErrInvalidInput, line, side)
			}
			societyID, err := ensureSociety(ctx, tx, ref, ref)
			if err != nil {
				return 0, fmt.Errorf("line %d: %w", line, err)
			}
			teamID, err := ensureRegistration(ctx, tx, editionID, societyID)
			if err != nil {
				return 0, fmt.Errorf("line %d: %w", line, err)
			}
			if err := upsertPosition(ctx, tx, debateID, string(side), teamID); err != nil {
				return 0, fmt.Errorf("line %d: %w", line, err)
			}
		}
		imported++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit pairings import: %w", err)
	}
	return imported, nil
}

func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return col
}

// ensureSociety resolves a society by short name, then by name, creating it
// when missing.
func ensureSociety(ctx context.Context, tx *sqlx.Tx, name, short string) (int64, error) {
	if short != "" {
		var id int64
		err := tx.GetContext(ctx, &id, "SELECT id FROM societies WHERE short_name = ?", short)
		if err == nil {
			return id, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("lookup society %q: %w", short, err)
		}
	}
	if name == "" {
		name = short
	}
	var id int64
	err := tx.GetContext(ctx, &id, "SELECT id FROM societies WHERE name = ?", name)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup society %q: %w", name, err)
	}

	var shortVal any
	if short != "" {
		shortVal = short
	}
	res, err := tx.ExecContext(ctx, "INSERT INTO societies (name, short_name) VALUES (?, ?)", name, shortVal)
	if err != nil {
		return 0, fmt.Errorf("create society %q: %w", name, err)
	}
	id, _ = res.LastInsertId()
	return id, nil
}

func ensurePerson(ctx context.Context, tx *sqlx.Tx, fullName, email string, societyID *int64) (int64, error) {
	var id int64
	var err error
	if societyID != nil {
		err = tx.GetContext(ctx, &id, "SELECT id FROM persons WHERE full_name = ? AND society_id = ?", fullName, *societyID)
	} else {
		err = tx.GetContext(ctx, &id, "SELECT id FROM persons WHERE full_name = ? AND society_id IS NULL", fullName)
	}
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup person %q: %w", fullName, err)
	}

	var emailVal any
	if email != "" {
		emailVal = email
	}
	var societyVal any
	if societyID != nil {
		societyVal = *societyID
	}
	res, err := tx.ExecContext(ctx, "INSERT INTO persons (full_name, email, society_id) VALUES (?, ?, ?)", fullName, emailVal, societyVal)
	if err != nil {
		return 0, fmt.Errorf("create person %q: %w", fullName, err)
	}
	id, _ = res.LastInsertId()
	return id, nil
}

func ensureMember(ctx context.Context, tx *sqlx.Tx, editionID, personID int64, kind string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO edition_members (edition_id, person_id, kind) VALUES (?, ?, ?)
		ON CONFLICT(edition_id, person_id, kind) DO NOTHING
	`, editionID, personID, kind)
	if err != nil {
		return fmt.Errorf("register member %d: %w", personID, err)
	}
	return nil
}

func ensureRegistration(ctx context.Context, tx *sqlx.Tx, editionID, societyID int64) (int64, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO edition_societies (edition_id, society_id) VALUES (?, ?)
		ON CONFLICT(edition_id, society_id) DO NOTHING
	`, editionID, societyID)
	if err != nil {
		return 0, fmt.Errorf("register society %d: %w", societyID, err)
	}
	var id int64
	err = tx.GetContext(ctx, &id, "SELECT id FROM edition_societies WHERE edition_id = ? AND society_id = ?", editionID, societyID)
	if err != nil {
		return 0, fmt.Errorf("lookup registration: %w", err)
	}
	return id, nil
}

func ensureRound(ctx context.Context, tx *sqlx.Tx, editionID int64, number int, silent bool) (int64, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO rounds (edition_id, number, silent) VALUES (?, ?, ?)
		ON CONFLICT(edition_id, number) DO NOTHING
	`, editionID, number, silent)
	if err != nil {
		return 0, fmt.Errorf("create round %d: %w", number, err)
	}
	var id int64
	err = tx.GetContext(ctx, &id, "SELECT id FROM rounds WHERE edition_id = ? AND number = ?", editionID, number)
	if err != nil {
		return 0, fmt.Errorf("lookup round %d: %w", number, err)
	}
	return id, nil
}

func ensureDebate(ctx context.Context, tx *sqlx.Tx, roundID int64, number int) (int64, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO debates (round_id, number_in_round) VALUES (?, ?)
		ON CONFLICT(round_id, number_in_round) DO NOTHING
	`, roundID, number)
	if err != nil {
		return 0, fmt.Errorf("create debate %d: %w", number, err)
	}
	var id int64
	err = tx.GetContext(ctx, &id, "SELECT id FROM debates WHERE round_id = ? AND number_in_round = ?", roundID, number)
	if err != nil {
		return 0, fmt.Errorf("lookup debate %d: %w", number, err)
	}
	return id, nil
}

func upsertPosition(ctx context.Context, tx *sqlx.Tx, debateID int64, position string, teamID int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO debate_positions (debate_id, position, edition_society_id) VALUES (?, ?, ?)
		ON CONFLICT(debate_id, position) DO UPDATE SET edition_society_id = excluded.edition_society_id
	`, debateID, position, teamID)
	if err != nil {
		return fmt.Errorf("assign %s: %w", position, err)
	}
	return nil
}
