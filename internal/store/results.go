package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/BrunoVisnadi/taca-sociedades/pkg/standings"
)

// speechesPerDebate is the number of speech slots a fully entered debate
// holds (four sides, two speeches each).
const speechesPerDebate = 4 * standings.SpeechesPerTeam

// RoundStatuses lists an edition's rounds with their score-entry completion
// state: a round is completed when it has at least one debate and every
// debate has all eight speeches entered.
func (s *SQLiteStore) RoundStatuses(ctx context.Context, editionID int64) ([]RoundStatus, error) {
	var rounds []RoundStatus
	err := s.db.SelectContext(ctx, &rounds, `
		SELECT id, number, COALESCE(name, '') AS name, silent, scores_published
		FROM rounds WHERE edition_id = ? ORDER BY number
	`, editionID)
	if err != nil {
		return nil, fmt.Errorf("list rounds: %w", err)
	}

	type countRow struct {
		RoundID int64 `db:"round_id"`
		Count   int   `db:"cnt"`
	}
	var counts []countRow
	err = s.db.SelectContext(ctx, &counts, `
		SELECT d.round_id, COUNT(sp.id) AS cnt
		FROM debates d
		LEFT JOIN speeches sp ON sp.debate_id = d.id
		JOIN rounds r ON r.id = d.round_id
		WHERE r.edition_id = ?
		GROUP BY d.id
	`, editionID)
	if err != nil {
		return nil, fmt.Errorf("count speeches: %w", err)
	}

	done := make(map[int64][]bool)
	for _, c := range counts {
		done[c.RoundID] = append(done[c.RoundID], c.Count >= speechesPerDebate)
	}
	for i := range rounds {
		flags := done[rounds[i].ID]
		completed := len(flags) > 0
		for _, f := range flags {
			completed = completed && f
		}
		rounds[i].Completed = completed
	}
	return rounds, nil
}

// DebateStatuses lists a round's debates with their completion state.
func (s *SQLiteStore) DebateStatuses(ctx context.Context, roundID int64) ([]DebateStatus, error) {
	type row struct {
		ID     int64 `db:"id"`
		Number int   `db:"number_in_round"`
		Count  int   `db:"cnt"`
	}
	var rows []row
	err := s.db.SelectContext(ctx, &rows, `
		SELECT d.id, d.number_in_round, COUNT(sp.id) AS cnt
		FROM debates d
		LEFT JOIN speeches sp ON sp.debate_id = d.id
		WHERE d.round_id = ?
		GROUP BY d.id
		ORDER BY d.number_in_round
	`, roundID)
	if err != nil {
		return nil, fmt.Errorf("list debates for round %d: %w", roundID, err)
	}

	statuses := make([]DebateStatus, len(rows))
	for i, r := range rows {
		statuses[i] = DebateStatus{ID: r.ID, Number: r.Number, Completed: r.Count >= speechesPerDebate}
	}
	return statuses, nil
}

// DebateDetail returns a debate's positions plus the edition members eligible
// to fill its speech and judging slots. Judges belonging to a society debating
// in this debate are excluded.
func (s *SQLiteStore) DebateDetail(ctx context.Context, debateID int64) (*DebateDetail, error) {
	editionID, err := s.debateEdition(ctx, s.db, debateID)
	if err != nil {
		return nil, err
	}

	detail := &DebateDetail{}
	err = s.db.SelectContext(ctx, &detail.Positions, `
		SELECT dp.position,
		       COALESCE(s.short_name, '') AS team_short,
		       es.id AS team_id
		FROM debate_positions dp
		JOIN edition_societies es ON es.id = dp.edition_society_id
		JOIN societies s ON s.id = es.society_id
		WHERE dp.debate_id = ?
		ORDER BY CASE dp.position
			WHEN 'OG' THEN 1 WHEN 'OO' THEN 2 WHEN 'CG' THEN 3 WHEN 'CO' THEN 4 ELSE 99 END
	`, debateID)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}

	err = s.db.SelectContext(ctx, &detail.Debaters, `
		SELECT em.id, p.full_name, COALESCE(s.short_name, '') AS society
		FROM edition_members em
		JOIN persons p ON p.id = em.person_id
		LEFT JOIN societies s ON s.id = p.society_id
		WHERE em.edition_id = ? AND em.kind = 'debater'
		ORDER BY society, p.full_name
	`, editionID)
	if err != nil {
		return nil, fmt.Errorf("load debaters: %w", err)
	}

	err = s.db.SelectContext(ctx, &detail.Judges, `
		SELECT em.id, p.full_name, COALESCE(s.short_name, '') AS society
		FROM edition_members em
		JOIN persons p ON p.id = em.person_id
		LEFT JOIN societies s ON s.id = p.society_id
		WHERE em.edition_id = ? AND em.kind = 'judge'
		  AND (p.society_id IS NULL OR p.society_id NOT IN (
			SELECT es.society_id
			FROM debate_positions dp
			JOIN edition_societies es ON es.id = dp.edition_society_id
			WHERE dp.debate_id = ?
		  ))
		ORDER BY society, p.full_name
	`, editionID, debateID)
	if err != nil {
		return nil, fmt.Errorf("load judges: %w", err)
	}

	return detail, nil
}

// SaveDebateResult validates and upserts a debate's speeches and judging
// panel in one transaction. Speech slots are keyed by (position, sequence),
// so re-submitting overwrites earlier entries.
func (s *SQLiteStore) SaveDebateResult(ctx context.Context, debateID int64, entry ResultEntry) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	editionID, err := s.debateEdition(ctx, tx, debateID)
	if err != nil {
		return err
	}

	for _, sp := range entry.Speeches {
		if !standings.Side(sp.Position).Valid() {
			return fmt.Errorf("%w: position %q", ErrInvalidInput, sp.Position)
		}
		for _, member := range []int64{sp.S1Member, sp.S2Member} {
			ok, err := memberHasKind(ctx, tx, editionID, member, "debater")
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: member %d is not a debater of this edition", ErrInvalidInput, member)
			}
		}
		for _, score := range []int{sp.S1Score, sp.S2Score} {
			if score < standings.MinScore || score > standings.MaxScore {
				return fmt.Errorf("%w: score %d out of range for %s", ErrInvalidInput, score, sp.Position)
			}
		}

		slots := [standings.SpeechesPerTeam]struct {
			member int64
			score  int
		}{{sp.S1Member, sp.S1Score}, {sp.S2Member, sp.S2Score}}
		for i, slot := range slots {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO speeches (debate_id, position, sequence_in_team, edition_member_id, score)
				VALUES (?, ?, ?, ?, ?)
				ON CONFLICT(debate_id, position, sequence_in_team) DO UPDATE SET
					edition_member_id = excluded.edition_member_id,
					score = excluded.score
			`, debateID, sp.Position, i+1, slot.member, slot.score)
			if err != nil {
				return fmt.Errorf("upsert speech %s/%d: %w", sp.Position, i+1, err)
			}
		}
	}

	if err := s.saveJudges(ctx, tx, editionID, debateID, entry.Judges); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit results: %w", err)
	}
	return nil
}

func (s *SQLiteStore) saveJudges(ctx context.Context, tx *sqlx.Tx, editionID, debateID int64, judges JudgesEntry) error {
	if len(judges.Wings) > 2 {
		return fmt.Errorf("%w: at most 2 wings", ErrInvalidInput)
	}

	var panel []int64
	if judges.Chair != 0 {
		panel = append(panel, judges.Chair)
	}
	panel = append(panel, judges.Wings...)

	seen := make(map[int64]bool, len(panel))
	for _, id := range panel {
		if seen[id] {
			return fmt.Errorf("%w: duplicate judge %d", ErrInvalidInput, id)
		}
		seen[id] = true

		ok, err := memberHasKind(ctx, tx, editionID, id, "judge")
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: member %d is not a judge of this edition", ErrInvalidInput, id)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM debate_judges WHERE debate_id = ?", debateID); err != nil {
		return fmt.Errorf("clear judges: %w", err)
	}
	if judges.Chair != 0 {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO debate_judges (debate_id, edition_member_id, role) VALUES (?, ?, 'chair')
		`, debateID, judges.Chair); err != nil {
			return fmt.Errorf("insert chair: %w", err)
		}
	}
	for _, wing := range judges.Wings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO debate_judges (debate_id, edition_member_id, role) VALUES (?, ?, 'wing')
		`, debateID, wing); err != nil {
			return fmt.Errorf("insert wing: %w", err)
		}
	}
	return nil
}

// debateEdition resolves a debate to its edition, or ErrNotFound.
func (s *SQLiteStore) debateEdition(ctx context.Context, q sqlx.QueryerContext, debateID int64) (int64, error) {
	var editionID int64
	err := sqlx.GetContext(ctx, q, &editionID, `
		SELECT r.edition_id FROM rounds r
		JOIN debates d ON d.round_id = r.id
		WHERE d.id = ?
	`, debateID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("debate %d: %w", debateID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("resolve debate %d: %w", debateID, err)
	}
	return editionID, nil
}

func memberHasKind(ctx context.Context, tx *sqlx.Tx, editionID, memberID int64, kind string) (bool, error) {
	if memberID == 0 {
		return false, nil
	}
	var n int
	err := tx.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM edition_members
		WHERE id = ? AND edition_id = ? AND kind = ?
	`, memberID, editionID, kind)
	if err != nil {
		return false, fmt.Errorf("check member %d: %w", memberID, err)
	}
	return n > 0, nil
}
