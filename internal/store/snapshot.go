package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/BrunoVisnadi/taca-sociedades/pkg/standings"
)

// EditionSnapshot loads one edition's rounds, debates, positions, speeches and
// registrations in a single read transaction, so the aggregators always see a
// consistent view. year <= 0 selects the current edition. Returns
// standings.ErrEditionNotFound when the edition does not resolve.
func (s *SQLiteStore) EditionSnapshot(ctx context.Context, year int) (*standings.Snapshot, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer tx.Rollback()

	var ed Edition
	if year <= 0 {
		err = tx.GetContext(ctx, &ed, "SELECT * FROM editions ORDER BY year DESC LIMIT 1")
	} else {
		err = tx.GetContext(ctx, &ed, "SELECT * FROM editions WHERE year = ?", year)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("edition %d: %w", year, standings.ErrEditionNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load edition: %w", err)
	}

	snap := &standings.Snapshot{EditionID: ed.ID, Year: ed.Year}

	type regRow struct {
		TeamID      int64          `db:"team_id"`
		SocietyID   int64          `db:"society_id"`
		ShortName   sql.NullString `db:"short_name"`
		Placeholder bool           `db:"placeholder"`
	}
	var regs []regRow
	err = tx.SelectContext(ctx, &regs, `
		SELECT es.id AS team_id, s.id AS society_id, s.short_name, es.placeholder
		FROM edition_societies es
		JOIN societies s ON s.id = es.society_id
		WHERE es.edition_id = ?
		ORDER BY es.id
	`, ed.ID)
	if err != nil {
		return nil, fmt.Errorf("load registrations: %w", err)
	}
	for _, r := range regs {
		short := strings.TrimSpace(r.ShortName.String)
		if short == "" {
			short = fmt.Sprintf("S%d", r.SocietyID)
		}
		snap.Registrations = append(snap.Registrations, standings.Registration{
			TeamID:      r.TeamID,
			SocietyID:   r.SocietyID,
			ShortName:   short,
			Placeholder: r.Placeholder,
		})
	}

	type roundRow struct {
		ID        int64          `db:"id"`
		Number    int            `db:"number"`
		Name      sql.NullString `db:"name"`
		Date      sql.NullString `db:"scheduled_date"`
		Motion    sql.NullString `db:"motion"`
		Infoslide sql.NullString `db:"infoslide"`
		Silent    bool           `db:"silent"`
		Published bool           `db:"scores_published"`
	}
	var rounds []roundRow
	err = tx.SelectContext(ctx, &rounds, `
		SELECT id, number, name, scheduled_date, motion, infoslide, silent, scores_published
		FROM rounds WHERE edition_id = ? ORDER BY number
	`, ed.ID)
	if err != nil {
		return nil, fmt.Errorf("load rounds: %w", err)
	}

	roundIdx := make(map[int64]int, len(rounds))
	for i, r := range rounds {
		roundIdx[r.ID] = i
		snap.Rounds = append(snap.Rounds, standings.RoundData{
			ID:              r.ID,
			Number:          r.Number,
			Name:            r.Name.String,
			Date:            r.Date.String,
			Motion:          r.Motion.String,
			Infoslide:       r.Infoslide.String,
			Silent:          r.Silent,
			ScoresPublished: r.Published,
		})
	}

	type debateRow struct {
		ID      int64 `db:"id"`
		RoundID int64 `db:"round_id"`
		Number  int   `db:"number_in_round"`
	}
	var debates []debateRow
	err = tx.SelectContext(ctx, &debates, `
		SELECT d.id, d.round_id, d.number_in_round
		FROM debates d
		JOIN rounds r ON r.id = d.round_id
		WHERE r.edition_id = ?
		ORDER BY r.number, d.number_in_round
	`, ed.ID)
	if err != nil {
		return nil, fmt.Errorf("load debates: %w", err)
	}

	// debate id -> (round index, debate index)
	type debateAddr struct{ round, debate int }
	debateIdx := make(map[int64]debateAddr, len(debates))
	for _, d := range debates {
		ri := roundIdx[d.RoundID]
		snap.Rounds[ri].Debates = append(snap.Rounds[ri].Debates, standings.DebateData{
			ID:     d.ID,
			Number: d.Number,
		})
		debateIdx[d.ID] = debateAddr{ri, len(snap.Rounds[ri].Debates) - 1}
	}

	type posRow struct {
		DebateID int64  `db:"debate_id"`
		Position string `db:"position"`
		TeamID   int64  `db:"edition_society_id"`
	}
	var positions []posRow
	err = tx.SelectContext(ctx, &positions, `
		SELECT dp.debate_id, dp.position, dp.edition_society_id
		FROM debate_positions dp
		JOIN debates d ON d.id = dp.debate_id
		JOIN rounds r ON r.id = d.round_id
		WHERE r.edition_id = ?
	`, ed.ID)
	if err != nil {
		return nil, fmt.Errorf("load positions: %w", err)
	}
	for _, p := range positions {
		addr, ok := debateIdx[p.DebateID]
		if !ok {
			continue
		}
		deb := &snap.Rounds[addr.round].Debates[addr.debate]
		deb.Positions = append(deb.Positions, standings.Assignment{
			Side:   standings.Side(p.Position),
			TeamID: p.TeamID,
		})
	}

	type speechRow struct {
		DebateID int64  `db:"debate_id"`
		Position string `db:"position"`
		Seq      int    `db:"sequence_in_team"`
		Score    *int   `db:"score"`
		Speaker  string `db:"full_name"`
	}
	var speeches []speechRow
	err = tx.SelectContext(ctx, &speeches, `
		SELECT sp.debate_id, sp.position, sp.sequence_in_team, sp.score, p.full_name
		FROM speeches sp
		JOIN edition_members em ON em.id = sp.edition_member_id
		JOIN persons p ON p.id = em.person_id
		JOIN debates d ON d.id = sp.debate_id
		JOIN rounds r ON r.id = d.round_id
		WHERE r.edition_id = ?
		ORDER BY sp.debate_id, sp.position, sp.sequence_in_team
	`, ed.ID)
	if err != nil {
		return nil, fmt.Errorf("load speeches: %w", err)
	}
	for _, sp := range speeches {
		addr, ok := debateIdx[sp.DebateID]
		if !ok {
			continue
		}
		deb := &snap.Rounds[addr.round].Debates[addr.debate]
		deb.Speeches = append(deb.Speeches, standings.SpeechData{
			SpeechScore: standings.SpeechScore{
				Side:  standings.Side(sp.Position),
				Seq:   sp.Seq,
				Score: sp.Score,
			},
			Speaker: sp.Speaker,
		})
	}

	type judgeRow struct {
		DebateID int64          `db:"debate_id"`
		Role     string         `db:"role"`
		Name     string         `db:"full_name"`
		Society  sql.NullString `db:"short_name"`
	}
	var judges []judgeRow
	err = tx.SelectContext(ctx, &judges, `
		SELECT dj.debate_id, dj.role, p.full_name, s.short_name
		FROM debate_judges dj
		JOIN edition_members em ON em.id = dj.edition_member_id
		JOIN persons p ON p.id = em.person_id
		LEFT JOIN societies s ON s.id = p.society_id
		JOIN debates d ON d.id = dj.debate_id
		JOIN rounds r ON r.id = d.round_id
		WHERE r.edition_id = ?
		ORDER BY dj.debate_id, dj.role, p.full_name
	`, ed.ID)
	if err != nil {
		return nil, fmt.Errorf("load judges: %w", err)
	}
	for _, j := range judges {
		addr, ok := debateIdx[j.DebateID]
		if !ok {
			continue
		}
		deb := &snap.Rounds[addr.round].Debates[addr.debate]
		deb.Judges = append(deb.Judges, standings.JudgeData{
			Role:    j.Role,
			Name:    j.Name,
			Society: strings.TrimSpace(j.Society.String),
		})
	}

	return snap, nil
}
