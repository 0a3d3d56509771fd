package standings

import (
	"errors"
	"log/slog"
	"sort"
)

// ErrEditionNotFound reports an edition identifier that does not resolve.
var ErrEditionNotFound = errors.New("edition not found")

// Points awarded per debate by rank (1st through 4th).
var pointsByRank = [4]int{3, 2, 1, 0}

// Row is one society's line in the edition standings table.
type Row struct {
	SocietyID     int64  `json:"society_id"`
	ShortName     string `json:"short_name"`
	Points        int    `json:"points"`
	SpeakerPoints int    `json:"speaker_points"`
	Firsts        int    `json:"firsts"`
	Seconds       int    `json:"seconds"`
	Debates       int    `json:"debates"`
}

// ComputeStandings builds the ordered society standings table from an edition
// snapshot.
//
// Silent rounds are skipped entirely. A debate counts only when all four sides
// are assigned and each side holds exactly two in-range scores; anything less
// is a normal data state and is passed over. A malformed debate is logged and
// skipped so the rest of the edition still computes. Speaker points accrue
// only from rounds whose scores are published; points, firsts, seconds and
// debate counts accrue regardless.
//
// The result is ordered by points desc, speaker points desc, firsts desc,
// seconds desc, short name asc. Every eligible registration appears, even
// with zero debates.
func ComputeStandings(snap *Snapshot) []Row {
	byTeam := make(map[int64]*Row, len(snap.Registrations))
	for _, reg := range snap.Registrations {
		if reg.Placeholder {
			continue
		}
		byTeam[reg.TeamID] = &Row{
			SocietyID: reg.SocietyID,
			ShortName: reg.ShortName,
		}
	}

	for _, round := range snap.Rounds {
		if round.Silent {
			continue
		}
		for _, debate := range round.Debates {
			res, err := ComputeDebateResult(debate.Positions, debate.scores())
			if err != nil {
				slog.Warn("skipping malformed debate",
					"edition", snap.Year, "round", round.Number,
					"debate", debate.Number, "err", err)
				continue
			}
			if !complete(res) {
				continue
			}

			for _, pos := range debate.Positions {
				row, ok := byTeam[pos.TeamID]
				if !ok {
					// Placeholder team: its result still shaped the
					// debate but earns nothing in the table.
					continue
				}
				row.Debates++
				if round.ScoresPublished {
					row.SpeakerPoints += *res.Totals[pos.Side]
				}
				rank := res.Ranks[pos.Side]
				row.Points += pointsByRank[rank-1]
				switch rank {
				case 1:
					row.Firsts++
				case 2:
					row.Seconds++
				}
			}
		}
	}

	rows := make([]Row, 0, len(byTeam))
	for _, row := range byTeam {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.SpeakerPoints != b.SpeakerPoints {
			return a.SpeakerPoints > b.SpeakerPoints
		}
		if a.Firsts != b.Firsts {
			return a.Firsts > b.Firsts
		}
		if a.Seconds != b.Seconds {
			return a.Seconds > b.Seconds
		}
		return a.ShortName < b.ShortName
	})
	return rows
}

// complete reports whether every side of a computed result has a defined
// total, i.e. the debate is fully scored.
func complete(res DebateResult) bool {
	for _, side := range Sides() {
		if res.Totals[side] == nil {
			return false
		}
	}
	return true
}
