package standings

import (
	"context"
	"fmt"
	"sort"
)

// SnapshotSource supplies consistent edition snapshots. The storage layer
// implements it; year <= 0 selects the current (latest) edition.
type SnapshotSource interface {
	EditionSnapshot(ctx context.Context, year int) (*Snapshot, error)
}

// Engine answers standings, results and pairings queries for an edition.
// It holds no state across calls: every query loads a fresh snapshot and
// aggregates from scratch, so score edits are always reflected.
type Engine struct {
	src SnapshotSource
}

// NewEngine creates an aggregation engine over a snapshot source.
func NewEngine(src SnapshotSource) *Engine {
	return &Engine{src: src}
}

// EditionStandings returns the ordered standings table for the given edition
// year (<= 0 for the current edition).
func (e *Engine) EditionStandings(ctx context.Context, year int) ([]Row, error) {
	snap, err := e.src.EditionSnapshot(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("load edition snapshot: %w", err)
	}
	return ComputeStandings(snap), nil
}

// RoundResults is one fully scored round in the public results listing.
type RoundResults struct {
	Number    int          `json:"number"`
	Name      string       `json:"name,omitempty"`
	Date      string       `json:"date,omitempty"`
	Motion    string       `json:"motion,omitempty"`
	Infoslide string       `json:"infoslide,omitempty"`
	Published bool         `json:"scores_published"`
	Debates   []DebateView `json:"debates"`
}

// DebateView is one debate's public result: teams in display order with
// ranks, totals and speeches, plus the judging panel.
type DebateView struct {
	Number int        `json:"number"`
	Teams  []TeamView `json:"teams"`
	Chair  string     `json:"chair,omitempty"`
	Wings  []string   `json:"wings,omitempty"`
}

// TeamView is one side of a debate in the results listing. Total and speech
// scores are nil while the round's scores are unpublished.
type TeamView struct {
	Side     Side         `json:"side"`
	Team     string       `json:"team"`
	Rank     int          `json:"rank"`
	Total    *int         `json:"total"`
	Speeches []SpeechView `json:"speeches"`
}

// SpeechView is one speech in the results listing.
type SpeechView struct {
	Seq     int    `json:"seq"`
	Speaker string `json:"speaker"`
	Score   *int   `json:"score"`
}

// EditionResults returns the public per-round results listing: non-silent
// rounds where every debate is fully scored. Rounds whose scores are not yet
// published expose ranks but hide scores and totals.
func (e *Engine) EditionResults(ctx context.Context, year int) ([]RoundResults, error) {
	snap, err := e.src.EditionSnapshot(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("load edition snapshot: %w", err)
	}

	names := snap.shortNames()
	var rounds []RoundResults
	for _, round := range snap.Rounds {
		if round.Silent || len(round.Debates) == 0 {
			continue
		}

		views := make([]DebateView, 0, len(round.Debates))
		allScored := true
		for _, debate := range round.Debates {
			res, err := ComputeDebateResult(debate.Positions, debate.scores())
			if err != nil || !complete(res) {
				allScored = false
				break
			}
			views = append(views, debateView(debate, res, names, round.ScoresPublished))
		}
		if !allScored {
			continue
		}

		rounds = append(rounds, RoundResults{
			Number:    round.Number,
			Name:      round.Name,
			Date:      round.Date,
			Motion:    round.Motion,
			Infoslide: round.Infoslide,
			Published: round.ScoresPublished,
			Debates:   views,
		})
	}
	return rounds, nil
}

func debateView(debate DebateData, res DebateResult, names map[int64]string, published bool) DebateView {
	teamBySide := make(map[Side]int64, len(debate.Positions))
	for _, pos := range debate.Positions {
		teamBySide[pos.Side] = pos.TeamID
	}

	view := DebateView{Number: debate.Number}
	for _, side := range Sides() {
		team := TeamView{
			Side: side,
			Team: names[teamBySide[side]],
			Rank: res.Ranks[side],
		}
		if published {
			team.Total = res.Totals[side]
		}
		for _, sp := range debate.Speeches {
			if sp.Side != side {
				continue
			}
			sv := SpeechView{Seq: sp.Seq, Speaker: sp.Speaker}
			if published {
				sv.Score = sp.Score
			}
			team.Speeches = append(team.Speeches, sv)
		}
		sortSpeeches(team.Speeches)
		view.Teams = append(view.Teams, team)
	}

	for _, j := range debate.Judges {
		label := j.Name
		if j.Society != "" {
			label = j.Name + " (" + j.Society + ")"
		}
		if j.Role == "chair" {
			view.Chair = label
		} else {
			view.Wings = append(view.Wings, label)
		}
	}
	return view
}

func sortSpeeches(speeches []SpeechView) {
	sort.Slice(speeches, func(i, j int) bool {
		return speeches[i].Seq < speeches[j].Seq
	})
}

// RoundPairings lists the matchups of one not-yet-debated round.
type RoundPairings struct {
	Number  int             `json:"number"`
	Date    string          `json:"date,omitempty"`
	Debates []DebatePairing `json:"debates"`
}

// DebatePairing is one debate's side-to-team assignment.
type DebatePairing struct {
	Number int    `json:"number"`
	OG     string `json:"OG"`
	OO     string `json:"OO"`
	CG     string `json:"CG"`
	CO     string `json:"CO"`
}

// Pairings returns the matchups of every round that has no recorded speeches
// yet.
func (e *Engine) Pairings(ctx context.Context, year int) ([]RoundPairings, error) {
	snap, err := e.src.EditionSnapshot(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("load edition snapshot: %w", err)
	}

	names := snap.shortNames()
	var rounds []RoundPairings
	for _, round := range snap.Rounds {
		if roundSpeechCount(round) > 0 {
			continue
		}
		rounds = append(rounds, roundPairings(round, names))
	}
	return rounds, nil
}

// NextPairings returns the first round with no recorded score, or nil when
// every round already has results.
func (e *Engine) NextPairings(ctx context.Context, year int) (*RoundPairings, error) {
	snap, err := e.src.EditionSnapshot(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("load edition snapshot: %w", err)
	}

	names := snap.shortNames()
	for _, round := range snap.Rounds {
		if roundScoredCount(round) > 0 {
			continue
		}
		rp := roundPairings(round, names)
		return &rp, nil
	}
	return nil, nil
}

func roundPairings(round RoundData, names map[int64]string) RoundPairings {
	rp := RoundPairings{Number: round.Number, Date: round.Date}
	for _, debate := range round.Debates {
		pairing := DebatePairing{Number: debate.Number}
		for _, pos := range debate.Positions {
			name := names[pos.TeamID]
			switch pos.Side {
			case SideOG:
				pairing.OG = name
			case SideOO:
				pairing.OO = name
			case SideCG:
				pairing.CG = name
			case SideCO:
				pairing.CO = name
			}
		}
		rp.Debates = append(rp.Debates, pairing)
	}
	return rp
}

func roundSpeechCount(round RoundData) int {
	n := 0
	for _, d := range round.Debates {
		n += len(d.Speeches)
	}
	return n
}

func roundScoredCount(round RoundData) int {
	n := 0
	for _, d := range round.Debates {
		for _, sp := range d.Speeches {
			if sp.Score != nil {
				n++
			}
		}
	}
	return n
}
