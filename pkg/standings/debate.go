package standings

import (
	"errors"
	"fmt"
	"sort"
)

// Speech scores are integers in [MinScore, MaxScore]; anything outside the
// range is treated as unscored.
const (
	MinScore = 50
	MaxScore = 100
)

// SpeechesPerTeam is the number of scored speeches each side delivers.
const SpeechesPerTeam = 2

// ErrInvalidDebateShape reports malformed debate input: the four sides are not
// distinct, a side has more than two speeches, or a sequence number is outside
// {1, 2}.
var ErrInvalidDebateShape = errors.New("invalid debate shape")

// Assignment maps a side to the edition-scoped team occupying it.
type Assignment struct {
	Side   Side
	TeamID int64
}

// SpeechScore is one speech slot of a debate. A nil Score means unscored.
type SpeechScore struct {
	Side  Side
	Seq   int
	Score *int
}

// DebateResult holds per-side team totals and ranks for one debate.
// A side's total is nil unless both of its speeches carry an in-range score.
type DebateResult struct {
	Totals map[Side]*int
	Ranks  map[Side]int
}

// ComputeDebateResult computes team totals and ranks 1..4 for one debate from
// its four position assignments and up to eight speech slots.
//
// Sides are ranked by total descending; sides without a defined total sort
// last. Equal totals (and incomplete sides among themselves) are ordered by
// the fixed side order OG, OO, CG, CO.
func ComputeDebateResult(positions []Assignment, speeches []SpeechScore) (DebateResult, error) {
	if len(positions) != len(sideOrder) {
		return DebateResult{}, fmt.Errorf("%w: got %d position assignments, want %d", ErrInvalidDebateShape, len(positions), len(sideOrder))
	}
	seen := make(map[Side]bool, len(positions))
	for _, p := range positions {
		if !p.Side.Valid() {
			return DebateResult{}, fmt.Errorf("%w: unknown side %q", ErrInvalidDebateShape, p.Side)
		}
		if seen[p.Side] {
			return DebateResult{}, fmt.Errorf("%w: side %s assigned twice", ErrInvalidDebateShape, p.Side)
		}
		seen[p.Side] = true
	}

	// Slot speeches per (side, seq), rejecting duplicates and bad sequences.
	type slotKey struct {
		side Side
		seq  int
	}
	slots := make(map[slotKey]*int, len(speeches))
	for _, sp := range speeches {
		if !sp.Side.Valid() || !seen[sp.Side] {
			return DebateResult{}, fmt.Errorf("%w: speech for unassigned side %q", ErrInvalidDebateShape, sp.Side)
		}
		if sp.Seq < 1 || sp.Seq > SpeechesPerTeam {
			return DebateResult{}, fmt.Errorf("%w: sequence %d for side %s", ErrInvalidDebateShape, sp.Seq, sp.Side)
		}
		k := slotKey{sp.Side, sp.Seq}
		if _, dup := slots[k]; dup {
			return DebateResult{}, fmt.Errorf("%w: duplicate speech %d for side %s", ErrInvalidDebateShape, sp.Seq, sp.Side)
		}
		slots[k] = sp.Score
	}

	totals := make(map[Side]*int, len(sideOrder))
	for _, side := range sideOrder {
		totals[side] = sideTotal(slots[slotKey{side, 1}], slots[slotKey{side, 2}])
	}

	ordered := sideOrder
	sort.SliceStable(ordered[:], func(i, j int) bool {
		ti, tj := totals[ordered[i]], totals[ordered[j]]
		switch {
		case ti != nil && tj != nil && *ti != *tj:
			return *ti > *tj
		case ti != nil && tj == nil:
			return true
		case ti == nil && tj != nil:
			return false
		default:
			return ordered[i].order() < ordered[j].order()
		}
	})

	ranks := make(map[Side]int, len(ordered))
	for i, side := range ordered {
		ranks[side] = i + 1
	}

	return DebateResult{Totals: totals, Ranks: ranks}, nil
}

// sideTotal sums two speech scores, or returns nil when either is missing or
// out of range.
func sideTotal(s1, s2 *int) *int {
	if !scored(s1) || !scored(s2) {
		return nil
	}
	total := *s1 + *s2
	return &total
}

func scored(s *int) bool {
	return s != nil && *s >= MinScore && *s <= MaxScore
}
