package standings

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves a fixed snapshot, mimicking the storage layer.
type fakeSource struct {
	snap *Snapshot
}

func (f *fakeSource) EditionSnapshot(ctx context.Context, year int) (*Snapshot, error) {
	if f.snap == nil || (year > 0 && year != f.snap.Year) {
		return nil, fmt.Errorf("edition %d: %w", year, ErrEditionNotFound)
	}
	return f.snap, nil
}

func namedScoredDebate(number int) DebateData {
	d := fullyScoredDebate(number, referenceScores())
	for i := range d.Speeches {
		d.Speeches[i].Speaker = fmt.Sprintf("Speaker %s%d", d.Speeches[i].Side, d.Speeches[i].Seq)
	}
	d.Judges = []JudgeData{
		{Role: "chair", Name: "Chair Person", Society: "Echo"},
		{Role: "wing", Name: "Wing One"},
	}
	return d
}

func TestEngine_EditionStandings(t *testing.T) {
	src := &fakeSource{snap: &Snapshot{
		Year:          2025,
		Registrations: testRegistrations(),
		Rounds: []RoundData{{
			Number:          1,
			ScoresPublished: true,
			Debates:         []DebateData{namedScoredDebate(1)},
		}},
	}}
	engine := NewEngine(src)

	rows, err := engine.EditionStandings(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Charlie", rows[0].ShortName)
}

func TestEngine_EditionNotFound(t *testing.T) {
	engine := NewEngine(&fakeSource{snap: &Snapshot{Year: 2025}})

	_, err := engine.EditionStandings(context.Background(), 1999)
	require.ErrorIs(t, err, ErrEditionNotFound)

	_, err = engine.EditionResults(context.Background(), 1999)
	require.ErrorIs(t, err, ErrEditionNotFound)
}

func TestEngine_EditionResults_Published(t *testing.T) {
	src := &fakeSource{snap: &Snapshot{
		Year:          2025,
		Registrations: testRegistrations(),
		Rounds: []RoundData{{
			Number:          1,
			Date:            "2025-03-08",
			ScoresPublished: true,
			Debates:         []DebateData{namedScoredDebate(1)},
		}},
	}}
	engine := NewEngine(src)

	rounds, err := engine.EditionResults(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, rounds, 1)

	round := rounds[0]
	assert.Equal(t, 1, round.Number)
	assert.True(t, round.Published)
	require.Len(t, round.Debates, 1)

	debate := round.Debates[0]
	require.Len(t, debate.Teams, 4)
	assert.Equal(t, SideOG, debate.Teams[0].Side, "teams in display order")
	assert.Equal(t, "Alfa", debate.Teams[0].Team)
	assert.Equal(t, 2, debate.Teams[0].Rank)
	require.NotNil(t, debate.Teams[0].Total)
	assert.Equal(t, 142, *debate.Teams[0].Total)

	require.Len(t, debate.Teams[0].Speeches, 2)
	assert.Equal(t, 1, debate.Teams[0].Speeches[0].Seq)
	assert.Equal(t, "Speaker OG1", debate.Teams[0].Speeches[0].Speaker)
	require.NotNil(t, debate.Teams[0].Speeches[0].Score)
	assert.Equal(t, 70, *debate.Teams[0].Speeches[0].Score)

	assert.Equal(t, "Chair Person (Echo)", debate.Chair)
	assert.Equal(t, []string{"Wing One"}, debate.Wings)
}

func TestEngine_EditionResults_UnpublishedHidesScores(t *testing.T) {
	src := &fakeSource{snap: &Snapshot{
		Year:          2025,
		Registrations: testRegistrations(),
		Rounds: []RoundData{{
			Number:  1,
			Debates: []DebateData{namedScoredDebate(1)},
		}},
	}}
	engine := NewEngine(src)

	rounds, err := engine.EditionResults(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.False(t, rounds[0].Published)

	for _, team := range rounds[0].Debates[0].Teams {
		assert.Nil(t, team.Total, "%s: total hidden while unpublished", team.Side)
		assert.NotZero(t, team.Rank, "%s: rank still shown", team.Side)
		for _, sp := range team.Speeches {
			assert.Nil(t, sp.Score)
			assert.NotEmpty(t, sp.Speaker)
		}
	}
}

func TestEngine_EditionResults_SkipsSilentAndIncompleteRounds(t *testing.T) {
	partial := fullyScoredDebate(2, referenceScores())
	partial.Speeches = partial.Speeches[:4]

	src := &fakeSource{snap: &Snapshot{
		Year:          2025,
		Registrations: testRegistrations(),
		Rounds: []RoundData{
			{Number: 1, Silent: true, Debates: []DebateData{namedScoredDebate(1)}},
			{Number: 2, Debates: []DebateData{namedScoredDebate(1), partial}},
			{Number: 3, ScoresPublished: true, Debates: []DebateData{namedScoredDebate(1)}},
		},
	}}
	engine := NewEngine(src)

	rounds, err := engine.EditionResults(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, rounds, 1, "silent and partially scored rounds are not listed")
	assert.Equal(t, 3, rounds[0].Number)
}

func TestEngine_Pairings(t *testing.T) {
	pending := DebateData{
		Number: 1,
		Positions: []Assignment{
			{SideOG, 1}, {SideOO, 2}, {SideCG, 3}, {SideCO, 4},
		},
	}
	src := &fakeSource{snap: &Snapshot{
		Year:          2025,
		Registrations: testRegistrations(),
		Rounds: []RoundData{
			{Number: 1, ScoresPublished: true, Debates: []DebateData{namedScoredDebate(1)}},
			{Number: 2, Date: "2025-03-09", Debates: []DebateData{pending}},
		},
	}}
	engine := NewEngine(src)

	rounds, err := engine.Pairings(context.Background(), 2025)
	require.NoError(t, err)
	require.Len(t, rounds, 1, "rounds with speeches are not pending")

	round := rounds[0]
	assert.Equal(t, 2, round.Number)
	assert.Equal(t, "2025-03-09", round.Date)
	require.Len(t, round.Debates, 1)
	assert.Equal(t, DebatePairing{Number: 1, OG: "Alfa", OO: "Bravo", CG: "Charlie", CO: "Delta"}, round.Debates[0])
}

func TestEngine_NextPairings(t *testing.T) {
	pending := DebateData{
		Number: 1,
		Positions: []Assignment{
			{SideOG, 1}, {SideOO, 2}, {SideCG, 3}, {SideCO, 4},
		},
	}
	src := &fakeSource{snap: &Snapshot{
		Year:          2025,
		Registrations: testRegistrations(),
		Rounds: []RoundData{
			{Number: 1, Debates: []DebateData{namedScoredDebate(1)}},
			{Number: 2, Debates: []DebateData{pending}},
			{Number: 3, Debates: []DebateData{pending}},
		},
	}}
	engine := NewEngine(src)

	round, err := engine.NextPairings(context.Background(), 2025)
	require.NoError(t, err)
	require.NotNil(t, round)
	assert.Equal(t, 2, round.Number, "first round without any recorded score")
}

func TestEngine_NextPairings_AllRoundsScored(t *testing.T) {
	src := &fakeSource{snap: &Snapshot{
		Year:          2025,
		Registrations: testRegistrations(),
		Rounds: []RoundData{
			{Number: 1, Debates: []DebateData{namedScoredDebate(1)}},
		},
	}}
	engine := NewEngine(src)

	round, err := engine.NextPairings(context.Background(), 2025)
	require.NoError(t, err)
	assert.Nil(t, round)
}
