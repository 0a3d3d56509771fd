package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BrunoVisnadi/taca-sociedades/pkg/standings"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const membersCSV = `full_name,kind,society_short
Ana,debater,Alfa
Beto,debater,Alfa
Carla,debater,Bravo
Davi,debater,Bravo
Elisa,debater,Charlie
Fabio,debater,Charlie
Gabi,debater,Delta
Hugo,debater,Delta
Iris,judge,Echo
Jonas,judge,Alfa
`

const pairingsCSV = `round,debate,og,oo,cg,co
1,1,Alfa,Bravo,Charlie,Delta
2,1,Delta,Charlie,Bravo,Alfa
`

// seedEdition loads the shared fixture: five societies, eight debaters, two
// judges, two single-debate rounds.
func seedEdition(t *testing.T, s *SQLiteStore) *Edition {
	t.Helper()
	ctx := context.Background()

	ed, err := s.EnsureEdition(ctx, 2025, "")
	require.NoError(t, err)
	assert.Equal(t, "Taça das Sociedades 2025", ed.Name)

	n, err := s.ImportMembersCSV(ctx, ed.ID, writeCSV(t, "members.csv", membersCSV))
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	n, err = s.ImportPairingsCSV(ctx, ed.ID, writeCSV(t, "pairings.csv", pairingsCSV))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	return ed
}

func firstDebateID(t *testing.T, s *SQLiteStore, editionID int64, roundNumber int) int64 {
	t.Helper()
	ctx := context.Background()

	rounds, err := s.RoundStatuses(ctx, editionID)
	require.NoError(t, err)
	for _, r := range rounds {
		if r.Number != roundNumber {
			continue
		}
		debates, err := s.DebateStatuses(ctx, r.ID)
		require.NoError(t, err)
		require.NotEmpty(t, debates)
		return debates[0].ID
	}
	t.Fatalf("round %d not found", roundNumber)
	return 0
}

func memberID(t *testing.T, members []MemberInfo, name string) int64 {
	t.Helper()
	for _, m := range members {
		if m.Name == name {
			return m.ID
		}
	}
	t.Fatalf("no member named %s", name)
	return 0
}

// referenceEntry fills debate 1 of round 1 with the OG=142 OO=133 CG=158
// CO=121 scores.
func referenceEntry(t *testing.T, detail *DebateDetail) ResultEntry {
	t.Helper()
	return ResultEntry{
		Speeches: []SpeechEntry{
			{Position: "OG", S1Member: memberID(t, detail.Debaters, "Ana"), S1Score: 70, S2Member: memberID(t, detail.Debaters, "Beto"), S2Score: 72},
			{Position: "OO", S1Member: memberID(t, detail.Debaters, "Carla"), S1Score: 65, S2Member: memberID(t, detail.Debaters, "Davi"), S2Score: 68},
			{Position: "CG", S1Member: memberID(t, detail.Debaters, "Elisa"), S1Score: 80, S2Member: memberID(t, detail.Debaters, "Fabio"), S2Score: 78},
			{Position: "CO", S1Member: memberID(t, detail.Debaters, "Gabi"), S1Score: 60, S2Member: memberID(t, detail.Debaters, "Hugo"), S2Score: 61},
		},
		Judges: JudgesEntry{Chair: memberID(t, detail.Judges, "Iris")},
	}
}

func TestSeedImportIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ed := seedEdition(t, s)
	ctx := context.Background()

	_, err := s.ImportMembersCSV(ctx, ed.ID, writeCSV(t, "members.csv", membersCSV))
	require.NoError(t, err)
	_, err = s.ImportPairingsCSV(ctx, ed.ID, writeCSV(t, "pairings.csv", pairingsCSV))
	require.NoError(t, err)

	snap, err := s.EditionSnapshot(ctx, 2025)
	require.NoError(t, err)
	assert.Len(t, snap.Registrations, 5)
	assert.Len(t, snap.Rounds, 2)
	require.Len(t, snap.Rounds[0].Debates, 1)
	assert.Len(t, snap.Rounds[0].Debates[0].Positions, 4)
}

func TestEditionSnapshot_CurrentAndMissing(t *testing.T) {
	s := newTestStore(t)
	seedEdition(t, s)
	ctx := context.Background()

	snap, err := s.EditionSnapshot(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 2025, snap.Year, "year 0 selects the latest edition")

	_, err = s.EditionSnapshot(ctx, 1999)
	require.ErrorIs(t, err, standings.ErrEditionNotFound)
}

func TestDebateDetail_ExcludesConflictedJudges(t *testing.T) {
	s := newTestStore(t)
	ed := seedEdition(t, s)
	ctx := context.Background()

	debateID := firstDebateID(t, s, ed.ID, 1)
	detail, err := s.DebateDetail(ctx, debateID)
	require.NoError(t, err)

	require.Len(t, detail.Positions, 4)
	assert.Equal(t, "OG", detail.Positions[0].Position)
	assert.Equal(t, "Alfa", detail.Positions[0].TeamShort)

	assert.Len(t, detail.Debaters, 8)

	// Jonas (Alfa) judges, but Alfa debates here; only Iris remains.
	require.Len(t, detail.Judges, 1)
	assert.Equal(t, "Iris", detail.Judges[0].Name)

	_, err = s.DebateDetail(ctx, 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveDebateResult_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ed := seedEdition(t, s)
	ctx := context.Background()

	debateID := firstDebateID(t, s, ed.ID, 1)
	detail, err := s.DebateDetail(ctx, debateID)
	require.NoError(t, err)

	require.NoError(t, s.SaveDebateResult(ctx, debateID, referenceEntry(t, detail)))

	rounds, err := s.RoundStatuses(ctx, ed.ID)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.True(t, rounds[0].Completed)
	assert.False(t, rounds[1].Completed)

	debates, err := s.DebateStatuses(ctx, rounds[0].ID)
	require.NoError(t, err)
	require.Len(t, debates, 1)
	assert.True(t, debates[0].Completed)

	snap, err := s.EditionSnapshot(ctx, 2025)
	require.NoError(t, err)
	deb := snap.Rounds[0].Debates[0]
	assert.Len(t, deb.Speeches, 8)
	require.Len(t, deb.Judges, 1)
	assert.Equal(t, "chair", deb.Judges[0].Role)
	assert.Equal(t, "Iris", deb.Judges[0].Name)
	assert.Equal(t, "Echo", deb.Judges[0].Society)

	// Re-submitting with different scores overwrites in place.
	entry := referenceEntry(t, detail)
	entry.Speeches[0].S1Score = 75
	require.NoError(t, s.SaveDebateResult(ctx, debateID, entry))

	snap, err = s.EditionSnapshot(ctx, 2025)
	require.NoError(t, err)
	assert.Len(t, snap.Rounds[0].Debates[0].Speeches, 8, "no duplicate slots")
}

func TestSaveDebateResult_Validation(t *testing.T) {
	s := newTestStore(t)
	ed := seedEdition(t, s)
	ctx := context.Background()

	debateID := firstDebateID(t, s, ed.ID, 1)
	detail, err := s.DebateDetail(ctx, debateID)
	require.NoError(t, err)

	t.Run("unknown debate", func(t *testing.T) {
		err := s.SaveDebateResult(ctx, 9999, referenceEntry(t, detail))
		require.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("score out of range", func(t *testing.T) {
		entry := referenceEntry(t, detail)
		entry.Speeches[0].S1Score = 101
		require.ErrorIs(t, s.SaveDebateResult(ctx, debateID, entry), ErrInvalidInput)
	})

	t.Run("bad position", func(t *testing.T) {
		entry := referenceEntry(t, detail)
		entry.Speeches[0].Position = "PM"
		require.ErrorIs(t, s.SaveDebateResult(ctx, debateID, entry), ErrInvalidInput)
	})

	t.Run("judge cannot speak", func(t *testing.T) {
		entry := referenceEntry(t, detail)
		entry.Speeches[0].S1Member = memberID(t, detail.Judges, "Iris")
		require.ErrorIs(t, s.SaveDebateResult(ctx, debateID, entry), ErrInvalidInput)
	})

	t.Run("debater cannot judge", func(t *testing.T) {
		entry := referenceEntry(t, detail)
		entry.Judges.Chair = memberID(t, detail.Debaters, "Ana")
		require.ErrorIs(t, s.SaveDebateResult(ctx, debateID, entry), ErrInvalidInput)
	})

	t.Run("duplicate judges", func(t *testing.T) {
		entry := referenceEntry(t, detail)
		entry.Judges.Wings = []int64{entry.Judges.Chair}
		require.ErrorIs(t, s.SaveDebateResult(ctx, debateID, entry), ErrInvalidInput)
	})

	t.Run("too many wings", func(t *testing.T) {
		entry := referenceEntry(t, detail)
		entry.Judges.Wings = []int64{1, 2, 3}
		require.ErrorIs(t, s.SaveDebateResult(ctx, debateID, entry), ErrInvalidInput)
	})
}

func TestStandingsEndToEnd(t *testing.T) {
	s := newTestStore(t)
	ed := seedEdition(t, s)
	ctx := context.Background()
	engine := standings.NewEngine(s)

	debateID := firstDebateID(t, s, ed.ID, 1)
	detail, err := s.DebateDetail(ctx, debateID)
	require.NoError(t, err)
	require.NoError(t, s.SaveDebateResult(ctx, debateID, referenceEntry(t, detail)))

	require.NoError(t, s.SetRoundFlags(ctx, ed.ID, 1, false, true))

	rows, err := engine.EditionStandings(ctx, 2025)
	require.NoError(t, err)
	require.Len(t, rows, 5)

	assert.Equal(t, "Charlie", rows[0].ShortName)
	assert.Equal(t, 3, rows[0].Points)
	assert.Equal(t, 158, rows[0].SpeakerPoints)
	assert.Equal(t, 1, rows[0].Firsts)

	// Unpublish: speaker points drop, everything else stays.
	require.NoError(t, s.SetRoundFlags(ctx, ed.ID, 1, false, false))
	rows, err = engine.EditionStandings(ctx, 2025)
	require.NoError(t, err)
	assert.Equal(t, 3, rows[0].Points)
	assert.Zero(t, rows[0].SpeakerPoints)

	// Silence the round: it vanishes from standings entirely.
	require.NoError(t, s.SetRoundFlags(ctx, ed.ID, 1, true, true))
	rows, err = engine.EditionStandings(ctx, 2025)
	require.NoError(t, err)
	for _, row := range rows {
		assert.Zero(t, row.Points)
		assert.Zero(t, row.Debates)
	}
}

func TestPlaceholderRegistration(t *testing.T) {
	s := newTestStore(t)
	ed := seedEdition(t, s)
	ctx := context.Background()

	require.NoError(t, s.SetPlaceholder(ctx, ed.ID, "Delta", true))
	require.ErrorIs(t, s.SetPlaceholder(ctx, ed.ID, "Zulu", true), ErrNotFound)

	snap, err := s.EditionSnapshot(ctx, 2025)
	require.NoError(t, err)

	placeholders := 0
	for _, reg := range snap.Registrations {
		if reg.Placeholder {
			placeholders++
			assert.Equal(t, "Delta", reg.ShortName)
		}
	}
	assert.Equal(t, 1, placeholders)

	rows := standings.ComputeStandings(snap)
	assert.Len(t, rows, 4)
}

func TestNextPairingsAfterFirstRoundScored(t *testing.T) {
	s := newTestStore(t)
	ed := seedEdition(t, s)
	ctx := context.Background()
	engine := standings.NewEngine(s)

	round, err := engine.NextPairings(ctx, 2025)
	require.NoError(t, err)
	require.NotNil(t, round)
	assert.Equal(t, 1, round.Number)

	debateID := firstDebateID(t, s, ed.ID, 1)
	detail, err := s.DebateDetail(ctx, debateID)
	require.NoError(t, err)
	require.NoError(t, s.SaveDebateResult(ctx, debateID, referenceEntry(t, detail)))

	round, err = engine.NextPairings(ctx, 2025)
	require.NoError(t, err)
	require.NotNil(t, round)
	assert.Equal(t, 2, round.Number)
	require.Len(t, round.Debates, 1)
	assert.Equal(t, "Delta", round.Debates[0].OG)
}
