package standings

// Snapshot is a consistent read-only view of one edition's data, loaded in a
// single transaction by the storage layer. The aggregators never mutate it.
type Snapshot struct {
	EditionID     int64
	Year          int
	Registrations []Registration
	Rounds        []RoundData
}

// Registration is a society's enrollment in the edition. Placeholder entries
// (catch-all teams that debate for pairing purposes only) never appear in the
// standings table.
type Registration struct {
	TeamID      int64
	SocietyID   int64
	ShortName   string
	Placeholder bool
}

// RoundData is one round with its publication flags and debates.
type RoundData struct {
	ID              int64
	Number          int
	Name            string
	Date            string
	Motion          string
	Infoslide       string
	Silent          bool
	ScoresPublished bool
	Debates         []DebateData
}

// DebateData is one debate's position assignments and speech slots.
type DebateData struct {
	ID        int64
	Number    int
	Positions []Assignment
	Speeches  []SpeechData
	Judges    []JudgeData
}

// SpeechData is a speech slot together with the speaker's name.
type SpeechData struct {
	SpeechScore
	Speaker string
}

// JudgeData is one judge on a debate's panel.
type JudgeData struct {
	Role    string // "chair" or "wing"
	Name    string
	Society string
}

// scores strips speaker names, yielding the input shape the debate aggregator
// takes.
func (d DebateData) scores() []SpeechScore {
	out := make([]SpeechScore, len(d.Speeches))
	for i, sp := range d.Speeches {
		out[i] = sp.SpeechScore
	}
	return out
}

// shortNames maps every registration (placeholders included) to its display
// name.
func (s *Snapshot) shortNames() map[int64]string {
	names := make(map[int64]string, len(s.Registrations))
	for _, reg := range s.Registrations {
		names[reg.TeamID] = reg.ShortName
	}
	return names
}
