package store

const schema = `
CREATE TABLE IF NOT EXISTS societies (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    name       TEXT NOT NULL UNIQUE,
    short_name TEXT UNIQUE,
    city       TEXT
);

CREATE TABLE IF NOT EXISTS editions (
    id   INTEGER PRIMARY KEY AUTOINCREMENT,
    year INTEGER NOT NULL UNIQUE,
    name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS edition_societies (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    edition_id  INTEGER NOT NULL REFERENCES editions(id) ON DELETE CASCADE,
    society_id  INTEGER NOT NULL REFERENCES societies(id) ON DELETE RESTRICT,
    placeholder BOOLEAN NOT NULL DEFAULT 0,
    UNIQUE(edition_id, society_id)
);

CREATE INDEX IF NOT EXISTS idx_edition_societies_edition ON edition_societies(edition_id);

CREATE TABLE IF NOT EXISTS persons (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    full_name  TEXT NOT NULL,
    email      TEXT,
    society_id INTEGER REFERENCES societies(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_persons_name ON persons(full_name);

CREATE TABLE IF NOT EXISTS edition_members (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    edition_id INTEGER NOT NULL REFERENCES editions(id) ON DELETE CASCADE,
    person_id  INTEGER NOT NULL REFERENCES persons(id) ON DELETE CASCADE,
    kind       TEXT NOT NULL CHECK (kind IN ('debater', 'judge')),
    UNIQUE(edition_id, person_id, kind)
);

CREATE INDEX IF NOT EXISTS idx_edition_members_edition ON edition_members(edition_id);

CREATE TABLE IF NOT EXISTS rounds (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    edition_id       INTEGER NOT NULL REFERENCES editions(id) ON DELETE CASCADE,
    number           INTEGER NOT NULL,
    name             TEXT,
    scheduled_date   TEXT,
    motion           TEXT,
    infoslide        TEXT,
    silent           BOOLEAN NOT NULL DEFAULT 0,
    scores_published BOOLEAN NOT NULL DEFAULT 0,
    UNIQUE(edition_id, number)
);

CREATE INDEX IF NOT EXISTS idx_rounds_edition ON rounds(edition_id);

CREATE TABLE IF NOT EXISTS debates (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    round_id        INTEGER NOT NULL REFERENCES rounds(id) ON DELETE CASCADE,
    number_in_round INTEGER NOT NULL,
    UNIQUE(round_id, number_in_round)
);

CREATE INDEX IF NOT EXISTS idx_debates_round ON debates(round_id);

CREATE TABLE IF NOT EXISTS debate_positions (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    debate_id          INTEGER NOT NULL REFERENCES debates(id) ON DELETE CASCADE,
    position           TEXT NOT NULL CHECK (position IN ('OG', 'OO', 'CG', 'CO')),
    edition_society_id INTEGER NOT NULL REFERENCES edition_societies(id) ON DELETE RESTRICT,
    UNIQUE(debate_id, position)
);

CREATE INDEX IF NOT EXISTS idx_debate_positions_debate ON debate_positions(debate_id);

CREATE TABLE IF NOT EXISTS speeches (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    debate_id         INTEGER NOT NULL REFERENCES debates(id) ON DELETE CASCADE,
    position          TEXT NOT NULL CHECK (position IN ('OG', 'OO', 'CG', 'CO')),
    sequence_in_team  INTEGER NOT NULL CHECK (sequence_in_team IN (1, 2)),
    edition_member_id INTEGER NOT NULL REFERENCES edition_members(id) ON DELETE RESTRICT,
    score             INTEGER CHECK (score IS NULL OR score BETWEEN 50 AND 100),
    UNIQUE(debate_id, position, sequence_in_team)
);

CREATE INDEX IF NOT EXISTS idx_speeches_debate ON speeches(debate_id);

CREATE TABLE IF NOT EXISTS debate_judges (
    id                INTEGER PRIMARY KEY AUTOINCREMENT,
    debate_id         INTEGER NOT NULL REFERENCES debates(id) ON DELETE CASCADE,
    edition_member_id INTEGER NOT NULL REFERENCES edition_members(id) ON DELETE RESTRICT,
    role              TEXT NOT NULL CHECK (role IN ('chair', 'wing')),
    UNIQUE(debate_id, edition_member_id)
);

CREATE INDEX IF NOT EXISTS idx_debate_judges_debate ON debate_judges(debate_id);
`
