package storage

const schema = `
-- Sources are directories or git repositories that scripts are synced from.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL,
    character TEXT NOT NULL,
    chunk_size INTEGER NOT NULL,
    last_scanned DATETIME
);

CREATE TABLE IF NOT EXISTS scripts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    raw_markdown TEXT NOT NULL,
    my_character TEXT NOT NULL,
    chunk_size INTEGER NOT NULL CHECK (chunk_size >= 1),
    fingerprint TEXT NOT NULL,
    source_id INTEGER,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL,

    FOREIGN KEY(source_id) REFERENCES sources(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_scripts_fingerprint ON scripts(fingerprint);

CREATE TABLE IF NOT EXISTS scenes (
    id TEXT PRIMARY KEY,
    script_id TEXT NOT NULL,
    name TEXT NOT NULL,
    scene_order INTEGER NOT NULL,

    FOREIGN KEY(script_id) REFERENCES scripts(id) ON DELETE CASCADE
);

-- Lines carry the SM-2 state and the short-horizon streak. Only grading
-- updates a line after it is created.
CREATE TABLE IF NOT EXISTS lines (
    id TEXT PRIMARY KEY,
    script_id TEXT NOT NULL,
    scene_id TEXT NOT NULL,
    cue TEXT NOT NULL,
    cue_character TEXT NOT NULL,
    response TEXT NOT NULL,
    response_character TEXT NOT NULL,
    line_order INTEGER NOT NULL CHECK (line_order >= 0),
    interval INTEGER NOT NULL DEFAULT 0,
    repetition INTEGER NOT NULL DEFAULT 0,
    efactor REAL NOT NULL DEFAULT 2.5,
    due_date DATETIME NOT NULL,
    consecutive_correct INTEGER NOT NULL DEFAULT 0,

    UNIQUE(script_id, line_order),
    FOREIGN KEY(script_id) REFERENCES scripts(id) ON DELETE CASCADE,
    FOREIGN KEY(scene_id) REFERENCES scenes(id) ON DELETE CASCADE
);

-- One row per grading event, newest last.
CREATE TABLE IF NOT EXISTS reviews (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    line_id TEXT NOT NULL,
    script_id TEXT NOT NULL,
    correct INTEGER NOT NULL,
    chunk_index INTEGER NOT NULL,
    reviewed_at DATETIME NOT NULL,

    FOREIGN KEY(line_id) REFERENCES lines(id) ON DELETE CASCADE,
    FOREIGN KEY(script_id) REFERENCES scripts(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_reviews_script ON reviews(script_id, id);
`
