package store

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    stage      TEXT NOT NULL,
    race       TEXT NOT NULL DEFAULT '',
    riders     INTEGER NOT NULL DEFAULT 0,
    p10        REAL NOT NULL DEFAULT 0,
    p99        REAL NOT NULL DEFAULT 0,
    target     TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_stage ON runs(stage);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);

CREATE TABLE IF NOT EXISTS run_riders (
    run_id   INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    rider    TEXT NOT NULL,
    team     TEXT NOT NULL DEFAULT '',
    url      TEXT NOT NULL DEFAULT '',
    role     TEXT NOT NULL DEFAULT '',
    value    REAL NOT NULL DEFAULT 0,
    adj      REAL NOT NULL DEFAULT 0,
    points   REAL NOT NULL DEFAULT 0,
    PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_run_riders_url ON run_riders(url);
`
