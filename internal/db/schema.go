package db

// SchemaVersion is the current database schema version
const SchemaVersion = 1

const schema = `
-- One row per stacked work order
CREATE TABLE IF NOT EXISTS batches (
    work_order_id TEXT PRIMARY KEY,
    control_number TEXT DEFAULT '',
    combined_note TEXT DEFAULT '',
    stacked_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Encoded services within a batch, ordered by seq
CREATE TABLE IF NOT EXISTS services (
    work_order_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    verb_code INTEGER NOT NULL,
    noun_code INTEGER,
    timestamp TEXT NOT NULL,
    note TEXT DEFAULT '',
    elapsed_minutes INTEGER NOT NULL,
    push_state TEXT NOT NULL DEFAULT 'pending',
    PRIMARY KEY (work_order_id, seq),
    FOREIGN KEY (work_order_id) REFERENCES batches(work_order_id) ON DELETE CASCADE
);

-- Append-only audit trail of push attempts
CREATE TABLE IF NOT EXISTS push_log (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    work_order_id TEXT NOT NULL,
    seq INTEGER NOT NULL,
    outcome TEXT NOT NULL,
    detail TEXT DEFAULT '',
    timestamp DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_push_log_wo ON push_log(work_order_id);

-- Schema metadata
CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
