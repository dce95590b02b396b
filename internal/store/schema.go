package store

// schema is the full DDL, executed on open. Statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS guardians (
    id          TEXT PRIMARY KEY,
    chat_id     INTEGER NOT NULL UNIQUE,
    name        TEXT NOT NULL DEFAULT '',
    language    TEXT NOT NULL DEFAULT '',
    opted_in    INTEGER NOT NULL DEFAULT 0,
    opted_out   INTEGER NOT NULL DEFAULT 0,
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS educators (
    id          TEXT PRIMARY KEY,
    chat_id     INTEGER NOT NULL UNIQUE,
    name        TEXT NOT NULL DEFAULT '',
    school_id   TEXT NOT NULL DEFAULT '',
    school_name TEXT NOT NULL DEFAULT '',
    class_name  TEXT NOT NULL DEFAULT '',
    opted_in    INTEGER NOT NULL DEFAULT 0,
    opted_out   INTEGER NOT NULL DEFAULT 0,
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS students (
    id          TEXT PRIMARY KEY,
    guardian_id TEXT NOT NULL DEFAULT '',
    educator_id TEXT NOT NULL DEFAULT '',
    name        TEXT NOT NULL,
    entry_grade TEXT NOT NULL,
    created_at  DATETIME NOT NULL,
    updated_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS schools (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    invitation_code TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS diagnostic_sessions (
    id                  TEXT PRIMARY KEY,
    student_id          TEXT NOT NULL,
    status              TEXT NOT NULL,
    entry_grade         TEXT NOT NULL,
    nodes_tested        TEXT NOT NULL DEFAULT '[]',
    nodes_mastered      TEXT NOT NULL DEFAULT '[]',
    nodes_gap           TEXT NOT NULL DEFAULT '[]',
    root_gap_node       TEXT NOT NULL DEFAULT '',
    root_gap_confidence REAL NOT NULL DEFAULT 0,
    cascade_name        TEXT NOT NULL DEFAULT '',
    total_questions     INTEGER NOT NULL DEFAULT 0,
    correct_answers     INTEGER NOT NULL DEFAULT 0,
    started_at          DATETIME NOT NULL,
    last_activity_at    DATETIME NOT NULL,
    completed_at        DATETIME
);

CREATE INDEX IF NOT EXISTS idx_sessions_student ON diagnostic_sessions(student_id);
CREATE INDEX IF NOT EXISTS idx_sessions_status ON diagnostic_sessions(status);

CREATE TABLE IF NOT EXISTS gap_profiles (
    id                    TEXT PRIMARY KEY,
    student_id            TEXT NOT NULL,
    session_id            TEXT NOT NULL,
    nodes_mastered        TEXT NOT NULL DEFAULT '[]',
    nodes_gap             TEXT NOT NULL DEFAULT '[]',
    nodes_uncertain       TEXT NOT NULL DEFAULT '[]',
    primary_gap_node      TEXT NOT NULL DEFAULT '',
    estimated_grade_level TEXT NOT NULL DEFAULT '',
    grade_gap             INTEGER NOT NULL DEFAULT 0,
    overall_confidence    REAL NOT NULL DEFAULT 0,
    primary_cascade       TEXT NOT NULL DEFAULT '',
    narrative             TEXT NOT NULL DEFAULT '',
    recommendation        TEXT NOT NULL DEFAULT '',
    is_current            INTEGER NOT NULL DEFAULT 0,
    created_at            DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_profiles_student ON gap_profiles(student_id);
CREATE INDEX IF NOT EXISTS idx_profiles_current ON gap_profiles(student_id, is_current);

CREATE TABLE IF NOT EXISTS conversation_states (
    actor_kind  TEXT NOT NULL,
    chat_id     INTEGER NOT NULL,
    flow        TEXT NOT NULL,
    step        TEXT NOT NULL,
    data        TEXT NOT NULL DEFAULT '{}',
    updated_at  DATETIME NOT NULL,
    PRIMARY KEY (actor_kind, chat_id)
);

CREATE TABLE IF NOT EXISTS seen_messages (
    actor_kind TEXT NOT NULL,
    chat_id    INTEGER NOT NULL,
    message_id TEXT NOT NULL,
    seen_at    DATETIME NOT NULL,
    PRIMARY KEY (actor_kind, chat_id, message_id)
);

CREATE TABLE IF NOT EXISTS llm_request_events (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    provider      TEXT NOT NULL,
    model         TEXT NOT NULL,
    purpose       TEXT NOT NULL,
    input_tokens  INTEGER NOT NULL DEFAULT 0,
    output_tokens INTEGER NOT NULL DEFAULT 0,
    latency_ms    INTEGER NOT NULL DEFAULT 0,
    success       INTEGER NOT NULL DEFAULT 0,
    error_message TEXT NOT NULL DEFAULT '',
    created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS answer_events (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id  TEXT NOT NULL,
    node_code   TEXT NOT NULL,
    question    TEXT NOT NULL,
    answer      TEXT NOT NULL,
    is_correct  INTEGER NOT NULL,
    source      TEXT NOT NULL DEFAULT '',
    created_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_answers_session ON answer_events(session_id);
`
