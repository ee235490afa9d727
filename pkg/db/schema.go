package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Named artifacts: text_dict, target_dict, ind_cat_map, cat_ind_map, classifier, manifest
CREATE TABLE IF NOT EXISTS blobs (
    name TEXT PRIMARY KEY,
    content BLOB NOT NULL,
    content_hash TEXT NOT NULL,       -- SHA256 of content
    size_bytes INTEGER NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

-- One row per build run
CREATE TABLE IF NOT EXISTS builds (
    build_id TEXT PRIMARY KEY,        -- uuid
    started_at TIMESTAMP NOT NULL,
    finished_at TIMESTAMP,
    status TEXT NOT NULL,             -- running, succeeded, failed
    used_cached_data BOOLEAN DEFAULT 0,
    category_count INTEGER DEFAULT 0,
    article_count INTEGER DEFAULT 0,
    vocabulary_size INTEGER DEFAULT 0,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started_at);
`
