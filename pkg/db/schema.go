package db

const schema = `
-- Performance and reliability settings
PRAGMA journal_mode = WAL;
PRAGMA synchronous = NORMAL;
PRAGMA foreign_keys = ON;
PRAGMA temp_store = MEMORY;

-- Pages: one snapshot per scraped page, keyed by the cleaned URL
CREATE TABLE IF NOT EXISTS pages (
    page_id INTEGER PRIMARY KEY AUTOINCREMENT,
    url TEXT NOT NULL UNIQUE,
    path TEXT,
    title TEXT,
    lang TEXT,
    excerpt TEXT,
    tables_json TEXT NOT NULL DEFAULT '[]',
    scraped_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_pages_path ON pages(path);
CREATE INDEX IF NOT EXISTS idx_pages_scraped ON pages(scraped_at DESC);

-- Conversions: one current rate per (page_url, source, target)
CREATE TABLE IF NOT EXISTS conversions (
    conversion_id INTEGER PRIMARY KEY AUTOINCREMENT,
    page_url TEXT NOT NULL,
    page_title TEXT,
    source TEXT NOT NULL,
    target TEXT NOT NULL,
    rate REAL NOT NULL CHECK (rate > 0),
    text TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(page_url, source, target)
);

CREATE INDEX IF NOT EXISTS idx_conversions_page ON conversions(page_url);
`
