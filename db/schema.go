// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
//
// The DDL is restricted to types and defaults valid in both Postgres
// and SQLite. Timestamps are stored as RFC3339 TEXT and JSON payloads
// as TEXT so the same statements work against either driver.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

const schema = `
-- Institutions
CREATE TABLE IF NOT EXISTS institution (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    cnpj TEXT,
    address TEXT,
    city TEXT,
    state TEXT,
    zip_code TEXT,
    email TEXT,
    phone TEXT,
    created_at TEXT NOT NULL
);

-- Audits
CREATE TABLE IF NOT EXISTS audit (
    id TEXT PRIMARY KEY,
    institution_id TEXT NOT NULL REFERENCES institution(id) ON DELETE CASCADE,
    template_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    auditors TEXT NOT NULL,
    audit_key_hash TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'in_progress' CHECK (status IN ('in_progress', 'completed')),
    start_date TEXT,
    end_date TEXT,
    total_score INTEGER,
    conformity_percentage REAL,
    created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_institution_id ON audit(institution_id);
CREATE INDEX IF NOT EXISTS idx_audit_status ON audit(status);

-- Answers (latest value per question, upserted on each save)
CREATE TABLE IF NOT EXISTS audit_response (
    audit_id TEXT NOT NULL REFERENCES audit(id) ON DELETE CASCADE,
    question_id TEXT NOT NULL,
    sector_id TEXT NOT NULL,
    answer TEXT,
    observation TEXT,
    photo_urls TEXT,
    answered_at TEXT NOT NULL,
    PRIMARY KEY (audit_id, question_id)
);

CREATE INDEX IF NOT EXISTS idx_audit_response_sector ON audit_response(audit_id, sector_id);

-- Sector results (one live row per sector; re-finalizing marks the
-- previous row superseded and inserts a new one)
CREATE TABLE IF NOT EXISTS sector_result (
    id TEXT PRIMARY KEY,
    audit_id TEXT NOT NULL REFERENCES audit(id) ON DELETE CASCADE,
    sector_id TEXT NOT NULL,
    completed_at TEXT NOT NULL,
    superseded INTEGER NOT NULL DEFAULT 0,
    payload TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sector_result_audit ON sector_result(audit_id, sector_id);
`
