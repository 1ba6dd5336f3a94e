// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

# Schema Creation

CreateSchema initializes all required tables:

	if err := db.CreateSchema(conn); err != nil {
		log.Fatal(err)
	}

Safe to call multiple times - uses IF NOT EXISTS for all tables and indexes.

# Tables

The schema includes:

  - institution: Hospitals under audit
  - audit: Audit lifecycle, key hash, and final score
  - audit_response: Latest answer per (audit, question), upserted
  - sector_result: Finalized sector scores; superseded rows kept for history

# Relationships

	institution 1──* audit
	audit 1──* audit_response
	audit 1──* sector_result

All foreign keys use ON DELETE CASCADE.

# Portability

The DDL runs unchanged on Postgres (lib/pq) and SQLite (modernc.org/sqlite):
timestamps are RFC3339 TEXT, booleans are INTEGER 0/1, and JSON payloads
are TEXT. Placeholders in queries are strictly sequential $1..$N, which
both drivers accept.
*/
package db
