// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package storage persists institutions, audits, answers, and sector
results over database/sql.

Answers live in memory (package answers) while a sector is being worked
on; they hit the database only when the sector is finalized, together
with the computed scoring.SectorResult. Re-finalizing a sector marks the
previous result row superseded and inserts a fresh one in the same
transaction, so readers always see exactly one live result per sector.

All queries use sequential $1..$N placeholders, RFC3339 TEXT timestamps,
and TEXT JSON columns, which keeps them valid under both lib/pq and
modernc.org/sqlite.
*/
package storage
