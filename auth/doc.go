// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides authentication and token generation utilities.

# Audit Keys

Audit keys use HMAC-SHA256 to create deterministic, verifiable keys:

	auditKey := auth.GenerateAuditKey(auditID, salt)
	err := auth.ValidateAuditKey(auditID, auditKey, salt)

The key is URL-safe base64 encoded without padding. Since it's deterministic,
the same audit ID and salt always produce the same key. This allows validation
without storing the key in the database. A SHA-256 hash of the key is still
stored alongside the audit row:

	hash := auth.HashAuditKey(auditKey)

so an operator can cross-check which key a row was issued under after a salt
rotation.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters
*/
package auth
