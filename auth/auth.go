// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidAuditKey = errors.New("invalid audit key")

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateAuditKey creates an HMAC-based key for an audit.
// This is deterministic and verifiable
func GenerateAuditKey(auditID, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(auditID))
	sum := h.Sum(nil)
	// Use URL-safe base64 and trim padding for cleaner keys
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum), "=")
}

// ValidateAuditKey checks if the provided audit key is valid for the audit
func ValidateAuditKey(auditID, auditKey, salt string) error {
	expected := GenerateAuditKey(auditID, salt)
	if !hmac.Equal([]byte(auditKey), []byte(expected)) {
		return ErrInvalidAuditKey
	}
	return nil
}

// HashAuditKey returns the hex SHA-256 of a key for at-rest storage.
// The raw key is shown once at audit creation and never persisted.
func HashAuditKey(auditKey string) string {
	sum := sha256.Sum256([]byte(auditKey))
	return hex.EncodeToString(sum[:])
}
