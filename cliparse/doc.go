// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Config Fields

  - Port: Server listen port (default: 3318)
  - DatabaseURL: Database connection string (required)
  - DatabaseType: "sqlite" or "postgres" (default: sqlite)
  - AuditKeySalt: Secret for audit key HMAC (required)
  - CatalogDir: Directory of checklist template YAML files (default: templates)
  - WatchCatalog: Reload the catalog when template files change
  - EvidenceDir: Directory for uploaded evidence photos (default: evidence)
  - EvidenceBaseURL: Base URL evidence files are served under (default: /evidence)
  - Unweighted: Score every question with weight 1

# CLI Flags

	-p             Server port
	-d             Database URL
	-t             Database type (sqlite or postgres)
	-catalog       Template directory
	-watch         Reload catalog on file changes
	-evidence      Evidence photo directory
	-evidence-url  Evidence base URL
	-unweighted    Ignore question weights
	-audit-salt    Audit key salt

# Environment Variables

Flags fall back to environment variables:

	PORT               → -p
	DATABASE_URL       → -d
	DATABASE_TYPE      → -t
	CATALOG_DIR        → -catalog
	WATCH_CATALOG      → -watch ("true")
	EVIDENCE_DIR       → -evidence
	EVIDENCE_BASE_URL  → -evidence-url
	UNWEIGHTED_SCORING → -unweighted ("true")
	AUDIT_KEY_SALT     → -audit-salt

CLI flags take precedence over environment variables.

# Validation

ParseFlags returns an error if required values are missing:

  - DATABASE_URL must be provided
  - AUDIT_KEY_SALT must be provided

# Example

	// In main.go
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	db, err := sql.Open(cfg.DatabaseType, cfg.DatabaseURL)
	// ...
	mux := router.NewRouter(db, cfg, cat, uploader)
*/
package cliparse
