// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the rag-audit API server.

rag-audit drives hospital accreditation audits: auditors walk a
checklist of sectors and questions, attach photo evidence, and get a
weighted conformity score and plain-text report per sector.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=file:rag.db AUDIT_KEY_SALT=... go run main.go

Or with flags:

	go run main.go -p 3318 -d "postgres://..." -t postgres -catalog ./templates

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite file or PostgreSQL connection string
  - AUDIT_KEY_SALT (-audit-salt): Secret for audit key HMAC

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - CATALOG_DIR (-catalog): Template directory (default: templates)
  - WATCH_CATALOG (-watch): Hot-reload templates on change
  - EVIDENCE_DIR (-evidence): Evidence photo directory
  - EVIDENCE_BASE_URL (-evidence-url): URL prefix for stored evidence
  - UNWEIGHTED_SCORING (-unweighted): Ignore question weights

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (institutions, audits, execution, results)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - catalog: YAML checklist templates with hot reload
  - answers: In-memory draft answers and evidence status
  - progression: Sector/question navigation state machine
  - scoring: Conformity scoring engine
  - report: Plain-text report assembly
  - evidence: Background photo uploads
  - storage: Persistence over database/sql
  - auth: Audit key generation and validation
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
