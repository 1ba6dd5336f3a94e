// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the rag-audit API.

# Handler Types

Each handler is a struct with its dependencies injected:

  - InstitutionHandler: Institution CRUD
  - CatalogHandler: Read-only checklist template browsing
  - AuditHandler: Audit lifecycle, execution session, results, reports

Handlers are created via constructor functions:

	auditHandler := handlers.NewAuditHandler(store, cfg, cat, uploader)

The AuditHandler owns the in-memory session manager, so every execution
route must go through the same instance.

# Audit Flow

Audits progress through two states: in_progress → completed

	POST /audits                      → CreateAudit (returns audit_key once)
	POST /audits/{id}/start           → StartSession (resume after restart)
	POST /audits/{id}/answer          → SetAnswer (validated against question type)
	POST /audits/{id}/evidence        → AttachEvidence (background upload)
	POST /audits/{id}/next            → Next (blocked while required answers missing)
	POST /audits/{id}/finalize-sector → FinalizeSector (score, persist, advance)

Execution operations require the X-Audit-Key header.

# Error Mapping

Engine sentinels map to HTTP statuses:

  - progression.ErrBlocked, ErrSectorEnd, ErrUploadsPending → 409
  - answers.ErrTypeMismatch, ErrInvalidOption → 422
  - storage failures → 502, session state not advanced
  - auth.ErrInvalidAuditKey → 401

# Reports

GET /audits/{id}/report/{sectorId} streams the plain-text sector report
as an attachment, rebuilt from persisted responses rather than session
drafts.
*/
package handlers
