// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the rag-audit API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg, cat, uploader)

# Endpoints

Health:

	GET /health

Institutions:

	POST /institutions       - Create institution
	GET  /institutions       - List institutions
	GET  /institutions/{id}  - Institution detail

Checklist templates (read-only catalog):

	GET /templates      - List templates
	GET /templates/{id} - Template with sectors and questions

Audit lifecycle:

	POST /audits       - Create audit (returns the audit key once)
	GET  /audits       - Recent audits
	GET  /audits/stats - Dashboard stats
	GET  /audits/{id}  - Audit detail plus finalized sector results

Audit execution (requires X-Audit-Key):

	POST /audits/{id}/start           - Open or resume the editing session
	GET  /audits/{id}/position        - Current sector/question and can_proceed
	POST /audits/{id}/answer          - Set an answer value
	POST /audits/{id}/observation     - Set a free-text observation
	POST /audits/{id}/evidence        - Attach evidence photos (multipart)
	GET  /audits/{id}/evidence-status - Per-question upload status
	POST /audits/{id}/next            - Advance one question
	POST /audits/{id}/previous        - Go back one question
	POST /audits/{id}/reopen-sector   - Re-audit a finalized sector
	POST /audits/{id}/finalize-sector - Score and persist the current sector

Results (public):

	GET /audits/{id}/results           - Live sector results
	GET /audits/{id}/report/{sectorId} - Plain-text report download

# Handler Initialization

The router creates handler instances with dependency injection:

	store := storage.NewStore(db)
	institutionHandler := handlers.NewInstitutionHandler(store)
	catalogHandler := handlers.NewCatalogHandler(cat)
	auditHandler := handlers.NewAuditHandler(store, cfg, cat, up)

The audit handler owns the in-memory session manager, so all execution
routes go through the one instance.
*/
package router
