// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/ragaudit/rag-audit/catalog"
	"github.com/ragaudit/rag-audit/cliparse"
	"github.com/ragaudit/rag-audit/evidence"
	"github.com/ragaudit/rag-audit/handlers"
	"github.com/ragaudit/rag-audit/middleware"
	"github.com/ragaudit/rag-audit/storage"
)

func NewRouter(db *sql.DB, cfg cliparse.Config, cat *catalog.Catalog, up evidence.Uploader) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	store := storage.NewStore(db)
	institutionHandler := handlers.NewInstitutionHandler(store)
	catalogHandler := handlers.NewCatalogHandler(cat)
	auditHandler := handlers.NewAuditHandler(store, cfg, cat, up)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Institutions
	mux.HandleFunc("POST /institutions", middleware.WithLogging(institutionHandler.CreateInstitution))
	mux.HandleFunc("GET /institutions", middleware.WithLogging(institutionHandler.ListInstitutions))
	mux.HandleFunc("GET /institutions/{id}", middleware.WithLogging(institutionHandler.GetInstitution))

	// Checklist templates (read-only catalog)
	mux.HandleFunc("GET /templates", middleware.WithLogging(catalogHandler.ListTemplates))
	mux.HandleFunc("GET /templates/{id}", middleware.WithLogging(catalogHandler.GetTemplate))

	// Audit lifecycle
	mux.HandleFunc("POST /audits", middleware.WithLogging(auditHandler.CreateAudit))
	mux.HandleFunc("GET /audits", middleware.WithLogging(auditHandler.ListAudits))
	mux.HandleFunc("GET /audits/stats", middleware.WithLogging(auditHandler.GetStats))
	mux.HandleFunc("GET /audits/{id}", middleware.WithLogging(auditHandler.GetAudit))

	// Audit execution (key-holder operations)
	mux.HandleFunc("POST /audits/{id}/start", middleware.WithLogging(auditHandler.StartSession))
	mux.HandleFunc("GET /audits/{id}/position", middleware.WithLogging(auditHandler.GetPosition))
	mux.HandleFunc("POST /audits/{id}/answer", middleware.WithLogging(auditHandler.SetAnswer))
	mux.HandleFunc("POST /audits/{id}/observation", middleware.WithLogging(auditHandler.SetObservation))
	mux.HandleFunc("POST /audits/{id}/evidence", middleware.WithLogging(auditHandler.AttachEvidence))
	mux.HandleFunc("GET /audits/{id}/evidence-status", middleware.WithLogging(auditHandler.EvidenceStatus))
	mux.HandleFunc("POST /audits/{id}/next", middleware.WithLogging(auditHandler.Next))
	mux.HandleFunc("POST /audits/{id}/previous", middleware.WithLogging(auditHandler.Previous))
	mux.HandleFunc("POST /audits/{id}/reopen-sector", middleware.WithLogging(auditHandler.ReopenSector))
	mux.HandleFunc("POST /audits/{id}/finalize-sector", middleware.WithLogging(auditHandler.FinalizeSector))

	// Results and reports (public)
	mux.HandleFunc("GET /audits/{id}/results", middleware.WithLogging(auditHandler.GetResults))
	mux.HandleFunc("GET /audits/{id}/report/{sectorId}", middleware.WithLogging(auditHandler.DownloadReport))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("rag-audit API v1"))
	})

	return mux
}
