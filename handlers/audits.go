// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ragaudit/rag-audit/auth"
	"github.com/ragaudit/rag-audit/catalog"
	"github.com/ragaudit/rag-audit/cliparse"
	"github.com/ragaudit/rag-audit/evidence"
	"github.com/ragaudit/rag-audit/middleware"
	"github.com/ragaudit/rag-audit/models"
	"github.com/ragaudit/rag-audit/progression"
	"github.com/ragaudit/rag-audit/scoring"
	"github.com/ragaudit/rag-audit/storage"
)

type AuditHandler struct {
	store    *storage.Store
	cfg      cliparse.Config
	catalog  *catalog.Catalog
	sessions *progression.Manager
	uploader evidence.Uploader
}

func NewAuditHandler(store *storage.Store, cfg cliparse.Config, cat *catalog.Catalog, up evidence.Uploader) *AuditHandler {
	return &AuditHandler{
		store:    store,
		cfg:      cfg,
		catalog:  cat,
		sessions: progression.NewManager(),
		uploader: up,
	}
}

// CreateAudit handles POST /audits
func (h *AuditHandler) CreateAudit(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAuditRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if req.Title == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.InstitutionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "institution_id is required")
		return
	}
	if req.TemplateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "template_id is required")
		return
	}

	if _, ok := h.catalog.Template(req.TemplateID); !ok {
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, "unknown template_id")
		return
	}

	if _, err := h.store.GetInstitution(req.InstitutionID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusUnprocessableEntity, "unknown institution_id")
			return
		}
		slog.Error("failed to query institution", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Database error")
		return
	}

	auditID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate audit ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create audit")
		return
	}

	// The key is issued once here; only its hash is stored.
	auditKey := auth.GenerateAuditKey(auditID, h.cfg.AuditKeySalt)

	a := models.Audit{
		ID:            auditID,
		InstitutionID: req.InstitutionID,
		TemplateID:    req.TemplateID,
		Title:         req.Title,
		Description:   req.Description,
		Auditors:      req.Auditors,
		Status:        models.StatusInProgress,
		StartDate:     req.StartDate,
		CreatedAt:     time.Now(),
	}
	if a.Auditors == nil {
		a.Auditors = []string{}
	}
	if a.StartDate == nil {
		now := time.Now()
		a.StartDate = &now
	}

	if err := h.store.CreateAudit(a, auth.HashAuditKey(auditKey)); err != nil {
		slog.Error("failed to insert audit", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Failed to create audit")
		return
	}

	slog.Info("audit created", "audit_id", auditID, "template_id", req.TemplateID)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateAuditResponse{
		AuditID:  auditID,
		AuditKey: auditKey,
	})
}

// ListAudits handles GET /audits
func (h *AuditHandler) ListAudits(w http.ResponseWriter, r *http.Request) {
	audits, err := h.store.ListRecentAudits(50)
	if err != nil {
		slog.Error("failed to query audits", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, audits)
}

// auditDetail is the GET /audits/{id} payload: the audit row plus the
// live result of every finalized sector.
type auditDetail struct {
	Audit   models.Audit           `json:"audit"`
	Results []scoring.SectorResult `json:"results"`
}

// GetAudit handles GET /audits/{id}
func (h *AuditHandler) GetAudit(w http.ResponseWriter, r *http.Request) {
	auditID := r.PathValue("id")
	if auditID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "audit_id is required")
		return
	}

	a, err := h.store.GetAudit(auditID)
	if errors.Is(err, storage.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Audit not found")
		return
	}
	if err != nil {
		slog.Error("failed to query audit", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Database error")
		return
	}

	results, err := h.store.ListSectorResults(auditID)
	if err != nil {
		slog.Error("failed to query sector results", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, auditDetail{Audit: a, Results: results})
}

// GetStats handles GET /audits/stats
func (h *AuditHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats()
	if err != nil {
		slog.Error("failed to query stats", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, stats)
}

// StartSession handles POST /audits/{id}/start
// Idempotent: starting an already-open session returns its position.
// After a restart the session is rebuilt from the catalog and
// fast-forwarded past sectors that already have a live result; a
// completed audit resumes in its completed state so its sectors can
// still be reopened.
func (h *AuditHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	auditID := r.PathValue("id")
	if auditID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "audit_id is required")
		return
	}

	auditKey := r.Header.Get("X-Audit-Key")
	if err := auth.ValidateAuditKey(auditID, auditKey, h.cfg.AuditKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid audit key")
		return
	}

	a, err := h.store.GetAudit(auditID)
	if errors.Is(err, storage.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Audit not found")
		return
	}
	if err != nil {
		slog.Error("failed to query audit", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Database error")
		return
	}
	sess, err := h.sessions.Get(auditID)
	if errors.Is(err, progression.ErrNoSession) {
		tpl, ok := h.catalog.Template(a.TemplateID)
		if !ok {
			middleware.ErrorResponse(w, http.StatusConflict, "Audit template is no longer in the catalog")
			return
		}
		sess = h.sessions.Start(auditID, tpl)
		if err := h.fastForward(sess); err != nil {
			slog.Error("failed to resume session", "audit_id", auditID, "error", err)
			middleware.ErrorResponse(w, http.StatusBadGateway, "Database error")
			return
		}
		slog.Info("session started", "audit_id", auditID, "template_id", a.TemplateID)
	}

	middleware.JSONResponse(w, http.StatusOK, positionResponse(auditID, sess.Position()))
}

// fastForward skips sectors that were finalized before a restart.
// Sectors are finalized strictly in template order, so the skip stops at
// the first sector without a live result.
func (h *AuditHandler) fastForward(sess *progression.Session) error {
	results, err := h.store.ListSectorResults(sess.AuditID())
	if err != nil {
		return err
	}
	done := make(map[string]bool, len(results))
	for _, res := range results {
		done[res.SectorID] = true
	}

	for _, sector := range sess.Template().Sectors {
		if !done[sector.ID] {
			return nil
		}
		if _, err := sess.CompleteSector(); err != nil {
			return err
		}
	}
	return nil
}

func positionResponse(auditID string, pos progression.Position) models.PositionResponse {
	resp := models.PositionResponse{
		AuditID:       auditID,
		Completed:     pos.Completed,
		SectorID:      pos.SectorID,
		SectorName:    pos.SectorName,
		SectorIndex:   pos.SectorIndex,
		SectorCount:   pos.SectorCount,
		QuestionIndex: pos.QuestionIndex,
		QuestionCount: pos.QuestionCount,
		CanProceed:    pos.CanProceed,
		BlockedReason: pos.BlockedReason,
	}
	if !pos.Completed {
		q := pos.Question
		resp.Question = &q
	}
	return resp
}
