// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ragaudit/rag-audit/answers"
	"github.com/ragaudit/rag-audit/auth"
	"github.com/ragaudit/rag-audit/catalog"
	"github.com/ragaudit/rag-audit/evidence"
	"github.com/ragaudit/rag-audit/middleware"
	"github.com/ragaudit/rag-audit/models"
	"github.com/ragaudit/rag-audit/progression"
	"github.com/ragaudit/rag-audit/scoring"
)

// maxEvidenceUpload caps one multipart evidence request.
const maxEvidenceUpload = 32 << 20

// requireSession validates the audit key and fetches the open session.
// Writes the error response itself when it returns false.
func (h *AuditHandler) requireSession(w http.ResponseWriter, r *http.Request) (*progression.Session, string, bool) {
	auditID := r.PathValue("id")
	if auditID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "audit_id is required")
		return nil, "", false
	}

	auditKey := r.Header.Get("X-Audit-Key")
	if err := auth.ValidateAuditKey(auditID, auditKey, h.cfg.AuditKeySalt); err != nil {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid audit key")
		return nil, "", false
	}

	sess, err := h.sessions.Get(auditID)
	if errors.Is(err, progression.ErrNoSession) {
		middleware.ErrorResponse(w, http.StatusConflict, "Session not started")
		return nil, "", false
	}
	return sess, auditID, true
}

// decodeValue interprets a raw JSON answer against the question's
// declared type. A payload of the wrong JSON type maps to
// answers.ErrTypeMismatch, same as a wrong in-memory kind.
func decodeValue(q catalog.Question, raw json.RawMessage) (answers.Value, error) {
	switch q.Type {
	case catalog.TypeYesNo, catalog.TypeMultipleChoice:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return answers.Value{}, answers.ErrTypeMismatch
		}
		return answers.Choice(s), nil
	case catalog.TypeText:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return answers.Value{}, answers.ErrTypeMismatch
		}
		return answers.Text(s), nil
	case catalog.TypeNumber:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return answers.Value{}, answers.ErrTypeMismatch
		}
		return answers.Number(n), nil
	default:
		// photo_evidence questions take files, not values
		return answers.Value{}, answers.ErrTypeMismatch
	}
}

// SetAnswer handles POST /audits/{id}/answer
func (h *AuditHandler) SetAnswer(w http.ResponseWriter, r *http.Request) {
	sess, auditID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req models.SetAnswerRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.QuestionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question_id is required")
		return
	}

	q, err := sess.Question(req.QuestionID)
	if err != nil {
		if errors.Is(err, progression.ErrAuditComplete) {
			middleware.ErrorResponse(w, http.StatusConflict, "Audit is already completed")
			return
		}
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	v, err := decodeValue(q, req.Answer)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, "answer does not match question type")
		return
	}

	if err := sess.Store().SetAnswer(q, v); err != nil {
		// Rejection keeps the prior value; nothing to roll back.
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	slog.Info("answer set", "audit_id", auditID, "question_id", q.ID)

	middleware.JSONResponse(w, http.StatusOK, positionResponse(auditID, sess.Position()))
}

// SetObservation handles POST /audits/{id}/observation
func (h *AuditHandler) SetObservation(w http.ResponseWriter, r *http.Request) {
	sess, auditID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req models.SetObservationRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.QuestionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question_id is required")
		return
	}

	// Observations attach to any question in the current sector,
	// answered or not.
	if _, err := sess.Question(req.QuestionID); err != nil {
		if errors.Is(err, progression.ErrAuditComplete) {
			middleware.ErrorResponse(w, http.StatusConflict, "Audit is already completed")
			return
		}
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	sess.Store().SetObservation(req.QuestionID, req.Observation)

	slog.Info("observation set", "audit_id", auditID, "question_id", req.QuestionID)

	middleware.JSONResponse(w, http.StatusOK, positionResponse(auditID, sess.Position()))
}

// AttachEvidence handles POST /audits/{id}/evidence (multipart).
// The files replace any previously attached evidence for the question
// and upload in the background; progress shows in evidence-status.
func (h *AuditHandler) AttachEvidence(w http.ResponseWriter, r *http.Request) {
	sess, auditID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxEvidenceUpload); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	questionID := r.FormValue("question_id")
	if questionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "question_id is required")
		return
	}
	fileHeaders := r.MultipartForm.File["photos"]
	if len(fileHeaders) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "at least one photo is required")
		return
	}

	if _, err := sess.Question(questionID); err != nil {
		if errors.Is(err, progression.ErrAuditComplete) {
			middleware.ErrorResponse(w, http.StatusConflict, "Audit is already completed")
			return
		}
		middleware.ErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	files := make([]evidence.File, 0, len(fileHeaders))
	names := make([]string, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Unreadable upload")
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Unreadable upload")
			return
		}
		files = append(files, evidence.File{Name: fh.Filename, Content: content})
		names = append(names, fh.Filename)
	}

	refs := sess.Store().AttachEvidence(questionID, names)
	evidence.ResolveAsync(h.uploader, sess.Store(), auditID, questionID, files, refs)

	slog.Info("evidence attached", "audit_id", auditID, "question_id", questionID, "files", len(files))

	middleware.JSONResponse(w, http.StatusAccepted, models.AttachEvidenceResponse{
		QuestionID: questionID,
		Evidence:   refs,
	})
}

// EvidenceStatus handles GET /audits/{id}/evidence-status
func (h *AuditHandler) EvidenceStatus(w http.ResponseWriter, r *http.Request) {
	auditID := r.PathValue("id")
	if auditID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "audit_id is required")
		return
	}

	sess, err := h.sessions.Get(auditID)
	if errors.Is(err, progression.ErrNoSession) {
		middleware.ErrorResponse(w, http.StatusConflict, "Session not started")
		return
	}

	sector, err := sess.CurrentSector()
	if errors.Is(err, progression.ErrAuditComplete) {
		middleware.ErrorResponse(w, http.StatusConflict, "Audit is already completed")
		return
	}

	refs := make(map[string][]answers.EvidenceRef)
	for _, q := range sector.Questions {
		if rec, ok := sess.Store().Record(q.ID); ok && len(rec.Evidence) > 0 {
			refs[q.ID] = rec.Evidence
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.EvidenceStatusResponse{
		SectorID:       sector.ID,
		PendingUploads: sess.Store().PendingUploads(sector),
		Evidence:       refs,
	})
}

// GetPosition handles GET /audits/{id}/position
func (h *AuditHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	auditID := r.PathValue("id")
	if auditID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "audit_id is required")
		return
	}

	sess, err := h.sessions.Get(auditID)
	if errors.Is(err, progression.ErrNoSession) {
		middleware.ErrorResponse(w, http.StatusConflict, "Session not started")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, positionResponse(auditID, sess.Position()))
}

// Next handles POST /audits/{id}/next
func (h *AuditHandler) Next(w http.ResponseWriter, r *http.Request) {
	sess, auditID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	switch err := sess.Next(); {
	case err == nil:
	case errors.Is(err, progression.ErrBlocked):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, progression.ErrSectorEnd):
		middleware.ErrorResponse(w, http.StatusConflict, "Last question of the sector; finalize to continue")
		return
	case errors.Is(err, progression.ErrAuditComplete):
		middleware.ErrorResponse(w, http.StatusConflict, "Audit is already completed")
		return
	default:
		slog.Error("failed to advance", "audit_id", auditID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to advance")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, positionResponse(auditID, sess.Position()))
}

// Previous handles POST /audits/{id}/previous
func (h *AuditHandler) Previous(w http.ResponseWriter, r *http.Request) {
	sess, auditID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	switch err := sess.Previous(); {
	case err == nil:
	case errors.Is(err, progression.ErrAtFirstQuestion):
		middleware.ErrorResponse(w, http.StatusConflict, "Already at the first question of the sector")
		return
	case errors.Is(err, progression.ErrAuditComplete):
		middleware.ErrorResponse(w, http.StatusConflict, "Audit is already completed")
		return
	default:
		slog.Error("failed to go back", "audit_id", auditID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to go back")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, positionResponse(auditID, sess.Position()))
}

// ReopenSector handles POST /audits/{id}/reopen-sector
// Reopening a finalized sector restarts it; the re-finalized result
// supersedes the stored one.
func (h *AuditHandler) ReopenSector(w http.ResponseWriter, r *http.Request) {
	sess, auditID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req models.ReopenSectorRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.SectorID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "sector_id is required")
		return
	}

	if err := sess.ReopenSector(req.SectorID); err != nil {
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	}

	slog.Info("sector reopened", "audit_id", auditID, "sector_id", req.SectorID)

	middleware.JSONResponse(w, http.StatusOK, positionResponse(auditID, sess.Position()))
}

// FinalizeSector handles POST /audits/{id}/finalize-sector
//
// Order matters: check, score, persist, then transition. A persistence
// failure leaves the session on the same sector so the auditor can
// retry without losing anything.
func (h *AuditHandler) FinalizeSector(w http.ResponseWriter, r *http.Request) {
	sess, auditID, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	switch err := sess.FinalizeCheck(); {
	case err == nil:
	case errors.Is(err, progression.ErrBlocked), errors.Is(err, progression.ErrUploadsPending):
		middleware.ErrorResponse(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, progression.ErrAuditComplete):
		middleware.ErrorResponse(w, http.StatusConflict, "Audit is already completed")
		return
	default:
		slog.Error("finalize check failed", "audit_id", auditID, "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to finalize sector")
		return
	}

	sector, err := sess.CurrentSector()
	if err != nil {
		middleware.ErrorResponse(w, http.StatusConflict, "Audit is already completed")
		return
	}

	records := sess.Store().SectorAnswers(sector)
	result := scoring.Compute(sector, records, time.Now(), scoring.Options{Unweighted: h.cfg.Unweighted})

	if err := h.store.SaveSectorResult(auditID, result, records); err != nil {
		slog.Error("failed to persist sector result", "audit_id", auditID, "sector_id", sector.ID, "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Failed to persist sector result")
		return
	}

	auditDone, err := sess.CompleteSector()
	if err != nil {
		middleware.ErrorResponse(w, http.StatusConflict, "Audit is already completed")
		return
	}

	resp := models.FinalizeSectorResponse{
		Result:         result,
		AuditCompleted: auditDone,
	}

	if auditDone {
		if err := h.completeAudit(auditID, result.CompletedAt); err != nil {
			slog.Error("failed to complete audit", "audit_id", auditID, "error", err)
			middleware.ErrorResponse(w, http.StatusBadGateway, "Failed to complete audit")
			return
		}
		slog.Info("audit completed", "audit_id", auditID)
	} else {
		// Re-finalizing a middle sector of a completed audit must
		// refresh the stored totals right away.
		if a, err := h.store.GetAudit(auditID); err == nil && a.Status == models.StatusCompleted {
			endDate := result.CompletedAt
			if a.EndDate != nil {
				endDate = *a.EndDate
			}
			if err := h.completeAudit(auditID, endDate); err != nil {
				slog.Error("failed to refresh audit totals", "audit_id", auditID, "error", err)
			}
		}
		next, err := sess.CurrentSector()
		if err == nil {
			resp.NextSectorID = next.ID
			resp.NextSectorName = next.Name
		}
	}

	slog.Info("sector finalized",
		"audit_id", auditID,
		"sector_id", sector.ID,
		"score", result.Score,
		"conformity", result.ConformityPercentage,
	)

	middleware.JSONResponse(w, http.StatusOK, resp)
}

// completeAudit aggregates the live sector results into the audit-level
// score and closes the audit row.
func (h *AuditHandler) completeAudit(auditID string, endDate time.Time) error {
	results, err := h.store.ListSectorResults(auditID)
	if err != nil {
		return err
	}
	score, pct := scoring.Overall(results, scoring.Options{Unweighted: h.cfg.Unweighted})
	return h.store.FinalizeAudit(auditID, endDate, score, pct)
}
