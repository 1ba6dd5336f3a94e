// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path"

	"github.com/ragaudit/rag-audit/answers"
	"github.com/ragaudit/rag-audit/catalog"
	"github.com/ragaudit/rag-audit/middleware"
	"github.com/ragaudit/rag-audit/report"
	"github.com/ragaudit/rag-audit/storage"
)

// GetResults handles GET /audits/{id}/results
func (h *AuditHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	auditID := r.PathValue("id")
	if auditID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "audit_id is required")
		return
	}

	if _, err := h.store.GetAudit(auditID); errors.Is(err, storage.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Audit not found")
		return
	} else if err != nil {
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

	middleware.JSONResponse(w, http.StatusOK, results)
}

// DownloadReport handles GET /audits/{id}/report/{sectorId}
// Responds with the plain-text sector report as an attachment.
func (h *AuditHandler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	auditID := r.PathValue("id")
	sectorID := r.PathValue("sectorId")
	if auditID == "" || sectorID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "audit_id and sector_id are required")
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

	result, err := h.store.GetSectorResult(auditID, sectorID)
	if errors.Is(err, storage.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Sector has not been finalized")
		return
	}
	if err != nil {
		slog.Error("failed to query sector result", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Database error")
		return
	}

	tpl, ok := h.catalog.Template(a.TemplateID)
	if !ok {
		middleware.ErrorResponse(w, http.StatusConflict, "Audit template is no longer in the catalog")
		return
	}
	sector, ok := tpl.Sector(sectorID)
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Sector not found in template")
		return
	}

	responses, err := h.store.ListResponses(auditID, sectorID)
	if err != nil {
		slog.Error("failed to query responses", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Database error")
		return
	}

	inst, err := h.store.GetInstitution(a.InstitutionID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		slog.Error("failed to query institution", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Database error")
		return
	}

	text := report.Render(report.Input{
		InstitutionName: inst.Name,
		AuditTitle:      a.Title,
		Sector:          sector,
		Result:          result,
		Records:         recordsFromResponses(sector, responses),
	})

	fileName := report.FileName(sector.Name, result.CompletedAt)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(text))
}

// recordsFromResponses rebuilds in-memory answer records from persisted
// rows so the report assembler renders finalized data, not session
// drafts. The value kind comes from the question's declared type.
func recordsFromResponses(sector catalog.Sector, responses []storage.Response) map[string]answers.Record {
	records := make(map[string]answers.Record, len(responses))
	for _, resp := range responses {
		q, ok := sector.Question(resp.QuestionID)
		if !ok {
			continue
		}

		rec := answers.Record{
			QuestionID:  resp.QuestionID,
			Observation: resp.Observation,
		}
		if resp.Answer != nil {
			switch q.Type {
			case catalog.TypeYesNo, catalog.TypeMultipleChoice:
				rec.Value = answers.Choice(*resp.Answer)
			case catalog.TypeNumber:
				var n float64
				if _, err := fmt.Sscanf(*resp.Answer, "%g", &n); err == nil {
					rec.Value = answers.Number(n)
				}
			default:
				rec.Value = answers.Text(*resp.Answer)
			}
		}
		for _, url := range resp.PhotoURLs {
			rec.Evidence = append(rec.Evidence, answers.EvidenceRef{
				FileName: path.Base(url),
				URL:      url,
				Status:   answers.UploadDone,
			})
		}
		records[resp.QuestionID] = rec
	}
	return records
}
