// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ragaudit/rag-audit/auth"
	"github.com/ragaudit/rag-audit/middleware"
	"github.com/ragaudit/rag-audit/models"
	"github.com/ragaudit/rag-audit/storage"
)

type InstitutionHandler struct {
	store *storage.Store
}

func NewInstitutionHandler(store *storage.Store) *InstitutionHandler {
	return &InstitutionHandler{store: store}
}

// CreateInstitution handles POST /institutions
func (h *InstitutionHandler) CreateInstitution(w http.ResponseWriter, r *http.Request) {
	var req models.CreateInstitutionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	// Validate input
	if req.Name == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "name is required")
		return
	}

	institutionID, err := auth.GenerateID(16)
	if err != nil {
		slog.Error("failed to generate institution ID", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create institution")
		return
	}

	inst := models.Institution{
		ID:        institutionID,
		Name:      req.Name,
		CNPJ:      req.CNPJ,
		Address:   req.Address,
		City:      req.City,
		State:     req.State,
		ZipCode:   req.ZipCode,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: time.Now(),
	}

	if err := h.store.CreateInstitution(inst); err != nil {
		slog.Error("failed to insert institution", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Failed to create institution")
		return
	}

	slog.Info("institution created", "institution_id", institutionID, "name", req.Name)

	middleware.JSONResponse(w, http.StatusCreated, models.CreateInstitutionResponse{
		InstitutionID: institutionID,
	})
}

// ListInstitutions handles GET /institutions
func (h *InstitutionHandler) ListInstitutions(w http.ResponseWriter, r *http.Request) {
	institutions, err := h.store.ListInstitutions()
	if err != nil {
		slog.Error("failed to query institutions", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, institutions)
}

// GetInstitution handles GET /institutions/{id}
func (h *InstitutionHandler) GetInstitution(w http.ResponseWriter, r *http.Request) {
	institutionID := r.PathValue("id")
	if institutionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "institution_id is required")
		return
	}

	inst, err := h.store.GetInstitution(institutionID)
	if errors.Is(err, storage.ErrNotFound) {
		middleware.ErrorResponse(w, http.StatusNotFound, "Institution not found")
		return
	}
	if err != nil {
		slog.Error("failed to query institution", "error", err)
		middleware.ErrorResponse(w, http.StatusBadGateway, "Database error")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, inst)
}
