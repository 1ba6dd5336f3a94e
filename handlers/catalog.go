// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/ragaudit/rag-audit/catalog"
	"github.com/ragaudit/rag-audit/middleware"
)

type CatalogHandler struct {
	catalog *catalog.Catalog
}

func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// ListTemplates handles GET /templates
func (h *CatalogHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	middleware.JSONResponse(w, http.StatusOK, h.catalog.Templates())
}

// GetTemplate handles GET /templates/{id}
func (h *CatalogHandler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	templateID := r.PathValue("id")
	if templateID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "template_id is required")
		return
	}

	tpl, ok := h.catalog.Template(templateID)
	if !ok {
		middleware.ErrorResponse(w, http.StatusNotFound, "Template not found")
		return
	}

	middleware.JSONResponse(w, http.StatusOK, tpl)
}
