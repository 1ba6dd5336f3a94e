// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/ragaudit/rag-audit/auth"
	"github.com/ragaudit/rag-audit/catalog"
	"github.com/ragaudit/rag-audit/cliparse"
	"github.com/ragaudit/rag-audit/db"
	"github.com/ragaudit/rag-audit/models"
	"github.com/ragaudit/rag-audit/storage"
)

// SetupTestDB creates a fresh SQLite database in a temp dir with the
// full schema. The schema is the same one production runs; only the
// driver differs.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rag-audit-test.db")
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// One connection keeps SQLite from returning busy errors under
	// the upload goroutines.
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	t.Cleanup(func() { conn.Close() })
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3318,
		DatabaseURL:     "file:test.db",
		DatabaseType:    "sqlite",
		AuditKeySalt:    "test-audit-salt",
		CatalogDir:      "templates",
		EvidenceDir:     "evidence",
		EvidenceBaseURL: "/evidence",
	}
}

// TestTemplateYAML is the checklist used across handler tests: two
// sectors, with every question type that matters for gating.
const TestTemplateYAML = `id: hospital-test
name: Checklist Hospitalar de Teste
version: "1"
sectors:
  - id: uti
    name: UTI
    questions:
      - id: uti-higiene
        text: Dispensers de álcool em gel disponíveis?
        type: yes_no
        category: Higiene
        indicator: Higienização das mãos
        required: true
        weight: 2
      - id: uti-leitos
        text: Quantos leitos estão operacionais?
        type: number
        category: Estrutura
        indicator: Capacidade instalada
        required: true
      - id: uti-epi
        text: Foto do estoque de EPI
        type: photo_evidence
        category: Segurança
        indicator: Equipamentos de proteção
        required: false
  - id: farmacia
    name: Farmácia
    questions:
      - id: far-validade
        text: Medicamentos dentro da validade?
        type: yes_no
        category: Medicamentos
        indicator: Controle de validade
        required: true
`

// SetupCatalog writes the test template to a temp dir and loads it.
func SetupCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "hospital-test.yaml"), []byte(TestTemplateYAML), 0o644); err != nil {
		t.Fatalf("Failed to write test template: %v", err)
	}
	cat, err := catalog.LoadDir(dir)
	if err != nil {
		t.Fatalf("Failed to load test catalog: %v", err)
	}
	return cat
}

// CreateTestInstitution inserts an institution and returns its ID.
func CreateTestInstitution(t *testing.T, conn *sql.DB, name string) string {
	t.Helper()

	id, _ := auth.GenerateID(16)
	store := storage.NewStore(conn)
	err := store.CreateInstitution(models.Institution{
		ID:        id,
		Name:      name,
		City:      "São Paulo",
		State:     "SP",
		CreatedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("Failed to create test institution: %v", err)
	}
	return id
}

// CreateTestAudit inserts an in-progress audit and returns its ID and key.
func CreateTestAudit(t *testing.T, conn *sql.DB, cfg cliparse.Config, institutionID, templateID string) (auditID, auditKey string) {
	t.Helper()

	auditID, _ = auth.GenerateID(16)
	auditKey = auth.GenerateAuditKey(auditID, cfg.AuditKeySalt)

	now := time.Now()
	store := storage.NewStore(conn)
	err := store.CreateAudit(models.Audit{
		ID:            auditID,
		InstitutionID: institutionID,
		TemplateID:    templateID,
		Title:         "Auditoria de Teste",
		Auditors:      []string{"Dra. Ana"},
		Status:        models.StatusInProgress,
		StartDate:     &now,
		CreatedAt:     now,
	}, auth.HashAuditKey(auditKey))
	if err != nil {
		t.Fatalf("Failed to create test audit: %v", err)
	}

	return auditID, auditKey
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
