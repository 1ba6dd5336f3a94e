// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"testing"
	"time"

	"github.com/ragaudit/rag-audit/models"
	"github.com/ragaudit/rag-audit/testutil"
)

// startedAudit creates an institution, an audit and an open session.
func startedAudit(t *testing.T, e *env) (auditID, auditKey string) {
	t.Helper()

	instID := testutil.CreateTestInstitution(t, e.conn, "Hospital Central")
	auditID, auditKey = testutil.CreateTestAudit(t, e.conn, e.cfg, instID, "hospital-test")

	w := e.do("POST", "/audits/"+auditID+"/start", nil, keyHeader(auditKey))
	testutil.AssertStatus(t, w, http.StatusOK)
	return auditID, auditKey
}

func (e *env) answer(t *testing.T, auditID, auditKey, questionID, rawJSON string) *httptest.ResponseRecorder {
	t.Helper()
	return e.do("POST", "/audits/"+auditID+"/answer", models.SetAnswerRequest{
		QuestionID: questionID,
		Answer:     json.RawMessage(rawJSON),
	}, keyHeader(auditKey))
}

func (e *env) finalize(t *testing.T, auditID, auditKey string) (*httptest.ResponseRecorder, models.FinalizeSectorResponse) {
	t.Helper()
	w := e.do("POST", "/audits/"+auditID+"/finalize-sector", nil, keyHeader(auditKey))
	var resp models.FinalizeSectorResponse
	if w.Code == http.StatusOK {
		testutil.AssertJSON(t, w, &resp)
	}
	return w, resp
}

func TestAuditWalkthrough(t *testing.T) {
	e := newEnv(t)
	auditID, auditKey := startedAudit(t, e)

	// Required question unanswered: Next is refused and position holds.
	w := e.do("POST", "/audits/"+auditID+"/next", nil, keyHeader(auditKey))
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = e.do("GET", "/audits/"+auditID+"/position", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var pos models.PositionResponse
	testutil.AssertJSON(t, w, &pos)
	if pos.QuestionIndex != 0 {
		t.Fatalf("Blocked next must not move, at index %d", pos.QuestionIndex)
	}

	w = e.answer(t, auditID, auditKey, "uti-higiene", `"sim"`)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = e.do("POST", "/audits/"+auditID+"/next", nil, keyHeader(auditKey))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &pos)
	if pos.Question == nil || pos.Question.ID != "uti-leitos" {
		t.Fatalf("Expected uti-leitos, got %+v", pos.Question)
	}

	// JSON string against a number question
	w = e.answer(t, auditID, auditKey, "uti-leitos", `"doze"`)
	testutil.AssertStatus(t, w, http.StatusUnprocessableEntity)

	// Zero is a real answer.
	w = e.answer(t, auditID, auditKey, "uti-leitos", `0`)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &pos)
	if !pos.CanProceed {
		t.Error("Numeric 0 must count as answered")
	}

	w = e.do("POST", "/audits/"+auditID+"/next", nil, keyHeader(auditKey))
	testutil.AssertStatus(t, w, http.StatusOK)

	// uti-epi is optional; Next from the last question points at
	// finalization instead of advancing.
	w = e.do("POST", "/audits/"+auditID+"/next", nil, keyHeader(auditKey))
	testutil.AssertStatus(t, w, http.StatusConflict)

	w, fin := e.finalize(t, auditID, auditKey)
	testutil.AssertStatus(t, w, http.StatusOK)
	if fin.AuditCompleted {
		t.Fatal("First of two sectors must not complete the audit")
	}
	if fin.NextSectorID != "farmacia" {
		t.Errorf("Expected next sector farmacia, got %q", fin.NextSectorID)
	}
	// sim (weight 2) + leitos (1) conformant, optional photo (1) without
	// evidence is not: 3/4 weighted.
	if fin.Result.ConformityPercentage != 75 || fin.Result.Score != 750 {
		t.Errorf("Expected 75%%/750, got %f/%d", fin.Result.ConformityPercentage, fin.Result.Score)
	}
	if fin.Result.Rating != "Regular" {
		t.Errorf("Expected Regular, got %q", fin.Result.Rating)
	}

	w = e.answer(t, auditID, auditKey, "far-validade", `"nao"`)
	testutil.AssertStatus(t, w, http.StatusOK)

	w, fin = e.finalize(t, auditID, auditKey)
	testutil.AssertStatus(t, w, http.StatusOK)
	if !fin.AuditCompleted {
		t.Fatal("Last sector must complete the audit")
	}

	// Audit row now carries the aggregated totals: 3/5 weighted.
	w = e.do("GET", "/audits/"+auditID, nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var detail struct {
		Audit models.Audit `json:"audit"`
	}
	testutil.AssertJSON(t, w, &detail)
	if detail.Audit.Status != models.StatusCompleted {
		t.Errorf("Expected completed, got %q", detail.Audit.Status)
	}
	if detail.Audit.TotalScore == nil || *detail.Audit.TotalScore != 600 {
		t.Errorf("Expected total score 600, got %v", detail.Audit.TotalScore)
	}
	if detail.Audit.ConformityPercentage == nil || *detail.Audit.ConformityPercentage != 60 {
		t.Errorf("Expected conformity 60, got %v", detail.Audit.ConformityPercentage)
	}
	if detail.Audit.EndDate == nil {
		t.Error("Expected end_date on completion")
	}
}

func TestExecutionRequiresSession(t *testing.T) {
	e := newEnv(t)
	instID := testutil.CreateTestInstitution(t, e.conn, "Hospital Central")
	auditID, auditKey := testutil.CreateTestAudit(t, e.conn, e.cfg, instID, "hospital-test")

	// No session started yet.
	w := e.answer(t, auditID, auditKey, "uti-higiene", `"sim"`)
	testutil.AssertStatus(t, w, http.StatusConflict)

	// Wrong key beats the session check.
	w = e.answer(t, auditID, "bogus", "uti-higiene", `"sim"`)
	testutil.AssertStatus(t, w, http.StatusUnauthorized)
}

func TestAnswerOutsideCurrentSector(t *testing.T) {
	e := newEnv(t)
	auditID, auditKey := startedAudit(t, e)

	// far-validade belongs to the second sector.
	w := e.answer(t, auditID, auditKey, "far-validade", `"sim"`)
	testutil.AssertStatus(t, w, http.StatusUnprocessableEntity)
}

func TestPreviousAtFirstQuestion(t *testing.T) {
	e := newEnv(t)
	auditID, auditKey := startedAudit(t, e)

	w := e.do("POST", "/audits/"+auditID+"/previous", nil, keyHeader(auditKey))
	testutil.AssertStatus(t, w, http.StatusConflict)
}

func TestSetObservation(t *testing.T) {
	e := newEnv(t)
	auditID, auditKey := startedAudit(t, e)

	// An observation needs no answer first.
	w := e.do("POST", "/audits/"+auditID+"/observation", models.SetObservationRequest{
		QuestionID:  "uti-higiene",
		Observation: "Dispensers vazios no corredor B",
	}, keyHeader(auditKey))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func attachEvidence(t *testing.T, e *env, auditID, auditKey, questionID string, fileNames ...string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if err := mw.WriteField("question_id", questionID); err != nil {
		t.Fatalf("Failed to write form field: %v", err)
	}
	for _, name := range fileNames {
		part, err := mw.CreateFormFile("photos", name)
		if err != nil {
			t.Fatalf("Failed to create form file: %v", err)
		}
		io.Copy(part, strings.NewReader("fake image bytes"))
	}
	mw.Close()

	req := httptest.NewRequest("POST", "/audits/"+auditID+"/evidence", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Audit-Key", auditKey)

	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func waitForUploads(t *testing.T, e *env, auditID string) models.EvidenceStatusResponse {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for {
		w := e.do("GET", "/audits/"+auditID+"/evidence-status", nil, nil)
		testutil.AssertStatus(t, w, http.StatusOK)

		var status models.EvidenceStatusResponse
		testutil.AssertJSON(t, w, &status)
		if status.PendingUploads == 0 {
			return status
		}
		if time.Now().After(deadline) {
			t.Fatalf("Uploads never resolved: %+v", status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestEvidenceFlow(t *testing.T) {
	e := newEnv(t)
	auditID, auditKey := startedAudit(t, e)

	w := attachEvidence(t, e, auditID, auditKey, "uti-epi", "estoque.jpg", "epi.jpg")
	testutil.AssertStatus(t, w, http.StatusAccepted)

	var attached models.AttachEvidenceResponse
	testutil.AssertJSON(t, w, &attached)
	if len(attached.Evidence) != 2 {
		t.Fatalf("Expected 2 refs, got %d", len(attached.Evidence))
	}
	for _, ref := range attached.Evidence {
		if ref.Status != "pending" {
			t.Errorf("Fresh ref must be pending, got %q", ref.Status)
		}
	}

	status := waitForUploads(t, e, auditID)
	refs := status.Evidence["uti-epi"]
	if len(refs) != 2 {
		t.Fatalf("Expected 2 resolved refs, got %d", len(refs))
	}
	for _, ref := range refs {
		if ref.Status != "uploaded" || ref.URL == "" {
			t.Errorf("Expected a resolved URL, got %+v", ref)
		}
		if path.Base(ref.URL) != ref.FileName {
			t.Errorf("URL %q does not end in %q", ref.URL, ref.FileName)
		}
	}
}

// gateUploader blocks every upload until released, so pending state is
// observable without racing the goroutine.
type gateUploader struct {
	release chan struct{}
}

func (g *gateUploader) Upload(ctx context.Context, auditID, questionID, fileName string, content io.Reader) (string, error) {
	<-g.release
	return path.Join("/evidence", auditID, questionID, fileName), nil
}

func TestFinalizeBlockedByPendingUploads(t *testing.T) {
	gate := &gateUploader{release: make(chan struct{})}
	e := newEnvWithUploader(t, gate)
	auditID, auditKey := startedAudit(t, e)

	e.answer(t, auditID, auditKey, "uti-higiene", `"sim"`)
	e.answer(t, auditID, auditKey, "uti-leitos", `12`)

	w := attachEvidence(t, e, auditID, auditKey, "uti-epi", "estoque.jpg")
	testutil.AssertStatus(t, w, http.StatusAccepted)

	w, _ = e.finalize(t, auditID, auditKey)
	testutil.AssertStatus(t, w, http.StatusConflict)

	close(gate.release)
	waitForUploads(t, e, auditID)

	w, fin := e.finalize(t, auditID, auditKey)
	testutil.AssertStatus(t, w, http.StatusOK)
	// All four weighted points now, photo included.
	if fin.Result.ConformityPercentage != 100 {
		t.Errorf("Expected 100%%, got %f", fin.Result.ConformityPercentage)
	}
}

func TestReopenSectorSupersedes(t *testing.T) {
	e := newEnv(t)
	auditID, auditKey := startedAudit(t, e)

	e.answer(t, auditID, auditKey, "uti-higiene", `"sim"`)
	e.answer(t, auditID, auditKey, "uti-leitos", `12`)
	w, _ := e.finalize(t, auditID, auditKey)
	testutil.AssertStatus(t, w, http.StatusOK)

	e.answer(t, auditID, auditKey, "far-validade", `"nao"`)
	w, fin := e.finalize(t, auditID, auditKey)
	testutil.AssertStatus(t, w, http.StatusOK)
	if !fin.AuditCompleted {
		t.Fatal("Expected audit completion")
	}

	// A sector id outside the template is refused.
	w = e.do("POST", "/audits/"+auditID+"/reopen-sector", models.ReopenSectorRequest{SectorID: "centro"}, keyHeader(auditKey))
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = e.do("POST", "/audits/"+auditID+"/reopen-sector", models.ReopenSectorRequest{SectorID: "farmacia"}, keyHeader(auditKey))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = e.answer(t, auditID, auditKey, "far-validade", `"sim"`)
	testutil.AssertStatus(t, w, http.StatusOK)

	w, fin = e.finalize(t, auditID, auditKey)
	testutil.AssertStatus(t, w, http.StatusOK)
	if !fin.AuditCompleted {
		t.Fatal("Re-finalizing the last sector completes the audit again")
	}
	if fin.Result.ConformityPercentage != 100 {
		t.Errorf("Expected re-audited farmacia at 100%%, got %f", fin.Result.ConformityPercentage)
	}

	// One live result per sector; the old farmacia row is kept superseded.
	var live, total int
	e.conn.QueryRow("SELECT COUNT(*) FROM sector_result WHERE audit_id = $1 AND superseded = 0", auditID).Scan(&live)
	e.conn.QueryRow("SELECT COUNT(*) FROM sector_result WHERE audit_id = $1", auditID).Scan(&total)
	if live != 2 || total != 3 {
		t.Errorf("Expected 2 live of 3 rows, got %d of %d", live, total)
	}

	// Audit totals reflect the superseding result: 4/5 weighted.
	w = e.do("GET", "/audits/"+auditID, nil, nil)
	var detail struct {
		Audit models.Audit `json:"audit"`
	}
	testutil.AssertJSON(t, w, &detail)
	if detail.Audit.TotalScore == nil || *detail.Audit.TotalScore != 800 {
		t.Errorf("Expected refreshed total 800, got %v", detail.Audit.TotalScore)
	}
}

func TestReopenSurvivesRestart(t *testing.T) {
	e := newEnv(t)
	auditID, auditKey := startedAudit(t, e)

	e.answer(t, auditID, auditKey, "uti-higiene", `"sim"`)
	e.answer(t, auditID, auditKey, "uti-leitos", `12`)
	w, _ := e.finalize(t, auditID, auditKey)
	testutil.AssertStatus(t, w, http.StatusOK)

	e.answer(t, auditID, auditKey, "far-validade", `"nao"`)
	w, fin := e.finalize(t, auditID, auditKey)
	testutil.AssertStatus(t, w, http.StatusOK)
	if !fin.AuditCompleted {
		t.Fatal("Expected audit completion")
	}

	e.restart(t)

	// The rebuilt session fast-forwards past every finalized sector.
	w = e.do("POST", "/audits/"+auditID+"/start", nil, keyHeader(auditKey))
	testutil.AssertStatus(t, w, http.StatusOK)
	var pos models.PositionResponse
	testutil.AssertJSON(t, w, &pos)
	if !pos.Completed {
		t.Fatalf("Expected resumed session to be completed, got position %+v", pos)
	}

	w = e.do("POST", "/audits/"+auditID+"/reopen-sector", models.ReopenSectorRequest{SectorID: "farmacia"}, keyHeader(auditKey))
	testutil.AssertStatus(t, w, http.StatusOK)

	w = e.answer(t, auditID, auditKey, "far-validade", `"sim"`)
	testutil.AssertStatus(t, w, http.StatusOK)

	w, fin = e.finalize(t, auditID, auditKey)
	testutil.AssertStatus(t, w, http.StatusOK)
	if !fin.AuditCompleted {
		t.Fatal("Re-finalizing the last sector completes the audit again")
	}

	w = e.do("GET", "/audits/"+auditID, nil, nil)
	var detail struct {
		Audit models.Audit `json:"audit"`
	}
	testutil.AssertJSON(t, w, &detail)
	if detail.Audit.TotalScore == nil || *detail.Audit.TotalScore != 800 {
		t.Errorf("Expected refreshed total 800, got %v", detail.Audit.TotalScore)
	}
}

func TestUnweightedAuditTotals(t *testing.T) {
	e := newUnweightedEnv(t)
	auditID, auditKey := startedAudit(t, e)

	// Unweighted uti: 2 of 3 questions conformant regardless of weights.
	e.answer(t, auditID, auditKey, "uti-higiene", `"sim"`)
	e.answer(t, auditID, auditKey, "uti-leitos", `12`)
	w, fin := e.finalize(t, auditID, auditKey)
	testutil.AssertStatus(t, w, http.StatusOK)
	if got := fin.Result.ConformityPercentage; got < 66.6 || got > 66.7 {
		t.Errorf("Expected unweighted sector at 2/3, got %f", got)
	}

	e.answer(t, auditID, auditKey, "far-validade", `"nao"`)
	w, fin = e.finalize(t, auditID, auditKey)
	testutil.AssertStatus(t, w, http.StatusOK)
	if !fin.AuditCompleted {
		t.Fatal("Expected audit completion")
	}

	// Audit total counts questions, not weights: 2 of 4 conformant.
	// The weighted formula over the same answers would give 60%.
	w = e.do("GET", "/audits/"+auditID, nil, nil)
	var detail struct {
		Audit models.Audit `json:"audit"`
	}
	testutil.AssertJSON(t, w, &detail)
	if detail.Audit.TotalScore == nil || *detail.Audit.TotalScore != 500 {
		t.Errorf("Expected unweighted total 500, got %v", detail.Audit.TotalScore)
	}
	if detail.Audit.ConformityPercentage == nil || *detail.Audit.ConformityPercentage != 50 {
		t.Errorf("Expected unweighted conformity 50, got %v", detail.Audit.ConformityPercentage)
	}
}

func TestResultsAndReport(t *testing.T) {
	e := newEnv(t)
	auditID, auditKey := startedAudit(t, e)

	e.answer(t, auditID, auditKey, "uti-higiene", `"sim"`)
	e.do("POST", "/audits/"+auditID+"/observation", models.SetObservationRequest{
		QuestionID:  "uti-higiene",
		Observation: "Reposição diária confirmada",
	}, keyHeader(auditKey))
	e.answer(t, auditID, auditKey, "uti-leitos", `12`)
	w, _ := e.finalize(t, auditID, auditKey)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = e.do("GET", "/audits/"+auditID+"/results", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	var results []json.RawMessage
	testutil.AssertJSON(t, w, &results)
	if len(results) != 1 {
		t.Errorf("Expected 1 live result, got %d", len(results))
	}

	// Report for a sector that was never finalized
	w = e.do("GET", "/audits/"+auditID+"/report/farmacia", nil, nil)
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w = e.do("GET", "/audits/"+auditID+"/report/uti", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("Unexpected content type %q", ct)
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.Contains(cd, "attachment") || !strings.Contains(cd, "relatorio-auditoria-UTI-") {
		t.Errorf("Unexpected content disposition %q", cd)
	}

	body := w.Body.String()
	if !strings.Contains(body, "RELATÓRIO DE AUDITORIA HOSPITALAR - RAG") {
		t.Error("Missing report header")
	}
	if !strings.Contains(body, "Instituição: Hospital Central") {
		t.Error("Missing institution line")
	}
	if !strings.Contains(body, "Resposta: sim") {
		t.Error("Missing persisted answer")
	}
	if !strings.Contains(body, "Observações: Reposição diária confirmada") {
		t.Error("Missing persisted observation")
	}
	if !strings.Contains(body, "Resposta: 12") {
		t.Error("Missing numeric answer")
	}
}
