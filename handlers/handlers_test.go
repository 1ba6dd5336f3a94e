// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ragaudit/rag-audit/catalog"
	"github.com/ragaudit/rag-audit/cliparse"
	"github.com/ragaudit/rag-audit/evidence"
	"github.com/ragaudit/rag-audit/router"
	"github.com/ragaudit/rag-audit/testutil"
)

// env bundles a fresh database, catalog and routed handler stack for one
// test. Each test gets its own; nothing is shared.
type env struct {
	mux  *http.ServeMux
	conn *sql.DB
	cfg  cliparse.Config
	cat  *catalog.Catalog
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithUploader(t, evidence.NewDiskUploader(t.TempDir(), "/evidence"))
}

func newEnvWithUploader(t *testing.T, up evidence.Uploader) *env {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	cat := testutil.SetupCatalog(t)

	return &env{
		mux:  router.NewRouter(conn, cfg, cat, up),
		conn: conn,
		cfg:  cfg,
		cat:  cat,
	}
}

func newUnweightedEnv(t *testing.T) *env {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	cfg.Unweighted = true
	cat := testutil.SetupCatalog(t)
	up := evidence.NewDiskUploader(t.TempDir(), "/evidence")

	return &env{
		mux:  router.NewRouter(conn, cfg, cat, up),
		conn: conn,
		cfg:  cfg,
		cat:  cat,
	}
}

// restart swaps in a fresh handler stack over the same database,
// dropping every in-memory session the way a process restart would.
func (e *env) restart(t *testing.T) {
	t.Helper()
	up := evidence.NewDiskUploader(t.TempDir(), "/evidence")
	e.mux = router.NewRouter(e.conn, e.cfg, e.cat, up)
}

// do routes one JSON request through the full handler stack.
func (e *env) do(method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, testutil.MakeRequest(method, path, body, headers))
	return w
}

func keyHeader(auditKey string) map[string]string {
	return map[string]string{"X-Audit-Key": auditKey}
}
