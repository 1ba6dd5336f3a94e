// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package evidence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/ragaudit/rag-audit/answers"
)

// ErrUpload is the transient-I/O error kind for blob store failures.
// The engine does not retry; the caller re-attaches to retry.
var ErrUpload = errors.New("evidence upload failed")

// Uploader sends one evidence file to the blob store and returns its
// stable URL.
type Uploader interface {
	Upload(ctx context.Context, auditID, questionID, fileName string, content io.Reader) (string, error)
}

// File is one evidence file received from the client, held in memory
// until its upload resolves.
type File struct {
	Name    string
	Content []byte
}

// ResolveAsync uploads the attached files in the background and flips
// each ref's status in the answer store as results come in. refs and
// files correspond by index (both come from the same attach call).
// Fire-and-forget: progress is observable through the store's
// per-question upload status.
func ResolveAsync(up Uploader, store *answers.Store, auditID, questionID string, files []File, refs []answers.EvidenceRef) {
	go func() {
		for i, f := range files {
			ref := refs[i]
			url, err := up.Upload(context.Background(), auditID, questionID, f.Name, bytes.NewReader(f.Content))
			if err != nil {
				slog.Warn("evidence upload failed",
					"audit_id", auditID, "question_id", questionID, "file", f.Name, "error", err)
				if err := store.MarkFailed(questionID, ref.ID); err != nil {
					slog.Debug("stale upload result dropped", "ref_id", ref.ID)
				}
				continue
			}
			if err := store.MarkUploaded(questionID, ref.ID, url); err != nil {
				slog.Debug("stale upload result dropped", "ref_id", ref.ID)
				continue
			}
			slog.Info("evidence uploaded",
				"audit_id", auditID, "question_id", questionID, "file", f.Name, "url", url)
		}
	}()
}

// DiskUploader stores evidence files under a local root directory and
// serves them by URL. Stands in for the external blob store; the
// handler stack only sees the Uploader interface.
type DiskUploader struct {
	root    string
	baseURL string
}

// NewDiskUploader creates an uploader rooted at dir. baseURL prefixes
// the returned URLs (e.g. "/evidence").
func NewDiskUploader(dir, baseURL string) *DiskUploader {
	return &DiskUploader{root: dir, baseURL: baseURL}
}

// Upload writes the file to <root>/<auditID>/<questionID>/<fileName>
// and returns its URL.
func (d *DiskUploader) Upload(ctx context.Context, auditID, questionID, fileName string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	// Never trust the client-supplied name for path construction.
	safeName := filepath.Base(fileName)
	dir := filepath.Join(d.root, auditID, questionID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	dst, err := os.Create(filepath.Join(dir, safeName))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, content); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}

	return path.Join(d.baseURL, auditID, questionID, safeName), nil
}
