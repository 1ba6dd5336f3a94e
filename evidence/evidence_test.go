// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package evidence

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragaudit/rag-audit/answers"
)

func TestDiskUploader(t *testing.T) {
	root := t.TempDir()
	up := NewDiskUploader(root, "/evidence")

	url, err := up.Upload(context.Background(), "a1", "q1", "foto.jpg", strings.NewReader("conteúdo"))
	require.NoError(t, err)
	assert.Equal(t, "/evidence/a1/q1/foto.jpg", url)

	data, err := os.ReadFile(filepath.Join(root, "a1", "q1", "foto.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "conteúdo", string(data))
}

func TestDiskUploaderStripsPath(t *testing.T) {
	root := t.TempDir()
	up := NewDiskUploader(root, "/evidence")

	url, err := up.Upload(context.Background(), "a1", "q1", "../../../etc/passwd", strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "/evidence/a1/q1/passwd", url)

	_, err = os.Stat(filepath.Join(root, "a1", "q1", "passwd"))
	assert.NoError(t, err, "file must land inside the audit's directory")
}

func TestDiskUploaderCancelledContext(t *testing.T) {
	up := NewDiskUploader(t.TempDir(), "/evidence")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := up.Upload(ctx, "a1", "q1", "foto.jpg", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUpload)
}

// fakeUploader resolves uploads from a scripted outcome per file name and
// records each call.
type fakeUploader struct {
	mu    sync.Mutex
	fail  map[string]bool
	calls []string
}

func (f *fakeUploader) Upload(ctx context.Context, auditID, questionID, fileName string, content io.Reader) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fileName)
	fail := f.fail[fileName]
	f.mu.Unlock()
	if fail {
		return "", errors.New("blob store unavailable")
	}
	return "/evidence/" + auditID + "/" + questionID + "/" + fileName, nil
}

func TestResolveAsync(t *testing.T) {
	store := answers.NewStore()
	files := []File{
		{Name: "ok.jpg", Content: []byte("a")},
		{Name: "bad.jpg", Content: []byte("b")},
	}
	refs := store.AttachEvidence("q1", []string{"ok.jpg", "bad.jpg"})

	up := &fakeUploader{fail: map[string]bool{"bad.jpg": true}}
	ResolveAsync(up, store, "a1", "q1", files, refs)

	require.Eventually(t, func() bool {
		rec, ok := store.Record("q1")
		if !ok {
			return false
		}
		for _, ev := range rec.Evidence {
			if ev.Status == answers.UploadPending {
				return false
			}
		}
		return true
	}, 5*time.Second, 10*time.Millisecond, "uploads did not resolve")

	rec, _ := store.Record("q1")
	require.Len(t, rec.Evidence, 2)

	byName := map[string]answers.EvidenceRef{}
	for _, ev := range rec.Evidence {
		byName[ev.FileName] = ev
	}
	assert.Equal(t, answers.UploadDone, byName["ok.jpg"].Status)
	assert.Equal(t, "/evidence/a1/q1/ok.jpg", byName["ok.jpg"].URL)
	assert.Equal(t, answers.UploadFailed, byName["bad.jpg"].Status)
	assert.Empty(t, byName["bad.jpg"].URL)

	// Only the resolved upload counts as usable evidence.
	assert.Equal(t, []string{"/evidence/a1/q1/ok.jpg"}, rec.UploadedURLs())
}

func TestResolveAsyncStaleRefs(t *testing.T) {
	store := answers.NewStore()
	files := []File{{Name: "old.jpg", Content: []byte("a")}}
	oldRefs := store.AttachEvidence("q1", []string{"old.jpg"})

	// Replacement before the upload resolves; the stale result must not
	// touch the new refs.
	store.AttachEvidence("q1", []string{"new.jpg"})

	up := &fakeUploader{}
	ResolveAsync(up, store, "a1", "q1", files, oldRefs)

	require.Eventually(t, func() bool {
		up.mu.Lock()
		defer up.mu.Unlock()
		return len(up.calls) == 1
	}, 5*time.Second, 10*time.Millisecond)
	// Give the goroutine a beat to apply (and discard) the stale result.
	time.Sleep(50 * time.Millisecond)

	rec, _ := store.Record("q1")
	require.Len(t, rec.Evidence, 1)
	assert.Equal(t, "new.jpg", rec.Evidence[0].FileName)
	assert.Equal(t, answers.UploadPending, rec.Evidence[0].Status)
}
