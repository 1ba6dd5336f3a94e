// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package answers

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ragaudit/rag-audit/catalog"
)

var (
	ErrTypeMismatch  = errors.New("answer value does not match question type")
	ErrInvalidOption = errors.New("answer is not one of the question's options")
	ErrNoEvidenceRef = errors.New("unknown evidence reference")
)

// Evidence upload status values
const (
	UploadPending = "pending"
	UploadDone    = "uploaded"
	UploadFailed  = "failed"
)

// EvidenceRef is one attached evidence file. URL is empty until the
// external upload resolves.
type EvidenceRef struct {
	ID       string `json:"id"`
	FileName string `json:"file_name"`
	URL      string `json:"url,omitempty"`
	Status   string `json:"status"`
}

// Record is the mutable per-question state for one audit. Created
// lazily on first interaction, mutated in place, never deleted except
// by overwrite.
type Record struct {
	QuestionID  string
	Value       Value
	Observation string
	Evidence    []EvidenceRef
}

// UploadedURLs returns the URLs of evidence that finished uploading.
func (r Record) UploadedURLs() []string {
	var urls []string
	for _, ev := range r.Evidence {
		if ev.Status == UploadDone {
			urls = append(urls, ev.URL)
		}
	}
	return urls
}

// HasEvidence reports whether at least one evidence file is attached,
// regardless of upload status.
func (r Record) HasEvidence() bool {
	return len(r.Evidence) > 0
}

// Store holds the answer records for one audit while it is being
// edited. There is exactly one logical writer (the audit editor), but
// upload goroutines report status concurrently, so access is locked.
type Store struct {
	mu      sync.Mutex
	records map[string]*Record
}

// NewStore creates an empty answer store.
func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// SetAnswer stores or overwrites the raw value for a question after
// validating it against the question's declared type. On rejection the
// prior value is kept.
func (s *Store) SetAnswer(q catalog.Question, v Value) error {
	switch q.Type {
	case catalog.TypeYesNo:
		if v.Kind() != KindChoice {
			return ErrTypeMismatch
		}
		if c := v.ChoiceValue(); c != catalog.AnswerYes && c != catalog.AnswerNo {
			return fmt.Errorf("%w: want %q or %q", ErrInvalidOption, catalog.AnswerYes, catalog.AnswerNo)
		}
	case catalog.TypeMultipleChoice:
		if v.Kind() != KindChoice {
			return ErrTypeMismatch
		}
		if !q.HasOption(v.ChoiceValue()) {
			return fmt.Errorf("%w: %q", ErrInvalidOption, v.ChoiceValue())
		}
	case catalog.TypeText:
		if v.Kind() != KindText {
			return ErrTypeMismatch
		}
	case catalog.TypeNumber:
		if v.Kind() != KindNumber {
			return ErrTypeMismatch
		}
	case catalog.TypePhotoEvidence:
		// Photo questions are answered by attaching evidence, not by value.
		return ErrTypeMismatch
	default:
		return ErrTypeMismatch
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(q.ID).Value = v
	return nil
}

// SetObservation stores or overwrites the free-text note for a
// question. Always allowed.
func (s *Store) SetObservation(questionID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(questionID).Observation = text
}

// AttachEvidence replaces the question's evidence list with pending
// references for the given file names. Re-attaching replaces, it does
// not merge. The returned refs are resolved asynchronously via
// MarkUploaded/MarkFailed.
func (s *Store) AttachEvidence(questionID string, fileNames []string) []EvidenceRef {
	refs := make([]EvidenceRef, len(fileNames))
	for i, name := range fileNames {
		refs[i] = EvidenceRef{
			ID:       uuid.NewString(),
			FileName: name,
			Status:   UploadPending,
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(questionID).Evidence = append([]EvidenceRef(nil), refs...)
	return refs
}

// MarkUploaded records the resolved URL for a pending evidence ref.
func (s *Store) MarkUploaded(questionID, refID, url string) error {
	return s.resolve(questionID, refID, func(ref *EvidenceRef) {
		ref.URL = url
		ref.Status = UploadDone
	})
}

// MarkFailed records a definitive upload failure for a pending ref.
// The question stays answerable; the caller may re-attach to retry.
func (s *Store) MarkFailed(questionID, refID string) error {
	return s.resolve(questionID, refID, func(ref *EvidenceRef) {
		ref.Status = UploadFailed
	})
}

func (s *Store) resolve(questionID, refID string, apply func(*EvidenceRef)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[questionID]
	if !ok {
		return ErrNoEvidenceRef
	}
	for i := range rec.Evidence {
		if rec.Evidence[i].ID == refID {
			apply(&rec.Evidence[i])
			return nil
		}
	}
	// The ref may have been replaced by a newer AttachEvidence call;
	// the stale upload result is simply dropped.
	return ErrNoEvidenceRef
}

// Record returns a copy of the record for a question, if any.
func (s *Store) Record(questionID string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[questionID]
	if !ok {
		return Record{}, false
	}
	return copyRecord(rec), true
}

// SectorAnswers returns copies of all records belonging to the sector's
// questions, keyed by question id, for the scoring engine.
func (s *Store) SectorAnswers(sector catalog.Sector) map[string]Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]Record)
	for _, q := range sector.Questions {
		if rec, ok := s.records[q.ID]; ok {
			out[q.ID] = copyRecord(rec)
		}
	}
	return out
}

// PendingUploads counts evidence refs in the sector that have neither
// resolved nor definitively failed. Sector finalization waits for zero.
func (s *Store) PendingUploads(sector catalog.Sector) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, q := range sector.Questions {
		rec, ok := s.records[q.ID]
		if !ok {
			continue
		}
		for _, ev := range rec.Evidence {
			if ev.Status == UploadPending {
				n++
			}
		}
	}
	return n
}

// record returns the live record for a question, creating it lazily.
// Caller must hold the lock.
func (s *Store) record(questionID string) *Record {
	rec, ok := s.records[questionID]
	if !ok {
		rec = &Record{QuestionID: questionID}
		s.records[questionID] = rec
	}
	return rec
}

func copyRecord(rec *Record) Record {
	out := *rec
	out.Evidence = append([]EvidenceRef(nil), rec.Evidence...)
	return out
}
