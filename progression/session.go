// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package progression

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ragaudit/rag-audit/answers"
	"github.com/ragaudit/rag-audit/catalog"
)

var (
	// ErrBlocked means the current question's completion rule is not
	// satisfied. Recoverable: the caller answers and retries.
	ErrBlocked = errors.New("current question must be answered before advancing")
	// ErrAtFirstQuestion means Previous was called at question 0.
	ErrAtFirstQuestion = errors.New("already at the first question")
	// ErrSectorEnd means Next was called on the last question; the
	// sector must be finalized instead.
	ErrSectorEnd = errors.New("last question reached, finalize the sector")
	// ErrAuditComplete means every sector has been finalized.
	ErrAuditComplete = errors.New("audit is complete")
	// ErrUploadsPending means evidence uploads have not all resolved.
	ErrUploadsPending = errors.New("evidence uploads still pending")
)

// Session walks one auditor through a template: sectors in order, and
// within each sector questions in order. The template is snapshotted at
// session start, so catalog reloads never affect an audit in flight.
type Session struct {
	mu sync.Mutex

	auditID  string
	template catalog.Template
	store    *answers.Store

	sectorIdx   int
	questionIdx int
	completed   bool
}

// NewSession starts a session at the first question of the first sector.
func NewSession(auditID string, tpl catalog.Template) *Session {
	return &Session{
		auditID:  auditID,
		template: tpl,
		store:    answers.NewStore(),
	}
}

// AuditID returns the audit this session belongs to.
func (s *Session) AuditID() string { return s.auditID }

// Template returns the session's template snapshot.
func (s *Session) Template() catalog.Template { return s.template }

// Store returns the session's draft answer store.
func (s *Session) Store() *answers.Store { return s.store }

// Position describes where the auditor currently is.
type Position struct {
	SectorID      string
	SectorName    string
	SectorIndex   int
	SectorCount   int
	QuestionIndex int
	QuestionCount int
	Question      catalog.Question
	CanProceed    bool
	BlockedReason string
	Completed     bool
}

// Position reports the current sector/question and whether Next would
// be allowed.
func (s *Session) Position() Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return Position{Completed: true, SectorCount: len(s.template.Sectors)}
	}

	sector := s.template.Sectors[s.sectorIdx]
	q := sector.Questions[s.questionIdx]
	ok, reason := s.canProceed(q)
	return Position{
		SectorID:      sector.ID,
		SectorName:    sector.Name,
		SectorIndex:   s.sectorIdx,
		SectorCount:   len(s.template.Sectors),
		QuestionIndex: s.questionIdx,
		QuestionCount: len(sector.Questions),
		Question:      q,
		CanProceed:    ok,
		BlockedReason: reason,
	}
}

// CurrentSector returns the sector being edited.
func (s *Session) CurrentSector() (catalog.Sector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return catalog.Sector{}, ErrAuditComplete
	}
	return s.template.Sectors[s.sectorIdx], nil
}

// Question returns the question with the given id from the sector
// currently being edited.
func (s *Session) Question(questionID string) (catalog.Question, error) {
	sector, err := s.CurrentSector()
	if err != nil {
		return catalog.Question{}, err
	}
	q, ok := sector.Question(questionID)
	if !ok {
		return catalog.Question{}, fmt.Errorf("question %q is not in sector %q", questionID, sector.ID)
	}
	return q, nil
}

// Next advances to the following question. Returns ErrBlocked when the
// current question's completion rule fails (a guard, not a fault),
// and ErrSectorEnd from the last question — sector completion goes
// through FinalizeCheck/CompleteSector so that scoring and persistence
// happen exactly once.
func (s *Session) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return ErrAuditComplete
	}

	sector := s.template.Sectors[s.sectorIdx]
	q := sector.Questions[s.questionIdx]
	if ok, reason := s.canProceed(q); !ok {
		return fmt.Errorf("%w: %s", ErrBlocked, reason)
	}

	if s.questionIdx+1 >= len(sector.Questions) {
		return ErrSectorEnd
	}
	s.questionIdx++
	return nil
}

// Previous moves back one question within the sector. Not allowed from
// question 0; the caller navigates out to the sector list instead.
func (s *Session) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return ErrAuditComplete
	}
	if s.questionIdx == 0 {
		return ErrAtFirstQuestion
	}
	s.questionIdx--
	return nil
}

// FinalizeCheck verifies the whole current sector is ready to be
// finalized: every question satisfies its completion rule and no
// evidence upload is still pending. It does not change state.
func (s *Session) FinalizeCheck() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return ErrAuditComplete
	}

	sector := s.template.Sectors[s.sectorIdx]
	for _, q := range sector.Questions {
		if ok, reason := s.canProceed(q); !ok {
			return fmt.Errorf("%w: question %s: %s", ErrBlocked, q.ID, reason)
		}
	}
	if n := s.store.PendingUploads(sector); n > 0 {
		return fmt.Errorf("%w: %d upload(s) unresolved", ErrUploadsPending, n)
	}
	return nil
}

// CompleteSector transitions past the finalized sector: to the first
// question of the next sector, or to the completed state after the last
// one. Callers run FinalizeCheck, scoring and persistence first; this
// is the state transition only. Returns true when the audit finished.
func (s *Session) CompleteSector() (auditDone bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return false, ErrAuditComplete
	}

	if s.sectorIdx+1 >= len(s.template.Sectors) {
		s.completed = true
		return true, nil
	}
	s.sectorIdx++
	s.questionIdx = 0
	return false, nil
}

// ReopenSector moves the session back to the first question of an
// already-visited sector so it can be re-audited. Finalizing it again
// produces a result that supersedes the earlier one. Jumping ahead to a
// sector the session has not reached is not allowed.
func (s *Session) ReopenSector(sectorID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sector := range s.template.Sectors {
		if sector.ID != sectorID {
			continue
		}
		if !s.completed && i > s.sectorIdx {
			return fmt.Errorf("sector %q has not been reached yet", sectorID)
		}
		s.sectorIdx = i
		s.questionIdx = 0
		s.completed = false
		return nil
	}
	return fmt.Errorf("sector %q is not in the template", sectorID)
}

// Completed reports whether every sector has been finalized.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// canProceed implements the per-question completion rule:
//
//   - optional questions never block;
//   - photo_evidence requires at least one attached evidence file
//     (the raw answer value is irrelevant);
//   - every other type requires a set answer value, where numeric 0
//     counts as answered.
//
// Caller must hold the lock.
func (s *Session) canProceed(q catalog.Question) (bool, string) {
	if !q.Required {
		return true, ""
	}

	rec, ok := s.store.Record(q.ID)
	if q.Type == catalog.TypePhotoEvidence {
		if ok && rec.HasEvidence() {
			return true, ""
		}
		return false, "evidência obrigatória"
	}

	if ok && rec.Value.IsSet() {
		return true, ""
	}
	return false, "resposta obrigatória"
}
