package models

import (
	"encoding/json"
	"time"

	"github.com/ragaudit/rag-audit/answers"
	"github.com/ragaudit/rag-audit/catalog"
	"github.com/ragaudit/rag-audit/scoring"
)

// Audit status constants
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

// Request types

type CreateInstitutionRequest struct {
	Name    string `json:"name"`
	CNPJ    string `json:"cnpj"`
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

type CreateAuditRequest struct {
	InstitutionID string     `json:"institution_id"`
	TemplateID    string     `json:"template_id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Auditors      []string   `json:"auditors"`
	StartDate     *time.Time `json:"start_date,omitempty"`
}

// SetAnswerRequest carries the raw answer as JSON; the handler decodes
// it against the question's declared type (string for yes_no,
// multiple_choice and text, number for number).
type SetAnswerRequest struct {
	QuestionID string          `json:"question_id"`
	Answer     json.RawMessage `json:"answer"`
}

type ReopenSectorRequest struct {
	SectorID string `json:"sector_id"`
}

type SetObservationRequest struct {
	QuestionID  string `json:"question_id"`
	Observation string `json:"observation"`
}

// Response types

type CreateInstitutionResponse struct {
	InstitutionID string `json:"institution_id"`
}

type CreateAuditResponse struct {
	AuditID  string `json:"audit_id"`
	AuditKey string `json:"audit_key"`
}

type PositionResponse struct {
	AuditID       string            `json:"audit_id"`
	Completed     bool              `json:"completed"`
	SectorID      string            `json:"sector_id,omitempty"`
	SectorName    string            `json:"sector_name,omitempty"`
	SectorIndex   int               `json:"sector_index"`
	SectorCount   int               `json:"sector_count"`
	QuestionIndex int               `json:"question_index"`
	QuestionCount int               `json:"question_count"`
	Question      *catalog.Question `json:"question,omitempty"`
	CanProceed    bool              `json:"can_proceed"`
	BlockedReason string            `json:"blocked_reason,omitempty"`
}

type AttachEvidenceResponse struct {
	QuestionID string                `json:"question_id"`
	Evidence   []answers.EvidenceRef `json:"evidence"`
}

type EvidenceStatusResponse struct {
	SectorID       string                           `json:"sector_id"`
	PendingUploads int                              `json:"pending_uploads"`
	Evidence       map[string][]answers.EvidenceRef `json:"evidence"`
}

type FinalizeSectorResponse struct {
	Result         scoring.SectorResult `json:"result"`
	AuditCompleted bool                 `json:"audit_completed"`
	NextSectorID   string               `json:"next_sector_id,omitempty"`
	NextSectorName string               `json:"next_sector_name,omitempty"`
}

// Domain types

type Institution struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CNPJ      string    `json:"cnpj,omitempty"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	ZipCode   string    `json:"zip_code,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type Audit struct {
	ID                   string     `json:"id"`
	InstitutionID        string     `json:"institution_id"`
	TemplateID           string     `json:"template_id"`
	Title                string     `json:"title"`
	Description          string     `json:"description,omitempty"`
	Auditors             []string   `json:"auditors"`
	Status               string     `json:"status"`
	StartDate            *time.Time `json:"start_date,omitempty"`
	EndDate              *time.Time `json:"end_date,omitempty"`
	TotalScore           *int       `json:"total_score,omitempty"`
	ConformityPercentage *float64   `json:"conformity_percentage,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}

type AuditStats struct {
	TotalAudits       int     `json:"total_audits"`
	CompletedAudits   int     `json:"completed_audits"`
	AverageConformity float64 `json:"average_conformity"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
