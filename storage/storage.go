// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ragaudit/rag-audit/answers"
	"github.com/ragaudit/rag-audit/models"
	"github.com/ragaudit/rag-audit/scoring"
)

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps a *sql.DB with the application's persistence operations.
// All queries use sequential $N placeholders and TEXT timestamps so the
// same code runs against Postgres and SQLite.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Timestamps are stored as RFC3339 TEXT for cross-driver portability.
func fmtTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}

func fmtNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return fmtTime(*t)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Institutions

func (s *Store) CreateInstitution(inst models.Institution) error {
	_, err := s.db.Exec(`
		INSERT INTO institution (id, name, cnpj, address, city, state, zip_code, email, phone, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, inst.ID, inst.Name, inst.CNPJ, inst.Address, inst.City, inst.State,
		inst.ZipCode, inst.Email, inst.Phone, fmtTime(inst.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert institution: %w", err)
	}
	return nil
}

func (s *Store) GetInstitution(id string) (models.Institution, error) {
	row := s.db.QueryRow(`
		SELECT id, name, cnpj, address, city, state, zip_code, email, phone, created_at
		FROM institution
		WHERE id = $1
	`, id)
	return scanInstitution(row)
}

func (s *Store) ListInstitutions() ([]models.Institution, error) {
	rows, err := s.db.Query(`
		SELECT id, name, cnpj, address, city, state, zip_code, email, phone, created_at
		FROM institution
		ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query institutions: %w", err)
	}
	defer rows.Close()

	out := []models.Institution{}
	for rows.Next() {
		inst, err := scanInstitution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstitution(row rowScanner) (models.Institution, error) {
	var inst models.Institution
	var cnpj, address, city, state, zipCode, email, phone sql.NullString
	var createdAt string

	err := row.Scan(&inst.ID, &inst.Name, &cnpj, &address, &city, &state,
		&zipCode, &email, &phone, &createdAt)
	if err == sql.ErrNoRows {
		return inst, ErrNotFound
	}
	if err != nil {
		return inst, fmt.Errorf("failed to scan institution: %w", err)
	}

	inst.CNPJ = cnpj.String
	inst.Address = address.String
	inst.City = city.String
	inst.State = state.String
	inst.ZipCode = zipCode.String
	inst.Email = email.String
	inst.Phone = phone.String
	inst.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return inst, fmt.Errorf("bad created_at on institution %s: %w", inst.ID, err)
	}
	return inst, nil
}

// Audits

func (s *Store) CreateAudit(a models.Audit, keyHash string) error {
	auditors, err := json.Marshal(a.Auditors)
	if err != nil {
		return fmt.Errorf("failed to encode auditors: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO audit (id, institution_id, template_id, title, description,
		                   auditors, audit_key_hash, status, start_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, a.ID, a.InstitutionID, a.TemplateID, a.Title, a.Description,
		string(auditors), keyHash, a.Status, fmtNullTime(a.StartDate), fmtTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert audit: %w", err)
	}
	return nil
}

func (s *Store) GetAudit(id string) (models.Audit, error) {
	row := s.db.QueryRow(`
		SELECT id, institution_id, template_id, title, description, auditors,
		       status, start_date, end_date, total_score, conformity_percentage, created_at
		FROM audit
		WHERE id = $1
	`, id)
	return scanAudit(row)
}

func (s *Store) ListRecentAudits(limit int) ([]models.Audit, error) {
	rows, err := s.db.Query(`
		SELECT id, institution_id, template_id, title, description, auditors,
		       status, start_date, end_date, total_score, conformity_percentage, created_at
		FROM audit
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()

	out := []models.Audit{}
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAudit(row rowScanner) (models.Audit, error) {
	var a models.Audit
	var description, auditors sql.NullString
	var startDate, endDate sql.NullString
	var totalScore sql.NullInt64
	var conformity sql.NullFloat64
	var createdAt string

	err := row.Scan(&a.ID, &a.InstitutionID, &a.TemplateID, &a.Title, &description,
		&auditors, &a.Status, &startDate, &endDate, &totalScore, &conformity, &createdAt)
	if err == sql.ErrNoRows {
		return a, ErrNotFound
	}
	if err != nil {
		return a, fmt.Errorf("failed to scan audit: %w", err)
	}

	a.Description = description.String
	a.Auditors = []string{}
	if auditors.Valid && auditors.String != "" {
		if err := json.Unmarshal([]byte(auditors.String), &a.Auditors); err != nil {
			return a, fmt.Errorf("bad auditors on audit %s: %w", a.ID, err)
		}
	}
	if a.StartDate, err = parseNullTime(startDate); err != nil {
		return a, fmt.Errorf("bad start_date on audit %s: %w", a.ID, err)
	}
	if a.EndDate, err = parseNullTime(endDate); err != nil {
		return a, fmt.Errorf("bad end_date on audit %s: %w", a.ID, err)
	}
	if totalScore.Valid {
		v := int(totalScore.Int64)
		a.TotalScore = &v
	}
	if conformity.Valid {
		v := conformity.Float64
		a.ConformityPercentage = &v
	}
	a.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return a, fmt.Errorf("bad created_at on audit %s: %w", a.ID, err)
	}
	return a, nil
}

// GetAuditKeyHash returns the stored key hash for an audit.
func (s *Store) GetAuditKeyHash(auditID string) (string, error) {
	var hash string
	err := s.db.QueryRow("SELECT audit_key_hash FROM audit WHERE id = $1", auditID).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query audit key: %w", err)
	}
	return hash, nil
}

// FinalizeAudit marks an audit completed and records its final score.
func (s *Store) FinalizeAudit(auditID string, endDate time.Time, totalScore int, conformity float64) error {
	res, err := s.db.Exec(`
		UPDATE audit
		SET status = $1, end_date = $2, total_score = $3, conformity_percentage = $4
		WHERE id = $5
	`, models.StatusCompleted, fmtTime(endDate), totalScore, conformity, auditID)
	if err != nil {
		return fmt.Errorf("failed to finalize audit: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats aggregates dashboard counters across all audits.
func (s *Store) Stats() (models.AuditStats, error) {
	var stats models.AuditStats
	var avg sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(CASE WHEN status = 'completed' THEN 1 END),
		       AVG(conformity_percentage)
		FROM audit
	`).Scan(&stats.TotalAudits, &stats.CompletedAudits, &avg)
	if err != nil {
		return stats, fmt.Errorf("failed to query stats: %w", err)
	}
	stats.AverageConformity = avg.Float64
	return stats, nil
}

// Answers

// SaveAnswer upserts the latest answer for a question. Only resolved
// photo URLs are persisted; pending refs stay in the draft store.
func (s *Store) SaveAnswer(auditID, sectorID string, rec answers.Record, answeredAt time.Time) error {
	return saveAnswer(s.db, auditID, sectorID, rec, answeredAt)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func saveAnswer(db execer, auditID, sectorID string, rec answers.Record, answeredAt time.Time) error {
	var answer any
	if rec.Value.IsSet() {
		answer = rec.Value.String()
	}

	urls, err := json.Marshal(rec.UploadedURLs())
	if err != nil {
		return fmt.Errorf("failed to encode photo urls: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO audit_response (audit_id, question_id, sector_id, answer, observation, photo_urls, answered_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (audit_id, question_id) DO UPDATE SET
			sector_id = excluded.sector_id,
			answer = excluded.answer,
			observation = excluded.observation,
			photo_urls = excluded.photo_urls,
			answered_at = excluded.answered_at
	`, auditID, rec.QuestionID, sectorID, answer, rec.Observation, string(urls), fmtTime(answeredAt))
	if err != nil {
		return fmt.Errorf("failed to upsert answer: %w", err)
	}
	return nil
}

// Response is a persisted answer row.
type Response struct {
	QuestionID  string    `json:"question_id"`
	SectorID    string    `json:"sector_id"`
	Answer      *string   `json:"answer,omitempty"`
	Observation string    `json:"observation,omitempty"`
	PhotoURLs   []string  `json:"photo_urls"`
	AnsweredAt  time.Time `json:"answered_at"`
}

func (s *Store) ListResponses(auditID, sectorID string) ([]Response, error) {
	rows, err := s.db.Query(`
		SELECT question_id, sector_id, answer, observation, photo_urls, answered_at
		FROM audit_response
		WHERE audit_id = $1 AND sector_id = $2
		ORDER BY question_id
	`, auditID, sectorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	defer rows.Close()

	out := []Response{}
	for rows.Next() {
		var resp Response
		var answer, observation, urls sql.NullString
		var answeredAt string
		if err := rows.Scan(&resp.QuestionID, &resp.SectorID, &answer, &observation, &urls, &answeredAt); err != nil {
			return nil, fmt.Errorf("failed to scan response: %w", err)
		}
		if answer.Valid {
			resp.Answer = &answer.String
		}
		resp.Observation = observation.String
		resp.PhotoURLs = []string{}
		if urls.Valid && urls.String != "" {
			if err := json.Unmarshal([]byte(urls.String), &resp.PhotoURLs); err != nil {
				return nil, fmt.Errorf("bad photo_urls on question %s: %w", resp.QuestionID, err)
			}
		}
		if resp.AnsweredAt, err = parseTime(answeredAt); err != nil {
			return nil, fmt.Errorf("bad answered_at on question %s: %w", resp.QuestionID, err)
		}
		out = append(out, resp)
	}
	return out, rows.Err()
}

// Sector results

// SaveSectorResult persists a finalized sector score along with the
// answers it was computed from, superseding any previous result for the
// same sector in one transaction.
func (s *Store) SaveSectorResult(auditID string, result scoring.SectorResult, records map[string]answers.Record) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode sector result: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		UPDATE sector_result
		SET superseded = 1
		WHERE audit_id = $1 AND sector_id = $2 AND superseded = 0
	`, auditID, result.SectorID)
	if err != nil {
		return fmt.Errorf("failed to supersede prior result: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO sector_result (id, audit_id, sector_id, completed_at, superseded, payload)
		VALUES ($1, $2, $3, $4, 0, $5)
	`, uuid.NewString(), auditID, result.SectorID, fmtTime(result.CompletedAt), string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert sector result: %w", err)
	}

	for _, rec := range records {
		if err := saveAnswer(tx, auditID, result.SectorID, rec, result.CompletedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sector result: %w", err)
	}
	return nil
}

// GetSectorResult returns the live (non-superseded) result for a sector.
func (s *Store) GetSectorResult(auditID, sectorID string) (scoring.SectorResult, error) {
	var payload string
	err := s.db.QueryRow(`
		SELECT payload
		FROM sector_result
		WHERE audit_id = $1 AND sector_id = $2 AND superseded = 0
	`, auditID, sectorID).Scan(&payload)
	if err == sql.ErrNoRows {
		return scoring.SectorResult{}, ErrNotFound
	}
	if err != nil {
		return scoring.SectorResult{}, fmt.Errorf("failed to query sector result: %w", err)
	}

	var result scoring.SectorResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return scoring.SectorResult{}, fmt.Errorf("bad sector result payload: %w", err)
	}
	return result, nil
}

// ListSectorResults returns the live result for every finalized sector.
func (s *Store) ListSectorResults(auditID string) ([]scoring.SectorResult, error) {
	rows, err := s.db.Query(`
		SELECT payload
		FROM sector_result
		WHERE audit_id = $1 AND superseded = 0
		ORDER BY completed_at
	`, auditID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sector results: %w", err)
	}
	defer rows.Close()

	out := []scoring.SectorResult{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan sector result: %w", err)
		}
		var result scoring.SectorResult
		if err := json.Unmarshal([]byte(payload), &result); err != nil {
			return nil, fmt.Errorf("bad sector result payload: %w", err)
		}
		out = append(out, result)
	}
	return out, rows.Err()
}
