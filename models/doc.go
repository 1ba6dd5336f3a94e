// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Request Types

Types for parsing incoming JSON:

  - CreateInstitutionRequest: name, cnpj, address, contact fields
  - CreateAuditRequest: institution_id, template_id, title, auditors
  - SetAnswerRequest: question_id, answer (raw JSON, decoded per question type)
  - SetObservationRequest: question_id, observation

# Response Types

Types for JSON responses:

  - CreateInstitutionResponse: institution_id
  - CreateAuditResponse: audit_id, audit_key
  - PositionResponse: current sector/question plus can_proceed state
  - AttachEvidenceResponse: question_id, evidence refs
  - EvidenceStatusResponse: pending upload count per sector
  - FinalizeSectorResponse: sector result, audit completion, next sector
  - ErrorResponse: error, message

# Domain Types

Internal data structures:

  - Institution: hospital being audited
  - Audit: audit lifecycle, score, and conformity state
  - AuditStats: dashboard aggregates

# Constants

Status values:

	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
*/
package models
