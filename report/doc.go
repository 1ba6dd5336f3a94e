// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package report renders finalized sector results as plain-text audit
// reports with the fixed RAG header, per-question answers in catalog
// order, and the standard recommendation block. FileName implements the
// relatorio-auditoria-<sector>-<date>.txt naming contract.
package report
