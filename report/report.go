// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/ragaudit/rag-audit/answers"
	"github.com/ragaudit/rag-audit/catalog"
	"github.com/ragaudit/rag-audit/scoring"
)

// Fixed recommendation block appended to every report.
var recommendations = []string{
	"Revisar itens não conformes",
	"Implementar plano de ação corretiva",
	"Reagendar auditoria de acompanhamento",
}

// Input gathers everything the assembler needs for one sector report.
type Input struct {
	InstitutionName string
	AuditTitle      string
	Sector          catalog.Sector
	Result          scoring.SectorResult
	Records         map[string]answers.Record
}

// Render produces the plain-text audit report. Pure formatting: it
// iterates the sector's questions in catalog order and looks up each
// answer record; a missing record renders as "Não respondido", never an
// error.
func Render(in Input) string {
	var b strings.Builder

	b.WriteString("RELATÓRIO DE AUDITORIA HOSPITALAR - RAG\n")
	b.WriteString("========================================\n\n")
	if in.InstitutionName != "" {
		fmt.Fprintf(&b, "Instituição: %s\n", in.InstitutionName)
	}
	if in.AuditTitle != "" {
		fmt.Fprintf(&b, "Auditoria: %s\n", in.AuditTitle)
	}
	fmt.Fprintf(&b, "Setor: %s\n", in.Sector.Name)
	fmt.Fprintf(&b, "Data: %s\n", in.Result.CompletedAt.Format("02/01/2006"))
	fmt.Fprintf(&b, "Hora: %s\n", in.Result.CompletedAt.Format("15:04:05"))
	fmt.Fprintf(&b, "Conformidade: %.1f%% (%s)\n", in.Result.ConformityPercentage, in.Result.Rating)
	fmt.Fprintf(&b, "Pontuação: %d\n\n", in.Result.Score)

	b.WriteString("RESPOSTAS POR CATEGORIA:\n")
	for _, q := range in.Sector.Questions {
		rec, ok := in.Records[q.ID]

		fmt.Fprintf(&b, "\n%s - %s\n", q.Category, q.Indicator)
		fmt.Fprintf(&b, "Requisito: %s\n", q.Text)
		fmt.Fprintf(&b, "Resposta: %s\n", renderAnswer(q, rec, ok))
		fmt.Fprintf(&b, "Observações: %s\n", renderObservation(rec, ok))
		if ok && len(rec.Evidence) > 0 {
			fmt.Fprintf(&b, "Evidências: %s\n", evidenceNames(rec))
		}
	}

	b.WriteString("\nRECOMENDAÇÕES:\n")
	for _, r := range recommendations {
		fmt.Fprintf(&b, "- %s\n", r)
	}
	return b.String()
}

// FileName builds the export file name:
// relatorio-auditoria-<sector with whitespace collapsed to hyphens>-<ISO date>.txt
// The pattern is load-bearing for downstream tooling; don't change it.
func FileName(sectorName string, date time.Time) string {
	slug := strings.Join(strings.Fields(sectorName), "-")
	return fmt.Sprintf("relatorio-auditoria-%s-%s.txt", slug, date.Format("2006-01-02"))
}

func renderAnswer(q catalog.Question, rec answers.Record, ok bool) string {
	if q.Type == catalog.TypePhotoEvidence {
		if ok && len(rec.Evidence) > 0 {
			return fmt.Sprintf("%d evidência(s) anexada(s)", len(rec.Evidence))
		}
		return "Não respondido"
	}
	if !ok || !rec.Value.IsSet() {
		return "Não respondido"
	}
	return rec.Value.String()
}

func renderObservation(rec answers.Record, ok bool) string {
	if !ok || rec.Observation == "" {
		return "Nenhuma"
	}
	return rec.Observation
}

func evidenceNames(rec answers.Record) string {
	names := make([]string, len(rec.Evidence))
	for i, ev := range rec.Evidence {
		names[i] = ev.FileName
	}
	return strings.Join(names, ", ")
}
