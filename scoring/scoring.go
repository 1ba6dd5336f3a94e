// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"math"
	"time"

	"github.com/ragaudit/rag-audit/answers"
	"github.com/ragaudit/rag-audit/catalog"
)

// Conformity rating labels (original RAG thresholds)
const (
	RatingExcellent = "Excelente"
	RatingGood      = "Bom"
	RatingRegular   = "Regular"
	RatingCritical  = "Crítico"
)

// Options selects the scoring formula. The weighted formula is the
// default; Unweighted falls back to the historical count-based one.
type Options struct {
	Unweighted bool
}

// QuestionOutcome records the conformity verdict for one question.
type QuestionOutcome struct {
	QuestionID string  `json:"question_id"`
	Conformant bool    `json:"conformant"`
	Weight     float64 `json:"weight"`
}

// SectorResult is the finalized, scored outcome for one sector's worth
// of answers. Immutable once produced; re-auditing the sector produces
// a new result that supersedes this one.
type SectorResult struct {
	SectorID             string            `json:"sector_id"`
	SectorName           string            `json:"sector_name"`
	CompletedAt          time.Time         `json:"completed_at"`
	Outcomes             []QuestionOutcome `json:"outcomes"`
	Score                int               `json:"score"`
	ConformityPercentage float64           `json:"conformity_percentage"`
	Rating               string            `json:"rating"`

	// Weight totals kept so audit-level aggregation stays exact.
	WeightTotal      float64 `json:"weight_total"`
	WeightConformant float64 `json:"weight_conformant"`
}

// Compute scores a sector from its questions and the collected answer
// records. Pure: same inputs always yield the same result, and a sector
// with zero questions scores 0 rather than dividing by zero.
func Compute(sector catalog.Sector, records map[string]answers.Record, completedAt time.Time, opts Options) SectorResult {
	res := SectorResult{
		SectorID:    sector.ID,
		SectorName:  sector.Name,
		CompletedAt: completedAt,
		Outcomes:    make([]QuestionOutcome, 0, len(sector.Questions)),
	}

	var conformantCount int
	for _, q := range sector.Questions {
		rec, ok := records[q.ID]
		conf := Conformant(q, rec, ok)

		res.Outcomes = append(res.Outcomes, QuestionOutcome{
			QuestionID: q.ID,
			Conformant: conf,
			Weight:     q.Weight,
		})
		res.WeightTotal += q.Weight
		if conf {
			conformantCount++
			res.WeightConformant += q.Weight
		}
	}

	if opts.Unweighted {
		res.ConformityPercentage = Percentage(float64(conformantCount), float64(len(sector.Questions)))
	} else {
		res.ConformityPercentage = Percentage(res.WeightConformant, res.WeightTotal)
	}
	res.Score = ScoreFromPercentage(res.ConformityPercentage)
	res.Rating = Rating(res.ConformityPercentage)
	return res
}

// Conformant applies the type-specific conformity predicate for a
// question. Each question type has its own explicit rule; nothing is
// inferred from option label strings.
func Conformant(q catalog.Question, rec answers.Record, ok bool) bool {
	switch q.Type {
	case catalog.TypeYesNo:
		return yesNoConformant(rec, ok)
	case catalog.TypeMultipleChoice:
		return choiceConformant(q, rec, ok)
	case catalog.TypePhotoEvidence:
		return evidenceConformant(rec, ok)
	case catalog.TypeText, catalog.TypeNumber:
		return presenceConformant(rec, ok)
	default:
		return false
	}
}

// yesNoConformant: the affirmative answer and nothing else.
func yesNoConformant(rec answers.Record, ok bool) bool {
	return ok && rec.Value.Kind() == answers.KindChoice &&
		rec.Value.ChoiceValue() == catalog.AnswerYes
}

// choiceConformant: membership in the question's authored favorable
// subset.
func choiceConformant(q catalog.Question, rec answers.Record, ok bool) bool {
	if !ok || rec.Value.Kind() != answers.KindChoice {
		return false
	}
	return q.IsFavorable(rec.Value.ChoiceValue())
}

// evidenceConformant: at least one evidence file with a resolved URL.
// Pending or failed uploads do not count as evidence.
func evidenceConformant(rec answers.Record, ok bool) bool {
	return ok && len(rec.UploadedURLs()) > 0
}

// presenceConformant: any recorded answer earns the credit; content is
// not evaluated. Numeric 0 is a recorded answer.
func presenceConformant(rec answers.Record, ok bool) bool {
	return ok && rec.Value.IsSet()
}

// Overall aggregates live sector results into the audit-level score,
// applying the same formula the sectors were scored with. Exact because
// each result carries its weight totals and per-question outcomes;
// averaging the per-sector percentages would skew toward small sectors.
func Overall(results []SectorResult, opts Options) (score int, pct float64) {
	var total, conformant float64
	for _, r := range results {
		if opts.Unweighted {
			total += float64(len(r.Outcomes))
			for _, o := range r.Outcomes {
				if o.Conformant {
					conformant++
				}
			}
			continue
		}
		total += r.WeightTotal
		conformant += r.WeightConformant
	}
	pct = Percentage(conformant, total)
	return ScoreFromPercentage(pct), pct
}

// Percentage computes 100*part/total, defining 0/0 as 0.
func Percentage(part, total float64) float64 {
	if total <= 0 {
		return 0
	}
	return 100 * part / total
}

// ScoreFromPercentage maps a conformity percentage to the 0-1000
// integer scale, preserving one decimal of percentage resolution.
func ScoreFromPercentage(pct float64) int {
	return int(math.Round(pct * 10))
}

// Rating maps a conformity percentage to its label.
func Rating(pct float64) string {
	switch {
	case pct >= 90:
		return RatingExcellent
	case pct >= 80:
		return RatingGood
	case pct >= 70:
		return RatingRegular
	default:
		return RatingCritical
	}
}
