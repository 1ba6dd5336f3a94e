// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scoring computes conformity scores for finalized sectors.

Compute is a pure function of (sector catalog, answer records): no
hidden state, deterministic, safe to re-run after a sector is edited and
re-finalized.

Each question type has an explicit conformity predicate:

	yes_no           answer equals "sim"
	multiple_choice  answer is in the question's favorable subset
	photo_evidence   at least one evidence file finished uploading
	text, number     any recorded answer (presence, not content)

The weighted formula is the default:

	conformity% = 100 * Σ(weight·conformant) / Σ(weight)

Options.Unweighted selects the count-based variant instead. Score is the
percentage on a 0-1000 integer scale (round(pct*10)), and Rating maps
the percentage to Excelente/Bom/Regular/Crítico.
*/
package scoring
