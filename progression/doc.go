// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package progression gates navigation through an audit's questions.

Each in-progress sector is a small state machine: AtQuestion(i) for each
question in order, then sector completion. Next is allowed only when the
current question's completion rule holds; Previous walks back but never
past question 0. A blocked Next is a normal, recoverable outcome
(ErrBlocked), not a fault — the UI disables the button, it does not
show an error page.

Sector completion is split in two so persistence can sit in between:

	if err := sess.FinalizeCheck(); err != nil { ... }   // all rules + uploads
	// persist answers, compute score, store the result
	done, _ := sess.CompleteSector()                     // state transition

Manager keeps the single live Session per audit. Sessions snapshot
their template at start and keep in-memory drafts until the audit
completes, so navigating away and back loses nothing.
*/
package progression
