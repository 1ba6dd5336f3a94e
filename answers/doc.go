// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package answers holds the in-memory answer state for an audit being
edited.

Each question maps to at most one Record: the raw answer value, an
optional observation, and the attached evidence references. "Not
answered" is explicit — a record may not exist at all, and Value's zero
state is distinguishable from a recorded numeric 0 or empty string.

Writes are validated against the question's declared type:

	store.SetAnswer(q, answers.Choice("sim"))
	store.SetAnswer(q, answers.Number(0))     // 0 counts as answered

Evidence attachment is replace-by-question: re-selecting files replaces
the previous list. Uploads to the external blob store resolve
asynchronously; each reference carries a pending/uploaded/failed status
that the upload workers flip via MarkUploaded and MarkFailed.

Persistence is a separate, explicit step owned by the storage package —
this store is purely the in-session draft.
*/
package answers
