// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package answers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragaudit/rag-audit/catalog"
)

var (
	yesNoQ = catalog.Question{ID: "yn", Type: catalog.TypeYesNo}
	mcQ    = catalog.Question{
		ID: "mc", Type: catalog.TypeMultipleChoice,
		Options:   []string{"adequado", "inadequado"},
		Favorable: []string{"adequado"},
	}
	textQ   = catalog.Question{ID: "txt", Type: catalog.TypeText}
	numberQ = catalog.Question{ID: "num", Type: catalog.TypeNumber}
	photoQ  = catalog.Question{ID: "ph", Type: catalog.TypePhotoEvidence}
)

func TestSetAnswerValidation(t *testing.T) {
	tests := []struct {
		name    string
		q       catalog.Question
		v       Value
		wantErr error
	}{
		{"yes_no sim", yesNoQ, Choice("sim"), nil},
		{"yes_no nao", yesNoQ, Choice("nao"), nil},
		{"yes_no other", yesNoQ, Choice("talvez"), ErrInvalidOption},
		{"yes_no wrong kind", yesNoQ, Number(1), ErrTypeMismatch},
		{"choice valid", mcQ, Choice("adequado"), nil},
		{"choice unknown", mcQ, Choice("otimo"), ErrInvalidOption},
		{"choice wrong kind", mcQ, Text("adequado"), ErrTypeMismatch},
		{"text valid", textQ, Text("anotado"), nil},
		{"text wrong kind", textQ, Number(3), ErrTypeMismatch},
		{"number valid", numberQ, Number(12), nil},
		{"number zero", numberQ, Number(0), nil},
		{"number wrong kind", numberQ, Choice("12"), ErrTypeMismatch},
		{"photo takes no value", photoQ, Text("x"), ErrTypeMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewStore().SetAnswer(tt.q, tt.v)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestSetAnswerRejectionKeepsPrior(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetAnswer(yesNoQ, Choice("sim")))

	assert.ErrorIs(t, s.SetAnswer(yesNoQ, Number(1)), ErrTypeMismatch)

	rec, ok := s.Record("yn")
	require.True(t, ok)
	assert.Equal(t, "sim", rec.Value.ChoiceValue())
}

func TestSetAnswerOverwrite(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetAnswer(yesNoQ, Choice("sim")))
	require.NoError(t, s.SetAnswer(yesNoQ, Choice("nao")))

	rec, ok := s.Record("yn")
	require.True(t, ok)
	assert.Equal(t, "nao", rec.Value.ChoiceValue())
}

func TestObservationIndependentOfAnswer(t *testing.T) {
	s := NewStore()
	s.SetObservation("yn", "verificar na próxima visita")

	rec, ok := s.Record("yn")
	require.True(t, ok)
	assert.Equal(t, "verificar na próxima visita", rec.Observation)
	assert.False(t, rec.Value.IsSet())
}

func TestAttachEvidenceReplaces(t *testing.T) {
	s := NewStore()

	first := s.AttachEvidence("ph", []string{"a.jpg", "b.jpg"})
	require.Len(t, first, 2)
	assert.Equal(t, UploadPending, first[0].Status)

	second := s.AttachEvidence("ph", []string{"c.jpg"})
	require.Len(t, second, 1)

	rec, ok := s.Record("ph")
	require.True(t, ok)
	require.Len(t, rec.Evidence, 1)
	assert.Equal(t, "c.jpg", rec.Evidence[0].FileName)

	// Resolving a replaced ref is a stale result, not a state change.
	assert.ErrorIs(t, s.MarkUploaded("ph", first[0].ID, "/e/a.jpg"), ErrNoEvidenceRef)
}

func TestUploadStatusTransitions(t *testing.T) {
	s := NewStore()
	refs := s.AttachEvidence("ph", []string{"a.jpg", "b.jpg"})

	require.NoError(t, s.MarkUploaded("ph", refs[0].ID, "/e/a.jpg"))
	require.NoError(t, s.MarkFailed("ph", refs[1].ID))

	rec, _ := s.Record("ph")
	assert.Equal(t, UploadDone, rec.Evidence[0].Status)
	assert.Equal(t, "/e/a.jpg", rec.Evidence[0].URL)
	assert.Equal(t, UploadFailed, rec.Evidence[1].Status)

	assert.Equal(t, []string{"/e/a.jpg"}, rec.UploadedURLs())
	assert.True(t, rec.HasEvidence())
}

func TestPendingUploads(t *testing.T) {
	s := NewStore()
	sector := catalog.Sector{ID: "s", Questions: []catalog.Question{photoQ}}

	assert.Equal(t, 0, s.PendingUploads(sector))

	refs := s.AttachEvidence("ph", []string{"a.jpg", "b.jpg"})
	assert.Equal(t, 2, s.PendingUploads(sector))

	require.NoError(t, s.MarkUploaded("ph", refs[0].ID, "/e/a.jpg"))
	assert.Equal(t, 1, s.PendingUploads(sector))

	require.NoError(t, s.MarkFailed("ph", refs[1].ID))
	assert.Equal(t, 0, s.PendingUploads(sector))
}

func TestSectorAnswersCopies(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.SetAnswer(yesNoQ, Choice("sim")))
	sector := catalog.Sector{ID: "s", Questions: []catalog.Question{yesNoQ, photoQ}}

	got := s.SectorAnswers(sector)
	require.Len(t, got, 1)
	assert.Equal(t, "sim", got["yn"].Value.ChoiceValue())

	// Mutating the snapshot must not leak back into the store.
	rec := got["yn"]
	rec.Observation = "mutated"
	got["yn"] = rec

	fresh, _ := s.Record("yn")
	assert.Empty(t, fresh.Observation)
}

func TestValueKinds(t *testing.T) {
	assert.False(t, Value{}.IsSet())
	assert.True(t, Number(0).IsSet(), "numeric zero counts as answered")
	assert.False(t, Text("").IsSet())
	assert.True(t, Text("x").IsSet())
	assert.Equal(t, "12.5", Number(12.5).String())
	assert.Equal(t, "sim", Choice("sim").String())
}
