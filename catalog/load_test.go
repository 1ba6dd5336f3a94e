// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validTemplate = `id: rag-basico
name: RAG Básico
version: "2"
description: Roteiro de auditoria reduzido
sectors:
  - id: uti
    name: UTI
    questions:
      - id: uti-higiene
        text: Dispensadores de álcool em todos os leitos?
        type: yes_no
        required: true
        weight: 2
      - id: uti-residuos
        text: Classificação do descarte de resíduos
        type: multiple_choice
        required: true
        options: [adequado, parcial, inadequado]
        favorable: [adequado]
  - id: farmacia
    name: Farmácia
    questions:
      - id: far-temp
        text: Temperatura da geladeira de termolábeis
        type: number
        required: true
`

func writeCatalog(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestLoadDir(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"rag.yaml":   validTemplate,
		"README.txt": "not a template",
	})

	c, err := LoadDir(dir)
	require.NoError(t, err)

	tpl, ok := c.Template("rag-basico")
	require.True(t, ok)
	assert.Equal(t, "RAG Básico", tpl.Name)
	assert.Equal(t, "2", tpl.Version)
	assert.Equal(t, 3, tpl.QuestionCount())

	uti, ok := tpl.Sector("uti")
	require.True(t, ok)
	require.Len(t, uti.Questions, 2)
	assert.Equal(t, 2.0, uti.Questions[0].Weight)
	assert.Equal(t, 1.0, uti.Questions[1].Weight, "omitted weight defaults to 1")

	mc := uti.Questions[1]
	assert.True(t, mc.HasOption("parcial"))
	assert.True(t, mc.IsFavorable("adequado"))
	assert.False(t, mc.IsFavorable("parcial"))
}

func TestLoadDirOrdersByID(t *testing.T) {
	second := `id: zz-extra
name: Extra
sectors:
  - id: s1
    name: Setor
    questions:
      - id: zz-q1
        text: Pergunta
        type: text
`
	dir := writeCatalog(t, map[string]string{
		"b.yaml": second,
		"a.yml":  validTemplate,
	})

	c, err := LoadDir(dir)
	require.NoError(t, err)

	tpls := c.Templates()
	require.Len(t, tpls, 2)
	assert.Equal(t, "rag-basico", tpls[0].ID)
	assert.Equal(t, "zz-extra", tpls[1].ID)
}

func TestLoadDirValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing id",
			yaml:    "name: X\nsectors:\n  - id: s\n    name: S\n",
			wantErr: "template id is required",
		},
		{
			name:    "no sectors",
			yaml:    "id: x\nname: X\n",
			wantErr: "has no sectors",
		},
		{
			name: "duplicate question id",
			yaml: `id: x
name: X
sectors:
  - id: s1
    name: A
    questions:
      - {id: q1, text: Um, type: text}
  - id: s2
    name: B
    questions:
      - {id: q1, text: Dois, type: text}
`,
			wantErr: "duplicate question id",
		},
		{
			name: "multiple_choice needs options",
			yaml: `id: x
name: X
sectors:
  - id: s
    name: S
    questions:
      - {id: q1, text: Um, type: multiple_choice, options: [so-uma]}
`,
			wantErr: "at least 2 options",
		},
		{
			name: "favorable outside options",
			yaml: `id: x
name: X
sectors:
  - id: s
    name: S
    questions:
      - {id: q1, text: Um, type: multiple_choice, options: [a, b], favorable: [c]}
`,
			wantErr: "is not an option",
		},
		{
			name: "options on yes_no",
			yaml: `id: x
name: X
sectors:
  - id: s
    name: S
    questions:
      - {id: q1, text: Um, type: yes_no, options: [sim, nao]}
`,
			wantErr: "options only allowed",
		},
		{
			name: "unknown type",
			yaml: `id: x
name: X
sectors:
  - id: s
    name: S
    questions:
      - {id: q1, text: Um, type: rating}
`,
			wantErr: "unknown type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := writeCatalog(t, map[string]string{"bad.yaml": tt.yaml})
			_, err := LoadDir(dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReloadKeepsPreviousOnFailure(t *testing.T) {
	dir := writeCatalog(t, map[string]string{"rag.yaml": validTemplate})
	c, err := LoadDir(dir)
	require.NoError(t, err)

	// Break the file; the loaded catalog must survive the failed reload.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rag.yaml"), []byte("id: x\nname: X\n"), 0o644))
	assert.Error(t, c.Reload())

	tpl, ok := c.Template("rag-basico")
	require.True(t, ok)
	assert.Equal(t, 3, tpl.QuestionCount())
}

func TestReloadPicksUpChanges(t *testing.T) {
	dir := writeCatalog(t, map[string]string{"rag.yaml": validTemplate})
	c, err := LoadDir(dir)
	require.NoError(t, err)

	updated := `id: rag-basico
name: RAG Básico
version: "3"
sectors:
  - id: uti
    name: UTI
    questions:
      - id: uti-higiene
        text: Dispensadores de álcool em todos os leitos?
        type: yes_no
        required: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rag.yaml"), []byte(updated), 0o644))
	require.NoError(t, c.Reload())

	tpl, _ := c.Template("rag-basico")
	assert.Equal(t, "3", tpl.Version)
	assert.Equal(t, 1, tpl.QuestionCount())
}

func TestLoadDirDuplicateTemplateID(t *testing.T) {
	dir := writeCatalog(t, map[string]string{
		"a.yaml": validTemplate,
		"b.yaml": validTemplate,
	})
	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate template id")
}
