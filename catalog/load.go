// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Catalog holds all loaded audit templates. Reload swaps the whole set
// atomically; readers always see a consistent catalog.
type Catalog struct {
	mu        sync.RWMutex
	dir       string
	templates map[string]Template
	order     []string
}

// LoadDir reads every *.yaml/*.yml template file in dir and returns the
// assembled catalog.
func LoadDir(dir string) (*Catalog, error) {
	c := &Catalog{dir: dir}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the catalog directory. On validation failure the
// previous catalog is kept.
func (c *Catalog) Reload() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("failed to read catalog dir: %w", err)
	}

	templates := make(map[string]Template)
	var order []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		tpl, err := loadTemplateFile(filepath.Join(c.dir, e.Name()))
		if err != nil {
			return err
		}
		if _, dup := templates[tpl.ID]; dup {
			return fmt.Errorf("duplicate template id %q in %s", tpl.ID, e.Name())
		}
		templates[tpl.ID] = tpl
		order = append(order, tpl.ID)
	}
	sort.Strings(order)

	c.mu.Lock()
	c.templates = templates
	c.order = order
	c.mu.Unlock()
	return nil
}

// Templates returns all templates in stable (id) order.
func (c *Catalog) Templates() []Template {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Template, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.templates[id])
	}
	return out
}

// Template returns the template with the given id.
func (c *Catalog) Template(id string) (Template, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tpl, ok := c.templates[id]
	return tpl, ok
}

func loadTemplateFile(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("failed to read template %s: %w", path, err)
	}

	var tpl Template
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return Template{}, fmt.Errorf("failed to parse template %s: %w", path, err)
	}

	if err := validateTemplate(&tpl); err != nil {
		return Template{}, fmt.Errorf("invalid template %s: %w", path, err)
	}
	return tpl, nil
}

// validateTemplate checks structural invariants and fills in defaults
// (weight 1 for questions that omit it).
func validateTemplate(tpl *Template) error {
	if tpl.ID == "" {
		return fmt.Errorf("template id is required")
	}
	if tpl.Name == "" {
		return fmt.Errorf("template name is required")
	}
	if len(tpl.Sectors) == 0 {
		return fmt.Errorf("template %q has no sectors", tpl.ID)
	}

	seenSectors := make(map[string]bool)
	seenQuestions := make(map[string]bool)
	for si := range tpl.Sectors {
		s := &tpl.Sectors[si]
		if s.ID == "" || s.Name == "" {
			return fmt.Errorf("sector %d needs id and name", si)
		}
		if seenSectors[s.ID] {
			return fmt.Errorf("duplicate sector id %q", s.ID)
		}
		seenSectors[s.ID] = true

		for qi := range s.Questions {
			q := &s.Questions[qi]
			if err := validateQuestion(q, seenQuestions); err != nil {
				return fmt.Errorf("sector %q: %w", s.ID, err)
			}
		}
	}
	return nil
}

func validateQuestion(q *Question, seen map[string]bool) error {
	if q.ID == "" {
		return fmt.Errorf("question id is required")
	}
	if seen[q.ID] {
		return fmt.Errorf("duplicate question id %q", q.ID)
	}
	seen[q.ID] = true

	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question %q has no text", q.ID)
	}

	switch q.Type {
	case TypeYesNo, TypeText, TypeNumber, TypePhotoEvidence:
		if len(q.Options) > 0 {
			return fmt.Errorf("question %q: options only allowed for multiple_choice", q.ID)
		}
	case TypeMultipleChoice:
		if len(q.Options) < 2 {
			return fmt.Errorf("question %q: multiple_choice needs at least 2 options", q.ID)
		}
		for _, f := range q.Favorable {
			if !q.HasOption(f) {
				return fmt.Errorf("question %q: favorable %q is not an option", q.ID, f)
			}
		}
	default:
		return fmt.Errorf("question %q has unknown type %q", q.ID, q.Type)
	}

	if q.Weight < 0 {
		return fmt.Errorf("question %q has negative weight", q.ID)
	}
	if q.Weight == 0 {
		q.Weight = 1
	}
	return nil
}
