// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

// Question type constants
const (
	TypeYesNo          = "yes_no"
	TypeMultipleChoice = "multiple_choice"
	TypeText           = "text"
	TypeNumber         = "number"
	TypePhotoEvidence  = "photo_evidence"
)

// Yes/no answer values
const (
	AnswerYes = "sim"
	AnswerNo  = "nao"
)

// Question is one evaluable requirement within a sector.
// Immutable after catalog load.
type Question struct {
	ID        string   `yaml:"id" json:"id"`
	Text      string   `yaml:"text" json:"text"`
	Type      string   `yaml:"type" json:"type"`
	Category  string   `yaml:"category" json:"category"`
	Indicator string   `yaml:"indicator" json:"indicator"`
	Required  bool     `yaml:"required" json:"required"`
	Weight    float64  `yaml:"weight" json:"weight"`
	Options   []string `yaml:"options,omitempty" json:"options,omitempty"`
	// Favorable is the authored subset of Options that counts as
	// conformant for multiple_choice questions. Carried in catalog data,
	// never inferred from option labels.
	Favorable []string `yaml:"favorable,omitempty" json:"favorable,omitempty"`
}

// IsFavorable reports whether the chosen option is in the question's
// favorable subset.
func (q Question) IsFavorable(option string) bool {
	for _, f := range q.Favorable {
		if f == option {
			return true
		}
	}
	return false
}

// HasOption reports whether option is one of the question's allowed options.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// Sector is a thematic grouping of questions. Questions are traversed
// in slice order.
type Sector struct {
	ID          string     `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	Description string     `yaml:"description" json:"description"`
	Questions   []Question `yaml:"questions" json:"questions"`
}

// Question returns the question with the given id, if present.
func (s Sector) Question(id string) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Template is an ordered list of sectors applied to one audit.
type Template struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Version     string   `yaml:"version" json:"version"`
	Description string   `yaml:"description" json:"description"`
	Sectors     []Sector `yaml:"sectors" json:"sectors"`
}

// Sector returns the sector with the given id, if present.
func (t Template) Sector(id string) (Sector, bool) {
	for _, s := range t.Sectors {
		if s.ID == id {
			return s, true
		}
	}
	return Sector{}, false
}

// QuestionCount returns the total number of questions across all sectors.
func (t Template) QuestionCount() int {
	n := 0
	for _, s := range t.Sectors {
		n += len(s.Questions)
	}
	return n
}
