package model

// Kind identifies a question type. The set is closed: the normalizer maps
// every source vocabulary onto these values and nothing else.
type Kind string

const (
	KindMultipleChoice Kind = "multiple_choice"
	KindTrueFalse      Kind = "true_false"
	KindFillInBlank    Kind = "fill_in_blank"
	KindMatching       Kind = "matching"
	KindOrdering       Kind = "ordering"
	KindShortAnswer    Kind = "short_answer"
	KindEssay          Kind = "essay"
	KindSelectAll      Kind = "select_all"
	KindCloze          Kind = "cloze"
	KindStimulus       Kind = "stimulus"
)

// Kinds lists every supported kind in a stable order.
func Kinds() []Kind {
	return []Kind{
		KindMultipleChoice, KindTrueFalse, KindFillInBlank, KindMatching,
		KindOrdering, KindShortAnswer, KindEssay, KindSelectAll,
		KindCloze, KindStimulus,
	}
}

// Valid reports whether k is one of the closed kind set.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// MatchPair is one term/definition pair of a matching question.
type MatchPair struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
}

// Question is the canonical, format-agnostic representation all encoders
// consume. Only the fields meaningful to Kind are populated; everything else
// stays at its zero value, so two questions of the same kind compare
// field-by-field.
type Question struct {
	Ordinal int    `json:"ordinal"` // 1-based display position, assigned at normalization time
	Kind    Kind   `json:"kind"`
	Prompt  string `json:"prompt"`

	// Choice-like kinds only.
	Options []string `json:"options,omitempty"`

	// Correct-answer payload, kind-specific.
	CorrectIndex      int         `json:"correct_index"`                // multiple_choice
	CorrectIndices    []int       `json:"correct_indices,omitempty"`    // select_all
	CorrectBool       bool        `json:"correct_bool"`                 // true_false
	CorrectText       string      `json:"correct_text,omitempty"`       // fill_in_blank, cloze, short_answer primary
	AcceptableAnswers []string    `json:"acceptable_answers,omitempty"` // short_answer extras
	Pairs             []MatchPair `json:"pairs,omitempty"`              // matching
	Items             []string    `json:"items,omitempty"`              // ordering, kept in original order
	CorrectOrder      []int       `json:"correct_order,omitempty"`      // ordering: zero-based correct position of each item

	Points             float64 `json:"points"`
	CognitiveLevel     string  `json:"cognitive_level,omitempty"`
	CognitiveFramework string  `json:"cognitive_framework,omitempty"`
	ImageRef           string  `json:"image_ref,omitempty"`
	ImageDescription   string  `json:"image_description,omitempty"`
}

// Assessment is an ordered set of canonical questions plus style metadata.
// Built per call from storage, never cached across calls.
type Assessment struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	Subject            string     `json:"subject"`
	GradeLevel         string     `json:"grade_level"`
	Standards          []string   `json:"standards"`
	CognitiveFramework string     `json:"cognitive_framework"`
	Questions          []Question `json:"questions"`
}
