// Package template exports and imports whole assessments as versioned,
// portable JSON documents. Export strips every internal identifier so a
// template can move between installations; import validates strictly before
// anything touches persistence.
package template

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pavelanni/quizsmith/internal/model"
	"github.com/pavelanni/quizsmith/internal/normalize"
)

// exportedBy identifies the producing tool in the export metadata.
const exportedBy = "quizsmith"

// Export builds a fresh template document from an assessment. Database ids
// and ownership linkage never enter the document; question_count always
// equals the serialized array length.
func Export(a model.Assessment) model.TemplateDocument {
	questions := make([]model.TemplateQuestion, 0, len(a.Questions))
	for _, q := range a.Questions {
		questions = append(questions, templateQuestion(q))
	}
	return model.TemplateDocument{
		TemplateVersion:    model.TemplateVersion,
		Title:              a.Title,
		Subject:            a.Subject,
		GradeLevel:         a.GradeLevel,
		Standards:          a.Standards,
		CognitiveFramework: a.CognitiveFramework,
		QuestionCount:      len(questions),
		ExportedBy:         exportedBy,
		ExportedAt:         time.Now().UTC(),
		Questions:          questions,
	}
}

// Marshal renders a template document as indented UTF-8 JSON.
func Marshal(doc model.TemplateDocument) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal template: %w", err)
	}
	return data, nil
}

func templateQuestion(q model.Question) model.TemplateQuestion {
	tq := model.TemplateQuestion{
		Kind:               string(q.Kind),
		Prompt:             q.Prompt,
		Points:             q.Points,
		CognitiveLevel:     q.CognitiveLevel,
		CognitiveFramework: q.CognitiveFramework,
		ImageRef:           q.ImageRef,
		ImageDescription:   q.ImageDescription,
	}

	switch q.Kind {
	case model.KindMultipleChoice:
		tq.Options = q.Options
		idx := q.CorrectIndex
		tq.CorrectIndex = &idx
	case model.KindSelectAll:
		tq.Options = q.Options
		tq.CorrectIndices = q.CorrectIndices
	case model.KindTrueFalse:
		if q.CorrectBool {
			tq.CorrectAnswer = "True"
		} else {
			tq.CorrectAnswer = "False"
		}
	case model.KindFillInBlank, model.KindCloze:
		tq.CorrectAnswer = q.CorrectText
	case model.KindShortAnswer:
		tq.CorrectAnswer = q.CorrectText
		tq.AcceptableAnswers = q.AcceptableAnswers
	case model.KindMatching:
		tq.Pairs = q.Pairs
	case model.KindOrdering:
		tq.Items = q.Items
		tq.CorrectOrder = q.CorrectOrder
	}
	return tq
}

// Validate checks a raw template document against the import rules and
// returns every violated rule, never stopping at the first. An empty result
// means the document may be imported.
func Validate(data []byte) []string {
	var problems []string

	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return []string{fmt.Sprintf("not a valid JSON document: %v", err)}
	}

	version, hasVersion := doc["template_version"]
	if !hasVersion {
		problems = append(problems, "missing required field: template_version")
	} else if v, ok := version.(string); !ok || v != model.TemplateVersion {
		problems = append(problems,
			fmt.Sprintf("unsupported template_version %v: this importer supports only %s", version, model.TemplateVersion))
	}

	questionsRaw, hasQuestions := doc["questions"]
	if !hasQuestions {
		problems = append(problems, "missing required field: questions")
		return problems
	}
	questions, ok := questionsRaw.([]any)
	if !ok {
		problems = append(problems, "questions must be an array")
		return problems
	}
	if len(questions) == 0 {
		problems = append(problems, "questions must not be empty")
	}

	for i, qRaw := range questions {
		q, ok := qRaw.(map[string]any)
		if !ok {
			problems = append(problems, fmt.Sprintf("question %d: not an object", i+1))
			continue
		}
		if kind, _ := q["kind"].(string); kind == "" {
			problems = append(problems, fmt.Sprintf("question %d: missing kind", i+1))
		} else if !model.Kind(kind).Valid() {
			problems = append(problems, fmt.Sprintf("question %d: unknown kind %q", i+1, kind))
		}
		if prompt, _ := q["prompt"].(string); prompt == "" {
			problems = append(problems, fmt.Sprintf("question %d: missing prompt", i+1))
		}
	}

	if countRaw, ok := doc["question_count"]; ok {
		if count, ok := countRaw.(float64); ok && int(count) != len(questions) {
			problems = append(problems,
				fmt.Sprintf("question_count %d does not match %d serialized questions", int(count), len(questions)))
		}
	}

	return problems
}

// Import validates a template document and, when valid, normalizes its
// questions into a fresh assessment. A caller-supplied title wins over the
// template's own. A non-empty problem list means nothing was imported.
func Import(data []byte, title string) (*model.Assessment, []string) {
	if problems := Validate(data); len(problems) > 0 {
		return nil, problems
	}

	var doc struct {
		Title              string           `json:"title"`
		Subject            string           `json:"subject"`
		GradeLevel         string           `json:"grade_level"`
		Standards          []string         `json:"standards"`
		CognitiveFramework string           `json:"cognitive_framework"`
		Questions          []map[string]any `json:"questions"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, []string{fmt.Sprintf("not a valid JSON document: %v", err)}
	}

	if title == "" {
		title = doc.Title
	}
	return &model.Assessment{
		Title:              title,
		Subject:            doc.Subject,
		GradeLevel:         doc.GradeLevel,
		Standards:          doc.Standards,
		CognitiveFramework: doc.CognitiveFramework,
		Questions:          normalize.Records(doc.Questions),
	}, nil
}
