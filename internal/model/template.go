package model

import "time"

// TemplateVersion is the wire version this build exports and the only
// version it imports. Mismatches are rejected, never silently upgraded.
const TemplateVersion = "1.0"

// TemplateDocument is the portable export/import form of an assessment.
// It carries no database ids and no ownership linkage; it is created fresh
// on export and consumed once on import.
type TemplateDocument struct {
	TemplateVersion    string             `json:"template_version"`
	Title              string             `json:"title"`
	Subject            string             `json:"subject,omitempty"`
	GradeLevel         string             `json:"grade_level,omitempty"`
	Standards          []string           `json:"standards,omitempty"`
	CognitiveFramework string             `json:"cognitive_framework,omitempty"`
	QuestionCount      int                `json:"question_count"`
	ExportedBy         string             `json:"exported_by"`
	ExportedAt         time.Time          `json:"exported_at"`
	Questions          []TemplateQuestion `json:"questions"`
}

// TemplateQuestion is the wire form of one question. Field names match the
// normalizer's native vocabulary so imported questions go straight through
// normalization without a translation layer.
type TemplateQuestion struct {
	Kind               string      `json:"kind"`
	Prompt             string      `json:"prompt"`
	Options            []string    `json:"options,omitempty"`
	CorrectIndex       *int        `json:"correct_index,omitempty"`
	CorrectIndices     []int       `json:"correct_indices,omitempty"`
	CorrectAnswer      string      `json:"correct_answer,omitempty"`
	AcceptableAnswers  []string    `json:"acceptable_answers,omitempty"`
	Pairs              []MatchPair `json:"pairs,omitempty"`
	Items              []string    `json:"items,omitempty"`
	CorrectOrder       []int       `json:"correct_order,omitempty"`
	Points             float64     `json:"points,omitempty"`
	CognitiveLevel     string      `json:"cognitive_level,omitempty"`
	CognitiveFramework string      `json:"cognitive_framework,omitempty"`
	ImageRef           string      `json:"image_ref,omitempty"`
	ImageDescription   string      `json:"image_description,omitempty"`
}
