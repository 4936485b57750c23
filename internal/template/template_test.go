package template

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/pavelanni/quizsmith/internal/model"
)

func allKindsAssessment() model.Assessment {
	return model.Assessment{
		ID:    42,
		Title: "Everything",
		Questions: []model.Question{
			{Ordinal: 1, Kind: model.KindMultipleChoice, Prompt: "mc", Options: []string{"a", "b", "c"}, CorrectIndex: 1, Points: 2},
			{Ordinal: 2, Kind: model.KindTrueFalse, Prompt: "tf", Options: []string{"True", "False"}, CorrectBool: false},
			{Ordinal: 3, Kind: model.KindFillInBlank, Prompt: "fib", CorrectText: "word"},
			{Ordinal: 4, Kind: model.KindMatching, Prompt: "m", Pairs: []model.MatchPair{{Term: "t", Definition: "d"}}},
			{Ordinal: 5, Kind: model.KindOrdering, Prompt: "o", Items: []string{"x", "y", "z"}, CorrectOrder: []int{2, 0, 1}},
			{Ordinal: 6, Kind: model.KindShortAnswer, Prompt: "sh", CorrectText: "ans", AcceptableAnswers: []string{"alt"}},
			{Ordinal: 7, Kind: model.KindEssay, Prompt: "e", Points: 5},
			{Ordinal: 8, Kind: model.KindSelectAll, Prompt: "sel", Options: []string{"a", "b", "c"}, CorrectIndices: []int{0, 2}},
			{Ordinal: 9, Kind: model.KindCloze, Prompt: "cl ___ oze", CorrectText: "fill"},
			{Ordinal: 10, Kind: model.KindStimulus, Prompt: "read this passage"},
		},
	}
}

func TestExportStripsIdentifiers(t *testing.T) {
	doc := Export(allKindsAssessment())
	if doc.TemplateVersion != model.TemplateVersion {
		t.Errorf("expected version %s, got %s", model.TemplateVersion, doc.TemplateVersion)
	}
	if doc.QuestionCount != 10 {
		t.Errorf("expected question_count 10, got %d", doc.QuestionCount)
	}
	data, err := Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := raw["id"]; ok {
		t.Error("template must not carry a database id")
	}
	if doc.ExportedBy != "quizsmith" || doc.ExportedAt.IsZero() {
		t.Error("expected export metadata to be stamped")
	}
}

// Export then import must reproduce question-equal results for every kind,
// independent of ordinals.
func TestRoundTrip(t *testing.T) {
	orig := allKindsAssessment()
	data, err := Marshal(Export(orig))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	imported, problems := Import(data, "")
	if len(problems) > 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if imported.Title != orig.Title {
		t.Errorf("expected title %q, got %q", orig.Title, imported.Title)
	}
	if len(imported.Questions) != len(orig.Questions) {
		t.Fatalf("expected %d questions, got %d", len(orig.Questions), len(imported.Questions))
	}
	for i, got := range imported.Questions {
		want := orig.Questions[i]
		got.Ordinal, want.Ordinal = 0, 0
		if !reflect.DeepEqual(got, want) {
			t.Errorf("question %d (%s) not equal after round trip:\n got %+v\nwant %+v",
				i+1, want.Kind, got, want)
		}
	}
}

func TestImportCallerTitleWins(t *testing.T) {
	data, _ := Marshal(Export(allKindsAssessment()))
	imported, problems := Import(data, "My Copy")
	if len(problems) > 0 {
		t.Fatalf("unexpected problems: %v", problems)
	}
	if imported.Title != "My Copy" {
		t.Errorf("expected caller title, got %q", imported.Title)
	}
}

func TestValidateCollectsAllProblems(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		wantSubs []string
	}{
		{
			"missing version",
			`{"questions":[{"kind":"multiple_choice","prompt":"p"}]}`,
			[]string{"template_version"},
		},
		{
			"wrong version",
			`{"template_version":"9.9","questions":[{"kind":"essay","prompt":"p"}]}`,
			[]string{"unsupported template_version"},
		},
		{
			"empty questions",
			`{"template_version":"1.0","questions":[]}`,
			[]string{"must not be empty"},
		},
		{
			"missing questions",
			`{"template_version":"1.0"}`,
			[]string{"questions"},
		},
		{
			"multiple violations collected",
			`{"questions":[{"kind":"bogus"},{"prompt":"ok"}]}`,
			[]string{"template_version", "unknown kind", "missing prompt", "missing kind"},
		},
		{
			"count mismatch",
			`{"template_version":"1.0","question_count":5,"questions":[{"kind":"essay","prompt":"p"}]}`,
			[]string{"question_count"},
		},
		{
			"not json",
			`{{{`,
			[]string{"not a valid JSON"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := Validate([]byte(tt.doc))
			if len(problems) == 0 {
				t.Fatal("expected a non-empty problem list")
			}
			joined := strings.Join(problems, "\n")
			for _, sub := range tt.wantSubs {
				if !strings.Contains(joined, sub) {
					t.Errorf("expected problem mentioning %q, got:\n%s", sub, joined)
				}
			}
		})
	}
}

func TestValidateMinimalDocument(t *testing.T) {
	doc := `{"template_version":"1.0","questions":[{"kind":"multiple_choice","prompt":"p","options":["a","b"],"correct_index":0}]}`
	if problems := Validate([]byte(doc)); len(problems) != 0 {
		t.Errorf("expected valid document, got problems: %v", problems)
	}
}

func TestImportRejectsWithoutPartialResult(t *testing.T) {
	a, problems := Import([]byte(`{"template_version":"0.1","questions":[]}`), "")
	if a != nil {
		t.Error("rejected import must not return a partial assessment")
	}
	if len(problems) < 2 {
		t.Errorf("expected version and emptiness violations together, got %v", problems)
	}
}
