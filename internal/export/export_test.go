package export

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/pavelanni/quizsmith/internal/i18n"
	"github.com/pavelanni/quizsmith/internal/model"
)

func sampleAssessment() model.Assessment {
	return model.Assessment{
		Title: "Biology Quiz",
		Questions: []model.Question{
			{
				Ordinal: 1, Kind: model.KindMultipleChoice, Prompt: "Pick a color",
				Options: []string{"Red", "Green", "Blue"}, CorrectIndex: 2, Points: 1,
			},
			{
				Ordinal: 2, Kind: model.KindMatching, Prompt: "Match the animals",
				Pairs: []model.MatchPair{
					{Term: "cat", Definition: "feline"},
					{Term: "dog", Definition: "canine"},
					{Term: "horse", Definition: "equine"},
				},
			},
			{Ordinal: 3, Kind: model.KindEssay, Prompt: "Discuss photosynthesis"},
		},
	}
}

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	return records
}

func TestEncodeUnknownFormat(t *testing.T) {
	if _, err := Encode("xlsx", model.Assessment{}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestFormats(t *testing.T) {
	want := []string{"csv", "document", "lms_package", "plaintext", "platform_csv", "printable"}
	got := Formats()
	if len(got) != len(want) {
		t.Fatalf("expected %d formats, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("format %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestGenericCSVIncludesAllKinds(t *testing.T) {
	res, err := EncodeCSV(sampleAssessment())
	if err != nil {
		t.Fatalf("EncodeCSV: %v", err)
	}
	records := parseCSV(t, res.Data)
	if len(records) != 4 { // header + 3 questions
		t.Fatalf("expected 4 rows, got %d", len(records))
	}
	if res.Rows != 3 || res.Skipped != 0 {
		t.Errorf("expected 3 rows written and 0 skipped, got %d/%d", res.Rows, res.Skipped)
	}
	if records[1][4] != "C) Blue" {
		t.Errorf("expected answer 'C) Blue', got %q", records[1][4])
	}
}

func TestGenericCSVSanitizesCells(t *testing.T) {
	a := model.Assessment{Questions: []model.Question{
		{Ordinal: 1, Kind: model.KindShortAnswer, Prompt: "=HYPERLINK(evil)", CorrectText: "@import"},
	}}
	res, err := EncodeCSV(a)
	if err != nil {
		t.Fatalf("EncodeCSV: %v", err)
	}
	records := parseCSV(t, res.Data)
	if records[1][2] != "'=HYPERLINK(evil)" {
		t.Errorf("prompt cell not sanitized: %q", records[1][2])
	}
	if records[1][4] != "'@import" {
		t.Errorf("answer cell not sanitized: %q", records[1][4])
	}
	// Header cells stay fixed.
	if records[0][0] != "Number" {
		t.Errorf("header altered: %q", records[0][0])
	}
}

func TestPlatformCSVSkipsUnsupportedKinds(t *testing.T) {
	res, err := EncodePlatformCSV(sampleAssessment())
	if err != nil {
		t.Fatalf("EncodePlatformCSV: %v", err)
	}
	records := parseCSV(t, res.Data)
	if len(records) != 2 { // header + the multiple choice row only
		t.Fatalf("expected 2 rows, got %d", len(records))
	}
	if res.Rows != 1 || res.Skipped != 2 {
		t.Errorf("expected 1 written / 2 skipped, got %d/%d", res.Rows, res.Skipped)
	}
	if len(records[0]) != 10 {
		t.Errorf("expected fixed 10-column schema, got %d columns", len(records[0]))
	}
	if records[1][7] != "3" {
		t.Errorf("expected 1-based correct index 3, got %q", records[1][7])
	}
}

func TestPlatformCSVSkipsOutOfRangeCorrectOption(t *testing.T) {
	// Six options truncate to five columns; a correct answer in the lost
	// column must not be referenced.
	a := model.Assessment{Questions: []model.Question{
		{Ordinal: 1, Kind: model.KindMultipleChoice, Prompt: "six options",
			Options: []string{"a", "b", "c", "d", "e", "f"}, CorrectIndex: 5},
	}}
	res, err := EncodePlatformCSV(a)
	if err != nil {
		t.Fatalf("EncodePlatformCSV: %v", err)
	}
	records := parseCSV(t, res.Data)
	if len(records) != 1 {
		t.Fatalf("expected header-only output, got %d rows", len(records))
	}
	if res.Rows != 0 || res.Skipped != 1 {
		t.Errorf("expected 0 written / 1 skipped, got %d/%d", res.Rows, res.Skipped)
	}
}

func TestPlatformCSVHeaderAlwaysPresent(t *testing.T) {
	a := model.Assessment{Questions: []model.Question{
		{Ordinal: 1, Kind: model.KindEssay, Prompt: "unrepresentable"},
	}}
	res, err := EncodePlatformCSV(a)
	if err != nil {
		t.Fatalf("EncodePlatformCSV: %v", err)
	}
	records := parseCSV(t, res.Data)
	if len(records) != 1 {
		t.Fatalf("expected header-only output, got %d rows", len(records))
	}
	if res.Skipped != 1 {
		t.Errorf("expected 1 skipped, got %d", res.Skipped)
	}
}

func TestGIFTEscaping(t *testing.T) {
	a := model.Assessment{Questions: []model.Question{
		{Ordinal: 1, Kind: model.KindShortAnswer, Prompt: "a=b~c{d}e#f", CorrectText: "x:y"},
	}}
	res, err := EncodeGIFT(a)
	if err != nil {
		t.Fatalf("EncodeGIFT: %v", err)
	}
	text := string(res.Data)
	for _, esc := range []string{`\=`, `\~`, `\{`, `\}`, `\#`, `\:`} {
		if !strings.Contains(text, esc) {
			t.Errorf("expected escape %q in output:\n%s", esc, text)
		}
	}
}

func TestGIFTPerKindBlocks(t *testing.T) {
	a := model.Assessment{Questions: []model.Question{
		{Ordinal: 1, Kind: model.KindMultipleChoice, Prompt: "mc", Options: []string{"a", "b"}, CorrectIndex: 1},
		{Ordinal: 2, Kind: model.KindTrueFalse, Prompt: "tf", CorrectBool: true},
		{Ordinal: 3, Kind: model.KindShortAnswer, Prompt: "sa", CorrectText: "Paris", AcceptableAnswers: []string{"paris", "Paris"}},
		{Ordinal: 4, Kind: model.KindEssay, Prompt: "essay"},
		{Ordinal: 5, Kind: model.KindOrdering, Prompt: "ord", Items: []string{"C", "A", "B"}, CorrectOrder: []int{2, 0, 1}},
	}}
	res, err := EncodeGIFT(a)
	if err != nil {
		t.Fatalf("EncodeGIFT: %v", err)
	}
	text := string(res.Data)

	if !strings.Contains(text, "~a\n=b") {
		t.Errorf("expected ~wrong/=correct tokens, got:\n%s", text)
	}
	if !strings.Contains(text, "{TRUE}") {
		t.Errorf("expected {TRUE} block")
	}
	// De-duplicated acceptable answers: "Paris" appears once as an answer token.
	if strings.Count(text, "=Paris") != 1 {
		t.Errorf("expected de-duplicated =Paris token once, got:\n%s", text)
	}
	if !strings.Contains(text, "=paris") {
		t.Errorf("expected =paris token")
	}
	if !strings.Contains(text, "::Q4:: essay {}") {
		t.Errorf("expected empty answer block for essay, got:\n%s", text)
	}
	// Ordering: 1-based rank of each item under the correct order.
	for _, pair := range []string{"=C -> 3", "=A -> 1", "=B -> 2"} {
		if !strings.Contains(text, pair) {
			t.Errorf("expected %q in ordering block, got:\n%s", pair, text)
		}
	}
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		rc.Close()
		out[f.Name] = buf.String()
	}
	return out
}

func TestQTIPackageStructure(t *testing.T) {
	res, err := EncodeQTI(sampleAssessment())
	if err != nil {
		t.Fatalf("EncodeQTI: %v", err)
	}
	parts := readZip(t, res.Data)
	if _, ok := parts["imsmanifest.xml"]; !ok {
		t.Fatal("missing imsmanifest.xml")
	}
	doc, ok := parts["assessment.xml"]
	if !ok {
		t.Fatal("missing assessment.xml")
	}
	if !strings.Contains(parts["imsmanifest.xml"], `type="imsqti_xmlv1p2"`) {
		t.Error("manifest missing qti resource type")
	}
	if !strings.Contains(doc, "questestinterop") {
		t.Error("assessment missing questestinterop root")
	}
}

func TestQTIMatchingGroups(t *testing.T) {
	res, err := EncodeQTI(sampleAssessment())
	if err != nil {
		t.Fatalf("EncodeQTI: %v", err)
	}
	doc := readZip(t, res.Data)["assessment.xml"]

	// Three pairs produce three distinct group identifiers.
	for _, grp := range []string{`ident="grp_1"`, `ident="grp_2"`, `ident="grp_3"`} {
		if strings.Count(doc, grp) != 1 {
			t.Errorf("expected exactly one %s, got %d", grp, strings.Count(doc, grp))
		}
	}
	// One equality condition per pair, no duplicated associations.
	for i := 1; i <= 3; i++ {
		cond := `<varequal respident="grp_` + string(rune('0'+i)) + `">def_` + string(rune('0'+i)) + `</varequal>`
		if strings.Count(doc, cond) != 1 {
			t.Errorf("expected exactly one condition %s", cond)
		}
	}
}

func TestQTIEntityEscaping(t *testing.T) {
	a := model.Assessment{Title: `Tom & "Jerry" <quiz>`, Questions: []model.Question{
		{Ordinal: 1, Kind: model.KindEssay, Prompt: "1 < 2 & 3 > 2"},
	}}
	res, err := EncodeQTI(a)
	if err != nil {
		t.Fatalf("EncodeQTI: %v", err)
	}
	doc := readZip(t, res.Data)["assessment.xml"]
	if !strings.Contains(doc, "1 &lt; 2 &amp; 3 &gt; 2") {
		t.Errorf("prompt not entity-escaped:\n%s", doc)
	}
	if !strings.Contains(doc, "Tom &amp; &quot;Jerry&quot; &lt;quiz&gt;") {
		t.Errorf("title not entity-escaped")
	}
}

func TestQTIOrderingReusesMatching(t *testing.T) {
	a := model.Assessment{Questions: []model.Question{
		{Ordinal: 1, Kind: model.KindOrdering, Prompt: "sort",
			Items: []string{"C", "A", "B"}, CorrectOrder: []int{2, 0, 1}},
	}}
	res, err := EncodeQTI(a)
	if err != nil {
		t.Fatalf("EncodeQTI: %v", err)
	}
	doc := readZip(t, res.Data)["assessment.xml"]
	// C is first in the item list (grp_1) and lands at position 3.
	if !strings.Contains(doc, `ident="grp_1"`) {
		t.Error("expected matching-style groups for ordering")
	}
	if !strings.Contains(doc, ">C<") || !strings.Contains(doc, ">3<") {
		t.Errorf("expected item C mapped to position 3:\n%s", doc)
	}
}

func TestOrderingAnswerText(t *testing.T) {
	// C lands at position 3, A at 1, B at 2.
	q := model.Question{Kind: model.KindOrdering, Items: []string{"C", "A", "B"}, CorrectOrder: []int{2, 0, 1}}
	got := answerText(q)
	want := "1. A; 2. B; 3. C"
	if got != want {
		t.Errorf("answerText = %q, want %q", got, want)
	}
}

func TestDOCXStructure(t *testing.T) {
	res, err := EncodeDOCX(sampleAssessment())
	if err != nil {
		t.Fatalf("EncodeDOCX: %v", err)
	}
	parts := readZip(t, res.Data)
	doc, ok := parts["word/document.xml"]
	if !ok {
		t.Fatal("missing word/document.xml")
	}
	if _, ok := parts["[Content_Types].xml"]; !ok {
		t.Fatal("missing [Content_Types].xml")
	}
	// Matching renders as a table; the prompt flows as a paragraph.
	if !strings.Contains(doc, "<w:tbl>") {
		t.Error("expected a table for the matching question")
	}
	if !strings.Contains(doc, "Pick a color") {
		t.Error("expected prompt text in document")
	}
}

func TestPDFMagicHeader(t *testing.T) {
	res, err := EncodePDF(sampleAssessment())
	if err != nil {
		t.Fatalf("EncodePDF: %v", err)
	}
	if !bytes.HasPrefix(res.Data, []byte("%PDF")) {
		t.Errorf("expected %%PDF magic header, got %q", res.Data[:8])
	}
}

func TestPDFPageBreaks(t *testing.T) {
	// Enough questions to cross the bottom margin several times.
	a := model.Assessment{Title: "Long"}
	for i := 1; i <= 120; i++ {
		a.Questions = append(a.Questions, model.Question{
			Ordinal: i, Kind: model.KindShortAnswer,
			Prompt:      strings.Repeat("a long question that will surely wrap across lines ", 3),
			CorrectText: "x",
		})
	}
	res, err := EncodePDF(a)
	if err != nil {
		t.Fatalf("EncodePDF: %v", err)
	}
	// Several pages worth of output; /Page objects appear per page.
	if bytes.Count(res.Data, []byte("/Type /Page")) < 3 {
		t.Error("expected multiple pages for a long assessment")
	}
}

func TestPDFLabelsFallBackToLatinScript(t *testing.T) {
	// The core PDF fonts cannot render Cyrillic; labels keep their English
	// form while Latin-script localizations pass through.
	if err := i18n.Init("ru"); err != nil {
		t.Fatalf("Init(ru): %v", err)
	}
	t.Cleanup(func() { i18n.Init("en") })

	if got := pdfLabel("export.answer_key", nil); got != "Answer Key" {
		t.Errorf("pdfLabel(export.answer_key) = %q, want English fallback", got)
	}
	if got := pdfLabel("export.points_n", map[string]any{"Points": "2"}); got != "2 pts" {
		t.Errorf("pdfLabel(export.points_n) = %q, want '2 pts'", got)
	}

	if err := i18n.Init("en"); err != nil {
		t.Fatalf("Init(en): %v", err)
	}
	if got := pdfLabel("export.answer_key", nil); got != "Answer Key" {
		t.Errorf("pdfLabel(export.answer_key) = %q, want 'Answer Key'", got)
	}
}

func TestDOCXKeepsLocalizedLabels(t *testing.T) {
	// UTF-8 formats are not scoped to Latin-1.
	if err := i18n.Init("ru"); err != nil {
		t.Fatalf("Init(ru): %v", err)
	}
	t.Cleanup(func() { i18n.Init("en") })

	res, err := EncodeDOCX(sampleAssessment())
	if err != nil {
		t.Fatalf("EncodeDOCX: %v", err)
	}
	doc := readZip(t, res.Data)["word/document.xml"]
	if !strings.Contains(doc, "Ключ ответов") {
		t.Error("expected Russian answer key heading in document")
	}
}

func TestZeroQuestionArtifacts(t *testing.T) {
	empty := model.Assessment{Title: "Empty"}
	for _, format := range Formats() {
		t.Run(format, func(t *testing.T) {
			res, err := Encode(format, empty)
			if err != nil {
				t.Fatalf("Encode(%s): %v", format, err)
			}
			if len(res.Data) == 0 {
				t.Fatalf("Encode(%s): empty artifact", format)
			}
			if res.Rows != 0 {
				t.Errorf("expected 0 rows, got %d", res.Rows)
			}
			switch format {
			case "csv", "platform_csv":
				records := parseCSV(t, res.Data)
				if len(records) != 1 {
					t.Errorf("expected header-only table, got %d rows", len(records))
				}
			case "lms_package", "document":
				readZip(t, res.Data) // must be a valid archive
			case "printable":
				if !bytes.HasPrefix(res.Data, []byte("%PDF")) {
					t.Error("expected valid pdf")
				}
			}
		})
	}
}
