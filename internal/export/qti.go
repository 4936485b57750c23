package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/pavelanni/quizsmith/internal/model"
)

// EncodeQTI produces a QTI 1.2 content package: a zip archive with one
// manifest entry and one questestinterop markup entry. Every kind lowers to
// a typed interaction; kinds with no direct QTI form degrade to a minimal
// open-ended item so the package imports cleanly regardless of content.
func EncodeQTI(a model.Assessment) (Result, error) {
	assessmentID := "qs_" + uuid.NewString()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	manifest := qtiManifest(assessmentID, a.Title)
	f, err := zw.Create("imsmanifest.xml")
	if err != nil {
		return Result{}, fmt.Errorf("create manifest entry: %w", err)
	}
	if _, err := f.Write([]byte(manifest)); err != nil {
		return Result{}, fmt.Errorf("write manifest: %w", err)
	}

	f, err = zw.Create("assessment.xml")
	if err != nil {
		return Result{}, fmt.Errorf("create assessment entry: %w", err)
	}
	if _, err := f.Write([]byte(qtiAssessment(assessmentID, a))); err != nil {
		return Result{}, fmt.Errorf("write assessment: %w", err)
	}

	if err := zw.Close(); err != nil {
		return Result{}, fmt.Errorf("close archive: %w", err)
	}

	return Result{
		Data:        buf.Bytes(),
		ContentType: "application/zip",
		Ext:         "zip",
		Rows:        len(a.Questions),
	}, nil
}

// xmlEscape entity-escapes free text for embedding in markup.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func xmlEscape(s string) string {
	return xmlEscaper.Replace(s)
}

func qtiManifest(assessmentID, title string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<manifest identifier="man_%s" xmlns="http://www.imsglobal.org/xsd/imscp_v1p1">`+"\n", assessmentID)
	b.WriteString("  <organizations/>\n")
	b.WriteString("  <resources>\n")
	fmt.Fprintf(&b, `    <resource identifier="res_%s" type="imsqti_xmlv1p2" href="assessment.xml" title="%s">`+"\n",
		assessmentID, xmlEscape(title))
	b.WriteString(`      <file href="assessment.xml"/>` + "\n")
	b.WriteString("    </resource>\n")
	b.WriteString("  </resources>\n")
	b.WriteString("</manifest>\n")
	return b.String()
}

func qtiAssessment(assessmentID string, a model.Assessment) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<questestinterop xmlns="http://www.imsglobal.org/xsd/ims_qtiasiv1p2">` + "\n")
	fmt.Fprintf(&b, `  <assessment ident="%s" title="%s">`+"\n", assessmentID, xmlEscape(a.Title))
	b.WriteString(`    <section ident="root_section">` + "\n")
	for _, q := range a.Questions {
		b.WriteString(qtiItem(q))
	}
	b.WriteString("    </section>\n")
	b.WriteString("  </assessment>\n")
	b.WriteString("</questestinterop>\n")
	return b.String()
}

func qtiItem(q model.Question) string {
	ident := fmt.Sprintf("item_%d", q.Ordinal)
	title := fmt.Sprintf("Question %d", q.Ordinal)

	var b strings.Builder
	fmt.Fprintf(&b, `      <item ident="%s" title="%s">`+"\n", ident, title)

	switch q.Kind {
	case model.KindMultipleChoice:
		writeChoiceItem(&b, q, []int{q.CorrectIndex}, "Single")
	case model.KindTrueFalse:
		tf := q
		tf.Options = []string{"True", "False"}
		correct := 0
		if !q.CorrectBool {
			correct = 1
		}
		writeChoiceItem(&b, tf, []int{correct}, "Single")
	case model.KindSelectAll:
		writeChoiceItem(&b, q, q.CorrectIndices, "Multiple")
	case model.KindMatching:
		writeMatchItem(&b, q.Prompt, q.Pairs)
	case model.KindOrdering:
		// Ordering reuses the matching machinery: each item maps to its
		// 1-based position under the correct order.
		pairs := make([]model.MatchPair, len(q.Items))
		for i, item := range q.Items {
			rank := i
			if i < len(q.CorrectOrder) {
				rank = q.CorrectOrder[i]
			}
			pairs[i] = model.MatchPair{Term: item, Definition: fmt.Sprintf("%d", rank+1)}
		}
		writeMatchItem(&b, q.Prompt, pairs)
	case model.KindFillInBlank, model.KindCloze, model.KindShortAnswer:
		writeFibItem(&b, q.Prompt, acceptableAnswers(q))
	default:
		// essay, stimulus: minimal open-ended item keeps the package valid.
		writeFibItem(&b, q.Prompt, nil)
	}

	b.WriteString("      </item>\n")
	return b.String()
}

func writeChoiceItem(b *strings.Builder, q model.Question, correct []int, cardinality string) {
	b.WriteString("        <presentation>\n")
	fmt.Fprintf(b, "          <material><mattext texttype=\"text/plain\">%s</mattext></material>\n", xmlEscape(q.Prompt))
	fmt.Fprintf(b, `          <response_lid ident="response" rcardinality="%s">`+"\n", cardinality)
	b.WriteString("            <render_choice>\n")
	for i, opt := range q.Options {
		fmt.Fprintf(b, `              <response_label ident="opt_%d"><material><mattext texttype="text/plain">%s</mattext></material></response_label>`+"\n",
			i, xmlEscape(opt))
	}
	b.WriteString("            </render_choice>\n")
	b.WriteString("          </response_lid>\n")
	b.WriteString("        </presentation>\n")

	b.WriteString("        <resprocessing>\n")
	b.WriteString("          <outcomes><decvar varname=\"SCORE\" vartype=\"Decimal\" defaultval=\"0\"/></outcomes>\n")
	b.WriteString("          <respcondition continue=\"No\">\n")
	b.WriteString("            <conditionvar>\n")
	if cardinality == "Multiple" && len(correct) > 1 {
		b.WriteString("              <and>\n")
		for _, i := range correct {
			fmt.Fprintf(b, `                <varequal respident="response">opt_%d</varequal>`+"\n", i)
		}
		b.WriteString("              </and>\n")
	} else {
		for _, i := range correct {
			fmt.Fprintf(b, `              <varequal respident="response">opt_%d</varequal>`+"\n", i)
		}
	}
	b.WriteString("            </conditionvar>\n")
	b.WriteString("            <setvar varname=\"SCORE\" action=\"Set\">1</setvar>\n")
	b.WriteString("          </respcondition>\n")
	b.WriteString("        </resprocessing>\n")
}

// writeMatchItem lowers term/definition pairs to one response group per term
// (grp_N on the prompt side, def_N on the definition side) with one equality
// condition per pair.
func writeMatchItem(b *strings.Builder, prompt string, pairs []model.MatchPair) {
	b.WriteString("        <presentation>\n")
	fmt.Fprintf(b, "          <material><mattext texttype=\"text/plain\">%s</mattext></material>\n", xmlEscape(prompt))
	for i, p := range pairs {
		fmt.Fprintf(b, `          <response_lid ident="grp_%d" rcardinality="Single">`+"\n", i+1)
		fmt.Fprintf(b, "            <material><mattext texttype=\"text/plain\">%s</mattext></material>\n", xmlEscape(p.Term))
		b.WriteString("            <render_choice>\n")
		for j, other := range pairs {
			fmt.Fprintf(b, `              <response_label ident="def_%d"><material><mattext texttype="text/plain">%s</mattext></material></response_label>`+"\n",
				j+1, xmlEscape(other.Definition))
		}
		b.WriteString("            </render_choice>\n")
		b.WriteString("          </response_lid>\n")
	}
	b.WriteString("        </presentation>\n")

	b.WriteString("        <resprocessing>\n")
	b.WriteString("          <outcomes><decvar varname=\"SCORE\" vartype=\"Decimal\" defaultval=\"0\"/></outcomes>\n")
	for i := range pairs {
		b.WriteString("          <respcondition continue=\"Yes\">\n")
		b.WriteString("            <conditionvar>\n")
		fmt.Fprintf(b, `              <varequal respident="grp_%d">def_%d</varequal>`+"\n", i+1, i+1)
		b.WriteString("            </conditionvar>\n")
		b.WriteString("            <setvar varname=\"SCORE\" action=\"Add\">1</setvar>\n")
		b.WriteString("          </respcondition>\n")
	}
	b.WriteString("        </resprocessing>\n")
}

// writeFibItem lowers to a fill-in-the-blank render with one case-insensitive
// equality condition per acceptable answer. With no answers it stays a valid
// open-ended item.
func writeFibItem(b *strings.Builder, prompt string, answers []string) {
	b.WriteString("        <presentation>\n")
	fmt.Fprintf(b, "          <material><mattext texttype=\"text/plain\">%s</mattext></material>\n", xmlEscape(prompt))
	b.WriteString(`          <response_str ident="response" rcardinality="Single">` + "\n")
	b.WriteString(`            <render_fib><response_label ident="answer"/></render_fib>` + "\n")
	b.WriteString("          </response_str>\n")
	b.WriteString("        </presentation>\n")

	b.WriteString("        <resprocessing>\n")
	b.WriteString("          <outcomes><decvar varname=\"SCORE\" vartype=\"Decimal\" defaultval=\"0\"/></outcomes>\n")
	for _, ans := range answers {
		b.WriteString("          <respcondition continue=\"No\">\n")
		b.WriteString("            <conditionvar>\n")
		fmt.Fprintf(b, `              <varequal respident="response" case="No">%s</varequal>`+"\n", xmlEscape(ans))
		b.WriteString("            </conditionvar>\n")
		b.WriteString("            <setvar varname=\"SCORE\" action=\"Set\">1</setvar>\n")
		b.WriteString("          </respcondition>\n")
	}
	b.WriteString("        </resprocessing>\n")
}
