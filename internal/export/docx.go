package export

import (
	"archive/zip"
	"bytes"
	"fmt"
	"strings"

	"github.com/pavelanni/quizsmith/internal/i18n"
	"github.com/pavelanni/quizsmith/internal/model"
)

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
  <Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
  <Default Extension="xml" ContentType="application/xml"/>
  <Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>
`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
  <Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>
`

// EncodeDOCX renders the editable document: the same questions-then-answer-key
// section structure as the printable encoder, but as heading, paragraph and
// table blocks in a WordprocessingML container. Fixed-column content
// (matching pairs, the answer key) becomes tables; everything else flows as
// headings and paragraphs.
func EncodeDOCX(a model.Assessment) (Result, error) {
	var body strings.Builder
	docxHeading(&body, a.Title, 32)
	docxPara(&body, i18n.T("export.name")+": ____________________    "+i18n.T("export.date")+": __________")

	docxHeading(&body, i18n.T("export.questions"), 26)
	for _, q := range a.Questions {
		docxQuestion(&body, q)
	}

	docxHeading(&body, i18n.T("export.answer_key"), 26)
	if len(a.Questions) > 0 {
		rows := make([][]string, 0, len(a.Questions))
		for _, q := range a.Questions {
			rows = append(rows, []string{fmt.Sprintf("%d", q.Ordinal), answerText(q)})
		}
		docxTable(&body, rows)
	}

	document := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">` +
		"<w:body>" + body.String() + "<w:sectPr/></w:body></w:document>"

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	parts := []struct{ name, content string }{
		{"[Content_Types].xml", docxContentTypes},
		{"_rels/.rels", docxRels},
		{"word/document.xml", document},
	}
	for _, p := range parts {
		f, err := zw.Create(p.name)
		if err != nil {
			return Result{}, fmt.Errorf("create part %s: %w", p.name, err)
		}
		if _, err := f.Write([]byte(p.content)); err != nil {
			return Result{}, fmt.Errorf("write part %s: %w", p.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return Result{}, fmt.Errorf("close archive: %w", err)
	}

	return Result{
		Data:        buf.Bytes(),
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Ext:         "docx",
		Rows:        len(a.Questions),
	}, nil
}

func docxQuestion(b *strings.Builder, q model.Question) {
	header := fmt.Sprintf("%d. %s", q.Ordinal, q.Prompt)
	if q.Points > 0 {
		header += "  (" + i18n.Td("export.points_n", map[string]any{"Points": formatPoints(q.Points)}) + ")"
	}
	docxBoldPara(b, header)

	switch q.Kind {
	case model.KindMultipleChoice, model.KindSelectAll, model.KindTrueFalse:
		for i, opt := range q.Options {
			docxPara(b, optionLetter(i)+") "+opt)
		}
	case model.KindMatching:
		docxPara(b, i18n.T("export.match_instructions"))
		rows := [][]string{{i18n.T("export.term"), i18n.T("export.definition")}}
		for _, p := range q.Pairs {
			rows = append(rows, []string{p.Term, p.Definition})
		}
		docxTable(b, rows)
	case model.KindOrdering:
		docxPara(b, i18n.T("export.order_instructions"))
		for _, item := range q.Items {
			docxPara(b, "____  "+item)
		}
	case model.KindFillInBlank, model.KindCloze, model.KindShortAnswer:
		docxPara(b, "________________________________________")
	case model.KindEssay:
		for i := 0; i < 4; i++ {
			docxPara(b, "________________________________________")
		}
	}
}

func docxPara(b *strings.Builder, text string) {
	fmt.Fprintf(b, `<w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, xmlEscape(text))
}

func docxBoldPara(b *strings.Builder, text string) {
	fmt.Fprintf(b, `<w:p><w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r></w:p>`, xmlEscape(text))
}

// docxHeading writes a bold paragraph at the given half-point size.
func docxHeading(b *strings.Builder, text string, halfPoints int) {
	fmt.Fprintf(b,
		`<w:p><w:r><w:rPr><w:b/><w:sz w:val="%d"/></w:rPr><w:t xml:space="preserve">%s</w:t></w:r></w:p>`,
		halfPoints, xmlEscape(text))
}

func docxTable(b *strings.Builder, rows [][]string) {
	b.WriteString(`<w:tbl><w:tblPr><w:tblBorders>` +
		`<w:top w:val="single" w:sz="4"/><w:bottom w:val="single" w:sz="4"/>` +
		`<w:left w:val="single" w:sz="4"/><w:right w:val="single" w:sz="4"/>` +
		`<w:insideH w:val="single" w:sz="4"/><w:insideV w:val="single" w:sz="4"/>` +
		`</w:tblBorders></w:tblPr>`)
	for _, row := range rows {
		b.WriteString("<w:tr>")
		for _, cell := range row {
			fmt.Fprintf(b, `<w:tc><w:p><w:r><w:t xml:space="preserve">%s</w:t></w:r></w:p></w:tc>`, xmlEscape(cell))
		}
		b.WriteString("</w:tr>")
	}
	b.WriteString("</w:tbl>")
}
