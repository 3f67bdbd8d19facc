package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark/ast"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// RenderPDF lays out markdown on A4 pages using the core Arial font.
// UTF-8 text is translated to cp1252 so Portuguese accents survive.
func RenderPDF(markdown, title string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.AddPage()
	pdf.SetFont("Arial", "", 9)

	source := []byte(markdown)
	doc := markdownEngine.Parser().Parse(text.NewReader(source))

	renderer := &pdfRenderer{
		pdf:       pdf,
		source:    source,
		translate: pdf.UnicodeTranslatorFromDescriptor(""),
		font:      "Arial",
		size:      9,
	}
	if err := ast.Walk(doc, renderer.walk); err != nil {
		return nil, fmt.Errorf("failed to lay out PDF: %w", err)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}
	return buf.Bytes(), nil
}

type pdfRenderer struct {
	pdf       *fpdf.Fpdf
	source    []byte
	translate func(string) string
	font      string
	size      float64
	bold      bool
	italic    bool
	listLevel int
}

func (r *pdfRenderer) updateFont() {
	style := ""
	if r.bold {
		style += "B"
	}
	if r.italic {
		style += "I"
	}
	r.pdf.SetFont(r.font, style, r.size)
}

func (r *pdfRenderer) write(s string) {
	r.pdf.Write(5, r.translate(s))
}

func (r *pdfRenderer) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n.Kind() {
	case ast.KindHeading:
		return r.handleHeading(n.(*ast.Heading), entering)
	case ast.KindParagraph, ast.KindTextBlock:
		if !entering && r.listLevel == 0 {
			r.pdf.Ln(7)
		}
	case ast.KindText:
		if entering {
			t := n.(*ast.Text)
			r.write(string(t.Segment.Value(r.source)))
			if t.SoftLineBreak() {
				r.write(" ")
			}
		}
	case ast.KindAutoLink:
		if entering {
			r.write(string(n.(*ast.AutoLink).URL(r.source)))
		}
		return ast.WalkSkipChildren, nil
	case ast.KindEmphasis:
		if n.(*ast.Emphasis).Level == 2 {
			r.bold = entering
		} else {
			r.italic = entering
		}
		r.updateFont()
	case ast.KindList:
		if entering {
			r.listLevel++
		} else {
			r.listLevel--
			if r.listLevel == 0 {
				r.pdf.Ln(7)
			}
		}
	case ast.KindListItem:
		if entering {
			r.pdf.Ln(5)
			r.pdf.SetX(10 + float64(r.listLevel)*5)
			r.write("- ")
		}
	case extast.KindTable:
		if entering {
			r.renderTable(r.tableRows(n))
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) handleHeading(n *ast.Heading, entering bool) (ast.WalkStatus, error) {
	if !entering {
		r.pdf.Ln(6)
		r.updateFont()
		return ast.WalkContinue, nil
	}

	r.pdf.Ln(4)
	size := 10.0
	switch n.Level {
	case 1:
		size = 14
	case 2:
		size = 12
	case 3:
		size = 11
	}
	r.pdf.SetFont(r.font, "B", size)
	return ast.WalkContinue, nil
}

func (r *pdfRenderer) tableRows(n ast.Node) [][]string {
	var rows [][]string
	var collect func(node ast.Node)
	collect = func(node ast.Node) {
		for child := node.FirstChild(); child != nil; child = child.NextSibling() {
			switch child.(type) {
			case *extast.TableHeader, *extast.TableRow:
				var row []string
				for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
					row = append(row, strings.TrimSpace(cellText(cell, r.source)))
				}
				rows = append(rows, row)
			}
		}
	}
	collect(n)
	return rows
}

func cellText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := child.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// renderTable draws a bordered table with equal-width columns, header shaded
func (r *pdfRenderer) renderTable(rows [][]string) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	const pageWidth = 190.0
	const lineHeight = 5.0
	colWidth := pageWidth / float64(len(rows[0]))

	r.pdf.Ln(2)
	for i, row := range rows {
		if i == 0 {
			r.pdf.SetFont(r.font, "B", 8)
			r.pdf.SetFillColor(230, 230, 230)
		} else {
			r.pdf.SetFont(r.font, "", 8)
			r.pdf.SetFillColor(255, 255, 255)
		}
		for j := range rows[0] {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			r.pdf.CellFormat(colWidth, lineHeight+1, r.translate(cell), "1", 0, "L", i == 0, 0, "")
		}
		r.pdf.Ln(-1)
	}
	r.pdf.Ln(3)
	r.updateFont()
}
