package pdf

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// A4 portrait, in millimetres.
const (
	pageWidth    = 210.0
	margin       = 20.0
	contentWidth = pageWidth - 2*margin
	topY         = 20.0
	pageBreakY   = 250.0
	footerY      = 280.0
	rowHeight    = 7.0
)

type rgb struct{ R, G, B int }

var (
	colorTitle    = rgb{44, 62, 80}
	colorSubtitle = rgb{52, 73, 94}
	colorMuted    = rgb{127, 140, 141}
	colorBlue     = rgb{52, 152, 219}
	colorGreen    = rgb{46, 204, 113}
	colorRed      = rgb{231, 76, 60}
	colorPurple   = rgb{155, 89, 182}
	colorStripe   = rgb{248, 249, 250}
	colorWhite    = rgb{255, 255, 255}
)

// document keeps the write position and breaks pages by hand so that
// sections and tables never start in the footer area.
type document struct {
	pdf     *fpdf.Fpdf
	font    string
	tr      func(string) string
	y       float64
	appName string
}

func newDocument(appName, fontPath string) (*document, error) {
	p := fpdf.New("P", "mm", "A4", "")
	p.SetMargins(margin, topY, margin)
	p.SetAutoPageBreak(false, 0)
	p.SetCreator(appName, true)
	p.AliasNbPages("")

	d := &document{pdf: p, font: "Helvetica", tr: p.UnicodeTranslatorFromDescriptor(""), y: topY, appName: appName}
	if fontPath != "" {
		p.AddUTF8Font("body", "", fontPath)
		p.AddUTF8Font("body", "B", fontPath)
		if err := p.Error(); err != nil {
			return nil, fmt.Errorf("load pdf font: %w", err)
		}
		d.font = "body"
		d.tr = func(s string) string { return s }
	}
	p.SetFooterFunc(d.footer)
	p.AddPage()
	return d, nil
}

func (d *document) style(bold bool, size float64, c rgb) {
	s := ""
	if bold {
		s = "B"
	}
	d.pdf.SetFont(d.font, s, size)
	d.pdf.SetTextColor(c.R, c.G, c.B)
}

func (d *document) text(x, y, w, h float64, s, align string) {
	d.pdf.SetXY(x, y)
	d.pdf.CellFormat(w, h, d.tr(s), "", 0, align, false, 0, "")
}

// checkPageBreak starts a new page when required mm no longer fit above the footer area.
func (d *document) checkPageBreak(required float64) {
	if d.y+required > pageBreakY {
		d.pdf.AddPage()
		d.y = topY
	}
}

func (d *document) header(title string, generated time.Time) {
	d.style(true, 20, colorTitle)
	d.text(margin, d.y, contentWidth, 8, d.appName, "C")
	d.y += 8

	d.style(false, 14, colorSubtitle)
	d.text(margin, d.y, contentWidth, 8, title, "C")
	d.y += 8

	d.style(false, 10, colorMuted)
	d.text(margin, d.y, contentWidth, 6, "Report date: "+generated.Format("2006-01-02"), "C")
	d.y += 15
}

func (d *document) section(title string) {
	d.checkPageBreak(15)
	d.style(true, 14, colorTitle)
	d.text(margin, d.y, contentWidth, 7, title, "L")

	d.pdf.SetDrawColor(colorBlue.R, colorBlue.G, colorBlue.B)
	d.pdf.SetLineWidth(0.5)
	d.pdf.Line(margin, d.y+8, pageWidth-margin, d.y+8)
	d.y += 12
}

func (d *document) subheading(title string) {
	d.checkPageBreak(8 + 2*rowHeight)
	d.style(true, 11, colorTitle)
	d.text(margin, d.y, contentWidth, 6, title, "L")
	d.y += 8
}

type card struct {
	Label string
	Value string
	Color rgb
}

// cards lays out summary cards two per row.
func (d *document) cards(cards []card) {
	const height, gap = 25.0, 10.0
	width := (contentWidth - gap) / 2
	for i, c := range cards {
		x := margin
		if i%2 == 1 {
			x += width + gap
		} else {
			d.checkPageBreak(height + gap)
		}
		d.pdf.SetFillColor(c.Color.R, c.Color.G, c.Color.B)
		d.pdf.Rect(x, d.y, width, height, "F")

		d.style(false, 8, colorWhite)
		d.text(x+5, d.y+4, width-10, 6, c.Label, "L")
		d.style(true, 12, colorWhite)
		d.text(x+5, d.y+13, width-10, 8, c.Value, "L")

		if i%2 == 1 || i == len(cards)-1 {
			d.y += height + gap
		}
	}
	d.y += 5
}

// table draws a grid with a coloured header row and striped body rows. The
// header is repeated after a page break.
func (d *document) table(head rgb, columns []string, rows [][]string) {
	widths := make([]float64, len(columns))
	for i := range widths {
		widths[i] = contentWidth / float64(len(columns))
	}

	drawHead := func() {
		d.pdf.SetFillColor(head.R, head.G, head.B)
		d.pdf.SetDrawColor(200, 200, 200)
		d.pdf.SetLineWidth(0.1)
		d.style(true, 10, colorWhite)
		d.pdf.SetXY(margin, d.y)
		for i, col := range columns {
			d.pdf.CellFormat(widths[i], rowHeight+1, d.tr(col), "1", 0, "C", true, 0, "")
		}
		d.y += rowHeight + 1
	}

	d.checkPageBreak(2*rowHeight + 1)
	drawHead()
	for r, row := range rows {
		if d.y+rowHeight > pageBreakY {
			d.pdf.AddPage()
			d.y = topY
			drawHead()
		}
		d.style(false, 9, colorTitle)
		d.pdf.SetFillColor(colorStripe.R, colorStripe.G, colorStripe.B)
		d.pdf.SetXY(margin, d.y)
		for i := range columns {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			d.pdf.CellFormat(widths[i], rowHeight, d.tr(cell), "1", 0, "C", r%2 == 1, 0, "")
		}
		d.y += rowHeight
	}
	d.y += 10
}

func (d *document) lines(items []string) {
	d.style(false, 10, colorTitle)
	for _, item := range items {
		d.checkPageBreak(6)
		d.text(margin, d.y, contentWidth, 6, item, "L")
		d.y += 6
	}
	d.y += 10
}

func (d *document) footer() {
	d.style(false, 8, colorMuted)
	d.text(margin, footerY, contentWidth, 5, "Generated by the "+d.appName+" management system", "C")
	d.text(margin, footerY+5, contentWidth, 5, fmt.Sprintf("Page %d of {nb}", d.pdf.PageNo()), "C")
}

func (d *document) pages() int {
	return d.pdf.PageCount()
}

func (d *document) bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
