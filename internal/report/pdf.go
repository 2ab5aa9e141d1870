package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// PDFContentType is the MIME type of generated sheets.
const PDFContentType = "application/pdf"

// =============================================================================
// PDF Generator
// =============================================================================

// PDFGenerator generates printable order sheets.
type PDFGenerator struct {
	// Page dimensions (A4 in mm)
	pageWidth  float64
	pageHeight float64
	margin     float64

	// Content area
	contentWidth float64

	now func() time.Time
}

// NewPDFGenerator creates a new PDF generator with default settings.
func NewPDFGenerator() *PDFGenerator {
	margin := 15.0
	pageWidth := 210.0 // A4 width in mm
	return &PDFGenerator{
		pageWidth:    pageWidth,
		pageHeight:   297.0, // A4 height in mm
		margin:       margin,
		contentWidth: pageWidth - (2 * margin),
		now:          time.Now,
	}
}

// ContentType implements Generator.
func (g *PDFGenerator) ContentType() string {
	return PDFContentType
}

// Generate creates the sheet and writes it to the provided writer.
func (g *PDFGenerator) Generate(ctx context.Context, sheet *OrderSheet, w io.Writer) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	// Core fonts are cp1252, so names with accents need translating.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle("Order "+sheet.Reference, true)
	pdf.SetAuthor(sheet.StoreName, true)
	pdf.SetCreator(sheet.StoreName, true)
	pdf.SetAutoPageBreak(true, 20)

	generatedAt := g.now()
	pdf.SetFooterFunc(func() {
		g.addFooter(pdf, sheet, generatedAt)
	})

	g.addHeader(pdf, tr, sheet)
	g.addCustomer(pdf, tr, sheet)
	g.addLines(pdf, tr, sheet)

	if err := pdf.Error(); err != nil {
		return 0, fmt.Errorf("pdf generation error: %w", err)
	}

	// Write to buffer to count bytes
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return 0, fmt.Errorf("pdf output error: %w", err)
	}

	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

// =============================================================================
// Header
// =============================================================================

func (g *PDFGenerator) addHeader(pdf *fpdf.Fpdf, tr func(string) string, sheet *OrderSheet) {
	pdf.AddPage()

	r, gr, b := HexToRGB(BrandColors.Primary)
	pdf.SetFillColor(r, gr, b)
	pdf.Rect(0, 0, g.pageWidth, 40, "F")

	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 24)
	pdf.SetXY(g.margin, 12)
	pdf.Cell(0, 10, tr(sheet.StoreName))

	pdf.SetFont("Helvetica", "", 13)
	pdf.SetXY(g.margin, 24)
	pdf.Cell(0, 8, fmt.Sprintf("Order #%s", sheet.Reference))

	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
	pdf.SetXY(g.margin, 50)
}

// =============================================================================
// Customer
// =============================================================================

func (g *PDFGenerator) addCustomer(pdf *fpdf.Fpdf, tr func(string) string, sheet *OrderSheet) {
	g.addSectionHeader(pdf, "Customer")

	g.addLabelValue(pdf, "Name", tr(sheet.CustomerName))
	g.addLabelValue(pdf, "Phone", tr(sheet.CustomerPhone))
	g.addLabelValue(pdf, "Placed", FormatDateTime(sheet.CreatedAt))
	g.addLabelValue(pdf, "Status", sheet.Status)
	g.addLabelValue(pdf, "Notes", tr(sheet.Notes))

	pdf.Ln(8)
}

// =============================================================================
// Lines
// =============================================================================

// Column widths of the lines table; they add up to contentWidth.
var lineColumns = []struct {
	title string
	width float64
	align string
}{
	{"Curtain", 62, "L"},
	{"Colour", 28, "L"},
	{"Size", 30, "L"},
	{"Qty", 14, "C"},
	{"Unit", 23, "R"},
	{"Amount", 23, "R"},
}

func (g *PDFGenerator) addLines(pdf *fpdf.Fpdf, tr func(string) string, sheet *OrderSheet) {
	g.addSectionHeader(pdf, "Items")

	g.addTableHeader(pdf)

	pdf.SetFont("Helvetica", "", 10)
	for _, line := range sheet.Lines {
		// Repeat the header on a fresh page
		if pdf.GetY() > g.pageHeight-40 {
			pdf.AddPage()
			g.addTableHeader(pdf)
			pdf.SetFont("Helvetica", "", 10)
		}

		cells := []string{
			tr(TruncateText(line.Name, 34)),
			tr(TruncateText(line.Color, 14)),
			line.Size,
			fmt.Sprintf("%d", line.Quantity),
			tr(line.UnitPrice),
			tr(line.Amount),
		}
		for i, col := range lineColumns {
			ln := 0
			if i == len(lineColumns)-1 {
				ln = 1
			}
			pdf.CellFormat(col.width, 8, cells[i], "1", ln, col.align, false, 0, "")
		}
	}

	// Total row
	r, gr, b := HexToRGB(BrandColors.Background)
	pdf.SetFillColor(r, gr, b)
	pdf.SetFont("Helvetica", "B", 10)
	labelWidth := g.contentWidth - lineColumns[len(lineColumns)-1].width
	pdf.CellFormat(labelWidth, 8, fmt.Sprintf("Total (%d panels)", sheet.Panels), "1", 0, "R", true, 0, "")
	pdf.CellFormat(lineColumns[len(lineColumns)-1].width, 8, tr(sheet.Total), "1", 1, "R", true, 0, "")
}

func (g *PDFGenerator) addTableHeader(pdf *fpdf.Fpdf) {
	r, gr, b := HexToRGB(BrandColors.Background)
	pdf.SetFillColor(r, gr, b)
	pdf.SetFont("Helvetica", "B", 10)
	for i, col := range lineColumns {
		ln := 0
		if i == len(lineColumns)-1 {
			ln = 1
		}
		pdf.CellFormat(col.width, 8, col.title, "1", ln, col.align, true, 0, "")
	}
}

// =============================================================================
// Helper Methods
// =============================================================================

func (g *PDFGenerator) addSectionHeader(pdf *fpdf.Fpdf, title string) {
	r, gr, b := HexToRGB(BrandColors.Primary)
	pdf.SetDrawColor(r, gr, b)
	pdf.SetLineWidth(0.5)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(r, gr, b)
	pdf.Cell(0, 8, title)
	pdf.Ln(10)

	pdf.Line(g.margin, pdf.GetY(), g.pageWidth-g.margin, pdf.GetY())
	pdf.Ln(4)

	// Reset colors for the table rules and text
	r, gr, b = HexToRGB(BrandColors.Border)
	pdf.SetDrawColor(r, gr, b)
	pdf.SetLineWidth(0.2)
	r, gr, b = HexToRGB(BrandColors.TextDark)
	pdf.SetTextColor(r, gr, b)
}

func (g *PDFGenerator) addLabelValue(pdf *fpdf.Fpdf, label, value string) {
	if value == "" {
		return
	}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(30, 6, label+":")
	pdf.SetFont("Helvetica", "", 10)
	pdf.MultiCell(g.contentWidth-30, 6, value, "", "L", false)
}

func (g *PDFGenerator) addFooter(pdf *fpdf.Fpdf, sheet *OrderSheet, generatedAt time.Time) {
	pdf.SetY(-15)

	r, gr, b := HexToRGB(BrandColors.Border)
	pdf.SetDrawColor(r, gr, b)
	pdf.Line(g.margin, pdf.GetY()-3, g.pageWidth-g.margin, pdf.GetY()-3)

	r, gr, b = HexToRGB(BrandColors.TextMuted)
	pdf.SetTextColor(r, gr, b)
	pdf.SetFont("Helvetica", "", 8)

	// Left: order reference and generation date
	pdf.Cell(0, 10, fmt.Sprintf("#%s, printed %s", sheet.Reference, FormatDateTime(generatedAt)))

	// Right: page number
	pdf.SetX(-g.margin - 30)
	pdf.CellFormat(30, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
}

// Compile-time interface check
var _ Generator = (*PDFGenerator)(nil)
