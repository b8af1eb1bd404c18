package reporting

import (
	"bytes"
	"fmt"

	"github.com/hardware-forge/fij-go/internal/core/domain"
	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders a one-page executive summary of a finished campaign,
// supplementing the required CSV with a readable overview.
type PDFExporter struct{}

func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// ExportSummary generates the PDF bytes for summary.
func (e *PDFExporter) ExportSummary(summary domain.CampaignSummary) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	e.addHeader(pdf, summary)
	e.addSDCRate(pdf, summary)
	e.addCounts(pdf, summary)
	e.addBreakdown(pdf, summary)
	e.addFooter(pdf)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("generate campaign pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func (e *PDFExporter) addHeader(pdf *gofpdf.Fpdf, s domain.CampaignSummary) {
	pdf.SetFont("Arial", "B", 24)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 15, "Fault Injection Campaign: "+s.Label, "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 6, fmt.Sprintf("Baseline: %d runs (%d ok), max delay %dms", s.BaselineRuns, s.BaselineOK, s.MaxDelayMS), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Injection: %d/%d requested completed", s.Completed, s.Requested), "", 1, "L", false, 0, "")
	pdf.Ln(8)
}

// addSDCRate draws a prominent colored box for the SDC rate, the single
// number most campaigns are run to measure.
func (e *PDFExporter) addSDCRate(pdf *gofpdf.Fpdf, s domain.CampaignSummary) {
	rate := 0.0
	if s.Completed > 0 {
		rate = float64(s.Counts[domain.ClassSDC]) / float64(s.Completed) * 100
	}
	r, g, b := e.getRateColor(rate)

	pdf.SetFillColor(r, g, b)
	pdf.Rect(20, pdf.GetY(), 170, 30, "F")
	y := pdf.GetY()

	pdf.SetFont("Arial", "B", 36)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetXY(25, y+5)
	pdf.CellFormat(80, 20, fmt.Sprintf("%.1f%%", rate), "", 0, "L", false, 0, "")

	pdf.SetFont("Arial", "B", 18)
	pdf.SetXY(110, y+8)
	pdf.CellFormat(80, 14, "SDC rate", "", 0, "L", false, 0, "")

	pdf.SetY(y + 35)
	pdf.Ln(5)
}

func (e *PDFExporter) getRateColor(rate float64) (r, g, b int) {
	switch {
	case rate >= 15.0:
		return 220, 53, 69
	case rate >= 5.0:
		return 255, 149, 0
	case rate >= 1.0:
		return 255, 204, 0
	default:
		return 52, 199, 89
	}
}

func (e *PDFExporter) addCounts(pdf *gofpdf.Fpdf, s domain.CampaignSummary) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Classification Overview", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 11)
	stats := []struct {
		label string
		value int
		color []int
	}{
		{"Crash", s.Counts[domain.ClassCrash], []int{220, 53, 69}},
		{"Hang", s.Counts[domain.ClassHang], []int{255, 149, 0}},
		{"SDC", s.Counts[domain.ClassSDC], []int{255, 204, 0}},
		{"Benign", s.Counts[domain.ClassBenign], []int{52, 199, 89}},
	}

	colWidth := 85.0
	for i, stat := range stats {
		x := 20.0
		if i%2 == 1 {
			x = 105.0
		}
		pdf.SetXY(x, pdf.GetY())

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(50, 7, stat.label+":", "", 0, "L", false, 0, "")

		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(stat.color[0], stat.color[1], stat.color[2])
		pdf.CellFormat(colWidth-50, 7, fmt.Sprintf("%d", stat.value), "", 0, "R", false, 0, "")

		if i%2 == 1 {
			pdf.Ln(7)
		}
	}
	pdf.Ln(10)
}

func (e *PDFExporter) addBreakdown(pdf *gofpdf.Fpdf, s domain.CampaignSummary) {
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 51, 102)
	pdf.CellFormat(0, 10, "Register vs Memory Breakdown", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFillColor(240, 240, 240)
	pdf.SetFont("Arial", "B", 10)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(45, 8, "Classification", "1", 0, "L", true, 0, "")
	pdf.CellFormat(40, 8, "Register", "1", 0, "C", true, 0, "")
	pdf.CellFormat(40, 8, "Memory", "1", 1, "C", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	for _, class := range []domain.Classification{domain.ClassCrash, domain.ClassHang, domain.ClassSDC, domain.ClassBenign} {
		pdf.CellFormat(45, 7, string(class), "1", 0, "L", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%d", s.RegisterCounts[class]), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 7, fmt.Sprintf("%d", s.MemoryCounts[class]), "1", 1, "C", false, 0, "")
	}
	pdf.Ln(8)
}

func (e *PDFExporter) addFooter(pdf *gofpdf.Fpdf) {
	pdf.SetY(-20)
	pdf.SetDrawColor(200, 200, 200)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.Ln(3)

	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(120, 120, 120)
	pdf.CellFormat(0, 5, "Generated by fij-campaign", "", 1, "C", false, 0, "")
}
