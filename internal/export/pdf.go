package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateLine is a label/value pair printed on a certificate.
type CertificateLine struct {
	Label string
	Value string
}

// Certificate is a printable summary of a decided request.
type Certificate struct {
	Title          string
	Lines          []CertificateLine
	DecisionsTitle string
	Decisions      []string
	GeneratedAt    time.Time
}

// WriteCertificate renders c as an A4 PDF.
func WriteCertificate(w io.Writer, c Certificate) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	// Core fonts are cp1252; accented French labels need translating.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(0, 12, tr(c.Title), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	for _, line := range c.Lines {
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(55, 8, tr(line.Label), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 11)
		pdf.MultiCell(0, 8, tr(line.Value), "", "L", false)
	}

	if len(c.Decisions) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(0, 9, tr(c.DecisionsTitle), "B", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, d := range c.Decisions {
			pdf.MultiCell(0, 7, tr("- "+d), "", "L", false)
		}
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 8)
	pdf.CellFormat(0, 6, c.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "R", false, 0, "")

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render certificate: %w", err)
	}
	return nil
}
