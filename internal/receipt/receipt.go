package receipt

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/MrJamesThe3rd/settle/internal/charge"
)

const ContentType = "application/pdf"

// Filename is the download name for a payment's receipt.
func Filename(p *charge.Payment) string {
	return fmt.Sprintf("receipt_%s_%s.pdf", p.CreatedAt.Format("20060102"), p.ID.String()[:8])
}

// Render builds the PDF receipt for a settled payment.
func Render(p *charge.Payment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetTitle("Payment receipt", false)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.Cell(0, 8, "Payment Receipt")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 10)

	lines := []string{
		fmt.Sprintf("Receipt: %s", p.ID),
		fmt.Sprintf("Date: %s", p.CreatedAt.Format(time.RFC3339)),
		fmt.Sprintf("Resident: %s", ownerLine(p)),
		fmt.Sprintf("Type: %s", p.Kind.Label()),
		fmt.Sprintf("Method: %s", p.Method),
	}
	for _, l := range lines {
		pdf.Cell(0, 6, tr(l))
		pdf.Ln(5)
	}

	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(120, 6, "Concept", "1", 0, "L", false, 0, "")
	pdf.CellFormat(50, 6, "Amount", "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)

	for _, a := range p.Allocations {
		pdf.CellFormat(120, 6, tr(a.Concept), "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, a.Amount.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(120, 6, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(50, 6, p.Total.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("rendering receipt: %w", err)
	}

	return buf.Bytes(), nil
}

func ownerLine(p *charge.Payment) string {
	if p.Owner == nil || p.Owner.Name == "" {
		return p.OwnerID.String()
	}

	if p.Owner.Unit == "" {
		return p.Owner.Name
	}

	return fmt.Sprintf("%s (%s)", p.Owner.Name, p.Owner.Unit)
}
