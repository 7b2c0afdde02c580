package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/settle/internal/charge"
	"github.com/MrJamesThe3rd/settle/internal/settlement"
)

const (
	paymentsSheet    = "payments"
	allocationsSheet = "allocations"
)

// Service writes receipts and payment history to the receipts directory.
type Service struct {
	dir string
	now func() time.Time
}

func NewService(dir string) *Service {
	return &Service{dir: dir, now: time.Now}
}

func (s *Service) Dir() string {
	return s.dir
}

// SaveReceipt writes the receipt document and returns its path. An existing file with the same
// name is overwritten, the ledger renders the same document for the same payment.
func (s *Service) SaveReceipt(r *settlement.Receipt) (string, error) {
	if r.Empty() {
		return "", fmt.Errorf("receipt for payment %s has no document", r.PaymentID)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path := filepath.Join(s.dir, receiptFilename(r))

	if err := os.WriteFile(path, r.Data, 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

func receiptFilename(r *settlement.Receipt) string {
	name := filepath.Base(r.Filename)
	if name == "." || name == string(filepath.Separator) {
		name = "receipt_" + r.PaymentID.String() + ".pdf"
	}

	return sanitize(name)
}

func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' || r == '.' {
			return r
		}

		return '_'
	}, name)
}

// SavePayments writes the payment history to an XLSX workbook and returns its path.
func (s *Service) SavePayments(kind charge.Kind, payments []*charge.Payment) (string, error) {
	data, err := BuildPaymentsXLSX(payments)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	// Format: payments_<kind>_YYYYMMDD_HHMMSS.xlsx
	name := fmt.Sprintf("payments_%s_%s.xlsx", kind, s.now().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}

	return path, nil
}

// BuildPaymentsXLSX renders one row per payment and, on a second sheet, one row per allocation.
// Amounts are written as numbers so the sheet can total them.
func BuildPaymentsXLSX(payments []*charge.Payment) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", paymentsSheet); err != nil {
		return nil, fmt.Errorf("naming sheet: %w", err)
	}

	if _, err := f.NewSheet(allocationsSheet); err != nil {
		return nil, fmt.Errorf("creating sheet: %w", err)
	}

	header := []any{"Payment", "Date", "Owner", "Unit", "Kind", "Method", "Total", "Charges"}
	if err := f.SetSheetRow(paymentsSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	allocHeader := []any{"Payment", "Charge", "Concept", "Amount"}
	if err := f.SetSheetRow(allocationsSheet, "A1", &allocHeader); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	allocRow := 2

	for i, p := range payments {
		unit := ""
		if p.Owner != nil {
			unit = p.Owner.Unit
		}

		row := []any{
			p.ID.String(),
			p.CreatedAt.Format("2006-01-02 15:04"),
			p.OwnerName(),
			unit,
			p.Kind.Label(),
			string(p.Method),
			p.Total.InexactFloat64(),
			len(p.Allocations),
		}

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(paymentsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing payment %s: %w", p.ID, err)
		}

		for _, a := range p.Allocations {
			arow := []any{p.ID.String(), a.ChargeID.String(), a.Concept, a.Amount.InexactFloat64()}

			cell, _ := excelize.CoordinatesToCellName(1, allocRow)
			if err := f.SetSheetRow(allocationsSheet, cell, &arow); err != nil {
				return nil, fmt.Errorf("writing allocation for payment %s: %w", p.ID, err)
			}

			allocRow++
		}
	}

	_ = f.SetColWidth(paymentsSheet, "A", "A", 38)
	_ = f.SetColWidth(paymentsSheet, "C", "C", 28)
	_ = f.SetColWidth(allocationsSheet, "A", "B", 38)
	_ = f.SetColWidth(allocationsSheet, "C", "C", 32)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("encoding workbook: %w", err)
	}

	return buf.Bytes(), nil
}
