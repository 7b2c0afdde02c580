package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/MrJamesThe3rd/settle/internal/charge"
	"github.com/MrJamesThe3rd/settle/internal/settlement"
)

func TestService_SaveReceipt(t *testing.T) {
	paymentID := uuid.New()

	type testCase struct {
		name     string
		filename string
		want     string
	}

	tests := []testCase{
		{name: "FromLedger", filename: "receipt_20260301_abcd1234.pdf", want: "receipt_20260301_abcd1234.pdf"},
		{name: "StripsDirectories", filename: "../../etc/receipt.pdf", want: "receipt.pdf"},
		{name: "SanitizesSpaces", filename: "recibo marzo.pdf", want: "recibo_marzo.pdf"},
		{name: "Fallback", filename: "", want: "receipt_" + paymentID.String() + ".pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "receipts")
			svc := NewService(dir)

			path, err := svc.SaveReceipt(&settlement.Receipt{
				PaymentID: paymentID,
				Filename:  tt.filename,
				Data:      []byte("%PDF-1.3"),
			})
			require.NoError(t, err)

			assert.Equal(t, filepath.Join(dir, tt.want), path)

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, []byte("%PDF-1.3"), content)
		})
	}
}

func TestService_SaveReceipt_Empty(t *testing.T) {
	svc := NewService(t.TempDir())

	_, err := svc.SaveReceipt(&settlement.Receipt{PaymentID: uuid.New()})
	assert.Error(t, err)
}

func TestService_SavePayments(t *testing.T) {
	owner := uuid.New()
	payments := []*charge.Payment{
		{
			ID:      uuid.New(),
			OwnerID: owner,
			Owner:   &charge.Owner{ID: owner, Name: "Ana Ruiz", Unit: "A-1"},
			Kind:    charge.KindMaintenance,
			Method:  charge.MethodCash,
			Total:   decimal.RequireFromString("650.00"),
			Allocations: []charge.Allocation{
				{ChargeID: uuid.New(), Concept: "Cuota marzo", Amount: decimal.RequireFromString("500.00")},
				{ChargeID: uuid.New(), Concept: "Cuota abril", Amount: decimal.RequireFromString("150.00")},
			},
			CreatedAt: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
		},
	}

	dir := t.TempDir()
	svc := NewService(dir)
	svc.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }

	path, err := svc.SavePayments(charge.KindMaintenance, payments)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "payments_maintenance_20260302_080000.xlsx"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(paymentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Owner", rows[0][2])
	assert.Equal(t, payments[0].ID.String(), rows[1][0])
	assert.Equal(t, "2026-03-01 10:30", rows[1][1])
	assert.Equal(t, "Ana Ruiz", rows[1][2])
	assert.Equal(t, "Maintenance", rows[1][4])
	assert.Equal(t, "650", rows[1][6])

	allocs, err := f.GetRows(allocationsSheet)
	require.NoError(t, err)
	require.Len(t, allocs, 3)
	assert.Equal(t, "Cuota abril", allocs[2][2])
	assert.Equal(t, "150", allocs[2][3])
}
