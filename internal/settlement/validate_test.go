package settlement_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/settle/internal/charge"
	"github.com/MrJamesThe3rd/settle/internal/settlement"
)

func TestValidate_NoSelection(t *testing.T) {
	errs := settlement.Validate(settlement.Selection{}, nil)

	require.Len(t, errs, 1)
	assert.Equal(t, settlement.CodeNoSelection, errs[0].Code)
	assert.Equal(t, "no charges selected", errs[0].Message)
}

func TestValidate_PerCharge(t *testing.T) {
	owner := uuid.New()

	type testCase struct {
		name     string
		raw      string
		wantCode settlement.ValidationCode
	}

	tests := []testCase{
		{name: "FullBalance", raw: "500.00"},
		{name: "Partial", raw: "0.01"},
		{name: "WithCurrencyAndSeparators", raw: "$ 1,00.00"},
		{name: "Empty", raw: "", wantCode: settlement.CodeInvalidAmount},
		{name: "Garbage", raw: "12abc", wantCode: settlement.CodeInvalidAmount},
		{name: "NaN", raw: "NaN", wantCode: settlement.CodeInvalidAmount},
		{name: "Zero", raw: "0", wantCode: settlement.CodeNonPositive},
		{name: "Negative", raw: "-5", wantCode: settlement.CodeNonPositive},
		{name: "OverBalance", raw: "600.00", wantCode: settlement.CodeExceedsBalance},
		{name: "OneCentOver", raw: "500.01", wantCode: settlement.CodeExceedsBalance},
		{name: "HalfCent", raw: "10.005", wantCode: settlement.CodeInvalidAmount},
		{name: "BelowOneCent", raw: "0.004", wantCode: settlement.CodeInvalidAmount},
		{name: "TenthOfCent", raw: "1.001", wantCode: settlement.CodeInvalidAmount},
		{name: "TrailingZerosPastCents", raw: "1.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newCharge(owner, "Cuota marzo", "500", "0")
			sel := selectAll(t, a).SetAmount(a.ID, tt.raw)

			errs := settlement.Validate(sel, indexOf(a))

			if tt.wantCode == "" {
				assert.Empty(t, errs)
				return
			}

			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantCode, errs[0].Code)
			assert.Equal(t, a.ID, errs[0].ChargeID)
			assert.Contains(t, errs[0].Message, "Cuota marzo")
			assert.Contains(t, errs[0].Message, a.ID.String())
		})
	}
}

func TestValidate_ReportsEveryViolation(t *testing.T) {
	owner := uuid.New()
	a := newCharge(owner, "Cuota marzo", "500", "0")
	b := newCharge(owner, "Cuota abril", "300", "0")
	c := newCharge(owner, "Cuota mayo", "100", "0")

	sel := selectAll(t, a, b, c).
		SetAmount(a.ID, "600").
		SetAmount(b.ID, "0")

	errs := settlement.Validate(sel, indexOf(a, b, c))

	require.Len(t, errs, 2)
	assert.Equal(t, a.ID, errs[0].ChargeID)
	assert.Equal(t, settlement.CodeExceedsBalance, errs[0].Code)
	assert.Equal(t, b.ID, errs[1].ChargeID)
	assert.Equal(t, settlement.CodeNonPositive, errs[1].Code)
}

func TestValidate_NoAggregateRule(t *testing.T) {
	owner := uuid.New()
	a := newCharge(owner, "Cuota marzo", "500", "0")
	b := newCharge(owner, "Cuota abril", "300", "0")

	// Sum exceeds any single balance but each allocation is within its own.
	sel := selectAll(t, a, b)

	assert.Empty(t, settlement.Validate(sel, indexOf(a, b)))
}

func TestValidate_UnknownAndMixedOwner(t *testing.T) {
	owner := uuid.New()
	a := newCharge(owner, "Cuota marzo", "500", "0")
	gone := newCharge(owner, "Cuota abril", "300", "0")

	sel := selectAll(t, a, gone)

	b := newCharge(owner, "Cuota mayo", "100", "0")
	sel, err := sel.Toggle(b)
	require.NoError(t, err)

	// b was reassigned to another account after it was selected.
	index := indexOf(a)
	index[b.ID] = &charge.Charge{
		ID:          b.ID,
		Concept:     b.Concept,
		AmountTotal: b.AmountTotal,
		OwnerID:     uuid.New(),
	}

	errs := settlement.Validate(sel, index)

	require.Len(t, errs, 2)
	assert.Equal(t, settlement.CodeUnknownCharge, errs[0].Code)
	assert.Equal(t, gone.ID, errs[0].ChargeID)
	assert.Equal(t, settlement.CodeMixedOwner, errs[1].Code)
	assert.Equal(t, b.ID, errs[1].ChargeID)
}

func TestParseAmount(t *testing.T) {
	type testCase struct {
		raw     string
		want    string
		wantErr bool
	}

	tests := []testCase{
		{raw: "150", want: "150.00"},
		{raw: " 1,250.5 ", want: "1250.50"},
		{raw: "$300", want: "300.00"},
		{raw: "", wantErr: true},
		{raw: "$", wantErr: true},
		{raw: "Inf", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := settlement.ParseAmount(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got.StringFixed(2))
		})
	}
}
