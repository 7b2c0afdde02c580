package settlement_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/settle/internal/charge"
	"github.com/MrJamesThe3rd/settle/internal/settlement"
)

func newCharge(owner uuid.UUID, concept, total, paid string) *charge.Charge {
	c := &charge.Charge{
		ID:          uuid.New(),
		Kind:        charge.KindMaintenance,
		Concept:     concept,
		AmountTotal: decimal.RequireFromString(total),
		AmountPaid:  decimal.RequireFromString(paid),
		OwnerID:     owner,
		Owner:       &charge.Owner{ID: owner, Name: "Ana Ruiz", Unit: "A-1"},
	}
	c.Status = charge.DeriveStatus(c.AmountTotal, c.AmountPaid)

	return c
}

func selectAll(t *testing.T, charges ...*charge.Charge) settlement.Selection {
	t.Helper()

	var sel settlement.Selection
	for _, c := range charges {
		var err error
		sel, err = sel.Toggle(c)
		require.NoError(t, err)
	}

	return sel
}

func indexOf(charges ...*charge.Charge) map[uuid.UUID]*charge.Charge {
	index := make(map[uuid.UUID]*charge.Charge, len(charges))
	for _, c := range charges {
		index[c.ID] = c
	}

	return index
}

func TestSelection_ToggleSeedsBalance(t *testing.T) {
	owner := uuid.New()
	a := newCharge(owner, "Cuota marzo", "500", "120.5")

	sel := selectAll(t, a)

	raw, ok := sel.Amount(a.ID)
	require.True(t, ok)
	assert.Equal(t, "379.50", raw)
	assert.Equal(t, 1, sel.Count())
}

func TestSelection_ReselectResetsAmount(t *testing.T) {
	owner := uuid.New()
	a := newCharge(owner, "Cuota marzo", "500", "0")

	sel := selectAll(t, a).SetAmount(a.ID, "10")

	sel, err := sel.Toggle(a)
	require.NoError(t, err)
	assert.False(t, sel.Selected(a.ID))
	assert.Zero(t, sel.Count())

	// Balance moved on the ledger in between.
	a.AmountPaid = decimal.RequireFromString("200")

	sel, err = sel.Toggle(a)
	require.NoError(t, err)

	raw, _ := sel.Amount(a.ID)
	assert.Equal(t, "300.00", raw)
}

func TestSelection_TransitionsDoNotMutateReceiver(t *testing.T) {
	owner := uuid.New()
	a := newCharge(owner, "Cuota marzo", "500", "0")
	b := newCharge(owner, "Cuota abril", "300", "0")

	base := selectAll(t, a)

	edited := base.SetAmount(a.ID, "1")
	grown, err := base.Toggle(b)
	require.NoError(t, err)

	raw, _ := base.Amount(a.ID)
	assert.Equal(t, "500.00", raw)
	assert.Equal(t, 1, base.Count())

	raw, _ = edited.Amount(a.ID)
	assert.Equal(t, "1", raw)
	assert.Equal(t, []uuid.UUID{a.ID, b.ID}, grown.IDs())
}

func TestSelection_SetAmountIgnoresUnselected(t *testing.T) {
	owner := uuid.New()
	a := newCharge(owner, "Cuota marzo", "500", "0")
	b := newCharge(owner, "Cuota abril", "300", "0")

	sel := selectAll(t, a).SetAmount(b.ID, "50")

	assert.False(t, sel.Selected(b.ID))
	_, ok := sel.Amount(b.ID)
	assert.False(t, ok)
}

func TestSelection_RefusesSecondOwner(t *testing.T) {
	a := newCharge(uuid.New(), "Cuota marzo", "500", "0")
	b := newCharge(uuid.New(), "Cuota marzo", "500", "0")

	sel := selectAll(t, a)

	next, err := sel.Toggle(b)
	assert.ErrorIs(t, err, charge.ErrOwnerMismatch)
	assert.Equal(t, []uuid.UUID{a.ID}, next.IDs())

	owner, ok := next.Owner()
	require.True(t, ok)
	assert.Equal(t, a.OwnerID, owner)
}

func TestSelection_Totals(t *testing.T) {
	owner := uuid.New()
	a := newCharge(owner, "Cuota marzo", "500", "0")
	b := newCharge(owner, "Cuota abril", "300", "0")
	c := newCharge(owner, "Cuota mayo", "100", "25")

	sel := selectAll(t, a, b, c).
		SetAmount(a.ID, "500.00").
		SetAmount(b.ID, "150").
		SetAmount(c.ID, "abc")

	assert.Equal(t, "650.00", sel.TotalRequested().StringFixed(2))
	assert.Equal(t, "875.00", sel.TotalOutstanding(indexOf(a, b, c)).StringFixed(2))
}
