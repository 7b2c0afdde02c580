package settlement

import (
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/settle/internal/charge"
)

// Draft is the requested amount for one selected charge, kept as raw operator input.
type Draft struct {
	ChargeID uuid.UUID
	OwnerID  uuid.UUID
	Raw      string
}

// Selection is an immutable set of drafts in selection order. Every transition returns a new
// Selection; the zero value is an empty selection.
type Selection struct {
	drafts []Draft
}

func (s Selection) index(id uuid.UUID) int {
	return slices.IndexFunc(s.drafts, func(d Draft) bool { return d.ChargeID == id })
}

func (s Selection) Selected(id uuid.UUID) bool {
	return s.index(id) >= 0
}

// Toggle selects c seeded with its current balance, or drops it entirely when already selected.
// A charge owned by someone other than the first selected charge's owner is refused.
func (s Selection) Toggle(c *charge.Charge) (Selection, error) {
	if i := s.index(c.ID); i >= 0 {
		return Selection{drafts: slices.Delete(slices.Clone(s.drafts), i, i+1)}, nil
	}

	if owner, ok := s.Owner(); ok && owner != c.OwnerID {
		return s, charge.ErrOwnerMismatch
	}

	drafts := append(slices.Clone(s.drafts), Draft{
		ChargeID: c.ID,
		OwnerID:  c.OwnerID,
		Raw:      c.Balance().StringFixed(2),
	})

	return Selection{drafts: drafts}, nil
}

// SetAmount replaces the raw amount of a selected charge. Unselected ids are ignored.
func (s Selection) SetAmount(id uuid.UUID, raw string) Selection {
	i := s.index(id)
	if i < 0 {
		return s
	}

	drafts := slices.Clone(s.drafts)
	drafts[i].Raw = raw

	return Selection{drafts: drafts}
}

func (s Selection) Drafts() []Draft {
	return slices.Clone(s.drafts)
}

func (s Selection) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(s.drafts))
	for i, d := range s.drafts {
		ids[i] = d.ChargeID
	}

	return ids
}

func (s Selection) Count() int {
	return len(s.drafts)
}

// Owner returns the owner of the first selected charge.
func (s Selection) Owner() (uuid.UUID, bool) {
	if len(s.drafts) == 0 {
		return uuid.Nil, false
	}

	return s.drafts[0].OwnerID, true
}

// Amount returns the raw requested amount for id.
func (s Selection) Amount(id uuid.UUID) (string, bool) {
	i := s.index(id)
	if i < 0 {
		return "", false
	}

	return s.drafts[i].Raw, true
}

// TotalRequested sums the parsed amounts. Unparsable entries count as zero.
func (s Selection) TotalRequested() decimal.Decimal {
	total := decimal.Zero
	for _, d := range s.drafts {
		if amount, err := ParseAmount(d.Raw); err == nil {
			total = total.Add(amount)
		}
	}

	return total
}

// TotalOutstanding sums the current balance of the selected charges found in index.
func (s Selection) TotalOutstanding(index map[uuid.UUID]*charge.Charge) decimal.Decimal {
	total := decimal.Zero
	for _, d := range s.drafts {
		if c, ok := index[d.ChargeID]; ok {
			total = total.Add(c.Balance())
		}
	}

	return total
}
