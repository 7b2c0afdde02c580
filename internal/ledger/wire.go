package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/settle/internal/charge"
)

type ownerDTO struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Unit string    `json:"unit"`
}

func (o *ownerDTO) toOwner() *charge.Owner {
	if o == nil {
		return nil
	}

	return &charge.Owner{ID: o.ID, Name: o.Name, Unit: o.Unit}
}

type chargeDTO struct {
	ID          uuid.UUID       `json:"id"`
	Kind        charge.Kind     `json:"kind"`
	Concept     string          `json:"concept"`
	AmountTotal decimal.Decimal `json:"amount_total"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	Owner       *ownerDTO       `json:"owner"`
	CreatedAt   time.Time       `json:"created_at"`
	DueDate     *time.Time      `json:"due_date"`
	RequestRef  *string         `json:"request_ref"`
}

// toCharge derives status from the amounts rather than trusting the reported one.
func (d chargeDTO) toCharge() *charge.Charge {
	return &charge.Charge{
		ID:          d.ID,
		Kind:        d.Kind,
		Concept:     d.Concept,
		AmountTotal: d.AmountTotal,
		AmountPaid:  d.AmountPaid,
		Status:      charge.DeriveStatus(d.AmountTotal, d.AmountPaid),
		OwnerID:     d.OwnerID,
		Owner:       d.Owner.toOwner(),
		CreatedAt:   d.CreatedAt,
		DueDate:     d.DueDate,
		RequestRef:  d.RequestRef,
	}
}

type allocationDTO struct {
	ChargeID uuid.UUID `json:"charge_id"`
	Concept  string    `json:"concept,omitempty"`
	Amount   string    `json:"amount"`
}

type paymentDTO struct {
	ID          uuid.UUID       `json:"id"`
	OwnerID     uuid.UUID       `json:"owner_id"`
	Owner       *ownerDTO       `json:"owner"`
	Kind        charge.Kind     `json:"kind"`
	Method      charge.Method   `json:"method"`
	Total       decimal.Decimal `json:"total"`
	Allocations []allocationDTO `json:"allocations"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (d paymentDTO) toPayment() *charge.Payment {
	p := &charge.Payment{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		Owner:       d.Owner.toOwner(),
		Kind:        d.Kind,
		Method:      d.Method,
		Total:       d.Total,
		Allocations: make([]charge.Allocation, 0, len(d.Allocations)),
		CreatedAt:   d.CreatedAt,
	}

	for _, a := range d.Allocations {
		amount, err := decimal.NewFromString(a.Amount)
		if err != nil {
			amount = decimal.Zero
		}

		p.Allocations = append(p.Allocations, charge.Allocation{ChargeID: a.ChargeID, Concept: a.Concept, Amount: amount})
	}

	return p
}
