package charge

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/settle/internal/charge"
)

type chargeResponse struct {
	ID               uuid.UUID      `json:"id"`
	Kind             charge.Kind    `json:"kind"`
	Concept          string         `json:"concept"`
	AmountTotal      string         `json:"amount_total"`
	AmountPaid       string         `json:"amount_paid"`
	BalanceRemaining string         `json:"balance_remaining"`
	Status           charge.Status  `json:"status"`
	OwnerID          uuid.UUID      `json:"owner_id"`
	Owner            *ownerResponse `json:"owner,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	DueDate          *time.Time     `json:"due_date,omitempty"`
	RequestRef       *string        `json:"request_ref,omitempty"`
}

type ownerResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Unit string    `json:"unit,omitempty"`
}

func toResponse(c *charge.Charge) chargeResponse {
	resp := chargeResponse{
		ID:               c.ID,
		Kind:             c.Kind,
		Concept:          c.Concept,
		AmountTotal:      c.AmountTotal.StringFixed(2),
		AmountPaid:       c.AmountPaid.StringFixed(2),
		BalanceRemaining: c.Balance().StringFixed(2),
		Status:           charge.DeriveStatus(c.AmountTotal, c.AmountPaid),
		OwnerID:          c.OwnerID,
		CreatedAt:        c.CreatedAt,
		DueDate:          c.DueDate,
		RequestRef:       c.RequestRef,
	}

	if c.Owner != nil {
		resp.Owner = &ownerResponse{
			ID:   c.Owner.ID,
			Name: c.Owner.Name,
			Unit: c.Owner.Unit,
		}
	}

	return resp
}

func toResponseList(charges []*charge.Charge) []chargeResponse {
	resp := make([]chargeResponse, len(charges))
	for i, c := range charges {
		resp[i] = toResponse(c)
	}

	return resp
}
