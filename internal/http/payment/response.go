package payment

import (
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/settle/internal/charge"
)

type paymentResponse struct {
	ID          uuid.UUID            `json:"id"`
	OwnerID     uuid.UUID            `json:"owner_id"`
	Owner       *ownerResponse       `json:"owner,omitempty"`
	Kind        charge.Kind          `json:"kind"`
	Method      charge.Method        `json:"method"`
	Total       string               `json:"total"`
	Allocations []allocationResponse `json:"allocations"`
	CreatedAt   time.Time            `json:"created_at"`
}

type ownerResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Unit string    `json:"unit,omitempty"`
}

type allocationResponse struct {
	ChargeID uuid.UUID `json:"charge_id"`
	Concept  string    `json:"concept"`
	Amount   string    `json:"amount"`
}

func toResponse(p *charge.Payment) paymentResponse {
	resp := paymentResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Kind:        p.Kind,
		Method:      p.Method,
		Total:       p.Total.StringFixed(2),
		Allocations: make([]allocationResponse, len(p.Allocations)),
		CreatedAt:   p.CreatedAt,
	}

	if p.Owner != nil {
		resp.Owner = &ownerResponse{
			ID:   p.Owner.ID,
			Name: p.Owner.Name,
			Unit: p.Owner.Unit,
		}
	}

	for i, a := range p.Allocations {
		resp.Allocations[i] = allocationResponse{
			ChargeID: a.ChargeID,
			Concept:  a.Concept,
			Amount:   a.Amount.StringFixed(2),
		}
	}

	return resp
}

func toResponseList(payments []*charge.Payment) []paymentResponse {
	resp := make([]paymentResponse, len(payments))
	for i, p := range payments {
		resp[i] = toResponse(p)
	}

	return resp
}
