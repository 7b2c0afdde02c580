package settlement

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/settle/internal/charge"
)

//go:generate mockgen -source=ledger.go -destination=ledger_mock.go -package=settlement
type Ledger interface {
	ListCharges(ctx context.Context, kind charge.Kind, scope Scope) ([]*charge.Charge, error)
	ListSettledPayments(ctx context.Context, kind charge.Kind, scope Scope) ([]*charge.Payment, error)
	SubmitSettlement(ctx context.Context, req Request) (*Receipt, error)
	FetchReceipt(ctx context.Context, paymentID uuid.UUID) (*Receipt, error)
}

// Scope restricts ledger reads to one owner. The zero value means every owner.
type Scope struct {
	OwnerID *uuid.UUID
}

func ByOwner(id uuid.UUID) Scope {
	return Scope{OwnerID: &id}
}

type AllocationRequest struct {
	ChargeID uuid.UUID
	Amount   decimal.Decimal
}

// Request is one consolidated settlement. Total always equals the sum of the allocations.
type Request struct {
	OwnerID     uuid.UUID
	Total       decimal.Decimal
	Kind        charge.Kind
	Method      charge.Method
	Allocations []AllocationRequest
}

// Receipt is the binary document produced for a settled payment. Data may be empty when the
// ledger recorded the payment but did not return a document.
type Receipt struct {
	PaymentID   uuid.UUID
	Filename    string
	ContentType string
	Data        []byte
}

func (r *Receipt) Empty() bool {
	return r == nil || len(r.Data) == 0
}
