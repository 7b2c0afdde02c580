package settlement_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/settle/internal/charge"
	"github.com/MrJamesThe3rd/settle/internal/settlement"
)

// memLedger applies settlements all-or-nothing against an in-memory charge set.
type memLedger struct {
	mu       sync.Mutex
	charges  []*charge.Charge
	payments []*charge.Payment
	calls    int
}

func newMemLedger(charges ...*charge.Charge) *memLedger {
	return &memLedger{charges: charges}
}

func (l *memLedger) find(id uuid.UUID) *charge.Charge {
	for _, c := range l.charges {
		if c.ID == id {
			return c
		}
	}

	return nil
}

func (l *memLedger) ListCharges(_ context.Context, kind charge.Kind, _ settlement.Scope) ([]*charge.Charge, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++

	var out []*charge.Charge
	for _, c := range l.charges {
		if c.Kind == kind {
			cp := *c
			out = append(out, &cp)
		}
	}

	return out, nil
}

func (l *memLedger) ListSettledPayments(_ context.Context, kind charge.Kind, _ settlement.Scope) ([]*charge.Payment, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++

	var out []*charge.Payment
	for _, p := range l.payments {
		if p.Kind == kind {
			out = append(out, p)
		}
	}

	return out, nil
}

func (l *memLedger) SubmitSettlement(_ context.Context, req settlement.Request) (*settlement.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++

	applied := make([]charge.Charge, 0, len(req.Allocations))
	for _, a := range req.Allocations {
		c := l.find(a.ChargeID)
		if c == nil {
			return nil, &settlement.RejectionError{Status: 404, Code: "CHARGE_NOT_FOUND", Message: "charge not found"}
		}

		cp := *c
		if err := cp.Apply(a.Amount); err != nil {
			return nil, &settlement.RejectionError{Status: 409, Code: "EXCEEDS_BALANCE", Message: err.Error()}
		}

		applied = append(applied, cp)
	}

	for _, cp := range applied {
		*l.find(cp.ID) = cp
	}

	p := &charge.Payment{
		ID:        uuid.New(),
		OwnerID:   req.OwnerID,
		Kind:      req.Kind,
		Method:    req.Method,
		Total:     req.Total,
		CreatedAt: time.Now(),
	}
	for _, a := range req.Allocations {
		p.Allocations = append(p.Allocations, charge.Allocation{ChargeID: a.ChargeID, Amount: a.Amount})
	}
	l.payments = append(l.payments, p)

	return &settlement.Receipt{
		PaymentID:   p.ID,
		Filename:    fmt.Sprintf("receipt_%s.pdf", p.ID),
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.3"),
	}, nil
}

func (l *memLedger) FetchReceipt(_ context.Context, id uuid.UUID) (*settlement.Receipt, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls++

	return &settlement.Receipt{PaymentID: id, Data: []byte("%PDF-1.3")}, nil
}

func (l *memLedger) callCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.calls
}
