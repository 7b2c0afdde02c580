package settlement

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/settle/internal/charge"
)

var errEmptyReceipt = errors.New("ledger returned an empty receipt")

// Submitter turns a valid selection into one ledger settlement. At most one submission is
// outstanding at a time.
type Submitter struct {
	ledger   Ledger
	inFlight atomic.Bool
}

func NewSubmitter(ledger Ledger) *Submitter {
	return &Submitter{ledger: ledger}
}

func (s *Submitter) Busy() bool {
	return s.inFlight.Load()
}

// BuildRequest validates sel and assembles the request. Owner and kind come from the first
// selected charge.
func BuildRequest(sel Selection, index map[uuid.UUID]*charge.Charge, method charge.Method) (Request, error) {
	errs := Validate(sel, index)
	if sel.Count() > 0 {
		errs = append(validateMethod(method), errs...)
	}

	if len(errs) > 0 {
		return Request{}, &ValidationFailedError{Errors: errs}
	}

	first := index[sel.drafts[0].ChargeID]

	req := Request{
		OwnerID:     first.OwnerID,
		Kind:        first.Kind,
		Method:      method,
		Total:       decimal.Zero,
		Allocations: make([]AllocationRequest, 0, sel.Count()),
	}

	for _, d := range sel.drafts {
		// Validate guarantees the amount parses.
		amount, _ := ParseAmount(d.Raw)

		req.Allocations = append(req.Allocations, AllocationRequest{ChargeID: d.ChargeID, Amount: amount})
		req.Total = req.Total.Add(amount)
	}

	return req, nil
}

// Submit sends sel as one settlement and resolves its receipt. A *ReceiptUnavailableError means
// the payment was recorded but no document could be obtained.
func (s *Submitter) Submit(ctx context.Context, sel Selection, index map[uuid.UUID]*charge.Charge, method charge.Method) (*Receipt, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return nil, ErrSubmissionInProgress
	}
	defer s.inFlight.Store(false)

	req, err := BuildRequest(sel, index, method)
	if err != nil {
		return nil, err
	}

	receipt, err := s.ledger.SubmitSettlement(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("submitting settlement: %w", err)
	}

	if receipt == nil || receipt.PaymentID == uuid.Nil {
		slog.Warn("settlement accepted without a payment id", "owner_id", req.OwnerID, "kind", req.Kind)
		return nil, ErrOutcomeUnknown
	}

	slog.Info("settlement recorded",
		"payment_id", receipt.PaymentID,
		"owner_id", req.OwnerID,
		"kind", req.Kind,
		"total", req.Total.StringFixed(2),
		"allocations", len(req.Allocations),
	)

	if !receipt.Empty() {
		return receipt, nil
	}

	fetched, err := s.ledger.FetchReceipt(ctx, receipt.PaymentID)
	if err == nil && fetched.Empty() {
		err = errEmptyReceipt
	}

	if err != nil {
		slog.Warn("receipt unavailable", "payment_id", receipt.PaymentID, "error", err)
		return nil, &ReceiptUnavailableError{PaymentID: receipt.PaymentID, Err: err}
	}

	return fetched, nil
}
