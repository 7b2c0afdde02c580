package charge

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=charge
type Repository interface {
	ListCharges(ctx context.Context, filter ListFilter) ([]*Charge, error)
	ListPayments(ctx context.Context, filter ListFilter) ([]*Payment, error)
	GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error)

	BeginSettlement(ctx context.Context) (SettlementTx, error)
}

// SettlementTx applies one settlement atomically. Charges returned by LockCharges stay
// locked until Commit or Rollback.
type SettlementTx interface {
	LockCharges(ctx context.Context, ids []uuid.UUID) ([]*Charge, error)
	UpdateCharge(ctx context.Context, c *Charge) error
	CreatePayment(ctx context.Context, p *Payment) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type ListFilter struct {
	Kind    *Kind
	OwnerID *uuid.UUID
}

type AllocationParams struct {
	ChargeID uuid.UUID
	Amount   decimal.Decimal
}

type SettleParams struct {
	OwnerID     uuid.UUID
	Total       decimal.Decimal
	Kind        Kind
	Method      Method
	Allocations []AllocationParams
}

func (s *Service) ListCharges(ctx context.Context, filter ListFilter) ([]*Charge, error) {
	return s.repo.ListCharges(ctx, filter)
}

func (s *Service) ListPayments(ctx context.Context, filter ListFilter) ([]*Payment, error) {
	return s.repo.ListPayments(ctx, filter)
}

func (s *Service) GetPayment(ctx context.Context, id uuid.UUID) (*Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

// Settle applies every allocation or none of them.
func (s *Service) Settle(ctx context.Context, params SettleParams) (*Payment, error) {
	if err := checkParams(params); err != nil {
		return nil, err
	}

	stx, err := s.repo.BeginSettlement(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin settlement: %w", err)
	}
	defer stx.Rollback()

	ids := make([]uuid.UUID, len(params.Allocations))
	for i, a := range params.Allocations {
		ids[i] = a.ChargeID
	}

	charges, err := stx.LockCharges(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lock charges: %w", err)
	}

	byID := make(map[uuid.UUID]*Charge, len(charges))
	for _, c := range charges {
		byID[c.ID] = c
	}

	payment := &Payment{
		OwnerID:     params.OwnerID,
		Kind:        params.Kind,
		Method:      params.Method,
		Total:       params.Total,
		Allocations: make([]Allocation, 0, len(params.Allocations)),
	}

	for _, a := range params.Allocations {
		c, ok := byID[a.ChargeID]
		if !ok {
			return nil, fmt.Errorf("charge %s: %w", a.ChargeID, ErrNotFound)
		}

		if c.OwnerID != params.OwnerID {
			return nil, fmt.Errorf("charge %s: %w", c.ID, ErrOwnerMismatch)
		}

		if c.Kind != params.Kind {
			return nil, fmt.Errorf("charge %s: %w", c.ID, ErrKindMismatch)
		}

		if err := c.Apply(a.Amount); err != nil {
			return nil, fmt.Errorf("charge %s: %w", c.ID, err)
		}

		if err := stx.UpdateCharge(ctx, c); err != nil {
			return nil, fmt.Errorf("update charge: %w", err)
		}

		if payment.Owner == nil {
			payment.Owner = c.Owner
		}

		payment.Allocations = append(payment.Allocations, Allocation{
			ChargeID: c.ID,
			Concept:  c.Concept,
			Amount:   a.Amount,
		})
	}

	if err := stx.CreatePayment(ctx, payment); err != nil {
		return nil, fmt.Errorf("create payment: %w", err)
	}

	if err := stx.Commit(); err != nil {
		return nil, fmt.Errorf("commit settlement: %w", err)
	}

	return payment, nil
}

func checkParams(params SettleParams) error {
	if !params.Kind.Valid() {
		return ErrInvalidKind
	}

	if !params.Method.Valid() {
		return ErrInvalidMethod
	}

	if len(params.Allocations) == 0 {
		return ErrNoAllocations
	}

	if !WholeCents(params.Total) {
		return fmt.Errorf("total %s: %w", params.Total, ErrInvalidAmount)
	}

	seen := make(map[uuid.UUID]struct{}, len(params.Allocations))
	sum := decimal.Zero

	for _, a := range params.Allocations {
		if _, dup := seen[a.ChargeID]; dup {
			return fmt.Errorf("charge %s: %w", a.ChargeID, ErrDuplicateCharge)
		}

		seen[a.ChargeID] = struct{}{}

		if !a.Amount.IsPositive() || !WholeCents(a.Amount) {
			return fmt.Errorf("charge %s: %w", a.ChargeID, ErrInvalidAmount)
		}

		sum = sum.Add(a.Amount)
	}

	if !sum.Equal(params.Total) {
		return fmt.Errorf("%w: total %s, allocations %s", ErrTotalMismatch, params.Total.StringFixed(2), sum.StringFixed(2))
	}

	return nil
}
