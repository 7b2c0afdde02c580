package charge

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidAmount   = errors.New("amount must be greater than zero with at most two decimals")
	ErrExceedsBalance  = errors.New("amount exceeds remaining balance")
	ErrOwnerMismatch   = errors.New("charge belongs to a different owner")
	ErrKindMismatch    = errors.New("charge kind does not match payment kind")
	ErrTotalMismatch   = errors.New("total amount does not match allocations")
	ErrNoAllocations   = errors.New("settlement has no allocations")
	ErrDuplicateCharge = errors.New("charge allocated more than once")
	ErrInvalidMethod   = errors.New("invalid payment method")
	ErrInvalidKind     = errors.New("invalid charge kind")
)

// Kind distinguishes recurring maintenance fees from ad-hoc service fees.
type Kind string

const (
	KindMaintenance Kind = "maintenance"
	KindService     Kind = "service"
)

func (k Kind) Valid() bool {
	return k == KindMaintenance || k == KindService
}

func (k Kind) Label() string {
	switch k {
	case KindMaintenance:
		return "Maintenance"
	case KindService:
		return "Services"
	}

	return string(k)
}

// Status is always derived from the charge amounts, see DeriveStatus.
type Status string

const (
	StatusPending       Status = "pending"
	StatusPartiallyPaid Status = "partially_paid"
	StatusPaid          Status = "paid"
)

// Method is how the resident paid.
type Method string

const (
	MethodCash     Method = "cash"
	MethodTransfer Method = "transfer"
	MethodCard     Method = "card"
	MethodCheck    Method = "check"
)

var Methods = []Method{MethodCash, MethodTransfer, MethodCard, MethodCheck}

func (m Method) Valid() bool {
	for _, v := range Methods {
		if m == v {
			return true
		}
	}

	return false
}

// Owner is the resident account a charge is billed to.
type Owner struct {
	ID   uuid.UUID
	Name string
	Unit string
}

// Charge is a billable line item owed by one account.
type Charge struct {
	ID          uuid.UUID
	Kind        Kind
	Concept     string
	AmountTotal decimal.Decimal
	AmountPaid  decimal.Decimal
	Status      Status
	OwnerID     uuid.UUID
	Owner       *Owner // Loaded via JOIN
	CreatedAt   time.Time
	DueDate     *time.Time
	RequestRef  *string // Service ticket this charge was raised for
}

// Balance returns amountTotal - amountPaid, never below zero.
func (c *Charge) Balance() decimal.Decimal {
	b := c.AmountTotal.Sub(c.AmountPaid)
	if b.IsNegative() {
		return decimal.Zero
	}

	return b
}

// OwnerName returns the display name of the owner, or an empty string when not loaded.
func (c *Charge) OwnerName() string {
	if c.Owner == nil {
		return ""
	}

	return c.Owner.Name
}

func DeriveStatus(total, paid decimal.Decimal) Status {
	switch {
	case paid.GreaterThanOrEqual(total):
		return StatusPaid
	case paid.IsZero():
		return StatusPending
	default:
		return StatusPartiallyPaid
	}
}

// WholeCents reports whether d has no digits past the cents.
func WholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(2))
}

// Apply records a payment of amount against the charge.
func (c *Charge) Apply(amount decimal.Decimal) error {
	if !amount.IsPositive() || !WholeCents(amount) {
		return ErrInvalidAmount
	}

	if amount.GreaterThan(c.Balance()) {
		return fmt.Errorf("%w: %s > %s", ErrExceedsBalance, amount.StringFixed(2), c.Balance().StringFixed(2))
	}

	c.AmountPaid = c.AmountPaid.Add(amount)
	c.Status = DeriveStatus(c.AmountTotal, c.AmountPaid)

	return nil
}

// Allocation is the portion of a payment applied to one charge.
type Allocation struct {
	ChargeID uuid.UUID
	Concept  string // Loaded via JOIN
	Amount   decimal.Decimal
}

// Payment is a settled transaction allocating money against one or more charges.
type Payment struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Owner       *Owner
	Kind        Kind
	Method      Method
	Total       decimal.Decimal
	Allocations []Allocation
	CreatedAt   time.Time
}

func (p *Payment) OwnerName() string {
	if p.Owner == nil {
		return ""
	}

	return p.Owner.Name
}
