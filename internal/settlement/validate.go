package settlement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/settle/internal/charge"
)

type ValidationCode string

const (
	CodeNoSelection    ValidationCode = "no_selection"
	CodeInvalidAmount  ValidationCode = "invalid_amount"
	CodeNonPositive    ValidationCode = "non_positive"
	CodeExceedsBalance ValidationCode = "exceeds_balance"
	CodeUnknownCharge  ValidationCode = "unknown_charge"
	CodeMixedOwner     ValidationCode = "mixed_owner"
	CodeInvalidMethod  ValidationCode = "invalid_method"
)

const MsgNoSelection = "no charges selected"

// ValidationError is one violated rule. ChargeID is uuid.Nil for selection-wide errors.
type ValidationError struct {
	Code     ValidationCode
	ChargeID uuid.UUID
	Message  string
}

var errMalformedAmount = errors.New("malformed amount")

// ParseAmount parses operator input such as "1,250.50" or "$ 300". Sub-cent digits are kept so
// Validate can reject them.
func ParseAmount(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if s == "" {
		return decimal.Zero, errMalformedAmount
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errMalformedAmount
	}

	return d, nil
}

// Validate returns every rule the selection violates against index. An empty result means the
// selection can be committed. Only per-charge bounds are checked, never the aggregate.
func Validate(sel Selection, index map[uuid.UUID]*charge.Charge) []ValidationError {
	if sel.Count() == 0 {
		return []ValidationError{{Code: CodeNoSelection, Message: MsgNoSelection}}
	}

	owner, _ := sel.Owner()

	var errs []ValidationError
	for _, d := range sel.drafts {
		c, ok := index[d.ChargeID]
		if !ok {
			errs = append(errs, ValidationError{
				Code:     CodeUnknownCharge,
				ChargeID: d.ChargeID,
				Message:  fmt.Sprintf("charge %s is no longer available", d.ChargeID),
			})
			continue
		}

		if c.OwnerID != owner {
			errs = append(errs, ValidationError{
				Code:     CodeMixedOwner,
				ChargeID: c.ID,
				Message:  fmt.Sprintf("%s belongs to a different owner than the first selected charge", label(c)),
			})
		}

		amount, err := ParseAmount(d.Raw)
		switch {
		case err != nil:
			errs = append(errs, ValidationError{
				Code:     CodeInvalidAmount,
				ChargeID: c.ID,
				Message:  fmt.Sprintf("%s: %q is not a valid amount", label(c), d.Raw),
			})
		case !charge.WholeCents(amount):
			errs = append(errs, ValidationError{
				Code:     CodeInvalidAmount,
				ChargeID: c.ID,
				Message:  fmt.Sprintf("%s: %q has more than two decimal places", label(c), d.Raw),
			})
		case !amount.IsPositive():
			errs = append(errs, ValidationError{
				Code:     CodeNonPositive,
				ChargeID: c.ID,
				Message:  fmt.Sprintf("%s: amount must be greater than zero", label(c)),
			})
		case amount.GreaterThan(c.Balance()):
			errs = append(errs, ValidationError{
				Code:     CodeExceedsBalance,
				ChargeID: c.ID,
				Message: fmt.Sprintf("%s: amount %s exceeds remaining balance %s",
					label(c), amount.StringFixed(2), c.Balance().StringFixed(2)),
			})
		}
	}

	return errs
}

func validateMethod(m charge.Method) []ValidationError {
	if m.Valid() {
		return nil
	}

	return []ValidationError{{
		Code:    CodeInvalidMethod,
		Message: fmt.Sprintf("%q is not a valid payment method", m),
	}}
}

func label(c *charge.Charge) string {
	return fmt.Sprintf("%q (%s)", c.Concept, c.ID)
}
