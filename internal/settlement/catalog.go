package settlement

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/MrJamesThe3rd/settle/internal/charge"
)

type ViewMode int

const (
	PendingOnly ViewMode = iota
	AllHistory
)

func (m ViewMode) String() string {
	if m == AllHistory {
		return "payment history"
	}

	return "pending charges"
}

// Catalog is the result of one load. Charges is populated in PendingOnly mode and Payments in
// AllHistory mode; the other slice is nil.
type Catalog struct {
	Kind     charge.Kind
	Mode     ViewMode
	Filter   string
	Charges  []*charge.Charge
	Payments []*charge.Payment
	Err      error
	LoadedAt time.Time

	allCharges  []*charge.Charge
	allPayments []*charge.Payment
	index       map[uuid.UUID]*charge.Charge
}

// LoadCatalog reads one view from the ledger. A failed read yields an empty catalog with Err set.
func LoadCatalog(ctx context.Context, ledger Ledger, kind charge.Kind, mode ViewMode, scope Scope, filter string) *Catalog {
	cat := &Catalog{Kind: kind, Mode: mode, index: map[uuid.UUID]*charge.Charge{}}

	switch mode {
	case AllHistory:
		payments, err := ledger.ListSettledPayments(ctx, kind, scope)
		if err != nil {
			cat.Err = fmt.Errorf("loading %s payments: %w", kind, err)
			return cat
		}

		cat.allPayments = payments
	default:
		charges, err := ledger.ListCharges(ctx, kind, scope)
		if err != nil {
			cat.Err = fmt.Errorf("loading %s charges: %w", kind, err)
			return cat
		}

		for _, c := range charges {
			if c.Kind != kind || !c.Balance().IsPositive() {
				continue
			}

			cat.allCharges = append(cat.allCharges, c)
			cat.index[c.ID] = c
		}
	}

	cat.LoadedAt = time.Now()
	cat.applyFilter(filter)

	return cat
}

// WithFilter returns a copy of the catalog narrowed to filter without another ledger read.
func (c *Catalog) WithFilter(filter string) *Catalog {
	cp := *c
	cp.applyFilter(filter)

	return &cp
}

func (c *Catalog) applyFilter(filter string) {
	c.Filter = filter
	c.Charges = nil
	c.Payments = nil

	m := newMatcher(filter)

	for _, ch := range c.allCharges {
		if m.match(ch.OwnerName(), ownerUnit(ch.Owner), ch.Concept) {
			c.Charges = append(c.Charges, ch)
		}
	}

	for _, p := range c.allPayments {
		concepts := make([]string, 0, len(p.Allocations)+2)
		concepts = append(concepts, p.OwnerName(), ownerUnit(p.Owner))
		for _, a := range p.Allocations {
			concepts = append(concepts, a.Concept)
		}

		if m.match(concepts...) {
			c.Payments = append(c.Payments, p)
		}
	}
}

// Index maps every loaded charge by id, including charges hidden by the name filter.
func (c *Catalog) Index() map[uuid.UUID]*charge.Charge {
	return c.index
}

func (c *Catalog) Charge(id uuid.UUID) (*charge.Charge, bool) {
	ch, ok := c.index[id]
	return ch, ok
}

func ownerUnit(o *charge.Owner) string {
	if o == nil {
		return ""
	}

	return o.Unit
}

// matcher does case- and accent-insensitive substring matching.
type matcher struct {
	needle string
}

func newMatcher(filter string) matcher {
	return matcher{needle: fold(strings.TrimSpace(filter))}
}

func (m matcher) match(fields ...string) bool {
	if m.needle == "" {
		return true
	}

	for _, f := range fields {
		if strings.Contains(fold(f), m.needle) {
			return true
		}
	}

	return false
}

func fold(s string) string {
	if s == "" {
		return s
	}

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}

	return cases.Fold().String(stripped)
}
