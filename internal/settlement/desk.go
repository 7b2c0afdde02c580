package settlement

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/settle/internal/charge"
)

var ErrReadOnlyView = errors.New("payment history is read-only")

// Desk is one open settlement view for a charge kind. It is safe for concurrent use; ledger
// calls are made without holding the lock.
type Desk struct {
	ledger    Ledger
	submitter *Submitter
	kind      charge.Kind
	scope     Scope

	mu        sync.Mutex
	mode      ViewMode
	filter    string
	catalog   *Catalog
	selection Selection
}

func NewDesk(ledger Ledger, kind charge.Kind, scope Scope) *Desk {
	return &Desk{
		ledger:    ledger,
		submitter: NewSubmitter(ledger),
		kind:      kind,
		scope:     scope,
		catalog:   &Catalog{Kind: kind, index: map[uuid.UUID]*charge.Charge{}},
	}
}

// View is a consistent copy of the desk state for rendering.
type View struct {
	Kind             charge.Kind
	Mode             ViewMode
	Catalog          *Catalog
	Selection        Selection
	Problems         []ValidationError
	TotalRequested   decimal.Decimal
	TotalOutstanding decimal.Decimal
	Submitting       bool
}

func (v View) CanCommit() bool {
	return v.Mode == PendingOnly && !v.Submitting && len(v.Problems) == 0
}

func (d *Desk) Kind() charge.Kind {
	return d.kind
}

// Load re-reads the current view from the ledger and discards any drafts.
func (d *Desk) Load(ctx context.Context) *Catalog {
	d.mu.Lock()
	mode, filter := d.mode, d.filter
	d.mu.Unlock()

	cat := LoadCatalog(ctx, d.ledger, d.kind, mode, d.scope, filter)
	if cat.Err != nil {
		slog.Error("failed to load catalog", "kind", d.kind, "mode", mode.String(), "error", cat.Err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mode != mode {
		// The operator switched views while this read was in flight.
		return d.catalog
	}

	cat = cat.WithFilter(d.filter)
	d.catalog = cat
	d.selection = Selection{}

	return cat
}

// SetMode switches between pending charges and payment history and reloads.
func (d *Desk) SetMode(ctx context.Context, mode ViewMode) *Catalog {
	d.mu.Lock()
	d.mode = mode
	d.selection = Selection{}
	d.mu.Unlock()

	return d.Load(ctx)
}

// SetFilter narrows the loaded catalog by owner name, unit, or concept. Drafts are kept.
func (d *Desk) SetFilter(filter string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.filter = filter
	d.catalog = d.catalog.WithFilter(filter)
}

func (d *Desk) Toggle(id uuid.UUID) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mode != PendingOnly {
		return ErrReadOnlyView
	}

	c, ok := d.catalog.Charge(id)
	if !ok {
		return charge.ErrNotFound
	}

	sel, err := d.selection.Toggle(c)
	if err != nil {
		return err
	}

	d.selection = sel

	return nil
}

func (d *Desk) SetAmount(id uuid.UUID, raw string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.selection = d.selection.SetAmount(id, raw)
}

func (d *Desk) Snapshot() View {
	d.mu.Lock()
	defer d.mu.Unlock()

	return d.snapshot()
}

func (d *Desk) snapshot() View {
	v := View{
		Kind:           d.kind,
		Mode:           d.mode,
		Catalog:        d.catalog,
		Selection:      d.selection,
		TotalRequested: d.selection.TotalRequested(),
		Submitting:     d.submitter.Busy(),
	}

	if d.mode == PendingOnly {
		v.Problems = Validate(d.selection, d.catalog.Index())
		v.TotalOutstanding = d.selection.TotalOutstanding(d.catalog.Index())
	}

	return v
}

// Commit submits the current selection. On success, when only the receipt is missing, and when
// the ledger accepted without naming the payment, the selection is cleared and the catalog
// reloaded. Any other failure leaves the selection intact.
func (d *Desk) Commit(ctx context.Context, method charge.Method) (*Receipt, error) {
	d.mu.Lock()
	if d.mode != PendingOnly {
		d.mu.Unlock()
		return nil, ErrReadOnlyView
	}
	sel, index := d.selection, d.catalog.Index()
	d.mu.Unlock()

	receipt, err := d.submitter.Submit(ctx, sel, index, method)
	if err != nil && !errors.Is(err, ErrReceiptUnavailable) && !errors.Is(err, ErrOutcomeUnknown) {
		return nil, err
	}

	d.Load(ctx)

	return receipt, err
}

// Receipt fetches the document of a settled payment, for the history view.
func (d *Desk) Receipt(ctx context.Context, paymentID uuid.UUID) (*Receipt, error) {
	r, err := d.ledger.FetchReceipt(ctx, paymentID)
	if err != nil {
		return nil, &ReceiptUnavailableError{PaymentID: paymentID, Err: err}
	}

	if r.Empty() {
		return nil, &ReceiptUnavailableError{PaymentID: paymentID, Err: errEmptyReceipt}
	}

	return r, nil
}
