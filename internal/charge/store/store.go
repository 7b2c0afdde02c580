package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/settle/internal/charge"
)

//go:embed schema.sql
var schema string

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the ledger tables if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}

	return nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanCharge reads a charge row joined with its owner.
// Expected column order: id, kind, concept, amount_total, amount_paid, status, owner_id,
// owner_name, owner_unit, due_date, request_ref, created_at
func scanCharge(s scanner) (*charge.Charge, error) {
	var c charge.Charge

	var kindStr, statusStr string

	var ownerName, ownerUnit sql.NullString

	var dueDate sql.NullTime

	var requestRef sql.NullString

	if err := s.Scan(
		&c.ID, &kindStr, &c.Concept, &c.AmountTotal, &c.AmountPaid, &statusStr, &c.OwnerID,
		&ownerName, &ownerUnit, &dueDate, &requestRef, &c.CreatedAt,
	); err != nil {
		return nil, err
	}

	c.Kind = charge.Kind(kindStr)
	c.Status = charge.Status(statusStr)
	c.Owner = &charge.Owner{ID: c.OwnerID, Name: ownerName.String, Unit: ownerUnit.String}

	if dueDate.Valid {
		c.DueDate = &dueDate.Time
	}

	if requestRef.Valid {
		c.RequestRef = &requestRef.String
	}

	return &c, nil
}

const selectChargeColumns = `
	c.id, c.kind, c.concept, c.amount_total, c.amount_paid, c.status, c.owner_id,
	o.name AS owner_name, o.unit AS owner_unit, c.due_date, c.request_ref, c.created_at
`

func (s *Store) ListCharges(ctx context.Context, filter charge.ListFilter) ([]*charge.Charge, error) {
	query := `SELECT ` + selectChargeColumns + `
		FROM charges c
		LEFT JOIN owners o ON c.owner_id = o.id
		WHERE TRUE`

	where, args := filterClause("c", filter)
	query += where + " ORDER BY o.name ASC, c.created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing charges: %w", err)
	}
	defer rows.Close()

	var charges []*charge.Charge

	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning charge: %w", err)
		}

		charges = append(charges, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating charge rows: %w", err)
	}

	return charges, nil
}

func filterClause(alias string, filter charge.ListFilter) (string, []any) {
	var (
		clause string
		args   []any
	)

	argIdx := 1

	if filter.Kind != nil {
		clause += fmt.Sprintf(" AND %s.kind = $%d", alias, argIdx)

		args = append(args, string(*filter.Kind))
		argIdx++
	}

	if filter.OwnerID != nil {
		clause += fmt.Sprintf(" AND %s.owner_id = $%d", alias, argIdx)

		args = append(args, *filter.OwnerID)
	}

	return clause, args
}

const selectPaymentColumns = `
	p.id, p.owner_id, o.name AS owner_name, o.unit AS owner_unit, p.kind, p.method, p.total, p.created_at,
	a.charge_id, c.concept, a.amount
`

// ListPayments returns payments newest first, each with its allocations in submission order.
func (s *Store) ListPayments(ctx context.Context, filter charge.ListFilter) ([]*charge.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + `
		FROM payments p
		LEFT JOIN owners o ON p.owner_id = o.id
		JOIN payment_allocations a ON a.payment_id = p.id
		JOIN charges c ON a.charge_id = c.id
		WHERE TRUE`

	where, args := filterClause("p", filter)
	query += where + " ORDER BY p.created_at DESC, p.id, a.position ASC"

	return s.queryPayments(ctx, query, args...)
}

func (s *Store) GetPayment(ctx context.Context, id uuid.UUID) (*charge.Payment, error) {
	query := `SELECT ` + selectPaymentColumns + `
		FROM payments p
		LEFT JOIN owners o ON p.owner_id = o.id
		JOIN payment_allocations a ON a.payment_id = p.id
		JOIN charges c ON a.charge_id = c.id
		WHERE p.id = $1
		ORDER BY a.position ASC`

	payments, err := s.queryPayments(ctx, query, id)
	if err != nil {
		return nil, err
	}

	if len(payments) == 0 {
		return nil, charge.ErrNotFound
	}

	return payments[0], nil
}

// queryPayments folds one row per allocation into payments, preserving row order.
func (s *Store) queryPayments(ctx context.Context, query string, args ...any) ([]*charge.Payment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}
	defer rows.Close()

	var payments []*charge.Payment

	var current *charge.Payment

	for rows.Next() {
		var (
			p                    charge.Payment
			ownerName, ownerUnit sql.NullString
			kindStr, methodStr   string
			a                    charge.Allocation
		)

		if err := rows.Scan(
			&p.ID, &p.OwnerID, &ownerName, &ownerUnit, &kindStr, &methodStr, &p.Total, &p.CreatedAt,
			&a.ChargeID, &a.Concept, &a.Amount,
		); err != nil {
			return nil, fmt.Errorf("scanning payment: %w", err)
		}

		if current == nil || current.ID != p.ID {
			p.Kind = charge.Kind(kindStr)
			p.Method = charge.Method(methodStr)
			p.Owner = &charge.Owner{ID: p.OwnerID, Name: ownerName.String, Unit: ownerUnit.String}
			current = &p
			payments = append(payments, current)
		}

		current.Allocations = append(current.Allocations, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating payment rows: %w", err)
	}

	return payments, nil
}

type settlementTx struct {
	tx *sql.Tx
}

func (s *Store) BeginSettlement(ctx context.Context) (charge.SettlementTx, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning settlement tx: %w", err)
	}

	return &settlementTx{tx: dbTx}, nil
}

func (stx *settlementTx) Commit() error { return stx.tx.Commit() }

func (stx *settlementTx) Rollback() error {
	if err := stx.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}

	return nil
}

// LockCharges selects the charges FOR UPDATE so concurrent settlements against the same
// charge serialize. Missing ids are simply absent from the result.
func (stx *settlementTx) LockCharges(ctx context.Context, ids []uuid.UUID) ([]*charge.Charge, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))

	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := `SELECT ` + selectChargeColumns + `
		FROM charges c
		LEFT JOIN owners o ON c.owner_id = o.id
		WHERE c.id IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY c.id
		FOR UPDATE OF c`

	rows, err := stx.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("locking charges: %w", err)
	}
	defer rows.Close()

	var charges []*charge.Charge

	for rows.Next() {
		c, err := scanCharge(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning charge: %w", err)
		}

		charges = append(charges, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating locked charges: %w", err)
	}

	return charges, nil
}

func (stx *settlementTx) UpdateCharge(ctx context.Context, c *charge.Charge) error {
	query := `
		UPDATE charges
		SET amount_paid = $1, status = $2, updated_at = NOW()
		WHERE id = $3
	`

	if _, err := stx.tx.ExecContext(ctx, query, c.AmountPaid, string(c.Status), c.ID); err != nil {
		return fmt.Errorf("updating charge: %w", err)
	}

	return nil
}

func (stx *settlementTx) CreatePayment(ctx context.Context, p *charge.Payment) error {
	query := `
		INSERT INTO payments (owner_id, kind, method, total, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	err := stx.tx.QueryRowContext(ctx, query,
		p.OwnerID,
		string(p.Kind),
		string(p.Method),
		p.Total,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating payment: %w", err)
	}

	allocQuery := `
		INSERT INTO payment_allocations (payment_id, charge_id, position, amount)
		VALUES ($1, $2, $3, $4)
	`

	for i, a := range p.Allocations {
		if _, err := stx.tx.ExecContext(ctx, allocQuery, p.ID, a.ChargeID, i, a.Amount); err != nil {
			return fmt.Errorf("creating allocation: %w", err)
		}
	}

	return nil
}
