package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MrJamesThe3rd/settle/internal/auth"
	"github.com/MrJamesThe3rd/settle/internal/charge"
	chargeHandler "github.com/MrJamesThe3rd/settle/internal/http/charge"
	"github.com/MrJamesThe3rd/settle/internal/http/respond"
	"github.com/MrJamesThe3rd/settle/internal/metrics"
	"github.com/MrJamesThe3rd/settle/internal/receipt"
)

// HeaderPaymentID carries the id of the payment a receipt belongs to.
const HeaderPaymentID = "X-Payment-ID"

type Handler struct {
	svc *charge.Service
}

func NewHandler(svc *charge.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.settle)
	r.Get("/{id}/receipt", h.receipt)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter, err := chargeHandler.ParseFilter(r)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	payments, err := h.svc.ListPayments(r.Context(), filter)
	if err != nil {
		respond.InternalError(w, "failed to list payments")
		return
	}

	respond.JSON(w, http.StatusOK, toResponseList(payments))
}

type allocationRequest struct {
	ChargeID uuid.UUID       `json:"charge_id"`
	Amount   decimal.Decimal `json:"amount"`
}

func parseSettleForm(r *http.Request) (charge.SettleParams, error) {
	var params charge.SettleParams

	if err := r.ParseForm(); err != nil {
		return params, fmt.Errorf("parsing form: %w", err)
	}

	ownerID, err := uuid.Parse(r.PostFormValue("owner_id"))
	if err != nil {
		return params, errors.New("owner_id must be a valid id")
	}

	total, err := decimal.NewFromString(r.PostFormValue("total_amount"))
	if err != nil {
		return params, errors.New("total_amount must be a decimal number")
	}

	var allocations []allocationRequest
	if err := json.Unmarshal([]byte(r.PostFormValue("allocations")), &allocations); err != nil {
		return params, fmt.Errorf("allocations must be a JSON array: %w", err)
	}

	params = charge.SettleParams{
		OwnerID:     ownerID,
		Total:       total,
		Kind:        charge.Kind(r.PostFormValue("payment_kind")),
		Method:      charge.Method(r.PostFormValue("payment_method")),
		Allocations: make([]charge.AllocationParams, len(allocations)),
	}

	for i, a := range allocations {
		params.Allocations[i] = charge.AllocationParams{ChargeID: a.ChargeID, Amount: a.Amount}
	}

	return params, nil
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	params, err := parseSettleForm(r)
	if err != nil {
		respond.BadRequest(w, err.Error())
		return
	}

	payment, err := h.svc.Settle(r.Context(), params)
	if err != nil {
		status, code := classify(err)
		if status == http.StatusInternalServerError {
			slog.Error("failed to settle", "owner_id", params.OwnerID, "error", err)
			metrics.ObserveSettlement(string(params.Kind), metrics.ResultError, 0, started)
			respond.InternalError(w, "failed to settle charges")

			return
		}

		metrics.ObserveSettlement(string(params.Kind), metrics.ResultRejected, 0, started)
		respond.Error(w, status, code, err.Error())

		return
	}

	metrics.ObserveSettlement(string(payment.Kind), metrics.ResultSuccess, payment.Total.InexactFloat64(), started)
	slog.Info("settled charges",
		"operator", auth.OperatorFrom(r.Context()),
		"payment_id", payment.ID,
		"owner_id", payment.OwnerID,
		"total", payment.Total.StringFixed(2),
		"allocations", len(payment.Allocations),
	)

	w.Header().Set(HeaderPaymentID, payment.ID.String())

	// The settlement is committed at this point; a failed render leaves the body empty and
	// the client falls back to the receipt endpoint.
	doc, err := receipt.Render(payment)
	if err != nil {
		slog.Error("failed to render receipt", "payment_id", payment.ID, "error", err)
		metrics.ObserveReceipt(metrics.ResultError)
		w.WriteHeader(http.StatusCreated)

		return
	}

	metrics.ObserveReceipt(metrics.ResultSuccess)
	writeReceipt(w, http.StatusCreated, receipt.Filename(payment), doc)
}

func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.BadRequest(w, "invalid id")
		return
	}

	payment, err := h.svc.GetPayment(r.Context(), id)
	if err != nil {
		if errors.Is(err, charge.ErrNotFound) {
			respond.NotFound(w, "payment not found")
			return
		}

		respond.InternalError(w, "failed to load payment")

		return
	}

	doc, err := receipt.Render(payment)
	if err != nil {
		slog.Error("failed to render receipt", "payment_id", payment.ID, "error", err)
		metrics.ObserveReceipt(metrics.ResultError)
		respond.InternalError(w, "failed to render receipt")

		return
	}

	metrics.ObserveReceipt(metrics.ResultSuccess)
	w.Header().Set(HeaderPaymentID, payment.ID.String())
	writeReceipt(w, http.StatusOK, receipt.Filename(payment), doc)
}

func writeReceipt(w http.ResponseWriter, status int, filename string, doc []byte) {
	w.Header().Set("Content-Type", receipt.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(status)

	if _, err := w.Write(doc); err != nil {
		slog.Error("failed to write receipt", "error", err)
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, charge.ErrNotFound):
		return http.StatusNotFound, "CHARGE_NOT_FOUND"
	case errors.Is(err, charge.ErrExceedsBalance):
		return http.StatusConflict, "EXCEEDS_BALANCE"
	case errors.Is(err, charge.ErrInvalidAmount):
		return http.StatusUnprocessableEntity, "INVALID_AMOUNT"
	case errors.Is(err, charge.ErrOwnerMismatch):
		return http.StatusUnprocessableEntity, "OWNER_MISMATCH"
	case errors.Is(err, charge.ErrKindMismatch):
		return http.StatusUnprocessableEntity, "KIND_MISMATCH"
	case errors.Is(err, charge.ErrTotalMismatch):
		return http.StatusUnprocessableEntity, "TOTAL_MISMATCH"
	case errors.Is(err, charge.ErrNoAllocations):
		return http.StatusUnprocessableEntity, "NO_ALLOCATIONS"
	case errors.Is(err, charge.ErrDuplicateCharge):
		return http.StatusUnprocessableEntity, "DUPLICATE_CHARGE"
	case errors.Is(err, charge.ErrInvalidMethod):
		return http.StatusUnprocessableEntity, "INVALID_METHOD"
	case errors.Is(err, charge.ErrInvalidKind):
		return http.StatusUnprocessableEntity, "INVALID_KIND"
	}

	return http.StatusInternalServerError, "INTERNAL_ERROR"
}
