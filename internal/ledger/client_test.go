package ledger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/settle/internal/charge"
	"github.com/MrJamesThe3rd/settle/internal/ledger"
	"github.com/MrJamesThe3rd/settle/internal/settlement"
)

func TestClient_ListCharges(t *testing.T) {
	owner := uuid.New()
	chargeID := uuid.New()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/charges", r.URL.Path)
		assert.Equal(t, "service", r.URL.Query().Get("kind"))
		assert.Equal(t, owner.String(), r.URL.Query().Get("owner_id"))
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{
			"id": "` + chargeID.String() + `",
			"kind": "service",
			"concept": "Plomería",
			"amount_total": "300.00",
			"amount_paid": "150.00",
			"balance_remaining": "150.00",
			"status": "pending",
			"owner_id": "` + owner.String() + `",
			"owner": {"id": "` + owner.String() + `", "name": "Ana Ruiz", "unit": "A-1"},
			"created_at": "2026-03-01T10:00:00Z",
			"request_ref": "REQ-17"
		}]`))
	}))
	defer ts.Close()

	client := ledger.New(ts.URL+"/api/v1/", "secret-token", time.Second)

	charges, err := client.ListCharges(context.Background(), charge.KindService, settlement.ByOwner(owner))
	require.NoError(t, err)
	require.Len(t, charges, 1)

	c := charges[0]
	assert.Equal(t, chargeID, c.ID)
	assert.Equal(t, "150.00", c.Balance().StringFixed(2))
	// Status is derived from the amounts, not copied from the wire.
	assert.Equal(t, charge.StatusPartiallyPaid, c.Status)
	assert.Equal(t, "Ana Ruiz", c.OwnerName())
	require.NotNil(t, c.RequestRef)
	assert.Equal(t, "REQ-17", *c.RequestRef)
}

func TestClient_ListSettledPayments(t *testing.T) {
	paymentID := uuid.New()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("owner_id"))
		assert.Empty(t, r.Header.Get("Authorization"))

		_, _ = w.Write([]byte(`[{
			"id": "` + paymentID.String() + `",
			"owner_id": "` + uuid.NewString() + `",
			"kind": "maintenance",
			"method": "cash",
			"total": "650.00",
			"allocations": [
				{"charge_id": "` + uuid.NewString() + `", "concept": "Cuota marzo", "amount": "500.00"},
				{"charge_id": "` + uuid.NewString() + `", "concept": "Cuota abril", "amount": "150.00"}
			],
			"created_at": "2026-03-01T10:00:00Z"
		}]`))
	}))
	defer ts.Close()

	payments, err := ledger.New(ts.URL, "", time.Second).
		ListSettledPayments(context.Background(), charge.KindMaintenance, settlement.Scope{})
	require.NoError(t, err)
	require.Len(t, payments, 1)

	p := payments[0]
	assert.Equal(t, paymentID, p.ID)
	assert.Equal(t, "650.00", p.Total.StringFixed(2))
	require.Len(t, p.Allocations, 2)
	assert.Equal(t, "Cuota abril", p.Allocations[1].Concept)
	assert.Equal(t, "150.00", p.Allocations[1].Amount.StringFixed(2))
}

func TestClient_SubmitSettlement(t *testing.T) {
	owner := uuid.New()
	a, b := uuid.New(), uuid.New()
	paymentID := uuid.New()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())

		assert.Equal(t, owner.String(), r.PostFormValue("owner_id"))
		assert.Equal(t, "650.00", r.PostFormValue("total_amount"))
		assert.Equal(t, "maintenance", r.PostFormValue("payment_kind"))
		assert.Equal(t, "transfer", r.PostFormValue("payment_method"))

		var allocations []struct {
			ChargeID uuid.UUID `json:"charge_id"`
			Amount   string    `json:"amount"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.PostFormValue("allocations")), &allocations))
		require.Len(t, allocations, 2)
		assert.Equal(t, a, allocations[0].ChargeID)
		assert.Equal(t, "500.00", allocations[0].Amount)
		assert.Equal(t, "150.00", allocations[1].Amount)

		w.Header().Set(ledger.HeaderPaymentID, paymentID.String())
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="receipt_20260301_abcd1234.pdf"`)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("%PDF-1.3 test"))
	}))
	defer ts.Close()

	receipt, err := ledger.New(ts.URL, "", time.Second).SubmitSettlement(context.Background(), settlement.Request{
		OwnerID: owner,
		Total:   decimal.RequireFromString("650"),
		Kind:    charge.KindMaintenance,
		Method:  charge.MethodTransfer,
		Allocations: []settlement.AllocationRequest{
			{ChargeID: a, Amount: decimal.RequireFromString("500")},
			{ChargeID: b, Amount: decimal.RequireFromString("150")},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, paymentID, receipt.PaymentID)
	assert.Equal(t, "receipt_20260301_abcd1234.pdf", receipt.Filename)
	assert.Equal(t, "application/pdf", receipt.ContentType)
	assert.Equal(t, []byte("%PDF-1.3 test"), receipt.Data)
}

func TestClient_SubmittedTotalMatchesAllocations(t *testing.T) {
	type testCase struct {
		name      string
		amounts   []string
		wantCalls int32
		wantTotal string
	}

	tests := []testCase{
		{name: "WholeCents", amounts: []string{"10.01", "10.01"}, wantCalls: 1, wantTotal: "20.02"},
		{name: "HalfCents", amounts: []string{"10.005", "10.005"}},
		{name: "BelowOneCent", amounts: []string{"0.004"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32

			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				require.NoError(t, r.ParseForm())

				var allocations []struct {
					Amount string `json:"amount"`
				}
				require.NoError(t, json.Unmarshal([]byte(r.PostFormValue("allocations")), &allocations))

				sum := decimal.Zero
				for _, a := range allocations {
					sum = sum.Add(decimal.RequireFromString(a.Amount))
				}

				total := decimal.RequireFromString(r.PostFormValue("total_amount"))
				assert.True(t, total.Equal(sum), "total %s, allocations %s", total, sum)
				assert.Equal(t, tt.wantTotal, r.PostFormValue("total_amount"))

				w.Header().Set(ledger.HeaderPaymentID, uuid.NewString())
				w.WriteHeader(http.StatusCreated)
				_, _ = w.Write([]byte("%PDF-1.3"))
			}))
			defer ts.Close()

			owner := uuid.New()
			index := make(map[uuid.UUID]*charge.Charge, len(tt.amounts))

			var sel settlement.Selection
			for i := range tt.amounts {
				c := &charge.Charge{
					ID:          uuid.New(),
					Kind:        charge.KindMaintenance,
					AmountTotal: decimal.RequireFromString("500.00"),
					Status:      charge.StatusPending,
					OwnerID:     owner,
				}
				index[c.ID] = c

				var err error
				sel, err = sel.Toggle(c)
				require.NoError(t, err)
				sel = sel.SetAmount(c.ID, tt.amounts[i])
			}

			submitter := settlement.NewSubmitter(ledger.New(ts.URL, "", time.Second))
			_, err := submitter.Submit(context.Background(), sel, index, charge.MethodCash)

			if tt.wantCalls == 0 {
				require.ErrorIs(t, err, settlement.ErrValidationFailed)
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestClient_FetchReceipt_FallbackFilename(t *testing.T) {
	paymentID := uuid.New()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payments/"+paymentID.String()+"/receipt", r.URL.Path)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-"))
	}))
	defer ts.Close()

	receipt, err := ledger.New(ts.URL, "", time.Second).FetchReceipt(context.Background(), paymentID)
	require.NoError(t, err)

	assert.Equal(t, paymentID, receipt.PaymentID)
	assert.Equal(t, "receipt_"+paymentID.String()+".pdf", receipt.Filename)
}

func TestClient_Errors(t *testing.T) {
	type testCase struct {
		name        string
		handler     http.HandlerFunc
		timeout     time.Duration
		wantErr     error
		wantMessage string
	}

	tests := []testCase{
		{
			name: "StructuredRejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"error":{"code":"EXCEEDS_BALANCE","message":"amount exceeds remaining balance"}}`))
			},
			wantErr:     settlement.ErrServerRejection,
			wantMessage: "amount exceeds remaining balance",
		},
		{
			name: "UnstructuredRejection",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("<html>bad gateway</html>"))
			},
			wantErr:     settlement.ErrServerRejection,
			wantMessage: "ledger rejected the request (HTTP 502)",
		},
		{
			name: "Timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(time.Second):
				}
			},
			timeout: 50 * time.Millisecond,
			wantErr: settlement.ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()

			timeout := tt.timeout
			if timeout == 0 {
				timeout = time.Second
			}

			_, err := ledger.New(ts.URL, "", timeout).ListCharges(context.Background(), charge.KindMaintenance, settlement.Scope{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, err.Error())
			}
		})
	}
}

func TestClient_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := ledger.New(url, "", time.Second).FetchReceipt(context.Background(), uuid.New())

	assert.ErrorIs(t, err, settlement.ErrNetwork)
	assert.NotErrorIs(t, err, settlement.ErrTimeout)
}
