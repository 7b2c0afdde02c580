package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/settle/internal/charge"
	"github.com/MrJamesThe3rd/settle/internal/settlement"
)

// HeaderPaymentID carries the id of the payment a receipt document belongs to.
const HeaderPaymentID = "X-Payment-ID"

const maxErrorBody = 64 << 10

// Client talks to the ledger REST API. It implements settlement.Ledger.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// New creates a client for the API rooted at baseURL, e.g. http://localhost:8080/api/v1.
func New(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

var _ settlement.Ledger = (*Client)(nil)

func (c *Client) ListCharges(ctx context.Context, kind charge.Kind, scope settlement.Scope) ([]*charge.Charge, error) {
	var body []chargeDTO
	if err := c.getJSON(ctx, "list charges", "/charges", listQuery(kind, scope), &body); err != nil {
		return nil, err
	}

	charges := make([]*charge.Charge, len(body))
	for i, dto := range body {
		charges[i] = dto.toCharge()
	}

	return charges, nil
}

func (c *Client) ListSettledPayments(ctx context.Context, kind charge.Kind, scope settlement.Scope) ([]*charge.Payment, error) {
	var body []paymentDTO
	if err := c.getJSON(ctx, "list payments", "/payments", listQuery(kind, scope), &body); err != nil {
		return nil, err
	}

	payments := make([]*charge.Payment, len(body))
	for i, dto := range body {
		payments[i] = dto.toPayment()
	}

	return payments, nil
}

// SubmitSettlement posts one settlement. The returned receipt always carries the payment id;
// its Data is empty when the ledger recorded the payment without returning a document.
func (c *Client) SubmitSettlement(ctx context.Context, req settlement.Request) (*settlement.Receipt, error) {
	const op = "submit settlement"

	allocations := make([]allocationDTO, len(req.Allocations))
	for i, a := range req.Allocations {
		allocations[i] = allocationDTO{ChargeID: a.ChargeID, Amount: a.Amount.StringFixed(2)}
	}

	encoded, err := json.Marshal(allocations)
	if err != nil {
		return nil, fmt.Errorf("encoding allocations: %w", err)
	}

	form := url.Values{
		"owner_id":       {req.OwnerID.String()},
		"total_amount":   {req.Total.StringFixed(2)},
		"payment_kind":   {string(req.Kind)},
		"payment_method": {string(req.Method)},
		"allocations":    {string(encoded)},
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/payments", nil, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.do(op, httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return readReceipt(op, resp, uuid.Nil)
}

func (c *Client) FetchReceipt(ctx context.Context, paymentID uuid.UUID) (*settlement.Receipt, error) {
	const op = "fetch receipt"

	req, err := c.newRequest(ctx, http.MethodGet, "/payments/"+paymentID.String()+"/receipt", nil, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return readReceipt(op, resp, paymentID)
}

func listQuery(kind charge.Kind, scope settlement.Scope) url.Values {
	q := url.Values{"kind": {string(kind)}}
	if scope.OwnerID != nil {
		q.Set("owner_id", scope.OwnerID.String())
	}

	return q
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return req, nil
}

// do executes req and turns transport failures and non-2xx answers into the settlement
// error taxonomy. On success the caller owns resp.Body.
func (c *Client) do(op string, req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &settlement.NetworkError{Op: op, Timeout: isTimeout(err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, rejection(resp)
	}

	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, dst any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		if isTimeout(err) {
			return &settlement.NetworkError{Op: op, Timeout: true, Err: err}
		}

		return fmt.Errorf("%s: decoding response: %w", op, err)
	}

	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func rejection(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || env.Error.Message == "" {
		return settlement.GenericRejection(resp.StatusCode)
	}

	return &settlement.RejectionError{
		Status:  resp.StatusCode,
		Code:    env.Error.Code,
		Message: env.Error.Message,
	}
}

func readReceipt(op string, resp *http.Response, paymentID uuid.UUID) (*settlement.Receipt, error) {
	if h := resp.Header.Get(HeaderPaymentID); h != "" {
		id, err := uuid.Parse(h)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid %s header %q", op, HeaderPaymentID, h)
		}

		paymentID = id
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if paymentID == uuid.Nil {
			return nil, &settlement.NetworkError{Op: op, Timeout: isTimeout(err), Err: err}
		}

		// The payment exists; only the document was lost.
		data = nil
	}

	return &settlement.Receipt{
		PaymentID:   paymentID,
		Filename:    filename(resp, paymentID),
		ContentType: resp.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func filename(resp *http.Response, paymentID uuid.UUID) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name, ok := params["filename"]; ok && name != "" {
				return strings.ReplaceAll(filepath.Base(name), " ", "_")
			}
		}
	}

	ext := ".pdf"

	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if exts, _ := mime.ExtensionsByType(ct); len(exts) > 0 {
			ext = exts[0]
		}
	}

	return "receipt_" + paymentID.String() + ext
}
