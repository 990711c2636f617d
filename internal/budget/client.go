package budget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Service hands out backend sessions. The orchestrator acquires one
// session per branch and releases it on every exit path.
type Service interface {
	Acquire(ctx context.Context) (Session, error)
}

// Session is a scoped connection to the budgeting backend.
type Session interface {
	Accounts(ctx context.Context) ([]Account, error)
	Categories(ctx context.Context) ([]Category, error)
	Payees(ctx context.Context) ([]Payee, error)
	AccountBalance(ctx context.Context, accountID string) (int64, error)
	BudgetMonth(ctx context.Context, month string) (*BudgetMonth, error)
	AddTransactions(ctx context.Context, accountID string, txns []Transaction) error

	// Release frees the session. Safe to call exactly once, on any path.
	Release()
}

// Client is the Service implementation backed by the Actual HTTP API.
type Client struct {
	baseURL  string
	apiKey   string
	budgetID string // budget sync id
	http     *http.Client
}

// NewClient creates a backend client. budgetID is the budget's sync id
// as shown in Actual's advanced settings.
//
// No request timeout is set; the orchestrator defines no outbound
// deadlines beyond the caller's context.
func NewClient(baseURL, apiKey, budgetID string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiKey:   apiKey,
		budgetID: budgetID,
		http:     &http.Client{},
	}
}

// Acquire implements the Service interface. The connection itself is
// lazy: the first request opens it, Release drops idle connections.
func (c *Client) Acquire(ctx context.Context) (Session, error) {
	return &restSession{client: c}, nil
}

// restSession is a Session over the shared HTTP client.
type restSession struct {
	client *Client
}

// dataEnvelope is the {"data": ...} wrapper every backend response uses.
type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

func (s *restSession) Accounts(ctx context.Context) ([]Account, error) {
	var out []Account
	if err := s.client.get(ctx, "/accounts", &out); err != nil {
		return nil, fmt.Errorf("Accounts: %w", err)
	}
	return out, nil
}

func (s *restSession) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := s.client.get(ctx, "/categories", &out); err != nil {
		return nil, fmt.Errorf("Categories: %w", err)
	}
	return out, nil
}

func (s *restSession) Payees(ctx context.Context) ([]Payee, error) {
	var out []Payee
	if err := s.client.get(ctx, "/payees", &out); err != nil {
		return nil, fmt.Errorf("Payees: %w", err)
	}
	return out, nil
}

func (s *restSession) AccountBalance(ctx context.Context, accountID string) (int64, error) {
	var out int64
	path := fmt.Sprintf("/accounts/%s/balance", url.PathEscape(accountID))
	if err := s.client.get(ctx, path, &out); err != nil {
		return 0, fmt.Errorf("AccountBalance: %w", err)
	}
	return out, nil
}

func (s *restSession) BudgetMonth(ctx context.Context, month string) (*BudgetMonth, error) {
	var out BudgetMonth
	path := fmt.Sprintf("/months/%s", url.PathEscape(month))
	if err := s.client.get(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("BudgetMonth: %w", err)
	}
	return &out, nil
}

func (s *restSession) AddTransactions(ctx context.Context, accountID string, txns []Transaction) error {
	path := fmt.Sprintf("/accounts/%s/transactions", url.PathEscape(accountID))
	payload := map[string][]Transaction{"transactions": txns}
	if err := s.client.post(ctx, path, payload); err != nil {
		return fmt.Errorf("AddTransactions: %w", err)
	}
	return nil
}

// Release implements the Session interface.
func (s *restSession) Release() {
	s.client.http.CloseIdleConnections()
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("serializing request payload: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(body), nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) error {
	full := fmt.Sprintf("%s/v1/budgets/%s%s", c.baseURL, url.PathEscape(c.budgetID), path)

	req, err := http.NewRequestWithContext(ctx, method, full, body)
	if err != nil {
		return fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sending request to budget backend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("budget backend returned status %d: %s", resp.StatusCode, snippet)
	}

	if out == nil {
		return nil
	}

	var envelope dataEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding response envelope: %w", err)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decoding response data: %w", err)
	}

	return nil
}

// Ensure Client implements the Service interface.
var _ Service = (*Client)(nil)
