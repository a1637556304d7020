// Package ynab talks to the YNAB REST API: transaction creation
// (single and batch), scheduled transactions, deletion, and payee
// listing with delta sync.
//
// YNAB conventions: amounts are signed milliunits ($29.99 = 29990,
// negative = outflow), import_id deduplicates (reusing one yields a
// duplicate, not a second transaction), and transactions created
// unapproved/uncleared show up for manual review.
package ynab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aheckler/fastmail2ynab/internal/txn"
	"github.com/aheckler/fastmail2ynab/internal/types"
	"github.com/rs/zerolog"
)

// BaseURL is the YNAB REST API root.
const BaseURL = "https://api.ynab.com/v1"

// Client is an authenticated YNAB API client scoped to one budget.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	budgetID   string
	log        zerolog.Logger
}

// NewClient creates a YNAB client. All requests carry a 30s timeout.
func NewClient(token, budgetID string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    BaseURL,
		token:      token,
		budgetID:   budgetID,
		log:        log,
	}
}

type wireTransaction struct {
	AccountID string `json:"account_id"`
	Date      string `json:"date"`
	Amount    int64  `json:"amount"`
	PayeeName string `json:"payee_name"`
	Memo      string `json:"memo,omitempty"`
	Cleared   string `json:"cleared"`
	Approved  bool   `json:"approved"`
	ImportID  string `json:"import_id,omitempty"`
}

func toWire(t types.PendingTransaction) wireTransaction {
	return wireTransaction{
		AccountID: t.AccountID,
		Date:      t.Date,
		Amount:    txn.Milliunits(t.Amount, t.IsInflow),
		PayeeName: t.PayeeName,
		Memo:      t.Memo,
		Cleared:   "uncleared",
		Approved:  false,
		ImportID:  t.ImportID,
	}
}

// CreateTransactions creates a group of regular transactions in one
// API call and maps the results back to email IDs. Transactions whose
// import ID already exists server-side come back with AlreadyExisted
// set instead of an error.
func (c *Client) CreateTransactions(ctx context.Context, pending []types.PendingTransaction) ([]types.SubmitResult, error) {
	if len(pending) == 0 {
		return nil, nil
	}

	wire := make([]wireTransaction, 0, len(pending))
	for _, t := range pending {
		wire = append(wire, toWire(t))
	}

	var out struct {
		Data struct {
			Transactions []struct {
				ID string `json:"id"`
			} `json:"transactions"`
			DuplicateImportIDs []string `json:"duplicate_import_ids"`
		} `json:"data"`
	}
	err := c.do(ctx, http.MethodPost, "/transactions",
		map[string]any{"transactions": wire}, &out)
	if err != nil {
		return nil, err
	}

	duplicates := make(map[string]bool, len(out.Data.DuplicateImportIDs))
	for _, id := range out.Data.DuplicateImportIDs {
		duplicates[id] = true
	}

	results := make([]types.SubmitResult, 0, len(pending))
	createdIdx := 0
	for _, t := range pending {
		if duplicates[t.ImportID] {
			results = append(results, types.SubmitResult{EmailID: t.EmailID, AlreadyExisted: true})
			continue
		}
		r := types.SubmitResult{EmailID: t.EmailID}
		if createdIdx < len(out.Data.Transactions) {
			r.TransactionID = out.Data.Transactions[createdIdx].ID
		}
		createdIdx++
		results = append(results, r)
	}
	return results, nil
}

// CreateScheduled creates a one-time scheduled transaction for a
// future date. The scheduled endpoint has no batch or dedup support,
// so callers submit these individually.
func (c *Client) CreateScheduled(ctx context.Context, t types.PendingTransaction) (string, error) {
	var out struct {
		Data struct {
			ScheduledTransaction struct {
				ID string `json:"id"`
			} `json:"scheduled_transaction"`
		} `json:"data"`
	}
	err := c.do(ctx, http.MethodPost, "/scheduled_transactions",
		map[string]any{"scheduled_transaction": map[string]any{
			"account_id": t.AccountID,
			"date":       t.Date,
			"frequency":  "never",
			"amount":     txn.Milliunits(t.Amount, t.IsInflow),
			"payee_name": t.PayeeName,
			"memo":       t.Memo,
		}}, &out)
	if err != nil {
		return "", err
	}
	return out.Data.ScheduledTransaction.ID, nil
}

// DeleteTransaction removes a transaction. A 404 means it is already
// gone and reports found=false without an error.
func (c *Client) DeleteTransaction(ctx context.Context, transactionID string) (found bool, err error) {
	req, err := c.newRequest(ctx, http.MethodDelete, "/transactions/"+transactionID, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("delete transaction %s: %w", transactionID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 300:
		return false, fmt.Errorf("delete transaction %s: %s", transactionID, extractError(resp))
	}
	return true, nil
}

// FetchPayees lists payees, using the server_knowledge cursor for
// delta sync: with a non-zero cursor only changed payees come back.
func (c *Client) FetchPayees(ctx context.Context, serverKnowledge int64) ([]types.Payee, int64, error) {
	path := "/payees"
	if serverKnowledge > 0 {
		path = fmt.Sprintf("/payees?last_knowledge_of_server=%d", serverKnowledge)
	}

	var out struct {
		Data struct {
			Payees []struct {
				ID                string  `json:"id"`
				Name              string  `json:"name"`
				TransferAccountID *string `json:"transfer_account_id"`
				Deleted           bool    `json:"deleted"`
			} `json:"payees"`
			ServerKnowledge int64 `json:"server_knowledge"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, 0, err
	}

	payees := make([]types.Payee, 0, len(out.Data.Payees))
	for _, p := range out.Data.Payees {
		payee := types.Payee{ID: p.ID, Name: p.Name, Deleted: p.Deleted}
		if p.TransferAccountID != nil {
			payee.TransferAccountID = *p.TransferAccountID
		}
		payees = append(payees, payee)
	}
	return payees, out.Data.ServerKnowledge, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	url := c.baseURL + "/budgets/" + c.budgetID + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail := extractError(resp)
		c.log.Debug().Str("path", path).Int("status", resp.StatusCode).Str("detail", detail).Msg("ynab error")
		return fmt.Errorf("%s %s: %s", method, path, detail)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// extractError pulls the detail string out of a YNAB error response,
// falling back to the raw body.
func extractError(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var parsed struct {
		Error struct {
			Detail string `json:"detail"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Error.Detail != "" {
		return parsed.Error.Detail
	}
	if len(raw) > 0 {
		return string(raw)
	}
	return fmt.Sprintf("status %d", resp.StatusCode)
}
