// Package fastmail fetches inbox emails over Fastmail's JMAP API.
//
// JMAP is JSON-RPC-like: a request carries a list of method calls, each
// a [name, arguments, callId] triple, and the response carries matching
// methodResponses. Fetching the inbox takes three steps: session fetch
// (API URL + account ID), Mailbox/query for the Inbox ID, then
// Email/query + Email/get for the messages. Fastmail does not support
// date filtering in queries, so we fetch the most recent N and let the
// caller filter locally.
package fastmail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aheckler/fastmail2ynab/internal/types"
	"github.com/rs/zerolog"
)

const (
	// SessionURL is the JMAP session endpoint.
	SessionURL = "https://api.fastmail.com/jmap/session"

	mailCapability = "urn:ietf:params:jmap:mail"

	// maxBodyBytes bounds how much body content Email/get returns per part.
	maxBodyBytes = 50000
)

// Client talks to Fastmail's JMAP API with a bearer token.
type Client struct {
	httpClient *http.Client
	sessionURL string
	token      string
	log        zerolog.Logger
}

// NewClient creates a Fastmail client. All requests carry a 30s timeout.
func NewClient(token string, log zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sessionURL: SessionURL,
		token:      token,
		log:        log,
	}
}

type session struct {
	APIURL          string            `json:"apiUrl"`
	PrimaryAccounts map[string]string `json:"primaryAccounts"`
}

type jmapRequest struct {
	Using       []string `json:"using"`
	MethodCalls [][3]any `json:"methodCalls"`
}

type jmapResponse struct {
	MethodResponses [][]json.RawMessage `json:"methodResponses"`
}

type mailboxQueryResult struct {
	IDs []string `json:"ids"`
}

type emailQueryResult struct {
	IDs []string `json:"ids"`
}

type bodyPart struct {
	PartID string `json:"partId"`
	Type   string `json:"type"`
}

type bodyValue struct {
	Value string `json:"value"`
}

type address struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type emailData struct {
	ID         string               `json:"id"`
	Subject    string               `json:"subject"`
	From       []address            `json:"from"`
	ReceivedAt string               `json:"receivedAt"`
	Preview    string               `json:"preview"`
	TextBody   []bodyPart           `json:"textBody"`
	HTMLBody   []bodyPart           `json:"htmlBody"`
	BodyValues map[string]bodyValue `json:"bodyValues"`
}

type emailGetResult struct {
	List []emailData `json:"list"`
}

// FetchRecent returns up to limit of the most recent inbox emails,
// newest first.
func (c *Client) FetchRecent(ctx context.Context, limit int) ([]types.Email, error) {
	sess, err := c.getSession(ctx)
	if err != nil {
		return nil, err
	}
	accountID := sess.PrimaryAccounts[mailCapability]
	if accountID == "" {
		return nil, fmt.Errorf("session has no mail account")
	}
	c.log.Debug().Str("api_url", sess.APIURL).Str("account_id", accountID).Msg("jmap session")

	inboxID, err := c.findInbox(ctx, sess.APIURL, accountID)
	if err != nil {
		return nil, err
	}

	ids, err := c.queryEmails(ctx, sess.APIURL, accountID, inboxID, limit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	return c.getEmails(ctx, sess.APIURL, accountID, ids)
}

func (c *Client) getSession(ctx context.Context) (*session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.sessionURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("jmap session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("jmap session: status %d", resp.StatusCode)
	}

	var sess session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}

// call executes a single JMAP method call and decodes its result into out.
func (c *Client) call(ctx context.Context, apiURL, method string, args any, out any) error {
	body, err := json.Marshal(jmapRequest{
		Using:       []string{"urn:ietf:params:jmap:core", mailCapability},
		MethodCalls: [][3]any{{method, args, "0"}},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: status %d", method, resp.StatusCode)
	}

	var jr jmapResponse
	if err := json.NewDecoder(resp.Body).Decode(&jr); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if len(jr.MethodResponses) == 0 || len(jr.MethodResponses[0]) < 2 {
		return fmt.Errorf("%s: empty method response", method)
	}

	var name string
	if err := json.Unmarshal(jr.MethodResponses[0][0], &name); err != nil {
		return fmt.Errorf("decode %s response name: %w", method, err)
	}
	if name == "error" {
		c.log.Debug().Str("method", method).RawJSON("error", jr.MethodResponses[0][1]).Msg("jmap error")
		return fmt.Errorf("%s: jmap error: %s", method, jr.MethodResponses[0][1])
	}
	return json.Unmarshal(jr.MethodResponses[0][1], out)
}

func (c *Client) findInbox(ctx context.Context, apiURL, accountID string) (string, error) {
	var result mailboxQueryResult
	err := c.call(ctx, apiURL, "Mailbox/query", map[string]any{
		"accountId": accountID,
		"filter":    map[string]any{"name": "Inbox"},
	}, &result)
	if err != nil {
		return "", err
	}
	if len(result.IDs) == 0 {
		return "", fmt.Errorf("could not find Inbox mailbox")
	}
	return result.IDs[0], nil
}

func (c *Client) queryEmails(ctx context.Context, apiURL, accountID, inboxID string, limit int) ([]string, error) {
	var result emailQueryResult
	err := c.call(ctx, apiURL, "Email/query", map[string]any{
		"accountId": accountID,
		"filter":    map[string]any{"inMailbox": inboxID},
		"sort":      []map[string]any{{"property": "receivedAt", "isAscending": false}},
		"limit":     limit,
	}, &result)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Int("count", len(result.IDs)).Msg("email query")
	return result.IDs, nil
}

func (c *Client) getEmails(ctx context.Context, apiURL, accountID string, ids []string) ([]types.Email, error) {
	var result emailGetResult
	err := c.call(ctx, apiURL, "Email/get", map[string]any{
		"accountId": accountID,
		"ids":       ids,
		"properties": []string{
			"id", "receivedAt", "from", "subject", "preview",
			"textBody", "htmlBody", "bodyValues",
		},
		"fetchTextBodyValues": true,
		"fetchHTMLBodyValues": true,
		"maxBodyValueBytes":   maxBodyBytes,
	}, &result)
	if err != nil {
		return nil, err
	}

	emails := make([]types.Email, 0, len(result.List))
	for _, e := range result.List {
		from := "unknown"
		if len(e.From) > 0 && e.From[0].Email != "" {
			from = e.From[0].Email
		}
		emails = append(emails, types.Email{
			ID:         e.ID,
			Subject:    e.Subject,
			From:       from,
			ReceivedAt: e.ReceivedAt,
			Body:       extractBody(e),
		})
	}
	c.log.Debug().Int("count", len(emails)).Msg("emails fetched")
	return emails, nil
}

// extractBody picks the best plain-text body for an email: text parts
// first, then stripped HTML, then the preview snippet. Text parts typed
// text/html are stripped too — HTML-only emails sometimes surface that
// way.
func extractBody(e emailData) string {
	var textBody string
	for _, part := range e.TextBody {
		content := e.BodyValues[part.PartID].Value
		if content == "" {
			continue
		}
		if isHTMLType(part.Type) {
			content = StripHTML(content)
		}
		textBody += content
	}

	var htmlBody string
	for _, part := range e.HTMLBody {
		if content := e.BodyValues[part.PartID].Value; content != "" {
			htmlBody += StripHTML(content)
		}
	}

	switch {
	case textBody != "" && !isStubBody(textBody):
		return textBody
	case htmlBody != "":
		return htmlBody
	case textBody != "":
		return textBody
	default:
		return e.Preview
	}
}

func isHTMLType(mimeType string) bool {
	return len(mimeType) >= 9 && mimeType[:9] == "text/html"
}
