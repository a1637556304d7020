package fastmail

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

// fakeJMAP serves a minimal session + Mailbox/query + Email/query +
// Email/get exchange.
func fakeJMAP(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	var apiURL string
	mux.HandleFunc("/jmap/session", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"apiUrl":          apiURL + "/jmap/api",
			"primaryAccounts": map[string]string{mailCapability: "acct-1"},
		})
	})

	mux.HandleFunc("/jmap/api", func(w http.ResponseWriter, r *http.Request) {
		var req jmapRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		method := req.MethodCalls[0][0].(string)
		var result any
		switch method {
		case "Mailbox/query":
			result = map[string]any{"ids": []string{"inbox-1"}}
		case "Email/query":
			result = map[string]any{"ids": []string{"m1", "m2"}}
		case "Email/get":
			result = map[string]any{"list": []map[string]any{
				{
					"id":         "m1",
					"subject":    "Your receipt",
					"from":       []map[string]string{{"email": "store@example.com"}},
					"receivedAt": "2024-01-05T10:00:00Z",
					"textBody":   []map[string]string{{"partId": "p1", "type": "text/plain"}},
					"bodyValues": map[string]any{"p1": map[string]string{"value": "Total $42.17"}},
				},
				{
					"id":         "m2",
					"subject":    "Newsletter",
					"receivedAt": "2024-01-04T10:00:00Z",
					"preview":    "This week in news",
				},
			}}
		default:
			t.Errorf("unexpected method %s", method)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"methodResponses": []any{[]any{method, result, "0"}},
		})
	})

	srv := httptest.NewServer(mux)
	apiURL = srv.URL
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchRecent(t *testing.T) {
	srv := fakeJMAP(t)
	c := NewClient("test-token", zerolog.Nop())
	c.sessionURL = srv.URL + "/jmap/session"

	emails, err := c.FetchRecent(context.Background(), 100)
	if err != nil {
		t.Fatalf("FetchRecent: %v", err)
	}
	if len(emails) != 2 {
		t.Fatalf("len = %d, want 2", len(emails))
	}
	if emails[0].ID != "m1" || emails[0].From != "store@example.com" || emails[0].Body != "Total $42.17" {
		t.Fatalf("emails[0] = %+v", emails[0])
	}
	// Missing sender and body fall back to "unknown" and the preview.
	if emails[1].From != "unknown" || emails[1].Body != "This week in news" {
		t.Fatalf("emails[1] = %+v", emails[1])
	}
}

func TestFetchRecentBadToken(t *testing.T) {
	srv := fakeJMAP(t)
	c := NewClient("wrong", zerolog.Nop())
	c.sessionURL = srv.URL + "/jmap/session"

	if _, err := c.FetchRecent(context.Background(), 100); err == nil {
		t.Fatal("expected error for bad token")
	}
}
