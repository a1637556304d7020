// Package types defines core data structures for fastmail2ynab.
package types

// Account represents a YNAB account that transactions can be routed to.
// The classifier picks an account by name based on the notes supplied in
// the configuration; exactly one account must be marked as default.
type Account struct {
	Name    string `yaml:"name" json:"name"`
	YNABID  string `yaml:"ynab_id" json:"ynab_id"`
	Notes   string `yaml:"notes,omitempty" json:"notes,omitempty"`
	Default bool   `yaml:"default,omitempty" json:"default,omitempty"`
}

// Email is a simplified view of a Fastmail message containing only the
// fields needed for receipt classification. Body is best-effort plain
// text: text part preferred, then stripped HTML, then the preview.
type Email struct {
	ID         string `json:"id"`
	Subject    string `json:"subject"`
	From       string `json:"from"`
	ReceivedAt string `json:"received_at"`
	Body       string `json:"body"`
}

// Date confidence values reported by the classifier.
const (
	DateCertain = "certain"
	DateLikely  = "likely"
)

// Classification is the classifier's judgment of a single email.
//
// Score is 1-10 (higher = more likely a real transaction); 0 is the
// sentinel for an unparseable classifier response. Optional fields are
// empty strings / zero when the classifier could not extract them.
type Classification struct {
	Score          int     `json:"score"`
	IsInflow       bool    `json:"is_inflow"`
	Merchant       string  `json:"merchant,omitempty"`
	MatchedPayee   string  `json:"matched_payee,omitempty"`
	Amount         float64 `json:"amount,omitempty"`
	HasAmount      bool    `json:"has_amount"`
	Currency       string  `json:"currency,omitempty"`
	Date           string  `json:"date,omitempty"`
	DateConfidence string  `json:"date_confidence,omitempty"`
	Description    string  `json:"description,omitempty"`
	Reasoning      string  `json:"reasoning,omitempty"`
	AccountName    string  `json:"account_name,omitempty"`
}

// PendingTransaction is a transaction ready to be created in YNAB.
// ImportID is empty for scheduled transactions — YNAB's scheduled
// endpoint has no deduplication support.
type PendingTransaction struct {
	EmailID     string  `json:"email_id"`
	AccountID   string  `json:"account_id"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	PayeeName   string  `json:"payee_name"`
	Memo        string  `json:"memo"`
	ImportID    string  `json:"import_id,omitempty"`
	IsInflow    bool    `json:"is_inflow"`
	IsScheduled bool    `json:"is_scheduled"`
}

// Payee mirrors a YNAB payee in the local cache. Deleted payees are
// kept with the flag set rather than removed, matching delta sync.
type Payee struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	TransferAccountID string `json:"transfer_account_id,omitempty"`
	Deleted           bool   `json:"deleted"`
}

// SubmitResult is the outcome of submitting one pending transaction.
// AlreadyExisted means YNAB rejected the import ID as a duplicate;
// TransactionID is empty in that case.
type SubmitResult struct {
	EmailID        string `json:"email_id"`
	TransactionID  string `json:"transaction_id,omitempty"`
	AlreadyExisted bool   `json:"already_existed"`
}

// RunStats accumulates counters for the final summary line.
type RunStats struct {
	Created    int `json:"created"`
	Scheduled  int `json:"scheduled"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
	Cached     int `json:"cached"`
	Errors     int `json:"errors"`
}

// Candidate pairs a pending transaction with the display data shown in
// the confirmation table.
type Candidate struct {
	Txn         PendingTransaction `json:"txn"`
	DisplayDate string             `json:"display_date"`
	Payee       string             `json:"payee"`
	Amount      float64            `json:"amount"`
	IsInflow    bool               `json:"is_inflow"`
	Score       int                `json:"score"`
}
