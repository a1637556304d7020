package classifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aheckler/fastmail2ynab/internal/types"
)

const (
	// bodyBudget bounds the email body included in the prompt
	// (~2000 tokens).
	bodyBudget = 8000

	// maxPayees caps the payee list passed as matching context.
	maxPayees = 2000
)

// BuildPrompt renders the classification prompt for one email. Payees
// are sorted and capped so the prompt is deterministic and bounded.
func BuildPrompt(email types.Email, payeeNames []string, accounts []types.Account) string {
	body := email.Body
	if len(body) > bodyBudget {
		body = body[:bodyBudget]
	}

	sorted := append([]string(nil), payeeNames...)
	sort.Strings(sorted)
	if len(sorted) > maxPayees {
		sorted = sorted[:maxPayees]
	}
	payeeList := strings.Join(sorted, "\n")

	var accountLines []string
	for _, a := range accounts {
		marker := ""
		if a.Default {
			marker = " (DEFAULT)"
		}
		accountLines = append(accountLines, fmt.Sprintf("- %s%s", a.Name, marker))
		for _, line := range strings.Split(a.Notes, "\n") {
			if line != "" {
				accountLines = append(accountLines, "  "+line)
			}
		}
	}
	accountsText := "(no accounts configured)"
	if len(accountLines) > 0 {
		accountsText = strings.Join(accountLines, "\n")
	}

	return fmt.Sprintf(`Analyze this email and determine if it's related to a financial transaction.

FROM: %s
SUBJECT: %s

BODY:
%s

---

EXISTING PAYEES (for matching):
%s

---

ACCOUNTS (for routing):
%s

---

Score this email from 1-10 on how confident you are that money HAS MOVED or IS SCHEDULED TO MOVE:
- 1-3: Not financial (newsletters, marketing, shipping updates without prices)
- 4-5: Financially related but no transaction occurred (expiration notices, renewal reminders, price change notices, payment method alerts)
- 6-7: Probably a transaction but missing key details
- 8-10: Confirmed transaction - receipt, charge confirmation, payment confirmation, or autopay bill with specific due date

Also determine if this is:
- OUTFLOW: Money I spent (purchases, subscriptions, bills, fees, charges)
- INFLOW: Money I received (refunds, credits, rebates, cashback, deposits, payments to me)

Respond with JSON in this exact format:
{
  "score": 8,
  "direction": "outflow",
  "merchant": "Store Name or Source",
  "matched_payee": "Existing Payee Name",
  "account_name": "Account Name",
  "amount": 29.99,
  "currency": "USD",
  "date": "2024-01-15",
  "date_confidence": "certain",
  "description": "Brief description of transaction",
  "reasoning": "Why you gave this score and direction"
}

Rules:
- "score" must be an integer from 1-10
- "direction" must be either "inflow" or "outflow"
- "amount" must be a positive number (no currency symbols), or null if not found
- "date" must be YYYY-MM-DD format. For purchase receipts, use the purchase date. For bills with autopay, use the due date (when payment will be charged). For payment confirmations, use the payment date. Use null if not found.
- "date_confidence" indicates how certain you are about the date:
  - "certain": The email explicitly states this exact date (e.g., "Due Date: Feb 19, 2026" or "Payment scheduled for 2/19/26")
  - "likely": The date is implied but not explicitly stated
  - null: Date was inferred or uncertain
  Future dates require "certain" confidence to be used; otherwise they'll be adjusted to today.
- "merchant" should be the business/source name as it appears in the email, or null if not found
- "matched_payee" should be the EXACT name from the EXISTING PAYEES list that best matches this merchant. Use null if no good match exists. Consider abbreviations (e.g., "HOA" = "Homeowners Association"), common variations, and ignore suffixes like "Inc", "LLC", "Co.", etc. Only use a value from the provided list.
- "account_name" should be the EXACT name from the ACCOUNTS list that this transaction belongs to based on the account descriptions. Use null to route to the default account. Only use a value from the provided list.
- "description" should briefly describe the transaction

Examples of OUTFLOW: purchase receipts, subscription charges, bill payments, fees
Examples of INFLOW: refund confirmations, credit applied, cashback earned, payment received, reimbursement

Respond ONLY with valid JSON, no other text.`,
		email.From, email.Subject, body, payeeList, accountsText)
}
