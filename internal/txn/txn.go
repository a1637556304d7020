// Package txn builds YNAB transaction requests from classification and
// routing results.
package txn

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"time"

	"github.com/aheckler/fastmail2ynab/internal/dates"
	"github.com/aheckler/fastmail2ynab/internal/types"
)

// importIDMaxLen is YNAB's import_id length limit.
const importIDMaxLen = 36

// payeeMaxLen is YNAB's payee name length limit.
const payeeMaxLen = 50

// GenerateImportID derives the YNAB deduplication key for an email.
//
// The format is YNAB:{date}:{hash16} — the date prefix is for human
// debuggability, the 16 hex chars (64 bits) of the email ID hash do the
// deduplication. The same (email, date) pair always yields the same
// key, so replays collide server-side. With force set, the current
// timestamp is mixed in to defeat deduplication deliberately (used to
// reimport transactions deleted from YNAB).
func GenerateImportID(emailID, date string, force bool) string {
	input := emailID
	if force {
		input += time.Now().UTC().Format(time.RFC3339Nano)
	}
	sum := md5.Sum([]byte(input))
	id := fmt.Sprintf("YNAB:%s:%s", date, hex.EncodeToString(sum[:])[:16])
	if len(id) > importIDMaxLen {
		id = id[:importIDMaxLen]
	}
	return id
}

// Milliunits converts an amount to YNAB's signed integer representation:
// $29.99 becomes 29990, negated for outflows.
func Milliunits(amount float64, isInflow bool) int64 {
	m := int64(math.Round(amount * 1000))
	if !isInflow {
		return -m
	}
	return m
}

// Build converts a validated classification into a pending transaction.
//
// A future date goes to YNAB's scheduled-transaction path only when the
// classifier was certain about it; speculative future dates are clamped
// to today instead, since a fire-and-forget scheduled entry is not worth
// the risk of a guessed date. clamped reports whether that adjustment
// happened.
func Build(emailID string, c *types.Classification, account types.Account, date string, isFuture bool, payee, memo string, force bool) (t types.PendingTransaction, clamped bool) {
	scheduled := isFuture && c.DateConfidence == types.DateCertain
	if isFuture && !scheduled {
		date = dates.Today()
		clamped = true
	}

	importID := ""
	if !scheduled {
		importID = GenerateImportID(emailID, date, force)
	}

	if len(payee) > payeeMaxLen {
		payee = payee[:payeeMaxLen]
	}

	return types.PendingTransaction{
		EmailID:     emailID,
		AccountID:   account.YNABID,
		Amount:      c.Amount,
		Date:        date,
		PayeeName:   payee,
		Memo:        memo,
		ImportID:    importID,
		IsInflow:    c.IsInflow,
		IsScheduled: scheduled,
	}, clamped
}
