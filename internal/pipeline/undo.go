package pipeline

import (
	"context"
	"errors"
)

// ErrNoCompletedRun means the run ledger has nothing to undo.
var ErrNoCompletedRun = errors.New("no completed run to undo")

// UndoResult summarizes what an undo did.
type UndoResult struct {
	RunID    string
	Deleted  int
	NotFound int
	Errors   int
}

// Undo reverses the most recent completed run: it deletes the run's
// YNAB transactions, then removes the run's ledger rows so the emails
// become eligible again. Transactions already deleted server-side are
// tolerated; the ledger rows go away regardless, since keeping them
// would pin emails to transactions that no longer exist.
func (p *Pipeline) Undo(ctx context.Context) (*UndoResult, error) {
	runID, _, err := p.DB.LastCompletedRun()
	if err != nil {
		return nil, err
	}
	if runID == "" {
		return nil, ErrNoCompletedRun
	}

	txns, err := p.DB.TransactionsForRun(runID)
	if err != nil {
		return nil, err
	}

	result := &UndoResult{RunID: runID}
	for _, t := range txns {
		found, err := p.Budget.DeleteTransaction(ctx, t.TransactionID)
		switch {
		case err != nil:
			p.Log.Error().Err(err).Str("transaction", t.TransactionID).Msg("delete failed")
			result.Errors++
		case found:
			result.Deleted++
		default:
			result.NotFound++
		}
	}

	if err := p.DB.DeleteRun(runID); err != nil {
		return result, err
	}
	return result, nil
}
