// Package pipeline orchestrates an import run: fetch emails, classify,
// gate, confirm, submit to YNAB, and record the outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aheckler/fastmail2ynab/internal/config"
	"github.com/aheckler/fastmail2ynab/internal/dates"
	"github.com/aheckler/fastmail2ynab/internal/db"
	"github.com/aheckler/fastmail2ynab/internal/router"
	"github.com/aheckler/fastmail2ynab/internal/txn"
	"github.com/aheckler/fastmail2ynab/internal/types"
	"github.com/aheckler/fastmail2ynab/internal/ynab"
)

// payeeStaleAfter is how old the payee cache may get before a run
// refreshes it from YNAB.
const payeeStaleAfter = 24 * time.Hour

// EmailSource fetches candidate emails.
type EmailSource interface {
	FetchRecent(ctx context.Context, limit int) ([]types.Email, error)
}

// Classifier judges whether an email is a receipt.
type Classifier interface {
	Classify(ctx context.Context, email types.Email, payeeNames []string, accounts []types.Account) (*types.Classification, error)
}

// BudgetClient is the YNAB surface the pipeline needs.
type BudgetClient interface {
	CreateTransactions(ctx context.Context, pending []types.PendingTransaction) ([]types.SubmitResult, error)
	CreateScheduled(ctx context.Context, t types.PendingTransaction) (string, error)
	DeleteTransaction(ctx context.Context, transactionID string) (bool, error)
	FetchPayees(ctx context.Context, serverKnowledge int64) ([]types.Payee, int64, error)
}

// ConfirmFunc shows candidates to the user and returns the ones to
// submit. ok=false aborts the run with nothing marked.
type ConfirmFunc func(candidates []types.Candidate) (selected []types.Candidate, ok bool)

// Pipeline wires the import stages together. All dependencies are
// interfaces so runs can be driven against fakes.
type Pipeline struct {
	Config     *config.Config
	DB         *db.DB
	Source     EmailSource
	Classifier Classifier
	Budget     BudgetClient
	Confirm    ConfirmFunc
	Log        zerolog.Logger
}

// Options tunes a single run.
type Options struct {
	// Limit caps how many recent emails are fetched.
	Limit int

	// Force reprocesses already-handled emails with fresh import IDs.
	Force bool

	// DryRun builds and shows candidates but submits and marks nothing.
	DryRun bool

	// RefreshPayees forces a full payee resync, ignoring the delta
	// cursor and the staleness window.
	RefreshPayees bool
}

// Run executes one import. It returns the stats for the summary line;
// a non-nil error means the run aborted before any submission.
func (p *Pipeline) Run(ctx context.Context, opts Options) (types.RunStats, error) {
	var stats types.RunStats

	if err := p.refreshPayees(ctx, opts.RefreshPayees); err != nil {
		return stats, err
	}
	payeeNames, err := p.DB.PayeeNames()
	if err != nil {
		return stats, fmt.Errorf("load payee cache: %w", err)
	}

	emails, err := p.Source.FetchRecent(ctx, opts.Limit)
	if err != nil {
		return stats, fmt.Errorf("fetch emails: %w", err)
	}
	p.Log.Info().Int("count", len(emails)).Msg("fetched emails")

	runID, err := p.DB.StartRun()
	if err != nil {
		return stats, fmt.Errorf("start run: %w", err)
	}
	memo := "fm2ynab | Run: " + runID[:8]

	var candidates []types.Candidate
	for _, email := range emails {
		if !opts.Force && p.DB.IsProcessed(email.ID) {
			p.Log.Debug().Str("email", email.ID).Msg("already processed")
			continue
		}

		c, cached, err := p.classify(ctx, email, payeeNames)
		if err != nil {
			p.Log.Error().Err(err).Str("email", email.ID).Msg("classification failed")
			stats.Errors++
			continue
		}
		if cached {
			stats.Cached++
		}

		if c.Score < p.Config.MinScore {
			p.Log.Debug().Str("email", email.ID).Int("score", c.Score).Msg("below threshold")
			if err := p.markNonReceipt(email.ID, runID, &stats); err != nil {
				return stats, err
			}
			continue
		}
		if !c.HasAmount {
			p.Log.Debug().Str("email", email.ID).Msg("no amount extracted")
			if err := p.markNonReceipt(email.ID, runID, &stats); err != nil {
				return stats, err
			}
			continue
		}

		date, isFuture, err := dates.Validate(c.Date, email.ReceivedAt)
		if err != nil {
			p.Log.Warn().Err(err).Str("email", email.ID).Msg("no usable date")
			if err := p.markNonReceipt(email.ID, runID, &stats); err != nil {
				return stats, err
			}
			continue
		}

		account := router.RouteAccount(c.AccountName, p.Config.Accounts)
		payee := router.ResolvePayee(c, payeeNames)

		t, clamped := txn.Build(email.ID, c, account, date, isFuture, payee, memo, opts.Force)
		if clamped {
			p.Log.Warn().Str("email", email.ID).Str("date", c.Date).
				Msg("uncertain future date clamped to today")
		}
		candidates = append(candidates, types.Candidate{
			Txn:         t,
			DisplayDate: t.Date,
			Payee:       t.PayeeName,
			Amount:      t.Amount,
			IsInflow:    t.IsInflow,
			Score:       c.Score,
		})
	}

	if len(candidates) == 0 {
		if opts.DryRun {
			// Gate decisions recorded during the scan are rolled back
			// with the placeholder run; a dry run keeps no marks.
			if err := p.DB.DeleteRun(runID); err != nil {
				return stats, err
			}
			return stats, nil
		}
		if err := p.DB.CompleteRun(runID, 0); err != nil {
			return stats, err
		}
		return stats, nil
	}

	if opts.DryRun {
		// Show the table, then stop: nothing submitted, nothing
		// marked. The placeholder run is removed so undo never sees it.
		if p.Confirm != nil {
			p.Confirm(candidates)
		}
		if err := p.DB.DeleteRun(runID); err != nil {
			return stats, err
		}
		return stats, nil
	}

	selected := candidates
	if p.Confirm != nil {
		var ok bool
		selected, ok = p.Confirm(candidates)
		if !ok {
			if err := p.DB.DeleteRun(runID); err != nil {
				return stats, err
			}
			return stats, ErrAborted
		}
	}

	// Deselected candidates are recorded as receipts without a
	// transaction so they stop reappearing on every run.
	chosen := make(map[string]bool, len(selected))
	for _, c := range selected {
		chosen[c.Txn.EmailID] = true
	}
	for _, c := range candidates {
		if chosen[c.Txn.EmailID] {
			continue
		}
		if err := p.DB.MarkProcessed(c.Txn.EmailID, true, "", runID); err != nil {
			return stats, err
		}
		stats.Skipped++
	}

	p.submit(ctx, selected, runID, &stats)

	if err := p.DB.CompleteRun(runID, stats.Created+stats.Scheduled); err != nil {
		return stats, err
	}
	return stats, nil
}

// ErrAborted means the user declined the confirmation prompt.
var ErrAborted = errors.New("run aborted at confirmation")

// classify returns the classification for an email, from cache when
// possible. cached reports a cache hit.
func (p *Pipeline) classify(ctx context.Context, email types.Email, payeeNames []string) (*types.Classification, bool, error) {
	c, err := p.DB.CachedClassification(email.ID)
	if err != nil {
		return nil, false, err
	}
	if c != nil {
		return c, true, nil
	}

	c, err = p.Classifier.Classify(ctx, email, payeeNames, p.Config.Accounts)
	if err != nil {
		return nil, false, err
	}
	if err := p.DB.CacheClassification(email.ID, c); err != nil {
		return nil, false, err
	}
	return c, false, nil
}

func (p *Pipeline) markNonReceipt(emailID, runID string, stats *types.RunStats) error {
	stats.Skipped++
	return p.DB.MarkProcessed(emailID, false, "", runID)
}

// submit sends the selected transactions to YNAB: scheduled ones
// individually, the rest in batches. Submission failures only count
// errors; the affected emails stay unmarked and retry next run.
func (p *Pipeline) submit(ctx context.Context, selected []types.Candidate, runID string, stats *types.RunStats) {
	var regular []types.PendingTransaction
	for _, c := range selected {
		if c.Txn.IsScheduled {
			id, err := p.Budget.CreateScheduled(ctx, c.Txn)
			if err != nil {
				p.Log.Error().Err(err).Str("email", c.Txn.EmailID).Msg("scheduled create failed")
				stats.Errors++
				continue
			}
			if err := p.DB.MarkProcessed(c.Txn.EmailID, true, id, runID); err != nil {
				p.Log.Error().Err(err).Str("email", c.Txn.EmailID).Msg("mark processed failed")
			}
			stats.Scheduled++
			continue
		}
		regular = append(regular, c.Txn)
	}

	results, failed := ynab.SubmitBatches(ctx, p.Budget, regular, p.Log)
	stats.Errors += failed
	for _, r := range results {
		if r.AlreadyExisted {
			stats.Duplicates++
			if err := p.DB.MarkProcessed(r.EmailID, true, "", runID); err != nil {
				p.Log.Error().Err(err).Str("email", r.EmailID).Msg("mark processed failed")
			}
			continue
		}
		stats.Created++
		if err := p.DB.MarkProcessed(r.EmailID, true, r.TransactionID, runID); err != nil {
			p.Log.Error().Err(err).Str("email", r.EmailID).Msg("mark processed failed")
		}
	}
}

// refreshPayees syncs the payee cache when it is stale or a full
// refresh was requested.
func (p *Pipeline) refreshPayees(ctx context.Context, force bool) error {
	if !force && !p.DB.PayeeCacheStale(payeeStaleAfter) {
		return nil
	}
	cursor := p.DB.ServerKnowledge()
	if force {
		cursor = 0
	}
	payees, knowledge, err := p.Budget.FetchPayees(ctx, cursor)
	if err != nil {
		return fmt.Errorf("refresh payees: %w", err)
	}
	if err := p.DB.UpsertPayees(payees); err != nil {
		return fmt.Errorf("store payees: %w", err)
	}
	if err := p.DB.SetServerKnowledge(knowledge); err != nil {
		return fmt.Errorf("store sync cursor: %w", err)
	}
	p.Log.Info().Int("payees", len(payees)).Int64("server_knowledge", knowledge).Msg("payee cache refreshed")
	return nil
}
