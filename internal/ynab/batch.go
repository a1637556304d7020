package ynab

import (
	"context"

	"github.com/aheckler/fastmail2ynab/internal/types"
	"github.com/rs/zerolog"
)

// BatchSize is how many transactions go into one create call. Small
// batches keep a single API failure from sinking a whole run.
const BatchSize = 5

type transactionCreator interface {
	CreateTransactions(ctx context.Context, pending []types.PendingTransaction) ([]types.SubmitResult, error)
}

// SubmitBatches creates transactions in groups of BatchSize. A failed
// batch counts every member as an error but later batches still run,
// so one poisoned group costs at most BatchSize transactions.
func SubmitBatches(ctx context.Context, c transactionCreator, pending []types.PendingTransaction, log zerolog.Logger) (results []types.SubmitResult, failed int) {
	for start := 0; start < len(pending); start += BatchSize {
		end := start + BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		created, err := c.CreateTransactions(ctx, batch)
		if err != nil {
			log.Error().Err(err).Int("batch_size", len(batch)).Msg("batch create failed")
			failed += len(batch)
			continue
		}
		results = append(results, created...)
	}
	return results, failed
}
