package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aheckler/fastmail2ynab/internal/classifier"
	"github.com/aheckler/fastmail2ynab/internal/config"
	"github.com/aheckler/fastmail2ynab/internal/db"
	"github.com/aheckler/fastmail2ynab/internal/display"
	"github.com/aheckler/fastmail2ynab/internal/fastmail"
	"github.com/aheckler/fastmail2ynab/internal/lock"
	"github.com/aheckler/fastmail2ynab/internal/pipeline"
	"github.com/aheckler/fastmail2ynab/internal/types"
	"github.com/aheckler/fastmail2ynab/internal/ynab"
)

var (
	limitFlag         int
	forceFlag         bool
	clearCacheFlag    bool
	refreshPayeesFlag bool
	dryRunFlag        bool
	yesFlag           bool
)

func init() {
	rootCmd.Flags().IntVar(&limitFlag, "limit", 50, "How many recent emails to scan")
	rootCmd.Flags().BoolVar(&forceFlag, "force", false, "Reprocess already-handled emails with fresh import IDs")
	rootCmd.Flags().BoolVar(&clearCacheFlag, "clear-cache", false, "Drop cached classifications before running")
	rootCmd.Flags().BoolVar(&refreshPayeesFlag, "refresh-payees", false, "Force a full payee resync from YNAB")
	rootCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Show what would be imported without creating anything")
	rootCmd.Flags().BoolVarP(&yesFlag, "yes", "y", false, "Skip the confirmation prompt")
}

func runImport(cmd *cobra.Command) error {
	cfg, err := config.Load(dataDir)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if missing := config.AccountsWithoutNotes(cfg.Accounts); len(missing) > 0 {
		display.WarnMsg("accounts without routing notes: %s", strings.Join(missing, ", "))
	}

	l, err := lock.Acquire(dataDir)
	if err != nil {
		return err
	}
	defer l.Release()

	store, err := db.Open(filepath.Join(dataDir, "fm2ynab.db"))
	if err != nil {
		return err
	}
	defer store.Close()

	if clearCacheFlag {
		if err := store.ClearClassificationCache(); err != nil {
			return fmt.Errorf("clear classification cache: %w", err)
		}
		display.SuccessMsg("Classification cache cleared")
	}

	p := &pipeline.Pipeline{
		Config:     cfg,
		DB:         store,
		Source:     fastmail.NewClient(cfg.FastmailToken, log),
		Classifier: classifier.New(cfg.AnthropicAPIKey, log),
		Budget:     ynab.NewClient(cfg.YNABToken, cfg.YNABBudgetID, log),
		Log:        log,
	}
	if dryRunFlag {
		p.Confirm = previewOnly
	} else if !yesFlag {
		p.Confirm = display.SelectCandidates
	}

	stats, err := p.Run(cmd.Context(), pipeline.Options{
		Limit:         limitFlag,
		Force:         forceFlag,
		DryRun:        dryRunFlag,
		RefreshPayees: refreshPayeesFlag,
	})
	if errors.Is(err, pipeline.ErrAborted) {
		display.WarnMsg("Cancelled, nothing imported")
		return nil
	}
	if err != nil {
		return err
	}

	if dryRunFlag {
		display.SuccessMsg("Dry run complete, nothing created")
		return nil
	}
	display.Summary(stats)
	return nil
}

// previewOnly shows the candidate table during a dry run. The pipeline
// stops before submission regardless, so the answer is irrelevant.
func previewOnly(candidates []types.Candidate) ([]types.Candidate, bool) {
	display.Candidates(candidates)
	return nil, true
}
