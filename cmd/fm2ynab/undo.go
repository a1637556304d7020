package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aheckler/fastmail2ynab/internal/config"
	"github.com/aheckler/fastmail2ynab/internal/db"
	"github.com/aheckler/fastmail2ynab/internal/display"
	"github.com/aheckler/fastmail2ynab/internal/lock"
	"github.com/aheckler/fastmail2ynab/internal/pipeline"
	"github.com/aheckler/fastmail2ynab/internal/ynab"
)

var undoYesFlag bool

var undoCmd = &cobra.Command{
	Use:   "undo",
	Short: "Delete the transactions created by the last run",
	Long: "Undo reverses the most recent completed import: the run's YNAB\n" +
		"transactions are deleted and its emails become eligible again.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(dataDir)
		if err != nil {
			return err
		}
		if err := cfg.ValidateUndo(); err != nil {
			return err
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

		runID, count, err := store.LastCompletedRun()
		if err != nil {
			return err
		}
		if runID == "" {
			display.WarnMsg("No completed run to undo")
			return nil
		}

		if !undoYesFlag {
			fmt.Printf("Delete %d transaction(s) from run %s? [y/N] ", count, runID[:8])
			reader := bufio.NewReader(os.Stdin)
			answer, err := reader.ReadString('\n')
			if err != nil {
				return nil
			}
			answer = strings.ToLower(strings.TrimSpace(answer))
			if answer != "y" && answer != "yes" {
				display.WarnMsg("Cancelled")
				return nil
			}
		}

		p := &pipeline.Pipeline{
			DB:     store,
			Budget: ynab.NewClient(cfg.YNABToken, cfg.YNABBudgetID, log),
			Log:    log,
		}
		result, err := p.Undo(cmd.Context())
		if errors.Is(err, pipeline.ErrNoCompletedRun) {
			display.WarnMsg("No completed run to undo")
			return nil
		}
		if err != nil {
			return err
		}

		msg := fmt.Sprintf("Undid run %s: %d deleted", result.RunID[:8], result.Deleted)
		if result.NotFound > 0 {
			msg += fmt.Sprintf(", %d already gone", result.NotFound)
		}
		if result.Errors > 0 {
			msg += fmt.Sprintf(", %d failed", result.Errors)
		}
		display.SuccessMsg("%s", msg)
		return nil
	},
}

func init() {
	undoCmd.Flags().BoolVarP(&undoYesFlag, "yes", "y", false, "Skip the confirmation prompt")
	rootCmd.AddCommand(undoCmd)
}
