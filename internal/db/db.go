// Package db provides SQLite storage for fastmail2ynab.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aheckler/fastmail2ynab/internal/types"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for fastmail2ynab operations.
type DB struct {
	conn *sql.DB
	path string
}

// Open opens (or creates) a fastmail2ynab database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := conn.Exec(Schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	d := &DB{conn: conn, path: dbPath}
	if err := d.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.conn != nil {
		return d.conn.Close()
	}
	return nil
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.path
}

// Now returns the current time as an ISO 8601 string.
func Now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// migrate adds columns introduced after the initial schema. Additive
// only; never drops or rewrites existing data.
func (d *DB) migrate() error {
	for _, m := range migrations {
		has, err := d.hasColumn(m.table, m.column)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s TEXT", m.table, m.column)
		if _, err := d.conn.Exec(stmt); err != nil {
			return fmt.Errorf("add column %s.%s: %w", m.table, m.column, err)
		}
	}
	return nil
}

func (d *DB) hasColumn(table, column string) (bool, error) {
	rows, err := d.conn.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false, err
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dflt sql.NullString
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// --- Processed email ledger ---

// IsProcessed checks if an email has already been handled.
func (d *DB) IsProcessed(emailID string) bool {
	var n int
	d.conn.QueryRow("SELECT 1 FROM processed_emails WHERE email_id = ?", emailID).Scan(&n)
	return n == 1
}

// MarkProcessed records an email as handled. Upsert, last write wins.
// transactionID is empty when no YNAB transaction was created.
func (d *DB) MarkProcessed(emailID string, isReceipt bool, transactionID, runID string) error {
	_, err := d.conn.Exec(`
		INSERT OR REPLACE INTO processed_emails
			(email_id, processed_at, is_receipt, ynab_transaction_id, run_id)
		VALUES (?, ?, ?, ?, ?)`,
		emailID, Now(), boolInt(isReceipt), nullStr(transactionID), nullStr(runID),
	)
	return err
}

// ProcessedCount returns the total number of processed emails.
func (d *DB) ProcessedCount() int {
	var n int
	d.conn.QueryRow("SELECT COUNT(*) FROM processed_emails").Scan(&n)
	return n
}

// --- Classification cache ---

// CachedClassification returns the cached classifier result for an
// email, or nil if the email has never been classified.
func (d *DB) CachedClassification(emailID string) (*types.Classification, error) {
	var c types.Classification
	var inflow int
	var merchant, matchedPayee, currency, date, dateConf, desc, reasoning, account sql.NullString
	var amount sql.NullFloat64
	err := d.conn.QueryRow(`
		SELECT score, is_inflow, merchant, matched_payee, amount, currency,
		       date, date_confidence, description, reasoning, account_name
		FROM classification_cache
		WHERE email_id = ?`, emailID).Scan(
		&c.Score, &inflow, &merchant, &matchedPayee, &amount, &currency,
		&date, &dateConf, &desc, &reasoning, &account,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.IsInflow = inflow == 1
	c.Merchant = merchant.String
	c.MatchedPayee = matchedPayee.String
	c.Amount = amount.Float64
	c.HasAmount = amount.Valid
	c.Currency = currency.String
	c.Date = date.String
	c.DateConfidence = dateConf.String
	c.Description = desc.String
	c.Reasoning = reasoning.String
	c.AccountName = account.String
	return &c, nil
}

// CacheClassification stores a classifier result. Upsert.
func (d *DB) CacheClassification(emailID string, c *types.Classification) error {
	var amount any
	if c.HasAmount {
		amount = c.Amount
	}
	_, err := d.conn.Exec(`
		INSERT OR REPLACE INTO classification_cache
			(email_id, classified_at, score, is_inflow, merchant, matched_payee,
			 amount, currency, date, date_confidence, description, reasoning, account_name)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		emailID, Now(), c.Score, boolInt(c.IsInflow), nullStr(c.Merchant),
		nullStr(c.MatchedPayee), amount, nullStr(c.Currency), nullStr(c.Date),
		nullStr(c.DateConfidence), nullStr(c.Description), nullStr(c.Reasoning),
		nullStr(c.AccountName),
	)
	return err
}

// ClearClassificationCache drops all cached classifier results.
func (d *DB) ClearClassificationCache() error {
	_, err := d.conn.Exec("DELETE FROM classification_cache")
	return err
}

// --- Run ledger ---

// StartRun creates a new run record and returns its ID.
func (d *DB) StartRun() (string, error) {
	runID := uuid.NewString()
	_, err := d.conn.Exec(
		"INSERT INTO runs (run_id, started_at) VALUES (?, ?)",
		runID, Now(),
	)
	if err != nil {
		return "", err
	}
	return runID, nil
}

// CompleteRun marks a run as complete with its created-transaction
// count. Runs that never complete stay dangling and are invisible to
// undo.
func (d *DB) CompleteRun(runID string, created int) error {
	_, err := d.conn.Exec(
		"UPDATE runs SET completed_at = ?, transactions_created = ? WHERE run_id = ?",
		Now(), created, runID,
	)
	return err
}

// LastCompletedRun returns the most recent completed run and its
// transaction count, or ("", 0) if no completed run exists.
func (d *DB) LastCompletedRun() (string, int, error) {
	var runID string
	var count int
	err := d.conn.QueryRow(`
		SELECT run_id, transactions_created FROM runs
		WHERE completed_at IS NOT NULL
		ORDER BY completed_at DESC LIMIT 1`).Scan(&runID, &count)
	if err == sql.ErrNoRows {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, err
	}
	return runID, count, nil
}

// RunTransaction pairs a processed email with its YNAB transaction.
type RunTransaction struct {
	EmailID       string
	TransactionID string
}

// TransactionsForRun returns the (email, transaction) pairs created in
// a run. Rows without a transaction ID are excluded.
func (d *DB) TransactionsForRun(runID string) ([]RunTransaction, error) {
	rows, err := d.conn.Query(`
		SELECT email_id, ynab_transaction_id FROM processed_emails
		WHERE run_id = ? AND ynab_transaction_id IS NOT NULL`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var result []RunTransaction
	for rows.Next() {
		var rt RunTransaction
		if err := rows.Scan(&rt.EmailID, &rt.TransactionID); err != nil {
			return nil, err
		}
		result = append(result, rt)
	}
	return result, rows.Err()
}

// DeleteRun removes a run and its processed-email records so the
// affected emails become eligible for reprocessing.
func (d *DB) DeleteRun(runID string) error {
	if _, err := d.conn.Exec("DELETE FROM processed_emails WHERE run_id = ?", runID); err != nil {
		return err
	}
	_, err := d.conn.Exec("DELETE FROM runs WHERE run_id = ?", runID)
	return err
}

// --- Payee cache ---

// UpsertPayees stores payees from a YNAB sync. Deleted payees keep
// their row with the deleted flag set.
func (d *DB) UpsertPayees(payees []types.Payee) error {
	for _, p := range payees {
		_, err := d.conn.Exec(`
			INSERT OR REPLACE INTO ynab_payees
				(payee_id, name, transfer_account_id, deleted)
			VALUES (?, ?, ?, ?)`,
			p.ID, p.Name, nullStr(p.TransferAccountID), boolInt(p.Deleted),
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// PayeeNames returns the names of all non-deleted cached payees.
func (d *DB) PayeeNames() ([]string, error) {
	rows, err := d.conn.Query("SELECT name FROM ynab_payees WHERE deleted = 0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// --- Sync state ---

const (
	syncKeyServerKnowledge = "payees_server_knowledge"
	syncKeyLastSync        = "payees_last_sync"
)

// SyncState returns the stored value for a sync-state key, or "".
func (d *DB) syncState(key string) string {
	var v sql.NullString
	d.conn.QueryRow("SELECT value FROM ynab_sync_state WHERE key = ?", key).Scan(&v)
	return v.String
}

func (d *DB) setSyncState(key, value string) error {
	_, err := d.conn.Exec(
		"INSERT OR REPLACE INTO ynab_sync_state (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// ServerKnowledge returns the YNAB delta-sync cursor, or 0 if the
// payee cache has never been synced.
func (d *DB) ServerKnowledge() int64 {
	var n int64
	fmt.Sscanf(d.syncState(syncKeyServerKnowledge), "%d", &n)
	return n
}

// SetServerKnowledge stores the delta-sync cursor and stamps the sync
// time.
func (d *DB) SetServerKnowledge(knowledge int64) error {
	if err := d.setSyncState(syncKeyServerKnowledge, fmt.Sprintf("%d", knowledge)); err != nil {
		return err
	}
	return d.setSyncState(syncKeyLastSync, Now())
}

// PayeeCacheStale reports whether the payee cache is missing or older
// than maxAge.
func (d *DB) PayeeCacheStale(maxAge time.Duration) bool {
	last := d.syncState(syncKeyLastSync)
	if last == "" {
		return true
	}
	t, err := time.Parse(time.RFC3339, last)
	if err != nil {
		return true
	}
	return time.Since(t) > maxAge
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}
