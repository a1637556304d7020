package db

// Schema is the DDL for the fastmail2ynab database.
const Schema = `
CREATE TABLE IF NOT EXISTS processed_emails (
    email_id             TEXT PRIMARY KEY,
    processed_at         TEXT,
    is_receipt           INTEGER,
    ynab_transaction_id  TEXT,
    run_id               TEXT
);

CREATE TABLE IF NOT EXISTS classification_cache (
    email_id        TEXT PRIMARY KEY,
    classified_at   TEXT,
    score           INTEGER,
    is_inflow       INTEGER,
    merchant        TEXT,
    matched_payee   TEXT,
    amount          REAL,
    currency        TEXT,
    date            TEXT,
    date_confidence TEXT,
    description     TEXT,
    reasoning       TEXT,
    account_name    TEXT
);

CREATE TABLE IF NOT EXISTS ynab_payees (
    payee_id            TEXT PRIMARY KEY,
    name                TEXT NOT NULL,
    transfer_account_id TEXT,
    deleted             INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS ynab_sync_state (
    key   TEXT PRIMARY KEY,
    value TEXT
);

CREATE TABLE IF NOT EXISTS runs (
    run_id               TEXT PRIMARY KEY,
    started_at           TEXT,
    completed_at         TEXT,
    transactions_created INTEGER DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_processed_run ON processed_emails(run_id);
CREATE INDEX IF NOT EXISTS idx_payees_deleted ON ynab_payees(deleted);
`

// migrations lists columns added after the initial schema. Opening an
// older database adds them in place; existing rows default to NULL.
var migrations = []struct {
	table  string
	column string
}{
	{"processed_emails", "run_id"},
	{"classification_cache", "matched_payee"},
	{"classification_cache", "account_name"},
	{"classification_cache", "date_confidence"},
}
