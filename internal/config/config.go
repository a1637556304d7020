// Package config loads fastmail2ynab settings from the environment and
// the accounts file.
//
// Credentials come from environment variables (typically via a .env
// sourced by the shell); the account list lives in accounts.yaml next
// to the database. Validation happens entirely at load time so that
// configuration errors surface before any network activity.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aheckler/fastmail2ynab/internal/types"
	yaml "gopkg.in/yaml.v2"
)

// DefaultMinScore is the classification threshold used when MIN_SCORE
// is unset.
const DefaultMinScore = 6

// Config holds all settings for one invocation. It is constructed once
// at startup and passed explicitly; nothing reads the environment after
// Load returns.
type Config struct {
	FastmailToken   string
	AnthropicAPIKey string
	YNABToken       string
	YNABBudgetID    string
	MinScore        int
	Accounts        []types.Account

	// DataDir holds the database and lock file.
	DataDir string
}

// Load reads configuration from the environment and the accounts file
// in dataDir.
func Load(dataDir string) (*Config, error) {
	cfg := &Config{
		FastmailToken:   os.Getenv("FASTMAIL_TOKEN"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		YNABToken:       os.Getenv("YNAB_TOKEN"),
		YNABBudgetID:    os.Getenv("YNAB_BUDGET_ID"),
		MinScore:        intEnv("MIN_SCORE", DefaultMinScore),
		DataDir:         dataDir,
	}

	accounts, err := LoadAccounts(filepath.Join(dataDir, "accounts.yaml"))
	if err != nil {
		return nil, err
	}
	notes, err := ParseNotesFile(filepath.Join(dataDir, ".env.notes"))
	if err != nil {
		return nil, err
	}
	for i := range accounts {
		if accounts[i].Notes == "" {
			accounts[i].Notes = notes[accounts[i].Name]
		}
	}
	cfg.Accounts = accounts
	return cfg, nil
}

// Validate checks that every credential needed for an import run is
// present and the account list is well-formed.
func (c *Config) Validate() error {
	missing := []string{}
	for _, v := range []struct{ name, val string }{
		{"FASTMAIL_TOKEN", c.FastmailToken},
		{"ANTHROPIC_API_KEY", c.AnthropicAPIKey},
		{"YNAB_TOKEN", c.YNABToken},
		{"YNAB_BUDGET_ID", c.YNABBudgetID},
	} {
		if v.val == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing configuration: %v", missing)
	}
	if len(c.Accounts) == 0 {
		return fmt.Errorf("no accounts configured — add accounts.yaml to %s", c.DataDir)
	}
	return ValidateAccounts(c.Accounts)
}

// ValidateUndo checks the subset of configuration that undo needs.
func (c *Config) ValidateUndo() error {
	if c.YNABToken == "" || c.YNABBudgetID == "" {
		return fmt.Errorf("missing YNAB configuration")
	}
	return nil
}

// DefaultAccount returns the account marked default. ValidateAccounts
// guarantees exactly one exists.
func (c *Config) DefaultAccount() types.Account {
	for _, a := range c.Accounts {
		if a.Default {
			return a
		}
	}
	// Unreachable after validation.
	return types.Account{}
}

// LoadAccounts reads the YAML account list. A missing file is not an
// error; Validate rejects the empty list later so that undo and
// cache-only invocations still work.
func LoadAccounts(path string) ([]types.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var accounts []types.Account
	if err := yaml.Unmarshal(data, &accounts); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return accounts, nil
}

// ParseNotesFile reads the .env.notes account-description file. The
// format: an account header is an unindented line ending with ":", and
// every line up to the next header is that account's notes. Notes from
// this file fill in accounts whose accounts.yaml entry has none; an
// inline notes: field wins. A missing file is not an error.
func ParseNotesFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	notes := map[string]string{}
	current := ""
	var body []string
	flush := func() {
		if current != "" {
			notes[current] = strings.TrimSpace(strings.Join(body, "\n"))
		}
	}
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimRight(line, " \t")
		indented := strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t")
		if strings.HasSuffix(trimmed, ":") && !indented {
			flush()
			current = strings.TrimSpace(strings.TrimSuffix(trimmed, ":"))
			body = body[:0]
			continue
		}
		if current != "" {
			body = append(body, line)
		}
	}
	flush()
	return notes, nil
}

// ValidateAccounts enforces the account invariants: non-empty names and
// IDs, unique names, exactly one default.
func ValidateAccounts(accounts []types.Account) error {
	seen := map[string]bool{}
	defaults := []string{}
	for i, a := range accounts {
		if a.Name == "" {
			return fmt.Errorf("accounts[%d] missing name", i)
		}
		if a.YNABID == "" {
			return fmt.Errorf("account %q missing ynab_id", a.Name)
		}
		if seen[a.Name] {
			return fmt.Errorf("duplicate account name %q", a.Name)
		}
		seen[a.Name] = true
		if a.Default {
			defaults = append(defaults, a.Name)
		}
	}
	switch len(defaults) {
	case 0:
		return fmt.Errorf("no account marked as default")
	case 1:
		return nil
	default:
		return fmt.Errorf("multiple default accounts: %v", defaults)
	}
}

// AccountsWithoutNotes returns names of accounts missing routing notes.
// Notes are only classifier context, so this is a warning, not an error.
func AccountsWithoutNotes(accounts []types.Account) []string {
	var names []string
	for _, a := range accounts {
		if a.Notes == "" {
			names = append(names, a.Name)
		}
	}
	return names
}

func intEnv(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
