// Package router maps classifier output onto configured accounts and
// known payees.
package router

import (
	"github.com/aheckler/fastmail2ynab/internal/types"
)

// UnknownPayee is the sentinel payee name used when the classifier
// found neither a payee match nor a merchant name.
const UnknownPayee = "Unknown"

// RouteAccount returns the account whose name exactly matches
// suggested, or the default account. It never fails: configuration
// validation guarantees exactly one default exists.
func RouteAccount(suggested string, accounts []types.Account) types.Account {
	if suggested != "" {
		for _, a := range accounts {
			if a.Name == suggested {
				return a
			}
		}
	}
	for _, a := range accounts {
		if a.Default {
			return a
		}
	}
	// Unreachable with validated configuration.
	return types.Account{}
}

// ResolvePayee picks the payee name for a transaction. The classifier's
// matched payee is already validated against the known set, so it wins
// over the raw merchant name; an unknown matched payee falls back
// silently rather than fabricating an entry.
func ResolvePayee(c *types.Classification, knownPayees []string) string {
	if c.MatchedPayee != "" && contains(knownPayees, c.MatchedPayee) {
		return c.MatchedPayee
	}
	if c.Merchant != "" {
		return c.Merchant
	}
	return UnknownPayee
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
