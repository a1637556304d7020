// Package dates normalizes and bounds transaction dates.
//
// YNAB's regular transactions API rejects dates far in the past or in
// the future. Extracted dates are accepted within [today-5y, today+90d];
// otherwise the email's received-at date is used as a fallback, which is
// never treated as future. Anything else is unrecoverable and the
// caller must skip the item.
package dates

import (
	"errors"
	"time"
)

const (
	pastWindow   = 5 * 365 * 24 * time.Hour
	futureWindow = 90 * 24 * time.Hour
)

// ErrUnrecoverable means neither the candidate date nor the fallback
// timestamp yields a usable transaction date.
var ErrUnrecoverable = errors.New("no usable transaction date")

// Validate resolves a transaction date from the classifier's candidate
// (YYYY-MM-DD, may be empty) and the email's received-at timestamp.
// isFuture is true only when the accepted date is strictly after today.
func Validate(candidate, receivedAt string) (date string, isFuture bool, err error) {
	return validateAt(candidate, receivedAt, time.Now().UTC())
}

func validateAt(candidate, receivedAt string, now time.Time) (string, bool, error) {
	today := now.Truncate(24 * time.Hour)
	earliest := today.Add(-pastWindow)
	latest := today.Add(futureWindow)

	if candidate != "" {
		if parsed, err := time.ParseInLocation("2006-01-02", candidate, time.UTC); err == nil {
			if !parsed.Before(earliest) && !parsed.After(latest) {
				return candidate, parsed.After(today), nil
			}
		}
	}

	// Fall back to the date the email arrived. Received-at can never be
	// in the future window; a future-stamped email is unrecoverable.
	if received, err := parseTimestamp(receivedAt); err == nil {
		fallback := received.UTC().Truncate(24 * time.Hour)
		if !fallback.Before(earliest) && !fallback.After(today) {
			return fallback.Format("2006-01-02"), false, nil
		}
	}

	return "", false, ErrUnrecoverable
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano, "2006-01-02T15:04:05Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("unparseable timestamp")
}

// Today returns the current UTC date in YYYY-MM-DD form.
func Today() string {
	return time.Now().UTC().Format("2006-01-02")
}
