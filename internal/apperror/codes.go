package apperror

import "errors"

// CodeInternal is reported for failures outside the game rules (storage, ledger, clock).
const CodeInternal = 500

var codes = []struct {
	err  error
	code int
}{
	{ErrInvalidBet, 100},
	{ErrInvalidMove, 101},
	{ErrGameNotFound, 102},
	{ErrGameAlreadyJoined, 103},
	{ErrNotYourTurn, 104},
	{ErrGameNotTimedOut, 105},
	{ErrCantCancelOwnTurn, 106},
	{ErrGameFinished, 107},
	{ErrGameIsNotStarted, 108},
	{ErrNotAPlayer, 109},
	{ErrInsufficientFunds, 110},
}

// Code - returns the numeric code clients use to tell failures apart. Zero means no error.
func Code(err error) int {
	if err == nil {
		return 0
	}

	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}

	return CodeInternal
}

// IsRuleViolation - reports whether err is a rejected request rather than an infrastructure failure.
func IsRuleViolation(err error) bool {
	code := Code(err)
	return code != 0 && code != CodeInternal
}
