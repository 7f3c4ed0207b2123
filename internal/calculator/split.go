package calculator

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidArgument is returned when a split is requested with an amount or
// participant list that cannot produce a valid split.
var ErrInvalidArgument = errors.New("invalid argument")

// centPlaces is the number of fractional digits every monetary value carries.
const centPlaces = 2

const (
	// maxIntegerDigits matches the NUMERIC(12, 2) money columns.
	maxIntegerDigits = 10
	// maxScale bounds how many fractional digits an input may spell out,
	// e.g. "10.000" is accepted as 10.00.
	maxScale = 18
)

// MaxAmount is the largest amount a single expense or settlement may carry.
var MaxAmount = decimal.New(999999999999, -centPlaces)

// WithinBounds reports whether |d| <= MaxAmount and d has at most maxScale
// fractional digits. It only inspects the exponent and compares, so it is
// safe to call on untrusted input like "1e10000000" before any rounding.
func WithinBounds(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp < -maxScale || exp > maxIntegerDigits {
		return false
	}
	return d.Abs().LessThanOrEqual(MaxAmount)
}

// IsCents reports whether d carries no more than two significant fractional
// digits. Callers must check WithinBounds first.
func IsCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(centPlaces))
}

// EqualSplit divides amount equally among participantIDs.
//
// Each share is amount / n rounded half-up to cents. The rounding remainder is
// not redistributed: 100.00 split three ways yields three shares of 33.33 and
// the shares sum to 99.99. Use SplitRemainder to observe the discrepancy.
func EqualSplit(amount decimal.Decimal, participantIDs []string) (map[string]decimal.Decimal, error) {
	if len(participantIDs) == 0 {
		return nil, fmt.Errorf("%w: must have at least one participant", ErrInvalidArgument)
	}
	if !WithinBounds(amount) {
		return nil, fmt.Errorf("%w: amount out of range, must be at most %s", ErrInvalidArgument, FormatCents(MaxAmount))
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidArgument, amount.String())
	}
	if !IsCents(amount) {
		return nil, fmt.Errorf("%w: amount %s has more than %d fractional digits", ErrInvalidArgument, amount.String(), centPlaces)
	}

	share := amount.DivRound(decimal.NewFromInt(int64(len(participantIDs))), centPlaces)

	splits := make(map[string]decimal.Decimal, len(participantIDs))
	for _, id := range participantIDs {
		if id == "" {
			return nil, fmt.Errorf("%w: empty participant id", ErrInvalidArgument)
		}
		if _, dup := splits[id]; dup {
			return nil, fmt.Errorf("%w: duplicate participant %q", ErrInvalidArgument, id)
		}
		splits[id] = share
	}

	return splits, nil
}

// SplitRemainder returns amount minus the sum of shares. A positive value is
// money that no participant was charged.
func SplitRemainder(amount decimal.Decimal, shares map[string]decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s)
	}
	return amount.Sub(sum)
}

// RoundCents rounds d half-up to two fractional digits.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(centPlaces)
}

// FormatCents renders d with exactly two fractional digits.
func FormatCents(d decimal.Decimal) string {
	return d.StringFixed(centPlaces)
}
