package ident

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Errors returned by range expansion.
var (
	ErrInvalidMonth = errors.New("invalid month format (expected YYYY-MM)")
	ErrInvalidRange = errors.New("invalid sequence range (need 1 <= start <= end <= 99999)")
)

// MonthRange describes a block of sequence numbers within one month.
type MonthRange struct {
	Month string // "2024-04"
	Start int
	End   int
}

// MonthPrefix converts "2024-04" to the identifier prefix "2404".
func MonthPrefix(month string) (string, error) {
	parts := strings.Split(month, "-")
	if len(parts) != 2 {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	mon, err := strconv.Atoi(parts[1])
	if err != nil || mon < 1 || mon > 12 {
		return "", fmt.Errorf("%w: %q", ErrInvalidMonth, month)
	}
	return fmt.Sprintf("%02d%02d", year%100, mon), nil
}

// Expand generates the identifiers for one month range, inclusive on both
// ends, with sequence numbers zero-padded to five digits:
// {2404, 198, 201} -> 2404.00198 .. 2404.00201.
func (r MonthRange) Expand() ([]string, error) {
	if r.Start < 1 || r.End < r.Start || r.End > 99999 {
		return nil, fmt.Errorf("%w: %d..%d", ErrInvalidRange, r.Start, r.End)
	}
	prefix, err := MonthPrefix(r.Month)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, r.End-r.Start+1)
	for i := r.Start; i <= r.End; i++ {
		ids = append(ids, fmt.Sprintf("%s.%05d", prefix, i))
	}
	return ids, nil
}

// ExpandAll expands several month ranges into one identifier list.
func ExpandAll(ranges []MonthRange) ([]string, error) {
	var ids []string
	for _, r := range ranges {
		expanded, err := r.Expand()
		if err != nil {
			return nil, err
		}
		ids = append(ids, expanded...)
	}
	return ids, nil
}
