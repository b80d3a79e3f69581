package form4

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/seenimoa/insiderwatch/pkg/models"
)

// ParseTransactionCodes maps every character of s to a transaction code.
// One unrecognised character discards the whole string and nil is
// returned, the same as for empty input. Repeated codes are kept once.
func ParseTransactionCodes(s string) []models.TransactionCode {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	codes := make([]models.TransactionCode, 0, len(s))
	for _, r := range s {
		code := models.TransactionCode(string(r))
		if !code.Valid() {
			return nil
		}
		if !containsCode(codes, code) {
			codes = append(codes, code)
		}
	}
	return codes
}

func containsCode(codes []models.TransactionCode, c models.TransactionCode) bool {
	for _, have := range codes {
		if have == c {
			return true
		}
	}
	return false
}

// ParseOwnershipKind decodes the direct/indirect token. "D" is direct and
// nature is never consulted. Any other token is indirect and needs a
// non-empty nature, otherwise ErrMissingField for natureOfOwnership.
func ParseOwnershipKind(token string, nature func() (string, bool)) (models.Ownership, error) {
	if strings.TrimSpace(token) == string(models.OwnershipDirect) {
		return models.Direct(), nil
	}
	if nature == nil {
		return models.Ownership{}, missing("natureOfOwnership")
	}
	n, ok := nature()
	n = strings.TrimSpace(n)
	if !ok || n == "" {
		return models.Ownership{}, missing("natureOfOwnership")
	}
	return models.Indirect(n), nil
}

// ParseDerivativeCount builds a signed derivative count. Code "A" is an
// acquisition, anything else a disposition. Returns nil when shares is
// not an integer.
func ParseDerivativeCount(shares, code string) *models.DerivativeCount {
	n, err := parseInt(shares)
	if err != nil {
		return nil
	}
	dir := models.Disposed
	if strings.TrimSpace(code) == string(models.Acquired) {
		dir = models.Acquired
	}
	return &models.DerivativeCount{Direction: dir, Shares: n}
}

// ParseAcquiredDisposed decodes the A/D flag.
func ParseAcquiredDisposed(s string) (models.AcquiredDisposed, bool) {
	switch strings.TrimSpace(s) {
	case string(models.Acquired):
		return models.Acquired, true
	case string(models.Disposed):
		return models.Disposed, true
	}
	return "", false
}

func parseInt(s string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
}

var errNotFinite = errors.New("not a finite decimal number")

// parseFloat accepts plain decimal numbers only. NaN, infinities and hex
// floats are rejected so a decoded filing always encodes as JSON.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, "xX") {
		return 0, errNotFinite
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotFinite
	}
	return f, nil
}
