package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

const (
	MicrosPerEuro = int64(1_000_000)

	ShareScale = int64(10_000) // 1 share = 10_000 units.

	StartingCash      = 250_000.0
	MaxCompanyNameLen = 48

	// A company is warned once its rating drops below this.
	LowCreditRating = 0.35

	DefaultLoanTermWeeks = 96
)

var (
	ErrCompanyNotFound   = errors.New("company not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrSharesNotIssued   = errors.New("company has not issued shares")
	ErrAlreadyIssued     = errors.New("shares already issued")
	ErrDecisionCompany   = errors.New("decision belongs to another company")
	ErrUnhandledDecision = errors.New("decision type not handled")
)

var blockedNameFragments = []string{
	"admin",
	"moderator",
	"support",
	"shit",
	"fuck",
	"nazi",
}

func EurosToMicros(v float64) int64 {
	return int64(math.Round(v * float64(MicrosPerEuro)))
}

func MicrosToEuros(v int64) float64 {
	return float64(v) / float64(MicrosPerEuro)
}

func SharesToUnits(v float64) int64 {
	return int64(math.Round(v * float64(ShareScale)))
}

func UnitsToShares(v int64) float64 {
	return float64(v) / float64(ShareScale)
}

func validateCompanyName(name string) error {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return fmt.Errorf("name is required: %w", ErrInvalidInput)
	}
	if len(clean) > MaxCompanyNameLen {
		return fmt.Errorf("name too long (max %d chars): %w", MaxCompanyNameLen, ErrInvalidInput)
	}
	lower := strings.ToLower(clean)
	for _, fragment := range blockedNameFragments {
		if strings.Contains(lower, fragment) {
			return fmt.Errorf("name contains blocked content: %w", ErrInvalidInput)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
