package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"winery/internal/economy"
)

func TestEffectiveRate(t *testing.T) {
	assert.InDelta(t, 0.05, EffectiveRate(0.10, economy.Recovery, 1), 1e-12)
	assert.InDelta(t, 0.15, EffectiveRate(0.10, economy.Recovery, 0), 1e-12)
	assert.InDelta(t, 0.15*1.5, EffectiveRate(0.10, economy.Crash, -3), 1e-12)
	assert.Less(t, EffectiveRate(0.10, economy.Boom, 0.5), EffectiveRate(0.10, economy.Recession, 0.5))
}

func TestWeeklyInstallment(t *testing.T) {
	assert.InDelta(t, 100, WeeklyInstallment(4800, 0, 48), 1e-9)
	withInterest := WeeklyInstallment(4800, 0.12, 48)
	assert.Greater(t, withInterest, 100.0)
	assert.Zero(t, WeeklyInstallment(0, 0.1, 10))
}

func TestPayOldestFirst(t *testing.T) {
	var b Book
	_, err := b.Take("first", 1000, 0, 10, 1)
	require.NoError(t, err)
	_, err = b.Take("second", 500, 0, 10, 2)
	require.NoError(t, err)

	repaid, err := b.Pay(1200)
	require.NoError(t, err)
	assert.Equal(t, 1200.0, repaid)
	assert.Equal(t, LoanRepaid, b.Loans[0].Status)
	assert.Equal(t, 300.0, b.Loans[1].Outstanding)
	assert.Equal(t, 1, b.PaymentHistory().PaidOff)
	assert.Equal(t, 1, b.PaymentHistory().Active)

	repaid, err = b.Pay(1000)
	require.NoError(t, err)
	assert.Equal(t, 300.0, repaid)

	_, err = b.Pay(10)
	assert.ErrorIs(t, err, ErrNoOpenLoans)
	_, err = b.Pay(-1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestWeeklyServiceTracksMisses(t *testing.T) {
	var b Book
	_, err := b.Take("vat-loan", 4800, 0, 48, 1)
	require.NoError(t, err)

	paid, distressed := b.WeeklyService(1000)
	assert.InDelta(t, 100, paid, 1e-9)
	assert.Empty(t, distressed)
	assert.Equal(t, 1, b.History.OnTime)

	for i := 0; i < RestructureAfterMisses-1; i++ {
		_, distressed = b.WeeklyService(0)
		assert.Empty(t, distressed)
	}
	_, distressed = b.WeeklyService(0)
	assert.Equal(t, []string{"vat-loan"}, distressed)
	assert.Equal(t, RestructureAfterMisses, b.History.Missed)

	l, err := b.Restructure("vat-loan", 96)
	require.NoError(t, err)
	assert.Zero(t, l.MissedInRow)
	assert.InDelta(t, 4700.0/96, l.Installment, 1e-9)

	_, err = b.Restructure("missing", 10)
	assert.ErrorIs(t, err, ErrLoanNotFound)
}

func TestTakeRejectsInvalid(t *testing.T) {
	var b Book
	_, err := b.Take("x", 0, 0.1, 10, 1)
	assert.ErrorIs(t, err, ErrInvalidLoan)
	_, err = b.Take("x", 100, 0.1, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidLoan)
}
