package ledger_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
)

func TestNewOwnershipPercentageBounds(t *testing.T) {
	for _, bad := range []float64{0, -1, 100.01, 250, math.NaN()} {
		_, err := ledger.NewOwnershipPercentage(bad)
		assert.ErrorIs(t, err, ledger.ErrInvalidOwnershipPercentage, "value %v must be rejected", bad)
	}

	p, err := ledger.NewOwnershipPercentage(0.01)
	assert.NoError(t, err)
	assert.Equal(t, 0.01, p.Value())

	p, err = ledger.NewOwnershipPercentage(100)
	assert.NoError(t, err)
	assert.Equal(t, 100.0, p.Value())
}

func TestSharesOfRoundsToNearestShare(t *testing.T) {
	p, err := ledger.NewOwnershipPercentage(12.5)
	assert.NoError(t, err)
	assert.Equal(t, uint64(125), p.SharesOf(1000))

	p, _ = ledger.NewOwnershipPercentage(20)
	assert.Equal(t, uint64(200), p.SharesOf(1000))

	// 33.333% of 3 shares is 0.99999, which rounds to one whole share.
	p, _ = ledger.NewOwnershipPercentage(33.333)
	assert.Equal(t, uint64(1), p.SharesOf(3))
}

func TestPercentageOfShares(t *testing.T) {
	assert.Equal(t, 10.0, ledger.PercentageOfShares(100, 1000))
	assert.Equal(t, 100.0, ledger.PercentageOfShares(1000, 1000))
	assert.Equal(t, 0.0, ledger.PercentageOfShares(0, 1000))
	// A zero total never divides by zero.
	assert.Equal(t, 0.0, ledger.PercentageOfShares(5, 0))
}

func TestNewSharePriceRejectsNonPositive(t *testing.T) {
	for _, bad := range []float64{0, -0.01, math.NaN(), math.Inf(1)} {
		_, err := ledger.NewSharePrice(bad)
		assert.ErrorIs(t, err, ledger.ErrInvalidSharePrice, "price %v must be rejected", bad)
	}

	p, err := ledger.NewSharePrice(10.50)
	assert.NoError(t, err)
	assert.Equal(t, 10.50, p.Value())
}

func TestSharePriceTimes(t *testing.T) {
	p, _ := ledger.NewSharePrice(10.00)
	total := p.Times(100)
	assert.Equal(t, 1000.0, total.Value())
	assert.Equal(t, int64(100000), total.Cents())
}

func TestRevenueAmount(t *testing.T) {
	_, err := ledger.NewRevenueAmount(-1)
	assert.ErrorIs(t, err, ledger.ErrInvalidRevenueAmount)

	zero, err := ledger.NewRevenueAmount(0)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), zero.Cents())

	a, _ := ledger.NewRevenueAmount(10.25)
	b, _ := ledger.NewRevenueAmount(0.75)
	assert.Equal(t, 11.0, a.Add(b).Value())
	assert.Equal(t, int64(1025), a.Cents())
}

func TestCentsToAmount(t *testing.T) {
	assert.Equal(t, 100.0, ledger.CentsToAmount(10000).Value())
	assert.Equal(t, 0.01, ledger.CentsToAmount(1).Value())
	// Negative cents clamp to zero instead of producing an invalid amount.
	assert.Equal(t, 0.0, ledger.CentsToAmount(-5).Value())
}
