package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sumCents(payouts []holderPayout) int64 {
	var sum int64
	for _, p := range payouts {
		sum += p.cents
	}
	return sum
}

func TestAllocateCentsConservesTotal(t *testing.T) {
	effective := map[uint64]uint64{1: 333, 2: 333, 3: 334}
	payouts := allocateCents(100001, 1000, effective)

	assert.Len(t, payouts, 3)
	assert.Equal(t, int64(100001), sumCents(payouts))

	// Floors are 33300 / 33300 / 33400; the leftover cent lands on the
	// largest holder.
	assert.Equal(t, uint64(1), payouts[0].holderID)
	assert.Equal(t, int64(33300), payouts[0].cents)
	assert.Equal(t, int64(33300), payouts[1].cents)
	assert.Equal(t, int64(33401), payouts[2].cents)
}

func TestAllocateCentsRemainderTieGoesToLowestID(t *testing.T) {
	effective := map[uint64]uint64{5: 500, 2: 500}
	payouts := allocateCents(101, 1000, effective)

	assert.Equal(t, int64(101), sumCents(payouts))
	assert.Equal(t, uint64(2), payouts[0].holderID)
	assert.Equal(t, int64(51), payouts[0].cents)
	assert.Equal(t, uint64(5), payouts[1].holderID)
	assert.Equal(t, int64(50), payouts[1].cents)
}

func TestAllocateCentsSkipsZeroHoldings(t *testing.T) {
	effective := map[uint64]uint64{1: 1000, 2: 0}
	payouts := allocateCents(500, 1000, effective)

	assert.Len(t, payouts, 1)
	assert.Equal(t, uint64(1), payouts[0].holderID)
	assert.Equal(t, int64(500), payouts[0].cents)
}

func TestAllocateCentsExactSplitHasNoRemainder(t *testing.T) {
	effective := map[uint64]uint64{1: 250, 2: 250, 3: 500}
	payouts := allocateCents(1000, 1000, effective)

	assert.Equal(t, int64(250), payouts[0].cents)
	assert.Equal(t, int64(250), payouts[1].cents)
	assert.Equal(t, int64(500), payouts[2].cents)
}
