package ledger

import "sort"

// holderPayout is one holder's allocated slice of a distribution.
type holderPayout struct {
	holderID uint64
	cents    int64
}

// allocateCents splits totalCents across holders proportionally to
// their effective share counts.  Every holder receives the floor of
// their exact pro-rata amount and the leftover cents are assigned to
// the largest holder (ties broken by the lower user id), so the
// returned payouts always sum to exactly totalCents.  The result is
// ordered by holder id.
func allocateCents(totalCents int64, totalShares uint64, effective map[uint64]uint64) []holderPayout {
	payouts := make([]holderPayout, 0, len(effective))
	var allocated int64
	var largestID uint64
	var largestShares uint64
	for uid, shares := range effective {
		if shares == 0 {
			continue
		}
		cents := totalCents * int64(shares) / int64(totalShares)
		payouts = append(payouts, holderPayout{holderID: uid, cents: cents})
		allocated += cents
		if shares > largestShares || (shares == largestShares && uid < largestID) {
			largestShares = shares
			largestID = uid
		}
	}
	if remainder := totalCents - allocated; remainder > 0 {
		for i := range payouts {
			if payouts[i].holderID == largestID {
				payouts[i].cents += remainder
				break
			}
		}
	}
	sort.Slice(payouts, func(i, j int) bool { return payouts[i].holderID < payouts[j].holderID })
	return payouts
}
