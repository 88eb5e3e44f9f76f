package ledger

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/song-share-ledger/internal/model"
)

// Policy carries the tunable business parameters the aggregate applies.
// Neither value changes an invariant; they shape how far a single fan
// may accumulate shares and how aggressively the price reacts to
// demand.
type Policy struct {
	// MaxUserOwnershipPct caps a single fan's ownership of one song,
	// expressed in (0, 100].  100 disables the cap.
	MaxUserOwnershipPct float64
	// PriceSlope scales the demand adjustment applied after each
	// confirmed purchase.  0 freezes the price.
	PriceSlope float64
}

// DefaultPolicy returns the parameters used when no configuration
// overrides them: a 25% per-fan cap and a mild price response.
func DefaultPolicy() Policy {
	return Policy{MaxUserOwnershipPct: 25, PriceSlope: 0.05}
}

// Aggregate is the consistency boundary for a single song's ownership
// table.  It holds the song row, every ShareOwnership for the song and
// the in-flight purchase transactions, and it is the only place where
// any of them change.  Every public method either fully applies one
// state transition – recording the resulting ledger entries and domain
// events – or fails without touching state.
//
// The central invariant protected here is
//
//	ArtistReservedShares + AvailableShares + Σ SharesOwned + Σ open-reservation shares == TotalShares
//
// which must hold after every mutation.  Callers obtain an Aggregate
// from a Repository, invoke exactly one method and hand it back to
// SaveAggregate; two mutations of the same song never interleave
// because the repository serializes access per song.
type Aggregate struct {
	Song *model.FractionalSong

	holdings map[uint64]*model.ShareOwnership
	open     map[string]*model.ShareTransaction // in-flight purchase sagas by txn id
	periods  map[string]struct{}                // settled revenue periods
	policy   Policy

	dirtyTxns   []*model.ShareTransaction
	newDists    []*model.RevenueDistribution
	deletedHold []uint64 // user ids whose holding dropped to zero
	events      []Event
}

// NewAggregate tokenizes a song: it fixes the total share count, carves
// out the artist's reserved block and opens the remainder for sale at
// the initial price.  The artist reservation is recorded as a CONFIRMED
// SALE ledger entry.  reserved may be the zero value, meaning the
// artist keeps nothing back; a reservation of 100% is rejected because
// it would leave nothing to sell.
func NewAggregate(songID, artistID uint64, title string, totalShares uint64, initialPrice SharePrice, reserved OwnershipPercentage, policy Policy, now time.Time) (*Aggregate, error) {
	if totalShares == 0 {
		return nil, ErrInvalidTotalShares
	}
	reservedShares := uint64(0)
	if reserved.Value() > 0 {
		reservedShares = reserved.SharesOf(totalShares)
	}
	if reservedShares >= totalShares {
		return nil, ErrInvalidOwnershipPercentage
	}
	now = now.UTC()
	agg := &Aggregate{
		Song: &model.FractionalSong{
			ID:                   songID,
			ArtistID:             artistID,
			Title:                title,
			TotalShares:          totalShares,
			ArtistReservedShares: reservedShares,
			AvailableShares:      totalShares - reservedShares,
			CurrentPricePerShare: initialPrice.Value(),
			Status:               model.SongStatusDraft,
			Version:              0,
			CreatedAt:            now,
			UpdatedAt:            now,
		},
		holdings: make(map[uint64]*model.ShareOwnership),
		open:     make(map[string]*model.ShareTransaction),
		periods:  make(map[string]struct{}),
		policy:   policy,
	}
	if reservedShares > 0 {
		artist := artistID
		agg.appendTxn(&model.ShareTransaction{
			ID:             uuid.New().String(),
			SongID:         songID,
			SellerID:       &artist,
			SharesQuantity: reservedShares,
			PricePerShare:  initialPrice.Value(),
			Type:           model.TransactionTypeSale,
			Status:         model.TransactionStatusConfirmed,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	}
	agg.raise(SongTokenized{
		SongID:       songID,
		ArtistID:     artistID,
		Title:        title,
		TotalShares:  totalShares,
		InitialPrice: initialPrice.Value(),
		OccurredAt:   now,
	})
	return agg, nil
}

// Rehydrate rebuilds an aggregate from persisted state.  openTxns must
// contain every transaction still in RESERVED or CHARGED state; periods
// lists the revenue periods already settled for the song.
func Rehydrate(song *model.FractionalSong, holdings []model.ShareOwnership, openTxns []model.ShareTransaction, periods []string, policy Policy) *Aggregate {
	agg := &Aggregate{
		Song:     song,
		holdings: make(map[uint64]*model.ShareOwnership, len(holdings)),
		open:     make(map[string]*model.ShareTransaction, len(openTxns)),
		periods:  make(map[string]struct{}, len(periods)),
		policy:   policy,
	}
	for i := range holdings {
		h := holdings[i]
		agg.holdings[h.UserID] = &h
	}
	for i := range openTxns {
		t := openTxns[i]
		agg.open[t.ID] = &t
	}
	for _, p := range periods {
		agg.periods[p] = struct{}{}
	}
	return agg
}

// Activate opens the song for trading.  Only a DRAFT song can be
// activated.
func (a *Aggregate) Activate(now time.Time) error {
	if a.Song.Status != model.SongStatusDraft {
		return ErrSongNotAvailable
	}
	a.Song.Status = model.SongStatusActive
	a.Song.UpdatedAt = now.UTC()
	return nil
}

// Terminate winds the offering down.  Purchases and transfers stop;
// revenue can still be distributed to existing holders.
func (a *Aggregate) Terminate(now time.Time) error {
	if a.Song.Status != model.SongStatusActive {
		return ErrSongNotAvailable
	}
	a.Song.Status = model.SongStatusTerminated
	a.Song.UpdatedAt = now.UTC()
	return nil
}

// DisableTrading suspends purchases and transfers without changing the
// song's lifecycle state.
func (a *Aggregate) DisableTrading(now time.Time) {
	a.Song.TradingDisabled = true
	a.Song.UpdatedAt = now.UTC()
}

// EnableTrading lifts a trading suspension.
func (a *Aggregate) EnableTrading(now time.Time) {
	a.Song.TradingDisabled = false
	a.Song.UpdatedAt = now.UTC()
}

// ReserveShares is the first step of the purchase saga.  It takes qty
// shares out of the available pool and records a RESERVED PURCHASE
// transaction at the current price.  Nothing is owned yet – ownership
// is credited by ConfirmPurchase once the buyer has been charged, and
// CancelReservation returns the shares if the charge fails.
func (a *Aggregate) ReserveShares(buyerID uint64, qty uint64, now time.Time) (*model.ShareTransaction, error) {
	if err := a.tradingGuard(); err != nil {
		return nil, err
	}
	if buyerID == a.Song.ArtistID {
		return nil, ErrCannotPurchaseOwnSong
	}
	if qty == 0 {
		return nil, ErrInvalidShareQuantity
	}
	if qty > a.Song.AvailableShares {
		return nil, &InsufficientSharesError{Requested: qty, Available: a.Song.AvailableShares}
	}
	if err := a.capGuard(buyerID, qty); err != nil {
		return nil, err
	}
	now = now.UTC()
	buyer := buyerID
	txn := &model.ShareTransaction{
		ID:             uuid.New().String(),
		SongID:         a.Song.ID,
		BuyerID:        &buyer,
		SharesQuantity: qty,
		PricePerShare:  a.Song.CurrentPricePerShare,
		Type:           model.TransactionTypePurchase,
		Status:         model.TransactionStatusReserved,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	a.Song.AvailableShares -= qty
	a.Song.UpdatedAt = now
	a.open[txn.ID] = txn
	a.appendTxn(txn)
	return txn, nil
}

// CancelReservation compensates a failed purchase saga: the reserved
// shares return to the available pool and the transaction becomes
// CANCELLED.  It accepts transactions in RESERVED or CHARGED state so
// that a charge which cannot be confirmed can still be reversed.
func (a *Aggregate) CancelReservation(txnID string, now time.Time) (*model.ShareTransaction, error) {
	txn, ok := a.open[txnID]
	if !ok {
		return nil, ErrUnknownTransaction
	}
	now = now.UTC()
	txn.Status = model.TransactionStatusCancelled
	txn.UpdatedAt = now
	delete(a.open, txnID)
	a.Song.AvailableShares += txn.SharesQuantity
	a.Song.UpdatedAt = now
	a.markDirty(txn)
	return txn, nil
}

// MarkCharged records that the payment service has taken the buyer's
// money for a reserved transaction.
func (a *Aggregate) MarkCharged(txnID, paymentRef string, now time.Time) (*model.ShareTransaction, error) {
	txn, ok := a.open[txnID]
	if !ok || txn.Status != model.TransactionStatusReserved {
		return nil, ErrUnknownTransaction
	}
	txn.Status = model.TransactionStatusCharged
	txn.PaymentRef = &paymentRef
	txn.UpdatedAt = now.UTC()
	a.markDirty(txn)
	return txn, nil
}

// ConfirmPurchase completes the saga: the buyer's ownership is credited
// with the reserved shares at the reservation price, the transaction
// becomes CONFIRMED and the share price moves with demand.  The demand
// adjustment is monotonic: price grows by PriceSlope times the fraction
// of the remaining supply this purchase consumed.
func (a *Aggregate) ConfirmPurchase(txnID string, now time.Time) (*model.ShareTransaction, error) {
	txn, ok := a.open[txnID]
	if !ok {
		return nil, ErrUnknownTransaction
	}
	now = now.UTC()
	buyerID := *txn.BuyerID
	qty := txn.SharesQuantity
	cost := txn.PricePerShare * float64(qty)

	a.credit(buyerID, qty, cost, now)
	txn.Status = model.TransactionStatusConfirmed
	txn.UpdatedAt = now
	delete(a.open, txnID)
	a.markDirty(txn)

	// Demand pricing: the pool before this sale completed is the
	// current pool plus the shares just confirmed.
	poolBefore := a.Song.AvailableShares + qty
	if a.policy.PriceSlope > 0 && poolBefore > 0 {
		a.Song.CurrentPricePerShare *= 1 + a.policy.PriceSlope*float64(qty)/float64(poolBefore)
	}
	a.Song.UpdatedAt = now

	a.raise(SharePurchased{
		SongID:        a.Song.ID,
		BuyerID:       buyerID,
		TransactionID: txn.ID,
		Shares:        qty,
		PricePerShare: txn.PricePerShare,
		TotalCost:     cost,
		OccurredAt:    now,
	})
	return txn, nil
}

// TransferShares moves a percentage of the song from one fan to
// another in a single atomic step.  The share count across all holders
// is identical before and after; only its split changes.  The transfer
// is priced at the agreed per-share price, which becomes part of the
// recipient's cost basis and proportionally leaves the sender's.
func (a *Aggregate) TransferShares(fromUserID, toUserID uint64, pct OwnershipPercentage, price SharePrice, now time.Time) (*model.ShareTransaction, error) {
	if err := a.tradingGuard(); err != nil {
		return nil, err
	}
	if fromUserID == toUserID {
		return nil, ErrSelfTransfer
	}
	shares := pct.SharesOf(a.Song.TotalShares)
	if shares == 0 {
		return nil, ErrInvalidShareQuantity
	}
	sender, ok := a.holdings[fromUserID]
	if !ok || sender.SharesOwned < shares {
		return nil, ErrOwnershipExceedsLimit
	}
	if toUserID != a.Song.ArtistID {
		if err := a.capGuard(toUserID, shares); err != nil {
			return nil, err
		}
	}
	now = now.UTC()

	// Sender gives up a proportional slice of their cost basis along
	// with the shares.
	basisOut := sender.PurchasePrice * float64(shares) / float64(sender.SharesOwned)
	sender.SharesOwned -= shares
	sender.PurchasePrice -= basisOut
	sender.Percentage = PercentageOfShares(sender.SharesOwned, a.Song.TotalShares)
	sender.UpdatedAt = now
	if sender.SharesOwned == 0 {
		delete(a.holdings, fromUserID)
		a.deletedHold = append(a.deletedHold, fromUserID)
	}

	a.credit(toUserID, shares, price.Value()*float64(shares), now)

	from, to := fromUserID, toUserID
	txn := &model.ShareTransaction{
		ID:             uuid.New().String(),
		SongID:         a.Song.ID,
		BuyerID:        &to,
		SellerID:       &from,
		SharesQuantity: shares,
		PricePerShare:  price.Value(),
		Type:           model.TransactionTypeTransfer,
		Status:         model.TransactionStatusConfirmed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	a.appendTxn(txn)
	a.Song.UpdatedAt = now

	a.raise(ShareTransferred{
		SongID:        a.Song.ID,
		FromUserID:    fromUserID,
		ToUserID:      toUserID,
		TransactionID: txn.ID,
		Shares:        shares,
		Percentage:    PercentageOfShares(shares, a.Song.TotalShares),
		OccurredAt:    now,
	})
	return txn, nil
}

// DistributeRevenue allocates one settlement period's revenue across
// all current holders pro-rata.  The artist participates through the
// reserved block, and revenue attributable to unsold (or still
// reserved-in-flight) shares accrues to the artist as well, so the
// payout rows always sum to exactly the total.  Allocation is computed
// in integer cents: every holder gets the floor of their exact share
// and the remaining cents go to the largest holder, so no float drift
// is ever lost or duplicated.  A period can be distributed once;
// repeating it fails the idempotence guard.
func (a *Aggregate) DistributeRevenue(total RevenueAmount, period string, now time.Time) (*model.RevenueDistribution, error) {
	if a.Song.Status == model.SongStatusDraft {
		return nil, ErrSongNotAvailable
	}
	if period == "" {
		return nil, &RevenueDistributionError{SongID: a.Song.ID, Period: period, Reason: "empty period"}
	}
	if _, done := a.periods[period]; done {
		return nil, &RevenueDistributionError{SongID: a.Song.ID, Period: period, Reason: "period already distributed"}
	}
	totalCents := total.Cents()
	if totalCents <= 0 {
		return nil, &RevenueDistributionError{SongID: a.Song.ID, Period: period, Reason: "total revenue must be positive"}
	}
	now = now.UTC()

	// Effective share table: each holding counts as-is, and the artist
	// absorbs everything not held by a fan (reserved block, unsold
	// pool, in-flight reservations).
	fanShares := uint64(0)
	effective := make(map[uint64]uint64, len(a.holdings)+1)
	for uid, h := range a.holdings {
		if h.SharesOwned == 0 {
			continue
		}
		effective[uid] += h.SharesOwned
		fanShares += h.SharesOwned
	}
	effective[a.Song.ArtistID] += a.Song.TotalShares - fanShares

	payouts := allocateCents(totalCents, a.Song.TotalShares, effective)

	dist := &model.RevenueDistribution{
		ID:                uuid.New().String(),
		SongID:            a.Song.ID,
		Period:            period,
		TotalRevenueCents: totalCents,
		CreatedAt:         now,
	}
	for _, p := range payouts {
		dist.Payouts = append(dist.Payouts, model.DistributionPayout{
			DistributionID: dist.ID,
			HolderID:       p.holderID,
			AmountCents:    p.cents,
			Status:         model.PayoutStatusPending,
			UpdatedAt:      now,
		})
	}
	a.periods[period] = struct{}{}
	a.newDists = append(a.newDists, dist)

	a.raise(RevenueDistributed{
		SongID:         a.Song.ID,
		DistributionID: dist.ID,
		Period:         period,
		TotalRevenue:   total.Value(),
		HolderCount:    len(dist.Payouts),
		OccurredAt:     now,
	})
	return dist, nil
}

// Holding returns a copy of one user's position, if any.
func (a *Aggregate) Holding(userID uint64) (model.ShareOwnership, bool) {
	h, ok := a.holdings[userID]
	if !ok {
		return model.ShareOwnership{}, false
	}
	return *h, true
}

// Holdings returns copies of every position, ordered by user id for
// deterministic output.
func (a *Aggregate) Holdings() []model.ShareOwnership {
	out := make([]model.ShareOwnership, 0, len(a.holdings))
	for _, h := range a.holdings {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// OpenTransactions returns copies of the in-flight purchase sagas.
func (a *Aggregate) OpenTransactions() []model.ShareTransaction {
	out := make([]model.ShareTransaction, 0, len(a.open))
	for _, t := range a.open {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// DirtyTransactions returns the ledger entries appended or advanced
// since the aggregate was loaded; the repository upserts them on save.
func (a *Aggregate) DirtyTransactions() []*model.ShareTransaction { return a.dirtyTxns }

// NewDistributions returns the distributions computed since load.
func (a *Aggregate) NewDistributions() []*model.RevenueDistribution { return a.newDists }

// DeletedHoldings returns the user ids whose position dropped to zero
// since load; the repository removes their rows on save.
func (a *Aggregate) DeletedHoldings() []uint64 { return a.deletedHold }

// Events returns the domain events raised since load, in order.
func (a *Aggregate) Events() []Event { return a.events }

// Invariant verifies the aggregate-level share accounting:
// reserved + available + owned + in-flight must equal the fixed total.
// The repository refuses to persist an aggregate that fails this check.
func (a *Aggregate) Invariant() error {
	sum := a.Song.ArtistReservedShares + a.Song.AvailableShares
	for _, h := range a.holdings {
		sum += h.SharesOwned
	}
	for _, t := range a.open {
		sum += t.SharesQuantity
	}
	if sum != a.Song.TotalShares {
		return fmt.Errorf("share accounting broken for song %d: reserved+available+owned+pending = %d, total = %d",
			a.Song.ID, sum, a.Song.TotalShares)
	}
	return nil
}

// tradingGuard rejects mutations while the song is not open for
// trading.
func (a *Aggregate) tradingGuard() error {
	if a.Song.Status != model.SongStatusActive {
		return ErrSongNotAvailable
	}
	if a.Song.TradingDisabled {
		return ErrTradingDisabled
	}
	return nil
}

// capGuard rejects an acquisition that would push userID past the
// per-user ownership cap.  Shares already reserved for the user in
// open sagas count toward the cap.
func (a *Aggregate) capGuard(userID uint64, qty uint64) error {
	limit := a.policy.MaxUserOwnershipPct
	if limit <= 0 || limit >= 100 {
		return nil
	}
	projected := qty
	if h, ok := a.holdings[userID]; ok {
		projected += h.SharesOwned
	}
	for _, t := range a.open {
		if t.BuyerID != nil && *t.BuyerID == userID {
			projected += t.SharesQuantity
		}
	}
	if PercentageOfShares(projected, a.Song.TotalShares) > limit {
		return ErrMaxSharesPerUserExceeded
	}
	return nil
}

// credit adds shares and cost basis to a user's position, creating it
// on first acquisition.
func (a *Aggregate) credit(userID uint64, shares uint64, cost float64, now time.Time) {
	h, ok := a.holdings[userID]
	if !ok {
		h = &model.ShareOwnership{
			UserID:     userID,
			SongID:     a.Song.ID,
			AcquiredAt: now,
		}
		a.holdings[userID] = h
	}
	h.SharesOwned += shares
	h.PurchasePrice += cost
	h.Percentage = PercentageOfShares(h.SharesOwned, a.Song.TotalShares)
	h.UpdatedAt = now
}

func (a *Aggregate) appendTxn(t *model.ShareTransaction) {
	a.dirtyTxns = append(a.dirtyTxns, t)
}

func (a *Aggregate) markDirty(t *model.ShareTransaction) {
	for _, d := range a.dirtyTxns {
		if d.ID == t.ID {
			return
		}
	}
	a.dirtyTxns = append(a.dirtyTxns, t)
}

func (a *Aggregate) raise(e Event) {
	a.events = append(a.events, e)
}
