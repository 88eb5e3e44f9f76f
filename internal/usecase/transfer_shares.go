package usecase

import (
	"context"
	"time"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
	"github.com/iliyamo/song-share-ledger/internal/model"
)

// TransferShares moves an ownership slice between fans.  Transfers are
// free of charge on the platform side; money, if any, changes hands
// off-platform.
type TransferShares struct {
	Repo ledger.Repository
	Now  func() time.Time
}

// NewTransferShares wires the use case with production defaults.
func NewTransferShares(repo ledger.Repository) *TransferShares {
	return &TransferShares{Repo: repo, Now: time.Now}
}

// TransferInput carries one transfer order.  Percentage picks the
// slice of the song, not of the sender's position.  TransferPrice is
// the per-share price the parties agreed on; zero means the song's
// current price.
type TransferInput struct {
	FromUserID    uint64
	SongID        uint64
	ToUserID      uint64
	Percentage    float64
	TransferPrice float64
}

// Execute performs the transfer at the agreed price.
func (uc *TransferShares) Execute(ctx context.Context, in TransferInput) (*model.ShareTransaction, error) {
	pct, err := ledger.NewOwnershipPercentage(in.Percentage)
	if err != nil {
		return nil, err
	}
	if in.TransferPrice != 0 {
		if _, err := ledger.NewSharePrice(in.TransferPrice); err != nil {
			return nil, err
		}
	}
	var txn *model.ShareTransaction
	_, err = mutate(ctx, uc.Repo, in.SongID, func(a *ledger.Aggregate) error {
		perShare := in.TransferPrice
		if perShare == 0 {
			perShare = a.Song.CurrentPricePerShare
		}
		price, err := ledger.NewSharePrice(perShare)
		if err != nil {
			return err
		}
		t, err := a.TransferShares(in.FromUserID, in.ToUserID, pct, price, uc.Now().UTC())
		if err != nil {
			return err
		}
		txn = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}
