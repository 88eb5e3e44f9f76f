package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/song-share-ledger/internal/ledger"
	"github.com/iliyamo/song-share-ledger/internal/model"
	"github.com/iliyamo/song-share-ledger/internal/repository"
	"github.com/iliyamo/song-share-ledger/internal/usecase"
)

func newCreateSong(store ledger.Repository) *usecase.CreateSong {
	return &usecase.CreateSong{
		Repo:   store,
		Policy: testPolicy(),
		NewID:  func() uint64 { return songID },
		Now:    func() time.Time { return testTime },
	}
}

func TestCreateSongTokenizes(t *testing.T) {
	store := repository.NewMemoryOwnershipStore(testPolicy())

	song, err := newCreateSong(store).Execute(context.Background(), usecase.CreateSongInput{
		ArtistID:           artistID,
		Title:              "Midnight Drive",
		TotalShares:        1000,
		InitialPrice:       10.00,
		ReservedPercentage: 20,
	})
	require.NoError(t, err)

	assert.Equal(t, songID, song.ID)
	assert.Equal(t, uint64(200), song.ArtistReservedShares)
	assert.Equal(t, uint64(800), song.AvailableShares)
	assert.Equal(t, model.SongStatusDraft, song.Status)
	assert.Equal(t, uint64(1), song.Version)

	outbox := store.Outbox(songID)
	require.Len(t, outbox, 1)
	assert.Equal(t, "song.tokenized", outbox[0].EventType)
}

func TestCreateSongActivateImmediately(t *testing.T) {
	store := repository.NewMemoryOwnershipStore(testPolicy())

	song, err := newCreateSong(store).Execute(context.Background(), usecase.CreateSongInput{
		ArtistID:     artistID,
		Title:        "Open Offering",
		TotalShares:  500,
		InitialPrice: 5.00,
		Activate:     true,
	})
	require.NoError(t, err)
	assert.Equal(t, model.SongStatusActive, song.Status)
	assert.Equal(t, uint64(0), song.ArtistReservedShares)
	assert.Equal(t, uint64(500), song.AvailableShares)
}

func TestCreateSongValidation(t *testing.T) {
	store := repository.NewMemoryOwnershipStore(testPolicy())
	uc := newCreateSong(store)

	_, err := uc.Execute(context.Background(), usecase.CreateSongInput{
		ArtistID: artistID, Title: "Bad Price", TotalShares: 1000, InitialPrice: 0,
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidSharePrice)

	_, err = uc.Execute(context.Background(), usecase.CreateSongInput{
		ArtistID: artistID, Title: "No Supply", TotalShares: 0, InitialPrice: 10,
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidTotalShares)

	_, err = uc.Execute(context.Background(), usecase.CreateSongInput{
		ArtistID: artistID, Title: "Hoarded", TotalShares: 1000, InitialPrice: 10, ReservedPercentage: 100,
	})
	assert.ErrorIs(t, err, ledger.ErrInvalidOwnershipPercentage)
}

func TestCreateSongDuplicateID(t *testing.T) {
	store := repository.NewMemoryOwnershipStore(testPolicy())
	uc := newCreateSong(store)

	in := usecase.CreateSongInput{
		ArtistID: artistID, Title: "Midnight Drive", TotalShares: 1000, InitialPrice: 10,
	}
	_, err := uc.Execute(context.Background(), in)
	require.NoError(t, err)

	_, err = uc.Execute(context.Background(), in)
	assert.ErrorIs(t, err, ledger.ErrSongAlreadyExists)
}
