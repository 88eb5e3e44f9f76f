package service

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// SolanaMinter records ownership proofs on chain.  Each confirmed
// purchase mints the position's size in basis points of the platform's
// SPL share mint into the custody token account; the transaction
// signature becomes the proof's token id.  The fee payer is also the
// mint authority.
type SolanaMinter struct {
	RPCClient *rpc.Client
	FeePayer  solana.PrivateKey
	Mint      solana.PublicKey
	Custody   solana.PublicKey
}

// NewSolanaMinter builds a minter from the endpoint and the base58
// encoded fee payer key.
func NewSolanaMinter(endpoint, feePayerKey, mintAddr, custodyAddr string) (*SolanaMinter, error) {
	payer, err := solana.PrivateKeyFromBase58(feePayerKey)
	if err != nil {
		return nil, fmt.Errorf("solana: parse fee payer key: %w", err)
	}
	mint, err := solana.PublicKeyFromBase58(mintAddr)
	if err != nil {
		return nil, fmt.Errorf("solana: parse mint address: %w", err)
	}
	custody, err := solana.PublicKeyFromBase58(custodyAddr)
	if err != nil {
		return nil, fmt.Errorf("solana: parse custody address: %w", err)
	}
	return &SolanaMinter{
		RPCClient: rpc.New(endpoint),
		FeePayer:  payer,
		Mint:      mint,
		Custody:   custody,
	}, nil
}

// MintOwnershipProof mints the proof for one confirmed purchase and
// returns the transaction signature.
func (m *SolanaMinter) MintOwnershipProof(ctx context.Context, songID, userID uint64, percentage float64) (string, error) {
	resp, err := m.RPCClient.GetRecentBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("solana: get blockhash: %w", err)
	}

	// Basis points keep the amount integral down to 0.01%.
	amount := uint64(percentage * 100)
	if amount == 0 {
		amount = 1
	}
	mintInstruction := token.NewMintToInstruction(
		amount,
		m.Mint,
		m.Custody,
		m.FeePayer.PublicKey(),
		nil,
	).Build()

	tx, err := solana.NewTransaction(
		[]solana.Instruction{mintInstruction},
		resp.Value.Blockhash,
		solana.TransactionPayer(m.FeePayer.PublicKey()),
	)
	if err != nil {
		return "", fmt.Errorf("solana: build mint transaction: %w", err)
	}
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(m.FeePayer.PublicKey()) {
			return &m.FeePayer
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("solana: sign mint transaction: %w", err)
	}

	sig, err := m.RPCClient.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("solana: send mint transaction for song %d user %d: %w", songID, userID, err)
	}
	return sig.String(), nil
}
