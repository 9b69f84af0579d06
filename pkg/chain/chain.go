package chain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tnaegele/bloxberg-verify/pkg/logme"
)

var (
	ErrChainUnavailable    = errors.New("chain endpoint unavailable")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrDecode              = errors.New("cannot decode transaction input")
)

// Transaction is the part of a ledger transaction the verifier reads.
type Transaction struct {
	Hash        string
	To          string
	BlockNumber uint64
	Pending     bool
	Input       []byte
}

// Client is the ledger collaborator used by the Verifier.
type Client interface {
	// Ping fails when the endpoint cannot be reached.
	Ping(ctx context.Context) error
	// TransactionByID returns ErrTransactionNotFound when the ledger does not know txid.
	TransactionByID(ctx context.Context, txid string) (*Transaction, error)
	// BlockTimestamp returns the block time in seconds since the epoch.
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Facts is what the ledger says about an anchoring transaction.
type Facts struct {
	TransactionID  string    `json:"transactionId"`
	Method         string    `json:"method"`
	OnChainDigest  string    `json:"onChainDigest"`
	TokenURI       string    `json:"tokenUri,omitempty"`
	BlockNumber    uint64    `json:"blockNumber"`
	BlockTimestamp time.Time `json:"blockTimestamp"`
	Confirmations  uint64    `json:"confirmations"`
}

type Verifier struct {
	client   Client
	contract *Contract
}

func NewVerifier(client Client, contract *Contract) *Verifier {
	return &Verifier{
		client:   client,
		contract: contract,
	}
}

// Verify reads the digest recorded by txid along with its block time and depth.
// Nothing is retried: the first failing call aborts.
func (v *Verifier) Verify(ctx context.Context, txid string) (*Facts, error) {
	logme.DebugFln("chain: checking endpoint liveness")
	if err := v.client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChainUnavailable, err)
	}

	logme.DebugFln("chain: fetching transaction %s", txid)
	tx, err := v.client.TransactionByID(ctx, txid)
	if err != nil {
		return nil, fmt.Errorf("fetching transaction %s: %w", txid, err)
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: %s", ErrTransactionNotFound, txid)
	}
	if tx.Pending {
		return nil, fmt.Errorf("%w: %s is still pending", ErrTransactionNotFound, txid)
	}
	if tx.To != "" && common.HexToAddress(tx.To) != v.contract.Address {
		logme.DebugFln("chain: transaction %s was sent to %s, not %s", txid, tx.To, v.contract.Address.Hex())
	}

	call, err := v.contract.DecodeInput(tx.Input)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", txid, err)
	}
	logme.DebugFln("chain: %s call recorded digest %s", call.Method, call.Digest)

	ts, err := v.client.BlockTimestamp(ctx, tx.BlockNumber)
	if err != nil {
		return nil, fmt.Errorf("fetching block %d: %w", tx.BlockNumber, err)
	}

	head, err := v.client.BlockNumber(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching chain height: %w", err)
	}

	return &Facts{
		TransactionID:  txid,
		Method:         call.Method,
		OnChainDigest:  call.Digest,
		TokenURI:       call.TokenURI,
		BlockNumber:    tx.BlockNumber,
		BlockTimestamp: time.Unix(int64(ts), 0).UTC(),
		Confirmations:  Confirmations(head, tx.BlockNumber),
	}, nil
}

// Confirmations is the number of blocks mined after inclusion.
func Confirmations(head, included uint64) uint64 {
	if head < included {
		return 0
	}
	return head - included
}
