// Package ethrpc implements chain.Client over an Ethereum JSON-RPC endpoint.
package ethrpc

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/tnaegele/bloxberg-verify/pkg/chain"
	"github.com/tnaegele/bloxberg-verify/pkg/logme"
)

type Client struct {
	rpc *rpc.Client
	eth *ethclient.Client
}

var _ chain.Client = (*Client)(nil)

type rpcTransaction struct {
	Hash        common.Hash     `json:"hash"`
	BlockNumber *hexutil.Big    `json:"blockNumber"`
	To          *common.Address `json:"to"`
	Input       hexutil.Bytes   `json:"input"`
}

type rpcBlockHeader struct {
	Number    hexutil.Uint64 `json:"number"`
	Timestamp hexutil.Uint64 `json:"timestamp"`
}

// Dial prepares a client for endpoint. No request is made until the first call.
func Dial(ctx context.Context, endpoint string, httpClient *http.Client) (*Client, error) {
	opts := []rpc.ClientOption{}
	if httpClient != nil {
		opts = append(opts, rpc.WithHTTPClient(httpClient))
	}
	c, err := rpc.DialOptions(ctx, endpoint, opts...)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", endpoint, err)
	}
	return &Client{
		rpc: c,
		eth: ethclient.NewClient(c),
	}, nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	var version string
	if err := c.rpc.CallContext(ctx, &version, "web3_clientVersion"); err != nil {
		return err
	}
	logme.DebugFln("ethrpc: connected to %s", version)
	return nil
}

func (c *Client) TransactionByID(ctx context.Context, txid string) (*chain.Transaction, error) {
	if !strings.HasPrefix(txid, "0x") && !strings.HasPrefix(txid, "0X") {
		txid = "0x" + txid
	}
	b, err := hexutil.Decode(txid)
	if err != nil || len(b) != common.HashLength {
		return nil, fmt.Errorf("%w: %q is not a transaction hash", chain.ErrTransactionNotFound, txid)
	}

	var tx *rpcTransaction
	if err := c.rpc.CallContext(ctx, &tx, "eth_getTransactionByHash", common.BytesToHash(b)); err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, fmt.Errorf("%w: %s", chain.ErrTransactionNotFound, txid)
	}

	out := &chain.Transaction{
		Hash:    tx.Hash.Hex(),
		Pending: tx.BlockNumber == nil,
		Input:   tx.Input,
	}
	if tx.To != nil {
		out.To = tx.To.Hex()
	}
	if tx.BlockNumber != nil {
		out.BlockNumber = tx.BlockNumber.ToInt().Uint64()
	}
	return out, nil
}

func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	var head *rpcBlockHeader
	if err := c.rpc.CallContext(ctx, &head, "eth_getBlockByNumber", hexutil.EncodeUint64(number), false); err != nil {
		return 0, err
	}
	if head == nil {
		return 0, fmt.Errorf("block %d not found", number)
	}
	return uint64(head.Timestamp), nil
}

func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}
