package ethrpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/require"

	"github.com/tnaegele/bloxberg-verify/pkg/chain"
)

const (
	endpoint = "https://node.example.org/"
	txID     = "0x9a0b1c2d3e4f5a6b7c8d9e0f1a2b3c4d5e6f7a8b9c0d1e2f3a4b5c6d7e8f9a0b"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type fakeNode struct {
	mu       sync.Mutex
	results  map[string]any
	requests []rpcRequest
}

func (n *fakeNode) responder(req *http.Request) (*http.Response, error) {
	var r rpcRequest
	if err := json.NewDecoder(req.Body).Decode(&r); err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.requests = append(n.requests, r)
	result, ok := n.results[r.Method]
	n.mu.Unlock()

	body := map[string]any{"jsonrpc": "2.0", "id": r.ID}
	if ok {
		body["result"] = result
	} else {
		body["error"] = map[string]any{"code": -32601, "message": "the method " + r.Method + " does not exist"}
	}
	return httpmock.NewJsonResponse(http.StatusOK, body)
}

func (n *fakeNode) methods() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.requests))
	for _, r := range n.requests {
		out = append(out, r.Method)
	}
	return out
}

func setup(t *testing.T, results map[string]any) (*Client, *fakeNode) {
	t.Helper()

	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	node := &fakeNode{results: results}
	httpmock.RegisterResponder(http.MethodPost, endpoint, node.responder)

	c, err := Dial(context.Background(), endpoint, httpClient)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c, node
}

func TestPing(t *testing.T) {
	c, node := setup(t, map[string]any{"web3_clientVersion": "OpenEthereum//v3.3.5"})
	require.NoError(t, c.Ping(context.Background()))
	require.Equal(t, []string{"web3_clientVersion"}, node.methods())
}

func TestPingTransportError(t *testing.T) {
	httpClient := &http.Client{}
	httpmock.ActivateNonDefault(httpClient)
	defer httpmock.DeactivateAndReset()
	httpmock.RegisterResponder(http.MethodPost, endpoint, httpmock.NewErrorResponder(errors.New("connection refused")))

	c, err := Dial(context.Background(), endpoint, httpClient)
	require.NoError(t, err)
	defer c.Close()

	err = c.Ping(context.Background())
	require.ErrorContains(t, err, "connection refused")
}

func TestTransactionByID(t *testing.T) {
	contract, err := chain.DefaultContract()
	require.NoError(t, err)
	input, err := contract.ABI.Pack("createCertificate", common.HexToAddress("0x01"), "uri", "digest")
	require.NoError(t, err)

	t.Run("mined", func(t *testing.T) {
		c, node := setup(t, map[string]any{
			"eth_getTransactionByHash": map[string]any{
				"hash":        txID,
				"blockNumber": "0x64",
				"to":          chain.DefaultContractAddress,
				"input":       hexutil.Encode(input),
			},
		})

		tx, err := c.TransactionByID(context.Background(), txID)
		require.NoError(t, err)
		require.Equal(t, &chain.Transaction{
			Hash:        txID,
			To:          common.HexToAddress(chain.DefaultContractAddress).Hex(),
			BlockNumber: 100,
			Input:       input,
		}, tx)

		require.Len(t, node.requests, 1)
		require.JSONEq(t, `"`+txID+`"`, string(node.requests[0].Params[0]))
	})

	t.Run("without 0x prefix", func(t *testing.T) {
		c, node := setup(t, map[string]any{"eth_getTransactionByHash": nil})
		_, err := c.TransactionByID(context.Background(), txID[2:])
		require.ErrorIs(t, err, chain.ErrTransactionNotFound)
		require.Equal(t, []string{"eth_getTransactionByHash"}, node.methods())
	})

	t.Run("pending", func(t *testing.T) {
		c, _ := setup(t, map[string]any{
			"eth_getTransactionByHash": map[string]any{
				"hash":        txID,
				"blockNumber": nil,
				"input":       hexutil.Encode(input),
			},
		})

		tx, err := c.TransactionByID(context.Background(), txID)
		require.NoError(t, err)
		require.True(t, tx.Pending)
		require.Empty(t, tx.To)
	})

	t.Run("unknown", func(t *testing.T) {
		c, _ := setup(t, map[string]any{"eth_getTransactionByHash": nil})
		_, err := c.TransactionByID(context.Background(), txID)
		require.ErrorIs(t, err, chain.ErrTransactionNotFound)
	})

	t.Run("not a hash", func(t *testing.T) {
		c, node := setup(t, map[string]any{})
		_, err := c.TransactionByID(context.Background(), "0xabc123")
		require.ErrorIs(t, err, chain.ErrTransactionNotFound)
		require.Empty(t, node.methods())
	})

	t.Run("node error", func(t *testing.T) {
		c, _ := setup(t, map[string]any{})
		_, err := c.TransactionByID(context.Background(), txID)
		require.ErrorContains(t, err, "does not exist")
		require.NotErrorIs(t, err, chain.ErrTransactionNotFound)
	})
}

func TestBlocks(t *testing.T) {
	c, node := setup(t, map[string]any{
		"eth_getBlockByNumber": map[string]any{"number": "0x64", "timestamp": "0x65bb8e57"},
		"eth_blockNumber":      "0x69",
	})

	ts, err := c.BlockTimestamp(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, uint64(0x65bb8e57), ts)
	require.JSONEq(t, `"0x64"`, string(node.requests[0].Params[0]))
	require.JSONEq(t, `false`, string(node.requests[0].Params[1]))

	head, err := c.BlockNumber(context.Background())
	require.NoError(t, err)
	require.Equal(t, uint64(105), head)

	require.Equal(t, []string{"eth_getBlockByNumber", "eth_blockNumber"}, node.methods())
}

func TestMissingBlock(t *testing.T) {
	c, _ := setup(t, map[string]any{"eth_getBlockByNumber": nil})
	_, err := c.BlockTimestamp(context.Background(), 7)
	require.ErrorContains(t, err, "block 7 not found")
}

func TestVerifierOverRPC(t *testing.T) {
	contract, err := chain.DefaultContract()
	require.NoError(t, err)
	input, err := contract.ABI.Pack("createCertificate", common.HexToAddress("0x01"), "uri", "cafe")
	require.NoError(t, err)

	c, node := setup(t, map[string]any{
		"web3_clientVersion": "OpenEthereum//v3.3.5",
		"eth_getTransactionByHash": map[string]any{
			"hash":        txID,
			"blockNumber": "0x64",
			"to":          chain.DefaultContractAddress,
			"input":       hexutil.Encode(input),
		},
		"eth_getBlockByNumber": map[string]any{"number": "0x64", "timestamp": "0x65bb8e57"},
		"eth_blockNumber":      "0x69",
	})

	facts, err := chain.NewVerifier(c, contract).Verify(context.Background(), txID)
	require.NoError(t, err)
	require.Equal(t, "cafe", facts.OnChainDigest)
	require.Equal(t, uint64(5), facts.Confirmations)
	require.Equal(t, int64(0x65bb8e57), facts.BlockTimestamp.Unix())
	require.Equal(t, []string{
		"web3_clientVersion",
		"eth_getTransactionByHash",
		"eth_getBlockByNumber",
		"eth_blockNumber",
	}, node.methods())
}
