package onchain

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/anchorproof"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/integrity"
	"github.com/tnaegele/bloxberg-verify/pkg/chain"
	"github.com/tnaegele/bloxberg-verify/pkg/testpassinterceptor"
)

var calculated = strings.Repeat("ab", 32)

type fakeVerifier struct {
	facts *chain.Facts
	err   error
	calls []string
}

func (f *fakeVerifier) Verify(ctx context.Context, txid string) (*chain.Facts, error) {
	f.calls = append(f.calls, txid)
	return f.facts, f.err
}

func prerequisites(withIntegrity bool) map[*analysis.Analyzer]any {
	results := map[*analysis.Analyzer]any{
		anchorproof.Analyzer: &anchorproof.Result{MerkleRoot: calculated, TransactionID: "0xabc123"},
	}
	if withIntegrity {
		results[integrity.Analyzer] = calculated
	}
	return results
}

func facts(onChain string) *chain.Facts {
	return &chain.Facts{
		TransactionID:  "0xabc123",
		Method:         "createCertificate",
		OnChainDigest:  onChain,
		BlockNumber:    100,
		BlockTimestamp: time.Date(2024, 2, 1, 12, 30, 15, 0, time.UTC),
		Confirmations:  5,
	}
}

func TestOnChainMatch(t *testing.T) {
	onchainMismatch.ReportAll = true
	t.Cleanup(func() { onchainMismatch.ReportAll = false })
	var interceptor testpassinterceptor.TestPassInterceptor

	verifier := &fakeVerifier{facts: facts(calculated)}
	pass := interceptor.NewPass(Analyzer.Name, analysis.CheckParams{Chain: verifier}, prerequisites(true))

	res, err := Analyzer.Run(pass)
	require.NoError(t, err)
	require.Equal(t, []string{"0xabc123"}, verifier.calls)

	result := res.(*Result)
	require.True(t, result.Match)
	require.Len(t, interceptor.Diagnostics, 1)
	require.Equal(t, analysis.OK, interceptor.Diagnostics[0].Severity)
	require.Equal(t,
		"Hashes match. The file is properly timestamped on the bloxberg blockchain. The block timestamp is 2024-02-01 12:30:15 and the number of block confirmations is 5.",
		interceptor.Diagnostics[0].Title,
	)
}

func TestOnChainMismatch(t *testing.T) {
	var interceptor testpassinterceptor.TestPassInterceptor

	verifier := &fakeVerifier{facts: facts(strings.Repeat("00", 32))}
	pass := interceptor.NewPass(Analyzer.Name, analysis.CheckParams{Chain: verifier}, prerequisites(true))

	res, err := Analyzer.Run(pass)
	require.NoError(t, err)
	require.False(t, res.(*Result).Match)

	require.Len(t, interceptor.Diagnostics, 1)
	require.Equal(t, "onchain-mismatch", interceptor.Diagnostics[0].Name)
	require.Equal(t, "Error: hash in file and hash online do not match!", interceptor.Diagnostics[0].Title)
}

func TestChainFailure(t *testing.T) {
	var interceptor testpassinterceptor.TestPassInterceptor

	verifier := &fakeVerifier{err: fmt.Errorf("%w: dial tcp: i/o timeout", chain.ErrChainUnavailable)}
	pass := interceptor.NewPass(Analyzer.Name, analysis.CheckParams{Chain: verifier}, prerequisites(true))

	res, err := Analyzer.Run(pass)
	require.ErrorIs(t, err, chain.ErrChainUnavailable)
	require.Nil(t, res)
	require.Len(t, interceptor.Diagnostics, 1)
	require.Equal(t, "chain-error", interceptor.Diagnostics[0].Name)
}

func TestNoChainCallWithoutLocalMatch(t *testing.T) {
	var interceptor testpassinterceptor.TestPassInterceptor

	verifier := &fakeVerifier{facts: facts(calculated)}
	pass := interceptor.NewPass(Analyzer.Name, analysis.CheckParams{Chain: verifier}, prerequisites(false))

	res, err := Analyzer.Run(pass)
	require.NoError(t, err)
	require.Nil(t, res)
	require.Empty(t, verifier.calls)
	require.Len(t, interceptor.Diagnostics, 0)
}
