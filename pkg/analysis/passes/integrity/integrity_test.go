package integrity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/anchorproof"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/canonical"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/embedding"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/proofsection"
	"github.com/tnaegele/bloxberg-verify/pkg/testpassinterceptor"
)

var (
	calculated = strings.Repeat("ab", 32)
	other      = strings.Repeat("cd", 32)
)

func prerequisites(embedded bool, calculatedDigest, merkleRoot string) map[*analysis.Analyzer]any {
	return map[*analysis.Analyzer]any{
		proofsection.Analyzer: &proofsection.Result{Crid: "0e4d"},
		embedding.Analyzer:    embedded,
		canonical.Analyzer:    &canonical.Result{Digest: calculatedDigest},
		anchorproof.Analyzer:  &anchorproof.Result{MerkleRoot: merkleRoot, TransactionID: "0xabc123"},
	}
}

func TestDigestsMatch(t *testing.T) {
	digestMismatch.ReportAll = true
	t.Cleanup(func() { digestMismatch.ReportAll = false })
	var interceptor testpassinterceptor.TestPassInterceptor

	res, err := Analyzer.Run(interceptor.NewPass(Analyzer.Name, analysis.CheckParams{}, prerequisites(true, calculated, calculated)))
	require.NoError(t, err)
	require.Equal(t, calculated, res)

	require.Len(t, interceptor.Diagnostics, 1)
	require.Equal(t, analysis.OK, interceptor.Diagnostics[0].Severity)
	require.Equal(t,
		"Original file hash: 0e4d\nMerkle root: "+calculated+"\nTransaction id: 0xabc123",
		interceptor.Diagnostics[0].Detail,
	)
}

func TestTampered(t *testing.T) {
	var interceptor testpassinterceptor.TestPassInterceptor

	res, err := Analyzer.Run(interceptor.NewPass(Analyzer.Name, analysis.CheckParams{}, prerequisites(true, calculated, other)))
	require.NoError(t, err)
	require.Nil(t, res)

	require.Len(t, interceptor.Diagnostics, 1)
	require.Equal(t, "digest-mismatch", interceptor.Diagnostics[0].Name)
	require.Equal(t, analysis.Error, interceptor.Diagnostics[0].Severity)
	require.Contains(t, interceptor.Diagnostics[0].Title, "The json proof file has been tampered.")
	require.Contains(t, interceptor.Diagnostics[0].Detail, other)
}

func TestSkippedAfterEmbeddingFailure(t *testing.T) {
	var interceptor testpassinterceptor.TestPassInterceptor

	results := prerequisites(true, calculated, other)
	delete(results, embedding.Analyzer)

	res, err := Analyzer.Run(interceptor.NewPass(Analyzer.Name, analysis.CheckParams{}, results))
	require.NoError(t, err)
	require.Nil(t, res)
	require.Len(t, interceptor.Diagnostics, 0)
}
