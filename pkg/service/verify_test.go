package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/r3labs/diff/v3"
	"github.com/stretchr/testify/require"

	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/canonicalize"
	"github.com/tnaegele/bloxberg-verify/pkg/chain"
	"github.com/tnaegele/bloxberg-verify/pkg/document"
	"github.com/tnaegele/bloxberg-verify/pkg/fixtures"
	"github.com/tnaegele/bloxberg-verify/pkg/merkleproof"
)

// requireReport diffs the scalar fields of two reports, ignoring the run id and the check list.
func requireReport(t *testing.T, expected, actual *Report) {
	t.Helper()
	e, a := *expected, *actual
	e.RunID, a.RunID = "", ""
	e.Checks, a.Checks = nil, nil
	e.Diagnostics, a.Diagnostics = nil, nil

	changelog, err := diff.Diff(e, a)
	require.NoError(t, err)
	require.Empty(t, changelog, "unexpected report changes: %+v", changelog)
}

func checkSeverities(r *Report) map[string]analysis.Severity {
	out := map[string]analysis.Severity{}
	for _, c := range r.Checks {
		out[c.Analyzer] = c.Severity
	}
	return out
}

func sealed(t *testing.T) (document.Document, string, *chain.MockClient) {
	t.Helper()
	doc, root, err := fixtures.SealedCertificate()
	require.NoError(t, err)
	ledger, err := fixtures.Chain(fixtures.TransactionID, root)
	require.NoError(t, err)
	return doc, root, ledger
}

func TestVerifySuccess(t *testing.T) {
	doc, root, ledger := sealed(t)

	report, err := Verify(context.Background(), Params{DocumentURI: "certificate.json", Document: doc, Chain: ledger})
	require.NoError(t, err)
	require.True(t, report.Verified())
	require.NotEmpty(t, report.RunID)
	require.NotEmpty(t, report.CanonicalCID)

	requireReport(t, &Report{
		Document:         "certificate.json",
		State:            StateDone,
		Reached:          StateChainChecked,
		Outcome:          OutcomeVerified,
		FileHashEmbedded: true,
		DigestsMatch:     true,
		OnChainMatch:     true,
		OriginalFileHash: fixtures.Crid,
		CalculatedDigest: root,
		EmbeddedDigest:   root,
		OnChainDigest:    root,
		TransactionID:    fixtures.TransactionID,
		TokenURI:         "https://bloxberg.org/certificates/6d9f1b4e",
		BlockNumber:      fixtures.BlockNumber,
		Timestamp:        "2024-02-01 12:30:15",
		Confirmations:    5,
		CanonicalCID:     report.CanonicalCID,
	}, report)

	require.Equal(t, []string{"embedding", "integrity", "onchain"}, analyzerNames(report.Checks))
	require.Equal(t, map[string]analysis.Severity{
		"embedding": analysis.OK,
		"integrity": analysis.OK,
		"onchain":   analysis.OK,
	}, checkSeverities(report))
	require.Equal(t, 4, ledger.TotalCalls())
}

func analyzerNames(checks []Check) []string {
	names := make([]string, 0, len(checks))
	for _, c := range checks {
		names = append(names, c.Analyzer)
	}
	return names
}

func TestVerifyTamperedNeverCallsChain(t *testing.T) {
	doc, root, ledger := sealed(t)
	doc["name"] = "Research object certificate (edited)"

	report, err := Verify(context.Background(), Params{Document: doc, Chain: ledger})
	require.NoError(t, err)
	require.False(t, report.Verified())
	require.Equal(t, OutcomeDigestMismatch, report.Outcome)
	require.Equal(t, StateLocalDigestsChecked, report.Reached)
	require.True(t, report.FileHashEmbedded)
	require.False(t, report.DigestsMatch)
	require.False(t, report.OnChainMatch)
	require.Equal(t, root, report.EmbeddedDigest)
	require.NotEqual(t, root, report.CalculatedDigest)
	require.Empty(t, report.OnChainDigest)

	require.Equal(t, 0, ledger.TotalCalls())
}

func TestVerifyEmbeddingFailed(t *testing.T) {
	doc, _, err := fixtures.Seal(fixtures.CertificateWithoutCridTerm(fixtures.Crid), fixtures.TransactionID)
	require.NoError(t, err)
	ledger := chain.NewMockClient()

	report, err := Verify(context.Background(), Params{Document: doc, Chain: ledger})
	require.NoError(t, err)
	require.Equal(t, StateDone, report.State)
	require.Equal(t, OutcomeEmbeddingFailed, report.Outcome)
	require.Equal(t, StateEmbeddingChecked, report.Reached)
	require.False(t, report.FileHashEmbedded)
	require.False(t, report.DigestsMatch)
	require.Equal(t, []string{"embedding"}, analyzerNames(report.Checks))
	require.Equal(t, 0, ledger.TotalCalls())
}

func TestVerifyOnChainMismatch(t *testing.T) {
	doc, _, _ := sealed(t)
	ledger, err := fixtures.Chain(fixtures.TransactionID, "0000")
	require.NoError(t, err)

	report, err := Verify(context.Background(), Params{Document: doc, Chain: ledger})
	require.NoError(t, err)
	require.Equal(t, OutcomeOnChainMismatch, report.Outcome)
	require.True(t, report.DigestsMatch)
	require.False(t, report.OnChainMatch)
	require.Equal(t, "0000", report.OnChainDigest)
	require.Equal(t, analysis.Error, checkSeverities(report)["onchain"])
}

func TestVerifyFailures(t *testing.T) {
	base, _, _ := sealed(t)
	withProof := func(proofValue string) document.Document {
		d := document.Document{}
		for k, v := range base {
			d[k] = v
		}
		d["proof"] = map[string]any{"type": "MerkleProof2019", "proofValue": proofValue}
		return d
	}
	noAnchor, err := merkleproof.Encode(&merkleproof.Proof{MerkleRoot: fixtures.Crid})
	require.NoError(t, err)

	tcs := []struct {
		name    string
		doc     document.Document
		ledger  func(*chain.MockClient)
		err     error
		kind    FailureKind
		reached State
	}{
		{
			name:    "missing proof",
			doc:     fixtures.Certificate(fixtures.Crid),
			err:     document.ErrMissingField,
			kind:    KindMissingField,
			reached: StateStart,
		},
		{
			name:    "invalid context",
			doc:     document.Document{"@context": 5.0, "crid": "abc", "proof": map[string]any{"proofValue": "zabc"}},
			err:     canonicalize.ErrCanonicalization,
			kind:    KindCanonicalization,
			reached: StateProofExtracted,
		},
		{
			name:    "unsupported encoding",
			doc:     withProof("uAAAA"),
			err:     merkleproof.ErrUnsupportedEncoding,
			kind:    KindUnsupportedEncoding,
			reached: StateCanonicalized,
		},
		{
			name:    "malformed proof",
			doc:     withProof("z1111"),
			err:     merkleproof.ErrMalformedProof,
			kind:    KindMalformedProof,
			reached: StateCanonicalized,
		},
		{
			name:    "no anchor",
			doc:     withProof(noAnchor),
			err:     merkleproof.ErrNoAnchor,
			kind:    KindNoAnchor,
			reached: StateCanonicalized,
		},
		{
			name:    "chain unavailable",
			doc:     base,
			ledger:  func(m *chain.MockClient) { m.PingErr = errors.New("dial tcp: connection refused") },
			err:     chain.ErrChainUnavailable,
			kind:    KindChainUnavailable,
			reached: StateLocalDigestsChecked,
		},
		{
			name:    "transaction not found",
			doc:     base,
			ledger:  func(m *chain.MockClient) { delete(m.Transactions, fixtures.TransactionID) },
			err:     chain.ErrTransactionNotFound,
			kind:    KindTransactionNotFound,
			reached: StateLocalDigestsChecked,
		},
		{
			name:    "unrelated transaction",
			doc:     base,
			ledger:  func(m *chain.MockClient) { m.Transactions[fixtures.TransactionID].Input = []byte{1, 2, 3, 4} },
			err:     chain.ErrDecode,
			kind:    KindDecode,
			reached: StateLocalDigestsChecked,
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, _, ledger := sealed(t)
			if tc.ledger != nil {
				tc.ledger(ledger)
			}

			report, err := Verify(context.Background(), Params{Document: tc.doc, Chain: ledger})
			require.ErrorIs(t, err, tc.err)
			require.NotNil(t, report)
			require.Equal(t, StateFailed, report.State)
			require.Equal(t, tc.kind, report.Failure)
			require.Equal(t, tc.reached, report.Reached)
			require.Empty(t, report.Outcome)
			require.False(t, report.Verified())
			require.NotEmpty(t, report.Checks, "every abort path carries a message")
		})
	}
}

func TestVerifyFromFile(t *testing.T) {
	doc, _, ledger := sealed(t)
	b, err := json.MarshalIndent(doc, "", "  ")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "bloxbergJSONCertificate.json")
	require.NoError(t, os.WriteFile(path, b, 0o600))

	report, err := Verify(context.Background(), Params{DocumentURI: path, Chain: ledger})
	require.NoError(t, err)
	require.True(t, report.Verified())
	require.Equal(t, path, report.Document)
}

func TestVerifyMissingFile(t *testing.T) {
	ledger := chain.NewMockClient()
	report, err := Verify(context.Background(), Params{DocumentURI: filepath.Join(t.TempDir(), "nope.json"), Chain: ledger})

	var pathErr *fs.PathError
	require.True(t, errors.As(err, &pathErr))
	require.ErrorIs(t, err, ErrLoad)
	require.Equal(t, StateFailed, report.State)
	require.Equal(t, KindInput, report.Failure)
	require.Equal(t, StateStart, report.Reached)
	require.Equal(t, 0, ledger.TotalCalls())
}

func TestKindOf(t *testing.T) {
	require.Equal(t, KindDecode, KindOf(fmt.Errorf("onchain: %w", fmt.Errorf("%w: bad selector", chain.ErrDecode))))
	require.Equal(t, KindInput, KindOf(errors.New("something else")))
}
