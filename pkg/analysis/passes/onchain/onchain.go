package onchain

import (
	"errors"
	"fmt"

	"github.com/tnaegele/bloxberg-verify/pkg/analysis"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/anchorproof"
	"github.com/tnaegele/bloxberg-verify/pkg/analysis/passes/integrity"
	"github.com/tnaegele/bloxberg-verify/pkg/chain"
)

// TimestampLayout is how block timestamps are shown, always in UTC.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	onchainMismatch = &analysis.Rule{Name: "onchain-mismatch", Severity: analysis.Error, Verdict: true}
	chainError      = &analysis.Rule{Name: "chain-error", Severity: analysis.Error}
)

var Analyzer = &analysis.Analyzer{
	Name:     "onchain",
	Requires: []*analysis.Analyzer{integrity.Analyzer, anchorproof.Analyzer},
	Run:      run,
	Rules:    []*analysis.Rule{onchainMismatch, chainError},
	ReadmeInfo: analysis.ReadmeInfo{
		Name:         "Blockchain Anchor",
		Description:  "Check if transaction exists in the blockchain and if it contains the merkle root",
		Dependencies: "bloxberg RPC endpoint",
	},
}

type Result struct {
	Facts *chain.Facts
	Match bool
}

func run(pass *analysis.Pass) (interface{}, error) {
	// the ledger is only consulted once the local digests agree
	calculated, ok := pass.ResultOf[integrity.Analyzer].(string)
	if !ok {
		return nil, nil
	}
	anchor, ok := pass.ResultOf[anchorproof.Analyzer].(*anchorproof.Result)
	if !ok {
		return nil, nil
	}

	if pass.CheckParams.Chain == nil {
		return nil, errors.New("no chain verifier configured")
	}

	facts, err := pass.CheckParams.Chain.Verify(pass.Ctx(), anchor.TransactionID)
	if err != nil {
		pass.ReportResult(
			pass.AnalyzerName,
			chainError,
			err.Error(),
			"The anchoring transaction could not be read from the blockchain. Check the endpoint and that the transaction id belongs to the certificate contract.",
		)
		return nil, err
	}

	if facts.OnChainDigest != calculated {
		pass.ReportResult(
			pass.AnalyzerName,
			onchainMismatch,
			"Error: hash in file and hash online do not match!",
			fmt.Sprintf("Hash in transaction %s: %s\nCalculated hash: %s", facts.TransactionID, facts.OnChainDigest, calculated),
		)
		return &Result{Facts: facts, Match: false}, nil
	}

	pass.ReportOK(
		pass.AnalyzerName,
		onchainMismatch,
		fmt.Sprintf(
			"Hashes match. The file is properly timestamped on the bloxberg blockchain. The block timestamp is %s and the number of block confirmations is %d.",
			facts.BlockTimestamp.UTC().Format(TimestampLayout),
			facts.Confirmations,
		),
		fmt.Sprintf("On-chain hash: %s", facts.OnChainDigest),
	)
	return &Result{Facts: facts, Match: true}, nil
}
